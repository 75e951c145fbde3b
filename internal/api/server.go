package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
	"github.com/dgnsrekt/vcp_tinder/internal/market"
	"github.com/dgnsrekt/vcp_tinder/internal/push"
	"github.com/dgnsrekt/vcp_tinder/internal/render"
	"github.com/dgnsrekt/vcp_tinder/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	ListTickers(ctx context.Context) []string
	ChartBars(ctx context.Context, ticker string) (market.Series, error)
	Annotations(ctx context.Context, ticker string) (annotation.Set, error)
	SaveAnnotations(ctx context.Context, ticker string, set annotation.Set) error
	HandleEvent(sc session.Context, evt session.Event) (session.Context, session.RenderDescription, error)
	TakeSnapshot(ctx context.Context, ticker string, start, end int64, notes string) (render.SnapshotMeta, error)
	ListSnapshots(ctx context.Context) ([]render.SnapshotMeta, error)
	GetSnapshot(ctx context.Context, id string) (render.SnapshotMeta, error)
	ReadSnapshotImage(ctx context.Context, id string) ([]byte, string, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

func NewServer(svc Service, broker *push.Broker, staticDir string) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("VCP Labeler API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	registerMarketHandlers(api, svc)
	registerSessionHandlers(api, svc)
	registerSnapshotHandlers(api, svc)

	// Streaming and static assets bypass huma and register directly on chi.
	router.Get("/api/v1/events", push.SSEHandler(broker))
	router.Get("/api/v1/session/ws", push.ViewportSocket(svc))
	if staticDir != "" {
		fs := http.StripPrefix("/app", http.FileServer(http.Dir(staticDir)))
		router.Handle("/app/*", fs)
	}

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *session.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case session.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case session.CodeTickerNotFound, session.CodeSnapshotNotFound:
			return huma.Error404NotFound(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
