package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
	"github.com/dgnsrekt/vcp_tinder/internal/catalog"
	"github.com/dgnsrekt/vcp_tinder/internal/market"
	"github.com/dgnsrekt/vcp_tinder/internal/push"
	"github.com/dgnsrekt/vcp_tinder/internal/render"
	"github.com/dgnsrekt/vcp_tinder/internal/session"
	"github.com/dgnsrekt/vcp_tinder/internal/viewport"
	"github.com/google/uuid"
)

// Service wires the stores, the session controller, and the snapshot
// renderer behind the API surface.
type Service struct {
	catalog  *catalog.Catalog
	series   *market.SeriesStore
	annos    *annotation.Store
	sessions *session.Controller
	snaps    *render.Store
	broker   *push.Broker
}

func NewService(cat *catalog.Catalog, series *market.SeriesStore, annos *annotation.Store, sessions *session.Controller, snaps *render.Store, broker *push.Broker) *Service {
	return &Service{
		catalog:  cat,
		series:   series,
		annos:    annos,
		sessions: sessions,
		snaps:    snaps,
		broker:   broker,
	}
}

func (s *Service) ListTickers(ctx context.Context) []string {
	return s.catalog.List()
}

func (s *Service) requireTicker(ticker string) (string, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return "", &session.CodedError{Code: session.CodeValidation, Message: "ticker is required"}
	}
	for _, t := range s.catalog.List() {
		if t == ticker {
			return ticker, nil
		}
	}
	return "", &session.CodedError{Code: session.CodeTickerNotFound, Message: fmt.Sprintf("unknown ticker %q", ticker)}
}

// ChartBars returns a ticker's canonical series. A known ticker with a
// broken or empty series file yields an empty slice, not an error.
func (s *Service) ChartBars(ctx context.Context, ticker string) (market.Series, error) {
	ticker, err := s.requireTicker(ticker)
	if err != nil {
		return nil, err
	}
	return s.series.Get(ticker), nil
}

func (s *Service) Annotations(ctx context.Context, ticker string) (annotation.Set, error) {
	ticker, err := s.requireTicker(ticker)
	if err != nil {
		return annotation.Set{}, err
	}
	return s.annos.Load(ticker), nil
}

func (s *Service) SaveAnnotations(ctx context.Context, ticker string, set annotation.Set) error {
	ticker, err := s.requireTicker(ticker)
	if err != nil {
		return err
	}
	if !s.annos.Save(ticker, set) {
		return &session.CodedError{Code: session.CodeStorageFailure, Message: "failed to save annotations for " + ticker}
	}
	return nil
}

// HandleEvent runs one session event and publishes the resulting render
// output so passive stream viewers follow along.
func (s *Service) HandleEvent(sc session.Context, evt session.Event) (session.Context, session.RenderDescription, error) {
	sc, desc, err := s.sessions.Handle(sc, evt)
	if err != nil {
		return sc, desc, err
	}

	switch desc.Kind {
	case session.RenderFull:
		s.publish(push.TopicRender, desc)
	case session.RenderPatch:
		s.publish(push.TopicPatch, desc)
	}
	return sc, desc, nil
}

func (s *Service) publish(topic string, desc session.RenderDescription) {
	payload, err := json.Marshal(desc)
	if err != nil {
		slog.Error("render publish marshal failed", "topic", topic, "error", err)
		return
	}
	s.broker.Publish(push.Event{Topic: topic, Payload: string(payload)})
}

// TakeSnapshot renders the given window (or the full series when start and
// end are zero) to a PNG and stores it.
func (s *Service) TakeSnapshot(ctx context.Context, ticker string, start, end int64, notes string) (render.SnapshotMeta, error) {
	ticker, err := s.requireTicker(ticker)
	if err != nil {
		return render.SnapshotMeta{}, err
	}

	series := s.series.Get(ticker)
	vp, ok := viewport.Full(series)
	if !ok {
		return render.SnapshotMeta{}, &session.CodedError{Code: session.CodeValidation, Message: "series is empty, nothing to snapshot"}
	}
	if start != 0 || end != 0 {
		if start >= end {
			return render.SnapshotMeta{}, &session.CodedError{Code: session.CodeValidation, Message: "start must be before end"}
		}
		vp = viewport.Viewport{Start: start, End: end, Source: viewport.SourceZoom}
	}

	visible := viewport.VisibleSlice(series, vp)
	ranges := viewport.Autoscale(visible, series)
	window := visible
	if len(window) == 0 {
		window = series
	}

	img, width, height, err := render.ChartPNG(ticker, window, ranges)
	if err != nil {
		return render.SnapshotMeta{}, fmt.Errorf("render snapshot: %w", err)
	}

	meta := render.SnapshotMeta{
		ID:            uuid.New().String(),
		Ticker:        ticker,
		Format:        "png",
		Width:         width,
		Height:        height,
		SizeBytes:     len(img),
		CreatedAt:     time.Now().UTC(),
		ViewportStart: vp.Start,
		ViewportEnd:   vp.End,
		Notes:         strings.TrimSpace(notes),
	}
	if err := s.snaps.Save(meta, img); err != nil {
		return render.SnapshotMeta{}, &session.CodedError{Code: session.CodeStorageFailure, Message: "save snapshot", Cause: err}
	}
	return meta, nil
}

func (s *Service) ListSnapshots(ctx context.Context) ([]render.SnapshotMeta, error) {
	return s.snaps.List()
}

func (s *Service) GetSnapshot(ctx context.Context, id string) (render.SnapshotMeta, error) {
	meta, err := s.snaps.Get(id)
	return meta, mapSnapshotErr(err)
}

func (s *Service) ReadSnapshotImage(ctx context.Context, id string) ([]byte, string, error) {
	data, format, err := s.snaps.ReadImage(id)
	return data, format, mapSnapshotErr(err)
}

func (s *Service) DeleteSnapshot(ctx context.Context, id string) error {
	return mapSnapshotErr(s.snaps.Delete(id))
}

func mapSnapshotErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, render.ErrNotFound) {
		return &session.CodedError{Code: session.CodeSnapshotNotFound, Message: err.Error()}
	}
	return err
}
