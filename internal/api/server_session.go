package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/vcp_tinder/internal/session"
)

func registerSessionHandlers(api huma.API, svc Service) {
	type eventInput struct {
		Body struct {
			Context session.Context `json:"context"`
			Event   session.Event   `json:"event"`
		}
	}
	type eventOutput struct {
		Body struct {
			Context session.Context           `json:"context"`
			Render  session.RenderDescription `json:"render"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "session-event", Method: http.MethodPost, Path: "/api/v1/session/event", Summary: "Apply a session event and get the render output", Tags: []string{"Session"}},
		func(ctx context.Context, input *eventInput) (*eventOutput, error) {
			sc, desc, err := svc.HandleEvent(input.Body.Context, input.Body.Event)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &eventOutput{}
			out.Body.Context = sc
			out.Body.Render = desc
			return out, nil
		})
}
