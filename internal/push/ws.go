package push

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/dgnsrekt/vcp_tinder/internal/session"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// EventHandler is the slice of the controller service the socket needs.
type EventHandler interface {
	HandleEvent(sc session.Context, evt session.Event) (session.Context, session.RenderDescription, error)
}

type socketRequest struct {
	Context session.Context `json:"context"`
	Event   session.Event   `json:"event"`
}

type socketResponse struct {
	Context session.Context           `json:"context"`
	Render  session.RenderDescription `json:"render"`
}

type socketError struct {
	Error string `json:"error"`
}

// ViewportSocket upgrades to a websocket and runs the session event loop
// over it. Pan/zoom events arrive far more often than any other trigger,
// so they get a persistent connection instead of one POST per wheel tick.
func ViewportSocket(handler EventHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Warn("viewport socket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		slog.Debug("viewport socket open", "remote", r.RemoteAddr)
		go serveViewportConn(conn, handler)
	}
}

func serveViewportConn(conn net.Conn, handler EventHandler) {
	defer conn.Close()
	for {
		data, err := wsutil.ReadClientText(conn)
		if err != nil {
			slog.Debug("viewport socket closed", "error", err)
			return
		}

		var req socketRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if !writeJSON(conn, socketError{Error: "malformed event payload"}) {
				return
			}
			continue
		}

		sc, desc, err := handler.HandleEvent(req.Context, req.Event)
		if err != nil {
			if !writeJSON(conn, socketError{Error: err.Error()}) {
				return
			}
			continue
		}
		if !writeJSON(conn, socketResponse{Context: sc, Render: desc}) {
			return
		}
	}
}

func writeJSON(conn net.Conn, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("viewport socket marshal failed", "error", err)
		return true
	}
	if err := wsutil.WriteServerText(conn, data); err != nil {
		slog.Debug("viewport socket write failed", "error", err)
		return false
	}
	return true
}
