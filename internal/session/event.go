package session

import (
	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
)

// EventType tags the interaction that reached the controller. One variant
// per UI trigger; dispatch is a single exhaustive switch in Handle.
type EventType string

const (
	EventNavigate        EventType = "navigate"
	EventScoreClick      EventType = "score_click"
	EventTableEdit       EventType = "table_edit"
	EventTableRowSelect  EventType = "table_row_select"
	EventTimeframeSelect EventType = "timeframe_select"
	EventViewModeToggle  EventType = "view_mode_toggle"
	EventDragModeToggle  EventType = "drag_mode_toggle"
	EventAutoscaleToggle EventType = "autoscale_toggle"
	EventViewportChange  EventType = "viewport_change"
)

// Span is an inclusive time range in epoch seconds.
type Span struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// FloatSpan is a value-axis range as reported by the chart surface.
type FloatSpan struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Event is the tagged union of everything the UI can send. Only the fields
// belonging to Type are read; the rest stay at their zero values. Type is
// schema-optional so that a missing or unknown tag surfaces as the
// controller's own validation error rather than a transport-level reject.
type Event struct {
	Type EventType `json:"type,omitempty"`

	// navigate
	Direction string `json:"direction,omitempty"` // "next" or "prev"

	// score_click
	Score int `json:"score,omitempty"`

	// table_edit
	Rows []annotation.Annotation `json:"rows,omitempty"`

	// table_row_select
	Row *annotation.Annotation `json:"row,omitempty"`

	// timeframe_select
	Days int `json:"days,omitempty"`

	// view_mode_toggle / drag_mode_toggle
	ViewMode ViewMode `json:"view_mode,omitempty"`
	DragMode DragMode `json:"drag_mode,omitempty"`

	// autoscale_toggle; nil means flip the current flag
	Autoscale *bool `json:"autoscale,omitempty"`

	// viewport_change
	XRange *Span      `json:"x_range,omitempty"`
	YRange *FloatSpan `json:"y_range,omitempty"`
}
