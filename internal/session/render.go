package session

import (
	"encoding/json"

	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
	"github.com/dgnsrekt/vcp_tinder/internal/market"
	"github.com/dgnsrekt/vcp_tinder/internal/viewport"
)

// Render kinds. A full rebuild replaces the whole chart and table; a patch
// touches only the Y axis ranges; none means the surface keeps what it has.
const (
	RenderFull  = "full"
	RenderPatch = "patch"
	RenderNone  = "none"
)

// Overlay is one highlighted annotation rectangle on the chart.
type Overlay struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Color string `json:"color"`
}

// RenderDescription tells the rendering surface what to draw. For
// Kind==RenderPatch only PriceRange and VolumeRange are set; for
// Kind==RenderNone everything else is empty.
type RenderDescription struct {
	Kind        string                  `json:"kind"`
	Ticker      string                  `json:"ticker,omitempty"`
	Viewport    *viewport.Viewport      `json:"viewport,omitempty"`
	Bars        []market.Bar            `json:"bars,omitempty"`
	Overlays    []Overlay               `json:"overlays,omitempty"`
	PriceRange  *viewport.Range         `json:"price_range,omitempty"`
	VolumeRange *viewport.Range         `json:"volume_range,omitempty"`
	Rows        []annotation.Annotation `json:"rows,omitempty"`
	AIRows      []json.RawMessage       `json:"ai_rows,omitempty"`
	ViewMode    ViewMode                `json:"view_mode,omitempty"`
	DragMode    DragMode                `json:"drag_mode,omitempty"`
	Autoscale   bool                    `json:"autoscale,omitempty"`
}
