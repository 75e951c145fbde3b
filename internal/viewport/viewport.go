// Package viewport holds the pure window math shared by the session
// controller and the chart renderer: visible-slice selection, axis
// autoscaling, timeframe shortcuts, and annotation framing.
package viewport

import (
	"math"

	"github.com/dgnsrekt/vcp_tinder/internal/market"
)

// Source records which interaction produced a viewport.
type Source string

const (
	SourceFull        Source = "full"
	SourceZoom        Source = "zoom"
	SourceTableSelect Source = "table-select"
	SourceTimeframe   Source = "timeframe"
)

const daySecs = int64(86400)

// Viewport is a visible time sub-range. It only ever lives in session
// context and render descriptions; it is never persisted.
type Viewport struct {
	Start  int64  `json:"start"`
	End    int64  `json:"end"`
	Source Source `json:"source"`
}

// Range is a padded axis extent.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Ranges bundles the two Y axes of the chart.
type Ranges struct {
	Price  Range `json:"price"`
	Volume Range `json:"volume"`
}

// Full returns the viewport spanning an entire series. ok is false when the
// series is empty, in which case no viewport can be derived at all.
func Full(series market.Series) (Viewport, bool) {
	start, end, ok := series.Extent()
	if !ok {
		return Viewport{}, false
	}
	return Viewport{Start: start, End: end, Source: SourceFull}, true
}

// VisibleSlice returns the bars whose timestamps fall inside the viewport.
// Series are time-sorted, so the result is a sub-slice of the input.
func VisibleSlice(series market.Series, vp Viewport) market.Series {
	lo := 0
	for lo < len(series) && series[lo].T < vp.Start {
		lo++
	}
	hi := lo
	for hi < len(series) && series[hi].T <= vp.End {
		hi++
	}
	return series[lo:hi]
}

// Autoscale derives padded axis ranges from the visible bars. Price gets
// 10% of the low-high span on both sides; a flat window falls back to 1% of
// the max high so the band never collapses. Volume runs from zero to 110%
// of the max. An empty visible set falls back to the full series' range.
func Autoscale(visible, full market.Series) Ranges {
	bars := visible
	if len(bars) == 0 {
		bars = full
	}
	if len(bars) == 0 {
		return Ranges{}
	}

	lo, hi, maxVol := bars[0].L, bars[0].H, bars[0].V
	for _, b := range bars[1:] {
		if b.L < lo {
			lo = b.L
		}
		if b.H > hi {
			hi = b.H
		}
		if b.V > maxVol {
			maxVol = b.V
		}
	}

	pad := 0.10 * (hi - lo)
	if pad == 0 {
		pad = 0.01 * hi
	}
	return Ranges{
		Price:  Range{Min: lo - pad, Max: hi + pad},
		Volume: Range{Min: 0, Max: 1.10 * maxVol},
	}
}

// TimeframeWindow anchors a fixed-length window at the given left edge.
func TimeframeWindow(anchorLeftEdge int64, days int) Viewport {
	return Viewport{
		Start:  anchorLeftEdge,
		End:    anchorLeftEdge + int64(days)*daySecs,
		Source: SourceTimeframe,
	}
}

// AnchorLeftEdge resolves the left edge for a timeframe shortcut: the last
// zoom/pan viewport wins, then the previously rendered viewport, then a
// window ending at the series' last bar.
func AnchorLeftEdge(lastZoom, lastRendered *Viewport, series market.Series, days int) int64 {
	if lastZoom != nil {
		return lastZoom.Start
	}
	if lastRendered != nil {
		return lastRendered.Start
	}
	if _, end, ok := series.Extent(); ok {
		return end - int64(days)*daySecs
	}
	return 0
}

// PaddedAroundAnnotation frames a labeled range with breathing room on both
// sides: a quarter of the annotation's duration, but at least one day.
func PaddedAroundAnnotation(start, end int64) Viewport {
	duration := end - start
	padding := int64(math.Round(0.25 * float64(duration)))
	if padding < daySecs {
		padding = daySecs
	}
	return Viewport{
		Start:  start - padding,
		End:    end + padding,
		Source: SourceTableSelect,
	}
}
