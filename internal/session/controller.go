package session

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
	"github.com/dgnsrekt/vcp_tinder/internal/config"
	"github.com/dgnsrekt/vcp_tinder/internal/market"
	"github.com/dgnsrekt/vcp_tinder/internal/viewport"
)

// ViewMode selects which annotation list the chart and table display.
type ViewMode string

const (
	ViewHuman ViewMode = "human"
	ViewBot   ViewMode = "bot"
)

// DragMode is the chart surface's mouse behavior. The controller only
// carries it; the surface owns its meaning.
type DragMode string

const (
	DragPan  DragMode = "pan"
	DragZoom DragMode = "zoom"
)

// Context is the per-session state threaded through every event. The
// transport hands it back to the client with each response; nothing in it
// is durable.
type Context struct {
	TickerIndex      int                `json:"ticker_index"`
	ViewportOverride *viewport.Viewport `json:"viewport_override,omitempty"`
	ZoomRange        *viewport.Viewport `json:"zoom_range,omitempty"`
	LastRendered     *viewport.Viewport `json:"last_rendered,omitempty"`
	ViewMode         ViewMode           `json:"view_mode"`
	DragMode         DragMode           `json:"drag_mode"`
	Autoscale        bool               `json:"autoscale"`
}

// NewContext returns the state a fresh session starts from.
func NewContext() Context {
	return Context{ViewMode: ViewHuman, DragMode: DragZoom, Autoscale: true}
}

// Tickers enumerates the catalog in stable order.
type Tickers interface {
	List() []string
}

// SeriesProvider resolves a ticker to its immutable bar series.
type SeriesProvider interface {
	Get(ticker string) market.Series
}

// AnnotationStore loads and persists per-ticker annotation documents.
type AnnotationStore interface {
	Load(ticker string) annotation.Set
	Save(ticker string, set annotation.Set) bool
}

// Controller reconciles UI events into a consistent view of the session:
// which ticker, which window, what to persist, and what to redraw. It is
// stateless between calls; all session state rides in Context.
type Controller struct {
	tickers Tickers
	series  SeriesProvider
	annos   AnnotationStore
	profile config.Profile
}

func NewController(tickers Tickers, series SeriesProvider, annos AnnotationStore, profile config.Profile) *Controller {
	return &Controller{tickers: tickers, series: series, annos: annos, profile: profile}
}

// Handle applies one event to the session and returns the updated context
// plus a render description. Errors are validation-only; store failures are
// soft and logged.
func (c *Controller) Handle(sc Context, evt Event) (Context, RenderDescription, error) {
	if sc.ViewMode == "" {
		sc.ViewMode = ViewHuman
	}
	if sc.DragMode == "" {
		sc.DragMode = DragZoom
	}

	switch evt.Type {
	case EventNavigate:
		switch evt.Direction {
		case "next":
			sc.TickerIndex++
		case "prev":
			sc.TickerIndex--
		default:
			return sc, RenderDescription{}, &CodedError{Code: CodeValidation, Message: "direction must be \"next\" or \"prev\""}
		}
		// Both the override and any remembered zoom belong to the ticker
		// being left behind.
		sc.ViewportOverride = nil
		sc.ZoomRange = nil
		return c.rebuild(sc)

	case EventScoreClick:
		if evt.Score < c.profile.ScoreMin || evt.Score > c.profile.ScoreMax {
			return sc, RenderDescription{}, &CodedError{
				Code:    CodeValidation,
				Message: fmt.Sprintf("score must be between %d and %d", c.profile.ScoreMin, c.profile.ScoreMax),
			}
		}
		if ticker, ok := c.currentTicker(sc); ok {
			c.appendScore(sc, ticker, evt.Score)
		}
		return c.rebuild(sc)

	case EventTableEdit:
		if sc.ViewMode == ViewHuman {
			if ticker, ok := c.currentTicker(sc); ok {
				set := c.annos.Load(ticker)
				rows := evt.Rows
				if rows == nil {
					rows = []annotation.Annotation{}
				}
				set.Human = rows
				if !c.annos.Save(ticker, set) {
					slog.Warn("table edit save failed", "ticker", ticker, "rows", len(rows))
				}
			}
		}
		return c.rebuild(sc)

	case EventTableRowSelect:
		if evt.Row == nil || !evt.Row.Start.Valid || !evt.Row.End.Valid {
			return sc, RenderDescription{}, &CodedError{Code: CodeValidation, Message: "row with start and end is required"}
		}
		vp := viewport.PaddedAroundAnnotation(evt.Row.Start.Secs, evt.Row.End.Secs)
		sc.ViewportOverride = &vp
		return c.rebuild(sc)

	case EventTimeframeSelect:
		if evt.Days <= 0 {
			return sc, RenderDescription{}, &CodedError{Code: CodeValidation, Message: "days must be positive"}
		}
		var series market.Series
		if ticker, ok := c.currentTicker(sc); ok {
			series = c.series.Get(ticker)
		}
		anchor := viewport.AnchorLeftEdge(sc.ZoomRange, sc.LastRendered, series, evt.Days)
		vp := viewport.TimeframeWindow(anchor, evt.Days)
		sc.ViewportOverride = &vp
		return c.rebuild(sc)

	case EventViewModeToggle:
		if evt.ViewMode != ViewHuman && evt.ViewMode != ViewBot {
			return sc, RenderDescription{}, &CodedError{Code: CodeValidation, Message: "view_mode must be \"human\" or \"bot\""}
		}
		sc.ViewMode = evt.ViewMode
		return c.rebuild(sc)

	case EventDragModeToggle:
		if evt.DragMode != DragPan && evt.DragMode != DragZoom {
			return sc, RenderDescription{}, &CodedError{Code: CodeValidation, Message: "drag_mode must be \"pan\" or \"zoom\""}
		}
		sc.DragMode = evt.DragMode
		return c.rebuild(sc)

	case EventAutoscaleToggle:
		if evt.Autoscale != nil {
			sc.Autoscale = *evt.Autoscale
		} else {
			sc.Autoscale = !sc.Autoscale
		}
		return c.rebuild(sc)

	case EventViewportChange:
		return c.viewportChange(sc, evt)

	default:
		return sc, RenderDescription{}, &CodedError{Code: CodeValidation, Message: fmt.Sprintf("unknown event type %q", evt.Type)}
	}
}

// viewportChange is the hot path: with autoscale off it touches no store at
// all, with autoscale on it recomputes only the Y ranges.
func (c *Controller) viewportChange(sc Context, evt Event) (Context, RenderDescription, error) {
	if evt.XRange != nil {
		sc.ZoomRange = &viewport.Viewport{Start: evt.XRange.Start, End: evt.XRange.End, Source: viewport.SourceZoom}
	}
	if !sc.Autoscale || evt.XRange == nil {
		return sc, RenderDescription{Kind: RenderNone}, nil
	}

	ticker, ok := c.currentTicker(sc)
	if !ok {
		return sc, RenderDescription{Kind: RenderNone}, nil
	}
	series := c.series.Get(ticker)
	visible := viewport.VisibleSlice(series, *sc.ZoomRange)
	r := viewport.Autoscale(visible, series)
	return sc, RenderDescription{
		Kind:        RenderPatch,
		PriceRange:  &r.Price,
		VolumeRange: &r.Volume,
	}, nil
}

// appendScore records one scored label over the effective viewport. An
// empty series has no effective viewport, so the click becomes a no-op.
func (c *Controller) appendScore(sc Context, ticker string, score int) {
	series := c.series.Get(ticker)
	vp, ok := c.effectiveViewport(sc, series)
	if !ok {
		slog.Debug("score ignored, no effective viewport", "ticker", ticker, "score", score)
		return
	}

	set := c.annos.Load(ticker)
	s := score
	set.Human = append(set.Human, annotation.Annotation{
		Start:   annotation.Epoch{Secs: vp.Start, Valid: true},
		End:     annotation.Epoch{Secs: vp.End, Valid: true},
		Pattern: c.profile.Pattern,
		Score:   &s,
	})
	if !c.annos.Save(ticker, set) {
		slog.Warn("score save failed", "ticker", ticker, "score", score)
		return
	}
	slog.Info("score recorded", "ticker", ticker, "score", score, "start", vp.Start, "end", vp.End, "source", vp.Source)
}

// effectiveViewport picks the bounds a new score applies to. The operator's
// most recent manual framing wins: an explicit zoom beats a pending
// table-select or timeframe override, which beats the full series extent.
func (c *Controller) effectiveViewport(sc Context, series market.Series) (viewport.Viewport, bool) {
	if sc.ZoomRange != nil {
		return *sc.ZoomRange, true
	}
	if sc.ViewportOverride != nil {
		return *sc.ViewportOverride, true
	}
	return viewport.Full(series)
}

// currentTicker resolves the context's index against the catalog, wrapping
// out-of-range values so a resorted or shrunk catalog can never fault.
func (c *Controller) currentTicker(sc Context) (string, bool) {
	tickers := c.tickers.List()
	if len(tickers) == 0 {
		return "", false
	}
	return tickers[floorMod(sc.TickerIndex, len(tickers))], true
}

// rebuild produces a full render description for the current ticker.
func (c *Controller) rebuild(sc Context) (Context, RenderDescription, error) {
	tickers := c.tickers.List()
	if len(tickers) == 0 {
		return sc, RenderDescription{Kind: RenderNone}, nil
	}
	sc.TickerIndex = floorMod(sc.TickerIndex, len(tickers))
	ticker := tickers[sc.TickerIndex]

	series := c.series.Get(ticker)
	set := c.annos.Load(ticker)

	desc := RenderDescription{
		Kind:      RenderFull,
		Ticker:    ticker,
		ViewMode:  sc.ViewMode,
		DragMode:  sc.DragMode,
		Autoscale: sc.Autoscale,
	}

	vp := sc.ViewportOverride
	if vp == nil {
		if full, ok := viewport.Full(series); ok {
			vp = &full
		}
	}
	if vp != nil {
		sc.LastRendered = vp
		desc.Viewport = vp
		visible := viewport.VisibleSlice(series, *vp)
		desc.Bars = visible
		r := viewport.Autoscale(visible, series)
		desc.PriceRange = &r.Price
		desc.VolumeRange = &r.Volume
	}

	if sc.ViewMode == ViewBot {
		desc.AIRows = set.AI
		desc.Overlays = aiOverlays(set.AI, c.profile.BotColor)
	} else {
		desc.Rows = set.Human
		desc.Overlays = humanOverlays(set.Human, c.profile.HumanColor)
	}
	return sc, desc, nil
}

func humanOverlays(rows []annotation.Annotation, color string) []Overlay {
	overlays := make([]Overlay, 0, len(rows))
	for _, a := range rows {
		if !a.Start.Valid || !a.End.Valid {
			continue
		}
		overlays = append(overlays, Overlay{Start: a.Start.Secs, End: a.End.Secs, Color: color})
	}
	return overlays
}

// aiOverlays extracts drawable ranges from the opaque prediction entries.
// Entries without usable start/end are table-only.
func aiOverlays(rows []json.RawMessage, color string) []Overlay {
	overlays := make([]Overlay, 0, len(rows))
	for _, raw := range rows {
		var span struct {
			Start annotation.Epoch `json:"start"`
			End   annotation.Epoch `json:"end"`
		}
		if err := json.Unmarshal(raw, &span); err != nil {
			continue
		}
		if !span.Start.Valid || !span.End.Valid {
			continue
		}
		overlays = append(overlays, Overlay{Start: span.Start.Secs, End: span.End.Secs, Color: color})
	}
	return overlays
}

func floorMod(i, n int) int {
	return ((i % n) + n) % n
}
