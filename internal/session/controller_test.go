package session

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dgnsrekt/vcp_tinder/internal/annotation"
	"github.com/dgnsrekt/vcp_tinder/internal/config"
	"github.com/dgnsrekt/vcp_tinder/internal/market"
)

type fakeTickers struct {
	tickers []string
	calls   int
}

func (f *fakeTickers) List() []string {
	f.calls++
	return f.tickers
}

type fakeSeries struct {
	data  map[string]market.Series
	calls int
}

func (f *fakeSeries) Get(ticker string) market.Series {
	f.calls++
	return f.data[ticker]
}

type fakeAnnos struct {
	data      map[string]annotation.Set
	loadCalls int
	saveCalls int
	failSave  bool
}

func (f *fakeAnnos) Load(ticker string) annotation.Set {
	f.loadCalls++
	if set, ok := f.data[ticker]; ok {
		return set
	}
	return annotation.EmptySet()
}

func (f *fakeAnnos) Save(ticker string, set annotation.Set) bool {
	f.saveCalls++
	if f.failSave {
		return false
	}
	if f.data == nil {
		f.data = make(map[string]annotation.Set)
	}
	f.data[ticker] = set
	return true
}

func testSeries() market.Series {
	series := make(market.Series, 10)
	for i := range series {
		price := 100.0 + float64(i)
		series[i] = market.Bar{
			T: 1700000000 + int64(i)*86400,
			O: price, H: price + 2, L: price - 2, C: price + 1, V: 1000,
		}
	}
	return series
}

func newTestController(tickers ...string) (*Controller, *fakeTickers, *fakeSeries, *fakeAnnos) {
	if len(tickers) == 0 {
		tickers = []string{"AAA", "BBB", "CCC"}
	}
	ft := &fakeTickers{tickers: tickers}
	fs := &fakeSeries{data: map[string]market.Series{}}
	for _, t := range tickers {
		fs.data[t] = testSeries()
	}
	fa := &fakeAnnos{data: map[string]annotation.Set{}}
	return NewController(ft, fs, fa, config.DefaultProfile()), ft, fs, fa
}

func TestNavigateCyclesThroughCatalog(t *testing.T) {
	c, _, _, _ := newTestController()
	sc := NewContext()

	seen := []string{}
	for i := 0; i < 3; i++ {
		var desc RenderDescription
		var err error
		sc, desc, err = c.Handle(sc, Event{Type: EventNavigate, Direction: "next"})
		if err != nil {
			t.Fatalf("Handle(navigate) error = %v", err)
		}
		if desc.Kind != RenderFull {
			t.Fatalf("Kind = %s, want full", desc.Kind)
		}
		seen = append(seen, desc.Ticker)
	}
	if seen[0] != "BBB" || seen[1] != "CCC" || seen[2] != "AAA" {
		t.Fatalf("navigation order = %v", seen)
	}
	if sc.TickerIndex != 0 {
		t.Fatalf("TickerIndex = %d, want 0 after full cycle", sc.TickerIndex)
	}
}

func TestNavigatePrevWrapsBackward(t *testing.T) {
	c, _, _, _ := newTestController()
	sc := NewContext()

	sc, desc, err := c.Handle(sc, Event{Type: EventNavigate, Direction: "prev"})
	if err != nil {
		t.Fatalf("Handle(prev) error = %v", err)
	}
	if desc.Ticker != "CCC" || sc.TickerIndex != 2 {
		t.Fatalf("prev from 0 = %s (index %d), want CCC (2)", desc.Ticker, sc.TickerIndex)
	}
}

func TestNavigateClearsViewportState(t *testing.T) {
	c, _, _, _ := newTestController()
	sc := NewContext()

	sc, _, err := c.Handle(sc, Event{Type: EventViewportChange, XRange: &Span{Start: 1700000000, End: 1700300000}})
	if err != nil {
		t.Fatalf("Handle(viewport_change) error = %v", err)
	}
	if sc.ZoomRange == nil {
		t.Fatal("zoom not recorded")
	}

	sc, _, err = c.Handle(sc, Event{Type: EventNavigate, Direction: "next"})
	if err != nil {
		t.Fatalf("Handle(navigate) error = %v", err)
	}
	if sc.ZoomRange != nil || sc.ViewportOverride != nil {
		t.Fatalf("viewport state leaked across navigation: %+v", sc)
	}
}

func TestNavigateBadDirection(t *testing.T) {
	c, _, _, _ := newTestController()
	_, _, err := c.Handle(NewContext(), Event{Type: EventNavigate, Direction: "sideways"})
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestScoreClickPersistsZoomedRange(t *testing.T) {
	c, _, _, fa := newTestController()
	sc := NewContext()

	sc, _, err := c.Handle(sc, Event{Type: EventViewportChange, XRange: &Span{Start: 1700000000, End: 1700600000}})
	if err != nil {
		t.Fatalf("Handle(viewport_change) error = %v", err)
	}
	_, desc, err := c.Handle(sc, Event{Type: EventScoreClick, Score: 4})
	if err != nil {
		t.Fatalf("Handle(score_click) error = %v", err)
	}
	if desc.Kind != RenderFull {
		t.Fatalf("Kind = %s, want full", desc.Kind)
	}

	saved := fa.data["AAA"].Human
	if len(saved) != 1 {
		t.Fatalf("saved entries = %d, want 1", len(saved))
	}
	got := saved[0]
	if got.Start.Secs != 1700000000 || got.End.Secs != 1700600000 {
		t.Fatalf("saved range = [%d, %d]", got.Start.Secs, got.End.Secs)
	}
	if got.Pattern != "vcp" || got.Score == nil || *got.Score != 4 {
		t.Fatalf("saved entry = %+v", got)
	}
}

func TestScoreClickWithoutZoomUsesFullSeries(t *testing.T) {
	c, _, fs, fa := newTestController()

	_, _, err := c.Handle(NewContext(), Event{Type: EventScoreClick, Score: 6})
	if err != nil {
		t.Fatalf("Handle(score_click) error = %v", err)
	}

	series := fs.data["AAA"]
	saved := fa.data["AAA"].Human
	if len(saved) != 1 {
		t.Fatalf("saved entries = %d, want 1", len(saved))
	}
	if saved[0].Start.Secs != series[0].T || saved[0].End.Secs != series[len(series)-1].T {
		t.Fatalf("saved range = [%d, %d], want full extent", saved[0].Start.Secs, saved[0].End.Secs)
	}
}

func TestScoreClickOutOfRange(t *testing.T) {
	c, _, _, fa := newTestController()
	for _, score := range []int{0, 7, -1} {
		_, _, err := c.Handle(NewContext(), Event{Type: EventScoreClick, Score: score})
		var coded *CodedError
		if !errors.As(err, &coded) || coded.Code != CodeValidation {
			t.Fatalf("score %d: err = %v, want validation error", score, err)
		}
	}
	if fa.saveCalls != 0 {
		t.Fatalf("saveCalls = %d, want 0", fa.saveCalls)
	}
}

func TestScoreClickEmptySeriesIsNoOp(t *testing.T) {
	c, _, fs, fa := newTestController("EMPTY")
	fs.data["EMPTY"] = market.Series{}

	_, desc, err := c.Handle(NewContext(), Event{Type: EventScoreClick, Score: 3})
	if err != nil {
		t.Fatalf("Handle(score_click) error = %v", err)
	}
	if fa.saveCalls != 0 {
		t.Fatalf("saveCalls = %d, want 0 for empty series", fa.saveCalls)
	}
	if desc.Kind != RenderFull {
		t.Fatalf("Kind = %s, want full rebuild regardless", desc.Kind)
	}
}

func TestTableEditReplacesHumanRowsWholesale(t *testing.T) {
	c, _, _, fa := newTestController()
	score := 5
	fa.data["AAA"] = annotation.Set{
		Human: []annotation.Annotation{
			{Start: annotation.Epoch{Secs: 1, Valid: true}, End: annotation.Epoch{Secs: 2, Valid: true}, Pattern: "vcp", Score: &score},
		},
		AI: []json.RawMessage{json.RawMessage(`{"start":1,"end":2}`)},
	}

	newScore := 2
	rows := []annotation.Annotation{
		{Start: annotation.Epoch{Secs: 10, Valid: true}, End: annotation.Epoch{Secs: 20, Valid: true}, Pattern: "vcp", Score: &newScore},
	}
	_, desc, err := c.Handle(NewContext(), Event{Type: EventTableEdit, Rows: rows})
	if err != nil {
		t.Fatalf("Handle(table_edit) error = %v", err)
	}

	saved := fa.data["AAA"]
	if len(saved.Human) != 1 || saved.Human[0].Start.Secs != 10 {
		t.Fatalf("Human after edit = %+v", saved.Human)
	}
	if len(saved.AI) != 1 {
		t.Fatalf("AI rows must survive a human table edit, got %d", len(saved.AI))
	}
	if len(desc.Rows) != 1 || len(desc.Overlays) != 1 {
		t.Fatalf("render rows/overlays = %d/%d", len(desc.Rows), len(desc.Overlays))
	}
}

func TestTableEditIgnoredInBotView(t *testing.T) {
	c, _, _, fa := newTestController()
	sc := NewContext()
	sc.ViewMode = ViewBot

	_, _, err := c.Handle(sc, Event{Type: EventTableEdit, Rows: nil})
	if err != nil {
		t.Fatalf("Handle(table_edit) error = %v", err)
	}
	if fa.saveCalls != 0 {
		t.Fatalf("saveCalls = %d, want 0 in bot view", fa.saveCalls)
	}
}

func TestTableRowSelectOverridesViewport(t *testing.T) {
	c, _, _, _ := newTestController()
	row := &annotation.Annotation{
		Start: annotation.Epoch{Secs: 1700100000, Valid: true},
		End:   annotation.Epoch{Secs: 1700500000, Valid: true},
	}
	sc, desc, err := c.Handle(NewContext(), Event{Type: EventTableRowSelect, Row: row})
	if err != nil {
		t.Fatalf("Handle(table_row_select) error = %v", err)
	}
	if sc.ViewportOverride == nil {
		t.Fatal("no viewport override set")
	}
	if sc.ViewportOverride.Start >= 1700100000 || sc.ViewportOverride.End <= 1700500000 {
		t.Fatalf("override not padded: %+v", sc.ViewportOverride)
	}
	if desc.Viewport == nil || *desc.Viewport != *sc.ViewportOverride {
		t.Fatalf("render viewport = %+v", desc.Viewport)
	}

	_, _, err = c.Handle(NewContext(), Event{Type: EventTableRowSelect})
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != CodeValidation {
		t.Fatalf("missing row: err = %v, want validation error", err)
	}
}

func TestZoomBeatsTableSelectForScoring(t *testing.T) {
	c, _, _, fa := newTestController()
	sc := NewContext()

	row := &annotation.Annotation{
		Start: annotation.Epoch{Secs: 1700100000, Valid: true},
		End:   annotation.Epoch{Secs: 1700200000, Valid: true},
	}
	sc, _, err := c.Handle(sc, Event{Type: EventTableRowSelect, Row: row})
	if err != nil {
		t.Fatalf("Handle(table_row_select) error = %v", err)
	}
	sc, _, err = c.Handle(sc, Event{Type: EventViewportChange, XRange: &Span{Start: 1700300000, End: 1700400000}})
	if err != nil {
		t.Fatalf("Handle(viewport_change) error = %v", err)
	}
	_, _, err = c.Handle(sc, Event{Type: EventScoreClick, Score: 5})
	if err != nil {
		t.Fatalf("Handle(score_click) error = %v", err)
	}

	saved := fa.data["AAA"].Human
	if len(saved) != 1 {
		t.Fatalf("saved entries = %d, want 1", len(saved))
	}
	if saved[0].Start.Secs != 1700300000 || saved[0].End.Secs != 1700400000 {
		t.Fatalf("zoom did not win: [%d, %d]", saved[0].Start.Secs, saved[0].End.Secs)
	}
}

func TestTimeframeSelectAnchorsWindow(t *testing.T) {
	c, _, _, _ := newTestController()
	sc := NewContext()

	// First render establishes LastRendered at the full series.
	sc, _, err := c.Handle(sc, Event{Type: EventViewModeToggle, ViewMode: ViewHuman})
	if err != nil {
		t.Fatalf("warmup error = %v", err)
	}
	if sc.LastRendered == nil {
		t.Fatal("LastRendered not set by full render")
	}

	sc, desc, err := c.Handle(sc, Event{Type: EventTimeframeSelect, Days: 30})
	if err != nil {
		t.Fatalf("Handle(timeframe_select) error = %v", err)
	}
	if sc.ViewportOverride == nil {
		t.Fatal("no viewport override")
	}
	if got := sc.ViewportOverride.End - sc.ViewportOverride.Start; got != 30*86400 {
		t.Fatalf("window length = %d, want %d", got, 30*86400)
	}
	if desc.Kind != RenderFull {
		t.Fatalf("Kind = %s, want full", desc.Kind)
	}

	_, _, err = c.Handle(sc, Event{Type: EventTimeframeSelect, Days: 0})
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != CodeValidation {
		t.Fatalf("days=0: err = %v, want validation error", err)
	}
}

func TestViewModeToggleSwitchesTableAndOverlays(t *testing.T) {
	c, _, _, fa := newTestController()
	fa.data["AAA"] = annotation.Set{
		Human: []annotation.Annotation{},
		AI: []json.RawMessage{
			json.RawMessage(`{"start":1700000000,"end":1700100000,"confidence":0.8}`),
			json.RawMessage(`{"note":"no range"}`),
		},
	}

	sc := NewContext()
	sc, desc, err := c.Handle(sc, Event{Type: EventViewModeToggle, ViewMode: ViewBot})
	if err != nil {
		t.Fatalf("Handle(view_mode_toggle) error = %v", err)
	}
	if sc.ViewMode != ViewBot {
		t.Fatalf("ViewMode = %s", sc.ViewMode)
	}
	if len(desc.AIRows) != 2 {
		t.Fatalf("AIRows = %d, want 2", len(desc.AIRows))
	}
	if len(desc.Overlays) != 1 {
		t.Fatalf("Overlays = %d, want 1 (the entry without a range is table-only)", len(desc.Overlays))
	}
	if desc.Overlays[0].Color != config.DefaultProfile().BotColor {
		t.Fatalf("overlay color = %s", desc.Overlays[0].Color)
	}

	_, _, err = c.Handle(sc, Event{Type: EventViewModeToggle, ViewMode: "martian"})
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != CodeValidation {
		t.Fatalf("bad mode: err = %v, want validation error", err)
	}
}

func TestAutoscaleToggleFlipsWhenUnset(t *testing.T) {
	c, _, _, _ := newTestController()
	sc := NewContext()

	sc, _, err := c.Handle(sc, Event{Type: EventAutoscaleToggle})
	if err != nil {
		t.Fatalf("Handle(autoscale_toggle) error = %v", err)
	}
	if sc.Autoscale {
		t.Fatal("Autoscale still true after flip")
	}

	on := true
	sc, _, err = c.Handle(sc, Event{Type: EventAutoscaleToggle, Autoscale: &on})
	if err != nil {
		t.Fatalf("Handle(autoscale_toggle) error = %v", err)
	}
	if !sc.Autoscale {
		t.Fatal("Autoscale not set true")
	}
}

func TestViewportChangeAutoscaleOffTouchesNoStore(t *testing.T) {
	c, _, fs, fa := newTestController()
	sc := NewContext()
	sc.Autoscale = false

	sc, desc, err := c.Handle(sc, Event{Type: EventViewportChange, XRange: &Span{Start: 1700000000, End: 1700300000}})
	if err != nil {
		t.Fatalf("Handle(viewport_change) error = %v", err)
	}
	if desc.Kind != RenderNone {
		t.Fatalf("Kind = %s, want none", desc.Kind)
	}
	if fs.calls != 0 || fa.loadCalls != 0 || fa.saveCalls != 0 {
		t.Fatalf("store access with autoscale off: series=%d load=%d save=%d", fs.calls, fa.loadCalls, fa.saveCalls)
	}
	if sc.ZoomRange == nil || sc.ZoomRange.Start != 1700000000 {
		t.Fatalf("zoom not recorded: %+v", sc.ZoomRange)
	}
}

func TestViewportChangeAutoscaleOnPatchesRanges(t *testing.T) {
	c, _, _, fa := newTestController()
	sc := NewContext()

	_, desc, err := c.Handle(sc, Event{Type: EventViewportChange, XRange: &Span{Start: 1700000000, End: 1700000000 + 4*86400}})
	if err != nil {
		t.Fatalf("Handle(viewport_change) error = %v", err)
	}
	if desc.Kind != RenderPatch {
		t.Fatalf("Kind = %s, want patch", desc.Kind)
	}
	if desc.PriceRange == nil || desc.VolumeRange == nil {
		t.Fatal("patch missing ranges")
	}
	if desc.Bars != nil || desc.Ticker != "" {
		t.Fatalf("patch carries full-render fields: %+v", desc)
	}
	if fa.loadCalls != 0 {
		t.Fatalf("annotation loads on patch path = %d, want 0", fa.loadCalls)
	}
}

func TestViewportChangeWithoutRangeIsNone(t *testing.T) {
	c, _, fs, _ := newTestController()
	_, desc, err := c.Handle(NewContext(), Event{Type: EventViewportChange})
	if err != nil {
		t.Fatalf("Handle(viewport_change) error = %v", err)
	}
	if desc.Kind != RenderNone || fs.calls != 0 {
		t.Fatalf("Kind = %s, series calls = %d", desc.Kind, fs.calls)
	}
}

func TestEmptyCatalogRendersNothing(t *testing.T) {
	c, _, _, _ := newTestController()
	c.tickers = &fakeTickers{}

	_, desc, err := c.Handle(NewContext(), Event{Type: EventNavigate, Direction: "next"})
	if err != nil {
		t.Fatalf("Handle(navigate) error = %v", err)
	}
	if desc.Kind != RenderNone {
		t.Fatalf("Kind = %s, want none for empty catalog", desc.Kind)
	}
}

func TestUnknownEventType(t *testing.T) {
	c, _, _, _ := newTestController()
	_, _, err := c.Handle(NewContext(), Event{Type: "teleport"})
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}
