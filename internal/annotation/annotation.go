package annotation

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Epoch is a point in time in epoch seconds. Stored documents have carried
// both integer epochs and ISO date strings over the schema's life, so it
// unmarshals from either; a usable value marshals back as an integer and
// anything else round-trips as null. Null, empty, or unparseable inputs
// leave Valid false instead of failing the surrounding document.
type Epoch struct {
	Secs  int64
	Valid bool
}

func (e Epoch) MarshalJSON() ([]byte, error) {
	if !e.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(e.Secs, 10)), nil
}

// Schema describes the wire forms the unmarshaler accepts, so request
// validation admits the same documents the store would load.
func (e Epoch) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "Epoch seconds, an ISO date string, or null.",
		AnyOf: []*huma.Schema{
			{Type: huma.TypeInteger, Nullable: true},
			{Type: huma.TypeString, Nullable: true},
		},
	}
}

func (e *Epoch) UnmarshalJSON(data []byte) error {
	e.Secs, e.Valid = 0, false
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		e.Secs, e.Valid = n, true
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return nil
	}
	str = strings.TrimSpace(str)
	if i := strings.IndexByte(str, ' '); i > 0 {
		// Zoom ranges reported by chart surfaces may carry a time-of-day.
		str = str[:i]
	}
	if str == "" {
		return nil
	}
	if n, err := strconv.ParseInt(str, 10, 64); err == nil {
		e.Secs, e.Valid = n, true
		return nil
	}
	ts, err := time.Parse("2006-01-02", str)
	if err != nil {
		return nil
	}
	e.Secs, e.Valid = ts.Unix(), true
	return nil
}

// Annotation is one scored label over a sub-range of a series.
type Annotation struct {
	Start   Epoch  `json:"start"`
	End     Epoch  `json:"end"`
	Pattern string `json:"pattern"`
	Score   *int   `json:"score"`
}

// Complete reports whether all four fields are present with usable
// start/end values. Save drops anything incomplete.
func (a Annotation) Complete() bool {
	return a.Start.Valid && a.End.Valid && a.Pattern != "" && a.Score != nil
}

// Set is the per-ticker annotation document. Human entries keep their
// append/edit order; AI predictions are opaque to this service.
type Set struct {
	Human []Annotation      `json:"human_annotations"`
	AI    []json.RawMessage `json:"ai_predictions"`
}

// EmptySet returns the clean document shape used when no file exists yet.
func EmptySet() Set {
	return Set{Human: []Annotation{}, AI: []json.RawMessage{}}
}
