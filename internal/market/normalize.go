package market

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// record accepts both producer schemas: the compact field names written by
// the synthetic generator (t,o,h,l,c,v) and the verbose names written by
// external market fetchers (date,open,high,low,close,volume). Timestamps
// arrive as epoch seconds or as ISO date strings.
type record struct {
	T      json.RawMessage `json:"t"`
	Date   json.RawMessage `json:"date"`
	O      *float64        `json:"o"`
	Open   *float64        `json:"open"`
	H      *float64        `json:"h"`
	High   *float64        `json:"high"`
	L      *float64        `json:"l"`
	Low    *float64        `json:"low"`
	C      *float64        `json:"c"`
	Close  *float64        `json:"close"`
	V      *float64        `json:"v"`
	Volume *float64        `json:"volume"`
}

func pick(compact, verbose *float64) (float64, bool) {
	if compact != nil {
		return *compact, true
	}
	if verbose != nil {
		return *verbose, true
	}
	return 0, false
}

// ParseEpoch converts a raw JSON timestamp into epoch seconds. Numbers are
// taken as-is; strings may be numeric, an ISO date, or an ISO date followed
// by a time-of-day (which is dropped, matching the chart's day resolution).
func ParseEpoch(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("empty timestamp")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, fmt.Errorf("timestamp %s: %w", s, err)
	}
	str = strings.TrimSpace(str)
	if i := strings.IndexByte(str, ' '); i > 0 {
		str = str[:i]
	}
	if n, err := strconv.ParseInt(str, 10, 64); err == nil {
		return n, nil
	}
	ts, err := time.Parse("2006-01-02", str)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", str, err)
	}
	return ts.Unix(), nil
}

// Normalize decodes a series file payload into canonical bars. Records
// missing a timestamp or any of the four price fields are skipped; a
// missing volume becomes zero. The result is sorted by timestamp.
func Normalize(data []byte) (Series, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	series := make(Series, 0, len(records))
	for _, r := range records {
		raw := r.T
		if raw == nil {
			raw = r.Date
		}
		if raw == nil {
			continue
		}
		t, err := ParseEpoch(raw)
		if err != nil {
			continue
		}

		o, okO := pick(r.O, r.Open)
		h, okH := pick(r.H, r.High)
		l, okL := pick(r.L, r.Low)
		c, okC := pick(r.C, r.Close)
		if !okO || !okH || !okL || !okC {
			continue
		}
		v, _ := pick(r.V, r.Volume)

		series = append(series, Bar{T: t, O: o, H: h, L: l, C: c, V: v})
	}

	sort.Slice(series, func(i, j int) bool { return series[i].T < series[j].T })
	return series, nil
}
