package market

// Bar is one OHLCV bucket in canonical form. T is epoch seconds.
type Bar struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

// Series is the time-ordered bar sequence for one ticker. A Series is never
// mutated after it leaves the store; callers share the same backing array.
type Series []Bar

// Extent returns the first and last bar timestamps. ok is false for an
// empty series.
func (s Series) Extent() (start, end int64, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	return s[0].T, s[len(s)-1].T, true
}
