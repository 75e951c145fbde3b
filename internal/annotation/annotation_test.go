package annotation

import (
	"encoding/json"
	"testing"
)

func TestEpochUnmarshalVariants(t *testing.T) {
	cases := []struct {
		raw   string
		secs  int64
		valid bool
	}{
		{`1700000000`, 1700000000, true},
		{`"1700000000"`, 1700000000, true},
		{`"2024-01-02"`, 1704153600, true},
		{`"2024-01-02 15:30:00"`, 1704153600, true},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"garbage"`, 0, false},
	}
	for _, tc := range cases {
		var e Epoch
		if err := json.Unmarshal([]byte(tc.raw), &e); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tc.raw, err)
		}
		if e.Secs != tc.secs || e.Valid != tc.valid {
			t.Fatalf("Unmarshal(%s) = {%d %v}, want {%d %v}", tc.raw, e.Secs, e.Valid, tc.secs, tc.valid)
		}
	}
}

func TestEpochMarshalsAsInteger(t *testing.T) {
	var a Annotation
	doc := `{"start": "2024-01-02", "end": 1704240000, "pattern": "vcp", "score": 5}`
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	out, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"start":1704153600,"end":1704240000,"pattern":"vcp","score":5}`
	if string(out) != want {
		t.Fatalf("Marshal() = %s, want %s", out, want)
	}
}

func TestEpochInvalidMarshalsAsNull(t *testing.T) {
	var a Annotation
	doc := `{"start": null, "end": 1704240000, "pattern": "vcp", "score": 5}`
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	out, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"start":null,"end":1704240000,"pattern":"vcp","score":5}`
	if string(out) != want {
		t.Fatalf("Marshal() = %s, want %s", out, want)
	}
}

func TestCompleteRequiresAllFields(t *testing.T) {
	score := 3
	full := Annotation{
		Start:   Epoch{Secs: 1, Valid: true},
		End:     Epoch{Secs: 2, Valid: true},
		Pattern: "vcp",
		Score:   &score,
	}
	if !full.Complete() {
		t.Fatal("fully populated annotation reported incomplete")
	}

	missingScore := full
	missingScore.Score = nil
	if missingScore.Complete() {
		t.Fatal("annotation without score reported complete")
	}

	badStart := full
	badStart.Start = Epoch{}
	if badStart.Complete() {
		t.Fatal("annotation with invalid start reported complete")
	}
}
