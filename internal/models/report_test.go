package models

import "testing"

func TestSeverityFromConfidenceBoundaries(t *testing.T) {
	cases := []struct {
		confidence float64
		want       Severity
	}{
		{0, SeverityLow},
		{0.5, SeverityLow},
		{0.51, SeverityMedium},
		{0.8, SeverityMedium},
		{0.81, SeverityHigh},
		{1, SeverityHigh},
	}
	for _, tc := range cases {
		if got := SeverityFromConfidence(tc.confidence); got != tc.want {
			t.Fatalf("confidence %v: expected %s, got %s", tc.confidence, tc.want, got)
		}
	}
}

func TestBatchFieldPresence(t *testing.T) {
	batch := Batch{
		{SourceID: "10.0.0.1"},
		{},
	}
	if !batch.HasSources() {
		t.Fatal("one sourced observation is enough for HasSources")
	}
	if batch.HasTimestamps() || batch.HasSizes() {
		t.Fatal("absent fields must not report presence")
	}
}
