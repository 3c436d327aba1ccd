package models

import "time"

// Observation is a single traffic event. Any field may be absent: a zero
// Timestamp means no timestamp was supplied, an empty SourceID means the
// source is unknown, and HasSize reports whether SizeBytes carries a value.
// Metrics that depend on an absent field are omitted rather than erroring.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	SourceID  string    `json:"source_id,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	HasSize   bool      `json:"-"`
}

// HasTimestamp reports whether the observation carries a timestamp.
func (o Observation) HasTimestamp() bool { return !o.Timestamp.IsZero() }

// HasSource reports whether the observation carries a source identifier.
func (o Observation) HasSource() bool { return o.SourceID != "" }

// Batch is an in-memory collection of observations analysed in one call.
// Ordering is not significant; time ordering is re-derived from timestamps.
type Batch []Observation

// HasTimestamps reports whether any observation in the batch is timestamped.
func (b Batch) HasTimestamps() bool {
	for _, o := range b {
		if o.HasTimestamp() {
			return true
		}
	}
	return false
}

// HasSources reports whether any observation identifies its source.
func (b Batch) HasSources() bool {
	for _, o := range b {
		if o.HasSource() {
			return true
		}
	}
	return false
}

// HasSizes reports whether any observation carries a byte size.
func (b Batch) HasSizes() bool {
	for _, o := range b {
		if o.HasSize {
			return true
		}
	}
	return false
}
