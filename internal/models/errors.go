package models

import "fmt"

// InvalidInputError reports a malformed field on a specific batch record.
// Record is the zero-based index of the offending observation.
type InvalidInputError struct {
	Record int
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: record %d field %q: %s", e.Record, e.Field, e.Reason)
}

// UnknownPatternError reports a requested signature that is not in the catalog.
type UnknownPatternError struct {
	Pattern string
}

func (e *UnknownPatternError) Error() string {
	return fmt.Sprintf("unknown attack pattern %q", e.Pattern)
}
