package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrDataUnavailable means required corpus or collection data is absent.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInvalidFilter means a filter is contradictory or references an unknown token.
	ErrInvalidFilter = errors.New("invalid filter")
)

// DataUnavailableError reports which entity had no usable data.
type DataUnavailableError struct {
	Entity string // "commander", "variant", "corpus", "composition"
	Name   string
	Reason string
}

func (e *DataUnavailableError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s unavailable: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s %q unavailable: %s", e.Entity, e.Name, e.Reason)
}

// Is matches ErrDataUnavailable.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// InvalidFilterError reports the offending filter field.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}

// Is matches ErrInvalidFilter.
func (e *InvalidFilterError) Is(target error) bool {
	return target == ErrInvalidFilter
}

// CaveatKind classifies a non-fatal data quality note.
type CaveatKind string

// Caveat kinds.
const (
	// CaveatPartialEntry marks a commander or variant with absent optional fields.
	CaveatPartialEntry CaveatKind = "partial_entry"
	// CaveatUnknownPrice marks missing cards whose price is unknown and counted as zero.
	CaveatUnknownPrice CaveatKind = "unknown_price"
	// CaveatSkipped marks a commander or variant dropped because its data could not be scored.
	CaveatSkipped CaveatKind = "skipped"
	// CaveatFilteredUnknown marks a commander excluded because a filtered field is unknown.
	CaveatFilteredUnknown CaveatKind = "filtered_unknown"
)

// Caveat is a data quality note attached to a result. Caveats are never errors.
type Caveat struct {
	Kind    CaveatKind `json:"kind"`
	Subject string     `json:"subject"`
	Detail  string     `json:"detail"`
}
