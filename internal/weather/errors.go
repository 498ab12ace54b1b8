package weather

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a resolution produced no snapshot.
type FailureKind string

const (
	NoUsableLocation       FailureKind = "no_usable_location"
	GeocodingMiss          FailureKind = "geocoding_miss"
	ProviderFailure        FailureKind = "provider_failure"
	EmptyObservationWindow FailureKind = "empty_observation_window"
	Canceled               FailureKind = "canceled"
)

var (
	// ErrNoUsableLocation is returned when a query cannot be classified.
	ErrNoUsableLocation = errors.New("no usable location in query")
	// ErrGeocodingMiss is returned when no variant yields a candidate.
	ErrGeocodingMiss = errors.New("no geocoding candidates")
)

// ResolveError carries the failure kind alongside the underlying cause.
type ResolveError struct {
	Kind FailureKind
	Err  error
}

func (e *ResolveError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

func failure(kind FailureKind, err error) error {
	return &ResolveError{Kind: kind, Err: err}
}

// KindOf extracts the failure kind from err, or "" when err is nil or untyped.
func KindOf(err error) FailureKind {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
