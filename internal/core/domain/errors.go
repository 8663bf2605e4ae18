package domain

import "errors"

// Recoverable outcomes, converted into user-facing prompts at the
// transport boundary, never propagated as transport failures.
var (
	// ErrAddressNotFound means geocoding yielded nothing usable.
	ErrAddressNotFound = errors.New("address not found")

	// ErrLocationUnavailable is the family root for GPS failures.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrLocationDenied means the platform refused location permission.
	ErrLocationDenied = wrapKind("location permission denied")

	// ErrLocationTimeout means the fix did not arrive in time.
	ErrLocationTimeout = wrapKind("location request timed out")

	// ErrLocationUnsupported means the device has no location source.
	ErrLocationUnsupported = wrapKind("location not supported")
)

// Fatal conditions, configuration or caller bugs. These halt the
// computation rather than produce a silently wrong answer.
var (
	// ErrZoneTableIncomplete means the pricing table does not cover a
	// distance it was asked about.
	ErrZoneTableIncomplete = errors.New("delivery zone table incomplete")

	// ErrInvalidInput covers negative distances and malformed coordinates.
	ErrInvalidInput = errors.New("invalid input")
)

type kindError struct {
	msg string
}

func (e *kindError) Error() string { return e.msg }

// Unwrap makes every specific location failure match
// errors.Is(err, ErrLocationUnavailable).
func (e *kindError) Unwrap() error { return ErrLocationUnavailable }

func wrapKind(msg string) error { return &kindError{msg: msg} }
