package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies conversion failures.
type ErrorKind string

const (
	// KindInsufficientWindow means the planned window held fewer than two
	// new moons or no usable Winter Solstice anchor.
	KindInsufficientWindow ErrorKind = "insufficient_window"

	// KindUnresolvedMonth means the query date fell outside every month
	// period built for the window.
	KindUnresolvedMonth ErrorKind = "unresolved_month"

	// KindAmbiguousTermAssignment means a principal term did not map into
	// exactly one month period.
	KindAmbiguousTermAssignment ErrorKind = "ambiguous_term_assignment"
)

// Sentinel errors, one per kind, for errors.Is checks.
var (
	ErrInsufficientWindow      = errors.New("insufficient ephemeris window")
	ErrUnresolvedMonth         = errors.New("no month period contains date")
	ErrAmbiguousTermAssignment = errors.New("principal term not in exactly one month period")
)

// ConversionError carries the kind of failure together with the query
// instant and the year window that was searched.
type ConversionError struct {
	Kind    ErrorKind
	Op      string
	Instant time.Time // zero when the failure is not tied to one query
	MinYear int
	MaxYear int
	Err     error
}

func (e *ConversionError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if !e.Instant.IsZero() {
		base += fmt.Sprintf(" (instant=%s)", e.Instant.UTC().Format(time.RFC3339))
	}
	if e.MinYear != 0 || e.MaxYear != 0 {
		base += fmt.Sprintf(" (window=%d..%d)", e.MinYear, e.MaxYear)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel error of the same kind.
func (e *ConversionError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindInsufficientWindow:
		return target == ErrInsufficientWindow
	case KindUnresolvedMonth:
		return target == ErrUnresolvedMonth
	case KindAmbiguousTermAssignment:
		return target == ErrAmbiguousTermAssignment
	}
	return false
}

// IsKind reports whether err is a ConversionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

func newError(kind ErrorKind, op string, w *Window, err error) *ConversionError {
	ce := &ConversionError{Kind: kind, Op: op, Err: err}
	if w != nil {
		ce.MinYear, ce.MaxYear = w.MinYear, w.MaxYear
	}
	return ce
}
