// Package errkind defines the semantic error taxonomy shared by every
// storage and pipeline component: NotFound, Invariant, Transient,
// Corruption, Policy, and Cancelled. Errors are plain sentinels wrapped with
// fmt.Errorf's %w, the same pattern the sqlite storage layer uses for its
// own ErrNotFound/ErrConflict sentinels.
package errkind

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound: session/memory/checkpoint missing. Surfaced to the
	// caller; never silently converted to an empty result.
	ErrNotFound = errors.New("not found")

	// ErrInvariant: malformed input - bad date, invalid markdown
	// front-matter, ordinal conflict, simplex violation. Surfaced.
	ErrInvariant = errors.New("invariant violated")

	// ErrTransient: database contention, embedding-provider unreachable,
	// filesystem EAGAIN. Retried with bounded backoff inside the
	// component; surfaced only after retries are exhausted.
	ErrTransient = errors.New("transient failure")

	// ErrCorruption: unreadable checkpoint or embedding blob. The caller
	// logs and falls back to the next candidate rather than failing outright.
	ErrCorruption = errors.New("corrupted data")

	// ErrPolicy: write denied by the policy collaborator. Wrapped with the
	// reason string the policy engine supplied.
	ErrPolicy = errors.New("denied by policy")

	// ErrCancelled: cooperative cancellation. Never turned into a result
	// value - callers propagate it as-is.
	ErrCancelled = errors.New("cancelled")
)

// Wrap annotates err with op and, when err is sql.ErrNoRows, converts it to
// ErrNotFound so callers can match on the semantic kind instead of a
// database/sql sentinel.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Wrapf is Wrap with a formatted operation description.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(fmt.Sprintf(format, args...), err)
}

// Policy wraps reason as an ErrPolicy so callers can both match on the kind
// and recover the human-readable explanation via Error().
func Policy(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrPolicy)
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsInvariant(err error) bool  { return errors.Is(err, ErrInvariant) }
func IsTransient(err error) bool  { return errors.Is(err, ErrTransient) }
func IsCorruption(err error) bool { return errors.Is(err, ErrCorruption) }
func IsPolicy(err error) bool     { return errors.Is(err, ErrPolicy) }
func IsCancelled(err error) bool  { return errors.Is(err, ErrCancelled) }
