// Package errata implements the load-time error regime spec.md §7
// describes: a hierarchical, accumulating error list where a note can wrap
// its cause ("while parsing X at line Y") without discarding sibling errors
// from other directives in the same list.
//
// Notes wrap with github.com/pkg/errors (already an indirect teacher
// dependency, promoted to direct) so a note's Cause() chain is walkable;
// independent errors gathered across a directive list are combined with
// go.uber.org/multierr, which is built exactly for "here are N independent
// failures, report all of them as one error" — the shape spec.md §7 asks
// for when "any error aborts that directive/file; the rest of the
// configuration may still load."
package errata

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Mark is a source location, mirroring the line/column a yaml.Node carries.
type Mark struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (m Mark) String() string {
	if m.File == "" {
		return fmt.Sprintf("line %d", m.Line)
	}
	return fmt.Sprintf("%s:%d:%d", m.File, m.Line, m.Column)
}

// Note is a single diagnostic: a message, the location it applies to, and
// optionally the lower-level error it wraps.
type Note struct {
	Mark    Mark
	Message string
	cause   error
}

func (n Note) Error() string {
	if n.Mark.Line > 0 {
		return fmt.Sprintf("%s: %s", n.Mark, n.Message)
	}
	return n.Message
}

func (n Note) Unwrap() error { return n.cause }

// Cause returns the wrapped lower-level error (nil if the note has none), so
// errors.Cause can walk through a Note.
func (n Note) Cause() error { return n.cause }

func (n Note) MarshalJSON() ([]byte, error) {
	type jsonNote struct {
		Mark    Mark   `json:"mark"`
		Message string `json:"message"`
		Cause   string `json:"cause,omitempty"`
	}
	jn := jsonNote{Mark: n.Mark, Message: n.Message}
	if n.cause != nil {
		jn.Cause = n.cause.Error()
	}
	return json.Marshal(jn)
}

// Errata accumulates Notes across a load pass. The zero value is a usable,
// empty Errata.
type Errata struct {
	notes []Note
}

// New returns an empty Errata.
func New() *Errata { return &Errata{} }

// Notef appends a note with a formatted message at the given source mark,
// optionally wrapping a lower-level cause via errors.Wrap so the cause chain
// survives (errors.Cause(note) recovers it).
func (e *Errata) Notef(mark Mark, cause error, format string, args ...any) *Errata {
	msg := fmt.Sprintf(format, args...)
	var wrapped error
	if cause != nil {
		wrapped = errors.Wrap(cause, msg)
	} else {
		wrapped = errors.New(msg)
	}
	e.notes = append(e.notes, Note{Mark: mark, Message: msg, cause: wrapped})
	return e
}

// Append merges another Errata's notes into this one (sibling-error
// accumulation — a directive list keeps checking every entry even after one
// fails).
func (e *Errata) Append(other *Errata) *Errata {
	if other == nil {
		return e
	}
	e.notes = append(e.notes, other.notes...)
	return e
}

// HasErrors reports whether any note was recorded.
func (e *Errata) HasErrors() bool { return e != nil && len(e.notes) > 0 }

// Notes returns the accumulated notes in recorded order.
func (e *Errata) Notes() []Note {
	if e == nil {
		return nil
	}
	return e.notes
}

// Error implements the error interface, combining every note with multierr
// so callers that only want "is there an error" get one, while callers that
// want the individual failures can still call Notes() or multierr.Errors.
func (e *Errata) Error() string {
	if !e.HasErrors() {
		return ""
	}
	return e.Combined().Error()
}

// Combined returns the notes combined into a single multierr error, the
// representation handed to callers outside this package that just want a
// plain `error`.
func (e *Errata) Combined() error {
	var combined error
	for _, n := range e.notes {
		combined = multierr.Append(combined, n)
	}
	return combined
}

// MarshalJSON renders the full note list, used by the `debug` directive's
// structured diagnostic dump (spec.md §6: "load errors are reported as a
// structured error list with source location marks").
func (e *Errata) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.notes)
}

// AsErrata recovers an *Errata from a generic error, if that is what it is;
// used by callers that need to merge a returned error back into their own
// accumulator.
func AsErrata(err error) (*Errata, bool) {
	e, ok := err.(*Errata)
	return e, ok
}
