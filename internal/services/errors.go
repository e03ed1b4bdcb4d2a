// Package services holds the Session: the object that owns the index, the
// document cache, the selection state and the status slot, and coordinates
// the build, query and selection pipelines.
//
// Errors defined here are translated to HTTP codes by the handlers.
package services

import (
	"errors"

	"github.com/tbourn/catecismo-search/internal/locator"
	"github.com/tbourn/catecismo-search/internal/search"
)

var (
	// ErrTermTooShort is returned for queries below the minimum length. The
	// index is not consulted.
	ErrTermTooShort = search.ErrTermTooShort

	// ErrEntryNotFound indicates that no entry with the requested id exists in
	// the current index.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrIndexEmpty is returned by Rebuild when the new index has no entries
	// (degraded or failed build). The empty index is still installed.
	ErrIndexEmpty = errors.New("index is empty")

	// ErrDocumentUnavailable wraps a selection whose document could not be
	// loaded.
	ErrDocumentUnavailable = locator.ErrDocumentLoad

	// ErrStaleSelection is returned when a newer selection superseded this one.
	ErrStaleSelection = locator.ErrStaleSelection
)

// MessageError attaches the reader-facing status text to a sentinel error.
type MessageError struct {
	Err     error
	Message string
}

func (e *MessageError) Error() string { return e.Err.Error() + ": " + e.Message }

func (e *MessageError) Unwrap() error { return e.Err }

// UserMessage returns the reader-facing text carried by err, or "".
func UserMessage(err error) string {
	var me *MessageError
	if errors.As(err, &me) {
		return me.Message
	}
	return ""
}
