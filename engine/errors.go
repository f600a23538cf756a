package engine

import (
	"errors"
	"fmt"

	"blockmerge/reconcile"
)

var (
	ErrNoSelections      = errors.New("no selections")
	ErrMarkerInSelection = errors.New("selection contains the segment boundary marker")
	ErrNotReady          = errors.New("segments are not computed yet")
	ErrSessionClosed     = errors.New("session closed")
	ErrInvalidDefault    = reconcile.ErrInvalidDefault
	ErrDocumentNotFound  = errors.New("document not found")
)

// StreamError carries the message reported by the streaming collaborator
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return e.Message
}

// ApplyError reports a replacement the host document refused
type ApplyError struct {
	Segment int
	From    int
	To      int
	Err     error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply segment %d [%d:%d]: %v", e.Segment, e.From, e.To, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}
