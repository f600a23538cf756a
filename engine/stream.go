package engine

import (
	"context"
)

// Run feeds the stream into the coordinator until the stream ends, the
// session is cancelled or ctx is done. onEvent, when set, is called after
// every event has been handled; it runs on Run's goroutine.
//
// Run returns nil when the stream completed, the *StreamError when it
// failed, ErrSessionClosed when the session was cancelled meanwhile, and
// ctx.Err() when the context ended first.
func (c *Coordinator) Run(ctx context.Context, stream ChunkStream, onEvent func(Event)) error {
	emit := func(ev Event) {
		c.handle(ev)
		if onEvent != nil {
			onEvent(ev)
		}
	}

	chunks := stream.ChunksChan()
	for {
		select {
		case <-ctx.Done():
			stream.Cancel()
			emit(Event{Type: EventCancel})
			return ctx.Err()

		case chunk, ok := <-chunks:
			if c.Phase() == PhaseClosed {
				stream.Cancel()
				return ErrSessionClosed
			}
			if !ok {
				if err := stream.Err(); err != nil {
					emit(Event{Type: EventStreamError, Data: err.Error()})
					return c.Err()
				}
				emit(Event{Type: EventStreamComplete})
				return nil
			}
			emit(Event{Type: EventStreamChunk, Data: chunk})
		}
	}
}
