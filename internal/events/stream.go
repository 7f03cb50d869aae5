// Package events carries ordered lifecycle events from the ingestion
// pipeline and the conversation loop to whoever is streaming them to
// the client.
package events

import (
	"context"
	"errors"
	"sync"
)

// Wire names of ingestion lifecycle events.
const (
	FetchRepo      = "FETCH_REPO"
	EmbedRepo      = "EMBED_REPO"
	SaveEmbeddings = "SAVE_EMBEDDINGS"
)

// Wire names of conversation lifecycle events.
const (
	ProcessQuery     = "PROCESS_QUERY"
	SearchCodebase   = "SEARCH_CODEBASE"
	SearchFile       = "SEARCH_FILE"
	SearchPath       = "SEARCH_PATH"
	GenerateResponse = "GENERATE_RESPONSE"
)

// Shared terminal events.
const (
	Done  = "DONE"
	Error = "ERROR"
)

// ErrStreamClosed is returned by Emit once the consumer has gone away.
// Producers must treat it as a signal to abort their remaining work.
var ErrStreamClosed = errors.New("events: stream closed")

// Event is one lifecycle notification. Data is either nil, a plain
// string, or a JSON-marshallable value; the transport layer decides
// how to encode it.
type Event struct {
	Name string
	Data any
}

// Stream is a single-producer, single-consumer ordered event channel
// with a single-slot buffer. The tiny buffer applies natural
// backpressure: a producer emitting faster than the consumer drains
// will block, but a conversation's events are always observed in
// emission order.
type Stream struct {
	ch     chan Event
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewStream creates a stream whose lifetime is bounded by parent.
func NewStream(parent context.Context) *Stream {
	ctx, cancel := context.WithCancel(parent)
	return &Stream{
		ch:     make(chan Event, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns a context that is cancelled when the consumer goes
// away. Producers should run their work under it so in-flight model
// and retrieval calls stop too.
func (s *Stream) Context() context.Context {
	return s.ctx
}

// Emit delivers an event to the consumer, blocking until the slot is
// free. It returns ErrStreamClosed if the consumer cancelled the
// stream before the event could be delivered.
func (s *Stream) Emit(name string, data any) error {
	select {
	case s.ch <- Event{Name: name, Data: data}:
		return nil
	case <-s.ctx.Done():
		return ErrStreamClosed
	}
}

// Events exposes the receive side for the consumer. The channel is
// closed once the producer calls CloseSend.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// CloseSend marks the producer side finished. Must be called exactly
// once by the producer, after its final Emit.
func (s *Stream) CloseSend() {
	s.once.Do(func() { close(s.ch) })
}

// Cancel tells the producer the consumer is gone. Subsequent and
// blocked Emit calls return ErrStreamClosed.
func (s *Stream) Cancel() {
	s.cancel()
}
