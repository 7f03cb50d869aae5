package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDeliversInOrder(t *testing.T) {
	s := NewStream(context.Background())

	go func() {
		defer s.CloseSend()
		for _, name := range []string{FetchRepo, EmbedRepo, SaveEmbeddings, Done} {
			require.NoError(t, s.Emit(name, nil))
		}
	}()

	var got []string
	for ev := range s.Events() {
		got = append(got, ev.Name)
	}
	assert.Equal(t, []string{FetchRepo, EmbedRepo, SaveEmbeddings, Done}, got)
}

func TestStreamBlocksUntilConsumerDrains(t *testing.T) {
	s := NewStream(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Buffer holds one event; the second Emit must block until
		// the consumer takes the first.
		s.Emit("first", nil)
		s.Emit("second", nil)
	}()

	select {
	case <-done:
		t.Fatal("producer finished before consumer drained")
	case <-time.After(50 * time.Millisecond):
	}

	ev := <-s.Events()
	assert.Equal(t, "first", ev.Name)
	ev = <-s.Events()
	assert.Equal(t, "second", ev.Name)
	<-done
}

func TestStreamCancelAbortsProducer(t *testing.T) {
	s := NewStream(context.Background())

	require.NoError(t, s.Emit("buffered", nil))
	s.Cancel()

	err := s.Emit("stranded", nil)
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.Error(t, s.Context().Err())
}

func TestStreamEventData(t *testing.T) {
	s := NewStream(context.Background())

	require.NoError(t, s.Emit(EmbedRepo, map[string]any{"files": 12}))
	ev := <-s.Events()
	assert.Equal(t, EmbedRepo, ev.Name)
	assert.Equal(t, map[string]any{"files": 12}, ev.Data)
}
