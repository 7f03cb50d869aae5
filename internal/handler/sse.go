package handler

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"repoquery/internal/events"
)

// streamEvents drains the stream into the response as server-sent
// events. The response body is written by fasthttp's stream writer
// goroutine; when the client disconnects the writer returns and the
// deferred Cancel tells the producer to stop. Each event is flushed
// immediately so the client sees progress as it happens.
func streamEvents(c *fiber.Ctx, stream *events.Stream) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer stream.Cancel()

		for ev := range stream.Events() {
			if err := writeSSE(w, ev); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

// writeSSE frames one event. Data is JSON-encoded, which also keeps
// the payload to a single data line; a nil payload becomes an empty
// one.
func writeSSE(w *bufio.Writer, ev events.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Name); err != nil {
		return err
	}

	if ev.Data == nil {
		_, err := fmt.Fprint(w, "data: \n\n")
		return err
	}

	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
