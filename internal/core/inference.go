package core

import (
	"context"
	"errors"
	"time"

	"github.com/priyankbansal/ollamachat/internal/ai"
)

// Invoker generates a completion for a prompt. Implemented by ai.Client;
// tests substitute fakes.
type Invoker interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// pendingInference is one in-flight request to the model. It targets a room,
// not the requesting connection: if the requester disconnects while the
// model is thinking, the reply still lands in the room.
type pendingInference struct {
	id        string
	room      string
	prompt    string
	startedAt time.Time
}

// inferenceResult is posted back to the hub loop when a request resolves.
// Exactly one result is produced per pendingInference, success or not.
type inferenceResult struct {
	id      string
	room    string
	text    string
	err     error
	elapsed time.Duration
}

// dispatchInference runs one inference request on a detached goroutine so
// the hub loop keeps processing other traffic. The result re-enters shared
// state only through the results channel, consumed by Run.
func (h *Hub) dispatchInference(ctx context.Context, p pendingInference) {
	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, h.inferenceTimeout)
		defer cancel()

		text, err := h.invoker.Generate(reqCtx, p.prompt)
		res := inferenceResult{
			id:      p.id,
			room:    p.room,
			text:    text,
			err:     err,
			elapsed: time.Since(p.startedAt),
		}

		select {
		case h.results <- res:
		case <-ctx.Done():
		}
	}()
}

// User-safe failure notices. Raw errors never reach a room.
const (
	noticeTimeout     = "Sorry, the AI model is taking too long to respond."
	noticeUnavailable = "Sorry, I'm having trouble connecting to the AI model."
	noticeBackend     = "Sorry, the AI model returned an error."
	noticeUnknown     = "Sorry, I encountered an error while generating a response."
)

// failureNotice maps an inference error to the text of the system message
// broadcast into the originating room.
func failureNotice(err error) string {
	var backendErr *ai.BackendError
	switch {
	case errors.Is(err, ai.ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
		return noticeTimeout
	case errors.Is(err, ai.ErrUnavailable):
		return noticeUnavailable
	case errors.As(err, &backendErr):
		return noticeBackend
	default:
		return noticeUnknown
	}
}
