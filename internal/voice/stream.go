package voice

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSession is returned when pushing results without an active session.
var ErrNoSession = errors.New("no active recognition session")

// StreamRecognizer is a Recognizer fed by an external transcript source,
// typically a speech-capable client streaming frames over the gateway.
type StreamRecognizer struct {
	mu        sync.Mutex
	out       chan Result
	destroyed bool
}

// NewStreamRecognizer creates a recognizer driven by Push and Fail.
func NewStreamRecognizer() *StreamRecognizer {
	return &StreamRecognizer{}
}

func (r *StreamRecognizer) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.destroyed
}

func (r *StreamRecognizer) Start(ctx context.Context, locale string) (<-chan Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return nil, ErrRecognizerDestroyed
	}
	if r.out != nil {
		return nil, errors.New("recognition session already active")
	}
	r.out = make(chan Result, 16)
	return r.out, nil
}

// Push delivers a transcript update. Each update carries the full
// transcript so far.
func (r *StreamRecognizer) Push(transcript string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return ErrNoSession
	}
	select {
	case r.out <- Result{Transcript: transcript}:
	default:
		// Consumer stalled, keep the session alive and drop the update.
	}
	return nil
}

// Fail delivers a terminal recognition error and ends the session.
func (r *StreamRecognizer) Fail(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return ErrNoSession
	}
	r.out <- Result{Err: err}
	close(r.out)
	r.out = nil
	return nil
}

func (r *StreamRecognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out != nil {
		close(r.out)
		r.out = nil
	}
	return nil
}

func (r *StreamRecognizer) Destroy() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out != nil {
		close(r.out)
		r.out = nil
	}
	r.destroyed = true
	return nil
}
