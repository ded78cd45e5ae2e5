package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dohr-michael/jarvis/internal/events"
)

// State is the capture lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateError     State = "error"
)

var (
	// ErrRecognizerUnavailable is returned when the backend cannot
	// capture speech.
	ErrRecognizerUnavailable = errors.New("speech recognizer unavailable")
	// ErrAlreadyListening is returned when Start is called during an
	// active session.
	ErrAlreadyListening = errors.New("capture already listening")
	// ErrNotListening is returned when Stop is called without an active
	// session.
	ErrNotListening = errors.New("capture not listening")
)

// Capture drives a Recognizer through an explicit idle/listening/error
// state machine and mirrors every transition onto the event bus. Each
// partial result replaces the transcript buffer, Stop hands the final
// transcript to exactly one caller.
type Capture struct {
	recognizer Recognizer
	bus        *events.Bus
	locale     string

	mu         sync.Mutex
	state      State
	transcript string
	lastErr    error
	done       chan struct{}
}

// NewCapture creates a capture session manager around a recognizer.
func NewCapture(recognizer Recognizer, bus *events.Bus, locale string) *Capture {
	return &Capture{
		recognizer: recognizer,
		bus:        bus,
		locale:     locale,
		state:      StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns the current transcript buffer.
func (c *Capture) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript
}

// Err returns the error that moved the capture into the error state.
func (c *Capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Start begins a capture session. A session already in progress is
// rejected rather than restarted. An error state from a previous
// session is cleared.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateListening {
		c.mu.Unlock()
		return ErrAlreadyListening
	}
	if !c.recognizer.Available() {
		c.state = StateError
		c.lastErr = ErrRecognizerUnavailable
		c.mu.Unlock()
		c.publish(events.VoiceErrorPayload{Error: ErrRecognizerUnavailable.Error()})
		return ErrRecognizerUnavailable
	}

	results, err := c.recognizer.Start(ctx, c.locale)
	if err != nil {
		c.state = StateError
		c.lastErr = err
		c.mu.Unlock()
		c.publish(events.VoiceErrorPayload{Error: err.Error()})
		return err
	}

	c.state = StateListening
	c.transcript = ""
	c.lastErr = nil
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.publish(events.VoiceStartedPayload{Locale: c.locale})

	go c.consume(results, done)
	return nil
}

// consume drains recognition updates until the recognizer closes the
// result channel.
func (c *Capture) consume(results <-chan Result, done chan struct{}) {
	defer close(done)
	for res := range results {
		if res.Err != nil {
			c.mu.Lock()
			if c.state == StateListening {
				c.state = StateError
				c.lastErr = res.Err
				c.transcript = ""
			}
			c.mu.Unlock()
			slog.Warn("voice: recognition error", "error", res.Err)
			c.publish(events.VoiceErrorPayload{Error: res.Err.Error()})
			return
		}

		c.mu.Lock()
		if c.state != StateListening {
			c.mu.Unlock()
			continue
		}
		c.transcript = res.Transcript
		c.mu.Unlock()
		c.publish(events.VoicePartialPayload{Transcript: res.Transcript})
	}
}

// Stop ends the session and returns the final transcript. The buffer is
// consumed, a second Stop returns ErrNotListening.
func (c *Capture) Stop() (string, error) {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return "", ErrNotListening
	}
	done := c.done
	c.mu.Unlock()

	if err := c.recognizer.Stop(); err != nil {
		slog.Warn("voice: recognizer stop", "error", err)
	}

	// Wait for in-flight partials so the final transcript is complete.
	if done != nil {
		<-done
	}

	c.mu.Lock()
	transcript := c.transcript
	c.transcript = ""
	if c.state == StateListening {
		c.state = StateIdle
	}
	errored := c.state == StateError
	err := c.lastErr
	c.mu.Unlock()

	if errored {
		return "", err
	}

	c.publish(events.VoiceStoppedPayload{Transcript: transcript})
	return transcript, nil
}

// Reset clears an error state back to idle.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateError {
		c.state = StateIdle
		c.lastErr = nil
		c.transcript = ""
	}
}

// Destroy tears down the recognizer backend.
func (c *Capture) Destroy() error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state == StateListening {
		if _, err := c.Stop(); err != nil && !errors.Is(err, ErrNotListening) {
			return err
		}
	}
	return c.recognizer.Destroy()
}

func (c *Capture) publish(payload events.EventPayload) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.NewTypedEvent(events.SourceVoice, payload))
}
