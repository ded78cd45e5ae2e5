package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dohr-michael/jarvis/internal/events"
)

// fakeRecognizer is a hand-driven recognizer for deterministic tests.
type fakeRecognizer struct {
	available bool
	results   chan Result
	stopped   bool
	destroyed bool
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{available: true, results: make(chan Result)}
}

func (f *fakeRecognizer) Available() bool { return f.available }

func (f *fakeRecognizer) Start(ctx context.Context, locale string) (<-chan Result, error) {
	return f.results, nil
}

func (f *fakeRecognizer) Stop() error {
	if !f.stopped {
		f.stopped = true
		close(f.results)
	}
	return nil
}

func (f *fakeRecognizer) Destroy() error {
	f.destroyed = true
	return nil
}

func (f *fakeRecognizer) emit(transcript string) {
	f.results <- Result{Transcript: transcript}
}

func (f *fakeRecognizer) fail(err error) {
	f.results <- Result{Err: err}
	close(f.results)
}

func waitForTranscript(t *testing.T, c *Capture, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if c.Transcript() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("transcript: got %q, want %q", c.Transcript(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCapture_PartialsReplaceBuffer(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewCapture(rec, nil, "en-US")

	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.State() != StateListening {
		t.Fatalf("state: got %v, want listening", c.State())
	}

	rec.emit("buy")
	rec.emit("buy milk")
	rec.emit("buy milk tomorrow")
	waitForTranscript(t, c, "buy milk tomorrow")

	transcript, err := c.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if transcript != "buy milk tomorrow" {
		t.Errorf("transcript: got %q", transcript)
	}
	if c.State() != StateIdle {
		t.Errorf("state after stop: got %v, want idle", c.State())
	}
}

func TestCapture_StopHandsTranscriptOnce(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewCapture(rec, nil, "en-US")

	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.emit("call mom")
	waitForTranscript(t, c, "call mom")

	if _, err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := c.Stop(); !errors.Is(err, ErrNotListening) {
		t.Fatalf("second Stop: got %v, want ErrNotListening", err)
	}
	if c.Transcript() != "" {
		t.Errorf("buffer must be consumed, got %q", c.Transcript())
	}
}

func TestCapture_ConcurrentStartRejected(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewCapture(rec, nil, "en-US")

	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(t.Context()); !errors.Is(err, ErrAlreadyListening) {
		t.Fatalf("second Start: got %v, want ErrAlreadyListening", err)
	}
	c.Stop()
}

func TestCapture_UnavailableRecognizer(t *testing.T) {
	rec := newFakeRecognizer()
	rec.available = false
	c := NewCapture(rec, nil, "en-US")

	if err := c.Start(t.Context()); !errors.Is(err, ErrRecognizerUnavailable) {
		t.Fatalf("Start: got %v, want ErrRecognizerUnavailable", err)
	}
	if c.State() != StateError {
		t.Errorf("state: got %v, want error", c.State())
	}

	c.Reset()
	if c.State() != StateIdle {
		t.Errorf("state after reset: got %v, want idle", c.State())
	}
}

func TestCapture_RecognitionErrorDiscardsBuffer(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewCapture(rec, nil, "en-US")

	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.emit("half a sen")
	waitForTranscript(t, c, "half a sen")

	rec.fail(errors.New("audio device lost"))
	deadline := time.After(2 * time.Second)
	for c.State() != StateError {
		select {
		case <-deadline:
			t.Fatalf("state: got %v, want error", c.State())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if c.Transcript() != "" {
		t.Errorf("buffer must be discarded on error, got %q", c.Transcript())
	}
}

func TestCapture_PublishesLifecycleEvents(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	seen := make(chan events.EventType, 16)
	unsubscribe := bus.Subscribe(func(e events.Event) {
		seen <- e.Type
	})
	defer unsubscribe()

	rec := newFakeRecognizer()
	c := NewCapture(rec, bus, "en-US")

	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.emit("water the plants")
	waitForTranscript(t, c, "water the plants")
	if _, err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	want := []events.EventType{events.EventVoiceStarted, events.EventVoicePartial, events.EventVoiceStopped}
	for _, w := range want {
		select {
		case got := <-seen:
			if got != w {
				t.Fatalf("event: got %v, want %v", got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %v", w)
		}
	}
}

func TestScriptedRecognizer(t *testing.T) {
	rec := NewScriptedRecognizer([]string{"submit the report", "tomorrow"})
	rec.interval = time.Millisecond
	c := NewCapture(rec, nil, "en-US")

	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForTranscript(t, c, "submit the report tomorrow")

	transcript, err := c.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if transcript != "submit the report tomorrow" {
		t.Errorf("transcript: got %q", transcript)
	}
}

func TestScriptedRecognizer_Destroyed(t *testing.T) {
	rec := NewScriptedRecognizer([]string{"x"})
	if err := rec.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if rec.Available() {
		t.Error("destroyed recognizer must not be available")
	}
	if _, err := rec.Start(t.Context(), "en-US"); !errors.Is(err, ErrRecognizerDestroyed) {
		t.Fatalf("Start: got %v, want ErrRecognizerDestroyed", err)
	}
}
