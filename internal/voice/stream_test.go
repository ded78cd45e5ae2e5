package voice

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitForState(t *testing.T, c *Capture, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if c.State() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("state: got %v, want %v", c.State(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStreamRecognizer_PushWithoutSession(t *testing.T) {
	r := NewStreamRecognizer()
	if err := r.Push("hello"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("got %v, want ErrNoSession", err)
	}
}

func TestStreamRecognizer_Session(t *testing.T) {
	r := NewStreamRecognizer()
	c := NewCapture(r, nil, "en-US")
	defer c.Destroy()

	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Push("buy milk"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := r.Push("buy milk tomorrow"); err != nil {
		t.Fatalf("push: %v", err)
	}
	waitForTranscript(t, c, "buy milk tomorrow")

	transcript, err := c.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if transcript != "buy milk tomorrow" {
		t.Errorf("got %q, want %q", transcript, "buy milk tomorrow")
	}

	// The session is gone, further pushes are rejected.
	if err := r.Push("again"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("got %v, want ErrNoSession", err)
	}
}

func TestStreamRecognizer_Fail(t *testing.T) {
	r := NewStreamRecognizer()
	c := NewCapture(r, nil, "en-US")
	defer c.Destroy()

	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Push("half a thought"); err != nil {
		t.Fatalf("push: %v", err)
	}
	waitForTranscript(t, c, "half a thought")

	if err := r.Fail(errors.New("microphone lost")); err != nil {
		t.Fatalf("fail: %v", err)
	}
	waitForState(t, c, StateError)
	if got := c.Transcript(); got != "" {
		t.Errorf("buffer kept after failure: %q", got)
	}
}

func TestStreamRecognizer_Destroyed(t *testing.T) {
	r := NewStreamRecognizer()
	if err := r.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if r.Available() {
		t.Error("destroyed recognizer reports available")
	}
	if _, err := r.Start(context.Background(), "en-US"); !errors.Is(err, ErrRecognizerDestroyed) {
		t.Fatalf("got %v, want ErrRecognizerDestroyed", err)
	}
}
