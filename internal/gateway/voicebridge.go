package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/dohr-michael/jarvis/internal/tracker"
	"github.com/dohr-michael/jarvis/internal/voice"
)

// VoiceBridge implements ws.VoiceHandler by driving a capture session
// and feeding its transcript through the tracker's extraction path.
type VoiceBridge struct {
	capture *voice.Capture
	stream  *voice.StreamRecognizer
	tracker *tracker.Tracker
}

// NewVoiceBridge creates a bridge between WS clients and voice capture.
// stream is non-nil when the recognizer is driven by client transcript
// frames rather than a local source.
func NewVoiceBridge(capture *voice.Capture, stream *voice.StreamRecognizer, tr *tracker.Tracker) *VoiceBridge {
	return &VoiceBridge{capture: capture, stream: stream, tracker: tr}
}

// Start begins a capture session.
func (b *VoiceBridge) Start(ctx context.Context) error {
	return b.capture.Start(ctx)
}

// stopResult is the payload returned when a session ends.
type stopResult struct {
	Transcript string     `json:"transcript"`
	Created    []taskJSON `json:"created"`
}

// Stop ends the session, extracts tasks from the transcript and returns
// both the transcript and whatever was created.
func (b *VoiceBridge) Stop(ctx context.Context) (any, error) {
	transcript, err := b.capture.Stop()
	if err != nil {
		return nil, err
	}

	result := stopResult{Transcript: transcript, Created: []taskJSON{}}
	if transcript == "" {
		return result, nil
	}

	// The transcript was captured fine, extraction or draft failures are
	// not session failures. The error events are already on the bus and
	// whatever did persist is returned.
	created, _ := b.tracker.AddFromTranscript(ctx, transcript, time.Now(), time.Local)
	result.Created = toTaskListJSON(created)
	return result, nil
}

// Partial forwards a client-streamed transcript update into the session.
func (b *VoiceBridge) Partial(ctx context.Context, transcript string) error {
	if b.stream == nil {
		return errors.New("recognizer is not client-streamed")
	}
	return b.stream.Push(transcript)
}

// Fail forwards a client-reported recognition failure into the session.
func (b *VoiceBridge) Fail(ctx context.Context, message string) error {
	if b.stream == nil {
		return errors.New("recognizer is not client-streamed")
	}
	return b.stream.Fail(errors.New(message))
}
