// Package voice provides speech capture with an explicit state machine
// and pluggable recognizers.
package voice

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"
)

// Result is a single recognition update. Transcript carries the full
// transcript so far, each result replaces the previous one. A non-nil
// Err is terminal, no further results follow it.
type Result struct {
	Transcript string
	Err        error
}

// Recognizer is a speech recognition backend. Start returns a channel of
// recognition updates which is closed when recognition ends, either
// through Stop, a terminal error or context cancellation.
type Recognizer interface {
	// Available reports whether the backend can capture speech at all.
	Available() bool
	// Start begins a recognition session for the given locale.
	Start(ctx context.Context, locale string) (<-chan Result, error)
	// Stop ends the current session. Pending results are flushed before
	// the result channel closes.
	Stop() error
	// Destroy releases backend resources. The recognizer cannot be
	// started again afterwards.
	Destroy() error
}

// ErrRecognizerDestroyed is returned when starting a destroyed recognizer.
var ErrRecognizerDestroyed = errors.New("recognizer destroyed")

// ScriptedRecognizer replays a fixed script as growing partial
// transcripts. It backs the --simulate flag and tests, there is no
// portable microphone capture for a terminal process.
type ScriptedRecognizer struct {
	mu        sync.Mutex
	lines     []string
	interval  time.Duration
	cancel    context.CancelFunc
	destroyed bool
}

// NewScriptedRecognizer creates a recognizer replaying the given lines.
func NewScriptedRecognizer(lines []string) *ScriptedRecognizer {
	return &ScriptedRecognizer{lines: lines, interval: 50 * time.Millisecond}
}

// LoadScript reads a script file, one utterance fragment per line.
// Blank lines and lines starting with # are skipped.
func LoadScript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *ScriptedRecognizer) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.destroyed && len(r.lines) > 0
}

func (r *ScriptedRecognizer) Start(ctx context.Context, locale string) (<-chan Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return nil, ErrRecognizerDestroyed
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	out := make(chan Result)
	go func() {
		defer close(out)
		var transcript strings.Builder
		for _, line := range r.lines {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.interval):
			}
			if transcript.Len() > 0 {
				transcript.WriteByte(' ')
			}
			transcript.WriteString(line)
			select {
			case out <- Result{Transcript: transcript.String()}:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

func (r *ScriptedRecognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return nil
}

func (r *ScriptedRecognizer) Destroy() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.destroyed = true
	return nil
}
