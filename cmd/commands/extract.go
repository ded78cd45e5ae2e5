package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/jarvis/internal/events"
	"github.com/dohr-michael/jarvis/internal/voice"
)

// NewExtractCommand returns the extract subcommand.
func NewExtractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract tasks from a transcript",
		ArgsUsage: "[transcript]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "script",
				Usage: "Replay a voice script file instead of reading a transcript",
			},
		},
		Action: runExtract,
	}
}

func runExtract(ctx context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	tr, store, err := buildTracker(ctx, cfg, bus)
	if err != nil {
		return err
	}
	defer store.Close()

	transcript := strings.Join(cmd.Args().Slice(), " ")

	if script := cmd.String("script"); script != "" {
		lines, err := voice.LoadScript(script)
		if err != nil {
			return fmt.Errorf("load voice script: %w", err)
		}
		transcript, err = replayScript(ctx, lines, bus, cfg.Voice.Locale)
		if err != nil {
			return err
		}
		fmt.Printf("Transcript: %s\n", transcript)
	}

	if transcript == "" {
		// No argument and no script, read from stdin
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		transcript = strings.TrimSpace(string(data))
	}
	if transcript == "" {
		return fmt.Errorf("nothing to extract")
	}

	created, err := tr.AddFromTranscript(ctx, transcript, time.Now(), time.Local)
	for _, t := range created {
		fmt.Printf("Created %s: %s (due %s, %s)\n",
			t.ID, t.Title, t.DueDate.Format("2006-01-02"), t.Label)
	}
	if err != nil {
		return fmt.Errorf("extract tasks: %w", err)
	}
	if len(created) == 0 {
		fmt.Println("No tasks found.")
	}
	return nil
}

// replayScript runs a scripted capture session end to end and returns
// the final transcript.
func replayScript(ctx context.Context, lines []string, bus *events.Bus, locale string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("voice script is empty")
	}
	capture := voice.NewCapture(voice.NewScriptedRecognizer(lines), bus, locale)
	defer capture.Destroy()

	if err := capture.Start(ctx); err != nil {
		return "", fmt.Errorf("start capture: %w", err)
	}

	// Wait for the recognizer to replay every line.
	deadline := time.After(10 * time.Second)
	last := lines[len(lines)-1]
wait:
	for !strings.HasSuffix(capture.Transcript(), last) {
		select {
		case <-deadline:
			break wait
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return capture.Stop()
}
