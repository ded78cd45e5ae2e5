package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/jarvis/clients/tui"
	"github.com/dohr-michael/jarvis/internal/events"
	"github.com/dohr-michael/jarvis/internal/voice"
)

// NewTUICommand returns the tui subcommand.
func NewTUICommand() *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive task list",
		Action: runTUI,
	}
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	tr, store, err := buildTracker(ctx, cfg, bus)
	if err != nil {
		return err
	}
	defer store.Close()

	var capture *voice.Capture
	if cfg.Voice.Script != "" {
		lines, err := voice.LoadScript(cfg.Voice.Script)
		if err != nil {
			return fmt.Errorf("load voice script: %w", err)
		}
		capture = voice.NewCapture(voice.NewScriptedRecognizer(lines), bus, cfg.Voice.Locale)
		defer capture.Destroy()
	}

	app := tui.NewApp(tr, capture, bus)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
