package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/jarvis/internal/config"
	"github.com/dohr-michael/jarvis/internal/events"
	"github.com/dohr-michael/jarvis/internal/gateway"
	"github.com/dohr-michael/jarvis/internal/gateway/ws"
	"github.com/dohr-michael/jarvis/internal/heartbeat"
	"github.com/dohr-michael/jarvis/internal/voice"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the Jarvis gateway server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runServe,
	}
}

func runServe(_ context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Event bus
	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	// Store, extraction and task cache
	tr, store, err := buildTracker(ctx, cfg, bus)
	if err != nil {
		return err
	}
	defer store.Close()

	// Voice capture. A configured script replays a fixed recognition
	// session, otherwise clients stream transcript frames over the WS.
	var voiceHandler ws.VoiceHandler
	if cfg.Voice.Script != "" {
		lines, err := voice.LoadScript(cfg.Voice.Script)
		if err != nil {
			return fmt.Errorf("load voice script: %w", err)
		}
		capture := voice.NewCapture(voice.NewScriptedRecognizer(lines), bus, cfg.Voice.Locale)
		defer capture.Destroy()
		voiceHandler = gateway.NewVoiceBridge(capture, nil, tr)
	} else {
		stream := voice.NewStreamRecognizer()
		capture := voice.NewCapture(stream, bus, cfg.Voice.Locale)
		defer capture.Destroy()
		voiceHandler = gateway.NewVoiceBridge(capture, stream, tr)
	}

	// Gateway server
	server := gateway.NewServer(tr, voiceHandler, bus, cfg.Gateway.Host, cfg.Gateway.Port)

	// Heartbeat for the status command
	addr := fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	hb := heartbeat.NewWriter(filepath.Join(config.JarvisPath(), "heartbeat.json"), addr, cfg.Store.Backend)
	hb.Start()
	defer hb.Stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for signal or error
	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
