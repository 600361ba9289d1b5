package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/JeanRibes/piano-game/keyboard"
	"github.com/JeanRibes/piano-game/music"
	"github.com/JeanRibes/piano-game/server"
	. "github.com/JeanRibes/piano-game/shared"
	"github.com/JeanRibes/piano-game/term"
	"github.com/JeanRibes/piano-game/ui"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
)

var (
	configFile string
	uiKind     string
	inPort     string
	outPort    string
	serialPort string
	httpAddr   string
	noMIDI     bool
)

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringVar(&configFile, "config", "config.yaml", "config file")
	playCmd.Flags().StringVar(&uiKind, "ui", "term", "control surface: gtk, term or http")
	playCmd.Flags().StringVar(&inPort, "input", "", "MIDI input port name")
	playCmd.Flags().StringVar(&outPort, "output", "", "MIDI output port name")
	playCmd.Flags().StringVar(&serialPort, "serial", "", "serial key matrix port, e.g. /dev/ttyACM0")
	playCmd.Flags().StringVar(&httpAddr, "addr", "", "HTTP listen address")
	playCmd.Flags().BoolVar(&noMIDI, "no-midi", false, "do not open MIDI ports")
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a game",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return play(cfg)
	},
}

func loadConfig() (*Config, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if inPort != "" {
		cfg.MIDI.Input = inPort
	}
	if outPort != "" {
		cfg.MIDI.Output = outPort
	}
	if serialPort != "" {
		cfg.Serial.Port = serialPort
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	return cfg, cfg.Validate()
}

func play(cfg *Config) error {
	level, err := charmlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	logger := newLogger(level, "main")
	logger.Info("start", "range", cfg.Range(), "length", cfg.SequenceLength, "spacing", cfg.NoteSpacing, "highlight", cfg.HighlightDuration)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	defer midi.CloseDriver()

	SinkUI := NewBus()
	SinkLoop := NewBus()
	clock := music.RealClock{}

	userNote := func(n Note) {
		select {
		case SinkLoop <- Message{Type: UserNote, Number: int(n)}:
		case <-ctx.Done():
		}
	}

	surfaces := keyboard.Tee{}
	if !noMIDI {
		midiLogger := newLogger(level, "midi")
		k, err := keyboard.OpenMIDI(withLogger(ctx, midiLogger), cfg, clock, keyboard.Input(cfg, userNote, midiLogger))
		if err != nil {
			return err
		}
		defer k.Close()
		surfaces = append(surfaces, k)
	}
	if uiKind != "http" {
		surfaces = append(surfaces, keyboard.NewBusSurface(ctx, SinkUI))
	}

	if cfg.Serial.Port != "" {
		serialLogger := newLogger(level, "serial")
		serialCtx := withLogger(ctx, serialLogger)
		s, err := keyboard.OpenSerial(serialCtx, cfg, keyboard.Input(cfg, userNote, serialLogger))
		if err != nil {
			return err
		}
		go func() {
			if err := s.Run(serialCtx); err != nil {
				serialLogger.Error(err)
				select {
				case SinkUI <- Message{Type: Error, String: err.Error()}:
				case <-ctx.Done():
				}
			}
		}()
	}

	game := music.NewGame(cfg, clock, surfaces, music.WithLogger(newLogger(level, "game")))

	loopDone := make(chan struct{})
	loopSinkUI := SinkUI
	if uiKind == "http" {
		loopSinkUI = nil
	}
	go func() {
		music.Run(withLogger(ctx, newLogger(level, "loop")), cancel, game, loopSinkUI, SinkLoop)
		close(loopDone)
	}()

	switch uiKind {
	case "gtk":
		ui.Run(withLogger(ctx, newLogger(level, "UI")), cfg, SinkUI, SinkLoop)
	case "term":
		term.Run(withLogger(ctx, newLogger(level, "term")), cfg, os.Stdin, os.Stdout, SinkUI, SinkLoop)
	case "http":
		err = server.New(game, cfg, newLogger(level, "http")).ListenAndServe(ctx)
	default:
		err = fmt.Errorf("unknown ui %q, want gtk, term or http", uiKind)
	}
	cancel()
	<-loopDone
	logger.Info("stop")
	return err
}
