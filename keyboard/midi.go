package keyboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JeanRibes/piano-game/music"
	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const VIRTUAL_PORT = "piano-game"

var ErrNoDriver = errors.New("no rtmidi driver registered")

// MIDI sounds notes on a MIDI output and reports the notes played on a MIDI
// input.
type MIDI struct {
	send       func(midi.Message) error
	stop       func()
	clock      music.Clock
	channel    uint8
	velocity   uint8
	noteLength time.Duration
	onNote     func(Note)
	logger     *charmlog.Logger
}

func NewMIDI(send func(midi.Message) error, clock music.Clock, cfg *Config, onNote func(Note), logger *charmlog.Logger) *MIDI {
	return &MIDI{
		send:       send,
		stop:       func() {},
		clock:      clock,
		channel:    cfg.MIDI.Channel,
		velocity:   cfg.MIDI.Velocity,
		noteLength: cfg.MIDI.NoteLength,
		onNote:     onNote,
		logger:     logger,
	}
}

// OpenMIDI connects to the configured ports, falling back to virtual rtmidi
// ports when they cannot be found. onNote may be nil to skip listening.
func OpenMIDI(ctx context.Context, cfg *Config, clock music.Clock, onNote func(Note)) (*MIDI, error) {
	logger := charmlog.FromContext(ctx)

	out, err := findOut(cfg.MIDI.Output)
	if err != nil {
		logger.Warn("can't find output, opening a virtual one", "output", cfg.MIDI.Output, "err", err)
		drv, ok := drivers.Get().(*rtmididrv.Driver)
		if !ok {
			return nil, ErrNoDriver
		}
		if out, err = drv.OpenVirtualOut(VIRTUAL_PORT); err != nil {
			return nil, fmt.Errorf("midi output: %w", err)
		}
	}
	logger.Info("connecting to", "output", out.String())
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("midi output %s: %w", out, err)
	}

	k := NewMIDI(Buffered(ctx, send), clock, cfg, onNote, logger)
	if onNote == nil {
		return k, nil
	}

	in, err := findIn(cfg.MIDI.Input)
	if err != nil {
		logger.Warn("can't find input, opening a virtual one", "input", cfg.MIDI.Input, "err", err)
		drv, ok := drivers.Get().(*rtmididrv.Driver)
		if !ok {
			return nil, ErrNoDriver
		}
		if in, err = drv.OpenVirtualIn(VIRTUAL_PORT); err != nil {
			return nil, fmt.Errorf("midi input: %w", err)
		}
	}
	logger.Info("connecting to", "input", in.String())
	stop, err := midi.ListenTo(in, k.Handle)
	if err != nil {
		return nil, fmt.Errorf("midi input %s: %w", in, err)
	}
	k.stop = stop
	return k, nil
}

func findOut(name string) (drivers.Out, error) {
	if name == "" {
		return nil, errors.New("no output port configured")
	}
	return midi.FindOutPort(name)
}

func findIn(name string) (drivers.In, error) {
	if name == "" {
		return nil, errors.New("no input port configured")
	}
	return midi.FindInPort(name)
}

func (k *MIDI) SoundNote(n Note) {
	if err := k.send(midi.NoteOn(k.channel, uint8(n), k.velocity)); err != nil {
		k.logger.Error("note on", "key", n, "err", err)
		return
	}
	k.clock.After(k.noteLength, func() {
		if err := k.send(midi.NoteOff(k.channel, uint8(n))); err != nil {
			k.logger.Error("note off", "key", n, "err", err)
		}
	})
}

// SetActiveNotes does nothing, a MIDI keyboard has no lights to drive.
func (k *MIDI) SetActiveNotes([]Note) {}

// Handle is the listener of the MIDI input: every note start becomes a user
// note.
func (k *MIDI) Handle(msg midi.Message, absms int32) {
	var ch, key, vel uint8
	if msg.GetNoteOn(&ch, &key, &vel) && vel > 0 {
		k.logger.Debug("note from input", "key", Note(key), "channel", ch, "abs", absms)
		k.onNote(Note(key))
	}
}

func (k *MIDI) Close() {
	k.stop()
}

// Buffered queues messages for send so callers never wait on the MIDI port.
func Buffered(ctx context.Context, send func(midi.Message) error) func(midi.Message) error {
	logger := charmlog.FromContext(ctx)
	queue := make(chan midi.Message, 32)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-queue:
				if err := send(msg); err != nil {
					logger.Error(err)
				}
			}
		}
	}()

	return func(m midi.Message) error {
		select {
		case queue <- m:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Ports lists the MIDI ports of the registered driver.
func Ports() (ins, outs []string) {
	for _, in := range midi.GetInPorts() {
		ins = append(ins, in.String())
	}
	for _, out := range midi.GetOutPorts() {
		outs = append(outs, out.String())
	}
	return ins, outs
}
