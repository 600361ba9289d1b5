package keyboard

import (
	"context"
	"errors"
	"fmt"
	"io"

	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
	"go.bug.st/serial"
)

var ErrNoSerialPort = errors.New("no serial ports found")

// Serial reads a key matrix on a serial port. Each frame is two bytes,
// status then key code; a clear high bit in status means the key went down.
type Serial struct {
	port   serial.Port
	name   string
	keymap map[int]Note
	onNote func(Note)
	logger *charmlog.Logger
}

func OpenSerial(ctx context.Context, cfg *Config, onNote func(Note)) (*Serial, error) {
	logger := charmlog.FromContext(ctx)
	name := cfg.Serial.Port
	if name == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("serial: %w", err)
		}
		if len(ports) == 0 {
			return nil, ErrNoSerialPort
		}
		for _, port := range ports {
			logger.Debug("found port", "port", port)
		}
		name = ports[0]
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: cfg.Serial.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("serial %s: %w", name, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("serial %s: %w", name, err)
	}
	logger.Info("connecting to", "serial", name, "baud", cfg.Serial.BaudRate, "keys", len(cfg.Keymap()))
	return &Serial{
		port:   port,
		name:   name,
		keymap: cfg.Keymap(),
		onNote: onNote,
		logger: logger,
	}, nil
}

// Run reads the port until ctx is done.
func (s *Serial) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.port.Close()
	}()
	err := ReadFrames(s.port, s.keymap, s.onNote, s.logger)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// ReadFrames decodes key frames from r until it is exhausted. A key held down
// reports its note once.
func ReadFrames(r io.Reader, keymap map[int]Note, onNote func(Note), logger *charmlog.Logger) error {
	held := [256]bool{}
	buf := make([]byte, 2)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		status := buf[0]
		code := buf[1]

		down := (status >> 7) == 0
		if held[code] && down {
			continue
		}
		held[code] = down
		if !down {
			continue
		}

		note, ok := keymap[int(code)]
		if !ok {
			logger.Debug("unassigned", "code", code)
			continue
		}
		onNote(note)
	}
}

func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
