package shared

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidTiming = errors.New("invalid playback timing")

// HOME_ROW lays consecutive semitones from the first note of the range on the
// home row of a qwerty keyboard.
const HOME_ROW = "awsedftgyhujkolp;'"

type KeyboardConfig struct {
	Width     int               `yaml:"width"`
	Height    int               `yaml:"height"`
	Disabled  bool              `yaml:"disabled"`
	Shortcuts map[string]string `yaml:"shortcuts"` // key → note name
}

type MIDIConfig struct {
	Input      string        `yaml:"input"`
	Output     string        `yaml:"output"`
	Channel    uint8         `yaml:"channel"`
	Velocity   uint8         `yaml:"velocity"`
	NoteLength time.Duration `yaml:"note_length"`
}

type SerialConfig struct {
	Port     string         `yaml:"port"`
	BaudRate int            `yaml:"baud_rate"`
	Keymap   map[int]string `yaml:"keymap"` // key code → note name
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Config struct {
	NoteRange struct {
		First string `yaml:"first"`
		Last  string `yaml:"last"`
	} `yaml:"note_range"`
	SequenceLength    int            `yaml:"sequence_length"`
	NoteSpacing       time.Duration  `yaml:"note_spacing"`
	HighlightDuration time.Duration  `yaml:"highlight_duration"`
	EndTurnOnCheck    bool           `yaml:"end_turn_on_check"`
	Keyboard          KeyboardConfig `yaml:"keyboard"`
	MIDI              MIDIConfig     `yaml:"midi"`
	Serial            SerialConfig   `yaml:"serial"`
	HTTP              HTTPConfig     `yaml:"http"`
	LogLevel          string         `yaml:"log_level"`

	noteRange NoteRange
	shortcuts map[string]Note
	keymap    map[int]Note
}

func DefaultConfig() *Config {
	c := &Config{
		SequenceLength:    5,
		NoteSpacing:       1000 * time.Millisecond,
		HighlightDuration: 800 * time.Millisecond,
		Keyboard: KeyboardConfig{
			Width:  1000,
			Height: 200,
		},
		MIDI: MIDIConfig{
			Velocity:   64,
			NoteLength: 500 * time.Millisecond,
		},
		Serial: SerialConfig{
			BaudRate: 115200,
			Keymap:   map[int]string{},
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		LogLevel: "info",
	}
	c.NoteRange.First = "c3"
	c.NoteRange.Last = "f4"
	return c
}

// LoadConfig reads a YAML config file on top of the defaults. A missing file
// is not an error.
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if errors.Is(err, os.ErrNotExist) {
		c := DefaultConfig()
		return c, c.Validate()
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadConfig(file)
}

func ReadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, c.Validate()
}

// Validate checks the config and resolves every note name it contains.
func (c *Config) Validate() (errs error) {
	r, err := NewNoteRange(c.NoteRange.First, c.NoteRange.Last)
	if err != nil {
		return fmt.Errorf("note_range: %w", err)
	}
	c.noteRange = r

	if c.SequenceLength < 1 {
		errs = errors.Join(errs, fmt.Errorf("sequence_length must be positive, got %d", c.SequenceLength))
	}
	if c.HighlightDuration <= 0 || c.HighlightDuration >= c.NoteSpacing {
		errs = errors.Join(errs, fmt.Errorf("%w: highlight_duration %s must be in (0, note_spacing %s)",
			ErrInvalidTiming, c.HighlightDuration, c.NoteSpacing))
	}
	if c.MIDI.Channel > 15 {
		errs = errors.Join(errs, fmt.Errorf("midi.channel must be 0..15, got %d", c.MIDI.Channel))
	}
	if c.MIDI.Velocity > 127 {
		errs = errors.Join(errs, fmt.Errorf("midi.velocity must be 0..127, got %d", c.MIDI.Velocity))
	}

	c.shortcuts = map[string]Note{}
	if c.Keyboard.Shortcuts == nil {
		c.Keyboard.Shortcuts = map[string]string{}
		for i, key := range HOME_ROW {
			n := int(r.First) + i
			if n > int(r.Last) {
				break
			}
			c.Keyboard.Shortcuts[string(key)] = Note(n).Name()
		}
	}
	for key, name := range c.Keyboard.Shortcuts {
		n, err := c.inRange(name)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("keyboard.shortcuts[%q]: %w", key, err))
			continue
		}
		c.shortcuts[key] = n
	}
	c.keymap = map[int]Note{}
	for code, name := range c.Serial.Keymap {
		n, err := c.inRange(name)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("serial.keymap[%d]: %w", code, err))
			continue
		}
		c.keymap[code] = n
	}
	return errs
}

func (c *Config) inRange(name string) (Note, error) {
	n, err := ParseNote(name)
	if err != nil {
		return 0, err
	}
	if !c.noteRange.Contains(n) {
		return 0, fmt.Errorf("%w: %s is outside %s", ErrInvalidRange, n, c.noteRange)
	}
	return n, nil
}

// Range is only meaningful after Validate.
func (c *Config) Range() NoteRange {
	return c.noteRange
}

func (c *Config) Shortcut(key string) (Note, bool) {
	n, ok := c.shortcuts[key]
	return n, ok
}

func (c *Config) Keymap() map[int]Note {
	return c.keymap
}
