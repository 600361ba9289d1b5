package music

import (
	"errors"
	"math/rand/v2"
	"sync"

	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var ErrNoSequence = errors.New("no sequence has been played yet")

// Surface is the keyboard the game plays on: it sounds notes and shows the
// highlighted ones. Calls are made with the game locked, so a Surface must not
// call back into the Game from the same goroutine.
type Surface interface {
	SoundNote(n Note)
	SetActiveNotes(notes []Note)
}

// State is a copy of the game state for control surfaces.
type State struct {
	Round      string   `json:"round"`
	Sequence   Sequence `json:"sequence"`
	User       Sequence `json:"user"`
	Active     []Note   `json:"active"`
	UserTurn   bool     `json:"user_turn"`
	ErrorCount int      `json:"error_count"`
}

type Game struct {
	cfg     *Config
	clock   Clock
	surface Surface
	rng     Source
	logger  *charmlog.Logger

	sequence   Sequence
	user       Sequence
	highlight  *HighlightSet
	userTurn   bool
	errorCount int
	round      uuid.UUID
	sync.Mutex
}

type Option func(*Game)

func WithSource(src Source) Option {
	return func(g *Game) {
		g.rng = src
	}
}

func WithLogger(logger *charmlog.Logger) Option {
	return func(g *Game) {
		g.logger = logger
	}
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// NewGame expects a validated config.
func NewGame(cfg *Config, clock Clock, surface Surface, opts ...Option) *Game {
	g := &Game{
		cfg:       cfg,
		clock:     clock,
		surface:   surface,
		rng:       globalSource{},
		logger:    charmlog.Default(),
		highlight: NewHighlightSet(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PlayRandom starts a new round: a fresh sequence is generated, stored and
// played back.
func (g *Game) PlayRandom() Sequence {
	g.Lock()
	defer g.Unlock()
	g.sequence = Generate(g.rng, g.cfg.SequenceLength, g.cfg.Range())
	g.round = uuid.New()
	g.logger.Info("new round", "round", g.round, "length", len(g.sequence))
	g.logger.Debug("sequence", "round", g.round, "notes", g.sequence.String())
	g.play(g.sequence)
	return g.sequence.Clone()
}

// Replay plays the current sequence again.
func (g *Game) Replay() error {
	g.Lock()
	defer g.Unlock()
	if len(g.sequence) == 0 {
		return ErrNoSequence
	}
	g.logger.Info("replay", "round", g.round)
	g.play(g.sequence)
	return nil
}

func (g *Game) StartUserTurn() {
	g.Lock()
	defer g.Unlock()
	g.userTurn = true
	g.user = Sequence{}
	g.logger.Info("user turn", "round", g.round)
}

// OnUserNote records n if the user turn is open.
func (g *Game) OnUserNote(n Note) {
	g.Lock()
	defer g.Unlock()
	if !g.userTurn {
		g.logger.Debug("note outside of user turn", "note", n)
		return
	}
	g.user = append(g.user, n)
	g.logger.Debug("user note", "note", n, "index", len(g.user)-1)
}

// CheckErrors scores the user sequence against the current one and keeps the
// result as the error count.
func (g *Game) CheckErrors() int {
	g.Lock()
	defer g.Unlock()
	g.errorCount = Compare(g.sequence, g.user)
	if g.cfg.EndTurnOnCheck {
		g.userTurn = false
	}
	g.logger.Info("check", "round", g.round, "errors", g.errorCount, "played", len(g.user), "expected", len(g.sequence))
	return g.errorCount
}

func (g *Game) ResetErrorCount() {
	g.Lock()
	g.errorCount = 0
	g.Unlock()
	g.logger.Debug("error count reset")
}

func (g *Game) ErrorCount() int {
	g.Lock()
	defer g.Unlock()
	return g.errorCount
}

func (g *Game) UserTurn() bool {
	g.Lock()
	defer g.Unlock()
	return g.userTurn
}

func (g *Game) UserSequence() Sequence {
	g.Lock()
	defer g.Unlock()
	return g.user.Clone()
}

func (g *Game) Highlighted(n Note) bool {
	g.Lock()
	defer g.Unlock()
	return g.highlight.Contains(n)
}

func (g *Game) Snapshot() State {
	g.Lock()
	defer g.Unlock()
	s := State{
		Sequence:   g.sequence.Clone(),
		User:       g.user.Clone(),
		Active:     g.highlight.Notes(),
		UserTurn:   g.userTurn,
		ErrorCount: g.errorCount,
	}
	if g.round != uuid.Nil {
		s.Round = g.round.String()
	}
	return s
}
