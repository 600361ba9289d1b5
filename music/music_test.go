package music

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	. "github.com/JeanRibes/piano-game/shared"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 10 * time.Millisecond

type recorder struct {
	sounded []Note
	active  [][]Note
}

func (r *recorder) SoundNote(n Note) {
	r.sounded = append(r.sounded, n)
}

func (r *recorder) SetActiveNotes(notes []Note) {
	r.active = append(r.active, notes)
}

// fixedSource hands out offsets in order, looping.
type fixedSource struct {
	offsets []int
	i       int
}

func (s *fixedSource) IntN(n int) int {
	v := s.offsets[s.i%len(s.offsets)] % n
	s.i++
	return v
}

func newTestGame(t *testing.T, cfg *Config, offsets ...int) (*Game, *FakeClock, *recorder) {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	require.NoError(t, cfg.Validate())
	clock := &FakeClock{}
	surface := &recorder{}
	opts := []Option{WithLogger(charmlog.New(io.Discard))}
	if len(offsets) > 0 {
		opts = append(opts, WithSource(&fixedSource{offsets: offsets}))
	}
	return NewGame(cfg, clock, surface, opts...), clock, surface
}

func advanceTo(c *FakeClock, at time.Duration) {
	c.Advance(at - c.Now())
}

func TestGenerateStaysInRange(t *testing.T) {
	r := NoteRange{First: 48, Last: 65}
	src := rand.New(rand.NewPCG(1, 2))
	seen := map[Note]bool{}
	for i := 0; i < 1000; i++ {
		seq := Generate(src, 5, r)
		require.Len(t, seq, 5)
		for _, n := range seq {
			require.True(t, r.Contains(n), "%d outside %s", n, r)
			seen[n] = true
		}
	}
	assert.True(t, seen[48], "first note reachable")
	assert.True(t, seen[65], "last note reachable")
}

func TestGenerateSingleNoteRange(t *testing.T) {
	seq := Generate(rand.New(rand.NewPCG(3, 4)), 5, NoteRange{First: 60, Last: 60})
	assert.Equal(t, Sequence{60, 60, 60, 60, 60}, seq)
}

func TestCompare(t *testing.T) {
	expected := Sequence{60, 62, 64, 65, 67}
	assert.Equal(t, 0, Compare(expected, Sequence{60, 62, 64, 65, 67}))
	assert.Equal(t, 1, Compare(expected, Sequence{60, 99, 64, 65, 67}))
	assert.Equal(t, 3, Compare(expected, Sequence{60, 62}))
	assert.Equal(t, 5, Compare(expected, nil))
	assert.Equal(t, 0, Compare(expected, Sequence{60, 62, 64, 65, 67, 1, 2}), "extra notes are ignored")
	assert.Equal(t, 0, Compare(nil, Sequence{60}))
}

func TestStartUserTurn(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	g.StartUserTurn()
	g.OnUserNote(60)
	g.OnUserNote(61)
	g.StartUserTurn()

	assert.True(t, g.UserTurn())
	assert.Empty(t, g.UserSequence())
}

func TestUserNotesIgnoredOutsideTurn(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	g.OnUserNote(60)
	assert.Empty(t, g.UserSequence())
	assert.False(t, g.UserTurn())
}

func TestUserNotesAppendInOrder(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	g.StartUserTurn()
	for i, n := range []Note{64, 60, 64, 70} {
		g.OnUserNote(n)
		user := g.UserSequence()
		require.Len(t, user, i+1)
		assert.Equal(t, n, user[i])
	}
	assert.Equal(t, Sequence{64, 60, 64, 70}, g.UserSequence())
}

func TestCheckAndResetErrors(t *testing.T) {
	// offsets from c3 (48): c3 d3 e3 f3 g3
	g, _, _ := newTestGame(t, nil, 0, 2, 4, 5, 7)
	seq := g.PlayRandom()
	require.Equal(t, Sequence{48, 50, 52, 53, 55}, seq)

	g.StartUserTurn()
	g.OnUserNote(48)
	g.OnUserNote(50)
	assert.Equal(t, 3, g.CheckErrors())
	assert.Equal(t, 3, g.ErrorCount())
	assert.True(t, g.UserTurn(), "checking keeps the turn open by default")

	g.OnUserNote(52)
	assert.Equal(t, 2, g.CheckErrors())

	g.ResetErrorCount()
	assert.Equal(t, 0, g.ErrorCount())
	g.ResetErrorCount()
	assert.Equal(t, 0, g.ErrorCount())
}

func TestCheckEndsTurnWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EndTurnOnCheck = true
	g, _, _ := newTestGame(t, cfg, 1)
	g.PlayRandom()
	g.StartUserTurn()
	g.CheckErrors()
	assert.False(t, g.UserTurn())
	g.OnUserNote(60)
	assert.Empty(t, g.UserSequence())
}

func TestPlaybackHighlightTiming(t *testing.T) {
	g, clock, surface := newTestGame(t, nil, 0, 2, 4, 5, 7)
	cfg := DefaultConfig()
	spacing, duration := cfg.NoteSpacing, cfg.HighlightDuration

	seq := g.PlayRandom()
	assert.Empty(t, surface.sounded, "playback does not run synchronously")

	for i, n := range seq {
		at := time.Duration(i) * spacing
		advanceTo(clock, at+eps)
		assert.True(t, g.Highlighted(n), "note %d lit at %s", i, at+eps)
		assert.Equal(t, []Note{n}, g.Snapshot().Active)

		advanceTo(clock, at+duration+eps)
		assert.False(t, g.Highlighted(n), "note %d dark at %s", i, at+duration+eps)
	}
	assert.Equal(t, []Note(seq), surface.sounded)
	assert.Equal(t, 0, clock.Pending())
	assert.Empty(t, surface.active[len(surface.active)-1])
}

func TestRepeatedNoteSurvivesStaleRemoval(t *testing.T) {
	g, clock, _ := newTestGame(t, nil, 0)
	seq := g.PlayRandom()
	require.Equal(t, Sequence{48, 48, 48, 48, 48}, seq)

	advanceTo(clock, 500*time.Millisecond)
	require.NoError(t, g.Replay())

	// first playback removes its first instance at 800ms, the replay's
	// instance stays lit until 1300ms
	advanceTo(clock, 800*time.Millisecond+eps)
	assert.True(t, g.Highlighted(48))
	advanceTo(clock, 1000*time.Millisecond-eps)
	assert.True(t, g.Highlighted(48))
	advanceTo(clock, 1300*time.Millisecond+eps)
	assert.True(t, g.Highlighted(48), "second instance of the first playback lit since 1000ms")

	// the two playbacks keep overlapping until the replay's last note is off
	advanceTo(clock, 5300*time.Millisecond-eps)
	assert.True(t, g.Highlighted(48))
	advanceTo(clock, 5300*time.Millisecond+eps)
	assert.False(t, g.Highlighted(48))

	clock.Advance(10 * time.Second)
	assert.False(t, g.Highlighted(48))
	assert.Empty(t, g.Snapshot().Active)
}

func TestReplayWithoutSequence(t *testing.T) {
	g, clock, surface := newTestGame(t, nil)
	assert.ErrorIs(t, g.Replay(), ErrNoSequence)
	clock.Advance(time.Minute)
	assert.Empty(t, surface.sounded)
}

func TestReplayKeepsSequence(t *testing.T) {
	g, clock, surface := newTestGame(t, nil, 3, 1, 4, 1, 5)
	seq := g.PlayRandom()
	round := g.Snapshot().Round
	clock.Advance(10 * time.Second)
	require.NoError(t, g.Replay())
	clock.Advance(10 * time.Second)

	assert.Equal(t, append(append([]Note{}, seq...), seq...), surface.sounded)
	assert.Equal(t, round, g.Snapshot().Round)
}

func TestNewRoundGetsNewID(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	assert.Empty(t, g.Snapshot().Round)
	g.PlayRandom()
	first := g.Snapshot().Round
	g.PlayRandom()
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, g.Snapshot().Round)
}

func TestFakeClockOrder(t *testing.T) {
	clock := &FakeClock{}
	fired := []string{}
	clock.After(20*time.Millisecond, func() { fired = append(fired, "b") })
	clock.After(10*time.Millisecond, func() {
		fired = append(fired, "a")
		clock.After(5*time.Millisecond, func() { fired = append(fired, "a2") })
	})
	clock.After(20*time.Millisecond, func() { fired = append(fired, "c") })
	clock.After(0, func() { fired = append(fired, "now") })

	clock.Advance(0)
	assert.Equal(t, []string{"now"}, fired)
	clock.Advance(30 * time.Millisecond)
	assert.Equal(t, []string{"now", "a", "a2", "b", "c"}, fired)
	assert.Equal(t, 30*time.Millisecond, clock.Now())
}

func TestRunLoop(t *testing.T) {
	g, clock, _ := newTestGame(t, nil, 0, 2, 4, 5, 7)
	SinkUI := NewBus()
	SinkLoop := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = context.WithValue(ctx, charmlog.ContextKey, charmlog.New(io.Discard))
	done := make(chan struct{})
	go func() {
		Run(ctx, cancel, g, SinkUI, SinkLoop)
		close(done)
	}()

	SinkLoop <- Message{Type: PlayRandom}
	assert.Equal(t, Message{Type: SequenceNotify, Number: 5}, <-SinkUI)

	SinkLoop <- Message{Type: UserTurn}
	assert.Equal(t, Message{Type: TurnNotify, Boolean: true}, <-SinkUI)

	SinkLoop <- Message{Type: UserNote, Number: 48}
	SinkLoop <- Message{Type: UserNote, Number: 50}
	SinkLoop <- Message{Type: CheckErrors}
	assert.Equal(t, Message{Type: ErrorCountNotify, Number: 3}, <-SinkUI)

	SinkLoop <- Message{Type: ResetErrors}
	assert.Equal(t, Message{Type: ErrorCountNotify, Number: 0}, <-SinkUI)

	SinkLoop <- Message{Type: Quit}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Error(t, ctx.Err())
	assert.Equal(t, Sequence{48, 50}, g.UserSequence())
	assert.Equal(t, 0, g.ErrorCount())
	clock.Advance(time.Minute)
}

func TestRunLoopReportsReplayError(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	SinkUI := NewBus()
	SinkLoop := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Run(ctx, cancel, g, SinkUI, SinkLoop)

	SinkLoop <- Message{Type: Replay}
	msg := <-SinkUI
	assert.Equal(t, Error, msg.Type)
	assert.Equal(t, ErrNoSequence.Error(), msg.String)
}

func TestConcurrentRoundsAndTurns(t *testing.T) {
	g, clock, _ := newTestGame(t, nil)
	var wg sync.WaitGroup
	run := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				f()
			}
		}()
	}
	run(func() { g.PlayRandom() })
	run(g.StartUserTurn)
	run(func() { g.OnUserNote(60) })
	run(func() { g.CheckErrors() })
	run(func() { g.Snapshot() })
	run(func() { clock.Advance(100 * time.Millisecond) })
	wg.Wait()

	clock.Advance(time.Hour)
	assert.Empty(t, g.Snapshot().Active)
	assert.LessOrEqual(t, g.ErrorCount(), 5)
}

func TestRunLoopTurnOverOnlyWhenCheckEndsIt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EndTurnOnCheck = true
	g, _, _ := newTestGame(t, cfg, 0)
	SinkUI := NewBus()
	SinkLoop := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = context.WithValue(ctx, charmlog.ContextKey, charmlog.New(io.Discard))
	go Run(ctx, cancel, g, SinkUI, SinkLoop)

	SinkLoop <- Message{Type: PlayRandom}
	assert.Equal(t, Message{Type: SequenceNotify, Number: 5}, <-SinkUI)

	// no turn open yet
	SinkLoop <- Message{Type: CheckErrors}
	assert.Equal(t, Message{Type: ErrorCountNotify, Number: 5}, <-SinkUI)
	SinkLoop <- Message{Type: UserTurn}
	assert.Equal(t, Message{Type: TurnNotify, Boolean: true}, <-SinkUI)

	SinkLoop <- Message{Type: CheckErrors}
	assert.Equal(t, Message{Type: ErrorCountNotify, Number: 5}, <-SinkUI)
	assert.Equal(t, Message{Type: TurnNotify, Boolean: false}, <-SinkUI)

	// turn already over
	SinkLoop <- Message{Type: CheckErrors}
	assert.Equal(t, Message{Type: ErrorCountNotify, Number: 5}, <-SinkUI)
	SinkLoop <- Message{Type: ResetErrors}
	assert.Equal(t, Message{Type: ErrorCountNotify, Number: 0}, <-SinkUI)
}
