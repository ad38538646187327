// Package tracker is the top-level match observer. It consumes the host's
// event callbacks, owns the per-match session state, and drives the
// correlator, the log parser, and record emission.
package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hiloapp/bg-companion/internal/bg/correlate"
	"github.com/hiloapp/bg-companion/internal/bg/hostapi"
	"github.com/hiloapp/bg-companion/internal/bg/logtail"
	"github.com/hiloapp/bg-companion/internal/bg/turns"
	"github.com/hiloapp/bg-companion/internal/events"
	"github.com/hiloapp/bg-companion/internal/sink"
)

// State is the tracker's lifecycle position.
type State int

const (
	// Idle means no match is being observed.
	Idle State = iota
	// InMatch means a match is in progress and turn events are folded in.
	InMatch
	// Finalizing means the match ended and deferred finalization steps
	// (trailing log parse, rating settle) are still running.
	Finalizing
)

func (s State) String() string {
	switch s {
	case InMatch:
		return "InMatch"
	case Finalizing:
		return "Finalizing"
	default:
		return "Idle"
	}
}

const (
	// DefaultSettleDelay is how long the rating read waits after match end
	// for the host to finish writing its own match history.
	DefaultSettleDelay = 5 * time.Second

	// DefaultTrailingParseDelay gives the game client time to flush the
	// final combat lines before the closing log parse.
	DefaultTrailingParseDelay = 2 * time.Second
)

// Options tune the tracker's deferred finalization timing.
type Options struct {
	SettleDelay        time.Duration
	TrailingParseDelay time.Duration
}

// DefaultOptions returns production timing.
func DefaultOptions() Options {
	return Options{
		SettleDelay:        DefaultSettleDelay,
		TrailingParseDelay: DefaultTrailingParseDelay,
	}
}

// session is the per-match working state, replaced wholesale at match
// start. The generation counter lets deferred tasks detect that a new
// match superseded the one they were finalizing.
type session struct {
	generation int
	startedAt  time.Time

	heroID      string
	heroName    string
	anomalyID   string
	anomalyName string

	startingRating int
	finalRating    int
}

// Tracker observes one match at a time.
type Tracker struct {
	game       hostapi.GameState
	parser     *logtail.Parser
	dispatcher *events.Dispatcher
	sinks      []sink.Sink
	opts       Options

	mu      sync.Mutex
	state   State
	store   *turns.Store
	corr    *correlate.Correlator
	session session

	// finalizing is waited on by Close so teardown never races an
	// in-flight record assembly.
	finalizing sync.WaitGroup

	// sleep is swappable in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// New builds a tracker. The parser may be nil when no log file is
// available; the tracker then runs on entity snapshots alone.
func New(game hostapi.GameState, parser *logtail.Parser, dispatcher *events.Dispatcher, sinks []sink.Sink, opts Options) *Tracker {
	return &Tracker{
		game:       game,
		parser:     parser,
		dispatcher: dispatcher,
		sinks:      sinks,
		opts:       opts,
		store:      turns.NewStore(),
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Store exposes the live turn store for the companion API. Callers get the
// store that survives across matches; records are cleared at finalization.
func (t *Tracker) Store() *turns.Store {
	return t.store
}

// LiveTurns returns deep copies of the in-flight match's turn records.
// Record fields are mutated under t.mu by the event handlers and the
// deferred parse, so the copies are taken under the same lock; readers on
// other goroutines can marshal them freely.
func (t *Tracker) LiveTurns() []*turns.TurnRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	records := t.store.All()
	out := make([]*turns.TurnRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.Clone())
	}
	return out
}

// HandleMatchStart begins observing a new match. Non-Battlegrounds modes
// are ignored. A start while a previous match is still finalizing
// supersedes it; the stale finalization steps detect this and abandon.
func (t *Tracker) HandleMatchStart() {
	if t.game.Mode() != hostapi.ModeBattlegrounds {
		return
	}

	t.mu.Lock()
	t.session = session{
		generation: t.session.generation + 1,
		startedAt:  t.now(),
	}
	t.store.Clear()
	t.store.GetOrCreate(1, turns.PlayerTurn)
	t.corr = correlate.New(t.game, t.store)
	t.state = InMatch

	if hero, ok := t.game.PlayerHero(); ok {
		t.session.heroID = hero.ID
		t.session.heroName = hero.Name
	}
	t.session.startingRating = t.readRating()
	hero := t.session.heroID
	heroName := t.session.heroName
	gen := t.session.generation
	t.mu.Unlock()

	log.Printf("[tracker] match started (generation %d, hero %s)", gen, hero)
	t.dispatcher.Dispatch(events.Event{
		Type: events.TypeMatchStarted,
		Data: events.MatchStartedEvent{
			HeroID:   hero,
			HeroName: heroName,
			Region:   t.game.Region().String(),
		},
		Context: context.Background(),
	})
}

// HandleTurnStart folds one turn-boundary event into the match. The
// trailing log segment is re-parsed afterwards so simulation output and
// combat validations that landed since the previous turn attach to their
// records.
func (t *Tracker) HandleTurnStart(active hostapi.ActiveSide) {
	t.mu.Lock()
	if t.state != InMatch {
		t.mu.Unlock()
		return
	}

	prevPhase := t.corr.Phase()
	t.corr.OnTurnStart(active)
	newPhase := t.corr.Phase()

	if t.parser != nil {
		t.parser.Parse(t.store)
	}

	record, _ := t.store.Last()
	t.mu.Unlock()

	if record != nil {
		t.dispatcher.Dispatch(events.Event{
			Type: events.TypeTurnUpdated,
			Data: events.TurnUpdatedEvent{
				Turn:       record.Turn,
				Phase:      record.Phase.String(),
				OpponentID: record.OpponentID,
				HeroDamage: record.HeroDamage,
			},
			Context: context.Background(),
		})
	}
	if newPhase != prevPhase {
		turn := 0
		if record != nil {
			turn = record.Turn
		}
		t.dispatcher.Dispatch(events.Event{
			Type: events.TypePhaseChanged,
			Data: events.PhaseChangedEvent{
				Turn:  turn,
				Phase: newPhase.String(),
			},
			Context: context.Background(),
		})
	}
}

// RefreshFromLog re-parses the trailing log segment into the live store.
// Wired to the log watcher so simulation results appear between turn
// boundaries. No-op outside a match.
func (t *Tracker) RefreshFromLog() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != InMatch || t.parser == nil {
		return
	}
	t.parser.Parse(t.store)
}

// HandleEntityEnteredPlay watches for the match anomaly card; everything
// else entering play is uninteresting at this event's granularity. The
// latch is last-one-wins, matching how the host re-announces the anomaly.
func (t *Tracker) HandleEntityEnteredPlay(card hostapi.Card) {
	if card.Type != hostapi.CardTypeAnomaly {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != InMatch {
		return
	}
	t.session.anomalyID = card.ID
	t.session.anomalyName = card.Name
	log.Printf("[tracker] anomaly detected: %s (%s)", card.Name, card.ID)
}

// HandleEntityWillTakeDamage is a high-frequency poll point during combat.
// It only re-evaluates the inferred phase; the damage itself is measured
// from health snapshots, not from individual damage events.
func (t *Tracker) HandleEntityWillTakeDamage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != InMatch {
		return
	}
	t.corr.Observe()
}

// HandleMatchEnd captures everything only available at the final screen
// and schedules the deferred finalization steps. The host callback must
// not block, so the settle waits run on their own goroutine.
func (t *Tracker) HandleMatchEnd() {
	t.mu.Lock()
	if t.state != InMatch {
		t.mu.Unlock()
		return
	}
	t.state = Finalizing
	gen := t.session.generation

	entities := t.game.Entities()
	placement := t.resolvePlacement(entities)
	board := t.captureFinalBoard(entities)
	triples := t.corr.TriplesCreated()
	t.mu.Unlock()

	log.Printf("[tracker] match ended (generation %d, placement %d)", gen, placement)

	t.finalizing.Add(1)
	go func() {
		defer t.finalizing.Done()
		t.finalize(gen, placement, board, triples)
	}()
}

// Close waits for any in-flight finalization to complete.
func (t *Tracker) Close() {
	t.finalizing.Wait()
}

// readRating reads the current rating, preferring the dedicated accessor
// and falling back to the generic match stats.
func (t *Tracker) readRating() int {
	if rating, ok := t.game.RatingInfo(); ok {
		return rating
	}
	if stats, ok := t.game.CurrentStats(); ok {
		return stats.Rating
	}
	return 0
}
