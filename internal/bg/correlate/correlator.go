// Package correlate reconstructs per-turn combat statistics from the host's
// turn-start feed and entity snapshots. The host never announces "combat
// started"; the combat phase is inferred from indirect signals layered on
// top of the player/opponent sub-phase markers.
package correlate

import (
	"log"
	"strconv"

	"github.com/hiloapp/bg-companion/internal/bg/hostapi"
	"github.com/hiloapp/bg-companion/internal/bg/turns"
)

// PhaseState is the correlator's inferred position within a turn.
type PhaseState int

const (
	NoPhase PhaseState = iota
	ShopPhase
	CombatPhase
)

func (p PhaseState) String() string {
	switch p {
	case ShopPhase:
		return "ShopPhase"
	case CombatPhase:
		return "CombatPhase"
	default:
		return "NoPhase"
	}
}

// Correlator snapshots health at phase boundaries and attributes hero
// damage by diffing snapshots across turns. One correlator serves one
// match; the tracker builds a fresh one per match start.
type Correlator struct {
	game  hostapi.GameState
	store *turns.Store

	phase           PhaseState
	engagedOpponent string
	triplesCreated  int
}

// New builds a correlator over the given store.
func New(game hostapi.GameState, store *turns.Store) *Correlator {
	return &Correlator{game: game, store: store}
}

// Phase returns the current inferred phase.
func (c *Correlator) Phase() PhaseState {
	return c.phase
}

// TriplesCreated is the latest triples count read off the player entity.
func (c *Correlator) TriplesCreated() int {
	return c.triplesCreated
}

// OnTurnStart handles one turn-boundary event from the host feed. Events
// arrive in non-decreasing turn order; the correlator never reorders.
func (c *Correlator) OnTurnStart(active hostapi.ActiveSide) {
	turn := c.game.TurnNumber()
	phase := turns.PlayerTurn
	if active == hostapi.SideOpponent {
		phase = turns.OpponentTurn
	}

	record := c.store.GetOrCreate(turn, phase)
	if c.phase == NoPhase && active == hostapi.SidePlayer {
		c.phase = ShopPhase
	}

	entities := c.game.Entities()
	snaps := turns.Snapshots(entities)
	record.PlayerHealths = snaps

	if phase == turns.OpponentTurn {
		record.CapturePreCombatHealth(snaps)
	}

	player, ok := c.game.PlayerEntity()
	if ok {
		if next := player.GetTag(hostapi.TagNextOpponentPlayerID); next > 0 {
			record.OpponentID = strconv.Itoa(next)
		}

		// Resource counters are only meaningful during our own sub-phase;
		// the opponent sub-phase would report mid-combat garbage.
		if phase == turns.PlayerTurn {
			record.MinionsPlayedThisTurn = player.GetTag(hostapi.TagMinionsPlayedThisTurn)
			record.SpellsPlayedThisGame = player.GetTag(hostapi.TagSpellsPlayedThisGame)
			record.ResourcesSpentThisGame = player.GetTag(hostapi.TagResourcesSpentThisGame)
			if tier := player.GetTag(hostapi.TagTechLevel); tier > 0 {
				record.TavernTier = tier
			}
		}

		c.triplesCreated = player.GetTag(hostapi.TagTriples)
	}

	c.attributeDamage(turn, record)
	c.Observe()
}

// attributeDamage folds the combat that ended at this snapshot onto the
// previous turn's record, diffing that turn's frozen pre-combat snapshot
// against the current one.
func (c *Correlator) attributeDamage(turn int, record *turns.TurnRecord) {
	if prev, ok := c.store.ByTurn(turn - 1); ok {
		c.attributeBetween(prev, record.PlayerHealths)
	}
}

// attributeBetween writes the hero-damage delta for prev's combat, measured
// between prev's pre-combat snapshot and the given later snapshot. It needs
// prev's frozen snapshot, the opponent identity recorded back then, and
// both identities present in the later snapshot; if any of the four health
// entries is missing the attribution is skipped silently rather than
// stamping a destructive zero.
func (c *Correlator) attributeBetween(prev *turns.TurnRecord, current []turns.HealthSnapshot) {
	if prev == nil || len(prev.PreCombatHealths) == 0 || prev.OpponentID == "" {
		return
	}

	player, ok := c.game.PlayerEntity()
	if !ok {
		return
	}
	selfID := strconv.Itoa(player.GetTag(hostapi.TagPlayerID))

	ourPrev, ok1 := turns.FindPlayer(prev.PreCombatHealths, selfID)
	ourNow, ok2 := turns.FindPlayer(current, selfID)
	theirPrev, ok3 := turns.FindPlayer(prev.PreCombatHealths, prev.OpponentID)
	theirNow, ok4 := turns.FindPlayer(current, prev.OpponentID)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		log.Printf("[correlate] turn %d: incomplete health info, skipping damage attribution", prev.Turn)
		return
	}

	ourDiff := ourPrev.TotalHealth() - ourNow.TotalHealth()
	theirDiff := theirPrev.TotalHealth() - theirNow.TotalHealth()

	switch {
	case theirDiff > 0:
		prev.HeroDamage = theirDiff
		log.Printf("[correlate] turn %d: dealt %d damage to opponent %s", prev.Turn, theirDiff, prev.OpponentID)
	case ourDiff > 0:
		prev.HeroDamage = -ourDiff
		log.Printf("[correlate] turn %d: took %d damage from opponent %s", prev.Turn, ourDiff, prev.OpponentID)
	default:
		prev.HeroDamage = 0
	}
}

// Observe re-evaluates the inferred combat condition and drives the shop
// and combat transitions. Called from OnTurnStart and safe to call from a
// periodic poll as well.
func (c *Correlator) Observe() {
	entities := c.game.Entities()
	inCombat := c.combatCondition(entities)

	switch {
	case c.phase != CombatPhase && inCombat:
		c.phase = CombatPhase
		c.enterCombat(entities)
	case c.phase == CombatPhase && !inCombat:
		c.phase = ShopPhase
		c.leaveCombat()
	}
}

// combatCondition is the indirect "combat is running" signal: the game step
// is main-combat, a live opponent hero that is not the shop host exists,
// and at least one minion sits on either board.
func (c *Correlator) combatCondition(entities []hostapi.Entity) bool {
	selfID := 0
	if player, ok := c.game.PlayerEntity(); ok {
		selfID = player.GetTag(hostapi.TagPlayerID)
	}

	step := false
	opponentHero := false
	minionInPlay := false
	for _, e := range entities {
		if e.GetTag(hostapi.TagStep) == hostapi.StepMainCombat {
			step = true
		}
		if e.Kind == hostapi.KindHero && e.InPlay {
			pid := e.GetTag(hostapi.TagPlayerID)
			if pid != hostapi.BobPlayerID && pid != selfID {
				opponentHero = true
			}
		}
		if e.Kind == hostapi.KindMinion && e.InPlay {
			minionInPlay = true
		}
	}
	return step && opponentHero && minionInPlay
}

// enterCombat snapshots health for the record about to need it and latches
// the opponent actually engaged, which is trustworthy only now that a real
// opponent hero is in play.
func (c *Correlator) enterCombat(entities []hostapi.Entity) {
	record, ok := c.store.Last()
	if !ok {
		return
	}

	record.CapturePreCombatHealth(turns.Snapshots(entities))

	selfID := 0
	if player, ok := c.game.PlayerEntity(); ok {
		selfID = player.GetTag(hostapi.TagPlayerID)
	}
	for _, e := range entities {
		if e.Kind != hostapi.KindHero || !e.InPlay {
			continue
		}
		pid := e.GetTag(hostapi.TagPlayerID)
		if pid != hostapi.BobPlayerID && pid != selfID {
			c.engagedOpponent = strconv.Itoa(pid)
			if record.OpponentID == "" {
				record.OpponentID = c.engagedOpponent
			}
			break
		}
	}
	log.Printf("[correlate] combat started (turn %d, opponent %s)", record.Turn, c.engagedOpponent)
}

// leaveCombat folds the damage accrued during the window that just closed
// onto the turn it belongs to, using a fresh snapshot. The next turn-start
// recomputes the same delta from its own snapshot, which lands on the same
// value.
func (c *Correlator) leaveCombat() {
	record, ok := c.store.Last()
	if !ok {
		return
	}
	log.Printf("[correlate] combat ended (turn %d)", record.Turn)
	c.attributeBetween(record, turns.Snapshots(c.game.Entities()))
}
