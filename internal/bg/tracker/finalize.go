package tracker

import (
	"context"
	"log"
	"sort"

	"github.com/hiloapp/bg-companion/internal/bg/hostapi"
	"github.com/hiloapp/bg-companion/internal/bg/record"
	"github.com/hiloapp/bg-companion/internal/events"
)

// resolvePlacement works down a fallback chain: the leaderboard place on
// any entity carrying our player id, then the place on our own player
// entity, then one past the count of opponents still alive and not
// conceded. Called with t.mu held.
func (t *Tracker) resolvePlacement(entities []hostapi.Entity) int {
	selfID := 0
	var selfEntity hostapi.Entity
	var haveSelf bool
	if player, ok := t.game.PlayerEntity(); ok {
		selfID = player.GetTag(hostapi.TagPlayerID)
		selfEntity = player
		haveSelf = true
	}

	if selfID != 0 {
		for _, e := range entities {
			if e.GetTag(hostapi.TagPlayerID) != selfID {
				continue
			}
			if place := e.GetTag(hostapi.TagLeaderboardPlace); place > 0 {
				return place
			}
		}
	}

	if haveSelf {
		if place := selfEntity.GetTag(hostapi.TagLeaderboardPlace); place > 0 {
			return place
		}
	}

	// We are the player who just died, so everyone still standing
	// finished ahead of us.
	alive := 0
	for _, e := range hostapi.LeaderboardEntities(entities) {
		if e.GetTag(hostapi.TagPlayerID) == selfID {
			continue
		}
		if e.GetTag(hostapi.TagHealth) <= e.GetTag(hostapi.TagDamage) {
			continue
		}
		if e.GetTag(hostapi.TagPlayState) == hostapi.PlayStateConceded {
			continue
		}
		alive++
	}
	log.Printf("[tracker] no leaderboard place available, derived placement from %d living opponents", alive)
	return alive + 1
}

// captureFinalBoard snapshots our minions in board order with their
// keyword flags and attached enchantments. Called with t.mu held.
func (t *Tracker) captureFinalBoard(entities []hostapi.Entity) []record.BoardMinion {
	selfID := 0
	if player, ok := t.game.PlayerEntity(); ok {
		selfID = player.GetTag(hostapi.TagPlayerID)
	}
	if selfID == 0 {
		return nil
	}

	var minions []hostapi.Entity
	for _, e := range entities {
		if e.Kind == hostapi.KindMinion && e.InPlay && e.ControlledBy(selfID) {
			minions = append(minions, e)
		}
	}
	sort.Slice(minions, func(i, j int) bool {
		return minions[i].GetTag(hostapi.TagZonePosition) < minions[j].GetTag(hostapi.TagZonePosition)
	})

	board := make([]record.BoardMinion, 0, len(minions))
	for _, m := range minions {
		bm := record.BoardMinion{
			CardID:      m.CardID,
			Name:        m.Name,
			Attack:      m.GetTag(hostapi.TagAttack),
			Health:      m.GetTag(hostapi.TagHealth) - m.GetTag(hostapi.TagDamage),
			IsTaunt:     m.HasTag(hostapi.TagTaunt),
			IsDivine:    m.HasTag(hostapi.TagDivineShield),
			IsReborn:    m.HasTag(hostapi.TagReborn),
			IsPoisonous: m.HasTag(hostapi.TagPoisonous),
			IsVenomous:  m.HasTag(hostapi.TagVenomous),
		}
		for _, e := range entities {
			if e.Kind == hostapi.KindEnchantment && e.GetTag(hostapi.TagAttached) == m.ID {
				bm.Enchantments = append(bm.Enchantments, e.CardID)
			}
		}
		board = append(board, bm)
	}
	return board
}

// finalize runs the deferred finalization steps and emits the record.
// Each step is individually guarded: a failure or a superseding match
// start degrades that step, it never discards the data already captured.
// The generation check happens inside the same critical section as the
// mutation it guards, so a match start landing between the sleep and the
// lock acquisition is still detected before anything of the new match is
// touched.
func (t *Tracker) finalize(gen, placement int, board []record.BoardMinion, triples int) {
	// The game client flushes its last combat lines shortly after the
	// final screen; parse once more so the closing simulation and
	// validation results attach.
	t.sleep(t.opts.TrailingParseDelay)
	t.mu.Lock()
	if t.session.generation != gen {
		t.mu.Unlock()
		log.Printf("[tracker] generation %d superseded, abandoning finalization", gen)
		return
	}
	if t.parser != nil {
		t.parser.Parse(t.store)
	}
	t.mu.Unlock()

	// The host writes its own match history a few seconds after the
	// match ends. Read the last entry once it has settled.
	t.sleep(t.opts.SettleDelay)
	t.mu.Lock()
	if t.session.generation != gen {
		t.mu.Unlock()
		log.Printf("[tracker] generation %d superseded, abandoning finalization", gen)
		return
	}
	if games := t.game.RecentGames(); len(games) > 0 {
		last := games[len(games)-1]
		t.session.startingRating = last.Rating
		t.session.finalRating = last.RatingAfter
	} else {
		log.Printf("[tracker] no match history after settle delay, rating delta unavailable")
		t.session.finalRating = t.session.startingRating
	}
	rec := t.assembleRecord(placement, board, triples)
	t.store.Clear()
	t.state = Idle
	t.mu.Unlock()

	ctx := context.Background()
	for _, s := range t.sinks {
		if err := s.Emit(ctx, rec); err != nil {
			log.Printf("[tracker] sink %s failed: %v", s.Name(), err)
		}
	}

	t.dispatcher.Dispatch(events.Event{
		Type: events.TypeMatchRecorded,
		Data: events.MatchRecordedEvent{
			Placement: rec.Placement,
			MMRDelta:  rec.MMRGained,
			Turns:     len(rec.Turns),
		},
		Context: ctx,
	})
}

// assembleRecord builds the immutable record from the session and the
// turn store. Missing identity fields fall back to placeholders rather
// than failing the emission. Called with t.mu held.
func (t *Tracker) assembleRecord(placement int, board []record.BoardMinion, triples int) *record.MatchRecord {
	name := t.game.PlayerName()
	if name == "" {
		name = "Unknown"
	}
	heroID, heroName := t.session.heroID, t.session.heroName
	if hero, ok := t.game.PlayerHero(); ok && heroID == "" {
		heroID, heroName = hero.ID, hero.Name
	}
	if heroID == "" {
		heroID, heroName = "Unknown", "Unknown"
	}
	anomalyID, anomalyName := t.session.anomalyID, t.session.anomalyName
	if anomalyID == "" {
		anomalyID, anomalyName = "None", "None"
	}

	end := t.now()
	return &record.MatchRecord{
		PlayerIdentifier:      name,
		Placement:             placement,
		StartingMMR:           t.session.startingRating,
		FinalMMR:              t.session.finalRating,
		MMRGained:             t.session.finalRating - t.session.startingRating,
		GameDurationInSeconds: int(end.Sub(t.session.startedAt).Seconds()),
		GameEndDate:           record.EndDate(end),
		HeroPlayed:            heroID,
		HeroPlayedName:        heroName,
		AnomalyID:             anomalyID,
		AnomalyName:           anomalyName,
		TriplesCreated:        triples,
		Region:                t.game.Region().String(),
		FinalBoard:            board,
		Turns:                 t.store.All(),
	}
}
