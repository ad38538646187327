package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiloapp/bg-companion/internal/bg/turns"
)

func TestToSubmission(t *testing.T) {
	tr := turns.NewTurnRecord(8, turns.OpponentTurn)
	tr.OpponentID = "4"
	tr.HeroDamage = -12
	tr.WinRate = 38.5
	tr.TieRate = 11
	tr.LossRate = 50.5
	tr.ActualCombatResult = turns.CombatLoss
	tr.ActualLethalResult = turns.FriendlyDied
	tr.MinionsPlayedThisTurn = 2
	tr.ResourcesSpentThisGame = 54
	tr.TavernTier = 5

	m := &MatchRecord{
		PlayerIdentifier: "PlayerOne#1234",
		Placement:        5,
		StartingMMR:      6000,
		MMRGained:        -37,
		HeroPlayed:       "HERO_X",
		Region:           "AP",
		FinalBoard: []BoardMinion{
			{CardID: "BGS_045", Attack: 7, Health: 3, IsDivine: true, IsPoisonous: true},
			{CardID: "BGS_112", Attack: 10, Health: 10},
		},
		Turns: []*turns.TurnRecord{tr},
	}

	sub := m.ToSubmission()

	assert.Equal(t, "REGION_AP", sub.Server)
	assert.Equal(t, "PlayerOne#1234", sub.PlayerIdentifier)
	assert.Equal(t, -37, sub.MMRGained)

	require.Len(t, sub.Turns, 1)
	st := sub.Turns[0]
	assert.Equal(t, 8, st.Turn)
	assert.Equal(t, "4", st.OpponentID)
	assert.Equal(t, -12, st.HeroDamage)
	assert.Equal(t, 38.5, st.WinOdds)
	assert.Equal(t, "Loss", st.ActualCombatResult)
	assert.Equal(t, 5, st.TavernTier)

	require.Len(t, sub.FinalComp.Board, 2)
	first := sub.FinalComp.Board[0]
	assert.Equal(t, 10000, first.ID)
	assert.Equal(t, 7, first.Tags["ATK"])
	assert.Equal(t, 1, first.Tags["DIVINE_SHIELD"])
	assert.Equal(t, 1, first.Tags["POISONOUS"])
	assert.Equal(t, 0, first.Tags["TAUNT"])
	assert.Equal(t, 10001, sub.FinalComp.Board[1].ID)
}

func TestEndDate(t *testing.T) {
	ts := time.Date(2026, 3, 1, 18, 22, 7, 120_000_000, time.UTC)
	assert.Equal(t, "2026-03-01 18:22:07.12", EndDate(ts))
}
