// Package record defines the consolidated match record emitted once per
// completed match, plus the renamed-field variant the submission endpoint
// expects.
package record

import (
	"time"

	"github.com/hiloapp/bg-companion/internal/bg/turns"
)

// BoardMinion is one minion snapshot from the final board.
type BoardMinion struct {
	CardID       string   `json:"cardId"`
	Name         string   `json:"name"`
	Attack       int      `json:"attack"`
	Health       int      `json:"health"`
	IsTaunt      bool     `json:"isTaunt"`
	IsDivine     bool     `json:"isDivineShield"`
	IsReborn     bool     `json:"isReborn"`
	IsPoisonous  bool     `json:"isPoisonous"`
	IsVenomous   bool     `json:"isVenomous"`
	Enchantments []string `json:"enchantments"`
}

// MatchRecord is the artifact assembled at match end. Immutable once
// emitted.
type MatchRecord struct {
	PlayerIdentifier      string              `json:"playerIdentifier"`
	Placement             int                 `json:"placement"`
	StartingMMR           int                 `json:"startingMmr"`
	FinalMMR              int                 `json:"finalMmr"`
	MMRGained             int                 `json:"mmrGained"`
	GameDurationInSeconds int                 `json:"gameDurationInSeconds"`
	GameEndDate           string              `json:"gameEndDate"`
	HeroPlayed            string              `json:"heroPlayed"`
	HeroPlayedName        string              `json:"heroPlayedName"`
	AnomalyID             string              `json:"anomalyId"`
	AnomalyName           string              `json:"anomalyName"`
	TriplesCreated        int                 `json:"triplesCreated"`
	Region                string              `json:"region"`
	FinalBoard            []BoardMinion       `json:"finalBoard"`
	Turns                 []*turns.TurnRecord `json:"turns"`
}

// EndDateFormat is the timestamp layout used in GameEndDate.
const EndDateFormat = "2006-01-02 15:04:05.00"

// SubmissionTurn is the renamed-field per-turn shape the remote endpoint
// consumes.
type SubmissionTurn struct {
	Turn                      int     `json:"turn"`
	OpponentID                string  `json:"opponentId,omitempty"`
	HeroDamage                int     `json:"heroDamage"`
	WinOdds                   float64 `json:"winOdds"`
	TieOdds                   float64 `json:"tieOdds"`
	LossOdds                  float64 `json:"lossOdds"`
	ActualCombatResult        string  `json:"actualCombatResult,omitempty"`
	ActualLethalResult        string  `json:"actualLethalResult,omitempty"`
	NumMinionsPlayedThisTurn  int     `json:"numMinionsPlayedThisTurn"`
	NumSpellsPlayedThisGame   int     `json:"numSpellsPlayedThisGame"`
	NumResourcesSpentThisGame int     `json:"numResourcesSpentThisGame"`
	TavernTier                int     `json:"tavernTier"`
}

// SubmissionMinion carries a board minion as a card id plus a tag map.
type SubmissionMinion struct {
	CardID string         `json:"cardID"`
	ID     int            `json:"id"`
	Tags   map[string]int `json:"tags"`
}

// SubmissionComp is the final-board wrapper in the submission shape.
type SubmissionComp struct {
	Board []SubmissionMinion `json:"board"`
}

// Submission is the transformed variant POSTed to the collection endpoint.
type Submission struct {
	PlayerIdentifier      string           `json:"playerIdentifier"`
	Placement             int              `json:"placement"`
	StartingMMR           int              `json:"startingMmr"`
	MMRGained             int              `json:"mmrGained"`
	GameDurationInSeconds int              `json:"gameDurationInSeconds"`
	GameEndDate           string           `json:"gameEndDate"`
	HeroPlayed            string           `json:"heroPlayed"`
	HeroPlayedName        string           `json:"heroPlayedName"`
	TriplesCreated        int              `json:"triplesCreated"`
	Server                string           `json:"server"`
	Turns                 []SubmissionTurn `json:"turns"`
	FinalComp             SubmissionComp   `json:"finalComp"`
}

// ToSubmission transforms the record into the endpoint's shape: lower-camel
// field names, a REGION_-prefixed server string, and the board flattened
// into tag maps.
func (m *MatchRecord) ToSubmission() Submission {
	sub := Submission{
		PlayerIdentifier:      m.PlayerIdentifier,
		Placement:             m.Placement,
		StartingMMR:           m.StartingMMR,
		MMRGained:             m.MMRGained,
		GameDurationInSeconds: m.GameDurationInSeconds,
		GameEndDate:           m.GameEndDate,
		HeroPlayed:            m.HeroPlayed,
		HeroPlayedName:        m.HeroPlayedName,
		TriplesCreated:        m.TriplesCreated,
		Server:                "REGION_" + m.Region,
	}

	for _, t := range m.Turns {
		sub.Turns = append(sub.Turns, SubmissionTurn{
			Turn:                      t.Turn,
			OpponentID:                t.OpponentID,
			HeroDamage:                t.HeroDamage,
			WinOdds:                   t.WinRate,
			TieOdds:                   t.TieRate,
			LossOdds:                  t.LossRate,
			ActualCombatResult:        string(t.ActualCombatResult),
			ActualLethalResult:        string(t.ActualLethalResult),
			NumMinionsPlayedThisTurn:  t.MinionsPlayedThisTurn,
			NumSpellsPlayedThisGame:   t.SpellsPlayedThisGame,
			NumResourcesSpentThisGame: t.ResourcesSpentThisGame,
			TavernTier:                t.TavernTier,
		})
	}

	for i, minion := range m.FinalBoard {
		sub.FinalComp.Board = append(sub.FinalComp.Board, SubmissionMinion{
			CardID: minion.CardID,
			ID:     10000 + i,
			Tags: map[string]int{
				"ATK":           minion.Attack,
				"HEALTH":        minion.Health,
				"TAUNT":         boolTag(minion.IsTaunt),
				"DIVINE_SHIELD": boolTag(minion.IsDivine),
				"REBORN":        boolTag(minion.IsReborn),
				"POISONOUS":     boolTag(minion.IsPoisonous),
				"VENOMOUS":      boolTag(minion.IsVenomous),
			},
		})
	}
	return sub
}

func boolTag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EndDate formats a timestamp the way GameEndDate stores it.
func EndDate(t time.Time) string {
	return t.Format(EndDateFormat)
}
