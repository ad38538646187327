package turns

import "github.com/hiloapp/bg-companion/internal/bg/hostapi"

// HealthSnapshot captures one player's health state at a point in time.
// Snapshots are value types; a new one is taken, never mutated.
type HealthSnapshot struct {
	PlayerID string `json:"playerId"`
	Health   int    `json:"health"`
	Armor    int    `json:"armor"`
	Damage   int    `json:"damage"`
}

// TotalHealth is the effective health the attribution diff operates on.
func (s HealthSnapshot) TotalHealth() int {
	return s.Health + s.Armor - s.Damage
}

// Snapshots produces one HealthSnapshot per leaderboard player found in the
// entity list. Missing or empty input yields an empty result, not an error.
func Snapshots(entities []hostapi.Entity) []HealthSnapshot {
	var snaps []HealthSnapshot
	for _, e := range hostapi.LeaderboardEntities(entities) {
		snaps = append(snaps, snapshotOf(e))
	}
	return snaps
}

func snapshotOf(e hostapi.Entity) HealthSnapshot {
	return HealthSnapshot{
		PlayerID: playerIDString(e.GetTag(hostapi.TagPlayerID)),
		Health:   e.GetTag(hostapi.TagHealth),
		Armor:    e.GetTag(hostapi.TagArmor),
		Damage:   e.GetTag(hostapi.TagDamage),
	}
}

// FindPlayer returns the snapshot for the given player id, if present.
func FindPlayer(snaps []HealthSnapshot, playerID string) (HealthSnapshot, bool) {
	for _, s := range snaps {
		if s.PlayerID == playerID {
			return s, true
		}
	}
	return HealthSnapshot{}, false
}
