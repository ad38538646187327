// Package hostapi defines the read-only surface the tracker consumes from
// the host game client. The host itself (entity model, plugin ABI, overlay)
// lives outside this module; these types are the contract it is adapted to.
package hostapi

// Tag identifies a numeric attribute on a game entity. Values mirror the
// host's tag ids but only the tags the tracker reads are named here.
type Tag int

const (
	TagPlayerID Tag = iota + 1
	TagHealth
	TagArmor
	TagDamage
	TagLeaderboardPlace
	TagTriples
	TagTechLevel
	TagMinionsPlayedThisTurn
	TagSpellsPlayedThisGame
	TagResourcesSpentThisGame
	TagNextOpponentPlayerID
	TagZonePosition
	TagAttack
	TagTaunt
	TagDivineShield
	TagReborn
	TagPoisonous
	TagVenomous
	TagAttached
	TagController
	TagPlayState
	TagStep
)

// EntityKind classifies an entity for the queries the tracker performs.
type EntityKind int

const (
	KindUnknown EntityKind = iota
	KindPlayer
	KindHero
	KindMinion
	KindEnchantment
)

// Step values observed on the game entity's TagStep.
const (
	StepMainCombat = 9
)

// PlayState values observed on player entities.
const (
	PlayStatePlaying  = 1
	PlayStateConceded = 4
)

// BobPlayerID is the player id of the shop host. A hero entity carrying it
// is the environment's placeholder, never a real opponent.
const BobPlayerID = 0

// Entity is a point-in-time view of one in-game entity.
type Entity struct {
	ID       int
	CardID   string
	Name     string
	Kind     EntityKind
	IsPlayer bool
	InPlay   bool
	Tags     map[Tag]int
}

// GetTag returns the tag value, zero when absent.
func (e Entity) GetTag(t Tag) int {
	return e.Tags[t]
}

// HasTag reports whether the tag is present with a non-zero value.
func (e Entity) HasTag(t Tag) bool {
	return e.Tags[t] != 0
}

// ControlledBy reports whether the entity's controller tag matches id.
func (e Entity) ControlledBy(id int) bool {
	return e.GetTag(TagController) == id
}

// Card is the minimal card view delivered with entity-created events.
type Card struct {
	ID   string
	Name string
	Type string
}

// CardTypeAnomaly is the card type string the host assigns to match-wide
// anomaly cards.
const CardTypeAnomaly = "Battleground_Anomaly"

// ActiveSide indicates which side a turn-start event belongs to.
type ActiveSide int

const (
	SidePlayer ActiveSide = iota
	SideOpponent
)

func (s ActiveSide) String() string {
	if s == SidePlayer {
		return "Player"
	}
	return "Opponent"
}

// GameMode identifies the match mode reported by the host.
type GameMode int

const (
	ModeUnknown GameMode = iota
	ModeBattlegrounds
	ModeOther
)

// Region is the host's server region.
type Region int

const (
	RegionUS Region = iota
	RegionEU
	RegionAP
)

// String maps the region enum onto the strings the emitted record carries.
// Anything that is not US or EU reports as AP.
func (r Region) String() string {
	switch r {
	case RegionUS:
		return "US"
	case RegionEU:
		return "EU"
	default:
		return "AP"
	}
}

// RatingGame is one entry from the host's own match history, carrying the
// rating before and after that match.
type RatingGame struct {
	Rating      int
	RatingAfter int
}

// MatchStats is the host's generic current-match statistics block, used as
// a fallback rating source when the dedicated accessor is unavailable.
type MatchStats struct {
	Rating      int
	RatingAfter int
}

// GameState is the live query surface the host exposes. All methods are
// snapshots of current state; none block.
type GameState interface {
	// TurnNumber is the current 1-based turn.
	TurnNumber() int

	// Mode is the mode of the match in progress (or last seen).
	Mode() GameMode

	// Region is the server region of the current session.
	Region() Region

	// PlayerName is the local player's display name.
	PlayerName() string

	// PlayerEntity returns the local player's player entity, if present.
	PlayerEntity() (Entity, bool)

	// PlayerHero returns the local player's current hero card, if known.
	PlayerHero() (Card, bool)

	// Entities returns a snapshot of all entities the host currently tracks.
	Entities() []Entity

	// RatingInfo is the host's dedicated rating accessor. ok is false when
	// the host has not populated it yet (expected before the first match
	// of a session completes).
	RatingInfo() (rating int, ok bool)

	// CurrentStats is the generic match-stats fallback for the rating.
	CurrentStats() (MatchStats, bool)

	// RecentGames lists the host's completed-match history, most recent
	// last. Used after the settle delay to read the rating delta.
	RecentGames() []RatingGame
}

// LeaderboardEntities filters a snapshot down to the entities still on the
// match leaderboard (one per seated player).
func LeaderboardEntities(entities []Entity) []Entity {
	var out []Entity
	for _, e := range entities {
		if e.HasTag(TagLeaderboardPlace) {
			out = append(out, e)
		}
	}
	return out
}
