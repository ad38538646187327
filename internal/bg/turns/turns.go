// Package turns holds the per-turn record model and the ordered store the
// correlator and log parser both write into over the course of a match.
package turns

import (
	"strconv"
	"sync"
)

// Phase is the sub-phase that most recently touched a turn record.
type Phase int

const (
	PlayerTurn Phase = iota
	OpponentTurn
)

func (p Phase) String() string {
	if p == PlayerTurn {
		return "PlayerTurn"
	}
	return "OpponentTurn"
}

// MarshalText emits the phase name into the JSON record.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText restores a phase from its name. Needed when archived
// records are read back.
func (p *Phase) UnmarshalText(text []byte) error {
	if string(text) == "OpponentTurn" {
		*p = OpponentTurn
	} else {
		*p = PlayerTurn
	}
	return nil
}

// CombatResult is the validated outcome of a combat, parsed from the log.
// The empty string means the outcome was never observed.
type CombatResult string

const (
	CombatWin  CombatResult = "Win"
	CombatLoss CombatResult = "Loss"
	CombatTie  CombatResult = "Tie"
)

// LethalResult describes whether a combat killed either hero.
type LethalResult string

const (
	NoOneDied    LethalResult = "NoOneDied"
	OpponentDied LethalResult = "OpponentDied"
	FriendlyDied LethalResult = "FriendlyDied"
)

// SimulationData carries the five rates from one simulation-result log line.
type SimulationData struct {
	WinRate        float64
	TheirDeathRate float64
	TieRate        float64
	LossRate       float64
	MyDeathRate    float64
}

// CombatResultData carries the outcome keywords from one validation line.
type CombatResultData struct {
	Result       CombatResult
	LethalResult LethalResult
}

// TurnRecord accumulates everything observed about a single turn. Fields
// are filled in progressively: the correlator writes health, counters and
// damage; the log parser back-fills simulation and combat outcomes.
type TurnRecord struct {
	Turn       int    `json:"turn"`
	Phase      Phase  `json:"phase"`
	OpponentID string `json:"opponentId,omitempty"`

	// HeroDamage is signed: positive when we damaged the opponent's hero,
	// negative when we took damage, zero for a tie or an unmeasured combat.
	HeroDamage int `json:"heroDamage"`

	WinRate              float64 `json:"winRate"`
	TieRate              float64 `json:"tieRate"`
	LossRate             float64 `json:"lossRate"`
	TheirDeathRate       float64 `json:"theirDeathRate"`
	MyDeathRate          float64 `json:"myDeathRate"`
	HasSimulationResults bool    `json:"hasSimulationResults"`

	ActualCombatResult CombatResult `json:"actualCombatResult,omitempty"`
	ActualLethalResult LethalResult `json:"actualLethalResult,omitempty"`
	HasCombatResults   bool         `json:"hasCombatResults"`

	MinionsPlayedThisTurn  int `json:"numMinionsPlayedThisTurn"`
	SpellsPlayedThisGame   int `json:"numSpellsPlayedThisGame"`
	ResourcesSpentThisGame int `json:"numResourcesSpentThisGame"`
	TavernTier             int `json:"tavernTier"`

	// PreCombatHealths is captured once, when the opponent sub-phase for
	// this turn begins, and feeds the next turn's damage attribution.
	PreCombatHealths []HealthSnapshot `json:"-"`

	// PlayerHealths is the latest leaderboard snapshot, refreshed on every
	// turn-start event that touches this record.
	PlayerHealths []HealthSnapshot `json:"-"`
}

// NewTurnRecord constructs a record with this module's numeric defaults.
func NewTurnRecord(turn int, phase Phase) *TurnRecord {
	return &TurnRecord{
		Turn:       turn,
		Phase:      phase,
		TavernTier: 1,
	}
}

// UpdateSimulationResults applies one simulation line's rates. Applying the
// same data twice leaves the record unchanged (last-writer-wins).
func (t *TurnRecord) UpdateSimulationResults(sim SimulationData) {
	t.WinRate = sim.WinRate
	t.TheirDeathRate = sim.TheirDeathRate
	t.TieRate = sim.TieRate
	t.LossRate = sim.LossRate
	t.MyDeathRate = sim.MyDeathRate
	t.HasSimulationResults = true
}

// UpdateCombatResults applies one validation line's outcome keywords.
func (t *TurnRecord) UpdateCombatResults(combat CombatResultData) {
	t.ActualCombatResult = combat.Result
	t.ActualLethalResult = combat.LethalResult
	t.HasCombatResults = true
}

// CapturePreCombatHealth stores the snapshot the next turn's attribution
// will diff against. Only the opponent sub-phase captures, and only once;
// later calls for the same turn are no-ops so the snapshot stays frozen.
func (t *TurnRecord) CapturePreCombatHealth(snaps []HealthSnapshot) {
	if t.Phase != OpponentTurn || len(t.PreCombatHealths) > 0 {
		return
	}
	t.PreCombatHealths = append([]HealthSnapshot(nil), snaps...)
}

// Clone returns a deep copy of the record. The health slices are copied so
// the clone can be read or marshaled while the original keeps changing.
func (t *TurnRecord) Clone() *TurnRecord {
	c := *t
	c.PreCombatHealths = append([]HealthSnapshot(nil), t.PreCombatHealths...)
	c.PlayerHealths = append([]HealthSnapshot(nil), t.PlayerHealths...)
	return &c
}

// Store is the ordered, by-turn-number collection of TurnRecords for the
// match in flight. One logical match is processed at a time, but the event
// feed and deferred parse tasks may touch the store from different
// goroutines, so all access goes through the mutex.
type Store struct {
	mu      sync.Mutex
	records []*TurnRecord
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// GetOrCreate returns the record for the given turn, updating its phase,
// or appends a fresh one. Turn numbers are never duplicated.
func (s *Store) GetOrCreate(turn int, phase Phase) *TurnRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Turn == turn {
			r.Phase = phase
			return r
		}
	}
	r := NewTurnRecord(turn, phase)
	s.records = append(s.records, r)
	return r
}

// ByTurn returns the record for the given turn number, if present.
func (s *Store) ByTurn(turn int) (*TurnRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Turn == turn {
			return r, true
		}
	}
	return nil, false
}

// Last returns the most recently appended record, if any.
func (s *Store) Last() (*TurnRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return nil, false
	}
	return s.records[len(s.records)-1], true
}

// All returns the records in append order. The slice is a copy; the records
// themselves are shared.
func (s *Store) All() []*TurnRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*TurnRecord(nil), s.records...)
}

// Len reports the number of turns recorded so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear empties the store. Called only at match boundaries: a new match
// start, or after the finished record has been emitted.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

func playerIDString(id int) string {
	return strconv.Itoa(id)
}
