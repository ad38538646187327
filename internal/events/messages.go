package events

// Event type names dispatched by the tracker.
const (
	TypeMatchStarted  = "match:started"
	TypeTurnUpdated   = "turn:updated"
	TypePhaseChanged  = "phase:changed"
	TypeMatchRecorded = "match:recorded"
)

// MatchStartedEvent is the payload for match:started events.
type MatchStartedEvent struct {
	HeroID   string `json:"heroId"`
	HeroName string `json:"heroName"`
	Region   string `json:"region"`
}

// TurnUpdatedEvent is the payload for turn:updated events, sent whenever a
// turn-start event has been folded into the store.
type TurnUpdatedEvent struct {
	Turn       int    `json:"turn"`
	Phase      string `json:"phase"`
	OpponentID string `json:"opponentId,omitempty"`
	HeroDamage int    `json:"heroDamage"`
}

// PhaseChangedEvent is the payload for phase:changed events.
type PhaseChangedEvent struct {
	Turn  int    `json:"turn"`
	Phase string `json:"phase"`
}

// MatchRecordedEvent is the payload for match:recorded events, sent once
// the final record has been assembled and emitted.
type MatchRecordedEvent struct {
	Placement int `json:"placement"`
	MMRDelta  int `json:"mmrDelta"`
	Turns     int `json:"turns"`
}
