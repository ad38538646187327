package logtail

import "regexp"

// The log grammar is a semi-stable external protocol owned by the host
// tracker. Every pattern the parser recognizes lives here so the grammar
// can drift without touching the correlation logic; the exact sample
// lines are pinned by the package tests.
var (
	// gameStartMarker delimits matches within the same log file. Parsing
	// never crosses backwards over it.
	gameStartMarker = "GameEventHandler.HandleGameStart >> --- Game start ---"

	// turnMarkerRegex tracks the rolling current-turn counter.
	turnMarkerRegex = regexp.MustCompile(`OnTurnStart - Turn (\d+)`)

	// opponentSnapshotRegex yields the opponent display name and numeric
	// player id for the upcoming combat.
	opponentSnapshotRegex = regexp.MustCompile(`BattlegroundsBoardState\.SnapshotCurrentBoard >> Snapshotting board state for (.*?) with player id (\d+)`)

	// simulationStartMarker precedes each simulation run; counted per turn
	// for the parse report.
	simulationStartMarker = "BobsBuddyInvoker.RunAndDisplaySimulationAsync >> Running simulation"

	// simulationResultRegex extracts the five rates: win, their-lethal,
	// tie, loss, my-lethal.
	simulationResultRegex = regexp.MustCompile(`WinRate=(\d+(?:\.\d+)?)% \(Lethal=(\d+(?:\.\d+)?)%\), TieRate=(\d+(?:\.\d+)?)%, LossRate=(\d+(?:\.\d+)?)% \(Lethal=(\d+(?:\.\d+)?)%\)`)

	// combatValidationRegex extracts the validated outcome keywords.
	combatValidationRegex = regexp.MustCompile(`BobsBuddyInvoker\.ValidateSimulationResultAsync >> result=(\w+), lethalResult=(\w+)`)
)
