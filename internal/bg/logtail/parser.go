package logtail

import (
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/hiloapp/bg-companion/internal/bg/turns"
)

// Parser merges facts scraped from the log tail into a turn record store.
// It is safe to run the same window through Parse repeatedly: the log is
// append-only and monotonic, so re-applying a line the store has already
// seen produces the same field values.
type Parser struct {
	tail *TailReader

	// currentTurn seeds the rolling turn counter from the host's live turn
	// number, so lines seen before the window's first turn marker still
	// land on a plausible turn. Nil means start at zero and rely on the
	// markers alone.
	currentTurn func() int
}

// NewParser builds a parser over the given tail reader.
func NewParser(tail *TailReader, currentTurn func() int) *Parser {
	return &Parser{tail: tail, currentTurn: currentTurn}
}

// Report summarizes one parse pass, mostly for logging.
type Report struct {
	LinesScanned       int
	OpponentsFound     int
	SimulationsApplied int
	OutcomesApplied    int
	SimulationsPerTurn map[int]int
}

// Parse reads the tail window and back-fills opponent identity, simulation
// rates and combat outcomes onto the store. Every failure mode degrades to
// "no update this cycle": an unreadable file, a window with no game-start
// marker, or simply no recognizable lines all return without mutating a
// single record. "Pattern not found" is normal, not an error.
func (p *Parser) Parse(store *turns.Store) Report {
	report := Report{SimulationsPerTurn: make(map[int]int)}

	lines, err := p.tail.Lines()
	if err != nil {
		log.Printf("[logtail] skipping parse cycle: %v", err)
		return report
	}

	// Only lines belonging to the current match may be applied. Scan
	// backwards for the most recent game-start marker.
	start := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], gameStartMarker) {
			start = i
			break
		}
	}
	if start == -1 {
		log.Printf("[logtail] no game start marker in window, nothing to parse")
		return report
	}

	currentTurn := 0
	if p.currentTurn != nil {
		currentTurn = p.currentTurn()
	}

	for _, line := range lines[start:] {
		report.LinesScanned++

		if m := turnMarkerRegex.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				currentTurn = n
			}
			continue
		}

		if strings.Contains(line, simulationStartMarker) {
			report.SimulationsPerTurn[currentTurn]++
			continue
		}

		if m := opponentSnapshotRegex.FindStringSubmatch(line); m != nil {
			if record, ok := store.ByTurn(currentTurn); ok {
				record.OpponentID = m[2]
				report.OpponentsFound++
				log.Printf("[logtail] turn %d opponent: %s (id %s)", currentTurn, m[1], m[2])
			}
			continue
		}

		if m := combatValidationRegex.FindStringSubmatch(line); m != nil {
			if record, ok := store.ByTurn(currentTurn); ok {
				record.UpdateCombatResults(turns.CombatResultData{
					Result:       turns.CombatResult(m[1]),
					LethalResult: turns.LethalResult(m[2]),
				})
				report.OutcomesApplied++
			}
			continue
		}

		if m := simulationResultRegex.FindStringSubmatch(line); m != nil {
			record, ok := store.ByTurn(currentTurn)
			if !ok {
				continue
			}
			record.UpdateSimulationResults(turns.SimulationData{
				WinRate:        parseRate(m[1]),
				TheirDeathRate: parseRate(m[2]),
				TieRate:        parseRate(m[3]),
				LossRate:       parseRate(m[4]),
				MyDeathRate:    parseRate(m[5]),
			})
			report.SimulationsApplied++
		}
	}

	if report.SimulationsApplied > 0 || report.OutcomesApplied > 0 {
		logSimulationCounts(report.SimulationsPerTurn)
	}
	return report
}

func parseRate(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func logSimulationCounts(perTurn map[int]int) {
	keys := make([]int, 0, len(perTurn))
	for turn := range perTurn {
		keys = append(keys, turn)
	}
	sort.Ints(keys)
	for _, turn := range keys {
		log.Printf("[logtail] turn %d: %d simulation(s)", turn, perTurn[turn])
	}
}
