package logtail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hiloapp/bg-companion/internal/bg/turns"
)

// Sample lines lifted verbatim from a host tracker log; the pattern
// grammar is pinned against these exact shapes.
const sampleLog = `D 12:00:01.000 GameEventHandler.HandleGameStart >> --- Game start ---
D 12:00:02.000 OnTurnStart - Turn 1, Player: Player
D 12:01:00.000 OnTurnStart - Turn 2, Player: Player
D 12:01:30.000 OnTurnStart - Turn 2, Player: Opponent
D 12:01:31.000 BattlegroundsBoardState.SnapshotCurrentBoard >> Snapshotting board state for Patchwerk with player id 7
D 12:01:32.000 BobsBuddyInvoker.RunAndDisplaySimulationAsync >> Running simulation
D 12:01:33.000 BobsBuddyInvoker.StartCombat >> 5c1e3a7f-1
D 12:01:34.000 WinRate=62.5% (Lethal=10%), TieRate=5%, LossRate=32.5% (Lethal=1.5%)
D 12:01:40.000 BobsBuddyInvoker.ValidateSimulationResultAsync >> result=Win, lethalResult=NoOneDied
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hdt_log.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write log fixture: %v", err)
	}
	return path
}

func newTestParser(path string) *Parser {
	return NewParser(NewTailReader(path, 0, 0, 0), nil)
}

func TestParser_Parse(t *testing.T) {
	path := writeLog(t, sampleLog)
	parser := newTestParser(path)

	store := turns.NewStore()
	store.GetOrCreate(1, turns.PlayerTurn)
	store.GetOrCreate(2, turns.OpponentTurn)

	report := parser.Parse(store)

	record, ok := store.ByTurn(2)
	if !ok {
		t.Fatal("turn 2 record missing")
	}

	if record.OpponentID != "7" {
		t.Errorf("OpponentID = %q, want \"7\"", record.OpponentID)
	}
	if report.OpponentsFound != 1 {
		t.Errorf("OpponentsFound = %d, want 1", report.OpponentsFound)
	}

	if !record.HasSimulationResults {
		t.Fatal("HasSimulationResults not set")
	}
	if record.WinRate != 62.5 || record.TheirDeathRate != 10 || record.TieRate != 5 ||
		record.LossRate != 32.5 || record.MyDeathRate != 1.5 {
		t.Errorf("rates = %v/%v/%v/%v/%v, want 62.5/10/5/32.5/1.5",
			record.WinRate, record.TheirDeathRate, record.TieRate, record.LossRate, record.MyDeathRate)
	}

	if !record.HasCombatResults {
		t.Fatal("HasCombatResults not set")
	}
	if record.ActualCombatResult != turns.CombatWin {
		t.Errorf("ActualCombatResult = %q, want Win", record.ActualCombatResult)
	}
	if record.ActualLethalResult != turns.NoOneDied {
		t.Errorf("ActualLethalResult = %q, want NoOneDied", record.ActualLethalResult)
	}

	// Turn 1 never fought; its defaults must be untouched.
	first, _ := store.ByTurn(1)
	if first.HasSimulationResults || first.HasCombatResults || first.OpponentID != "" {
		t.Error("turn 1 should have no parsed results")
	}

	if report.SimulationsPerTurn[2] != 1 {
		t.Errorf("SimulationsPerTurn[2] = %d, want 1", report.SimulationsPerTurn[2])
	}
}

func TestParser_Idempotent(t *testing.T) {
	path := writeLog(t, sampleLog)
	parser := newTestParser(path)

	store := turns.NewStore()
	store.GetOrCreate(1, turns.PlayerTurn)
	store.GetOrCreate(2, turns.OpponentTurn)

	parser.Parse(store)
	before, _ := store.ByTurn(2)
	snapshot := *before

	parser.Parse(store)
	after, _ := store.ByTurn(2)

	if after.WinRate != snapshot.WinRate || after.OpponentID != snapshot.OpponentID ||
		after.ActualCombatResult != snapshot.ActualCombatResult {
		t.Error("re-parsing the same window changed field values")
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d after re-parse, want 2", store.Len())
	}
}

func TestParser_IgnoresPreviousMatch(t *testing.T) {
	// An old match's simulation line sits before the newest game-start
	// marker; it must never be applied.
	content := `D 11:00:00.000 GameEventHandler.HandleGameStart >> --- Game start ---
D 11:00:05.000 OnTurnStart - Turn 4, Player: Opponent
D 11:00:06.000 WinRate=99% (Lethal=50%), TieRate=1%, LossRate=0% (Lethal=0%)
D 12:00:00.000 GameEventHandler.HandleGameStart >> --- Game start ---
D 12:00:01.000 OnTurnStart - Turn 1, Player: Player
`
	path := writeLog(t, content)
	parser := newTestParser(path)

	store := turns.NewStore()
	store.GetOrCreate(1, turns.PlayerTurn)
	store.GetOrCreate(4, turns.OpponentTurn)

	parser.Parse(store)

	old, _ := store.ByTurn(4)
	if old.HasSimulationResults {
		t.Error("simulation line from a previous match was applied")
	}
}

func TestParser_NoGameStartMarker(t *testing.T) {
	path := writeLog(t, "D 12:00:00.000 OnTurnStart - Turn 3, Player: Player\n")
	parser := newTestParser(path)

	store := turns.NewStore()
	store.GetOrCreate(3, turns.PlayerTurn)

	report := parser.Parse(store)
	if report.LinesScanned != 0 {
		t.Errorf("LinesScanned = %d, want 0 without a game start marker", report.LinesScanned)
	}
}

func TestParser_UnreadableFile(t *testing.T) {
	parser := NewParser(NewTailReader(filepath.Join(t.TempDir(), "missing.log"), 0, 0, 0), nil)
	store := turns.NewStore()
	store.GetOrCreate(1, turns.PlayerTurn)

	// Must not panic and must not mutate the store.
	parser.Parse(store)
	record, _ := store.ByTurn(1)
	if record.HasSimulationResults || record.HasCombatResults {
		t.Error("unreadable file must leave the store untouched")
	}
}

func TestParser_SeedsTurnFromHost(t *testing.T) {
	// No turn marker inside the window, but the host reports turn 6: the
	// trailing combat validation still lands on turn 6.
	content := `D 12:00:00.000 GameEventHandler.HandleGameStart >> --- Game start ---
D 12:10:00.000 BobsBuddyInvoker.ValidateSimulationResultAsync >> result=Loss, lethalResult=FriendlyDied
`
	path := writeLog(t, content)
	parser := NewParser(NewTailReader(path, 0, 0, 0), func() int { return 6 })

	store := turns.NewStore()
	store.GetOrCreate(6, turns.OpponentTurn)

	parser.Parse(store)
	record, _ := store.ByTurn(6)
	if !record.HasCombatResults || record.ActualCombatResult != turns.CombatLoss {
		t.Errorf("combat result = %q (has=%v), want Loss applied to turn 6",
			record.ActualCombatResult, record.HasCombatResults)
	}
	if record.ActualLethalResult != turns.FriendlyDied {
		t.Errorf("ActualLethalResult = %q, want FriendlyDied", record.ActualLethalResult)
	}
}

func TestTailReader_WindowBound(t *testing.T) {
	// The window must clip from the front and drop the partial first line.
	var b strings.Builder
	b.WriteString("this line will be cut in half and must be discarded\n")
	b.WriteString("GameEventHandler.HandleGameStart >> --- Game start ---\n")
	b.WriteString("OnTurnStart - Turn 1, Player: Player\n")
	content := b.String()

	path := writeLog(t, content)
	window := int64(len(content) - 10) // cuts into the first line
	reader := NewTailReader(path, window, 0, 0)

	lines, err := reader.Lines()
	if err != nil {
		t.Fatalf("Lines() error = %v", err)
	}
	for _, line := range lines {
		if strings.Contains(line, "cut in half") {
			t.Errorf("partial first line leaked through the window: %q", line)
		}
	}
	if len(lines) != 2 {
		t.Errorf("len(lines) = %d, want 2", len(lines))
	}
}

func TestTailReader_RetryBound(t *testing.T) {
	reader := NewTailReader(filepath.Join(t.TempDir(), "locked.log"), 0, 0, 0)

	attempts := 0
	reader.sleep = func(time.Duration) { attempts++ }

	_, err := reader.Lines()
	if err == nil {
		t.Fatal("Lines() on a missing file should return an error")
	}
	// 3 attempts total means 2 backoff sleeps between them.
	if attempts != 2 {
		t.Errorf("backoff sleeps = %d, want 2 (3 attempts)", attempts)
	}
}
