package turns

import (
	"testing"

	"github.com/hiloapp/bg-companion/internal/bg/hostapi"
)

func TestStore_GetOrCreate(t *testing.T) {
	store := NewStore()

	t.Run("CreatesNewRecord", func(t *testing.T) {
		r := store.GetOrCreate(1, PlayerTurn)
		if r == nil {
			t.Fatal("GetOrCreate() returned nil")
		}
		if r.Turn != 1 {
			t.Errorf("Turn = %d, want 1", r.Turn)
		}
		if r.Phase != PlayerTurn {
			t.Errorf("Phase = %v, want PlayerTurn", r.Phase)
		}
		if r.TavernTier != 1 {
			t.Errorf("TavernTier = %d, want 1", r.TavernTier)
		}
		if r.HeroDamage != 0 || r.WinRate != 0 {
			t.Error("new record should start with zeroed damage and rates")
		}
	})

	t.Run("ReturnsExistingRecordAndUpdatesPhase", func(t *testing.T) {
		first := store.GetOrCreate(1, PlayerTurn)
		second := store.GetOrCreate(1, OpponentTurn)
		if first != second {
			t.Error("GetOrCreate() created a duplicate record for turn 1")
		}
		if second.Phase != OpponentTurn {
			t.Errorf("Phase = %v, want OpponentTurn", second.Phase)
		}
		if store.Len() != 1 {
			t.Errorf("Len() = %d, want 1", store.Len())
		}
	})

	t.Run("UniqueTurnsInOrder", func(t *testing.T) {
		store.Clear()
		for _, turn := range []int{1, 1, 2, 2, 3, 3, 3, 4} {
			store.GetOrCreate(turn, PlayerTurn)
		}
		all := store.All()
		if len(all) != 4 {
			t.Fatalf("len(All()) = %d, want 4", len(all))
		}
		for i, r := range all {
			if r.Turn != i+1 {
				t.Errorf("All()[%d].Turn = %d, want %d", i, r.Turn, i+1)
			}
		}
	})
}

func TestTurnRecord_Clone(t *testing.T) {
	orig := NewTurnRecord(5, OpponentTurn)
	orig.OpponentID = "7"
	orig.CapturePreCombatHealth([]HealthSnapshot{{PlayerID: "7", Health: 40}})
	orig.PlayerHealths = []HealthSnapshot{{PlayerID: "3", Health: 30, Armor: 5}}

	clone := orig.Clone()
	if clone == orig {
		t.Fatal("Clone() returned the same record")
	}
	if clone.Turn != 5 || clone.OpponentID != "7" || len(clone.PreCombatHealths) != 1 {
		t.Errorf("Clone() = %+v, want a field-for-field copy", clone)
	}

	orig.HeroDamage = -8
	orig.PreCombatHealths[0].Damage = 15
	orig.PlayerHealths = append(orig.PlayerHealths, HealthSnapshot{PlayerID: "9"})
	if clone.HeroDamage != 0 {
		t.Errorf("clone HeroDamage = %d, want 0 after mutating the original", clone.HeroDamage)
	}
	if clone.PreCombatHealths[0].Damage != 0 {
		t.Error("clone shares the pre-combat snapshot slice with the original")
	}
	if len(clone.PlayerHealths) != 1 {
		t.Errorf("clone PlayerHealths length = %d, want 1", len(clone.PlayerHealths))
	}
}

func TestStore_LastAndByTurn(t *testing.T) {
	store := NewStore()

	if _, ok := store.Last(); ok {
		t.Error("Last() on empty store should report not ok")
	}
	if _, ok := store.ByTurn(1); ok {
		t.Error("ByTurn() on empty store should report not ok")
	}

	store.GetOrCreate(1, PlayerTurn)
	store.GetOrCreate(2, PlayerTurn)

	last, ok := store.Last()
	if !ok || last.Turn != 2 {
		t.Errorf("Last() = %+v, %v; want turn 2", last, ok)
	}

	r, ok := store.ByTurn(1)
	if !ok || r.Turn != 1 {
		t.Errorf("ByTurn(1) = %+v, %v; want turn 1", r, ok)
	}

	// Parser must tolerate gaps in turn numbers.
	store.GetOrCreate(5, OpponentTurn)
	if _, ok := store.ByTurn(4); ok {
		t.Error("ByTurn(4) should be absent when the turn was never seen")
	}
}

func TestTurnRecord_UpdateIdempotence(t *testing.T) {
	r := NewTurnRecord(3, OpponentTurn)

	sim := SimulationData{WinRate: 62.5, TheirDeathRate: 10, TieRate: 5, LossRate: 32.5, MyDeathRate: 1.5}
	r.UpdateSimulationResults(sim)
	r.UpdateSimulationResults(sim)

	if r.WinRate != 62.5 || r.TieRate != 5 || r.LossRate != 32.5 {
		t.Errorf("rates = %v/%v/%v, want 62.5/5/32.5", r.WinRate, r.TieRate, r.LossRate)
	}
	if !r.HasSimulationResults {
		t.Error("HasSimulationResults should be set")
	}

	combat := CombatResultData{Result: CombatWin, LethalResult: NoOneDied}
	r.UpdateCombatResults(combat)
	r.UpdateCombatResults(combat)

	if r.ActualCombatResult != CombatWin || r.ActualLethalResult != NoOneDied {
		t.Errorf("combat results = %v/%v, want Win/NoOneDied", r.ActualCombatResult, r.ActualLethalResult)
	}
	if !r.HasCombatResults {
		t.Error("HasCombatResults should be set")
	}
}

func TestTurnRecord_CapturePreCombatHealth(t *testing.T) {
	snaps := []HealthSnapshot{
		{PlayerID: "2", Health: 30, Armor: 5},
		{PlayerID: "7", Health: 25},
	}

	t.Run("PlayerTurnDoesNotCapture", func(t *testing.T) {
		r := NewTurnRecord(2, PlayerTurn)
		r.CapturePreCombatHealth(snaps)
		if len(r.PreCombatHealths) != 0 {
			t.Error("player sub-phase must not capture pre-combat health")
		}
	})

	t.Run("OpponentTurnCapturesOnce", func(t *testing.T) {
		r := NewTurnRecord(2, OpponentTurn)
		r.CapturePreCombatHealth(snaps)
		if len(r.PreCombatHealths) != 2 {
			t.Fatalf("len(PreCombatHealths) = %d, want 2", len(r.PreCombatHealths))
		}

		// A later capture must not overwrite the frozen snapshot.
		r.CapturePreCombatHealth([]HealthSnapshot{{PlayerID: "2", Health: 1}})
		if r.PreCombatHealths[0].Health != 30 {
			t.Error("pre-combat snapshot was overwritten by a later capture")
		}
	})
}

func TestSnapshots(t *testing.T) {
	entities := []hostapi.Entity{
		{
			ID:   10,
			Kind: hostapi.KindHero,
			Tags: map[hostapi.Tag]int{
				hostapi.TagPlayerID:         2,
				hostapi.TagHealth:           30,
				hostapi.TagArmor:            5,
				hostapi.TagDamage:           12,
				hostapi.TagLeaderboardPlace: 3,
			},
		},
		{
			ID:   11,
			Kind: hostapi.KindHero,
			Tags: map[hostapi.Tag]int{
				hostapi.TagPlayerID:         7,
				hostapi.TagHealth:           40,
				hostapi.TagDamage:           10,
				hostapi.TagLeaderboardPlace: 1,
			},
		},
		// Not on the leaderboard, must be skipped.
		{ID: 12, Tags: map[hostapi.Tag]int{hostapi.TagPlayerID: 9, hostapi.TagHealth: 30}},
	}

	snaps := Snapshots(entities)
	if len(snaps) != 2 {
		t.Fatalf("len(Snapshots()) = %d, want 2", len(snaps))
	}

	first, ok := FindPlayer(snaps, "2")
	if !ok {
		t.Fatal("FindPlayer(2) not found")
	}
	if got := first.TotalHealth(); got != 23 {
		t.Errorf("TotalHealth() = %d, want 23 (30+5-12)", got)
	}

	second, ok := FindPlayer(snaps, "7")
	if !ok {
		t.Fatal("FindPlayer(7) not found")
	}
	if got := second.TotalHealth(); got != 30 {
		t.Errorf("TotalHealth() = %d, want 30 (40+0-10)", got)
	}

	if _, ok := FindPlayer(snaps, "9"); ok {
		t.Error("player 9 is not on the leaderboard and should not be snapshotted")
	}

	if got := Snapshots(nil); len(got) != 0 {
		t.Errorf("Snapshots(nil) = %v, want empty", got)
	}
}
