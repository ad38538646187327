package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/hiloapp/bg-companion/internal/bg/record"
	"github.com/hiloapp/bg-companion/internal/bg/turns"
	"github.com/hiloapp/bg-companion/internal/storage"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(storage.DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db.Conn()
}

func testRecord(placement int) *record.MatchRecord {
	tr := turns.NewTurnRecord(3, turns.OpponentTurn)
	tr.OpponentID = "5"
	tr.HeroDamage = 7
	return &record.MatchRecord{
		PlayerIdentifier:      "PlayerOne#1234",
		Placement:             placement,
		StartingMMR:           5000,
		FinalMMR:              5030,
		MMRGained:             30,
		GameDurationInSeconds: 840,
		GameEndDate:           "2026-03-01 18:22:07.00",
		HeroPlayed:            "TB_BaconShop_HERO_01",
		HeroPlayedName:        "Ragnaros",
		AnomalyID:             "None",
		AnomalyName:           "None",
		TriplesCreated:        1,
		Region:                "US",
		FinalBoard: []record.BoardMinion{
			{CardID: "BGS_001", Name: "Alleycat", Attack: 2, Health: 2, Enchantments: []string{"BGS_001e"}},
		},
		Turns: []*turns.TurnRecord{tr},
	}
}

func TestMatchRepository(t *testing.T) {
	t.Run("SaveAndGetByID", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		ctx := context.Background()

		id, err := repo.Save(ctx, testRecord(2))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if id == "" {
			t.Fatal("Save returned empty id")
		}

		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Record.Placement != 2 {
			t.Errorf("placement = %d, want 2", got.Record.Placement)
		}
		if got.Record.HeroPlayedName != "Ragnaros" {
			t.Errorf("hero name = %q", got.Record.HeroPlayedName)
		}
		if len(got.Record.Turns) != 1 || got.Record.Turns[0].HeroDamage != 7 {
			t.Errorf("turns not round-tripped: %+v", got.Record.Turns)
		}
		if len(got.Record.FinalBoard) != 1 || got.Record.FinalBoard[0].Name != "Alleycat" {
			t.Errorf("board not round-tripped: %+v", got.Record.FinalBoard)
		}
		if got.CreatedAt.IsZero() {
			t.Error("created_at not set")
		}
	})

	t.Run("GetByIDNotFound", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		_, err := repo.GetByID(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("RecentNewestFirst", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		ctx := context.Background()

		for p := 1; p <= 5; p++ {
			if _, err := repo.Save(ctx, testRecord(p)); err != nil {
				t.Fatalf("Save %d: %v", p, err)
			}
		}

		got, err := repo.Recent(ctx, 3)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		if got[0].Record.Placement != 5 {
			t.Errorf("newest first violated, got placement %d", got[0].Record.Placement)
		}
	})

	t.Run("StatsAggregation", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		ctx := context.Background()

		for _, p := range []int{1, 4, 7} {
			if _, err := repo.Save(ctx, testRecord(p)); err != nil {
				t.Fatalf("Save: %v", err)
			}
		}

		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		if stats.Games != 3 {
			t.Errorf("games = %d, want 3", stats.Games)
		}
		if stats.AveragePlacement != 4 {
			t.Errorf("avg placement = %v, want 4", stats.AveragePlacement)
		}
		if stats.FirstPlaceCount != 1 {
			t.Errorf("first places = %d, want 1", stats.FirstPlaceCount)
		}
		if stats.TotalMMRGained != 90 {
			t.Errorf("mmr gained = %d, want 90", stats.TotalMMRGained)
		}
	})

	t.Run("StatsEmptyArchive", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		stats, err := repo.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		if stats.Games != 0 || stats.AveragePlacement != 0 {
			t.Errorf("empty archive stats = %+v", stats)
		}
	})
}
