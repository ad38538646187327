// Package repository provides data access layers for the match archive.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hiloapp/bg-companion/internal/bg/record"
)

// ErrNotFound is returned when a match id has no row.
var ErrNotFound = errors.New("match not found")

// ArchivedMatch is a match record with its archive metadata.
type ArchivedMatch struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	Record    record.MatchRecord `json:"record"`
}

// PlacementStats aggregates archived placements.
type PlacementStats struct {
	Games            int     `json:"games"`
	AveragePlacement float64 `json:"averagePlacement"`
	TopFourRate      float64 `json:"topFourRate"`
	FirstPlaceCount  int     `json:"firstPlaceCount"`
	TotalMMRGained   int     `json:"totalMmrGained"`
}

// MatchRepository handles database operations for archived matches.
type MatchRepository interface {
	// Save inserts a finalized match record and returns its archive id.
	Save(ctx context.Context, rec *record.MatchRecord) (string, error)

	// GetByID retrieves an archived match by id.
	GetByID(ctx context.Context, id string) (*ArchivedMatch, error)

	// Recent retrieves the most recently archived matches, newest first.
	Recent(ctx context.Context, limit int) ([]*ArchivedMatch, error)

	// Stats aggregates placement statistics across the archive.
	Stats(ctx context.Context) (*PlacementStats, error)
}

type matchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db *sql.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Save(ctx context.Context, rec *record.MatchRecord) (string, error) {
	board, err := json.Marshal(rec.FinalBoard)
	if err != nil {
		return "", fmt.Errorf("failed to marshal final board: %w", err)
	}
	turnsJSON, err := json.Marshal(rec.Turns)
	if err != nil {
		return "", fmt.Errorf("failed to marshal turns: %w", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO matches (
			id, player_identifier, placement, starting_mmr, final_mmr,
			mmr_gained, duration_seconds, ended_at, hero_card_id, hero_name,
			anomaly_card_id, anomaly_name, triples_created, region,
			final_board, turns, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		rec.PlayerIdentifier,
		rec.Placement,
		rec.StartingMMR,
		rec.FinalMMR,
		rec.MMRGained,
		rec.GameDurationInSeconds,
		rec.GameEndDate,
		rec.HeroPlayed,
		rec.HeroPlayedName,
		rec.AnomalyID,
		rec.AnomalyName,
		rec.TriplesCreated,
		rec.Region,
		string(board),
		string(turnsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save match: %w", err)
	}
	return id, nil
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*ArchivedMatch, error) {
	query := selectColumns + ` FROM matches WHERE id = ?`
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return m, nil
}

func (r *matchRepository) Recent(ctx context.Context, limit int) ([]*ArchivedMatch, error) {
	query := selectColumns + ` FROM matches ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent matches: %w", err)
	}
	defer rows.Close()

	var matches []*ArchivedMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match rows: %w", err)
	}
	return matches, nil
}

func (r *matchRepository) Stats(ctx context.Context) (*PlacementStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(AVG(placement), 0),
			COALESCE(AVG(CASE WHEN placement <= 4 THEN 1.0 ELSE 0.0 END), 0),
			COALESCE(SUM(CASE WHEN placement = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(mmr_gained), 0)
		FROM matches
	`

	stats := &PlacementStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Games,
		&stats.AveragePlacement,
		&stats.TopFourRate,
		&stats.FirstPlaceCount,
		&stats.TotalMMRGained,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return stats, nil
}

const selectColumns = `
	SELECT id, player_identifier, placement, starting_mmr, final_mmr,
		mmr_gained, duration_seconds, ended_at, hero_card_id, hero_name,
		anomaly_card_id, anomaly_name, triples_created, region,
		final_board, turns, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*ArchivedMatch, error) {
	var (
		m         ArchivedMatch
		board     string
		turnsJSON string
		createdAt string
	)
	err := row.Scan(
		&m.ID,
		&m.Record.PlayerIdentifier,
		&m.Record.Placement,
		&m.Record.StartingMMR,
		&m.Record.FinalMMR,
		&m.Record.MMRGained,
		&m.Record.GameDurationInSeconds,
		&m.Record.GameEndDate,
		&m.Record.HeroPlayed,
		&m.Record.HeroPlayedName,
		&m.Record.AnomalyID,
		&m.Record.AnomalyName,
		&m.Record.TriplesCreated,
		&m.Record.Region,
		&board,
		&turnsJSON,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(board), &m.Record.FinalBoard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal final board: %w", err)
	}
	if err := json.Unmarshal([]byte(turnsJSON), &m.Record.Turns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal turns: %w", err)
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &m, nil
}
