package sink

import (
	"context"
	"fmt"
	"log"

	"github.com/hiloapp/bg-companion/internal/bg/record"
	"github.com/hiloapp/bg-companion/internal/storage/repository"
)

// ArchiveSink persists match records into the local SQLite archive.
type ArchiveSink struct {
	repo repository.MatchRepository
}

// NewArchiveSink wraps a match repository as a sink.
func NewArchiveSink(repo repository.MatchRepository) *ArchiveSink {
	return &ArchiveSink{repo: repo}
}

func (s *ArchiveSink) Name() string { return "archive" }

func (s *ArchiveSink) Emit(ctx context.Context, rec *record.MatchRecord) error {
	id, err := s.repo.Save(ctx, rec)
	if err != nil {
		return fmt.Errorf("archiving match record: %w", err)
	}
	log.Printf("[sink] archived match record %s", id)
	return nil
}
