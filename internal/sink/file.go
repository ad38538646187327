package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hiloapp/bg-companion/internal/bg/record"
)

// FileSink writes each match record as a pretty-printed JSON file named
// bggame_YYYYMMDD_HHMMSS.json in the output directory.
type FileSink struct {
	dir string

	// now is swappable in tests.
	now func() time.Time
}

// NewFileSink returns a sink writing into dir. The directory is created
// on first emit, not up front.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir, now: time.Now}
}

func (s *FileSink) Name() string { return "file" }

// Emit writes the record to disk. The record is marshaled before any
// filesystem work so a write error never leaves a partial directory state
// to reason about.
func (s *FileSink) Emit(_ context.Context, rec *record.MatchRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling match record: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", s.dir, err)
	}

	name := fmt.Sprintf("bggame_%s.json", s.now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing match record to %s: %w", path, err)
	}

	log.Printf("[sink] wrote match record to %s", path)
	return nil
}
