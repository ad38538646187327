// Package logtail scrapes the host tracker's own log file for the two
// facts the live entity surface never exposes: simulated combat odds and
// validated combat outcomes. The log belongs to another subsystem; this
// package is strictly a resilient consumer of its text.
package logtail

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

const (
	// DefaultWindowBytes bounds how much of the log tail one poll reads.
	// Large enough for a full match's worth of lines, small enough that a
	// multi-megabyte log is never rescanned whole.
	DefaultWindowBytes = 512 * 1024

	// DefaultMaxAttempts bounds retries when the writer holds the file at
	// the exact poll instant.
	DefaultMaxAttempts = 3

	// DefaultRetryBackoff is multiplied by the attempt number between
	// retries.
	DefaultRetryBackoff = 100 * time.Millisecond
)

// TailReader reads a bounded suffix of an append-only text file with a
// small retry loop around the I/O.
type TailReader struct {
	path        string
	windowBytes int64
	maxAttempts int
	backoff     time.Duration

	// sleep is swappable so tests can count retries without waiting.
	sleep func(time.Duration)
}

// NewTailReader returns a reader over the given path. Zero values for
// window, attempts and backoff select the defaults.
func NewTailReader(path string, windowBytes int64, maxAttempts int, backoff time.Duration) *TailReader {
	if windowBytes <= 0 {
		windowBytes = DefaultWindowBytes
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &TailReader{
		path:        path,
		windowBytes: windowBytes,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       time.Sleep,
	}
}

// Lines reads the final window of the file and returns its non-empty
// lines. A line cut off by the window boundary is discarded rather than
// returned half-parsed. I/O failures are retried with linear backoff;
// exhausting the retries returns the last error, which callers treat as
// "no update this cycle", never as fatal.
func (r *TailReader) Lines() ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lines, err := r.readOnce()
		if err == nil {
			return lines, nil
		}
		lastErr = err
		if attempt < r.maxAttempts {
			log.Printf("[logtail] read attempt %d/%d failed: %v, retrying", attempt, r.maxAttempts, err)
			r.sleep(time.Duration(attempt) * r.backoff)
		}
	}
	return nil, fmt.Errorf("read log tail after %d attempts: %w", r.maxAttempts, lastErr)
}

func (r *TailReader) readOnce() ([]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer func() {
		_ = file.Close() //nolint:errcheck // Ignore error on cleanup
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}

	start := stat.Size() - r.windowBytes
	truncated := start > 0
	if start < 0 {
		start = 0
	}
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log file: %w", err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	if truncated && len(lines) > 0 {
		// The first line almost certainly starts mid-record.
		lines = lines[1:]
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}
