// Package sink delivers finalized match records to their destinations.
// Sinks are independent: a failure in one never blocks another, and no
// sink failure is fatal to the caller.
package sink

import (
	"context"

	"github.com/hiloapp/bg-companion/internal/bg/record"
)

// Sink receives one finalized match record.
type Sink interface {
	Emit(ctx context.Context, rec *record.MatchRecord) error
	Name() string
}
