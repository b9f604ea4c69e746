// Package history records handled commands for later inspection via the
// API and the `vct logs` command.
package history

import (
	"context"
	"time"
)

// Entry is one handled command.
type Entry struct {
	ID            int64     `json:"id"`
	Time          time.Time `json:"time"`
	Source        string    `json:"source"` // api, cli, sim
	Text          string    `json:"text"`
	Action        string    `json:"action"`
	Score         float64   `json:"score"`
	Rewarded      bool      `json:"rewarded"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// Recorder stores handled commands.
type Recorder interface {
	// Record appends an entry. The entry's ID is assigned by the store.
	Record(ctx context.Context, e Entry) error

	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)

	// Close releases the backing resources.
	Close() error
}

// Nop is a Recorder that drops everything. It keeps simulate mode free of
// filesystem requirements when no history path is configured.
type Nop struct{}

// Record discards the entry.
func (Nop) Record(context.Context, Entry) error { return nil }

// Recent returns no entries.
func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }

// Close does nothing.
func (Nop) Close() error { return nil }
