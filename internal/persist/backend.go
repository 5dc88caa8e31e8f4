// Package persist saves and loads store snapshots and writes the JSONL
// export and daily audit files.
package persist

import (
	"context"
	"errors"

	"github.com/rcliao/ctxmem/internal/model"
)

// ErrNoSnapshot is returned by a backend that has nothing saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// Backend stores whole snapshots.
type Backend interface {
	Save(ctx context.Context, snap model.Snapshot) error
	Load(ctx context.Context) (model.Snapshot, error)
	Close() error
}

// Source is what the gateway reads from; *store.Store satisfies it.
type Source interface {
	Snapshot() model.Snapshot
	Items() []model.Entry
}
