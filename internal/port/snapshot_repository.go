package port

import (
	"context"
	"errors"

	"github.com/rl1809/stock-tracker/internal/core/domain"
)

// ErrSnapshotNotFound is returned, possibly wrapped, when no snapshot exists under the given name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

type SnapshotRepository interface {
	// Load reads the named snapshot. Decode failures are returned as-is.
	Load(ctx context.Context, name string) (*domain.Inventory, error)

	// Save fully replaces the named snapshot with inv
	Save(ctx context.Context, name string, inv *domain.Inventory) error
}
