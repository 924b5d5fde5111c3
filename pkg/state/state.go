package state

import (
	"context"

	"github.com/cbodonnell/snapsync/pkg/savegame"
)

// ProgressManager provides shared access to the local copy of the
// player's progress. Implementations must be thread-safe.
type ProgressManager interface {
	// Get returns a copy of the current progress.
	Get(ctx context.Context) (*savegame.SaveGame, error)
	// Set replaces the current progress.
	Set(ctx context.Context, progress *savegame.SaveGame) error
}
