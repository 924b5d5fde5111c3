package repositories

import (
	"context"

	"github.com/cbodonnell/snapsync/pkg/repositories/models"
)

// Repository stores snapshots and their pending conflicts per owner.
// Implementations must be safe for concurrent use.
type Repository interface {
	Close(ctx context.Context) error

	GetSnapshot(ctx context.Context, ownerID string, uniqueName string) (*models.Snapshot, error)
	ListSnapshots(ctx context.Context, ownerID string) ([]*models.Snapshot, error)
	// CreateSnapshot inserts a snapshot at revision 1. It returns
	// ErrAlreadyExists if the owner already has a snapshot with that name.
	CreateSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	// UpdateSnapshot replaces a snapshot if its stored revision equals
	// expectedRevision, incrementing the revision. It returns
	// ErrRevisionMismatch otherwise.
	UpdateSnapshot(ctx context.Context, snapshot *models.Snapshot, expectedRevision int64) error
	DeleteSnapshot(ctx context.Context, ownerID string, uniqueName string) error

	// CreateConflict stores the pending conflict of a snapshot. It returns
	// ErrAlreadyExists if the snapshot already has one; a pending conflict
	// is never replaced, only deleted once resolved.
	CreateConflict(ctx context.Context, conflict *models.Conflict) error
	GetConflict(ctx context.Context, ownerID string, uniqueName string) (*models.Conflict, error)
	GetConflictByID(ctx context.Context, ownerID string, conflictID string) (*models.Conflict, error)
	DeleteConflict(ctx context.Context, ownerID string, uniqueName string) error
}
