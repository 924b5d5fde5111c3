package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/cbodonnell/snapsync/pkg/repositories/models"
)

var _ Repository = &InMemoryRepository{}

type snapshotKey struct {
	ownerID    string
	uniqueName string
}

// InMemoryRepository keeps everything in maps. It is used by tests and by
// the server when no database is configured.
type InMemoryRepository struct {
	lock      sync.RWMutex
	snapshots map[snapshotKey]*models.Snapshot
	conflicts map[snapshotKey]*models.Conflict
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		snapshots: make(map[snapshotKey]*models.Snapshot),
		conflicts: make(map[snapshotKey]*models.Conflict),
	}
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}

func copySnapshot(s *models.Snapshot) *models.Snapshot {
	c := *s
	c.Data = append([]byte(nil), s.Data...)
	c.CoverImage = append([]byte(nil), s.CoverImage...)
	return &c
}

func copyConflict(s *models.Conflict) *models.Conflict {
	c := *s
	c.Data = append([]byte(nil), s.Data...)
	c.CoverImage = append([]byte(nil), s.CoverImage...)
	return &c
}

func (r *InMemoryRepository) GetSnapshot(ctx context.Context, ownerID string, uniqueName string) (*models.Snapshot, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	s, ok := r.snapshots[snapshotKey{ownerID, uniqueName}]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return copySnapshot(s), nil
}

func (r *InMemoryRepository) ListSnapshots(ctx context.Context, ownerID string) ([]*models.Snapshot, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	snapshots := make([]*models.Snapshot, 0)
	for k, s := range r.snapshots {
		if k.ownerID == ownerID {
			snapshots = append(snapshots, copySnapshot(s))
		}
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].UniqueName < snapshots[j].UniqueName
	})
	return snapshots, nil
}

func (r *InMemoryRepository) CreateSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	key := snapshotKey{snapshot.OwnerID, snapshot.UniqueName}
	if _, ok := r.snapshots[key]; ok {
		return &ErrAlreadyExists{}
	}
	snapshot.Revision = 1
	r.snapshots[key] = copySnapshot(snapshot)
	return nil
}

func (r *InMemoryRepository) UpdateSnapshot(ctx context.Context, snapshot *models.Snapshot, expectedRevision int64) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	key := snapshotKey{snapshot.OwnerID, snapshot.UniqueName}
	existing, ok := r.snapshots[key]
	if !ok {
		return &ErrNotFound{}
	}
	if existing.Revision != expectedRevision {
		return &ErrRevisionMismatch{Expected: expectedRevision}
	}
	updated := copySnapshot(snapshot)
	updated.ID = existing.ID
	updated.Revision = expectedRevision + 1
	r.snapshots[key] = updated
	snapshot.Revision = updated.Revision
	return nil
}

func (r *InMemoryRepository) DeleteSnapshot(ctx context.Context, ownerID string, uniqueName string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	key := snapshotKey{ownerID, uniqueName}
	if _, ok := r.snapshots[key]; !ok {
		return &ErrNotFound{}
	}
	delete(r.snapshots, key)
	return nil
}

func (r *InMemoryRepository) CreateConflict(ctx context.Context, conflict *models.Conflict) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	key := snapshotKey{conflict.OwnerID, conflict.UniqueName}
	if _, ok := r.conflicts[key]; ok {
		return &ErrAlreadyExists{}
	}
	r.conflicts[key] = copyConflict(conflict)
	return nil
}

func (r *InMemoryRepository) GetConflict(ctx context.Context, ownerID string, uniqueName string) (*models.Conflict, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	c, ok := r.conflicts[snapshotKey{ownerID, uniqueName}]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return copyConflict(c), nil
}

func (r *InMemoryRepository) GetConflictByID(ctx context.Context, ownerID string, conflictID string) (*models.Conflict, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for k, c := range r.conflicts {
		if k.ownerID == ownerID && c.ID == conflictID {
			return copyConflict(c), nil
		}
	}
	return nil, &ErrNotFound{}
}

func (r *InMemoryRepository) DeleteConflict(ctx context.Context, ownerID string, uniqueName string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.conflicts, snapshotKey{ownerID, uniqueName})
	return nil
}
