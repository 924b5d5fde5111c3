// Package store implements snapshot storage for a single player on top of
// a repository. It is what the API server serves and what the coordinator
// wraps when running against a local database.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/snapsync/pkg/log"
	"github.com/cbodonnell/snapsync/pkg/repositories"
	"github.com/cbodonnell/snapsync/pkg/repositories/models"
	"github.com/cbodonnell/snapsync/pkg/snapshots"
	"github.com/google/uuid"
)

const (
	// MaxDataSize is the largest snapshot contents accepted on commit.
	MaxDataSize = 3 * 1024 * 1024
	// MaxCoverImageSize is the largest cover image accepted on commit.
	MaxCoverImageSize = 800 * 1024
)

var _ snapshots.Client = &Store{}

// Store serves the snapshots of one owner.
//
// A commit against a stale revision does not fail. It is kept as the
// pending conflict of the snapshot and reported on the next open, where it
// is either returned to the caller or resolved by the requested policy. A
// snapshot holds at most one pending conflict: further stale commits fail
// with snapshots.ErrConflictPending until it is resolved.
type Store struct {
	repository repositories.Repository
	ownerID    string
	now        func() time.Time
	logger     *log.Logger
}

type NewStoreOptions struct {
	Repository repositories.Repository
	OwnerID    string
	// Now overrides the clock used for last modified times.
	Now func() time.Time
}

func NewStore(opts NewStoreOptions) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		repository: opts.Repository,
		ownerID:    opts.OwnerID,
		now:        now,
		logger:     log.Component("store"),
	}
}

func (s *Store) Open(ctx context.Context, name string, createIfNotFound bool, policy snapshots.ConflictPolicy) (*snapshots.DataOrConflict, error) {
	if name == "" {
		return nil, fmt.Errorf("snapshot name is empty")
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("invalid conflict policy %d", policy)
	}

	head, err := s.repository.GetSnapshot(ctx, s.ownerID, name)
	if err != nil {
		if !repositories.IsNotFound(err) {
			return nil, fmt.Errorf("failed to get snapshot: %v", err)
		}
		if !createIfNotFound {
			return nil, snapshots.ErrSnapshotNotFound
		}
		// nothing is stored until the first commit
		s.logger.Debug("Opening new snapshot %s for %s", name, s.ownerID)
		return &snapshots.DataOrConflict{
			Data: &snapshots.Snapshot{
				Metadata: snapshots.Metadata{
					SnapshotID: uuid.New().String(),
					UniqueName: name,
				},
			},
		}, nil
	}

	conflict, err := s.repository.GetConflict(ctx, s.ownerID, name)
	if err != nil {
		if repositories.IsNotFound(err) {
			return &snapshots.DataOrConflict{Data: snapshotFromModel(head)}, nil
		}
		return nil, fmt.Errorf("failed to get conflict: %v", err)
	}

	server := snapshotFromModel(head)
	conflicting := snapshotFromConflict(conflict, head)
	if policy == snapshots.ConflictPolicyManual {
		s.logger.Debug("Returning conflict %s on %s for %s", conflict.ID, name, s.ownerID)
		return &snapshots.DataOrConflict{
			Conflict: &snapshots.Conflict{
				ConflictID:          conflict.ID,
				Snapshot:            server,
				ConflictingSnapshot: conflicting,
			},
		}, nil
	}

	winner := server
	if preferConflicting(policy, server, conflicting) {
		winner = conflicting
	}
	s.logger.Debug("Resolving conflict %s on %s for %s with policy %s", conflict.ID, name, s.ownerID, policy)
	return s.resolve(ctx, conflict, head, winner.Metadata, winner.Contents)
}

// preferConflicting reports whether policy picks the pending write over the
// stored snapshot. Ties keep the stored snapshot.
func preferConflicting(policy snapshots.ConflictPolicy, server, conflicting *snapshots.Snapshot) bool {
	switch policy {
	case snapshots.ConflictPolicyLongestPlaytime:
		return conflicting.Metadata.PlayedTime > server.Metadata.PlayedTime
	case snapshots.ConflictPolicyMostRecentlyModified:
		return conflicting.Metadata.LastModified.After(server.Metadata.LastModified)
	case snapshots.ConflictPolicyHighestProgress:
		return conflicting.Metadata.ProgressValue > server.Metadata.ProgressValue
	default:
		return false
	}
}

func (s *Store) OpenMetadata(ctx context.Context, metadata *snapshots.Metadata, policy snapshots.ConflictPolicy) (*snapshots.DataOrConflict, error) {
	if metadata == nil {
		return nil, fmt.Errorf("snapshot metadata is nil")
	}
	return s.Open(ctx, metadata.UniqueName, false, policy)
}

func (s *Store) CommitAndClose(ctx context.Context, snapshot *snapshots.Snapshot, change snapshots.MetadataChange) (*snapshots.Metadata, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	md := change.Apply(snapshot.Metadata)
	if err := checkSize(md, snapshot.Contents); err != nil {
		return nil, err
	}
	if md.SnapshotID == "" {
		md.SnapshotID = uuid.New().String()
	}
	md.LastModified = s.now().UTC().Truncate(time.Millisecond)

	m := modelFromMetadata(s.ownerID, md, snapshot.Contents)
	if md.Revision == 0 {
		err := s.repository.CreateSnapshot(ctx, m)
		if err == nil {
			s.logger.Debug("Created snapshot %s for %s", md.UniqueName, s.ownerID)
			return metadataFromModel(m), nil
		}
		if !repositories.IsAlreadyExists(err) {
			return nil, fmt.Errorf("failed to create snapshot: %v", err)
		}
		// another device created it first
		return s.storeConflict(ctx, m)
	}

	err := s.repository.UpdateSnapshot(ctx, m, md.Revision)
	if err == nil {
		s.logger.Debug("Committed snapshot %s for %s at revision %d", md.UniqueName, s.ownerID, m.Revision)
		return metadataFromModel(m), nil
	}
	switch {
	case repositories.IsRevisionMismatch(err):
		return s.storeConflict(ctx, m)
	case repositories.IsNotFound(err):
		// deleted while open, so the commit starts over
		if err := s.repository.CreateSnapshot(ctx, m); err != nil {
			if repositories.IsAlreadyExists(err) {
				return s.storeConflict(ctx, m)
			}
			return nil, fmt.Errorf("failed to create snapshot: %v", err)
		}
		return metadataFromModel(m), nil
	default:
		return nil, fmt.Errorf("failed to update snapshot: %v", err)
	}
}

// storeConflict keeps m as the pending conflict of its snapshot. The
// returned metadata keeps the revision the commit was based on.
func (s *Store) storeConflict(ctx context.Context, m *models.Snapshot) (*snapshots.Metadata, error) {
	conflict := conflictFromModel(uuid.New().String(), m)
	if err := s.repository.CreateConflict(ctx, conflict); err != nil {
		if repositories.IsAlreadyExists(err) {
			s.logger.Info("Rejecting commit of %s for %s at stale revision %d, a conflict is pending", m.UniqueName, s.ownerID, m.Revision)
			return nil, fmt.Errorf("%w: %s", snapshots.ErrConflictPending, m.UniqueName)
		}
		return nil, fmt.Errorf("failed to store conflict: %v", err)
	}
	s.logger.Info("Commit of %s for %s at stale revision %d stored as conflict %s", m.UniqueName, s.ownerID, m.Revision, conflict.ID)
	return metadataFromModel(m), nil
}

func checkSize(md snapshots.Metadata, contents []byte) error {
	if len(contents) > MaxDataSize {
		return fmt.Errorf("%w: contents are %d bytes, limit is %d", snapshots.ErrDataTooLarge, len(contents), MaxDataSize)
	}
	if len(md.CoverImage) > MaxCoverImageSize {
		return fmt.Errorf("%w: cover image is %d bytes, limit is %d", snapshots.ErrDataTooLarge, len(md.CoverImage), MaxCoverImageSize)
	}
	return nil
}

// DiscardAndClose keeps no server state for open snapshots, so there is
// nothing to release.
func (s *Store) DiscardAndClose(ctx context.Context, snapshot *snapshots.Snapshot) error {
	return nil
}

func (s *Store) Delete(ctx context.Context, metadata *snapshots.Metadata) (string, error) {
	if metadata == nil {
		return "", fmt.Errorf("snapshot metadata is nil")
	}
	head, err := s.repository.GetSnapshot(ctx, s.ownerID, metadata.UniqueName)
	if err != nil {
		if repositories.IsNotFound(err) {
			return "", snapshots.ErrSnapshotNotFound
		}
		return "", fmt.Errorf("failed to get snapshot: %v", err)
	}
	if err := s.repository.DeleteSnapshot(ctx, s.ownerID, metadata.UniqueName); err != nil {
		if repositories.IsNotFound(err) {
			return "", snapshots.ErrSnapshotNotFound
		}
		return "", fmt.Errorf("failed to delete snapshot: %v", err)
	}
	if err := s.repository.DeleteConflict(ctx, s.ownerID, metadata.UniqueName); err != nil {
		return "", fmt.Errorf("failed to delete conflict: %v", err)
	}
	s.logger.Debug("Deleted snapshot %s for %s", metadata.UniqueName, s.ownerID)
	return head.ID, nil
}

func (s *Store) ResolveConflict(ctx context.Context, conflictID string, snapshot *snapshots.Snapshot) (*snapshots.DataOrConflict, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	conflict, head, err := s.getConflict(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	if conflict.UniqueName != snapshot.Metadata.UniqueName {
		return nil, fmt.Errorf("conflict %s belongs to %s, not %s", conflictID, conflict.UniqueName, snapshot.Metadata.UniqueName)
	}
	return s.resolve(ctx, conflict, head, snapshot.Metadata, snapshot.Contents)
}

func (s *Store) ResolveConflictByID(ctx context.Context, conflictID string, snapshotID string, change snapshots.MetadataChange, contents []byte) (*snapshots.DataOrConflict, error) {
	conflict, head, err := s.getConflict(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	if head.ID != snapshotID {
		return nil, snapshots.ErrSnapshotNotFound
	}
	md := change.Apply(*metadataFromModel(head))
	return s.resolve(ctx, conflict, head, md, contents)
}

func (s *Store) getConflict(ctx context.Context, conflictID string) (*models.Conflict, *models.Snapshot, error) {
	conflict, err := s.repository.GetConflictByID(ctx, s.ownerID, conflictID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, nil, snapshots.ErrConflictNotFound
		}
		return nil, nil, fmt.Errorf("failed to get conflict: %v", err)
	}
	head, err := s.repository.GetSnapshot(ctx, s.ownerID, conflict.UniqueName)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, nil, snapshots.ErrConflictNotFound
		}
		return nil, nil, fmt.Errorf("failed to get snapshot: %v", err)
	}
	return conflict, head, nil
}

// resolve writes the resolution over head and clears the conflict.
func (s *Store) resolve(ctx context.Context, conflict *models.Conflict, head *models.Snapshot, md snapshots.Metadata, contents []byte) (*snapshots.DataOrConflict, error) {
	if err := checkSize(md, contents); err != nil {
		return nil, err
	}
	md.SnapshotID = head.ID
	md.UniqueName = head.UniqueName

	m := modelFromMetadata(s.ownerID, md, contents)
	if err := s.repository.UpdateSnapshot(ctx, m, head.Revision); err != nil {
		if repositories.IsRevisionMismatch(err) || repositories.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", snapshots.ErrSnapshotChanged, head.UniqueName)
		}
		return nil, fmt.Errorf("failed to write resolution: %v", err)
	}
	if err := s.repository.DeleteConflict(ctx, s.ownerID, head.UniqueName); err != nil {
		return nil, fmt.Errorf("failed to delete conflict: %v", err)
	}
	s.logger.Debug("Resolved conflict %s on %s for %s at revision %d", conflict.ID, head.UniqueName, s.ownerID, m.Revision)
	return &snapshots.DataOrConflict{Data: snapshotFromModel(m)}, nil
}

// Load lists the owner's snapshots. The repository is always read, so
// forceReload has no effect.
func (s *Store) Load(ctx context.Context, forceReload bool) ([]*snapshots.Metadata, error) {
	stored, err := s.repository.ListSnapshots(ctx, s.ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %v", err)
	}
	mds := make([]*snapshots.Metadata, 0, len(stored))
	for _, m := range stored {
		mds = append(mds, metadataFromModel(m))
	}
	return mds, nil
}

func (s *Store) MaxDataSize(ctx context.Context) (int, error) {
	return MaxDataSize, nil
}

func (s *Store) MaxCoverImageSize(ctx context.Context) (int, error) {
	return MaxCoverImageSize, nil
}

func (s *Store) SnapshotFromMessage(payload []byte) (*snapshots.Metadata, error) {
	return snapshots.DecodeMetadataMessage(payload)
}
