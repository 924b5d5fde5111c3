package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cbodonnell/snapsync/pkg/repositories"
	"github.com/cbodonnell/snapsync/pkg/repositories/models"
	"github.com/cbodonnell/snapsync/pkg/snapshots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(repo repositories.Repository, ownerID string) *Store {
	return NewStore(NewStoreOptions{
		Repository: repo,
		OwnerID:    ownerID,
		Now:        tickingClock(),
	})
}

func ptr[T any](v T) *T {
	return &v
}

func openData(t *testing.T, s *Store, name string) *snapshots.Snapshot {
	t.Helper()
	res, err := s.Open(context.Background(), name, true, snapshots.ConflictPolicyManual)
	require.NoError(t, err)
	require.False(t, res.IsConflict())
	return res.Data
}

func commit(t *testing.T, s *Store, snapshot *snapshots.Snapshot, contents string, change snapshots.MetadataChange) *snapshots.Metadata {
	t.Helper()
	snapshot.Contents = []byte(contents)
	md, err := s.CommitAndClose(context.Background(), snapshot, change)
	require.NoError(t, err)
	return md
}

// divergentCommits leaves "save" with a pending conflict: the head holds
// "server" and the pending write holds "pending".
func divergentCommits(t *testing.T, s *Store, server, pending snapshots.MetadataChange) {
	t.Helper()
	commit(t, s, openData(t, s, "save"), "base", snapshots.MetadataChange{})

	a := openData(t, s, "save")
	b := openData(t, s, "save")
	commit(t, s, a, "server", server)
	commit(t, s, b, "pending", pending)
}

func TestStore_OpenNotFound(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")

	_, err := s.Open(context.Background(), "save", false, snapshots.DefaultConflictPolicy)
	assert.ErrorIs(t, err, snapshots.ErrSnapshotNotFound)

	res, err := s.Open(context.Background(), "save", true, snapshots.DefaultConflictPolicy)
	require.NoError(t, err)
	assert.Equal(t, "save", res.Data.Metadata.UniqueName)
	assert.Equal(t, int64(0), res.Data.Metadata.Revision)
	assert.NotEmpty(t, res.Data.Metadata.SnapshotID)
	assert.Empty(t, res.Data.Contents)

	// opening does not store anything
	mds, err := s.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, mds)
}

func TestStore_OpenInvalid(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")

	_, err := s.Open(context.Background(), "", true, snapshots.DefaultConflictPolicy)
	assert.Error(t, err)
	_, err = s.Open(context.Background(), "save", true, snapshots.ConflictPolicy(42))
	assert.Error(t, err)
}

func TestStore_CommitAndOpen(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")

	snapshot := openData(t, s, "save")
	md := commit(t, s, snapshot, "progress", snapshots.MetadataChange{
		Description:   ptr("Stars: 3"),
		PlayedTime:    ptr(90 * time.Second),
		ProgressValue: ptr(int64(3)),
	})
	assert.Equal(t, int64(1), md.Revision)
	assert.Equal(t, snapshot.Metadata.SnapshotID, md.SnapshotID)

	reopened := openData(t, s, "save")
	assert.Equal(t, []byte("progress"), reopened.Contents)
	assert.Equal(t, "Stars: 3", reopened.Metadata.Description)
	assert.Equal(t, 90*time.Second, reopened.Metadata.PlayedTime)
	assert.Equal(t, int64(3), reopened.Metadata.ProgressValue)
	assert.Equal(t, int64(1), reopened.Metadata.Revision)
	assert.False(t, reopened.Metadata.LastModified.IsZero())

	md = commit(t, s, reopened, "more progress", snapshots.MetadataChange{})
	assert.Equal(t, int64(2), md.Revision)
	assert.Equal(t, "Stars: 3", md.Description)
}

func TestStore_OwnersAreIsolated(t *testing.T) {
	repo := repositories.NewInMemoryRepository()
	alice := newTestStore(repo, "alice")
	bob := newTestStore(repo, "bob")

	commit(t, alice, openData(t, alice, "save"), "alice's", snapshots.MetadataChange{})

	_, err := bob.Open(context.Background(), "save", false, snapshots.DefaultConflictPolicy)
	assert.ErrorIs(t, err, snapshots.ErrSnapshotNotFound)
}

func TestStore_CommitTooLarge(t *testing.T) {
	tests := []struct {
		name     string
		contents []byte
		change   snapshots.MetadataChange
	}{
		{name: "contents", contents: make([]byte, MaxDataSize+1)},
		{name: "cover image", change: snapshots.MetadataChange{CoverImage: make([]byte, MaxCoverImageSize+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(repositories.NewInMemoryRepository(), "alice")
			snapshot := openData(t, s, "save")
			snapshot.Contents = tt.contents
			_, err := s.CommitAndClose(context.Background(), snapshot, tt.change)
			assert.ErrorIs(t, err, snapshots.ErrDataTooLarge)
		})
	}
}

func TestStore_StaleCommitBecomesConflict(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")
	divergentCommits(t, s, snapshots.MetadataChange{}, snapshots.MetadataChange{})

	res, err := s.Open(context.Background(), "save", false, snapshots.ConflictPolicyManual)
	require.NoError(t, err)
	require.True(t, res.IsConflict())
	assert.NotEmpty(t, res.Conflict.ConflictID)
	assert.Equal(t, []byte("server"), res.Conflict.Snapshot.Contents)
	assert.Equal(t, []byte("pending"), res.Conflict.ConflictingSnapshot.Contents)
	assert.Equal(t, res.Conflict.Snapshot.Metadata.SnapshotID, res.Conflict.ConflictingSnapshot.Metadata.SnapshotID)

	// the conflict stays until resolved
	again, err := s.Open(context.Background(), "save", false, snapshots.ConflictPolicyManual)
	require.NoError(t, err)
	require.True(t, again.IsConflict())
	assert.Equal(t, res.Conflict.ConflictID, again.Conflict.ConflictID)
}

func TestStore_CreateRaceBecomesConflict(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")
	a := openData(t, s, "save")
	b := openData(t, s, "save")
	commit(t, s, a, "first", snapshots.MetadataChange{})
	commit(t, s, b, "second", snapshots.MetadataChange{})

	res, err := s.Open(context.Background(), "save", false, snapshots.ConflictPolicyManual)
	require.NoError(t, err)
	require.True(t, res.IsConflict())
	assert.Equal(t, []byte("first"), res.Conflict.Snapshot.Contents)
	assert.Equal(t, []byte("second"), res.Conflict.ConflictingSnapshot.Contents)
}

func TestStore_ConflictPolicies(t *testing.T) {
	tests := []struct {
		name    string
		policy  snapshots.ConflictPolicy
		server  snapshots.MetadataChange
		pending snapshots.MetadataChange
		want    string
	}{
		{
			name:   "most recently modified",
			policy: snapshots.ConflictPolicyMostRecentlyModified,
			want:   "pending",
		},
		{
			name:   "last known good",
			policy: snapshots.ConflictPolicyLastKnownGood,
			want:   "server",
		},
		{
			name:    "longest playtime keeps server",
			policy:  snapshots.ConflictPolicyLongestPlaytime,
			server:  snapshots.MetadataChange{PlayedTime: ptr(time.Hour)},
			pending: snapshots.MetadataChange{PlayedTime: ptr(time.Minute)},
			want:    "server",
		},
		{
			name:    "longest playtime takes pending",
			policy:  snapshots.ConflictPolicyLongestPlaytime,
			server:  snapshots.MetadataChange{PlayedTime: ptr(time.Minute)},
			pending: snapshots.MetadataChange{PlayedTime: ptr(time.Hour)},
			want:    "pending",
		},
		{
			name:    "highest progress",
			policy:  snapshots.ConflictPolicyHighestProgress,
			server:  snapshots.MetadataChange{ProgressValue: ptr(int64(10))},
			pending: snapshots.MetadataChange{ProgressValue: ptr(int64(4))},
			want:    "server",
		},
		{
			name:    "highest progress tie keeps server",
			policy:  snapshots.ConflictPolicyHighestProgress,
			server:  snapshots.MetadataChange{ProgressValue: ptr(int64(4))},
			pending: snapshots.MetadataChange{ProgressValue: ptr(int64(4))},
			want:    "server",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(repositories.NewInMemoryRepository(), "alice")
			divergentCommits(t, s, tt.server, tt.pending)

			res, err := s.Open(context.Background(), "save", false, tt.policy)
			require.NoError(t, err)
			require.False(t, res.IsConflict())
			assert.Equal(t, []byte(tt.want), res.Data.Contents)
			assert.Equal(t, int64(3), res.Data.Metadata.Revision)

			// resolved for good
			reopened := openData(t, s, "save")
			assert.Equal(t, []byte(tt.want), reopened.Contents)
		})
	}
}

func TestStore_ResolveConflict(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")
	divergentCommits(t, s, snapshots.MetadataChange{}, snapshots.MetadataChange{})

	res, err := s.Open(context.Background(), "save", false, snapshots.ConflictPolicyManual)
	require.NoError(t, err)
	require.True(t, res.IsConflict())

	merged := *res.Conflict.Snapshot
	merged.Contents = []byte("merged")
	resolved, err := s.ResolveConflict(context.Background(), res.Conflict.ConflictID, &merged)
	require.NoError(t, err)
	require.False(t, resolved.IsConflict())
	assert.Equal(t, []byte("merged"), resolved.Data.Contents)

	// the resolution can be committed on top
	md := commit(t, s, resolved.Data, "after", snapshots.MetadataChange{})
	assert.Equal(t, resolved.Data.Metadata.Revision+1, md.Revision)

	_, err = s.ResolveConflict(context.Background(), res.Conflict.ConflictID, &merged)
	assert.ErrorIs(t, err, snapshots.ErrConflictNotFound)
}

func TestStore_ResolveConflictWrongSnapshot(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")
	divergentCommits(t, s, snapshots.MetadataChange{}, snapshots.MetadataChange{})

	res, err := s.Open(context.Background(), "save", false, snapshots.ConflictPolicyManual)
	require.NoError(t, err)
	require.True(t, res.IsConflict())

	other := &snapshots.Snapshot{Metadata: snapshots.Metadata{UniqueName: "other"}}
	_, err = s.ResolveConflict(context.Background(), res.Conflict.ConflictID, other)
	assert.Error(t, err)
}

func TestStore_ResolveConflictByID(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")
	divergentCommits(t, s, snapshots.MetadataChange{}, snapshots.MetadataChange{})

	res, err := s.Open(context.Background(), "save", false, snapshots.ConflictPolicyManual)
	require.NoError(t, err)
	require.True(t, res.IsConflict())
	conflictID := res.Conflict.ConflictID
	snapshotID := res.Conflict.Snapshot.Metadata.SnapshotID

	_, err = s.ResolveConflictByID(context.Background(), conflictID, "unknown", snapshots.MetadataChange{}, nil)
	assert.ErrorIs(t, err, snapshots.ErrSnapshotNotFound)

	resolved, err := s.ResolveConflictByID(context.Background(), conflictID, snapshotID,
		snapshots.MetadataChange{Description: ptr("merged")}, []byte("merged"))
	require.NoError(t, err)
	assert.Equal(t, []byte("merged"), resolved.Data.Contents)
	assert.Equal(t, "merged", resolved.Data.Metadata.Description)

	_, err = s.ResolveConflictByID(context.Background(), conflictID, snapshotID, snapshots.MetadataChange{}, nil)
	assert.ErrorIs(t, err, snapshots.ErrConflictNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")
	divergentCommits(t, s, snapshots.MetadataChange{}, snapshots.MetadataChange{})
	mds, err := s.Load(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, mds, 1)
	head := mds[0]

	_, err = s.Delete(context.Background(), &snapshots.Metadata{UniqueName: "missing"})
	assert.ErrorIs(t, err, snapshots.ErrSnapshotNotFound)

	id, err := s.Delete(context.Background(), head)
	require.NoError(t, err)
	assert.Equal(t, head.SnapshotID, id)

	_, err = s.Open(context.Background(), "save", false, snapshots.ConflictPolicyManual)
	assert.ErrorIs(t, err, snapshots.ErrSnapshotNotFound)

	// the pending conflict went with it
	fresh := openData(t, s, "save")
	assert.Equal(t, int64(0), fresh.Metadata.Revision)
	commit(t, s, fresh, "fresh", snapshots.MetadataChange{})
	assert.Equal(t, []byte("fresh"), openData(t, s, "save").Contents)
}

func TestStore_CommitAfterDelete(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")
	commit(t, s, openData(t, s, "save"), "base", snapshots.MetadataChange{})
	open := openData(t, s, "save")

	_, err := s.Delete(context.Background(), &open.Metadata)
	require.NoError(t, err)

	md := commit(t, s, open, "revived", snapshots.MetadataChange{})
	assert.Equal(t, int64(1), md.Revision)
	assert.Equal(t, []byte("revived"), openData(t, s, "save").Contents)
}

func TestStore_Load(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")
	commit(t, s, openData(t, s, "b"), "b", snapshots.MetadataChange{})
	commit(t, s, openData(t, s, "a"), "a", snapshots.MetadataChange{Description: ptr("first slot")})

	mds, err := s.Load(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, mds, 2)
	assert.Equal(t, "a", mds[0].UniqueName)
	assert.Equal(t, "first slot", mds[0].Description)
	assert.Equal(t, "b", mds[1].UniqueName)
}

func TestStore_Limits(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")

	n, err := s.MaxDataSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3*1024*1024, n)

	n, err = s.MaxCoverImageSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 800*1024, n)
}

func TestStore_SnapshotFromMessage(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")

	payload, err := snapshots.EncodeMetadataMessage(&snapshots.Metadata{UniqueName: "save", Revision: 4})
	require.NoError(t, err)
	md, err := s.SnapshotFromMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, "save", md.UniqueName)
	assert.Equal(t, int64(4), md.Revision)

	_, err = s.SnapshotFromMessage([]byte(`{}`))
	assert.Error(t, err)
}

func TestStore_SQLite(t *testing.T) {
	repo, err := repositories.NewSQLiteRepository(context.Background(), ":memory:")
	require.NoError(t, err)
	defer repo.Close(context.Background())

	s := newTestStore(repo, "alice")
	divergentCommits(t, s, snapshots.MetadataChange{}, snapshots.MetadataChange{})

	res, err := s.Open(context.Background(), "save", false, snapshots.ConflictPolicyMostRecentlyModified)
	require.NoError(t, err)
	require.False(t, res.IsConflict())
	assert.Equal(t, []byte("pending"), res.Data.Contents)
}

func TestStore_WrappedByCoordinator(t *testing.T) {
	s := newTestStore(repositories.NewInMemoryRepository(), "alice")
	c := snapshots.NewCoordinator(s)
	ctx := context.Background()

	open, err := c.Open(ctx, "save", true, snapshots.DefaultConflictPolicy)
	require.NoError(t, err)
	res, err := open.Await(ctx)
	require.NoError(t, err)

	_, err = c.Open(ctx, "save", true, snapshots.DefaultConflictPolicy)
	assert.True(t, snapshots.IsAlreadyOpen(err))

	res.Data.Contents = []byte("progress")
	committed, err := c.CommitAndClose(ctx, res.Data, snapshots.MetadataChange{})
	require.NoError(t, err)
	md, err := committed.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), md.Revision)
	assert.False(t, c.IsOpen("save"))

	_, err = s.Open(ctx, "missing", false, snapshots.DefaultConflictPolicy)
	assert.True(t, errors.Is(err, snapshots.ErrSnapshotNotFound))
}

func TestStore_SecondStaleCommitIsRejected(t *testing.T) {
	sqlite, err := repositories.NewSQLiteRepository(context.Background(), ":memory:")
	require.NoError(t, err)
	defer sqlite.Close(context.Background())

	repos := map[string]repositories.Repository{
		"memory": repositories.NewInMemoryRepository(),
		"sqlite": sqlite,
	}
	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestStore(repo, "alice")
			commit(t, s, openData(t, s, "save"), "base", snapshots.MetadataChange{})

			// three devices open the same revision
			a := openData(t, s, "save")
			b := openData(t, s, "save")
			c := openData(t, s, "save")
			commit(t, s, a, "device-a", snapshots.MetadataChange{})
			commit(t, s, b, "device-b", snapshots.MetadataChange{})

			c.Contents = []byte("device-c")
			_, err := s.CommitAndClose(ctx, c, snapshots.MetadataChange{})
			assert.ErrorIs(t, err, snapshots.ErrConflictPending)
			assert.True(t, snapshots.IsRetryable(err))

			// device b's write is still the pending one
			res, err := s.Open(ctx, "save", false, snapshots.ConflictPolicyManual)
			require.NoError(t, err)
			require.True(t, res.IsConflict())
			assert.Equal(t, []byte("device-a"), res.Conflict.Snapshot.Contents)
			assert.Equal(t, []byte("device-b"), res.Conflict.ConflictingSnapshot.Contents)

			// device c merges all three and commits on top of the resolution
			merged := *res.Conflict.Snapshot
			merged.Contents = []byte("device-a+b")
			resolved, err := s.ResolveConflict(ctx, res.Conflict.ConflictID, &merged)
			require.NoError(t, err)
			commit(t, s, resolved.Data, "device-a+b+c", snapshots.MetadataChange{})

			assert.Equal(t, []byte("device-a+b+c"), openData(t, s, "save").Contents)
		})
	}
}

// racingRepository writes the snapshot once right before the first update
// it forwards, as another device committing at the same moment would.
type racingRepository struct {
	repositories.Repository
	raced bool
}

func (r *racingRepository) UpdateSnapshot(ctx context.Context, snapshot *models.Snapshot, expectedRevision int64) error {
	if !r.raced {
		r.raced = true
		head, err := r.Repository.GetSnapshot(ctx, snapshot.OwnerID, snapshot.UniqueName)
		if err != nil {
			return err
		}
		head.Data = []byte("racing")
		if err := r.Repository.UpdateSnapshot(ctx, head, head.Revision); err != nil {
			return err
		}
	}
	return r.Repository.UpdateSnapshot(ctx, snapshot, expectedRevision)
}

func TestStore_ResolveRacingCommit(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewInMemoryRepository()
	divergentCommits(t, newTestStore(repo, "alice"), snapshots.MetadataChange{}, snapshots.MetadataChange{})

	s := newTestStore(&racingRepository{Repository: repo}, "alice")
	res, err := s.Open(ctx, "save", false, snapshots.ConflictPolicyManual)
	require.NoError(t, err)
	require.True(t, res.IsConflict())

	merged := *res.Conflict.Snapshot
	merged.Contents = []byte("merged")
	_, err = s.ResolveConflict(ctx, res.Conflict.ConflictID, &merged)
	assert.ErrorIs(t, err, snapshots.ErrSnapshotChanged)
	assert.True(t, snapshots.IsRetryable(err))

	// the conflict is still pending against the new head
	res, err = s.Open(ctx, "save", false, snapshots.ConflictPolicyManual)
	require.NoError(t, err)
	require.True(t, res.IsConflict())
	assert.Equal(t, []byte("racing"), res.Conflict.Snapshot.Contents)
	assert.Equal(t, []byte("pending"), res.Conflict.ConflictingSnapshot.Contents)

	merged = *res.Conflict.Snapshot
	merged.Contents = []byte("merged")
	resolved, err := s.ResolveConflict(ctx, res.Conflict.ConflictID, &merged)
	require.NoError(t, err)
	assert.Equal(t, []byte("merged"), resolved.Data.Contents)
}
