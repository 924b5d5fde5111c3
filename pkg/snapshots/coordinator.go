// Package snapshots wraps a cloud snapshot client so that any snapshot can
// only be open once at a time.
//
// Without coordination nothing stops the same snapshot from being opened
// several overlapping times, or an open snapshot from being committed
// twice; both lead to unrecoverable conflicts on the backend. The
// Coordinator enforces that each snapshot is opened at most once before it
// is closed (committed, discarded or deleted), and offers WaitForClosed so
// callers can wait for a snapshot to become available again.
package snapshots

import (
	"context"
	"sync"

	"github.com/cbodonnell/snapsync/pkg/log"
	"github.com/cbodonnell/snapsync/pkg/tasks"
)

// Coordinator is a drop-in wrapper around a Client that tracks which
// snapshots are open or closing. All callers working with the same
// snapshots must share one Coordinator.
//
// Misuse (opening an open snapshot, closing one that is not open, ...) is
// reported synchronously, before any call reaches the client.
type Coordinator struct {
	client Client
	logger *log.Logger

	lock sync.Mutex
	// opened holds a latch per snapshot that is open or opening. The latch
	// is closed when the snapshot closes.
	opened map[string]chan struct{}
	// closing holds the snapshots with a commit, discard or delete in flight.
	closing map[string]struct{}
}

// NewCoordinator creates a Coordinator delegating to client.
func NewCoordinator(client Client) *Coordinator {
	return &Coordinator{
		client:  client,
		logger:  log.Component("coordinator"),
		opened:  make(map[string]chan struct{}),
		closing: make(map[string]struct{}),
	}
}

// IsOpen reports whether the named snapshot is open or opening.
func (c *Coordinator) IsOpen(filename string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.opened[filename]
	return ok
}

// IsClosing reports whether the named snapshot is closing.
func (c *Coordinator) IsClosing(filename string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.closing[filename]
	return ok
}

func (c *Coordinator) setIsOpening(filename string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.opened[filename]; ok {
		return &AlreadyOpenError{Filename: filename}
	}
	if _, ok := c.closing[filename]; ok {
		return &AlreadyClosingError{Filename: filename}
	}
	c.opened[filename] = make(chan struct{})
	return nil
}

func (c *Coordinator) setIsClosing(filename string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.opened[filename]; !ok {
		return &NotOpenError{Filename: filename}
	}
	if _, ok := c.closing[filename]; ok {
		return &AlreadyClosingError{Filename: filename}
	}
	c.closing[filename] = struct{}{}
	return nil
}

func (c *Coordinator) setIsDeleting(filename string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.opened[filename]; ok {
		return &StillOpenError{Filename: filename}
	}
	if _, ok := c.closing[filename]; ok {
		return &AlreadyClosingError{Filename: filename}
	}
	c.closing[filename] = struct{}{}
	return nil
}

// setClosed forgets the snapshot and releases everyone waiting on it.
func (c *Coordinator) setClosed(filename string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.closing, filename)
	if latch, ok := c.opened[filename]; ok {
		delete(c.opened, filename)
		close(latch)
	}
}

// WaitForClosed returns a task that completes when the named snapshot is
// closed. The task is already complete if the snapshot is not open. If
// ctx is done first the task completes with StatusCanceled.
func (c *Coordinator) WaitForClosed(ctx context.Context, filename string) *tasks.Task[Status] {
	c.lock.Lock()
	latch, ok := c.opened[filename]
	c.lock.Unlock()

	if !ok {
		return tasks.FromResult(StatusSuccess)
	}

	source := tasks.NewSource[Status]()
	go func() {
		select {
		case <-latch:
			source.SetResult(StatusSuccess)
		case <-ctx.Done():
			c.logger.Debug("Wait for %s canceled: %v", filename, ctx.Err())
			source.SetResult(StatusCanceled)
		}
	}()
	return source.Task()
}

// The following calls do not involve a specific snapshot and are passed
// straight through to the client.

func (c *Coordinator) Load(ctx context.Context, forceReload bool) ([]*Metadata, error) {
	return c.client.Load(ctx, forceReload)
}

func (c *Coordinator) MaxDataSize(ctx context.Context) (int, error) {
	return c.client.MaxDataSize(ctx)
}

func (c *Coordinator) MaxCoverImageSize(ctx context.Context) (int, error) {
	return c.client.MaxCoverImageSize(ctx)
}

func (c *Coordinator) SnapshotFromMessage(payload []byte) (*Metadata, error) {
	return c.client.SnapshotFromMessage(payload)
}

// Open opens the named snapshot. A failed open leaves the snapshot closed.
// A successful open keeps it open even when the result is a conflict: the
// conflicted session must be discarded before the conflict is resolved.
func (c *Coordinator) Open(ctx context.Context, filename string, createIfNotFound bool, policy ConflictPolicy) (*tasks.Task[*DataOrConflict], error) {
	if err := c.setIsOpening(filename); err != nil {
		return nil, err
	}
	return tasks.Run(ctx, func(ctx context.Context) (*DataOrConflict, error) {
		return c.guardOpen(filename, func() (*DataOrConflict, error) {
			return c.client.Open(ctx, filename, createIfNotFound, policy)
		})
	}), nil
}

// OpenMetadata opens the snapshot described by metadata.
func (c *Coordinator) OpenMetadata(ctx context.Context, metadata *Metadata, policy ConflictPolicy) (*tasks.Task[*DataOrConflict], error) {
	filename := metadata.UniqueName
	if err := c.setIsOpening(filename); err != nil {
		return nil, err
	}
	return tasks.Run(ctx, func(ctx context.Context) (*DataOrConflict, error) {
		return c.guardOpen(filename, func() (*DataOrConflict, error) {
			return c.client.OpenMetadata(ctx, metadata, policy)
		})
	}), nil
}

// guardOpen runs an opening call and closes the snapshot again if the call
// fails or panics.
func (c *Coordinator) guardOpen(filename string, open func() (*DataOrConflict, error)) (*DataOrConflict, error) {
	returned := false
	defer func() {
		if !returned {
			c.setClosed(filename)
		}
	}()
	result, err := open()
	returned = true

	if err != nil {
		c.logger.Error("Open was not a success for filename %s: %v", filename, err)
		c.setClosed(filename)
		return nil, err
	}
	if result.IsConflict() {
		c.logger.Debug("Open successful: %s, but with a conflict", filename)
	} else {
		c.logger.Debug("Open successful: %s", filename)
	}
	return result, nil
}

// CommitAndClose commits the snapshot's contents and closes it. The
// snapshot is closed afterwards whether or not the commit succeeded.
func (c *Coordinator) CommitAndClose(ctx context.Context, snapshot *Snapshot, change MetadataChange) (*tasks.Task[*Metadata], error) {
	filename := snapshot.Metadata.UniqueName
	if err := c.setIsClosing(filename); err != nil {
		return nil, err
	}
	return tasks.Run(ctx, func(ctx context.Context) (*Metadata, error) {
		defer c.setClosed(filename)
		metadata, err := c.client.CommitAndClose(ctx, snapshot, change)
		if err != nil {
			c.logger.Error("CommitAndClose failed for %s: %v", filename, err)
		} else {
			c.logger.Debug("CommitAndClose complete, closing %s", filename)
		}
		return metadata, err
	}), nil
}

// DiscardAndClose throws away any changes to the snapshot and closes it.
func (c *Coordinator) DiscardAndClose(ctx context.Context, snapshot *Snapshot) (*tasks.Task[struct{}], error) {
	filename := snapshot.Metadata.UniqueName
	if err := c.setIsClosing(filename); err != nil {
		return nil, err
	}
	return tasks.Run(ctx, func(ctx context.Context) (struct{}, error) {
		defer c.setClosed(filename)
		err := c.client.DiscardAndClose(ctx, snapshot)
		c.logger.Debug("Closed %s", filename)
		return struct{}{}, err
	}), nil
}

// Delete deletes a snapshot that is not open.
func (c *Coordinator) Delete(ctx context.Context, metadata *Metadata) (*tasks.Task[string], error) {
	filename := metadata.UniqueName
	if err := c.setIsDeleting(filename); err != nil {
		return nil, err
	}
	return tasks.Run(ctx, func(ctx context.Context) (string, error) {
		// deleted files are closed.
		defer c.setClosed(filename)
		snapshotID, err := c.client.Delete(ctx, metadata)
		if err != nil {
			c.logger.Error("Delete failed for %s: %v", filename, err)
		} else {
			c.logger.Debug("Deleted %s", filename)
		}
		return snapshotID, err
	}), nil
}

// ResolveConflict resolves a conflict using the given snapshot, reopening
// it. The snapshot must not be open. On success the snapshot stays open and
// must be committed or discarded.
func (c *Coordinator) ResolveConflict(ctx context.Context, conflictID string, snapshot *Snapshot) (*tasks.Task[*DataOrConflict], error) {
	filename := snapshot.Metadata.UniqueName
	if err := c.setIsOpening(filename); err != nil {
		return nil, err
	}
	return tasks.Run(ctx, func(ctx context.Context) (*DataOrConflict, error) {
		c.logger.Debug("Resolving conflict %s for %s", conflictID, filename)
		return c.guardOpen(filename, func() (*DataOrConflict, error) {
			return c.client.ResolveConflict(ctx, conflictID, snapshot)
		})
	}), nil
}

// ResolveConflictByID is not supported: without the snapshot's unique name
// its open state cannot be tracked. Use ResolveConflict instead.
func (c *Coordinator) ResolveConflictByID(ctx context.Context, conflictID string, snapshotID string, change MetadataChange, contents []byte) (*tasks.Task[*DataOrConflict], error) {
	return nil, &ConflictIdentifierUnsupportedError{ConflictID: conflictID}
}
