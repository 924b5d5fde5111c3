package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbodonnell/snapsync/pkg/log"
	"github.com/cbodonnell/snapsync/pkg/savegame"
	"github.com/cbodonnell/snapsync/pkg/snapshots"
	"github.com/cbodonnell/snapsync/pkg/state"
	"github.com/cbodonnell/snapsync/pkg/tasks"
)

// MaxResolveRetries bounds how many conflicts one sync resolves before
// giving up. It also bounds how often a sync starts over because the
// snapshot moved on while it was being written.
const MaxResolveRetries = 3

// DefaultClosingRetryDelay is how long the worker waits before opening again
// when the slot is being deleted.
const DefaultClosingRetryDelay = 100 * time.Millisecond

var ErrTooManyConflicts = errors.New("too many conflicts while syncing")

// SyncWorker reconciles the local progress with a cloud snapshot slot.
// Both sides are merged with savegame.UnionWith, so no stars are lost
// whichever device saved last.
type SyncWorker struct {
	coordinator *snapshots.Coordinator
	progress    state.ProgressManager
	slot        string
	syncChan    <-chan SyncRequest
	interval    time.Duration
	retryDelay  time.Duration
	now         func() time.Time
	after       func(time.Duration) <-chan time.Time
	logger      *log.Logger
}

type NewSyncWorkerOptions struct {
	Coordinator *snapshots.Coordinator
	Progress    state.ProgressManager
	// Slot is the unique name of the snapshot holding the progress.
	Slot     string
	SyncChan <-chan SyncRequest
	Interval time.Duration
	// ClosingRetryDelay defaults to DefaultClosingRetryDelay.
	ClosingRetryDelay time.Duration
	// Now overrides the clock used for snapshot descriptions.
	Now func() time.Time
}

// SyncRequest asks a running worker to sync now. The outcome is sent on
// Result when it is not nil.
type SyncRequest struct {
	Result chan<- error
}

// NewSyncWorker creates a new SyncWorker.
// The worker syncs on every request and periodically when started.
func NewSyncWorker(opts NewSyncWorkerOptions) *SyncWorker {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	retryDelay := opts.ClosingRetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultClosingRetryDelay
	}
	return &SyncWorker{
		coordinator: opts.Coordinator,
		progress:    opts.Progress,
		slot:        opts.Slot,
		syncChan:    opts.SyncChan,
		interval:    opts.Interval,
		retryDelay:  retryDelay,
		now:         now,
		after:       time.After,
		logger:      log.Component("sync"),
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.syncChan:
			err := w.Sync(ctx)
			if err != nil {
				w.logger.Error("Failed to sync %s: %v", w.slot, err)
			}
			if req.Result != nil {
				req.Result <- err
			}
		case <-tick:
			if err := w.Sync(ctx); err != nil {
				w.logger.Error("Failed to sync %s: %v", w.slot, err)
			}
		}
	}
}

// Sync waits for the slot to close, opens it, resolves any conflict by
// merging both versions, merges the result with the local progress and
// writes the merge to both sides. If another device writes the snapshot
// in the meantime, the sync starts over.
func (w *SyncWorker) Sync(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		err := w.sync(ctx)
		if !snapshots.IsRetryable(err) {
			return err
		}
		if attempt >= MaxResolveRetries {
			return fmt.Errorf("%w: %v", ErrTooManyConflicts, err)
		}
		w.logger.Info("%s changed while syncing, starting over: %v", w.slot, err)
	}
}

func (w *SyncWorker) sync(ctx context.Context) error {
	openTask, err := w.open(ctx)
	if err != nil {
		return err
	}
	res, err := w.await(ctx, openTask)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", w.slot, err)
	}

	for retries := 0; res.IsConflict(); retries++ {
		if retries >= MaxResolveRetries {
			w.discard(ctx, res.Conflict.Snapshot)
			return ErrTooManyConflicts
		}
		res, err = w.resolve(ctx, res.Conflict)
		if err != nil {
			return err
		}
	}

	snapshot := res.Data
	local, err := w.progress.Get(ctx)
	if err != nil {
		w.discard(ctx, snapshot)
		return fmt.Errorf("failed to get local progress: %v", err)
	}
	merged := local.UnionWith(savegame.FromBytes(snapshot.Contents))
	if err := w.progress.Set(ctx, merged); err != nil {
		w.discard(ctx, snapshot)
		return fmt.Errorf("failed to set local progress: %v", err)
	}

	snapshot.Contents = merged.Bytes()
	description := fmt.Sprintf("Modified data at: %s", w.now().Format(time.RFC1123))
	progressValue := int64(merged.TotalStars())
	commitTask, err := w.coordinator.CommitAndClose(ctx, snapshot, snapshots.MetadataChange{
		Description:   &description,
		ProgressValue: &progressValue,
	})
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", w.slot, err)
	}
	md, err := commitTask.Await(ctx)
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", w.slot, err)
	}
	w.logger.Debug("Synced %s at revision %d with %d stars", w.slot, md.Revision, progressValue)
	return nil
}

// open waits for the slot to close and opens it. Another caller may open
// the slot between the two, in which case it waits again. A slot being
// deleted is not open, so WaitForClosed does not block on it and the
// worker polls every retryDelay instead.
func (w *SyncWorker) open(ctx context.Context) (*tasks.Task[*snapshots.DataOrConflict], error) {
	for {
		status, err := w.coordinator.WaitForClosed(ctx, w.slot).Await(ctx)
		if err != nil {
			return nil, err
		}
		if status == snapshots.StatusCanceled {
			return nil, fmt.Errorf("wait for %s was canceled: %w", w.slot, ctx.Err())
		}

		openTask, err := w.coordinator.Open(ctx, w.slot, true, snapshots.ConflictPolicyManual)
		if snapshots.IsAlreadyOpen(err) {
			w.logger.Debug("%s was taken before it could be opened, waiting again", w.slot)
			continue
		}
		if snapshots.IsAlreadyClosing(err) {
			w.logger.Debug("%s is closing, retrying in %s", w.slot, w.retryDelay)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("wait for %s was canceled: %w", w.slot, ctx.Err())
			case <-w.after(w.retryDelay):
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", w.slot, err)
		}
		return openTask, nil
	}
}

// resolve settles a conflict with the union of both versions. The
// conflicted session is closed first since resolving reopens the slot.
func (w *SyncWorker) resolve(ctx context.Context, conflict *snapshots.Conflict) (*snapshots.DataOrConflict, error) {
	merged := savegame.FromBytes(conflict.Snapshot.Contents).
		UnionWith(savegame.FromBytes(conflict.ConflictingSnapshot.Contents))
	w.logger.Info("Resolving conflict %s on %s", conflict.ConflictID, w.slot)

	discardTask, err := w.coordinator.DiscardAndClose(ctx, conflict.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to close conflicted %s: %w", w.slot, err)
	}
	if _, err := discardTask.Await(ctx); err != nil {
		return nil, fmt.Errorf("failed to close conflicted %s: %w", w.slot, err)
	}

	resolution := *conflict.Snapshot
	resolution.Contents = merged.Bytes()
	resolveTask, err := w.coordinator.ResolveConflict(ctx, conflict.ConflictID, &resolution)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conflict on %s: %w", w.slot, err)
	}
	res, err := w.await(ctx, resolveTask)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conflict on %s: %w", w.slot, err)
	}
	return res, nil
}

// await waits for an open or resolve task. If ctx ends first, the
// session is discarded once the task completes so the slot does not stay
// open.
func (w *SyncWorker) await(ctx context.Context, task *tasks.Task[*snapshots.DataOrConflict]) (*snapshots.DataOrConflict, error) {
	res, err := task.Await(ctx)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		task.OnComplete(func(res *snapshots.DataOrConflict, err error) {
			if err != nil {
				return
			}
			if res.IsConflict() {
				w.discard(context.Background(), res.Conflict.Snapshot)
			} else {
				w.discard(context.Background(), res.Data)
			}
		})
	}
	return nil, err
}

// discard closes the slot without writing.
func (w *SyncWorker) discard(ctx context.Context, snapshot *snapshots.Snapshot) {
	discardTask, err := w.coordinator.DiscardAndClose(ctx, snapshot)
	if err != nil {
		w.logger.Error("Failed to discard %s: %v", w.slot, err)
		return
	}
	if _, err := discardTask.Await(ctx); err != nil {
		w.logger.Error("Failed to discard %s: %v", w.slot, err)
	}
}
