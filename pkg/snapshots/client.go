package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client is a cloud snapshot storage client. Calls block until the
// backend answers or ctx is done; the Coordinator turns them into tasks.
type Client interface {
	Open(ctx context.Context, name string, createIfNotFound bool, policy ConflictPolicy) (*DataOrConflict, error)
	OpenMetadata(ctx context.Context, metadata *Metadata, policy ConflictPolicy) (*DataOrConflict, error)
	CommitAndClose(ctx context.Context, snapshot *Snapshot, change MetadataChange) (*Metadata, error)
	DiscardAndClose(ctx context.Context, snapshot *Snapshot) error
	// Delete removes the snapshot and returns its snapshot ID.
	Delete(ctx context.Context, metadata *Metadata) (string, error)
	ResolveConflict(ctx context.Context, conflictID string, snapshot *Snapshot) (*DataOrConflict, error)
	ResolveConflictByID(ctx context.Context, conflictID string, snapshotID string, change MetadataChange, contents []byte) (*DataOrConflict, error)
	Load(ctx context.Context, forceReload bool) ([]*Metadata, error)
	MaxDataSize(ctx context.Context) (int, error)
	MaxCoverImageSize(ctx context.Context) (int, error)
	// SnapshotFromMessage extracts snapshot metadata delivered in a message,
	// such as a push notification or a selection result.
	SnapshotFromMessage(payload []byte) (*Metadata, error)
}

// EncodeMetadataMessage encodes metadata in the format understood by
// DecodeMetadataMessage.
func EncodeMetadataMessage(metadata *Metadata) ([]byte, error) {
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot metadata: %v", err)
	}
	return b, nil
}

// DecodeMetadataMessage decodes metadata from a message payload.
func DecodeMetadataMessage(payload []byte) (*Metadata, error) {
	metadata := &Metadata{}
	if err := json.Unmarshal(payload, metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot metadata: %v", err)
	}
	if metadata.UniqueName == "" {
		return nil, fmt.Errorf("snapshot metadata is missing a unique name")
	}
	return metadata, nil
}
