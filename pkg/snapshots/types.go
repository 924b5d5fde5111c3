package snapshots

import (
	"time"
)

// ConflictPolicy selects how the storage backend handles a pending
// conflict when a snapshot is opened. The values match the resolution
// policies of the Play Games snapshots API.
type ConflictPolicy int

const (
	// ConflictPolicyManual returns the conflict to the caller.
	ConflictPolicyManual ConflictPolicy = -1
	// ConflictPolicyLongestPlaytime keeps the version with the larger played time.
	ConflictPolicyLongestPlaytime ConflictPolicy = 1
	// ConflictPolicyLastKnownGood keeps the version already stored on the server.
	ConflictPolicyLastKnownGood ConflictPolicy = 2
	// ConflictPolicyMostRecentlyModified keeps the most recently modified version.
	ConflictPolicyMostRecentlyModified ConflictPolicy = 3
	// ConflictPolicyHighestProgress keeps the version with the higher progress value.
	ConflictPolicyHighestProgress ConflictPolicy = 4

	DefaultConflictPolicy = ConflictPolicyMostRecentlyModified
)

func (p ConflictPolicy) String() string {
	switch p {
	case ConflictPolicyManual:
		return "manual"
	case ConflictPolicyLongestPlaytime:
		return "longest-playtime"
	case ConflictPolicyLastKnownGood:
		return "last-known-good"
	case ConflictPolicyMostRecentlyModified:
		return "most-recently-modified"
	case ConflictPolicyHighestProgress:
		return "highest-progress"
	default:
		return "unknown"
	}
}

func (p ConflictPolicy) Valid() bool {
	return p.String() != "unknown"
}

// Metadata describes a stored snapshot.
type Metadata struct {
	SnapshotID    string        `json:"snapshotId,omitempty"`
	UniqueName    string        `json:"uniqueName"`
	Description   string        `json:"description,omitempty"`
	PlayedTime    time.Duration `json:"playedTime,omitempty"`
	ProgressValue int64         `json:"progressValue,omitempty"`
	LastModified  time.Time     `json:"lastModified"`
	// Revision is the server revision the snapshot was read at. Zero means
	// the snapshot has never been committed.
	Revision   int64  `json:"revision"`
	CoverImage []byte `json:"coverImage,omitempty"`
}

// MetadataChange lists the metadata fields to update on commit. Nil
// fields are left unchanged.
type MetadataChange struct {
	Description   *string        `json:"description,omitempty"`
	PlayedTime    *time.Duration `json:"playedTime,omitempty"`
	ProgressValue *int64         `json:"progressValue,omitempty"`
	CoverImage    []byte         `json:"coverImage,omitempty"`
}

// Apply returns a copy of md with the change applied.
func (c MetadataChange) Apply(md Metadata) Metadata {
	if c.Description != nil {
		md.Description = *c.Description
	}
	if c.PlayedTime != nil {
		md.PlayedTime = *c.PlayedTime
	}
	if c.ProgressValue != nil {
		md.ProgressValue = *c.ProgressValue
	}
	if c.CoverImage != nil {
		md.CoverImage = append([]byte(nil), c.CoverImage...)
	}
	return md
}

// Snapshot is an open saved game: its metadata and its contents.
type Snapshot struct {
	Metadata Metadata `json:"metadata"`
	Contents []byte   `json:"contents,omitempty"`
}

// Conflict is reported when two divergent versions of a snapshot exist.
// Snapshot is the version currently on the server; ConflictingSnapshot is
// the version that was committed against a stale revision.
type Conflict struct {
	ConflictID          string    `json:"conflictId"`
	Snapshot            *Snapshot `json:"snapshot"`
	ConflictingSnapshot *Snapshot `json:"conflictingSnapshot"`
}

// DataOrConflict is the result of opening a snapshot or resolving a
// conflict. Exactly one of Data and Conflict is set.
type DataOrConflict struct {
	Data     *Snapshot `json:"data,omitempty"`
	Conflict *Conflict `json:"conflict,omitempty"`
}

func (r *DataOrConflict) IsConflict() bool {
	return r != nil && r.Conflict != nil
}

// Status is the outcome of waiting for a snapshot to close.
type Status int

const (
	StatusSuccess Status = iota
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}
