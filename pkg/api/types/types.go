// Package types holds the request and response bodies of the snapshot API.
package types

import "github.com/cbodonnell/snapsync/pkg/snapshots"

type OpenRequest struct {
	CreateIfNotFound bool                     `json:"createIfNotFound"`
	ConflictPolicy   snapshots.ConflictPolicy `json:"conflictPolicy"`
}

type CommitRequest struct {
	Snapshot *snapshots.Snapshot      `json:"snapshot"`
	Change   snapshots.MetadataChange `json:"change"`
}

type ResolveRequest struct {
	ConflictID string              `json:"conflictId"`
	Snapshot   *snapshots.Snapshot `json:"snapshot"`
}

type ResolveByIDRequest struct {
	SnapshotID string                   `json:"snapshotId"`
	Change     snapshots.MetadataChange `json:"change"`
	Contents   []byte                   `json:"contents,omitempty"`
}

type DeleteResponse struct {
	SnapshotID string `json:"snapshotId"`
}

type LimitsResponse struct {
	MaxDataSize       int `json:"maxDataSize"`
	MaxCoverImageSize int `json:"maxCoverImageSize"`
}

type ErrorCode string

const (
	ErrorCodeSnapshotNotFound ErrorCode = "snapshot_not_found"
	ErrorCodeConflictNotFound ErrorCode = "conflict_not_found"
	ErrorCodeConflictPending  ErrorCode = "conflict_pending"
	ErrorCodeSnapshotChanged  ErrorCode = "snapshot_changed"
	ErrorCodeDataTooLarge     ErrorCode = "data_too_large"
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeInternal         ErrorCode = "internal"
)

// ErrorResponse is the body of every non-2xx response of the snapshot routes.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
