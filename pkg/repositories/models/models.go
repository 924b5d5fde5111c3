package models

// Snapshot is the stored head version of a player's snapshot.
type Snapshot struct {
	ID               string `json:"id"`
	OwnerID          string `json:"owner_id"`
	UniqueName       string `json:"unique_name"`
	Description      string `json:"description"`
	PlayedTimeMillis int64  `json:"played_time_millis"`
	ProgressValue    int64  `json:"progress_value"`
	Revision         int64  `json:"revision"`
	LastModified     int64  `json:"last_modified"`
	Data             []byte `json:"data"`
	CoverImage       []byte `json:"cover_image"`
}

// Conflict is a commit that was made against a stale revision of a
// snapshot. There is at most one pending conflict per snapshot.
type Conflict struct {
	ID               string `json:"id"`
	OwnerID          string `json:"owner_id"`
	UniqueName       string `json:"unique_name"`
	BaseRevision     int64  `json:"base_revision"`
	Description      string `json:"description"`
	PlayedTimeMillis int64  `json:"played_time_millis"`
	ProgressValue    int64  `json:"progress_value"`
	LastModified     int64  `json:"last_modified"`
	Data             []byte `json:"data"`
	CoverImage       []byte `json:"cover_image"`
}
