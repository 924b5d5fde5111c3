package store

import (
	"time"

	"github.com/cbodonnell/snapsync/pkg/repositories/models"
	"github.com/cbodonnell/snapsync/pkg/snapshots"
)

func metadataFromModel(s *models.Snapshot) *snapshots.Metadata {
	return &snapshots.Metadata{
		SnapshotID:    s.ID,
		UniqueName:    s.UniqueName,
		Description:   s.Description,
		PlayedTime:    time.Duration(s.PlayedTimeMillis) * time.Millisecond,
		ProgressValue: s.ProgressValue,
		LastModified:  time.UnixMilli(s.LastModified).UTC(),
		Revision:      s.Revision,
		CoverImage:    nonEmpty(s.CoverImage),
	}
}

func snapshotFromModel(s *models.Snapshot) *snapshots.Snapshot {
	return &snapshots.Snapshot{
		Metadata: *metadataFromModel(s),
		Contents: nonEmpty(s.Data),
	}
}

// snapshotFromConflict returns the pending write as a snapshot. It carries
// the head's snapshot ID since both versions are the same logical snapshot.
func snapshotFromConflict(c *models.Conflict, head *models.Snapshot) *snapshots.Snapshot {
	return &snapshots.Snapshot{
		Metadata: snapshots.Metadata{
			SnapshotID:    head.ID,
			UniqueName:    c.UniqueName,
			Description:   c.Description,
			PlayedTime:    time.Duration(c.PlayedTimeMillis) * time.Millisecond,
			ProgressValue: c.ProgressValue,
			LastModified:  time.UnixMilli(c.LastModified).UTC(),
			Revision:      head.Revision,
			CoverImage:    nonEmpty(c.CoverImage),
		},
		Contents: nonEmpty(c.Data),
	}
}

func modelFromMetadata(ownerID string, md snapshots.Metadata, contents []byte) *models.Snapshot {
	return &models.Snapshot{
		ID:               md.SnapshotID,
		OwnerID:          ownerID,
		UniqueName:       md.UniqueName,
		Description:      md.Description,
		PlayedTimeMillis: md.PlayedTime.Milliseconds(),
		ProgressValue:    md.ProgressValue,
		Revision:         md.Revision,
		LastModified:     md.LastModified.UnixMilli(),
		Data:             orEmpty(contents),
		CoverImage:       orEmpty(md.CoverImage),
	}
}

func conflictFromModel(id string, s *models.Snapshot) *models.Conflict {
	return &models.Conflict{
		ID:               id,
		OwnerID:          s.OwnerID,
		UniqueName:       s.UniqueName,
		BaseRevision:     s.Revision,
		Description:      s.Description,
		PlayedTimeMillis: s.PlayedTimeMillis,
		ProgressValue:    s.ProgressValue,
		LastModified:     s.LastModified,
		Data:             s.Data,
		CoverImage:       s.CoverImage,
	}
}

// the database columns are NOT NULL
func orEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func nonEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
