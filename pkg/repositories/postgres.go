package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/cbodonnell/snapsync/pkg/log"
	"github.com/cbodonnell/snapsync/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = &PostgresRepository{}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database and applies the embedded
// migrations. The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %v", err)
	}
	log.Info("Connected to %s as %s", database, username)

	if err := runMigrations(ctx, "postgres", func(ctx context.Context, migration string) error {
		_, err := pool.Exec(ctx, migration)
		return err
	}); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

const postgresSnapshotColumns = `id, owner_id, unique_name, description, played_time_millis, progress_value, revision, last_modified, data, cover_image`

func (r *PostgresRepository) GetSnapshot(ctx context.Context, ownerID string, uniqueName string) (*models.Snapshot, error) {
	q := `SELECT ` + postgresSnapshotColumns + ` FROM snapshots WHERE owner_id = $1 AND unique_name = $2;`
	s, err := scanSnapshot(r.pool.QueryRow(ctx, q, ownerID, uniqueName).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan snapshot: %v", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListSnapshots(ctx context.Context, ownerID string) ([]*models.Snapshot, error) {
	q := `SELECT ` + postgresSnapshotColumns + ` FROM snapshots WHERE owner_id = $1 ORDER BY unique_name;`
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %v", err)
	}
	defer rows.Close()

	snapshots := make([]*models.Snapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %v", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %v", err)
	}
	return snapshots, nil
}

func (r *PostgresRepository) CreateSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	q := `
	INSERT INTO snapshots (` + postgresSnapshotColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8, $9)
	ON CONFLICT (owner_id, unique_name) DO NOTHING;
	`
	tag, err := r.pool.Exec(ctx, q, snapshot.ID, snapshot.OwnerID, snapshot.UniqueName, snapshot.Description,
		snapshot.PlayedTimeMillis, snapshot.ProgressValue, snapshot.LastModified, snapshot.Data, snapshot.CoverImage)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrAlreadyExists{}
	}
	snapshot.Revision = 1
	return nil
}

func (r *PostgresRepository) UpdateSnapshot(ctx context.Context, snapshot *models.Snapshot, expectedRevision int64) error {
	q := `
	UPDATE snapshots
	SET description = $1, played_time_millis = $2, progress_value = $3, revision = revision + 1,
		last_modified = $4, data = $5, cover_image = $6
	WHERE owner_id = $7 AND unique_name = $8 AND revision = $9;
	`
	tag, err := r.pool.Exec(ctx, q, snapshot.Description, snapshot.PlayedTimeMillis, snapshot.ProgressValue,
		snapshot.LastModified, snapshot.Data, snapshot.CoverImage, snapshot.OwnerID, snapshot.UniqueName, expectedRevision)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %v", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetSnapshot(ctx, snapshot.OwnerID, snapshot.UniqueName); err != nil {
			return err
		}
		return &ErrRevisionMismatch{Expected: expectedRevision}
	}
	snapshot.Revision = expectedRevision + 1
	return nil
}

func (r *PostgresRepository) DeleteSnapshot(ctx context.Context, ownerID string, uniqueName string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM snapshots WHERE owner_id = $1 AND unique_name = $2;`, ownerID, uniqueName)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}

const postgresConflictColumns = `id, owner_id, unique_name, base_revision, description, played_time_millis, progress_value, last_modified, data, cover_image`

func (r *PostgresRepository) CreateConflict(ctx context.Context, conflict *models.Conflict) error {
	q := `
	INSERT INTO conflicts (` + postgresConflictColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (owner_id, unique_name) DO NOTHING;
	`
	tag, err := r.pool.Exec(ctx, q, conflict.ID, conflict.OwnerID, conflict.UniqueName, conflict.BaseRevision, conflict.Description,
		conflict.PlayedTimeMillis, conflict.ProgressValue, conflict.LastModified, conflict.Data, conflict.CoverImage)
	if err != nil {
		return fmt.Errorf("failed to insert conflict: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrAlreadyExists{}
	}
	return nil
}

func (r *PostgresRepository) GetConflict(ctx context.Context, ownerID string, uniqueName string) (*models.Conflict, error) {
	q := `SELECT ` + postgresConflictColumns + ` FROM conflicts WHERE owner_id = $1 AND unique_name = $2;`
	c, err := scanConflict(r.pool.QueryRow(ctx, q, ownerID, uniqueName).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan conflict: %v", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetConflictByID(ctx context.Context, ownerID string, conflictID string) (*models.Conflict, error) {
	q := `SELECT ` + postgresConflictColumns + ` FROM conflicts WHERE owner_id = $1 AND id = $2;`
	c, err := scanConflict(r.pool.QueryRow(ctx, q, ownerID, conflictID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan conflict: %v", err)
	}
	return c, nil
}

func (r *PostgresRepository) DeleteConflict(ctx context.Context, ownerID string, uniqueName string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM conflicts WHERE owner_id = $1 AND unique_name = $2;`, ownerID, uniqueName); err != nil {
		return fmt.Errorf("failed to delete conflict: %v", err)
	}
	return nil
}
