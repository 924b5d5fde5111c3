package repositories

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/cbodonnell/snapsync/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations
var migrations embed.FS

var _ Repository = &SQLiteRepository{}

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and applies the embedded
// migrations. Use ":memory:" for a throwaway database.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// a single connection serializes writers and keeps ":memory:" databases
	// from being split across connections
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, "sqlite", func(ctx context.Context, migration string) error {
		_, err := db.ExecContext(ctx, migration)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

// runMigrations executes every embedded migration for the dialect in
// file name order.
func runMigrations(ctx context.Context, dialect string, exec func(ctx context.Context, migration string) error) error {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		migrationPath := path.Join(dir, entry.Name())
		migration, err := fs.ReadFile(migrations, migrationPath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if err := exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

const sqliteSnapshotColumns = `id, owner_id, unique_name, description, played_time_millis, progress_value, revision, last_modified, data, cover_image`

func scanSnapshot(scan func(dest ...any) error) (*models.Snapshot, error) {
	s := &models.Snapshot{}
	err := scan(&s.ID, &s.OwnerID, &s.UniqueName, &s.Description, &s.PlayedTimeMillis, &s.ProgressValue, &s.Revision, &s.LastModified, &s.Data, &s.CoverImage)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, ownerID string, uniqueName string) (*models.Snapshot, error) {
	q := `SELECT ` + sqliteSnapshotColumns + ` FROM snapshots WHERE owner_id = ? AND unique_name = ?;`
	s, err := scanSnapshot(r.db.QueryRowContext(ctx, q, ownerID, uniqueName).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan snapshot: %v", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListSnapshots(ctx context.Context, ownerID string) ([]*models.Snapshot, error) {
	q := `SELECT ` + sqliteSnapshotColumns + ` FROM snapshots WHERE owner_id = ? ORDER BY unique_name;`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
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

func (r *SQLiteRepository) CreateSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	q := `
	INSERT INTO snapshots (` + sqliteSnapshotColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
	ON CONFLICT (owner_id, unique_name) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, q, snapshot.ID, snapshot.OwnerID, snapshot.UniqueName, snapshot.Description,
		snapshot.PlayedTimeMillis, snapshot.ProgressValue, snapshot.LastModified, snapshot.Data, snapshot.CoverImage)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if n == 0 {
		return &ErrAlreadyExists{}
	}
	snapshot.Revision = 1
	return nil
}

func (r *SQLiteRepository) UpdateSnapshot(ctx context.Context, snapshot *models.Snapshot, expectedRevision int64) error {
	q := `
	UPDATE snapshots
	SET description = ?, played_time_millis = ?, progress_value = ?, revision = revision + 1,
		last_modified = ?, data = ?, cover_image = ?
	WHERE owner_id = ? AND unique_name = ? AND revision = ?;
	`
	res, err := r.db.ExecContext(ctx, q, snapshot.Description, snapshot.PlayedTimeMillis, snapshot.ProgressValue,
		snapshot.LastModified, snapshot.Data, snapshot.CoverImage, snapshot.OwnerID, snapshot.UniqueName, expectedRevision)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if n == 0 {
		if _, err := r.GetSnapshot(ctx, snapshot.OwnerID, snapshot.UniqueName); err != nil {
			return err
		}
		return &ErrRevisionMismatch{Expected: expectedRevision}
	}
	snapshot.Revision = expectedRevision + 1
	return nil
}

func (r *SQLiteRepository) DeleteSnapshot(ctx context.Context, ownerID string, uniqueName string) error {
	q := `DELETE FROM snapshots WHERE owner_id = ? AND unique_name = ?;`
	res, err := r.db.ExecContext(ctx, q, ownerID, uniqueName)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if n == 0 {
		return &ErrNotFound{}
	}
	return nil
}

const sqliteConflictColumns = `id, owner_id, unique_name, base_revision, description, played_time_millis, progress_value, last_modified, data, cover_image`

func scanConflict(scan func(dest ...any) error) (*models.Conflict, error) {
	c := &models.Conflict{}
	err := scan(&c.ID, &c.OwnerID, &c.UniqueName, &c.BaseRevision, &c.Description, &c.PlayedTimeMillis, &c.ProgressValue, &c.LastModified, &c.Data, &c.CoverImage)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *SQLiteRepository) CreateConflict(ctx context.Context, conflict *models.Conflict) error {
	q := `
	INSERT INTO conflicts (` + sqliteConflictColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (owner_id, unique_name) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, q, conflict.ID, conflict.OwnerID, conflict.UniqueName, conflict.BaseRevision, conflict.Description,
		conflict.PlayedTimeMillis, conflict.ProgressValue, conflict.LastModified, conflict.Data, conflict.CoverImage)
	if err != nil {
		return fmt.Errorf("failed to insert conflict: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if n == 0 {
		return &ErrAlreadyExists{}
	}
	return nil
}

func (r *SQLiteRepository) GetConflict(ctx context.Context, ownerID string, uniqueName string) (*models.Conflict, error) {
	q := `SELECT ` + sqliteConflictColumns + ` FROM conflicts WHERE owner_id = ? AND unique_name = ?;`
	c, err := scanConflict(r.db.QueryRowContext(ctx, q, ownerID, uniqueName).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan conflict: %v", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetConflictByID(ctx context.Context, ownerID string, conflictID string) (*models.Conflict, error) {
	q := `SELECT ` + sqliteConflictColumns + ` FROM conflicts WHERE owner_id = ? AND id = ?;`
	c, err := scanConflict(r.db.QueryRowContext(ctx, q, ownerID, conflictID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan conflict: %v", err)
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteConflict(ctx context.Context, ownerID string, uniqueName string) error {
	q := `DELETE FROM conflicts WHERE owner_id = ? AND unique_name = ?;`
	if _, err := r.db.ExecContext(ctx, q, ownerID, uniqueName); err != nil {
		return fmt.Errorf("failed to delete conflict: %v", err)
	}
	return nil
}
