// internal/repository/postgres/snapshot_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solarcrm-service/internal/domain/audit"
	"solarcrm-service/internal/domain/record"
	xerrors "solarcrm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type SnapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

const snapshotColumns = `id, record_id, customer_name, phone, record, deleted_at, restored_at, restored_by`

func scanSnapshot(row pgx.Row) (*audit.DeletedRecordSnapshot, error) {
	var s audit.DeletedRecordSnapshot
	var payload []byte

	err := row.Scan(&s.ID, &s.RecordID, &s.CustomerName, &s.Phone, &payload,
		&s.DeletedAt, &s.RestoredAt, &s.RestoredBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	var rec record.CustomerRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot payload: %w", err)
	}
	s.Record = rec
	return &s, nil
}

// Create inserts a snapshot. Snapshots are append-only; nothing but
// MarkRestored ever writes to the row again.
func (repo *SnapshotRepository) Create(ctx context.Context, s *audit.DeletedRecordSnapshot) error {
	payload, err := json.Marshal(s.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}

	query := `
		INSERT INTO deleted_record_snapshots (id, record_id, customer_name, phone, record, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = repo.db.conn(ctx).Exec(ctx, query,
		s.ID, s.RecordID, s.CustomerName, s.Phone, payload, s.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}

// FindForUpdate retrieves a snapshot by id with a row lock.
func (repo *SnapshotRepository) FindForUpdate(ctx context.Context, id string) (*audit.DeletedRecordSnapshot, error) {
	query := fmt.Sprintf(`SELECT %s FROM deleted_record_snapshots WHERE id = $1 FOR UPDATE`, snapshotColumns)
	return scanSnapshot(repo.db.conn(ctx).QueryRow(ctx, query, id))
}

// UnrestoredByRecordID returns the open snapshot for a record, nil when none.
func (repo *SnapshotRepository) UnrestoredByRecordID(ctx context.Context, recordID int64) (*audit.DeletedRecordSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM deleted_record_snapshots
		WHERE record_id = $1 AND restored_at IS NULL
		ORDER BY deleted_at DESC
		LIMIT 1
	`, snapshotColumns)

	s, err := scanSnapshot(repo.db.conn(ctx).QueryRow(ctx, query, recordID))
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, nil
	}
	return s, err
}

// MarkRestored stamps restored_at/restored_by, exactly once.
func (repo *SnapshotRepository) MarkRestored(ctx context.Context, id string, at time.Time, by string) error {
	query := `
		UPDATE deleted_record_snapshots
		SET restored_at = $1, restored_by = $2
		WHERE id = $3 AND restored_at IS NULL
	`
	result, err := repo.db.conn(ctx).Exec(ctx, query, at, by, id)
	if err != nil {
		return fmt.Errorf("failed to mark snapshot restored: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrAlreadyRestored
	}
	return nil
}

// List partitions snapshots on restored_at, newest deletion first.
func (repo *SnapshotRepository) List(ctx context.Context, restored bool) ([]audit.DeletedRecordSnapshot, error) {
	predicate := "restored_at IS NULL"
	if restored {
		predicate = "restored_at IS NOT NULL"
	}
	query := fmt.Sprintf(`
		SELECT %s FROM deleted_record_snapshots
		WHERE %s
		ORDER BY deleted_at DESC
	`, snapshotColumns, predicate)

	rows, err := repo.db.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []audit.DeletedRecordSnapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}
