// internal/domain/audit/repository.go
package audit

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s *DeletedRecordSnapshot) error

	// FindForUpdate locks the snapshot row for the remainder of the
	// transaction (restore-once gate).
	FindForUpdate(ctx context.Context, id string) (*DeletedRecordSnapshot, error)

	// UnrestoredByRecordID returns the open snapshot for a record, nil when
	// none exists.
	UnrestoredByRecordID(ctx context.Context, recordID int64) (*DeletedRecordSnapshot, error)

	MarkRestored(ctx context.Context, id string, at time.Time, by string) error

	// List partitions snapshots on restored_at, newest deletion first.
	List(ctx context.Context, restored bool) ([]DeletedRecordSnapshot, error)
}
