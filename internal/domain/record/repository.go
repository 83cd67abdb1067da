// internal/domain/record/repository.go
package record

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r *CustomerRecord) error
	// Update rewrites every mutable column and stamps updated_at with at.
	Update(ctx context.Context, r *CustomerRecord, at time.Time) error

	// FindByID returns an active (non-deleted) record.
	FindByID(ctx context.Context, id int64) (*CustomerRecord, error)
	// FindForUpdate returns the record regardless of soft-delete state,
	// holding a row lock for the remainder of the transaction.
	FindForUpdate(ctx context.Context, id int64) (*CustomerRecord, error)

	// ActiveExists reports whether an active record other than excludeID
	// carries the same (name, phone) pair.
	ActiveExists(ctx context.Context, name, phone string, excludeID int64) (bool, error)

	List(ctx context.Context, filters *ListFilters) ([]CustomerRecord, int64, error)

	SoftDelete(ctx context.Context, id int64, at time.Time) error
	ClearDeletedAt(ctx context.Context, id int64, at time.Time) error
	// Reinsert writes a record back with its original id after the row was
	// physically removed (restore path).
	Reinsert(ctx context.Context, r *CustomerRecord) error

	// UpdateTeamPhone rewrites the cached team phone on every active record
	// assigned to the team, returning the number of records touched.
	UpdateTeamPhone(ctx context.Context, teamName string, phone *string, at time.Time) (int64, error)
}
