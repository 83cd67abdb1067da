// internal/domain/audit/entity.go
package audit

import (
	"time"

	"solarcrm-service/internal/domain/record"
)

// DeletedRecordSnapshot is the append-only audit copy taken at the moment a
// customer record is soft-deleted. RestoredAt/RestoredBy are the only fields
// ever written after creation, set exactly once on restore. The snapshot is
// never updated to reflect later changes and never deleted by ordinary
// operations.
type DeletedRecordSnapshot struct {
	ID       string `json:"id" db:"id"` // ULID
	RecordID int64  `json:"record_id" db:"record_id"`

	// Denormalized for trash listings.
	CustomerName string `json:"customer_name" db:"customer_name"`
	Phone        string `json:"phone" db:"phone"`

	// Full field copy of the record at deletion time.
	Record record.CustomerRecord `json:"record" db:"record"`

	DeletedAt  time.Time  `json:"deleted_at" db:"deleted_at"`
	RestoredAt *time.Time `json:"restored_at,omitempty" db:"restored_at"`
	RestoredBy *string    `json:"restored_by,omitempty" db:"restored_by"`
}
