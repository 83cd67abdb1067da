// internal/repository/postgres/record_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"solarcrm-service/internal/domain/record"
	xerrors "solarcrm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type CustomerRecordRepository struct {
	db *DB
}

func NewCustomerRecordRepository(db *DB) *CustomerRecordRepository {
	return &CustomerRecordRepository{db: db}
}

const recordColumns = `id, customer_name, phone, address, notes, tags, module_count,
	capacity, filing_capacity, investment_amount, land_area,
	inverter, distribution_box, copper_wire, aluminum_wire,
	technical_status, technical_reviewed_at, technical_rejected_at, technical_notes,
	acceptance_status, acceptance_completed_at, acceptance_notes, wait_days, wait_started_at,
	construction_team, construction_team_phone, dispatch_date,
	created_at, updated_at, deleted_at`

func scanRecord(row pgx.Row) (*record.CustomerRecord, error) {
	var r record.CustomerRecord
	err := row.Scan(
		&r.ID, &r.CustomerName, &r.Phone, &r.Address, &r.Notes, &r.Tags, &r.ModuleCount,
		&r.Capacity, &r.FilingCapacity, &r.InvestmentAmount, &r.LandArea,
		&r.Inverter, &r.DistributionBox, &r.CopperWire, &r.AluminumWire,
		&r.TechnicalStatus, &r.TechnicalReviewedAt, &r.TechnicalRejectedAt, &r.TechnicalNotes,
		&r.AcceptanceStatus, &r.AcceptanceCompletedAt, &r.AcceptanceNotes, &r.WaitDays, &r.WaitStartedAt,
		&r.ConstructionTeam, &r.ConstructionTeamPhone, &r.DispatchDate,
		&r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan customer record: %w", err)
	}
	return &r, nil
}

// Create inserts a new record and fills in id and timestamps.
func (repo *CustomerRecordRepository) Create(ctx context.Context, r *record.CustomerRecord) error {
	query := `
		INSERT INTO customer_records (
			customer_name, phone, address, notes, tags, module_count,
			capacity, filing_capacity, investment_amount, land_area,
			inverter, distribution_box, copper_wire, aluminum_wire,
			technical_status, acceptance_status,
			construction_team, construction_team_phone, dispatch_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id, created_at, updated_at
	`

	err := repo.db.conn(ctx).QueryRow(
		ctx, query,
		r.CustomerName, r.Phone, r.Address, r.Notes, r.Tags, r.ModuleCount,
		r.Capacity, r.FilingCapacity, r.InvestmentAmount, r.LandArea,
		r.Inverter, r.DistributionBox, r.CopperWire, r.AluminumWire,
		r.TechnicalStatus, r.AcceptanceStatus,
		r.ConstructionTeam, r.ConstructionTeamPhone, r.DispatchDate,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create customer record: %w", err)
	}
	return nil
}

// Update rewrites every mutable column of an existing record, stamping
// updated_at with the caller-supplied time.
func (repo *CustomerRecordRepository) Update(ctx context.Context, r *record.CustomerRecord, at time.Time) error {
	query := `
		UPDATE customer_records SET
			customer_name = $1, phone = $2, address = $3, notes = $4, tags = $5,
			module_count = $6, capacity = $7, filing_capacity = $8,
			investment_amount = $9, land_area = $10, inverter = $11,
			distribution_box = $12, copper_wire = $13, aluminum_wire = $14,
			technical_status = $15, technical_reviewed_at = $16,
			technical_rejected_at = $17, technical_notes = $18,
			acceptance_status = $19, acceptance_completed_at = $20,
			acceptance_notes = $21, wait_days = $22, wait_started_at = $23,
			construction_team = $24, construction_team_phone = $25,
			dispatch_date = $26, updated_at = $27
		WHERE id = $28 AND deleted_at IS NULL
	`

	result, err := repo.db.conn(ctx).Exec(
		ctx, query,
		r.CustomerName, r.Phone, r.Address, r.Notes, r.Tags,
		r.ModuleCount, r.Capacity, r.FilingCapacity,
		r.InvestmentAmount, r.LandArea, r.Inverter,
		r.DistributionBox, r.CopperWire, r.AluminumWire,
		r.TechnicalStatus, r.TechnicalReviewedAt,
		r.TechnicalRejectedAt, r.TechnicalNotes,
		r.AcceptanceStatus, r.AcceptanceCompletedAt,
		r.AcceptanceNotes, r.WaitDays, r.WaitStartedAt,
		r.ConstructionTeam, r.ConstructionTeamPhone,
		r.DispatchDate, at, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	r.UpdatedAt = at
	return nil
}

// FindByID retrieves an active record by ID.
func (repo *CustomerRecordRepository) FindByID(ctx context.Context, id int64) (*record.CustomerRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM customer_records WHERE id = $1 AND deleted_at IS NULL`, recordColumns)
	return scanRecord(repo.db.conn(ctx).QueryRow(ctx, query, id))
}

// FindForUpdate retrieves a record regardless of soft-delete state and locks
// the row, serializing concurrent mutations of the same id.
func (repo *CustomerRecordRepository) FindForUpdate(ctx context.Context, id int64) (*record.CustomerRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM customer_records WHERE id = $1 FOR UPDATE`, recordColumns)
	return scanRecord(repo.db.conn(ctx).QueryRow(ctx, query, id))
}

// ActiveExists checks for another active record with the same name and phone.
func (repo *CustomerRecordRepository) ActiveExists(ctx context.Context, name, phone string, excludeID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM customer_records
			WHERE customer_name = $1 AND phone = $2 AND id <> $3 AND deleted_at IS NULL
		)
	`
	var exists bool
	err := repo.db.conn(ctx).QueryRow(ctx, query, name, phone, excludeID).Scan(&exists)
	return exists, err
}

// List retrieves active records with filters.
func (repo *CustomerRecordRepository) List(ctx context.Context, filters *record.ListFilters) ([]record.CustomerRecord, int64, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	argPos := 1

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(customer_name ILIKE $%d OR phone ILIKE $%d OR construction_team ILIKE $%d)",
			argPos, argPos, argPos,
		))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	if filters.TechnicalStatus != "" {
		conditions = append(conditions, fmt.Sprintf("technical_status = $%d", argPos))
		args = append(args, filters.TechnicalStatus)
		argPos++
	}
	if filters.AcceptanceStatus != "" {
		conditions = append(conditions, fmt.Sprintf("acceptance_status = $%d", argPos))
		args = append(args, filters.AcceptanceStatus)
		argPos++
	}
	if filters.Team != "" {
		conditions = append(conditions, fmt.Sprintf("construction_team = $%d", argPos))
		args = append(args, filters.Team)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customer_records WHERE %s", whereClause)
	var total int64
	if err := repo.db.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customer records: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	sortBy := "created_at"
	switch filters.SortBy {
	case "customer_name", "module_count", "dispatch_date":
		sortBy = filters.SortBy
	}
	sortOrder := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM customer_records
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, recordColumns, whereClause, sortBy, sortOrder, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := repo.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customer records: %w", err)
	}
	defer rows.Close()

	records := []record.CustomerRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *r)
	}

	return records, total, rows.Err()
}

// SoftDelete stamps deleted_at on an active record.
func (repo *CustomerRecordRepository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE customer_records SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := repo.db.conn(ctx).Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ClearDeletedAt reactivates a soft-deleted record.
func (repo *CustomerRecordRepository) ClearDeletedAt(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE customer_records SET deleted_at = NULL, updated_at = $1 WHERE id = $2`

	result, err := repo.db.conn(ctx).Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to reactivate customer record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// Reinsert writes a record back under its original id after the row was
// physically removed.
func (repo *CustomerRecordRepository) Reinsert(ctx context.Context, r *record.CustomerRecord) error {
	query := `
		INSERT INTO customer_records (
			id, customer_name, phone, address, notes, tags, module_count,
			capacity, filing_capacity, investment_amount, land_area,
			inverter, distribution_box, copper_wire, aluminum_wire,
			technical_status, technical_reviewed_at, technical_rejected_at, technical_notes,
			acceptance_status, acceptance_completed_at, acceptance_notes, wait_days, wait_started_at,
			construction_team, construction_team_phone, dispatch_date,
			created_at, updated_at, deleted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,
			$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30)
	`

	_, err := repo.db.conn(ctx).Exec(
		ctx, query,
		r.ID, r.CustomerName, r.Phone, r.Address, r.Notes, r.Tags, r.ModuleCount,
		r.Capacity, r.FilingCapacity, r.InvestmentAmount, r.LandArea,
		r.Inverter, r.DistributionBox, r.CopperWire, r.AluminumWire,
		r.TechnicalStatus, r.TechnicalReviewedAt, r.TechnicalRejectedAt, r.TechnicalNotes,
		r.AcceptanceStatus, r.AcceptanceCompletedAt, r.AcceptanceNotes, r.WaitDays, r.WaitStartedAt,
		r.ConstructionTeam, r.ConstructionTeamPhone, r.DispatchDate,
		r.CreatedAt, r.UpdatedAt, r.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to reinsert customer record: %w", err)
	}

	// Keep the sequence ahead of explicitly inserted ids.
	_, err = repo.db.conn(ctx).Exec(ctx,
		`SELECT setval(pg_get_serial_sequence('customer_records','id'), (SELECT MAX(id) FROM customer_records))`)
	if err != nil {
		return fmt.Errorf("failed to advance record id sequence: %w", err)
	}
	return nil
}

// UpdateTeamPhone rewrites the cached team phone on every active record
// assigned to the team.
func (repo *CustomerRecordRepository) UpdateTeamPhone(ctx context.Context, teamName string, phone *string, at time.Time) (int64, error) {
	query := `
		UPDATE customer_records
		SET construction_team_phone = $1, updated_at = $2
		WHERE construction_team = $3 AND deleted_at IS NULL
	`
	result, err := repo.db.conn(ctx).Exec(ctx, query, phone, at, teamName)
	if err != nil {
		return 0, fmt.Errorf("failed to propagate team phone: %w", err)
	}
	return result.RowsAffected(), nil
}
