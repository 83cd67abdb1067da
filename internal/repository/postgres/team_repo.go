// internal/repository/postgres/team_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"solarcrm-service/internal/domain/team"
	xerrors "solarcrm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type ConstructionTeamRepository struct {
	db *DB
}

func NewConstructionTeamRepository(db *DB) *ConstructionTeamRepository {
	return &ConstructionTeamRepository{db: db}
}

const teamColumns = `id, name, phone, address, status, created_at, updated_at`

func scanTeam(row pgx.Row) (*team.ConstructionTeam, error) {
	var t team.ConstructionTeam
	err := row.Scan(&t.ID, &t.Name, &t.Phone, &t.Address, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan construction team: %w", err)
	}
	return &t, nil
}

// Upsert inserts or updates a team keyed by name. The RETURNING row is
// locked implicitly by the write for the rest of the transaction, keeping the
// phone fan-out atomic with the directory change.
func (repo *ConstructionTeamRepository) Upsert(ctx context.Context, t *team.ConstructionTeam) error {
	if t.Status == "" {
		t.Status = team.StatusActive
	}
	query := `
		INSERT INTO construction_teams (name, phone, address, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := repo.db.conn(ctx).QueryRow(ctx, query, t.Name, t.Phone, t.Address, t.Status).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert construction team: %w", err)
	}
	return nil
}

// FindByName retrieves a team by its unique name.
func (repo *ConstructionTeamRepository) FindByName(ctx context.Context, name string) (*team.ConstructionTeam, error) {
	query := fmt.Sprintf(`SELECT %s FROM construction_teams WHERE name = $1`, teamColumns)
	return scanTeam(repo.db.conn(ctx).QueryRow(ctx, query, name))
}

// List retrieves all teams, newest first.
func (repo *ConstructionTeamRepository) List(ctx context.Context) ([]team.ConstructionTeam, error) {
	query := fmt.Sprintf(`SELECT %s FROM construction_teams ORDER BY created_at DESC`, teamColumns)

	rows, err := repo.db.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list construction teams: %w", err)
	}
	defer rows.Close()

	teams := []team.ConstructionTeam{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

// TeamPhone resolves the phone of record for a team. Nil when the team is
// unknown or carries no phone; an unregistered team is valid input.
func (repo *ConstructionTeamRepository) TeamPhone(ctx context.Context, name string) (*string, error) {
	query := `SELECT phone FROM construction_teams WHERE name = $1`

	var phone *string
	err := repo.db.conn(ctx).QueryRow(ctx, query, name).Scan(&phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up team phone: %w", err)
	}
	return phone, nil
}
