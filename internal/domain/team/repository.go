// internal/domain/team/repository.go
package team

import "context"

type Repository interface {
	// Upsert inserts or updates the team keyed by name, locking the row for
	// the remainder of the transaction so the phone fan-out is atomic with
	// the directory write.
	Upsert(ctx context.Context, t *ConstructionTeam) error

	FindByName(ctx context.Context, name string) (*ConstructionTeam, error)
	List(ctx context.Context) ([]ConstructionTeam, error)

	// TeamPhone resolves the phone of record for a team. Nil when the team
	// is not in the directory (a valid, if incomplete, input) or carries no
	// phone.
	TeamPhone(ctx context.Context, name string) (*string, error)
}
