// internal/service/team/team_service.go
package team

import (
	"context"
	"fmt"
	"strings"
	"time"

	"solarcrm-service/internal/domain/event"
	"solarcrm-service/internal/domain/team"
	xerrors "solarcrm-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// recordPhones is the slice of the record repository the fan-out needs.
type recordPhones interface {
	UpdateTeamPhone(ctx context.Context, teamName string, phone *string, at time.Time) (int64, error)
}

// TeamService owns the construction-team directory. A directory write and
// the propagation of its phone into every active record referencing the team
// commit as one transaction, so the cached phones never drift.
type TeamService struct {
	teams   team.Repository
	records recordPhones
	tx      txRunner
	feed    event.Publisher
	logger  *zap.Logger
	now     func() time.Time
}

func NewTeamService(teams team.Repository, records recordPhones, tx txRunner, feed event.Publisher, logger *zap.Logger) *TeamService {
	return &TeamService{
		teams:   teams,
		records: records,
		tx:      tx,
		feed:    feed,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the time source; used by tests.
func (s *TeamService) SetClock(now func() time.Time) {
	s.now = now
}

// Upsert writes a directory entry and synchronously fans the phone out to
// every active record assigned to the team.
func (s *TeamService) Upsert(ctx context.Context, req *team.UpsertTeamRequest) (*team.ConstructionTeam, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", xerrors.ErrValidation)
	}

	t := &team.ConstructionTeam{
		Name:    name,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if req.Status != nil {
		t.Status = *req.Status
	}

	var touched int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.teams.Upsert(ctx, t); err != nil {
			return err
		}

		n, err := s.records.UpdateTeamPhone(ctx, name, t.Phone, s.now())
		if err != nil {
			return err
		}
		touched = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team upserted",
		zap.String("team", name),
		zap.Int64("records_updated", touched),
	)
	s.publish(event.TeamSaved, t)

	return t, nil
}

// Get retrieves a directory entry by name.
func (s *TeamService) Get(ctx context.Context, name string) (*team.ConstructionTeam, error) {
	return s.teams.FindByName(ctx, name)
}

// List retrieves the whole directory.
func (s *TeamService) List(ctx context.Context) ([]team.ConstructionTeam, error) {
	return s.teams.List(ctx)
}

func (s *TeamService) publish(t event.Type, payload interface{}) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(event.Event{Type: t, At: s.now(), Payload: payload})
}
