// internal/service/record/record_service.go
package record

import (
	"context"
	"fmt"
	"time"

	"solarcrm-service/internal/domain/event"
	"solarcrm-service/internal/domain/record"
	xerrors "solarcrm-service/internal/pkg/errors"
	"solarcrm-service/internal/rules"
	"solarcrm-service/internal/workflow"

	"go.uber.org/zap"
)

// txRunner runs fn inside one transaction; implemented by postgres.DB.
type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RecordService owns every create/update path into the customer-record set.
// All mutations pass through the rules pipeline inside a single transaction
// with the row locked, so concurrent requests against the same id serialize
// and transition decisions ("changed from empty to non-empty") read a stable
// prior state.
type RecordService struct {
	records record.Repository
	teams   rules.Directory
	tx      txRunner
	feed    event.Publisher
	logger  *zap.Logger
	now     func() time.Time
}

func NewRecordService(records record.Repository, teams rules.Directory, tx txRunner, feed event.Publisher, logger *zap.Logger) *RecordService {
	return &RecordService{
		records: records,
		teams:   teams,
		tx:      tx,
		feed:    feed,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the time source; used by tests.
func (s *RecordService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateOrUpdate runs the full pipeline for a create (id == 0) or update.
// Either every rule applies and the write commits, or the whole mutation is
// rejected; partial application is never observable.
func (s *RecordService) CreateOrUpdate(ctx context.Context, id int64, patch record.Patch) (*record.CustomerRecord, error) {
	var saved *record.CustomerRecord

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var old *record.CustomerRecord
		if id != 0 {
			existing, err := s.records.FindForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if existing.DeletedAt != nil {
				return fmt.Errorf("record %d: %w", id, xerrors.ErrNotFound)
			}
			old = existing
		}

		now := s.now()
		rec, err := rules.Apply(ctx, old, patch, s.teams, s.records, now)
		if err != nil {
			return err
		}

		if old == nil {
			err = s.records.Create(ctx, rec)
		} else {
			err = s.records.Update(ctx, rec, now)
		}
		if err != nil {
			return err
		}
		saved = rec
		return nil
	})
	if err != nil {
		s.logger.Warn("record mutation rejected", zap.Int64("record_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("record saved",
		zap.Int64("record_id", saved.ID),
		zap.String("customer_name", saved.CustomerName),
	)
	s.publish(event.RecordSaved, saved)

	return saved, nil
}

// Get retrieves an active record.
func (s *RecordService) Get(ctx context.Context, id int64) (*record.CustomerRecord, error) {
	return s.records.FindByID(ctx, id)
}

// View wraps a record with its derived waiting countdown.
func (s *RecordService) View(ctx context.Context, id int64) (*record.RecordView, error) {
	rec, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(rec), nil
}

// List retrieves active records with filters and pagination.
func (s *RecordService) List(ctx context.Context, filters *record.ListFilters) (*record.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	records, total, err := s.records.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &record.ListResponse{
		Records:    records,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// AdvanceTechnicalReview moves the technical-review workflow.
func (s *RecordService) AdvanceTechnicalReview(ctx context.Context, id int64, outcome string, notes *string) (*record.CustomerRecord, error) {
	rec, err := s.advance(ctx, id, func(rec *record.CustomerRecord, now time.Time) error {
		next, err := workflow.AdvanceReview(rec.ReviewState(), outcome, notes, now)
		if err != nil {
			return err
		}
		rec.ApplyReviewState(next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("technical review advanced",
		zap.Int64("record_id", id),
		zap.String("outcome", outcome),
	)
	return rec, nil
}

// AdvanceConstructionAcceptance moves the construction-acceptance workflow.
func (s *RecordService) AdvanceConstructionAcceptance(ctx context.Context, id int64, outcome string, days *int, notes *string) (*record.CustomerRecord, error) {
	rec, err := s.advance(ctx, id, func(rec *record.CustomerRecord, now time.Time) error {
		next, err := workflow.AdvanceAcceptance(rec.AcceptanceState(), outcome, days, notes, now)
		if err != nil {
			return err
		}
		rec.ApplyAcceptanceState(next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("construction acceptance advanced",
		zap.Int64("record_id", id),
		zap.String("outcome", outcome),
	)
	return rec, nil
}

// advance applies a workflow mutation under the record row lock.
func (s *RecordService) advance(ctx context.Context, id int64, mutate func(*record.CustomerRecord, time.Time) error) (*record.CustomerRecord, error) {
	var saved *record.CustomerRecord

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.records.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if rec.DeletedAt != nil {
			return fmt.Errorf("record %d: %w", id, xerrors.ErrNotFound)
		}

		now := s.now()
		if err := mutate(rec, now); err != nil {
			return err
		}
		if err := s.records.Update(ctx, rec, now); err != nil {
			return err
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(event.RecordSaved, saved)
	return saved, nil
}

func (s *RecordService) view(rec *record.CustomerRecord) *record.RecordView {
	v := &record.RecordView{CustomerRecord: *rec}
	if w, ok := rec.AcceptanceState().Waiting(s.now()); ok {
		v.Waiting = &w
	}
	return v
}

func (s *RecordService) publish(t event.Type, payload interface{}) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(event.Event{Type: t, At: s.now(), Payload: payload})
}
