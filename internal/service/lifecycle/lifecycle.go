// internal/service/lifecycle/lifecycle_service.go
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"solarcrm-service/internal/domain/audit"
	"solarcrm-service/internal/domain/event"
	"solarcrm-service/internal/domain/record"
	xerrors "solarcrm-service/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LifecycleService owns soft delete, audit snapshots and restore. A delete
// and its snapshot commit together; a restore and its restored_at stamp
// commit together. Snapshots are append-only and survive both restore and
// later re-deletes (which create new snapshots).
type LifecycleService struct {
	records   record.Repository
	snapshots audit.Repository
	tx        txRunner
	feed      event.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewLifecycleService(records record.Repository, snapshots audit.Repository, tx txRunner, feed event.Publisher, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		records:   records,
		snapshots: snapshots,
		tx:        tx,
		feed:      feed,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the time source; used by tests.
func (s *LifecycleService) SetClock(now func() time.Time) {
	s.now = now
}

// SoftDelete marks the record deleted and captures exactly one snapshot of
// its field values, in one transaction. Re-deleting an already-deleted
// record is a no-op that returns the existing snapshot.
func (s *LifecycleService) SoftDelete(ctx context.Context, id int64) (*audit.DeletedRecordSnapshot, error) {
	var snap *audit.DeletedRecordSnapshot

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.records.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if rec.DeletedAt != nil {
			existing, err := s.snapshots.UnrestoredByRecordID(ctx, id)
			if err != nil {
				return err
			}
			if existing == nil {
				// Deleted row without an open snapshot should not happen;
				// surface it rather than silently re-snapshotting.
				return fmt.Errorf("record %d deleted but has no open snapshot: %w", id, xerrors.ErrInternal)
			}
			snap = existing
			return nil
		}

		now := s.now()
		if err := s.records.SoftDelete(ctx, id, now); err != nil {
			return err
		}

		deleted := rec.Clone()
		deleted.DeletedAt = &now

		snap = &audit.DeletedRecordSnapshot{
			ID:           ulid.Make().String(),
			RecordID:     rec.ID,
			CustomerName: rec.CustomerName,
			Phone:        rec.Phone,
			Record:       *deleted,
			DeletedAt:    now,
		}
		return s.snapshots.Create(ctx, snap)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("record soft-deleted",
		zap.Int64("record_id", id),
		zap.String("snapshot_id", snap.ID),
	)
	s.publish(event.RecordDeleted, snap)

	return snap, nil
}

// Restore reactivates the record a snapshot was taken from, reconstructing
// the row from the snapshot if it was physically removed in the interim.
// The snapshot's restored_at is stamped exactly once; a second restore
// fails with ErrAlreadyRestored. The restored record deliberately bypasses
// the rules pipeline: it is recovering prior state, not accepting new input.
func (s *LifecycleService) Restore(ctx context.Context, snapshotID, restoredBy string) (*record.CustomerRecord, error) {
	var restored *record.CustomerRecord

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		snap, err := s.snapshots.FindForUpdate(ctx, snapshotID)
		if err != nil {
			return err
		}
		if snap.RestoredAt != nil {
			return fmt.Errorf("snapshot %s: %w", snapshotID, xerrors.ErrAlreadyRestored)
		}

		now := s.now()

		rec, err := s.records.FindForUpdate(ctx, snap.RecordID)
		switch {
		case err == nil:
			if rec.DeletedAt != nil {
				if err := s.records.ClearDeletedAt(ctx, rec.ID, now); err != nil {
					return err
				}
				rec.DeletedAt = nil
				rec.UpdatedAt = now
			}
			restored = rec
		case xerrors.Is(err, xerrors.ErrNotFound):
			// Row physically removed; rebuild it from the snapshot.
			rebuilt := snap.Record.Clone()
			rebuilt.DeletedAt = nil
			rebuilt.UpdatedAt = now
			if err := s.records.Reinsert(ctx, rebuilt); err != nil {
				return err
			}
			restored = rebuilt
		default:
			return err
		}

		return s.snapshots.MarkRestored(ctx, snapshotID, now, restoredBy)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("record restored",
		zap.Int64("record_id", restored.ID),
		zap.String("snapshot_id", snapshotID),
		zap.String("restored_by", restoredBy),
	)
	s.publish(event.RecordRestored, restored)

	return restored, nil
}

// ListDeleted returns snapshots whose record has not been restored.
func (s *LifecycleService) ListDeleted(ctx context.Context) ([]audit.DeletedRecordSnapshot, error) {
	return s.snapshots.List(ctx, false)
}

// ListRestored returns snapshots that have been restored.
func (s *LifecycleService) ListRestored(ctx context.Context) ([]audit.DeletedRecordSnapshot, error) {
	return s.snapshots.List(ctx, true)
}

func (s *LifecycleService) publish(t event.Type, payload interface{}) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(event.Event{Type: t, At: s.now(), Payload: payload})
}
