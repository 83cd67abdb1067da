// Package testutil provides in-memory repository implementations used by
// service tests. They mirror the postgres repositories' semantics (value
// copies on read and write, not-found sentinels, restore-once gate) without
// a database.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"solarcrm-service/internal/domain/audit"
	"solarcrm-service/internal/domain/record"
	xerrors "solarcrm-service/internal/pkg/errors"
)

// Tx satisfies the services' txRunner with a plain mutex; everything inside
// fn runs serialized, mimicking the per-row serialization of the real store.
type Tx struct {
	mu sync.Mutex
}

func (t *Tx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// RecordStore is an in-memory record.Repository.
type RecordStore struct {
	mu      sync.Mutex
	seq     int64
	Records map[int64]*record.CustomerRecord
}

func NewRecordStore() *RecordStore {
	return &RecordStore{Records: map[int64]*record.CustomerRecord{}}
}

// Seed inserts a record directly, bypassing the pipeline.
func (s *RecordStore) Seed(r *record.CustomerRecord) *record.CustomerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		s.seq++
		r.ID = s.seq
	} else if r.ID > s.seq {
		s.seq = r.ID
	}
	s.Records[r.ID] = r.Clone()
	return r
}

func (s *RecordStore) Create(_ context.Context, r *record.CustomerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	r.ID = s.seq
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.Records[r.ID] = r.Clone()
	return nil
}

func (s *RecordStore) Update(_ context.Context, r *record.CustomerRecord, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.Records[r.ID]
	if !ok || existing.DeletedAt != nil {
		return xerrors.ErrNotFound
	}
	r.UpdatedAt = at
	s.Records[r.ID] = r.Clone()
	return nil
}

func (s *RecordStore) FindByID(_ context.Context, id int64) (*record.CustomerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Records[id]
	if !ok || r.DeletedAt != nil {
		return nil, xerrors.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *RecordStore) FindForUpdate(_ context.Context, id int64) (*record.CustomerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Records[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *RecordStore) ActiveExists(_ context.Context, name, phone string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Records {
		if r.DeletedAt == nil && r.CustomerName == name && r.Phone == phone && r.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *RecordStore) List(_ context.Context, filters *record.ListFilters) ([]record.CustomerRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []record.CustomerRecord{}
	for _, r := range s.Records {
		if r.DeletedAt != nil {
			continue
		}
		if filters.Team != "" && r.TeamName() != filters.Team {
			continue
		}
		out = append(out, *r.Clone())
	}
	return out, int64(len(out)), nil
}

func (s *RecordStore) SoftDelete(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Records[id]
	if !ok || r.DeletedAt != nil {
		return xerrors.ErrNotFound
	}
	t := at
	r.DeletedAt = &t
	r.UpdatedAt = at
	return nil
}

func (s *RecordStore) ClearDeletedAt(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Records[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	r.DeletedAt = nil
	r.UpdatedAt = at
	return nil
}

func (s *RecordStore) Reinsert(_ context.Context, r *record.CustomerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.Records[r.ID]; exists {
		return fmt.Errorf("record %d already present", r.ID)
	}
	if r.ID > s.seq {
		s.seq = r.ID
	}
	s.Records[r.ID] = r.Clone()
	return nil
}

// Remove physically deletes a row, simulating out-of-band cleanup.
func (s *RecordStore) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Records, id)
}

func (s *RecordStore) UpdateTeamPhone(_ context.Context, teamName string, phone *string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.Records {
		if r.DeletedAt == nil && r.TeamName() == teamName {
			if phone == nil {
				r.ConstructionTeamPhone = nil
			} else {
				p := *phone
				r.ConstructionTeamPhone = &p
			}
			r.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

// SnapshotStore is an in-memory audit.Repository.
type SnapshotStore struct {
	mu        sync.Mutex
	Snapshots map[string]*audit.DeletedRecordSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{Snapshots: map[string]*audit.DeletedRecordSnapshot{}}
}

func (s *SnapshotStore) Create(_ context.Context, snap *audit.DeletedRecordSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.Snapshots[snap.ID]; exists {
		return fmt.Errorf("snapshot %s already present", snap.ID)
	}
	cp := *snap
	s.Snapshots[snap.ID] = &cp
	return nil
}

func (s *SnapshotStore) FindForUpdate(_ context.Context, id string) (*audit.DeletedRecordSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.Snapshots[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *snap
	return &cp, nil
}

func (s *SnapshotStore) UnrestoredByRecordID(_ context.Context, recordID int64) (*audit.DeletedRecordSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *audit.DeletedRecordSnapshot
	for _, snap := range s.Snapshots {
		if snap.RecordID != recordID || snap.RestoredAt != nil {
			continue
		}
		if latest == nil || snap.DeletedAt.After(latest.DeletedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *SnapshotStore) MarkRestored(_ context.Context, id string, at time.Time, by string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.Snapshots[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if snap.RestoredAt != nil {
		return xerrors.ErrAlreadyRestored
	}
	t := at
	snap.RestoredAt = &t
	snap.RestoredBy = &by
	return nil
}

func (s *SnapshotStore) List(_ context.Context, restored bool) ([]audit.DeletedRecordSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []audit.DeletedRecordSnapshot{}
	for _, snap := range s.Snapshots {
		if (snap.RestoredAt != nil) == restored {
			out = append(out, *snap)
		}
	}
	return out, nil
}

// Directory is an in-memory team phone lookup satisfying rules.Directory.
type Directory map[string]string

func (d Directory) TeamPhone(_ context.Context, name string) (*string, error) {
	if p, ok := d[name]; ok {
		return &p, nil
	}
	return nil, nil
}
