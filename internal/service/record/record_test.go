package record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solarcrm-service/internal/domain/record"
	xerrors "solarcrm-service/internal/pkg/errors"
	"solarcrm-service/internal/testutil"
	"solarcrm-service/internal/workflow"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

type fixture struct {
	svc   *RecordService
	store *testutil.RecordStore
	dir   testutil.Directory
	clock *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewRecordStore()
	dir := testutil.Directory{"TeamA": "111", "TeamB": "222"}
	now := t0
	f := &fixture{store: store, dir: dir, clock: &now}
	f.svc = NewRecordService(store, dir, &testutil.Tx{}, nil, zap.NewNop())
	f.svc.SetClock(func() time.Time { return *f.clock })
	return f
}

func (f *fixture) advanceClock(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestCreateOrUpdate_CreateDerivesSizing(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.CreateOrUpdate(context.Background(), 0, record.Patch{
		CustomerName: strp("Zhang"),
		Phone:        strp("123"),
		ModuleCount:  intp(45),
	})
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	require.NotNil(t, rec.Capacity)
	assert.Equal(t, 31.95, *rec.Capacity)
	assert.Equal(t, "SPV-30K", *rec.Inverter)
	assert.Equal(t, workflow.ReviewPending, rec.TechnicalStatus)
}

func TestCreateOrUpdate_DuplicateConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrUpdate(context.Background(), 0, record.Patch{
		CustomerName: strp("Zhang"), Phone: strp("123"),
	})
	require.NoError(t, err)

	_, err = f.svc.CreateOrUpdate(context.Background(), 0, record.Patch{
		CustomerName: strp("Zhang"), Phone: strp("123"),
	})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
}

func TestCreateOrUpdate_UpdateUnknownID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrUpdate(context.Background(), 42, record.Patch{Notes: strp("x")})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestCreateOrUpdate_DeletedRecordIsNotFound(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateOrUpdate(context.Background(), 0, record.Patch{
		CustomerName: strp("Zhang"), Phone: strp("123"),
	})
	require.NoError(t, err)

	require.NoError(t, f.store.SoftDelete(context.Background(), rec.ID, t0))

	_, err = f.svc.CreateOrUpdate(context.Background(), rec.ID, record.Patch{Notes: strp("x")})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestCreateOrUpdate_StampsUpdatedAtFromClock(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.CreateOrUpdate(context.Background(), 0, record.Patch{
		CustomerName: strp("Zhang"), Phone: strp("123"),
	})
	require.NoError(t, err)

	f.advanceClock(48 * time.Hour)

	updated, err := f.svc.CreateOrUpdate(context.Background(), rec.ID, record.Patch{Notes: strp("x")})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(48*time.Hour), updated.UpdatedAt)

	stored, err := f.store.FindByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(48*time.Hour), stored.UpdatedAt)
}

func TestCreateOrUpdate_DispatchScenario(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.CreateOrUpdate(context.Background(), 0, record.Patch{
		CustomerName: strp("Li"), Phone: strp("9"),
	})
	require.NoError(t, err)

	rec, err = f.svc.CreateOrUpdate(context.Background(), rec.ID, record.Patch{
		ConstructionTeam: strp("TeamA"),
	})
	require.NoError(t, err)
	require.NotNil(t, rec.DispatchDate)
	assert.Equal(t, t0, *rec.DispatchDate)
	assert.Equal(t, "111", *rec.ConstructionTeamPhone)

	rec, err = f.svc.CreateOrUpdate(context.Background(), rec.ID, record.Patch{
		ConstructionTeam: strp(""),
	})
	require.NoError(t, err)
	assert.Nil(t, rec.DispatchDate)
	assert.Nil(t, rec.ConstructionTeamPhone)
}

func TestCreateOrUpdate_IdempotentPatch(t *testing.T) {
	f := newFixture(t)
	patch := record.Patch{
		CustomerName:     strp("Li"),
		Phone:            strp("9"),
		ModuleCount:      intp(45),
		ConstructionTeam: strp("TeamA"),
	}

	first, err := f.svc.CreateOrUpdate(context.Background(), 0, patch)
	require.NoError(t, err)

	f.advanceClock(72 * time.Hour)

	second, err := f.svc.CreateOrUpdate(context.Background(), first.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, *first.DispatchDate, *second.DispatchDate, "dispatch_date must not move on a no-op save")
	assert.Equal(t, first.Capacity, second.Capacity)
	assert.Equal(t, first.Inverter, second.Inverter)
}

func TestAdvanceTechnicalReview(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateOrUpdate(context.Background(), 0, record.Patch{
		CustomerName: strp("Li"), Phone: strp("9"),
	})
	require.NoError(t, err)

	rec, err = f.svc.AdvanceTechnicalReview(context.Background(), rec.ID, "approved", strp("ok"))
	require.NoError(t, err)
	assert.Equal(t, workflow.ReviewApproved, rec.TechnicalStatus)
	require.NotNil(t, rec.TechnicalReviewedAt)
	assert.Equal(t, t0, *rec.TechnicalReviewedAt)

	_, err = f.svc.AdvanceTechnicalReview(context.Background(), rec.ID, "bogus", nil)
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	// A rejected pipeline step must leave the stored record untouched.
	stored, err := f.svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.ReviewApproved, stored.TechnicalStatus)
}

func TestAdvanceConstructionAcceptance_WaitingCountdown(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CreateOrUpdate(context.Background(), 0, record.Patch{
		CustomerName: strp("Li"), Phone: strp("9"),
	})
	require.NoError(t, err)

	rec, err = f.svc.AdvanceConstructionAcceptance(context.Background(), rec.ID, "waiting", intp(10), nil)
	require.NoError(t, err)
	assert.Equal(t, workflow.AcceptanceWaiting, rec.AcceptanceStatus)

	// Three simulated days later the derived view reports 3 elapsed and
	// completion at start + 10 days.
	f.advanceClock(3 * 24 * time.Hour)

	view, err := f.svc.View(context.Background(), rec.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Waiting)
	assert.Equal(t, 3, view.Waiting.DaysElapsed)
	assert.Equal(t, t0.AddDate(0, 0, 10), view.Waiting.ExpectedCompletion)

	rec, err = f.svc.AdvanceConstructionAcceptance(context.Background(), rec.ID, "completed", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, workflow.AcceptanceCompleted, rec.AcceptanceStatus)
	assert.Nil(t, rec.WaitDays)

	view, err = f.svc.View(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Waiting)
}

func TestList_Pagination(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"A", "B", "C"} {
		_, err := f.svc.CreateOrUpdate(context.Background(), 0, record.Patch{
			CustomerName: strp(n), Phone: strp("p" + n),
		})
		require.NoError(t, err)
	}

	resp, err := f.svc.List(context.Background(), &record.ListFilters{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 1, resp.Page)
}
