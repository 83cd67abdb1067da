package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcrm-service/internal/domain/record"
	xerrors "solarcrm-service/internal/pkg/errors"
	"solarcrm-service/internal/workflow"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type fakeDirectory map[string]string

func (d fakeDirectory) TeamPhone(_ context.Context, name string) (*string, error) {
	if p, ok := d[name]; ok {
		return &p, nil
	}
	return nil, nil
}

type fakeDuplicates map[string]int64 // name+"|"+phone -> record id

func (d fakeDuplicates) ActiveExists(_ context.Context, name, phone string, excludeID int64) (bool, error) {
	id, ok := d[name+"|"+phone]
	return ok && id != excludeID, nil
}

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

func newPatch(name, phone string) record.Patch {
	return record.Patch{CustomerName: strp(name), Phone: strp(phone)}
}

func TestApply_CreateComputesSizing(t *testing.T) {
	patch := newPatch("Zhang", "123")
	patch.ModuleCount = intp(45)

	rec, err := Apply(context.Background(), nil, patch, fakeDirectory{}, fakeDuplicates{}, now)
	require.NoError(t, err)

	assert.Equal(t, "Zhang", rec.CustomerName)
	require.NotNil(t, rec.Capacity)
	assert.Equal(t, 31.95, *rec.Capacity)
	require.NotNil(t, rec.Inverter)
	assert.Equal(t, "SPV-30K", *rec.Inverter)
	assert.Equal(t, "100A", *rec.DistributionBox)
	assert.Equal(t, workflow.ReviewPending, rec.TechnicalStatus)
	assert.Equal(t, workflow.AcceptancePending, rec.AcceptanceStatus)
}

func TestApply_Validation(t *testing.T) {
	_, err := Apply(context.Background(), nil, record.Patch{Phone: strp("123")}, fakeDirectory{}, fakeDuplicates{}, now)
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	_, err = Apply(context.Background(), nil, newPatch("A", ""), fakeDirectory{}, fakeDuplicates{}, now)
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	patch := newPatch("A", "1")
	patch.ModuleCount = intp(-3)
	_, err = Apply(context.Background(), nil, patch, fakeDirectory{}, fakeDuplicates{}, now)
	assert.ErrorIs(t, err, xerrors.ErrValidation)
}

func TestApply_DuplicateRejected(t *testing.T) {
	dup := fakeDuplicates{"Zhang|123": 7}

	_, err := Apply(context.Background(), nil, newPatch("Zhang", "123"), fakeDirectory{}, dup, now)
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	// The same record updating itself is no conflict.
	old := &record.CustomerRecord{ID: 7, CustomerName: "Zhang", Phone: "123"}
	rec, err := Apply(context.Background(), old, record.Patch{Notes: strp("hello")}, fakeDirectory{}, dup, now)
	require.NoError(t, err)
	assert.Equal(t, "hello", *rec.Notes)
}

func TestApply_DuplicateCheckedOnlyOnIdentityChange(t *testing.T) {
	// A poisoned checker proves the rule is skipped when name/phone are
	// untouched.
	old := &record.CustomerRecord{ID: 7, CustomerName: "Zhang", Phone: "123"}
	dup := fakeDuplicates{"Zhang|123": 99}

	_, err := Apply(context.Background(), old, record.Patch{Notes: strp("x")}, fakeDirectory{}, dup, now)
	assert.NoError(t, err)

	_, err = Apply(context.Background(), old, record.Patch{Phone: strp("456")}, fakeDirectory{}, fakeDuplicates{"Zhang|456": 99}, now)
	assert.ErrorIs(t, err, xerrors.ErrConflict)
}

func TestApply_ModuleCountChangeRecomputes(t *testing.T) {
	old := &record.CustomerRecord{ID: 1, CustomerName: "Li", Phone: "9", ModuleCount: intp(45)}
	old.ApplySizingFromCount()

	rec, err := Apply(context.Background(), old, record.Patch{ModuleCount: intp(14)}, fakeDirectory{}, fakeDuplicates{}, now)
	require.NoError(t, err)
	assert.Equal(t, "SPV-10K", *rec.Inverter)
	assert.Equal(t, 9.94, *rec.Capacity)

	// Dropping below the minimum clears the equipment fields.
	rec, err = Apply(context.Background(), rec, record.Patch{ModuleCount: intp(5)}, fakeDirectory{}, fakeDuplicates{}, now)
	require.NoError(t, err)
	assert.Nil(t, rec.Inverter)
	assert.Nil(t, rec.DistributionBox)
	require.NotNil(t, rec.Capacity)
	assert.Equal(t, 3.55, *rec.Capacity)
}

func TestApply_UnchangedModuleCountLeavesSizing(t *testing.T) {
	old := &record.CustomerRecord{ID: 1, CustomerName: "Li", Phone: "9", ModuleCount: intp(45)}
	old.ApplySizingFromCount()

	rec, err := Apply(context.Background(), old, record.Patch{Notes: strp("n")}, fakeDirectory{}, fakeDuplicates{}, now)
	require.NoError(t, err)
	assert.Equal(t, *old.Inverter, *rec.Inverter)
	assert.Equal(t, *old.Capacity, *rec.Capacity)
}

func TestApply_DispatchScenario(t *testing.T) {
	dir := fakeDirectory{"TeamA": "111"}

	// null -> TeamA stamps dispatch_date and caches the phone.
	old := &record.CustomerRecord{ID: 1, CustomerName: "Li", Phone: "9"}
	rec, err := Apply(context.Background(), old, record.Patch{ConstructionTeam: strp("TeamA")}, dir, fakeDuplicates{}, now)
	require.NoError(t, err)
	require.NotNil(t, rec.DispatchDate)
	assert.Equal(t, now, *rec.DispatchDate)
	require.NotNil(t, rec.ConstructionTeamPhone)
	assert.Equal(t, "111", *rec.ConstructionTeamPhone)

	// TeamA -> "" clears both.
	rec2, err := Apply(context.Background(), rec, record.Patch{ConstructionTeam: strp("")}, dir, fakeDuplicates{}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, rec2.ConstructionTeam)
	assert.Nil(t, rec2.DispatchDate)
	assert.Nil(t, rec2.ConstructionTeamPhone)
}

func TestApply_ReassignmentKeepsDispatchDate(t *testing.T) {
	dir := fakeDirectory{"TeamA": "111", "TeamB": "222"}
	old := &record.CustomerRecord{ID: 1, CustomerName: "Li", Phone: "9"}

	rec, err := Apply(context.Background(), old, record.Patch{ConstructionTeam: strp("TeamA")}, dir, fakeDuplicates{}, now)
	require.NoError(t, err)
	first := *rec.DispatchDate

	rec2, err := Apply(context.Background(), rec, record.Patch{ConstructionTeam: strp("TeamB")}, dir, fakeDuplicates{}, now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, *rec2.DispatchDate, "team reassignment must not re-stamp dispatch_date")
	assert.Equal(t, "222", *rec2.ConstructionTeamPhone)
}

func TestApply_UnknownTeamResolvesNilPhone(t *testing.T) {
	old := &record.CustomerRecord{ID: 1, CustomerName: "Li", Phone: "9"}
	rec, err := Apply(context.Background(), old, record.Patch{ConstructionTeam: strp("Ghost")}, fakeDirectory{}, fakeDuplicates{}, now)
	require.NoError(t, err)
	assert.Equal(t, "Ghost", *rec.ConstructionTeam)
	assert.Nil(t, rec.ConstructionTeamPhone)
	assert.NotNil(t, rec.DispatchDate)
}

func TestApply_Idempotent(t *testing.T) {
	dir := fakeDirectory{"TeamA": "111"}
	patch := newPatch("Li", "9")
	patch.ModuleCount = intp(45)
	patch.ConstructionTeam = strp("TeamA")

	rec, err := Apply(context.Background(), nil, patch, dir, fakeDuplicates{}, now)
	require.NoError(t, err)
	rec.ID = 1

	// Re-applying the identical patch later changes nothing, including the
	// dispatch timestamp.
	again, err := Apply(context.Background(), rec, patch, dir, fakeDuplicates{"Li|9": 1}, now.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}

func TestApply_DoesNotMutateOld(t *testing.T) {
	old := &record.CustomerRecord{ID: 1, CustomerName: "Li", Phone: "9", ModuleCount: intp(45)}
	old.ApplySizingFromCount()
	before := old.Clone()

	_, err := Apply(context.Background(), old, record.Patch{ModuleCount: intp(12), ConstructionTeam: strp("TeamA")}, fakeDirectory{}, fakeDuplicates{}, now)
	require.NoError(t, err)
	assert.Equal(t, before, old)
}

// Invariant fuzz: after any sequence of patches, dispatch_date is set iff a
// team is assigned and the cached phone matches the directory.
func TestApply_InvariantsHoldAcrossPatchSequences(t *testing.T) {
	dir := fakeDirectory{"TeamA": "111", "TeamB": "222"}
	patches := []record.Patch{
		{ConstructionTeam: strp("TeamA")},
		{ModuleCount: intp(20)},
		{ConstructionTeam: strp("")},
		{ConstructionTeam: strp("TeamB"), ModuleCount: intp(98)},
		{Notes: strp("visit scheduled")},
		{ConstructionTeam: strp("Ghost")},
		{ModuleCount: intp(0)},
		{ConstructionTeam: strp("")},
		{ConstructionTeam: strp("TeamA")},
	}

	rec, err := Apply(context.Background(), nil, newPatch("Li", "9"), dir, fakeDuplicates{}, now)
	require.NoError(t, err)

	for i, p := range patches {
		rec, err = Apply(context.Background(), rec, p, dir, fakeDuplicates{}, now.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err, "patch %d", i)

		if rec.TeamName() == "" {
			assert.Nil(t, rec.DispatchDate, "patch %d", i)
			assert.Nil(t, rec.ConstructionTeamPhone, "patch %d", i)
		} else {
			assert.NotNil(t, rec.DispatchDate, "patch %d", i)
			want, _ := dir.TeamPhone(context.Background(), rec.TeamName())
			if want == nil {
				assert.Nil(t, rec.ConstructionTeamPhone, "patch %d", i)
			} else {
				require.NotNil(t, rec.ConstructionTeamPhone, "patch %d", i)
				assert.Equal(t, *want, *rec.ConstructionTeamPhone, "patch %d", i)
			}
		}

		if rec.ModuleCount != nil {
			wantSizing := *rec.ModuleCount
			if wantSizing >= 10 {
				assert.NotNil(t, rec.Inverter, "patch %d", i)
			} else {
				assert.Nil(t, rec.Inverter, "patch %d", i)
			}
		}
	}
}
