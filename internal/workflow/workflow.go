// Package workflow models the two approval workflows a customer record moves
// through: technical review (pending -> approved | rejected) and construction
// acceptance (pending -> waiting -> completed). Each status is an explicit
// tagged state whose timestamp is set and cleared together with it, so a
// non-pending status can never be observed without its date.
package workflow

import (
	"fmt"
	"time"

	xerrors "solarcrm-service/internal/pkg/errors"
)

// Technical review statuses.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Construction acceptance statuses.
type AcceptanceStatus string

const (
	AcceptancePending   AcceptanceStatus = "pending"
	AcceptanceWaiting   AcceptanceStatus = "waiting"
	AcceptanceCompleted AcceptanceStatus = "completed"
)

const defaultApprovalNote = "approved"

// ReviewState is the full technical-review state of a record.
type ReviewState struct {
	Status     ReviewStatus
	ReviewedAt *time.Time
	RejectedAt *time.Time
	Notes      *string
}

// AcceptanceState is the full construction-acceptance state of a record.
// WaitDays/WaitStartedAt are only set while Status is AcceptanceWaiting.
type AcceptanceState struct {
	Status        AcceptanceStatus
	CompletedAt   *time.Time
	Notes         *string
	WaitDays      *int
	WaitStartedAt *time.Time
}

// WaitingView is the derived read-only view of a waiting acceptance.
type WaitingView struct {
	DaysElapsed        int       `json:"days_elapsed"`
	ExpectedCompletion time.Time `json:"expected_completion"`
}

// AdvanceReview moves a technical review to the requested outcome. Moving to
// approved clears any prior rejection marker; moving to pending resets the
// workflow entirely (used when correcting a mis-entry).
func AdvanceReview(cur ReviewState, outcome string, notes *string, now time.Time) (ReviewState, error) {
	switch ReviewStatus(outcome) {
	case ReviewApproved:
		return ReviewState{
			Status:     ReviewApproved,
			ReviewedAt: &now,
			Notes:      noteOrDefault(notes),
		}, nil
	case ReviewRejected:
		return ReviewState{
			Status:     ReviewRejected,
			RejectedAt: &now,
			Notes:      notes,
		}, nil
	case ReviewPending:
		return ReviewState{Status: ReviewPending}, nil
	default:
		return cur, fmt.Errorf("%w: unknown technical review outcome %q", xerrors.ErrValidation, outcome)
	}
}

// AdvanceAcceptance moves a construction acceptance to the requested outcome.
// Entering waiting requires a positive day count; completing clears the
// waiting sub-state; pending resets the workflow.
func AdvanceAcceptance(cur AcceptanceState, outcome string, days *int, notes *string, now time.Time) (AcceptanceState, error) {
	switch AcceptanceStatus(outcome) {
	case AcceptanceWaiting:
		if days == nil || *days < 1 {
			return cur, fmt.Errorf("%w: waiting requires a positive day count", xerrors.ErrValidation)
		}
		d := *days
		return AcceptanceState{
			Status:        AcceptanceWaiting,
			Notes:         notes,
			WaitDays:      &d,
			WaitStartedAt: &now,
		}, nil
	case AcceptanceCompleted:
		return AcceptanceState{
			Status:      AcceptanceCompleted,
			CompletedAt: &now,
			Notes:       noteOrDefault(notes),
		}, nil
	case AcceptancePending:
		return AcceptanceState{Status: AcceptancePending}, nil
	default:
		return cur, fmt.Errorf("%w: unknown construction acceptance outcome %q", xerrors.ErrValidation, outcome)
	}
}

// Waiting reports the derived countdown view. ok is false unless the state
// is currently waiting.
func (s AcceptanceState) Waiting(now time.Time) (WaitingView, bool) {
	if s.Status != AcceptanceWaiting || s.WaitDays == nil || s.WaitStartedAt == nil {
		return WaitingView{}, false
	}
	elapsed := int(now.Sub(*s.WaitStartedAt) / (24 * time.Hour))
	if elapsed < 0 {
		elapsed = 0
	}
	return WaitingView{
		DaysElapsed:        elapsed,
		ExpectedCompletion: s.WaitStartedAt.AddDate(0, 0, *s.WaitDays),
	}, true
}

func noteOrDefault(notes *string) *string {
	if notes != nil && *notes != "" {
		return notes
	}
	n := defaultApprovalNote
	return &n
}
