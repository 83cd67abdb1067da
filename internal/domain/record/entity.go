// internal/domain/record/entity.go
package record

import (
	"time"

	"solarcrm-service/internal/sizing"
	"solarcrm-service/internal/workflow"

	"github.com/lib/pq"
)

// CustomerRecord is the primary entity: one installation customer. The
// sizing block is always exactly the calculator output for ModuleCount and
// is never accepted from callers; the workflow blocks are only moved through
// the workflow package.
type CustomerRecord struct {
	ID int64 `json:"id" db:"id"`

	// Customer details
	CustomerName string         `json:"customer_name" db:"customer_name"`
	Phone        string         `json:"phone" db:"phone"`
	Address      *string        `json:"address,omitempty" db:"address"`
	Notes        *string        `json:"notes,omitempty" db:"notes"`
	Tags         pq.StringArray `json:"tags,omitempty" db:"tags"`

	// Commercial input
	ModuleCount *int `json:"module_count,omitempty" db:"module_count"`

	// Derived sizing (functions of ModuleCount)
	Capacity         *float64 `json:"capacity,omitempty" db:"capacity"`
	FilingCapacity   *float64 `json:"filing_capacity,omitempty" db:"filing_capacity"`
	InvestmentAmount *float64 `json:"investment_amount,omitempty" db:"investment_amount"`
	LandArea         *float64 `json:"land_area,omitempty" db:"land_area"`
	Inverter         *string  `json:"inverter,omitempty" db:"inverter"`
	DistributionBox  *string  `json:"distribution_box,omitempty" db:"distribution_box"`
	CopperWire       *string  `json:"copper_wire,omitempty" db:"copper_wire"`
	AluminumWire     *string  `json:"aluminum_wire,omitempty" db:"aluminum_wire"`

	// Technical review workflow
	TechnicalStatus     workflow.ReviewStatus `json:"technical_status" db:"technical_status"`
	TechnicalReviewedAt *time.Time            `json:"technical_reviewed_at,omitempty" db:"technical_reviewed_at"`
	TechnicalRejectedAt *time.Time            `json:"technical_rejected_at,omitempty" db:"technical_rejected_at"`
	TechnicalNotes      *string               `json:"technical_notes,omitempty" db:"technical_notes"`

	// Construction acceptance workflow
	AcceptanceStatus      workflow.AcceptanceStatus `json:"acceptance_status" db:"acceptance_status"`
	AcceptanceCompletedAt *time.Time                `json:"acceptance_completed_at,omitempty" db:"acceptance_completed_at"`
	AcceptanceNotes       *string                   `json:"acceptance_notes,omitempty" db:"acceptance_notes"`
	WaitDays              *int                      `json:"wait_days,omitempty" db:"wait_days"`
	WaitStartedAt         *time.Time                `json:"wait_started_at,omitempty" db:"wait_started_at"`

	// Dispatch
	ConstructionTeam      *string    `json:"construction_team,omitempty" db:"construction_team"`
	ConstructionTeamPhone *string    `json:"construction_team_phone,omitempty" db:"construction_team_phone"`
	DispatchDate          *time.Time `json:"dispatch_date,omitempty" db:"dispatch_date"`

	// Timestamps
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Clone returns a deep copy safe to mutate independently.
func (r *CustomerRecord) Clone() *CustomerRecord {
	c := *r
	c.Address = cloneStr(r.Address)
	c.Notes = cloneStr(r.Notes)
	c.Tags = append(pq.StringArray(nil), r.Tags...)
	c.ModuleCount = cloneInt(r.ModuleCount)
	c.Capacity = cloneFloat(r.Capacity)
	c.FilingCapacity = cloneFloat(r.FilingCapacity)
	c.InvestmentAmount = cloneFloat(r.InvestmentAmount)
	c.LandArea = cloneFloat(r.LandArea)
	c.Inverter = cloneStr(r.Inverter)
	c.DistributionBox = cloneStr(r.DistributionBox)
	c.CopperWire = cloneStr(r.CopperWire)
	c.AluminumWire = cloneStr(r.AluminumWire)
	c.TechnicalReviewedAt = cloneTime(r.TechnicalReviewedAt)
	c.TechnicalRejectedAt = cloneTime(r.TechnicalRejectedAt)
	c.TechnicalNotes = cloneStr(r.TechnicalNotes)
	c.AcceptanceCompletedAt = cloneTime(r.AcceptanceCompletedAt)
	c.AcceptanceNotes = cloneStr(r.AcceptanceNotes)
	c.WaitDays = cloneInt(r.WaitDays)
	c.WaitStartedAt = cloneTime(r.WaitStartedAt)
	c.ConstructionTeam = cloneStr(r.ConstructionTeam)
	c.ConstructionTeamPhone = cloneStr(r.ConstructionTeamPhone)
	c.DispatchDate = cloneTime(r.DispatchDate)
	c.DeletedAt = cloneTime(r.DeletedAt)
	return &c
}

// ApplySizing overwrites the derived sizing block with a calculator bundle.
func (r *CustomerRecord) ApplySizing(b sizing.Bundle) {
	r.Capacity = b.Capacity
	r.FilingCapacity = b.FilingCapacity
	r.InvestmentAmount = b.InvestmentAmount
	r.LandArea = b.LandArea
	r.Inverter = b.Inverter
	r.DistributionBox = b.DistributionBox
	r.CopperWire = b.CopperWire
	r.AluminumWire = b.AluminumWire
}

// ApplySizingFromCount recomputes the derived block from the current
// ModuleCount.
func (r *CustomerRecord) ApplySizingFromCount() {
	r.ApplySizing(sizing.Calculate(r.ModuleCount))
}

// ReviewState assembles the technical-review workflow state.
func (r *CustomerRecord) ReviewState() workflow.ReviewState {
	return workflow.ReviewState{
		Status:     r.TechnicalStatus,
		ReviewedAt: r.TechnicalReviewedAt,
		RejectedAt: r.TechnicalRejectedAt,
		Notes:      r.TechnicalNotes,
	}
}

// ApplyReviewState writes a technical-review state back onto the record.
func (r *CustomerRecord) ApplyReviewState(s workflow.ReviewState) {
	r.TechnicalStatus = s.Status
	r.TechnicalReviewedAt = s.ReviewedAt
	r.TechnicalRejectedAt = s.RejectedAt
	r.TechnicalNotes = s.Notes
}

// AcceptanceState assembles the construction-acceptance workflow state.
func (r *CustomerRecord) AcceptanceState() workflow.AcceptanceState {
	return workflow.AcceptanceState{
		Status:        r.AcceptanceStatus,
		CompletedAt:   r.AcceptanceCompletedAt,
		Notes:         r.AcceptanceNotes,
		WaitDays:      r.WaitDays,
		WaitStartedAt: r.WaitStartedAt,
	}
}

// ApplyAcceptanceState writes a construction-acceptance state back onto the record.
func (r *CustomerRecord) ApplyAcceptanceState(s workflow.AcceptanceState) {
	r.AcceptanceStatus = s.Status
	r.AcceptanceCompletedAt = s.CompletedAt
	r.AcceptanceNotes = s.Notes
	r.WaitDays = s.WaitDays
	r.WaitStartedAt = s.WaitStartedAt
}

// TeamName returns the assigned construction team, "" when unassigned
// (empty and null are equivalent for dispatch purposes).
func (r *CustomerRecord) TeamName() string {
	if r.ConstructionTeam == nil {
		return ""
	}
	return *r.ConstructionTeam
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
