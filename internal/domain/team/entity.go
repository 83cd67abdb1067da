// internal/domain/team/entity.go
package team

import "time"

// ConstructionTeam is a reference entity: the directory of crews records are
// dispatched to. Name is the unique key; customer records cache the phone.
type ConstructionTeam struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type UpsertTeamRequest struct {
	Name    string  `json:"name" binding:"required,max=100"`
	Phone   *string `json:"phone" binding:"omitempty,max=20"`
	Address *string `json:"address" binding:"omitempty,max=255"`
	Status  *string `json:"status" binding:"omitempty,oneof=active inactive"`
}
