package aid

import (
	"time"

	"victim-aid-go/internal/domain/family"
)

type Status string

const (
	StatusPlanned   Status = "planned"
	StatusSubmitted Status = "submitted"
	StatusValidated Status = "validated"
	StatusRefused   Status = "refused"
)

func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusPlanned, StatusSubmitted, StatusValidated, StatusRefused:
		return Status(value), true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusValidated || s == StatusRefused
}

const (
	KindSchool    = "scolaire"
	KindAllowance = "allocation"
	KindHousing   = "logement"
	KindOther     = "autre"
)

var kinds = []string{KindSchool, KindAllowance, KindHousing, KindOther}

type Request struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	FamilyID      uint           `gorm:"not null;index" json:"family_id"`
	Kind          string         `gorm:"size:20;not null" json:"kind"`
	Status        Status         `gorm:"size:20;not null;index" json:"status"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	CreatedByID   *uint          `gorm:"index" json:"created_by_id"`
	ValidatedByID *uint          `json:"validated_by_id"`
	DecidedAt     *time.Time     `json:"decided_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	Family        *family.Family `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
}

func (Request) TableName() string {
	return "aid_requests"
}

type ListFilter struct {
	Status      *Status
	FamilyID    *uint
	CreatedByID *uint
	Limit       int
	Offset      int
}

type Tracking struct {
	Requests []Request        `json:"requests"`
	Total    int64            `json:"total"`
	Counts   map[Status]int64 `json:"counts"`
}
