package victim

import (
	"time"

	"gorm.io/gorm"

	"victim-aid-go/internal/domain/family"
)

var civilStatuses = []string{"celibataire", "marie", "divorce", "veuf", "union_libre"}

// Victim is a victim record. Matricule is unique among records that are not
// soft-deleted.
type Victim struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Matricule           string         `gorm:"size:50;not null" json:"matricule"`
	LastName            string         `gorm:"size:100;not null" json:"last_name"`
	FirstName           string         `gorm:"size:100;not null" json:"first_name"`
	BirthDate           *time.Time     `gorm:"type:date" json:"birth_date"`
	Sex                 string         `gorm:"size:1;not null" json:"sex"`
	Nationality         string         `gorm:"size:50;not null" json:"nationality"`
	CivilStatus         string         `gorm:"size:20;not null" json:"civil_status"`
	Profession          string         `gorm:"size:100;not null" json:"profession"`
	Address             string         `gorm:"type:text;not null" json:"address"`
	Phone               string         `gorm:"size:20;not null" json:"phone"`
	Email               string         `gorm:"size:254;not null" json:"email"`
	Grade               string         `gorm:"size:100;not null" json:"grade"`
	DeathDate           *time.Time     `gorm:"type:date" json:"death_date"`
	DeathPlace          string         `gorm:"size:200;not null" json:"death_place"`
	DeathCertificateKey string         `gorm:"size:255;not null" json:"-"`
	IncidentType        string         `gorm:"size:100;not null" json:"incident_type"`
	IncidentDescription string         `gorm:"type:text;not null" json:"incident_description"`
	IncidentDate        *time.Time     `gorm:"type:date" json:"incident_date"`
	IncidentPlace       string         `gorm:"size:200;not null" json:"incident_place"`
	FamilyID            *uint          `gorm:"index" json:"family_id"`
	CreatedByID         *uint          `gorm:"index" json:"created_by_id"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v Victim) FullName() string {
	return v.FirstName + " " + v.LastName
}

type Detail struct {
	Victim              Victim          `json:"victim"`
	Family              *family.Family  `json:"family"`
	Members             []family.Member `json:"members"`
	DeathCertificateURL string          `json:"death_certificate_url,omitempty"`
}

type ListFilter struct {
	Search    string
	FamilyID  *uint
	HasFamily *bool
	Limit     int
	Offset    int
}
