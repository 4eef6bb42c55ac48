package family

import "time"

const (
	TypeNuclear      = "nucleaire"
	TypeExtended     = "elargie"
	TypeSingleParent = "monoparentale"
	TypeBlended      = "recomposee"

	SituationStable     = "stable"
	SituationPrecarious = "precaire"
	SituationDifficult  = "difficile"
	SituationWealthy    = "aisee"
)

var (
	familyTypes = []string{TypeNuclear, TypeExtended, TypeSingleParent, TypeBlended}
	situations  = []string{SituationStable, SituationPrecarious, SituationDifficult, SituationWealthy}
	relations   = []string{"parent", "enfant", "conjoint", "frere_soeur", "grand_parent", "petit_enfant", "oncle_tante", "cousin", "autre"}
)

type Family struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	Type              string    `gorm:"size:20;not null" json:"type"`
	Address           string    `gorm:"type:text;not null" json:"address"`
	City              string    `gorm:"size:100;not null" json:"city"`
	Phone             string    `gorm:"size:20;not null" json:"phone"`
	EconomicSituation string    `gorm:"size:20;not null" json:"economic_situation"`
	AdditionalInfo    string    `gorm:"type:text;not null" json:"additional_info"`
	PersonCount       int       `gorm:"not null" json:"person_count"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Member struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	FamilyID       uint       `gorm:"not null;index" json:"family_id"`
	LastName       string     `gorm:"size:100;not null" json:"last_name"`
	FirstName      string     `gorm:"size:100;not null" json:"first_name"`
	BirthDate      *time.Time `gorm:"type:date" json:"birth_date"`
	Sex            string     `gorm:"size:1;not null" json:"sex"`
	Relation       string     `gorm:"size:20;not null" json:"relation"`
	Profession     string     `gorm:"size:100;not null" json:"profession"`
	Phone          string     `gorm:"size:20;not null" json:"phone"`
	Email          string     `gorm:"size:254;not null" json:"email"`
	AdditionalInfo string     `gorm:"type:text;not null" json:"additional_info"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Member) TableName() string {
	return "family_members"
}

// VictimSummary is the read-only view of a victim record linked to a family.
type VictimSummary struct {
	ID          uint   `json:"id"`
	Matricule   string `json:"matricule"`
	LastName    string `json:"last_name"`
	FirstName   string `json:"first_name"`
	CreatedByID *uint  `json:"created_by_id"`
}

func (VictimSummary) TableName() string {
	return "victims"
}

type Detail struct {
	Family  Family          `json:"family"`
	Members []Member        `json:"members"`
	Victims []VictimSummary `json:"victims"`
}

type ListFilter struct {
	Search string
	City   string
	Limit  int
	Offset int
}
