package victim

import (
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"victim-aid-go/internal/domain/apperr"
)

var certificateExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}

type Input struct {
	Matricule           string
	LastName            string
	FirstName           string
	BirthDate           *time.Time
	Sex                 string
	Nationality         string
	CivilStatus         string
	Profession          string
	Address             string
	Phone               string
	Email               string
	Grade               string
	DeathDate           *time.Time
	DeathPlace          string
	IncidentType        string
	IncidentDescription string
	IncidentDate        *time.Time
	IncidentPlace       string
	FamilyID            *uint
}

// Attachment is an uploaded death certificate.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (a *Attachment) extension() string {
	return strings.ToLower(filepath.Ext(a.Filename))
}

func normalizeMatricule(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func (in Input) apply(v *Victim, now time.Time) error {
	in.Matricule = normalizeMatricule(in.Matricule)
	in.LastName = strings.TrimSpace(in.LastName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.Sex = strings.ToUpper(strings.TrimSpace(in.Sex))
	in.CivilStatus = strings.TrimSpace(in.CivilStatus)
	in.Email = strings.TrimSpace(in.Email)
	in.Nationality = strings.TrimSpace(in.Nationality)
	if in.Sex == "" {
		in.Sex = "M"
	}
	if in.CivilStatus == "" {
		in.CivilStatus = "celibataire"
	}
	if in.Nationality == "" {
		in.Nationality = "Malienne"
	}

	errs := apperr.NewValidation("invalid victim record")
	errs.Required("matricule", in.Matricule)
	errs.MaxLen("matricule", in.Matricule, 50)
	errs.Required("last_name", in.LastName)
	errs.Required("first_name", in.FirstName)
	errs.MaxLen("last_name", in.LastName, 100)
	errs.MaxLen("first_name", in.FirstName, 100)
	errs.OneOf("sex", in.Sex, []string{"M", "F"})
	errs.OneOf("civil_status", in.CivilStatus, civilStatuses)
	errs.Email("email", in.Email)
	errs.MaxLen("phone", in.Phone, 20)
	if in.BirthDate != nil && in.BirthDate.After(now) {
		errs.Add("birth_date", "cannot be in the future")
	}
	if in.DeathDate != nil && in.BirthDate != nil && in.DeathDate.Before(*in.BirthDate) {
		errs.Add("death_date", "cannot precede birth date")
	}
	if err := errs.OrNil(); err != nil {
		return err
	}

	v.Matricule = in.Matricule
	v.LastName = in.LastName
	v.FirstName = in.FirstName
	v.BirthDate = in.BirthDate
	v.Sex = in.Sex
	v.Nationality = in.Nationality
	v.CivilStatus = in.CivilStatus
	v.Profession = strings.TrimSpace(in.Profession)
	v.Address = strings.TrimSpace(in.Address)
	v.Phone = strings.TrimSpace(in.Phone)
	v.Email = in.Email
	v.Grade = strings.TrimSpace(in.Grade)
	v.DeathDate = in.DeathDate
	v.DeathPlace = strings.TrimSpace(in.DeathPlace)
	v.IncidentType = strings.TrimSpace(in.IncidentType)
	v.IncidentDescription = strings.TrimSpace(in.IncidentDescription)
	v.IncidentDate = in.IncidentDate
	v.IncidentPlace = strings.TrimSpace(in.IncidentPlace)
	v.FamilyID = in.FamilyID
	return nil
}

func validateAttachment(a *Attachment, maxSize int64) error {
	if a == nil {
		return nil
	}
	if !slices.Contains(certificateExtensions, a.extension()) {
		return apperr.FieldError("acte_deces", "unsupported file type, expected one of: "+strings.Join(certificateExtensions, ", "))
	}
	if maxSize > 0 && a.Size > maxSize {
		return apperr.FieldError("acte_deces", "file too large")
	}
	return nil
}
