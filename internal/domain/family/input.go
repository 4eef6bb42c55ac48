package family

import (
	"strings"
	"time"

	"victim-aid-go/internal/domain/apperr"
)

type Input struct {
	Name              string
	Type              string
	Address           string
	City              string
	Phone             string
	EconomicSituation string
	AdditionalInfo    string
	PersonCount       int
}

type MemberInput struct {
	LastName       string
	FirstName      string
	BirthDate      *time.Time
	Sex            string
	Relation       string
	Profession     string
	Phone          string
	Email          string
	AdditionalInfo string
}

// NewFamily validates input and returns a family ready to insert.
func NewFamily(input Input) (*Family, error) {
	f := &Family{}
	if err := input.apply(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (in Input) apply(f *Family) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.EconomicSituation = strings.TrimSpace(in.EconomicSituation)
	if in.Type == "" {
		in.Type = TypeNuclear
	}
	if in.EconomicSituation == "" {
		in.EconomicSituation = SituationStable
	}
	if in.PersonCount == 0 {
		in.PersonCount = 1
	}

	v := apperr.NewValidation("invalid family")
	v.Required("name", in.Name)
	v.MaxLen("name", in.Name, 100)
	v.OneOf("type", in.Type, familyTypes)
	v.OneOf("economic_situation", in.EconomicSituation, situations)
	v.MaxLen("city", in.City, 100)
	v.MaxLen("phone", in.Phone, 20)
	if in.PersonCount < 1 {
		v.Add("person_count", "must be at least 1")
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	f.Name = in.Name
	f.Type = in.Type
	f.Address = strings.TrimSpace(in.Address)
	f.City = strings.TrimSpace(in.City)
	f.Phone = strings.TrimSpace(in.Phone)
	f.EconomicSituation = in.EconomicSituation
	f.AdditionalInfo = strings.TrimSpace(in.AdditionalInfo)
	f.PersonCount = in.PersonCount
	return nil
}

func (in MemberInput) apply(m *Member) error {
	in.LastName = strings.TrimSpace(in.LastName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.Sex = strings.ToUpper(strings.TrimSpace(in.Sex))
	in.Relation = strings.TrimSpace(in.Relation)
	in.Email = strings.TrimSpace(in.Email)
	if in.Sex == "" {
		in.Sex = "M"
	}

	v := apperr.NewValidation("invalid family member")
	v.Required("last_name", in.LastName)
	v.Required("first_name", in.FirstName)
	v.MaxLen("last_name", in.LastName, 100)
	v.MaxLen("first_name", in.FirstName, 100)
	v.OneOf("sex", in.Sex, []string{"M", "F"})
	v.Required("relation", in.Relation)
	v.OneOf("relation", in.Relation, relations)
	v.Email("email", in.Email)
	if in.BirthDate != nil && in.BirthDate.After(time.Now()) {
		v.Add("birth_date", "cannot be in the future")
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	m.LastName = in.LastName
	m.FirstName = in.FirstName
	m.BirthDate = in.BirthDate
	m.Sex = in.Sex
	m.Relation = in.Relation
	m.Profession = strings.TrimSpace(in.Profession)
	m.Phone = strings.TrimSpace(in.Phone)
	m.Email = in.Email
	m.AdditionalInfo = strings.TrimSpace(in.AdditionalInfo)
	return nil
}
