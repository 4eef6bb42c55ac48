package victims

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"victim-aid-go/internal/domain/apperr"
	victimdomain "victim-aid-go/internal/domain/victim"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
)

const (
	certificateField = "acte_deces"
	formMemory       = 8 << 20
)

type victimRequest struct {
	Matricule           string              `json:"matricule"`
	LastName            string              `json:"last_name"`
	FirstName           string              `json:"first_name"`
	BirthDate           *commonhandler.Date `json:"birth_date"`
	Sex                 string              `json:"sex"`
	Nationality         string              `json:"nationality"`
	CivilStatus         string              `json:"civil_status"`
	Profession          string              `json:"profession"`
	Address             string              `json:"address"`
	Phone               string              `json:"phone"`
	Email               string              `json:"email"`
	Grade               string              `json:"grade"`
	DeathDate           *commonhandler.Date `json:"death_date"`
	DeathPlace          string              `json:"death_place"`
	IncidentType        string              `json:"incident_type"`
	IncidentDescription string              `json:"incident_description"`
	IncidentDate        *commonhandler.Date `json:"incident_date"`
	IncidentPlace       string              `json:"incident_place"`
	FamilyID            *uint               `json:"family_id"`
}

func (req victimRequest) input() victimdomain.Input {
	return victimdomain.Input{
		Matricule:           req.Matricule,
		LastName:            req.LastName,
		FirstName:           req.FirstName,
		BirthDate:           req.BirthDate.Ptr(),
		Sex:                 req.Sex,
		Nationality:         req.Nationality,
		CivilStatus:         req.CivilStatus,
		Profession:          req.Profession,
		Address:             req.Address,
		Phone:               req.Phone,
		Email:               req.Email,
		Grade:               req.Grade,
		DeathDate:           req.DeathDate.Ptr(),
		DeathPlace:          req.DeathPlace,
		IncidentType:        req.IncidentType,
		IncidentDescription: req.IncidentDescription,
		IncidentDate:        req.IncidentDate.Ptr(),
		IncidentPlace:       req.IncidentPlace,
		FamilyID:            req.FamilyID,
	}
}

func noop() {}

// readVictim decodes the request body. On failure it has already written the
// response and returns false.
func (h *Handlers) readVictim(w http.ResponseWriter, r *http.Request) (victimdomain.Input, *victimdomain.Attachment, func(), bool) {
	if !isMultipart(r) {
		var req victimRequest
		if err := commonhandler.DecodeJSON(r, &req); err != nil {
			commonhandler.WriteInvalidJSON(w)
			return victimdomain.Input{}, nil, noop, false
		}
		return req.input(), nil, noop, true
	}

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	}
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			commonhandler.WriteBadParam(w, certificateField, "file too large")
		} else {
			commonhandler.WriteError(w, http.StatusBadRequest, "invalid_form", "invalid multipart form")
		}
		return victimdomain.Input{}, nil, noop, false
	}

	input, err := inputFromForm(r.MultipartForm)
	if err != nil {
		h.fail(w, r, "victims.read_form", err)
		_ = r.MultipartForm.RemoveAll()
		return victimdomain.Input{}, nil, noop, false
	}

	file, header, err := r.FormFile(certificateField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return input, nil, func() { _ = r.MultipartForm.RemoveAll() }, true
	case err != nil:
		_ = r.MultipartForm.RemoveAll()
		commonhandler.WriteBadParam(w, certificateField, "unreadable file")
		return victimdomain.Input{}, nil, noop, false
	}

	attachment := &victimdomain.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	cleanup := func() {
		_ = file.Close()
		_ = r.MultipartForm.RemoveAll()
	}
	return input, attachment, cleanup, true
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func inputFromForm(form *multipart.Form) (victimdomain.Input, error) {
	get := func(name string) string {
		if values := form.Value[name]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}

	errs := apperr.NewValidation("invalid victim record")
	date := func(name string) *time.Time {
		parsed, err := commonhandler.ParseDateParam(get(name))
		if err != nil {
			errs.Add(name, "expected a date formatted as YYYY-MM-DD")
			return nil
		}
		return parsed
	}

	input := victimdomain.Input{
		Matricule:           get("matricule"),
		LastName:            get("last_name"),
		FirstName:           get("first_name"),
		BirthDate:           date("birth_date"),
		Sex:                 get("sex"),
		Nationality:         get("nationality"),
		CivilStatus:         get("civil_status"),
		Profession:          get("profession"),
		Address:             get("address"),
		Phone:               get("phone"),
		Email:               get("email"),
		Grade:               get("grade"),
		DeathDate:           date("death_date"),
		DeathPlace:          get("death_place"),
		IncidentType:        get("incident_type"),
		IncidentDescription: get("incident_description"),
		IncidentDate:        date("incident_date"),
		IncidentPlace:       get("incident_place"),
	}
	familyID, err := commonhandler.ParseUintParam(get("family_id"))
	if err != nil {
		errs.Add("family_id", "must be a positive number")
	}
	input.FamilyID = familyID

	if err := errs.OrNil(); err != nil {
		return victimdomain.Input{}, err
	}
	return input, nil
}
