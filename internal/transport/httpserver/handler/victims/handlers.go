package victims

import (
	"net/http"

	familydomain "victim-aid-go/internal/domain/family"
	victimdomain "victim-aid-go/internal/domain/victim"
	"victim-aid-go/internal/metrics"
	"victim-aid-go/internal/storage"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
	"victim-aid-go/internal/transport/httpserver/middleware"
	"victim-aid-go/pkg/logger"
)

// multipartOverhead is what the form fields may add on top of the file.
const multipartOverhead = 1 << 20

type Handlers struct {
	Victims   *victimdomain.Service
	Files     storage.Store
	maxUpload int64
	log       logger.Logger
	metrics   *metrics.Metrics
}

func New(victims *victimdomain.Service, files storage.Store, maxUpload int64, m *metrics.Metrics, log logger.Logger) *Handlers {
	return &Handlers{
		Victims:   victims,
		Files:     files,
		maxUpload: maxUpload,
		log:       log,
		metrics:   m,
	}
}

func (h *Handlers) ListVictims(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	limit, offset, err := commonhandler.Pagination(r)
	if err != nil {
		commonhandler.WriteBadParam(w, "pagination", err.Error())
		return
	}

	query := r.URL.Query()
	familyID, err := commonhandler.ParseUintParam(query.Get("family_id"))
	if err != nil {
		commonhandler.WriteBadParam(w, "family_id", err.Error())
		return
	}
	hasFamily, err := commonhandler.ParseBoolParam(query.Get("has_family"))
	if err != nil {
		commonhandler.WriteBadParam(w, "has_family", "must be true or false")
		return
	}

	filter := victimdomain.ListFilter{
		Search:    query.Get("q"),
		FamilyID:  familyID,
		HasFamily: hasFamily,
		Limit:     limit,
		Offset:    offset,
	}
	items, total, err := h.Victims.List(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, r, "victims.list", err)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewPage(items, total, filter.Limit, filter.Offset))
}

func (h *Handlers) GetVictim(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	id, err := commonhandler.ParseID(r, "id")
	if err != nil {
		commonhandler.WriteBadParam(w, "id", err.Error())
		return
	}

	detail, err := h.Victims.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "victims.get", err, "victim_id", id)
		return
	}
	if detail.Members == nil {
		detail.Members = []familydomain.Member{}
	}

	commonhandler.WriteJSON(w, http.StatusOK, detail)
}

// CreateVictim accepts either a JSON body or a multipart form carrying the
// death certificate in the acte_deces field.
func (h *Handlers) CreateVictim(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}

	input, attachment, cleanup, ok := h.readVictim(w, r)
	if !ok {
		return
	}
	defer cleanup()

	created, err := h.Victims.Create(r.Context(), actor, input, attachment)
	if err != nil {
		h.fail(w, r, "victims.create", err, "matricule", input.Matricule)
		return
	}

	commonhandler.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateVictim(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	id, err := commonhandler.ParseID(r, "id")
	if err != nil {
		commonhandler.WriteBadParam(w, "id", err.Error())
		return
	}

	input, attachment, cleanup, ok := h.readVictim(w, r)
	if !ok {
		return
	}
	defer cleanup()

	updated, err := h.Victims.Update(r.Context(), actor, id, input, attachment)
	if err != nil {
		h.fail(w, r, "victims.update", err, "victim_id", id)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteVictim(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	id, err := commonhandler.ParseID(r, "id")
	if err != nil {
		commonhandler.WriteBadParam(w, "id", err.Error())
		return
	}

	if err := h.Victims.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, r, "victims.delete", err, "victim_id", id)
		return
	}

	commonhandler.WriteAction(w, "victim record deleted", "")
}

type attachFamilyRequest struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	Address           string `json:"address"`
	City              string `json:"city"`
	Phone             string `json:"phone"`
	EconomicSituation string `json:"economic_situation"`
	AdditionalInfo    string `json:"additional_info"`
	PersonCount       int    `json:"person_count"`
}

// AttachFamily creates a family and links it to a victim that has none.
func (h *Handlers) AttachFamily(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	id, err := commonhandler.ParseID(r, "id")
	if err != nil {
		commonhandler.WriteBadParam(w, "id", err.Error())
		return
	}
	var req attachFamilyRequest
	if err := commonhandler.DecodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	created, err := h.Victims.AttachFamily(r.Context(), actor, id, familydomain.Input{
		Name:              req.Name,
		Type:              req.Type,
		Address:           req.Address,
		City:              req.City,
		Phone:             req.Phone,
		EconomicSituation: req.EconomicSituation,
		AdditionalInfo:    req.AdditionalInfo,
		PersonCount:       req.PersonCount,
	})
	if err != nil {
		h.fail(w, r, "victims.attach_family", err, "victim_id", id)
		return
	}

	commonhandler.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, scope string, err error, args ...any) {
	commonhandler.WriteDomainError(w, r, h.log, h.metrics, scope, err, args...)
}
