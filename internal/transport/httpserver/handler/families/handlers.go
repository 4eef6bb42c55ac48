package families

import (
	"net/http"

	familydomain "victim-aid-go/internal/domain/family"
	"victim-aid-go/internal/metrics"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
	"victim-aid-go/internal/transport/httpserver/middleware"
	"victim-aid-go/pkg/logger"
)

type Handlers struct {
	Families *familydomain.Service
	log      logger.Logger
	metrics  *metrics.Metrics
}

func New(families *familydomain.Service, m *metrics.Metrics, log logger.Logger) *Handlers {
	return &Handlers{
		Families: families,
		log:      log,
		metrics:  m,
	}
}

type familyRequest struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	Address           string `json:"address"`
	City              string `json:"city"`
	Phone             string `json:"phone"`
	EconomicSituation string `json:"economic_situation"`
	AdditionalInfo    string `json:"additional_info"`
	PersonCount       int    `json:"person_count"`
}

func (req familyRequest) input() familydomain.Input {
	return familydomain.Input{
		Name:              req.Name,
		Type:              req.Type,
		Address:           req.Address,
		City:              req.City,
		Phone:             req.Phone,
		EconomicSituation: req.EconomicSituation,
		AdditionalInfo:    req.AdditionalInfo,
		PersonCount:       req.PersonCount,
	}
}

func (h *Handlers) ListFamilies(w http.ResponseWriter, r *http.Request) {
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
	filter := familydomain.ListFilter{
		Search: query.Get("q"),
		City:   query.Get("city"),
		Limit:  limit,
		Offset: offset,
	}
	items, total, err := h.Families.List(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, r, "families.list", err)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewPage(items, total, filter.Limit, filter.Offset))
}

func (h *Handlers) GetFamily(w http.ResponseWriter, r *http.Request) {
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

	detail, err := h.Families.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "families.get", err, "family_id", id)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handlers) CreateFamily(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	var req familyRequest
	if err := commonhandler.DecodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	created, err := h.Families.Create(r.Context(), actor, req.input())
	if err != nil {
		h.fail(w, r, "families.create", err)
		return
	}

	commonhandler.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateFamily(w http.ResponseWriter, r *http.Request) {
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
	var req familyRequest
	if err := commonhandler.DecodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	updated, err := h.Families.Update(r.Context(), actor, id, req.input())
	if err != nil {
		h.fail(w, r, "families.update", err, "family_id", id)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteFamily(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Families.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, r, "families.delete", err, "family_id", id)
		return
	}

	commonhandler.WriteAction(w, "family deleted", "")
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, scope string, err error, args ...any) {
	commonhandler.WriteDomainError(w, r, h.log, h.metrics, scope, err, args...)
}
