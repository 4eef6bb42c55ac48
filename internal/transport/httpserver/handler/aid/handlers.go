package aid

import (
	"context"
	"errors"
	"net/http"

	"victim-aid-go/internal/domain/access"
	aiddomain "victim-aid-go/internal/domain/aid"
	"victim-aid-go/internal/domain/apperr"
	"victim-aid-go/internal/metrics"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
	"victim-aid-go/internal/transport/httpserver/middleware"
	"victim-aid-go/pkg/logger"
)

type Handlers struct {
	Requests *aiddomain.Service
	log      logger.Logger
	metrics  *metrics.Metrics
}

func New(requests *aiddomain.Service, m *metrics.Metrics, log logger.Logger) *Handlers {
	return &Handlers{
		Requests: requests,
		log:      log,
		metrics:  m,
	}
}

type createRequest struct {
	FamilyID    uint   `json:"family_id"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Submit      bool   `json:"submit"`
}

type updateRequest struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

func (h *Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, filter, ok := h.listParams(w, r)
	if !ok {
		return
	}

	items, total, err := h.Requests.List(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, r, "aid.list", err)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewPage(items, total, filter.Limit, filter.Offset))
}

// ListPending lists submitted requests awaiting a decision.
func (h *Handlers) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, filter, ok := h.listParams(w, r)
	if !ok {
		return
	}

	items, total, err := h.Requests.Pending(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, r, "aid.pending", err)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewPage(items, total, filter.Limit, filter.Offset))
}

func (h *Handlers) Tracking(w http.ResponseWriter, r *http.Request) {
	actor, filter, ok := h.listParams(w, r)
	if !ok {
		return
	}
	if filter.Status != nil && *filter.Status == aiddomain.StatusPlanned {
		commonhandler.WriteBadParam(w, "status", "must be one of: submitted, validated, refused")
		return
	}

	tracking, err := h.Requests.Tracking(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, r, "aid.tracking", err)
		return
	}
	if tracking.Requests == nil {
		tracking.Requests = []aiddomain.Request{}
	}

	commonhandler.WriteJSON(w, http.StatusOK, tracking)
}

func (h *Handlers) GetRequest(w http.ResponseWriter, r *http.Request) {
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

	request, err := h.Requests.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "aid.get", err, "aid_request_id", id)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, request)
}

func (h *Handlers) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	var req createRequest
	if err := commonhandler.DecodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	created, err := h.Requests.Create(r.Context(), actor, aiddomain.CreateInput{
		FamilyID:    req.FamilyID,
		Kind:        req.Kind,
		Description: req.Description,
		Submit:      req.Submit,
	})
	if err != nil {
		h.fail(w, r, "aid.create", err, "family_id", req.FamilyID)
		return
	}

	commonhandler.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateRequest(w http.ResponseWriter, r *http.Request) {
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
	var req updateRequest
	if err := commonhandler.DecodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	updated, err := h.Requests.Update(r.Context(), actor, id, aiddomain.UpdateInput{
		Kind:        req.Kind,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, "aid.update", err, "aid_request_id", id)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteRequest(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Requests.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, r, "aid.delete", err, "aid_request_id", id)
		return
	}

	commonhandler.WriteAction(w, "aid request deleted", "")
}

type transitionFunc func(ctx context.Context, actor access.Actor, id uint) (*aiddomain.Request, error)

func (h *Handlers) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "submit", "aid request submitted", h.Requests.Submit)
}

func (h *Handlers) ValidateRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "validate", "aid request validated", h.Requests.Validate)
}

func (h *Handlers) RefuseRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "refuse", "aid request refused", h.Requests.Refuse)
}

// transition runs a status change. A no-op, e.g. validating twice, answers
// 200 with success false and the current status.
func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, name, message string, apply transitionFunc) {
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

	updated, err := apply(r.Context(), actor, id)
	if err != nil {
		if errors.Is(err, apperr.ErrStateConflict) {
			h.metrics.AidTransition(name, "conflict")
		}
		h.fail(w, r, "aid."+name, err, "aid_request_id", id)
		return
	}

	h.metrics.AidTransition(name, "applied")
	h.log.Info("aid."+name+": status changed", "aid_request_id", id, "status", updated.Status, "user_id", actor.UserID)
	commonhandler.WriteAction(w, message, string(updated.Status))
}

func (h *Handlers) listParams(w http.ResponseWriter, r *http.Request) (access.Actor, aiddomain.ListFilter, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return access.Actor{}, aiddomain.ListFilter{}, false
	}
	limit, offset, err := commonhandler.Pagination(r)
	if err != nil {
		commonhandler.WriteBadParam(w, "pagination", err.Error())
		return access.Actor{}, aiddomain.ListFilter{}, false
	}

	query := r.URL.Query()
	filter := aiddomain.ListFilter{Limit: limit, Offset: offset}
	if value := query.Get("status"); value != "" {
		status, ok := aiddomain.ParseStatus(value)
		if !ok {
			commonhandler.WriteBadParam(w, "status", "unknown status")
			return access.Actor{}, aiddomain.ListFilter{}, false
		}
		filter.Status = &status
	}
	if filter.FamilyID, err = commonhandler.ParseUintParam(query.Get("family_id")); err != nil {
		commonhandler.WriteBadParam(w, "family_id", err.Error())
		return access.Actor{}, aiddomain.ListFilter{}, false
	}
	return actor, filter, true
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, scope string, err error, args ...any) {
	commonhandler.WriteDomainError(w, r, h.log, h.metrics, scope, err, args...)
}
