package admin

import (
	"net/http"

	"victim-aid-go/internal/domain/access"
	auditdomain "victim-aid-go/internal/domain/audit"
	userdomain "victim-aid-go/internal/domain/user"
	"victim-aid-go/internal/metrics"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
	"victim-aid-go/internal/transport/httpserver/middleware"
	"victim-aid-go/pkg/logger"
)

type Handlers struct {
	Users   *userdomain.Service
	Audit   *auditdomain.Service
	log     logger.Logger
	metrics *metrics.Metrics
}

func New(users *userdomain.Service, audit *auditdomain.Service, m *metrics.Metrics, log logger.Logger) *Handlers {
	return &Handlers{
		Users:   users,
		Audit:   audit,
		log:     log,
		metrics: m,
	}
}

type createUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Password  string `json:"password"`
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
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
	filter := userdomain.ListFilter{Search: query.Get("q"), Limit: limit, Offset: offset}
	if value := query.Get("role"); value != "" {
		role, err := access.ParseRole(value)
		if err != nil {
			commonhandler.WriteBadParam(w, "role", "unknown role")
			return
		}
		filter.Role = &role
	}
	if filter.Active, err = commonhandler.ParseBoolParam(query.Get("is_active")); err != nil {
		commonhandler.WriteBadParam(w, "is_active", "must be true or false")
		return
	}

	items, total, err := h.Users.List(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, r, "admin.users.list", err)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewPage(items, total, filter.Limit, filter.Offset))
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	var req createUserRequest
	if err := commonhandler.DecodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	created, err := h.Users.Create(r.Context(), actor, userdomain.CreateInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Password:  req.Password,
	})
	if err != nil {
		h.fail(w, r, "admin.users.create", err, "username", req.Username)
		return
	}

	commonhandler.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handlers) ToggleUserActive(w http.ResponseWriter, r *http.Request) {
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

	toggled, err := h.Users.ToggleActive(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "admin.users.toggle", err, "target_user_id", id)
		return
	}

	message, status := "user deactivated", "inactive"
	if toggled.IsActive {
		message, status = "user activated", "active"
	}
	commonhandler.WriteAction(w, message, status)
}

func (h *Handlers) ListAuditLog(w http.ResponseWriter, r *http.Request) {
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
	filter := auditdomain.ListFilter{Action: query.Get("action"), Limit: limit, Offset: offset}
	if filter.ActorID, err = commonhandler.ParseUintParam(query.Get("actor_id")); err != nil {
		commonhandler.WriteBadParam(w, "actor_id", err.Error())
		return
	}

	items, total, err := h.Audit.List(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, r, "admin.audit_log.list", err)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewPage(items, total, filter.Limit, filter.Offset))
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, scope string, err error, args ...any) {
	commonhandler.WriteDomainError(w, r, h.log, h.metrics, scope, err, args...)
}
