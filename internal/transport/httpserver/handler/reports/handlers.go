package reports

import (
	"net/http"

	dashboarddomain "victim-aid-go/internal/domain/dashboard"
	"victim-aid-go/internal/metrics"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
	"victim-aid-go/internal/transport/httpserver/middleware"
	"victim-aid-go/pkg/logger"
)

type Handlers struct {
	Dashboard *dashboarddomain.Service
	log       logger.Logger
	metrics   *metrics.Metrics
}

func New(dashboard *dashboarddomain.Service, m *metrics.Metrics, log logger.Logger) *Handlers {
	return &Handlers{
		Dashboard: dashboard,
		log:       log,
		metrics:   m,
	}
}

// GetDashboard answers the view matching the caller's role.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}

	result, err := h.Dashboard.Dashboard(r.Context(), actor)
	if err != nil {
		commonhandler.WriteDomainError(w, r, h.log, h.metrics, "dashboard.get", err)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) FamiliesAided(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}

	result, err := h.Dashboard.FamiliesAided(r.Context(), actor)
	if err != nil {
		commonhandler.WriteDomainError(w, r, h.log, h.metrics, "reports.families_aided", err)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, result)
}
