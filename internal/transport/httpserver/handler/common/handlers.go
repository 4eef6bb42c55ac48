package common

import (
	"victim-aid-go/internal/auth"
	"victim-aid-go/internal/metrics"
	"victim-aid-go/pkg/logger"
)

type Handlers struct {
	Auth    *auth.Service
	log     logger.Logger
	metrics *metrics.Metrics
}

func New(authService *auth.Service, m *metrics.Metrics, log logger.Logger) *Handlers {
	return &Handlers{
		Auth:    authService,
		log:     log,
		metrics: m,
	}
}
