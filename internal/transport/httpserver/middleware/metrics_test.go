package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	seen []observation
}

func (o *recordingObserver) ObserveHTTP(method, route string, status int, d time.Duration) {
	o.seen = append(o.seen, observation{method: method, route: route, status: status})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	observer := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(NewMetrics(observer))
	r.Get("/api/victims/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/victims/7", "/api/victims/8", "/api/health", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, observer.seen, 4)
	assert.Equal(t, observation{http.MethodGet, "/api/victims/{id}", http.StatusTeapot}, observer.seen[0])
	assert.Equal(t, "/api/victims/{id}", observer.seen[1].route)
	assert.Equal(t, observation{http.MethodGet, "/api/health", http.StatusOK}, observer.seen[2])
	assert.Equal(t, http.StatusNotFound, observer.seen[3].status)
}
