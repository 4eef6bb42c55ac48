package victims

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	victimdomain "victim-aid-go/internal/domain/victim"
	"victim-aid-go/internal/storage"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
	"victim-aid-go/internal/transport/httpserver/middleware"
)

// ServeMedia streams a stored attachment for drivers that have no signed
// links of their own. The key must belong to a record the caller may view.
func (h *Handlers) ServeMedia(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		commonhandler.Unauthorized(w)
		return
	}
	if h.Files == nil {
		commonhandler.WriteError(w, http.StatusNotFound, "not_found", "attachment not found")
		return
	}
	key := chi.URLParam(r, "*")

	if _, err := h.Victims.Certificate(r.Context(), actor, key); err != nil {
		if errors.Is(err, victimdomain.ErrCertificateNotFound) {
			h.log.BusinessError("media.get: no record holds key", err, "key", key)
			commonhandler.WriteError(w, http.StatusNotFound, "not_found", "attachment not found")
			return
		}
		h.fail(w, r, "media.get", err, "key", key)
		return
	}

	info, body, err := h.Files.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			h.log.BusinessError("media.get: attachment not found", err, "key", key)
			commonhandler.WriteError(w, http.StatusNotFound, "not_found", "attachment not found")
			return
		}
		h.log.InternalError("media.get: open failed", err, "key", key)
		commonhandler.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn("media.get: copy interrupted", "key", key, "err", err)
	}
}
