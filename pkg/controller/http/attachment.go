package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
)

type attachmentHandler struct {
	blobs interfaces.BlobStore
}

// get serves the attachment bytes held by the blob store
func (h *attachmentHandler) get(w http.ResponseWriter, r *http.Request) {
	b, err := h.blobs.Get(r.Context(), chi.URLParam(r, "attachmentID"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	mediaType := b.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b.Data); err != nil {
		ctxlog.From(r.Context()).Warn("Failed to write attachment", "error", err, "key", b.Key)
	}
}
