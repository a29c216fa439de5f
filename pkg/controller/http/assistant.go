package http

import (
	"net/http"

	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
)

type assistantHandler struct {
	uc interfaces.Assistant
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *assistantHandler) history(w http.ResponseWriter, r *http.Request) {
	messages, err := h.uc.History(r.Context(), incidentID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, messages)
}

// send waits for the reply; a client hanging up cancels it
func (h *assistantHandler) send(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	msg, err := h.uc.Ask(r.Context(), incidentID(r), req.Content)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, msg)
}
