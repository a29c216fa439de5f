package http

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/domain/types"
)

type incidentHandler struct {
	uc      interfaces.Incident
	manuals *model.ManualCatalog
}

type createIncidentResponse struct {
	ID types.IncidentID `json:"id"`
}

type updateStatusRequest struct {
	Status types.IncidentStatus `json:"status"`
}

type updateReportRequest struct {
	Investigation string `json:"investigation"`
}

func incidentID(r *http.Request) types.IncidentID {
	return types.IncidentID(chi.URLParam(r, "id"))
}

func invalidInput(msg string, opts ...goerr.Option) error {
	return goerr.New(msg, append(opts, goerr.T(model.ErrTagInvalidInput))...)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "invalid JSON body", goerr.T(model.ErrTagInvalidInput))
	}
	return nil
}

func (h *incidentHandler) list(w http.ResponseWriter, r *http.Request) {
	var statuses []types.IncidentStatus
	for _, s := range r.URL.Query()["status"] {
		status := types.IncidentStatus(s)
		if !status.IsValid() {
			handleError(w, r, goerr.New("invalid status filter",
				goerr.V("status", s),
				goerr.T(model.ErrTagInvalidStatus)))
			return
		}
		statuses = append(statuses, status)
	}

	incidents, err := h.uc.List(r.Context(), statuses...)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, incidents)
}

func (h *incidentHandler) create(w http.ResponseWriter, r *http.Request) {
	draft, err := h.parseDraft(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := validateDraft(draft, h.manuals); err != nil {
		handleError(w, r, err)
		return
	}

	id, err := h.uc.Create(r.Context(), draft)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, createIncidentResponse{ID: id})
}

// parseDraft accepts a JSON body, or a multipart form with the fields as a
// JSON "incident" part and files under "attachments"
func (h *incidentHandler) parseDraft(w http.ResponseWriter, r *http.Request) (*model.IncidentDraft, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var draft model.IncidentDraft
		if err := decodeJSON(r, &draft); err != nil {
			return nil, err
		}
		return &draft, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, goerr.Wrap(err, "invalid multipart form", goerr.T(model.ErrTagInvalidInput))
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	raw := r.MultipartForm.Value["incident"]
	if len(raw) == 0 {
		return nil, invalidInput("missing incident part")
	}

	var draft model.IncidentDraft
	if err := json.Unmarshal([]byte(raw[0]), &draft); err != nil {
		return nil, goerr.Wrap(err, "invalid incident part", goerr.T(model.ErrTagInvalidInput))
	}

	for _, fh := range r.MultipartForm.File["attachments"] {
		file, err := readAttachment(fh)
		if err != nil {
			return nil, err
		}
		draft.Attachments = append(draft.Attachments, *file)
	}

	return &draft, nil
}

func readAttachment(fh *multipart.FileHeader) (*model.AttachmentFile, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open attachment", goerr.V("name", fh.Filename))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read attachment", goerr.V("name", fh.Filename))
	}

	mediaType := fh.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}

	return &model.AttachmentFile{
		Name:      fh.Filename,
		MediaType: mediaType,
		Data:      data,
	}, nil
}

// validateDraft checks the submission form contract
func validateDraft(draft *model.IncidentDraft, manuals *model.ManualCatalog) error {
	required := []struct {
		field string
		value string
	}{
		{"date", draft.Date},
		{"airline", draft.Airline},
		{"departureAirport", draft.DepartureAirport},
		{"arrivingAirport", draft.ArrivingAirport},
		{"incident", draft.Incident},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return invalidInput("required field is missing", goerr.V("field", f.field))
		}
	}

	if _, err := time.Parse(time.DateOnly, draft.Date); err != nil {
		return invalidInput("date must be YYYY-MM-DD", goerr.V("date", draft.Date))
	}
	if !draft.ReportType.IsValid() {
		return invalidInput("unknown report type", goerr.V("reportType", draft.ReportType))
	}
	for _, id := range draft.SelectedManuals {
		if !manuals.IsValidManualID(id) {
			return invalidInput("unknown manual", goerr.V("manualID", id))
		}
	}

	return nil
}

func (h *incidentHandler) get(w http.ResponseWriter, r *http.Request) {
	incident, err := h.uc.GetByID(r.Context(), incidentID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, incident)
}

func (h *incidentHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	if err := h.uc.UpdateStatus(r.Context(), incidentID(r), req.Status); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *incidentHandler) updateReport(w http.ResponseWriter, r *http.Request) {
	var req updateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	if err := h.uc.UpdateReport(r.Context(), incidentID(r), req.Investigation); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *incidentHandler) removeAttachment(w http.ResponseWriter, r *http.Request) {
	attachmentID := types.AttachmentID(chi.URLParam(r, "attachmentID"))
	if err := h.uc.RemoveAttachment(r.Context(), incidentID(r), attachmentID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *incidentHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Delete(r.Context(), incidentID(r)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
