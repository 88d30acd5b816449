package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"

	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/service"
)

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.svc.Export(r.Context())
	if err != nil {
		h.Fail(w, "unable to export cards", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Errorf("failed to write export: %s", err)
	}
}

// BeginImport takes the raw interchange document as the request body.
func (h *Handler) BeginImport(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.BeginImportFrom(r.Context(), http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		h.Fail(w, "unable to import cards", err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "import " + status.State,
		Code:    http.StatusOK,
		Data:    status,
	})
}

func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.PendingImport(chi.URLParam(r, "id"))
	if err != nil {
		h.Fail(w, "unable to get import", err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "import " + status.State,
		Code:    http.StatusOK,
		Data:    status,
	})
}

type eraseRequest struct {
	Erase bool `json:"erase"`
}

func (h *Handler) DecideErase(w http.ResponseWriter, r *http.Request) {
	var req eraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Fail(w, "invalid erase decision", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	status, err := h.svc.DecideErase(r.Context(), chi.URLParam(r, "id"), req.Erase)
	h.importResult(w, status, err)
}

type duplicatesRequest struct {
	Choice string `json:"choice"`
}

func (h *Handler) DecideDuplicates(w http.ResponseWriter, r *http.Request) {
	var req duplicatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Fail(w, "invalid duplicate decision", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	choice, err := interchange.ParseDuplicateChoice(req.Choice)
	if err != nil {
		h.Fail(w, "invalid duplicate decision", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	status, err := h.svc.DecideDuplicates(r.Context(), chi.URLParam(r, "id"), choice)
	h.importResult(w, status, err)
}

func (h *Handler) CancelImport(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.CancelImport(r.Context(), chi.URLParam(r, "id"))
	h.importResult(w, status, err)
}

func (h *Handler) importResult(w http.ResponseWriter, status *service.ImportStatus, err error) {
	if err != nil {
		rsp := Response{Message: "import decision rejected", Code: statusFor(err), Data: status, Error: err.Error()}
		if rsp.Code == http.StatusInternalServerError {
			log.Errorf("import decision failed: %s", err)
		}
		h.CreateResponse(w, rsp)
		return
	}
	h.CreateResponse(w, Response{
		Message: "import decision accepted",
		Code:    http.StatusOK,
		Data:    status,
	})
}
