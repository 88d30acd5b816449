package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/romcheg/offline-cards/internal/codegen"
)

type renderRequest struct {
	Text string `json:"text"`
	QR   bool   `json:"qr"`
	High bool   `json:"high"`
}

// Render draws arbitrary text, e.g. a number captured by a scanner before
// the card is saved.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		h.Fail(w, "invalid render request", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	mode, res := codegen.Barcode, codegen.Standard
	if req.QR {
		mode = codegen.QR
	}
	if req.High {
		res = codegen.High
	}

	png, err := h.svc.Render(req.Text, mode, res)
	if err != nil {
		h.Fail(w, "unable to render code", err)
		return
	}
	writePNG(w, png)
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Errorf("failed to write png: %s", err)
	}
}
