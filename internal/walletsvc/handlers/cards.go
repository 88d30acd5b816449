package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/romcheg/offline-cards/internal/codegen"
	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/models"
)

// cardRequest is the body of POST /cards and PUT /cards/{number}.
type cardRequest struct {
	CardNumber      string   `json:"cardNumber"`
	StoreName       string   `json:"storeName"`
	HolderName      *string  `json:"holderName"`
	UseQRCode       bool     `json:"useQRCode"`
	ColorHex        string   `json:"colorHex"`
	PhotoDataBase64 []string `json:"photoDataBase64"`
}

func (req cardRequest) card() (models.Card, error) {
	opts := []models.CardOption{models.WithQRCode(req.UseQRCode)}
	if req.HolderName != nil {
		opts = append(opts, models.WithHolder(*req.HolderName))
	}
	if req.ColorHex != "" {
		opts = append(opts, models.WithColor(req.ColorHex))
	}
	if len(req.PhotoDataBase64) > 0 {
		photos := make([][]byte, 0, len(req.PhotoDataBase64))
		for i, s := range req.PhotoDataBase64 {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return models.Card{}, fmt.Errorf("%w: photo %d is not base64", errBadRequest, i)
			}
			photos = append(photos, b)
		}
		opts = append(opts, models.WithPhotos(photos...))
	}
	return models.NewCard(req.CardNumber, req.StoreName, opts...), nil
}

func decodeCard(w http.ResponseWriter, r *http.Request) (models.Card, error) {
	var req cardRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return models.Card{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return req.card()
}

func records(cards []models.Card) []interchange.ExportRecord {
	out := make([]interchange.ExportRecord, 0, len(cards))
	for _, c := range cards {
		out = append(out, interchange.ToExportRecord(c))
	}
	return out
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListCards(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.Fail(w, "unable to list cards", err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "cards",
		Code:    http.StatusOK,
		Data:    records(cards),
	})
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	card, err := decodeCard(w, r)
	if err != nil {
		h.Fail(w, "invalid card", err)
		return
	}
	card, err = h.svc.AddCard(r.Context(), card)
	if err != nil {
		h.Fail(w, "unable to add card", err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "card added",
		Code:    http.StatusCreated,
		Data:    interchange.ToExportRecord(card),
	})
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.svc.GetCard(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.Fail(w, "unable to get card", err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "card",
		Code:    http.StatusOK,
		Data:    interchange.ToExportRecord(*card),
	})
}

// UpdateCard replaces the editable fields. The number in the path wins over
// the one in the body.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	card, err := decodeCard(w, r)
	if err != nil {
		h.Fail(w, "invalid card", err)
		return
	}
	card.CardNumber = chi.URLParam(r, "number")
	if err := h.svc.UpdateCard(r.Context(), card); err != nil {
		h.Fail(w, "unable to update card", err)
		return
	}
	updated, err := h.svc.GetCard(r.Context(), card.CardNumber)
	if err != nil {
		h.Fail(w, "unable to get card", err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "card updated",
		Code:    http.StatusOK,
		Data:    interchange.ToExportRecord(*updated),
	})
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCard(r.Context(), chi.URLParam(r, "number")); err != nil {
		h.Fail(w, "unable to delete card", err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "card deleted",
		Code:    http.StatusOK,
	})
}

// CardCode streams the PNG for the card's number in its own symbology.
func (h *Handler) CardCode(w http.ResponseWriter, r *http.Request) {
	res := codegen.ParseResolution(r.URL.Query().Get("res"))
	png, err := h.svc.RenderCard(r.Context(), chi.URLParam(r, "number"), res)
	if err != nil {
		h.Fail(w, "unable to render card", err)
		return
	}
	writePNG(w, png)
}
