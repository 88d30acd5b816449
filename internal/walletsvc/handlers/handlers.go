package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/romcheg/offline-cards/internal/codegen"
	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/models"
	"github.com/romcheg/offline-cards/internal/walletsvc/service"
	"github.com/romcheg/offline-cards/internal/walletsvc/store"
)

// maxUploadBytes caps request bodies; photos travel inline as base64.
const maxUploadBytes = 32 << 20

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	svc       *service.CardService
	port      string
}

func NewHandler(svc *service.CardService, port string) *Handler {
	return &Handler{svc: svc, port: port}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("failed to write response: %s", err)
	}
}

// Fail writes err as a Response with the status its kind maps to.
func (h *Handler) Fail(w http.ResponseWriter, message string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Errorf("%s: %s", message, err)
	}
	h.CreateResponse(w, Response{
		Message: message,
		Code:    code,
		Error:   err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, codegen.ErrInvalidInput),
		errors.Is(err, interchange.ErrDecodingFailed),
		errors.Is(err, interchange.ErrFileReadFailed),
		errors.Is(err, models.ErrEmptyCardNumber),
		errors.Is(err, models.ErrEmptyStoreName),
		errors.Is(err, models.ErrInvalidColorHex),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, service.ErrImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateCard),
		errors.Is(err, interchange.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, interchange.ErrNoCardsToExport):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("malformed request")

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "wallet service is running at port " + h.port,
		Code:    http.StatusOK,
	})
}
