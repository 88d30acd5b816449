package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romcheg/offline-cards/internal/codegen"
	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/models"
	"github.com/romcheg/offline-cards/internal/walletsvc/service"
	"github.com/romcheg/offline-cards/internal/walletsvc/store"
)

const testSecret = "test-secret"

type client struct {
	t      *testing.T
	router http.Handler
	token  string
}

func newClient(t *testing.T, seed ...models.Card) *client {
	t.Helper()
	svc, err := service.NewCardService(store.NewMemoryCardStore(seed...), codegen.NewDefaultRenderer("zxing"), nil, 8)
	require.NoError(t, err)

	h := NewHandler(svc, "8080")
	h.InitAuth(testSecret, false)
	r := chi.NewRouter()
	h.SetRoutes(r)

	_, token, err := jwtauth.New("HS256", []byte(testSecret), nil).Encode(map[string]interface{}{"service_id": "test"})
	require.NoError(t, err)
	return &client{t: t, router: r, token: token}
}

func (c *client) do(method, path string, body []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+c.token)
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c *client) doJSON(method, path string, v interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	body, err := json.Marshal(v)
	require.NoError(c.t, err)
	return c.do(method, path, body)
}

type importResponse struct {
	Code  int                  `json:"code"`
	Data  service.ImportStatus `json:"data"`
	Error string               `json:"error"`
}

func decodeImport(t *testing.T, rec *httptest.ResponseRecorder) importResponse {
	t.Helper()
	var rsp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	return rsp
}

func TestHealthIsPublic(t *testing.T) {
	c := newClient(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "8080")
}

func TestSecureRoutesNeedToken(t *testing.T) {
	c := newClient(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/cards", nil)
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCardCRUD(t *testing.T) {
	c := newClient(t)

	rec := c.doJSON(http.MethodPost, "/v1/cards", map[string]interface{}{
		"cardNumber": " 1234567890 ",
		"storeName":  "Bakery",
		"holderName": "Ann",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.doJSON(http.MethodPost, "/v1/cards", map[string]interface{}{"cardNumber": "1234567890", "storeName": "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.doJSON(http.MethodPost, "/v1/cards", map[string]interface{}{"cardNumber": "1", "storeName": "X", "colorHex": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/v1/cards/1234567890", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data interchange.ExportRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Bakery", got.Data.StoreName)
	require.NotNil(t, got.Data.HolderName)
	assert.Equal(t, "Ann", *got.Data.HolderName)
	assert.Equal(t, models.DefaultColorHex, got.Data.ColorHex)

	rec = c.doJSON(http.MethodPut, "/v1/cards/1234567890", map[string]interface{}{"storeName": "Corner Bakery", "useQRCode": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Corner Bakery")

	rec = c.do(http.MethodGet, "/v1/cards?search=corner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1234567890")

	rec = c.do(http.MethodDelete, "/v1/cards/1234567890", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodGet, "/v1/cards/1234567890", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardCodeIsPNG(t *testing.T) {
	c := newClient(t, models.NewCard("1234567890", "Bakery"))

	rec := c.do(http.MethodGet, "/v1/cards/1234567890/code?res=high", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = c.do(http.MethodGet, "/v1/cards/missing/code", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderEndpoint(t *testing.T) {
	c := newClient(t)

	rec := c.doJSON(http.MethodPost, "/v1/render", renderRequest{Text: "hello", QR: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = c.doJSON(http.MethodPost, "/v1/render", renderRequest{Text: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.doJSON(http.MethodPost, "/v1/render", renderRequest{Text: "café"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	empty := newClient(t)
	rec := empty.do(http.MethodGet, "/v1/export", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	c := newClient(t, models.NewCard("1", "A"))
	rec = c.do(http.MethodGet, "/v1/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cards_export_")

	cards, err := interchange.ImportCards(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestImportFlow(t *testing.T) {
	c := newClient(t, models.NewCard("1", "Old"), models.NewCard("2", "Kept"))

	doc, err := interchange.ExportCards([]models.Card{models.NewCard("1", "New"), models.NewCard("3", "Fresh")})
	require.NoError(t, err)

	rsp := decodeImport(t, c.do(http.MethodPost, "/v1/imports", doc))
	require.Equal(t, http.StatusOK, rsp.Code)
	assert.Equal(t, "pending-erase", rsp.Data.State)
	id := rsp.Data.ID

	rec := c.do(http.MethodGet, "/v1/imports/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rsp = decodeImport(t, c.doJSON(http.MethodPost, "/v1/imports/"+id+"/duplicates", duplicatesRequest{Choice: "skip"}))
	assert.Equal(t, http.StatusConflict, rsp.Code)
	assert.Equal(t, "pending-erase", rsp.Data.State)

	rsp = decodeImport(t, c.doJSON(http.MethodPost, "/v1/imports/"+id+"/erase", eraseRequest{Erase: false}))
	require.Equal(t, http.StatusOK, rsp.Code)
	assert.Equal(t, "pending-duplicates", rsp.Data.State)
	assert.Equal(t, []string{"1"}, rsp.Data.Duplicates)

	rec = c.doJSON(http.MethodPost, "/v1/imports/"+id+"/duplicates", duplicatesRequest{Choice: "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rsp = decodeImport(t, c.doJSON(http.MethodPost, "/v1/imports/"+id+"/duplicates", duplicatesRequest{Choice: "overwrite"}))
	require.Equal(t, http.StatusOK, rsp.Code)
	assert.Equal(t, "applied", rsp.Data.State)

	rec = c.do(http.MethodGet, "/v1/cards", nil)
	body := rec.Body.String()
	assert.Contains(t, body, "New")
	assert.Contains(t, body, "Kept")
	assert.Contains(t, body, "Fresh")
	assert.NotContains(t, body, "Old")

	rec = c.do(http.MethodGet, "/v1/imports/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportCancel(t *testing.T) {
	c := newClient(t, models.NewCard("1", "Old"))
	doc, err := interchange.ExportCards([]models.Card{models.NewCard("1", "New")})
	require.NoError(t, err)

	rsp := decodeImport(t, c.do(http.MethodPost, "/v1/imports", doc))
	require.Equal(t, http.StatusOK, rsp.Code)

	rsp = decodeImport(t, c.do(http.MethodDelete, "/v1/imports/"+rsp.Data.ID, nil))
	require.Equal(t, http.StatusOK, rsp.Code)
	assert.Equal(t, "cancelled", rsp.Data.State)

	rec := c.do(http.MethodGet, "/v1/cards/1", nil)
	assert.Contains(t, rec.Body.String(), "Old")
}

func TestImportRejectsGarbage(t *testing.T) {
	c := newClient(t)
	rec := c.do(http.MethodPost, "/v1/imports", []byte("not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.doJSON(http.MethodPost, "/v1/imports/nope/erase", eraseRequest{Erase: true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{codegen.ErrGenerationFailed, http.StatusInternalServerError},
		{interchange.ErrEncodingFailed, http.StatusInternalServerError},
		{interchange.ErrFileReadFailed, http.StatusBadRequest},
		{store.ErrDuplicateCard, http.StatusConflict},
		{service.ErrImportNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.err.Error(), " ", "_"), func(t *testing.T) {
			assert.Equal(t, tt.code, statusFor(tt.err))
		})
	}
}
