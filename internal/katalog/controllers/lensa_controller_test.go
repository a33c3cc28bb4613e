package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/common/middlewares"
	"github.com/c14220110/optik-backend/internal/katalog/services"
	"github.com/c14220110/optik-backend/pkg/storage/objectstore"
)

func setup(t *testing.T, rp ResepPowers) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := echo.New()
	e.Validator = middlewares.NewRequestValidator()
	lc := NewLensaController(services.NewLensaService(db, objectstore.Disabled{}), rp)
	e.GET("/api/lensa", lc.ListLensa)
	e.GET("/api/lensa/compatible", lc.Compatible)
	e.POST("/api/lensa", lc.CreateLensa)
	return e, mock
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListLensaHandler(t *testing.T) {
	e, mock := setup(t, nil)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM Lensa`).WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY nama ASC`).WillReturnRows(sqlmock.NewRows([]string{"id_lensa"}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lensa", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	data := envelope(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, data["items"])
	assert.EqualValues(t, 1, data["page"])
}

func TestListLensaBadPrice(t *testing.T) {
	e, _ := setup(t, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lensa?min_harga=murah", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLensaValidation(t *testing.T) {
	e, _ := setup(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/lensa", strings.NewReader(`{"sku":"X","tipe":"kacamata"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, envelope(t, rec)["message"], "validasi gagal")
}

func TestCompatibleHandler(t *testing.T) {
	missing := func(context.Context, int) (services.EyePower, services.EyePower, error) {
		return services.EyePower{}, services.EyePower{}, apperror.ErrNotFound
	}
	e, _ := setup(t, missing)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lensa/compatible", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lensa/compatible?resep=5", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
