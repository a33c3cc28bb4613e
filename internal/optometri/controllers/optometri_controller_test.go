package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/optik-backend/internal/common/middlewares"
	"github.com/c14220110/optik-backend/internal/optometri/services"
)

func setup(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	opt := services.NewOptometrisService(db)
	oc := NewOptometriController(opt, services.NewResepService(db, opt))
	e := echo.New()
	e.Validator = middlewares.NewRequestValidator()
	e.POST("/api/pasien/:id/resep", oc.CreateResep)
	e.GET("/api/pasien/:id/resep", oc.ListResep)
	e.GET("/api/resep/:id", oc.GetResep)
	return e, mock
}

func TestCreateResepRejectsOutOfRange(t *testing.T) {
	e, mock := setup(t)
	body := `{"od":{"sph":"-31.00","cyl":"0","add":"0"},"os":{"sph":"0","cyl":"0","add":"0"},"pd":"62"}`
	req := httptest.NewRequest(http.MethodPost, "/api/pasien/3/resep", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResepBadPathParam(t *testing.T) {
	e, _ := setup(t)
	for _, path := range []string{"/api/pasien/x/resep", "/api/resep/0"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestGetResepNotFoundHandler(t *testing.T) {
	e, mock := setup(t)
	mock.ExpectQuery(`WHERE r.id_resep = \?`).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id_resep"}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resep/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListResepUnknownPasien(t *testing.T) {
	e, mock := setup(t)
	mock.ExpectQuery(`SELECT 1 FROM Pasien`).WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"1"}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pasien/5/resep", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
