// Package apperror berisi error sentinel lintas modul dan pemetaannya ke status HTTP.
package apperror

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/pkg/utils"
)

var (
	ErrNotFound          = errors.New("data tidak ditemukan")
	ErrConflict          = errors.New("data bentrok")
	ErrInvalidInput      = errors.New("input tidak valid")
	ErrInvalidTransition = errors.New("perubahan status tidak diizinkan")
	ErrUnprocessable     = errors.New("permintaan tidak dapat diproses")
)

// HTTPStatus memetakan error service ke kode HTTP.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrUnprocessable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Respond menulis error dengan envelope standar. Pesan error internal tetap dikirim
// seperti pada endpoint lain agar layar resepsionis bisa menampilkannya.
func Respond(c echo.Context, prefix string, err error) error {
	return utils.Respond(c, HTTPStatus(err), prefix+": "+err.Error(), nil)
}
