package controllers

import (
	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/common/middlewares"
)

// karyawanID mengambil id karyawan dari JWT; 0 bila route tidak dilindungi.
func karyawanID(c echo.Context) int {
	if claims := middlewares.ClaimsFrom(c); claims != nil {
		return claims.IDKaryawan
	}
	return 0
}
