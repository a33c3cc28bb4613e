package middlewares

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/pkg/utils"
)

// Daftar privilege karyawan (tabel Detail_Privilege_Karyawan).
const (
	PrivilegeKelolaDiskon   = 1
	PrivilegeBatalPenjualan = 2
	PrivilegeKelolaKatalog  = 3
)

// RequirePrivilege memeriksa apakah klaim JWT memiliki privilege yang dibutuhkan.
// Role Admin selalu lolos.
func RequirePrivilege(requiredPriv int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return utils.Respond(c, http.StatusUnauthorized, "Missing or invalid JWT claims", nil)
			}
			if claims.Role != "Admin" && !claims.HasPrivilege(requiredPriv) {
				return utils.Respond(c, http.StatusForbidden, "Anda tidak memiliki hak akses", nil)
			}
			return next(c)
		}
	}
}
