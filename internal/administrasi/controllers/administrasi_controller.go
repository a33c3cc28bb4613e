package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/administrasi/models"
	"github.com/c14220110/optik-backend/internal/administrasi/services"
	"github.com/c14220110/optik-backend/pkg/utils"
)

type AdministrasiController struct {
	Service *services.AdministrasiService
}

func NewAdministrasiController(service *services.AdministrasiService) *AdministrasiController {
	return &AdministrasiController{Service: service}
}

// Login menangani POST /api/auth/login.
func (ac *AdministrasiController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	res, err := ac.Service.Login(c.Request().Context(), req)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.Respond(c, http.StatusUnauthorized, "Invalid username or password", nil)
	case errors.Is(err, services.ErrRoleNotAllowed):
		return utils.Respond(c, http.StatusForbidden, err.Error(), nil)
	case err != nil:
		return utils.Respond(c, http.StatusInternalServerError, "Login failed: "+err.Error(), nil)
	}
	return utils.Respond(c, http.StatusOK, "Login successful", res)
}
