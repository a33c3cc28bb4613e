package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/optometri/models"
	"github.com/c14220110/optik-backend/internal/optometri/services"
	"github.com/c14220110/optik-backend/pkg/utils"
)

type OptometriController struct {
	Optometris *services.OptometrisService
	Resep      *services.ResepService
}

func NewOptometriController(o *services.OptometrisService, r *services.ResepService) *OptometriController {
	return &OptometriController{Optometris: o, Resep: r}
}

// GET /api/optometris
func (oc *OptometriController) ListOptometris(c echo.Context) error {
	list, err := oc.Optometris.ListOptometris(c.Request().Context())
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve optometris", err)
	}
	return utils.Respond(c, http.StatusOK, "Optometris list retrieved successfully", list)
}

// POST /api/pasien/:id/resep
func (oc *OptometriController) CreateResep(c echo.Context) error {
	idPasien, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.ResepRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	r, err := oc.Resep.CreateResep(c.Request().Context(), idPasien, req)
	if err != nil {
		return apperror.Respond(c, "Failed to create resep", err)
	}
	return utils.Respond(c, http.StatusCreated, "Resep created successfully", r)
}

// GET /api/pasien/:id/resep
func (oc *OptometriController) ListResep(c echo.Context) error {
	idPasien, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	list, err := oc.Resep.ListByPasien(c.Request().Context(), idPasien)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve resep", err)
	}
	return utils.Respond(c, http.StatusOK, "Resep list retrieved successfully", list)
}

// GET /api/resep/:id
func (oc *OptometriController) GetResep(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	r, err := oc.Resep.GetResep(c.Request().Context(), id)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve resep", err)
	}
	return utils.Respond(c, http.StatusOK, "Resep retrieved successfully", r)
}
