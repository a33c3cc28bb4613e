package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/internal/penjualan/services"
	"github.com/c14220110/optik-backend/pkg/utils"
)

type WizardController struct {
	Service *services.WizardService
}

func NewWizardController(s *services.WizardService) *WizardController {
	return &WizardController{Service: s}
}

func (wc *WizardController) Start(c echo.Context) error {
	v, err := wc.Service.Start(c.Request().Context(), karyawanID(c))
	if err != nil {
		return apperror.Respond(c, "Failed to start wizard", err)
	}
	return utils.Respond(c, http.StatusCreated, "Wizard started", v)
}

func (wc *WizardController) Get(c echo.Context) error {
	v, err := wc.Service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve wizard", err)
	}
	return utils.Respond(c, http.StatusOK, "Wizard retrieved successfully", v)
}

// PUT /api/pos/wizard/:id/:step
func (wc *WizardController) Step(c echo.Context) error {
	var req models.WizardStepRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	step := models.WizardStep(c.Param("step"))
	v, err := wc.Service.Step(c.Request().Context(), c.Param("id"), step, req, karyawanID(c))
	if err != nil {
		return apperror.Respond(c, "Failed to save step "+string(step), err)
	}
	return utils.Respond(c, http.StatusOK, "Step "+string(step)+" saved", v)
}
