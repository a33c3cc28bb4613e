package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/internal/penjualan/services"
	"github.com/c14220110/optik-backend/pkg/utils"
)

type DiskonController struct {
	Service *services.DiscountService
	Carts   *services.CartService
}

func NewDiskonController(s *services.DiscountService, carts *services.CartService) *DiskonController {
	return &DiskonController{Service: s, Carts: carts}
}

// GET /api/diskon
func (dc *DiskonController) ListActive(c echo.Context) error {
	list, err := dc.Service.ListActive(c.Request().Context())
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve diskon", err)
	}
	return utils.Respond(c, http.StatusOK, "Diskon list retrieved successfully", list)
}

// GET /api/diskon/eligible?draft=<id keranjang>
func (dc *DiskonController) Eligible(c echo.Context) error {
	draft := c.QueryParam("draft")
	if draft == "" {
		return utils.Respond(c, http.StatusBadRequest, "draft parameter is required", nil)
	}
	list, err := dc.Carts.EligibleFor(c.Request().Context(), draft)
	if err != nil {
		return apperror.Respond(c, "Failed to evaluate diskon", err)
	}
	return utils.Respond(c, http.StatusOK, "Eligible diskon retrieved successfully", list)
}

func (dc *DiskonController) Create(c echo.Context) error {
	var req models.DiscountRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	id, err := dc.Service.Create(c.Request().Context(), req)
	if err != nil {
		return apperror.Respond(c, "Failed to create diskon", err)
	}
	return utils.Respond(c, http.StatusCreated, "Diskon created successfully", map[string]interface{}{"id_diskon": id})
}

func (dc *DiskonController) Update(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.DiscountRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	if err := dc.Service.Update(c.Request().Context(), id, req); err != nil {
		return apperror.Respond(c, "Failed to update diskon", err)
	}
	return utils.Respond(c, http.StatusOK, "Diskon updated successfully", map[string]interface{}{"id_diskon": id})
}
