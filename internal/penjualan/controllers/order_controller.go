package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/internal/penjualan/services"
	"github.com/c14220110/optik-backend/pkg/utils"
)

type OrderController struct {
	Service *services.OrderService
}

func NewOrderController(s *services.OrderService) *OrderController {
	return &OrderController{Service: s}
}

// GET /api/orders?status=pending
func (oc *OrderController) ListOrders(c echo.Context) error {
	page := utils.PageFromQuery(c)
	list, total, err := oc.Service.ListOrders(c.Request().Context(), c.QueryParam("status"), page)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve orders", err)
	}
	return utils.Respond(c, http.StatusOK, "Order list retrieved successfully", utils.NewPaged(list, page, total))
}

func (oc *OrderController) UpdateStatus(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.OrderStatusRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	o, err := oc.Service.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		return apperror.Respond(c, "Failed to update order", err)
	}
	return utils.Respond(c, http.StatusOK, "Order updated successfully", o)
}
