package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/internal/penjualan/services"
	"github.com/c14220110/optik-backend/pkg/utils"
)

const dateLayout = "2006-01-02"

type SaleController struct {
	Service *services.SaleService
}

func NewSaleController(s *services.SaleService) *SaleController {
	return &SaleController{Service: s}
}

// GET /api/penjualan?from=2026-05-01&to=2026-05-31&status=partial&q=
func (sc *SaleController) ListSales(c echo.Context) error {
	f := models.SaleFilter{Status: c.QueryParam("status"), Query: c.QueryParam("q")}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return utils.Respond(c, http.StatusBadRequest, "from must be YYYY-MM-DD", nil)
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return utils.Respond(c, http.StatusBadRequest, "to must be YYYY-MM-DD", nil)
		}
		// tanggal akhir inklusif
		t = t.AddDate(0, 0, 1)
		f.To = &t
	}

	page := utils.PageFromQuery(c)
	list, total, err := sc.Service.ListSales(c.Request().Context(), f, page)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve penjualan", err)
	}
	return utils.Respond(c, http.StatusOK, "Penjualan list retrieved successfully", utils.NewPaged(list, page, total))
}

func (sc *SaleController) GetSale(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	sale, err := sc.Service.GetSale(c.Request().Context(), id)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve penjualan", err)
	}
	return utils.Respond(c, http.StatusOK, "Penjualan retrieved successfully", sale)
}

// POST /api/penjualan/:id/payments
func (sc *SaleController) AddPayment(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.AddPaymentRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	sale, err := sc.Service.AddPayment(c.Request().Context(), id, req.Payment, karyawanID(c))
	if err != nil {
		return apperror.Respond(c, "Failed to add payment", err)
	}
	return utils.Respond(c, http.StatusOK, "Payment added successfully", sale)
}

// PUT /api/penjualan/:id/cancel
func (sc *SaleController) CancelSale(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.CancelRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	sale, err := sc.Service.CancelSale(c.Request().Context(), id, req.Reason)
	if err != nil {
		return apperror.Respond(c, "Failed to cancel penjualan", err)
	}
	return utils.Respond(c, http.StatusOK, "Penjualan cancelled successfully", sale)
}
