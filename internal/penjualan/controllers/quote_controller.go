package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/internal/penjualan/services"
	"github.com/c14220110/optik-backend/pkg/utils"
)

type QuoteController struct {
	Service *services.QuoteService
}

func NewQuoteController(s *services.QuoteService) *QuoteController {
	return &QuoteController{Service: s}
}

func (qc *QuoteController) CreateQuote(c echo.Context) error {
	var req models.QuoteRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	q, err := qc.Service.CreateQuote(c.Request().Context(), req, karyawanID(c))
	if err != nil {
		return apperror.Respond(c, "Failed to create quote", err)
	}
	return utils.Respond(c, http.StatusCreated, "Quote created successfully", q)
}

// GET /api/quotes?id_pasien=&status=
func (qc *QuoteController) ListQuotes(c echo.Context) error {
	f := models.QuoteFilter{Status: c.QueryParam("status")}
	if v := c.QueryParam("id_pasien"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return utils.Respond(c, http.StatusBadRequest, "id_pasien must be a number", nil)
		}
		f.IDPasien = &id
	}
	page := utils.PageFromQuery(c)
	list, total, err := qc.Service.ListQuotes(c.Request().Context(), f, page)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve quotes", err)
	}
	return utils.Respond(c, http.StatusOK, "Quote list retrieved successfully", utils.NewPaged(list, page, total))
}

func (qc *QuoteController) GetQuote(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	q, err := qc.Service.GetQuote(c.Request().Context(), id)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve quote", err)
	}
	return utils.Respond(c, http.StatusOK, "Quote retrieved successfully", q)
}

func (qc *QuoteController) UpdateStatus(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.QuoteStatusRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	q, err := qc.Service.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return apperror.Respond(c, "Failed to update quote", err)
	}
	return utils.Respond(c, http.StatusOK, "Quote updated successfully", q)
}

// POST /api/quotes/:id/cart memuat penawaran ke keranjang POS baru.
func (qc *QuoteController) ToCart(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	v, err := qc.Service.ToCart(c.Request().Context(), id, karyawanID(c))
	if err != nil {
		return apperror.Respond(c, "Failed to load quote into cart", err)
	}
	return utils.Respond(c, http.StatusCreated, "Quote loaded into cart", v)
}
