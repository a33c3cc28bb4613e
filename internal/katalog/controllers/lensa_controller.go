package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/katalog/models"
	"github.com/c14220110/optik-backend/internal/katalog/services"
	"github.com/c14220110/optik-backend/pkg/storage/objectstore"
	"github.com/c14220110/optik-backend/pkg/utils"
)

// ResepPowers mengambil nilai resep kedua mata (OD, OS) berdasarkan id resep.
type ResepPowers func(ctx context.Context, idResep int) (od, os services.EyePower, err error)

type LensaController struct {
	Service     *services.LensaService
	ResepPowers ResepPowers
}

func NewLensaController(s *services.LensaService, rp ResepPowers) *LensaController {
	return &LensaController{Service: s, ResepPowers: rp}
}

func parseDecimalQuery(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GET /api/lensa?q=&tipe=&material=&tratamiento=&min_harga=&max_harga=&sort=
func (lc *LensaController) ListLensa(c echo.Context) error {
	f := models.LensaFilter{
		Query:     c.QueryParam("q"),
		Tipe:      c.QueryParam("tipe"),
		Material:  c.QueryParam("material"),
		Lapisan:   c.QueryParam("tratamiento"),
		Sort:      c.QueryParam("sort"),
		OnlyAktif: c.QueryParam("semua") != "1",
	}
	var err error
	if f.MinHarga, err = parseDecimalQuery(c, "min_harga"); err != nil {
		return utils.Respond(c, http.StatusBadRequest, "min_harga tidak valid", nil)
	}
	if f.MaxHarga, err = parseDecimalQuery(c, "max_harga"); err != nil {
		return utils.Respond(c, http.StatusBadRequest, "max_harga tidak valid", nil)
	}

	page := utils.PageFromQuery(c)
	list, total, err := lc.Service.ListLensa(c.Request().Context(), f, page)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve lensa", err)
	}
	for i := range list {
		lc.Service.ImageURL(c.Request().Context(), &list[i])
	}
	return utils.Respond(c, http.StatusOK, "Lensa list retrieved successfully", utils.NewPaged(list, page, total))
}

func (lc *LensaController) GetLensa(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	l, err := lc.Service.GetLensa(c.Request().Context(), id)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve lensa", err)
	}
	lc.Service.ImageURL(c.Request().Context(), l)
	return utils.Respond(c, http.StatusOK, "Lensa retrieved successfully", l)
}

func (lc *LensaController) CreateLensa(c echo.Context) error {
	var req models.LensaRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	id, err := lc.Service.CreateLensa(c.Request().Context(), req)
	if err != nil {
		return apperror.Respond(c, "Failed to create lensa", err)
	}
	return utils.Respond(c, http.StatusCreated, "Lensa created successfully", map[string]interface{}{"id_lensa": id})
}

func (lc *LensaController) UpdateLensa(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.LensaRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	if err := lc.Service.UpdateLensa(c.Request().Context(), id, req); err != nil {
		return apperror.Respond(c, "Failed to update lensa", err)
	}
	return utils.Respond(c, http.StatusOK, "Lensa updated successfully", map[string]interface{}{"id_lensa": id})
}

// POST /api/lensa/:id/image (multipart, field "file")
func (lc *LensaController) UploadImage(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	data, contentType, err := utils.ReadImage(c, objectstore.MaxImageSize)
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	key, err := lc.Service.UploadImage(c.Request().Context(), id, data, contentType)
	if err != nil {
		return apperror.Respond(c, "Failed to upload image", err)
	}
	return utils.Respond(c, http.StatusOK, "Image uploaded successfully", map[string]interface{}{"image_key": key})
}

// GET /api/lensa/compatible?resep=12
func (lc *LensaController) Compatible(c echo.Context) error {
	idResep, err := strconv.Atoi(c.QueryParam("resep"))
	if err != nil || idResep <= 0 {
		return utils.Respond(c, http.StatusBadRequest, "resep parameter is required", nil)
	}
	od, os, err := lc.ResepPowers(c.Request().Context(), idResep)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve resep", err)
	}
	list, err := lc.Service.Compatible(c.Request().Context(), od, os)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve compatible lensa", err)
	}
	return utils.Respond(c, http.StatusOK, "Compatible lensa retrieved successfully", list)
}
