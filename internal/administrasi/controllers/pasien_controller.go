package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/administrasi/models"
	"github.com/c14220110/optik-backend/internal/administrasi/services"
	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/pkg/storage/objectstore"
	"github.com/c14220110/optik-backend/pkg/utils"
)

type PasienController struct {
	Service *services.PasienService
}

func NewPasienController(service *services.PasienService) *PasienController {
	return &PasienController{Service: service}
}

// GET /api/pasien?q=&page=&limit=
func (pc *PasienController) ListPasien(c echo.Context) error {
	page := utils.PageFromQuery(c)
	list, total, err := pc.Service.ListPasien(c.Request().Context(), c.QueryParam("q"), page)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve pasien", err)
	}
	return utils.Respond(c, http.StatusOK, "Pasien list retrieved successfully", utils.NewPaged(list, page, total))
}

func (pc *PasienController) CreatePasien(c echo.Context) error {
	var req models.PasienRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	p, err := pc.Service.CreatePasien(c.Request().Context(), req)
	if err != nil {
		return apperror.Respond(c, "Failed to create pasien", err)
	}
	return utils.Respond(c, http.StatusCreated, "Pasien created successfully", p)
}

func (pc *PasienController) GetPasien(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	p, err := pc.Service.GetPasien(c.Request().Context(), id)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve pasien", err)
	}
	return utils.Respond(c, http.StatusOK, "Pasien retrieved successfully", p)
}

func (pc *PasienController) UpdatePasien(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.PasienRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	p, err := pc.Service.UpdatePasien(c.Request().Context(), id, req)
	if err != nil {
		return apperror.Respond(c, "Failed to update pasien", err)
	}
	return utils.Respond(c, http.StatusOK, "Pasien updated successfully", p)
}

func (pc *PasienController) DeletePasien(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	if err := pc.Service.DeletePasien(c.Request().Context(), id); err != nil {
		return apperror.Respond(c, "Failed to delete pasien", err)
	}
	return utils.Respond(c, http.StatusOK, "Pasien deleted successfully", nil)
}

// GET /api/pasien/:id/history
func (pc *PasienController) History(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	h, err := pc.Service.History(c.Request().Context(), id)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve history", err)
	}
	return utils.Respond(c, http.StatusOK, "History retrieved successfully", h)
}

// POST /api/pasien/:id/dokumen (multipart: file, jenis)
func (pc *PasienController) UploadDokumen(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	data, contentType, err := utils.ReadImage(c, objectstore.MaxImageSize)
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	jenis := c.FormValue("jenis")
	if jenis == "" {
		jenis = "lainnya"
	}
	d, err := pc.Service.UploadDokumen(c.Request().Context(), id, jenis, data, contentType)
	if err != nil {
		return apperror.Respond(c, "Failed to upload dokumen", err)
	}
	return utils.Respond(c, http.StatusCreated, "Dokumen uploaded successfully", d)
}

func (pc *PasienController) ListDokumen(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	list, err := pc.Service.ListDokumen(c.Request().Context(), id)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve dokumen", err)
	}
	return utils.Respond(c, http.StatusOK, "Dokumen retrieved successfully", list)
}
