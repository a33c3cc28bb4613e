package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/agenda/models"
	"github.com/c14220110/optik-backend/internal/agenda/services"
	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/common/middlewares"
	"github.com/c14220110/optik-backend/pkg/utils"
)

const dateLayout = "2006-01-02"

type AgendaController struct {
	Service *services.AgendaService
}

func NewAgendaController(s *services.AgendaService) *AgendaController {
	return &AgendaController{Service: s}
}

func parseDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optometrisParam(c echo.Context) (*int, error) {
	raw := c.QueryParam("id_optometris")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return nil, strconv.ErrSyntax
	}
	return &id, nil
}

// GET /api/agenda?date=&from=&to=&status=&id_optometris=
func (ac *AgendaController) ListAppointments(c echo.Context) error {
	f := models.AppointmentFilter{Status: models.AppointmentStatus(c.QueryParam("status"))}
	date, err := parseDate(c, "date")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, "date harus berformat YYYY-MM-DD", nil)
	}
	if date != nil {
		to := date.AddDate(0, 0, 1)
		f.From, f.To = date, &to
	} else {
		if f.From, err = parseDate(c, "from"); err != nil {
			return utils.Respond(c, http.StatusBadRequest, "from harus berformat YYYY-MM-DD", nil)
		}
		to, err := parseDate(c, "to")
		if err != nil {
			return utils.Respond(c, http.StatusBadRequest, "to harus berformat YYYY-MM-DD", nil)
		}
		if to != nil {
			end := to.AddDate(0, 0, 1)
			f.To = &end
		}
	}
	if f.IDOptometris, err = optometrisParam(c); err != nil {
		return utils.Respond(c, http.StatusBadRequest, "id_optometris tidak valid", nil)
	}

	page := utils.PageFromQuery(c)
	list, total, err := ac.Service.ListAppointments(c.Request().Context(), f, page)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve agenda", err)
	}
	return utils.Respond(c, http.StatusOK, "Agenda retrieved successfully", utils.NewPaged(list, page, total))
}

func (ac *AgendaController) GetAppointment(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	a, err := ac.Service.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve appointment", err)
	}
	return utils.Respond(c, http.StatusOK, "Appointment retrieved successfully", a)
}

// POST /api/agenda
func (ac *AgendaController) Schedule(c echo.Context) error {
	var req models.AppointmentRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var idKaryawan int
	if claims := middlewares.ClaimsFrom(c); claims != nil {
		idKaryawan = claims.IDKaryawan
	}
	a, err := ac.Service.Schedule(c.Request().Context(), req, idKaryawan)
	if err != nil {
		return apperror.Respond(c, "Failed to schedule appointment", err)
	}
	return utils.Respond(c, http.StatusCreated, "Appointment scheduled successfully", a)
}

// PUT /api/agenda/:id/reschedule
func (ac *AgendaController) Reschedule(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.RescheduleRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	a, err := ac.Service.Reschedule(c.Request().Context(), id, req)
	if err != nil {
		return apperror.Respond(c, "Failed to reschedule appointment", err)
	}
	return utils.Respond(c, http.StatusOK, "Appointment rescheduled successfully", a)
}

// PUT /api/agenda/:id/status
func (ac *AgendaController) UpdateStatus(c echo.Context) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	var req models.StatusRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	a, err := ac.Service.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		return apperror.Respond(c, "Failed to update appointment status", err)
	}
	return utils.Respond(c, http.StatusOK, "Appointment status updated successfully", a)
}

// GET /api/agenda/slots?date=2026-05-11&id_optometris=4
func (ac *AgendaController) Slots(c echo.Context) error {
	date, err := parseDate(c, "date")
	if err != nil || date == nil {
		return utils.Respond(c, http.StatusBadRequest, "date wajib berformat YYYY-MM-DD", nil)
	}
	idOpt, err := optometrisParam(c)
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, "id_optometris tidak valid", nil)
	}
	slots, err := ac.Service.Slots(c.Request().Context(), *date, idOpt)
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve slots", err)
	}
	return utils.Respond(c, http.StatusOK, "Slots retrieved successfully", slots)
}
