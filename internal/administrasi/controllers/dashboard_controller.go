package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/administrasi/services"
	"github.com/c14220110/optik-backend/pkg/utils"
)

type DashboardController struct {
	Service *services.DashboardService
}

func NewDashboardController(svc *services.DashboardService) *DashboardController {
	return &DashboardController{Service: svc}
}

// GetDashboard handles GET /api/dashboard?date=YYYY-MM-DD (default hari ini)
func (dc *DashboardController) GetDashboard(c echo.Context) error {
	day := time.Now()
	if s := c.QueryParam("date"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return utils.Respond(c, http.StatusBadRequest, "invalid date", nil)
		}
		day = t
	}
	dash, err := dc.Service.GetDashboard(c.Request().Context(), day)
	if err != nil {
		return utils.Respond(c, http.StatusInternalServerError, "failed to get dashboard: "+err.Error(), nil)
	}
	return utils.Respond(c, http.StatusOK, "Dashboard retrieved successfully", dash)
}
