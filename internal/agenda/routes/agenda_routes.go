package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/agenda/controllers"
)

func RegisterAgendaRoutes(g *echo.Group, ac *controllers.AgendaController) {
	agenda := g.Group("/agenda")
	agenda.GET("", ac.ListAppointments)
	agenda.POST("", ac.Schedule)
	agenda.GET("/slots", ac.Slots)
	agenda.GET("/:id", ac.GetAppointment)
	agenda.PUT("/:id/reschedule", ac.Reschedule)
	agenda.PUT("/:id/status", ac.UpdateStatus)
}
