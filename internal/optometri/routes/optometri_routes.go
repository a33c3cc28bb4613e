package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/optometri/controllers"
)

func RegisterOptometriRoutes(g *echo.Group, oc *controllers.OptometriController) {
	g.GET("/optometris", oc.ListOptometris)
	g.POST("/pasien/:id/resep", oc.CreateResep)
	g.GET("/pasien/:id/resep", oc.ListResep)
	g.GET("/resep/:id", oc.GetResep)
}
