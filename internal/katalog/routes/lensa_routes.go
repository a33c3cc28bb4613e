package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/katalog/controllers"
)

// RegisterLensaRoutes memasang endpoint katalog. manage dipakai untuk route yang
// mengubah katalog (butuh privilege).
func RegisterLensaRoutes(g *echo.Group, lc *controllers.LensaController, manage echo.MiddlewareFunc) {
	lensa := g.Group("/lensa")
	lensa.GET("", lc.ListLensa)
	lensa.GET("/compatible", lc.Compatible)
	lensa.GET("/:id", lc.GetLensa)
	lensa.POST("", lc.CreateLensa, manage)
	lensa.PUT("/:id", lc.UpdateLensa, manage)
	lensa.POST("/:id/image", lc.UploadImage, manage)
}
