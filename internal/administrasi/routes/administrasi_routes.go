package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/administrasi/controllers"
)

// RegisterAuthRoutes dipasang di group publik (tanpa JWT).
func RegisterAuthRoutes(g *echo.Group, ac *controllers.AdministrasiController) {
	g.POST("/auth/login", ac.Login)
}

func RegisterAdministrasiRoutes(g *echo.Group, pc *controllers.PasienController, dc *controllers.DashboardController) {
	pasien := g.Group("/pasien")
	pasien.GET("", pc.ListPasien)
	pasien.POST("", pc.CreatePasien)
	pasien.GET("/:id", pc.GetPasien)
	pasien.PUT("/:id", pc.UpdatePasien)
	pasien.DELETE("/:id", pc.DeletePasien)
	pasien.GET("/:id/history", pc.History)
	pasien.GET("/:id/dokumen", pc.ListDokumen)
	pasien.POST("/:id/dokumen", pc.UploadDokumen)

	g.GET("/dashboard", dc.GetDashboard)
}
