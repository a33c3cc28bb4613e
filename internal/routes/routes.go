package routes

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/c14220110/optik-backend/config"
	adminControllers "github.com/c14220110/optik-backend/internal/administrasi/controllers"
	adminRoutes "github.com/c14220110/optik-backend/internal/administrasi/routes"
	adminServices "github.com/c14220110/optik-backend/internal/administrasi/services"
	agendaControllers "github.com/c14220110/optik-backend/internal/agenda/controllers"
	agendaRoutes "github.com/c14220110/optik-backend/internal/agenda/routes"
	agendaServices "github.com/c14220110/optik-backend/internal/agenda/services"
	"github.com/c14220110/optik-backend/internal/common/middlewares"
	katalogControllers "github.com/c14220110/optik-backend/internal/katalog/controllers"
	katalogRoutes "github.com/c14220110/optik-backend/internal/katalog/routes"
	katalogServices "github.com/c14220110/optik-backend/internal/katalog/services"
	optometriControllers "github.com/c14220110/optik-backend/internal/optometri/controllers"
	optometriRoutes "github.com/c14220110/optik-backend/internal/optometri/routes"
	optometriServices "github.com/c14220110/optik-backend/internal/optometri/services"
	penjualanControllers "github.com/c14220110/optik-backend/internal/penjualan/controllers"
	penjualanRoutes "github.com/c14220110/optik-backend/internal/penjualan/routes"
	penjualanServices "github.com/c14220110/optik-backend/internal/penjualan/services"
	"github.com/c14220110/optik-backend/pkg/metrics"
	"github.com/c14220110/optik-backend/pkg/storage/objectstore"
	"github.com/c14220110/optik-backend/pkg/storage/redisstore"
	"github.com/c14220110/optik-backend/ws"
)

// Deps berisi koneksi dan komponen bersama yang dibuat di main.
type Deps struct {
	Config   *config.Config
	DB       *sql.DB
	Drafts   *redisstore.Store
	Storage  objectstore.Storage
	Hub      *ws.Hub
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Init menginisialisasi semua service, controller, dan route.
func Init(e *echo.Echo, d Deps) error {
	cfg := d.Config
	tax, err := cfg.Tax()
	if err != nil {
		return err
	}
	minDeposit, err := cfg.MinDeposit()
	if err != nil {
		return err
	}
	open, closeAt, err := cfg.ClinicHours()
	if err != nil {
		return err
	}
	storage := d.Storage
	if storage == nil {
		storage = objectstore.Disabled{}
	}
	var events ws.Publisher = ws.Nop{}
	if d.Hub != nil {
		events = d.Hub
	}

	// Administrasi
	adminService := adminServices.NewAdministrasiService(d.DB, []byte(cfg.JWTSecret), cfg.JWTTTL)
	pasienService := adminServices.NewPasienService(d.DB, storage)
	dashboardService := adminServices.NewDashboardService(d.DB)

	// Optometri
	optometrisService := optometriServices.NewOptometrisService(d.DB)
	resepService := optometriServices.NewResepService(d.DB, optometrisService)

	// Agenda
	agendaService := agendaServices.NewAgendaService(d.DB, optometrisService, agendaServices.Hours{
		Open:     open,
		Close:    closeAt,
		Duration: cfg.AppointmentDuration(),
	}, events, d.Metrics)

	// Katalog
	lensaService := katalogServices.NewLensaService(d.DB, storage)

	// Penjualan
	discountService := penjualanServices.NewDiscountService(d.DB)
	cartService := penjualanServices.NewCartService(d.DB, d.Drafts, lensaService, discountService,
		penjualanServices.Pricing{TaxRate: tax}, minDeposit, events, d.Metrics)
	saleService := penjualanServices.NewSaleService(d.DB, events)
	orderService := penjualanServices.NewOrderService(d.DB, events)
	quoteService := penjualanServices.NewQuoteService(d.DB, cartService, cfg.QuoteValidDays)
	wizardService := penjualanServices.NewWizardService(d.Drafts, cartService)

	adminController := adminControllers.NewAdministrasiController(adminService)
	pasienController := adminControllers.NewPasienController(pasienService)
	dashboardController := adminControllers.NewDashboardController(dashboardService)
	optometriController := optometriControllers.NewOptometriController(optometrisService, resepService)
	agendaController := agendaControllers.NewAgendaController(agendaService)
	lensaController := katalogControllers.NewLensaController(lensaService, resepPowers(resepService))

	api := e.Group("/api")
	adminRoutes.RegisterAuthRoutes(api, adminController) // Tidak pakai JWT

	protected := api.Group("", middlewares.JWTMiddleware([]byte(cfg.JWTSecret)))
	adminRoutes.RegisterAdministrasiRoutes(protected, pasienController, dashboardController)
	optometriRoutes.RegisterOptometriRoutes(protected, optometriController)
	agendaRoutes.RegisterAgendaRoutes(protected, agendaController)
	katalogRoutes.RegisterLensaRoutes(protected, lensaController,
		middlewares.RequirePrivilege(middlewares.PrivilegeKelolaKatalog))
	penjualanRoutes.RegisterPenjualanRoutes(protected, penjualanRoutes.Controllers{
		Diskon: penjualanControllers.NewDiskonController(discountService, cartService),
		Cart:   penjualanControllers.NewCartController(cartService),
		Sale:   penjualanControllers.NewSaleController(saleService),
		Order:  penjualanControllers.NewOrderController(orderService),
		Quote:  penjualanControllers.NewQuoteController(quoteService),
		Wizard: penjualanControllers.NewWizardController(wizardService),
	}, penjualanRoutes.Guards{
		KelolaDiskon:   middlewares.RequirePrivilege(middlewares.PrivilegeKelolaDiskon),
		BatalPenjualan: middlewares.RequirePrivilege(middlewares.PrivilegeBatalPenjualan),
	})

	// Notifikasi realtime untuk layar resepsionis dan lab
	if d.Hub != nil {
		e.GET("/ws", ws.ServeWS(d.Hub), middlewares.WebSocketAuth([]byte(cfg.JWTSecret)))
	}
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	if d.Logger != nil {
		_, disabled := storage.(objectstore.Disabled)
		d.Logger.Info("Route terdaftar", zap.Int("jumlah", len(e.Routes())), zap.Bool("object_storage", !disabled))
	}
	return nil
}

// resepPowers menjembatani katalog ke resep tanpa import silang antar modul.
func resepPowers(rs *optometriServices.ResepService) katalogControllers.ResepPowers {
	return func(ctx context.Context, idResep int) (katalogServices.EyePower, katalogServices.EyePower, error) {
		r, err := rs.GetResep(ctx, idResep)
		if err != nil {
			return katalogServices.EyePower{}, katalogServices.EyePower{}, fmt.Errorf("resep %d: %w", idResep, err)
		}
		od := katalogServices.EyePower{Sph: r.OD.Sph, Cyl: r.OD.Cyl, Add: r.OD.Add}
		os := katalogServices.EyePower{Sph: r.OS.Sph, Cyl: r.OS.Cyl, Add: r.OS.Add}
		return od, os, nil
	}
}
