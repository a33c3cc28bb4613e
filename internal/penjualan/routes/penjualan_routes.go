package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/penjualan/controllers"
)

type Controllers struct {
	Diskon *controllers.DiskonController
	Cart   *controllers.CartController
	Sale   *controllers.SaleController
	Order  *controllers.OrderController
	Quote  *controllers.QuoteController
	Wizard *controllers.WizardController
}

// Guards berisi middleware privilege untuk route sensitif.
type Guards struct {
	KelolaDiskon   echo.MiddlewareFunc
	BatalPenjualan echo.MiddlewareFunc
}

func RegisterPenjualanRoutes(g *echo.Group, ctl Controllers, guard Guards) {
	diskon := g.Group("/diskon")
	diskon.GET("", ctl.Diskon.ListActive)
	diskon.GET("/eligible", ctl.Diskon.Eligible)
	diskon.POST("", ctl.Diskon.Create, guard.KelolaDiskon)
	diskon.PUT("/:id", ctl.Diskon.Update, guard.KelolaDiskon)

	cart := g.Group("/pos/cart")
	cart.POST("", ctl.Cart.NewCart)
	cart.GET("/:id", ctl.Cart.GetCart)
	cart.PUT("/:id", ctl.Cart.Assign)
	cart.POST("/:id/items", ctl.Cart.AddItem)
	cart.PUT("/:id/items/:line", ctl.Cart.UpdateItem)
	cart.DELETE("/:id/items/:line", ctl.Cart.RemoveItem)
	cart.POST("/:id/discounts", ctl.Cart.ApplyDiscount)
	cart.DELETE("/:id/discounts/:kode", ctl.Cart.RemoveDiscount)
	cart.POST("/:id/checkout", ctl.Cart.Checkout)

	wizard := g.Group("/pos/wizard")
	wizard.POST("", ctl.Wizard.Start)
	wizard.GET("/:id", ctl.Wizard.Get)
	wizard.PUT("/:id/:step", ctl.Wizard.Step)

	penjualan := g.Group("/penjualan")
	penjualan.GET("", ctl.Sale.ListSales)
	penjualan.GET("/:id", ctl.Sale.GetSale)
	penjualan.POST("/:id/payments", ctl.Sale.AddPayment)
	penjualan.PUT("/:id/cancel", ctl.Sale.CancelSale, guard.BatalPenjualan)

	orders := g.Group("/orders")
	orders.GET("", ctl.Order.ListOrders)
	orders.PUT("/:id/status", ctl.Order.UpdateStatus)

	quotes := g.Group("/quotes")
	quotes.POST("", ctl.Quote.CreateQuote)
	quotes.GET("", ctl.Quote.ListQuotes)
	quotes.GET("/:id", ctl.Quote.GetQuote)
	quotes.PUT("/:id/status", ctl.Quote.UpdateStatus)
	quotes.POST("/:id/cart", ctl.Quote.ToCart)
}
