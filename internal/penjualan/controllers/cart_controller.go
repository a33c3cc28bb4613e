package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/internal/common/apperror"
	"github.com/c14220110/optik-backend/internal/penjualan/models"
	"github.com/c14220110/optik-backend/internal/penjualan/services"
	"github.com/c14220110/optik-backend/pkg/utils"
)

// CartController melayani layar POS.
type CartController struct {
	Service *services.CartService
}

func NewCartController(s *services.CartService) *CartController {
	return &CartController{Service: s}
}

func lineParam(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("line"))
}

func (cc *CartController) respondCart(c echo.Context, code int, msg string, v *models.CartView, err error) error {
	if err != nil {
		return apperror.Respond(c, "Failed to update cart", err)
	}
	return utils.Respond(c, code, msg, v)
}

// POST /api/pos/cart
func (cc *CartController) NewCart(c echo.Context) error {
	var req models.NewCartRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	v, err := cc.Service.NewCart(c.Request().Context(), req, karyawanID(c))
	return cc.respondCart(c, http.StatusCreated, "Cart created successfully", v, err)
}

func (cc *CartController) GetCart(c echo.Context) error {
	v, err := cc.Service.GetCart(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperror.Respond(c, "Failed to retrieve cart", err)
	}
	return utils.Respond(c, http.StatusOK, "Cart retrieved successfully", v)
}

// PUT /api/pos/cart/:id (pasien / resep)
func (cc *CartController) Assign(c echo.Context) error {
	var req models.CartAssignRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	v, err := cc.Service.Assign(c.Request().Context(), c.Param("id"), req)
	return cc.respondCart(c, http.StatusOK, "Cart updated successfully", v, err)
}

func (cc *CartController) AddItem(c echo.Context) error {
	var req models.LineItemRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	v, err := cc.Service.AddItem(c.Request().Context(), c.Param("id"), req)
	return cc.respondCart(c, http.StatusOK, "Item added successfully", v, err)
}

func (cc *CartController) UpdateItem(c echo.Context) error {
	line, err := lineParam(c)
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, "line must be a number", nil)
	}
	var req models.UpdateLineRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	v, err := cc.Service.UpdateItem(c.Request().Context(), c.Param("id"), line, req.Qty)
	return cc.respondCart(c, http.StatusOK, "Item updated successfully", v, err)
}

func (cc *CartController) RemoveItem(c echo.Context) error {
	line, err := lineParam(c)
	if err != nil {
		return utils.Respond(c, http.StatusBadRequest, "line must be a number", nil)
	}
	v, err := cc.Service.RemoveItem(c.Request().Context(), c.Param("id"), line)
	return cc.respondCart(c, http.StatusOK, "Item removed successfully", v, err)
}

func (cc *CartController) ApplyDiscount(c echo.Context) error {
	var req models.ApplyDiscountRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	v, err := cc.Service.ApplyDiscount(c.Request().Context(), c.Param("id"), req.Kode)
	if err != nil {
		return apperror.Respond(c, "Failed to apply diskon", err)
	}
	return utils.Respond(c, http.StatusOK, "Diskon applied successfully", v)
}

func (cc *CartController) RemoveDiscount(c echo.Context) error {
	v, err := cc.Service.RemoveDiscount(c.Request().Context(), c.Param("id"), c.Param("kode"))
	return cc.respondCart(c, http.StatusOK, "Diskon removed successfully", v, err)
}

// POST /api/pos/cart/:id/checkout
func (cc *CartController) Checkout(c echo.Context) error {
	var req models.CheckoutRequest
	if err := utils.BindAndValidate(c, &req); err != nil {
		return utils.Respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	sale, err := cc.Service.Checkout(c.Request().Context(), c.Param("id"), req.Payments, karyawanID(c))
	if err != nil {
		return apperror.Respond(c, "Checkout failed", err)
	}
	return utils.Respond(c, http.StatusCreated, "Sale created successfully", sale)
}
