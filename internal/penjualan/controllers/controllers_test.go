package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/optik-backend/internal/common/middlewares"
	"github.com/c14220110/optik-backend/internal/penjualan/services"
	"github.com/c14220110/optik-backend/pkg/storage/redisstore"
	"github.com/c14220110/optik-backend/ws"
)

func setup(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	carts := services.NewCartService(db, redisstore.New(client, time.Hour), nil, services.NewDiscountService(db),
		services.Pricing{TaxRate: decimal.RequireFromString("0.16")}, decimal.RequireFromString("0.5"), ws.Nop{}, nil)
	cc := NewCartController(carts)
	sc := NewSaleController(services.NewSaleService(db, ws.Nop{}))

	e := echo.New()
	e.Validator = middlewares.NewRequestValidator()
	e.POST("/api/pos/cart", cc.NewCart)
	e.GET("/api/pos/cart/:id", cc.GetCart)
	e.POST("/api/pos/cart/:id/items", cc.AddItem)
	e.PUT("/api/pos/cart/:id/items/:line", cc.UpdateItem)
	e.GET("/api/penjualan", sc.ListSales)
	e.PUT("/api/penjualan/:id/cancel", sc.CancelSale)
	return e, mock
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCartHandlersFlow(t *testing.T) {
	e, _ := setup(t)

	rec := do(e, http.MethodPost, "/api/pos/cart", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := envelope(t, rec)["data"].(map[string]interface{})["id"].(string)
	require.NotEmpty(t, id)

	rec = do(e, http.MethodPost, "/api/pos/cart/"+id+"/items",
		`{"kind":"frame","deskripsi":"Rangka titanium","qty":2,"harga_satuan":"100.00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := envelope(t, rec)["data"].(map[string]interface{})["totals"].(map[string]interface{})
	assert.Equal(t, "200", totals["subtotal"])
	assert.Equal(t, "32", totals["pajak"])
	assert.Equal(t, "232", totals["total"])

	rec = do(e, http.MethodPut, "/api/pos/cart/"+id+"/items/satu", `{"qty":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItemValidationHandler(t *testing.T) {
	e, _ := setup(t)
	rec := do(e, http.MethodPost, "/api/pos/cart/abc/items", `{"kind":"kacamata","qty":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, envelope(t, rec)["message"], "validasi gagal")
}

func TestGetCartNotFound(t *testing.T) {
	e, _ := setup(t)
	rec := do(e, http.MethodGet, "/api/pos/cart/tidak-ada", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaleHandlersRejectBadInput(t *testing.T) {
	e, _ := setup(t)

	rec := do(e, http.MethodGet, "/api/penjualan?from=10-05-2026", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPut, "/api/penjualan/41/cancel", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPut, "/api/penjualan/nol/cancel", `{"reason":"batal"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
