package utils

import "github.com/labstack/echo/v4"

// Respond menulis envelope standar { "status", "message", "data" }.
func Respond(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, map[string]interface{}{
		"status":  code,
		"message": message,
		"data":    data,
	})
}
