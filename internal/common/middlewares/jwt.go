package middlewares

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/optik-backend/pkg/utils"
)

// ContextKeyClaims adalah key echo.Context tempat klaim JWT disimpan.
const ContextKeyClaims = "claims"

// JWTMiddleware memvalidasi header "Authorization: Bearer <token>".
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return utils.Respond(c, http.StatusUnauthorized, "Authorization header missing", nil)
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return utils.Respond(c, http.StatusUnauthorized, "Invalid authorization header", nil)
			}
			return authenticate(c, next, secret, parts[1])
		}
	}
}

// WebSocketAuth dipakai untuk /ws. Browser tidak bisa memasang header pada
// handshake WebSocket, jadi token dibaca dari query ?token= lebih dulu.
func WebSocketAuth(secret []byte) echo.MiddlewareFunc {
	header := JWTMiddleware(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		viaHeader := header(next)
		return func(c echo.Context) error {
			if tok := c.QueryParam("token"); tok != "" {
				return authenticate(c, next, secret, tok)
			}
			return viaHeader(c)
		}
	}
}

func authenticate(c echo.Context, next echo.HandlerFunc, secret []byte, token string) error {
	claims, err := utils.ValidateJWTToken(secret, token)
	if err != nil {
		return utils.Respond(c, http.StatusUnauthorized, "Invalid token: "+err.Error(), nil)
	}
	c.Set(ContextKeyClaims, claims)
	return next(c)
}

// ClaimsFrom mengambil klaim yang disimpan JWTMiddleware. nil bila tidak ada.
func ClaimsFrom(c echo.Context) *utils.Claims {
	claims, _ := c.Get(ContextKeyClaims).(*utils.Claims)
	return claims
}
