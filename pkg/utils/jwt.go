package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims menyimpan identitas karyawan yang login beserta hak aksesnya.
type Claims struct {
	IDKaryawan int    `json:"id_karyawan"`
	Role       string `json:"role"`
	Privileges []int  `json:"privileges"`
	Username   string `json:"username"`
	jwt.RegisteredClaims
}

func (c *Claims) HasPrivilege(p int) bool {
	for _, v := range c.Privileges {
		if v == p {
			return true
		}
	}
	return false
}

// GenerateJWTToken membuat token HS256 yang berlaku sampai exp.
func GenerateJWTToken(secret []byte, idKaryawan int, role string, privileges []int, username string, exp time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("JWT secret key is missing")
	}

	claims := Claims{
		IDKaryawan: idKaryawan,
		Role:       role,
		Privileges: privileges,
		Username:   username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateJWTToken memvalidasi token dan mengembalikan klaimnya.
func ValidateJWTToken(secret []byte, tokenString string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, errors.New("JWT secret key is missing")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
