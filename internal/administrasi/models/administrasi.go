package models

import "time"

// Role yang boleh login ke layar resepsionis.
const (
	RoleResepsionis = "Resepsionis"
	RoleAdmin       = "Admin"
)

// Karyawan adalah data login staf. Password tidak pernah dikirim ke client.
type Karyawan struct {
	ID         int       `json:"id_karyawan"`
	Nama       string    `json:"nama"`
	Username   string    `json:"username"`
	Password   string    `json:"-"`
	Role       string    `json:"role"`
	Privileges []int     `json:"privileges"`
	CreatedAt  time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Karyawan  Karyawan  `json:"employee"`
}
