package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoleOptometris adalah nilai kolom Karyawan.role untuk optometris.
const RoleOptometris = "Optometris"

type Optometris struct {
	ID       int    `json:"id_optometris"`
	Nama     string `json:"nama"`
	Username string `json:"username"`
}

// Mata berisi ukuran satu mata. Axis kosong bila silinder 0.
type Mata struct {
	Sph  decimal.Decimal `json:"sph"`
	Cyl  decimal.Decimal `json:"cyl"`
	Axis *int            `json:"axis"`
	Add  decimal.Decimal `json:"add"`
}

// Resep kacamata; OD = mata kanan, OS = mata kiri.
type Resep struct {
	ID             int             `json:"id_resep"`
	IDPasien       int             `json:"id_pasien"`
	IDOptometris   *int            `json:"id_optometris"`
	NamaOptometris *string         `json:"nama_optometris,omitempty"`
	OD             Mata            `json:"od"`
	OS             Mata            `json:"os"`
	PD             decimal.Decimal `json:"pd"`
	Catatan        *string         `json:"catatan"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ResepRequest struct {
	IDOptometris *int            `json:"id_optometris"`
	OD           Mata            `json:"od"`
	OS           Mata            `json:"os"`
	PD           decimal.Decimal `json:"pd"`
	Catatan      string          `json:"catatan" validate:"max=1000"`
}
