package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pasien mewakili data pasien klinik optik.
type Pasien struct {
	ID           int        `json:"id_pasien"`
	Nama         string     `json:"nama"`
	TanggalLahir *time.Time `json:"tanggal_lahir"`
	JenisKelamin *string    `json:"jenis_kelamin"`
	NoTelp       string     `json:"no_telp"`
	Email        *string    `json:"email"`
	Alamat       *string    `json:"alamat"`
	NIK          *string    `json:"nik"`
	Catatan      *string    `json:"catatan"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type PasienRequest struct {
	Nama         string `json:"nama" validate:"required,max=120"`
	TanggalLahir string `json:"tanggal_lahir" validate:"omitempty,datetime=2006-01-02"`
	JenisKelamin string `json:"jenis_kelamin" validate:"omitempty,oneof=L P"`
	NoTelp       string `json:"no_telp" validate:"required,max=30"`
	Email        string `json:"email" validate:"omitempty,email,max=120"`
	Alamat       string `json:"alamat" validate:"max=255"`
	NIK          string `json:"nik" validate:"omitempty,numeric,max=20"`
	Catatan      string `json:"catatan" validate:"max=1000"`
}

// Jenis dokumen pasien yang bisa diunggah.
var DokumenTypes = []string{"ktp", "resep_lama", "lainnya"}

type Dokumen struct {
	ID          int       `json:"id_dokumen"`
	IDPasien    int       `json:"id_pasien"`
	Jenis       string    `json:"jenis"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Riwayat pasien: janji temu, penawaran dan penjualan.
type History struct {
	Pasien    Pasien           `json:"pasien"`
	Janji     []HistoryJanji   `json:"janji"`
	Penawaran []HistoryDokumen `json:"penawaran"`
	Penjualan []HistoryDokumen `json:"penjualan"`
}

type HistoryJanji struct {
	ID     int       `json:"id_janji"`
	Jenis  string    `json:"jenis"`
	Mulai  time.Time `json:"mulai"`
	Status string    `json:"status"`
}

// HistoryDokumen dipakai untuk penawaran maupun penjualan.
type HistoryDokumen struct {
	ID        int             `json:"id"`
	Folio     string          `json:"folio"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
