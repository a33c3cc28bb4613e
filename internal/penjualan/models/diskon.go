package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// KategoriAll berarti diskon berlaku untuk semua baris.
const KategoriAll = "all"

type Discount struct {
	ID          int             `json:"id_diskon"`
	Kode        string          `json:"kode"`
	Nama        string          `json:"nama"`
	Tipe        DiscountType    `json:"tipe"`
	Nilai       decimal.Decimal `json:"nilai"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	Kategori    string          `json:"kategori"`
	Mulai       *time.Time      `json:"mulai,omitempty"`
	Berakhir    *time.Time      `json:"berakhir,omitempty"`
	MaxUses     int             `json:"max_uses"`
	Used        int             `json:"used"`
	Stackable   bool            `json:"stackable"`
	Aktif       bool            `json:"aktif"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AppliedDiscount adalah diskon yang benar-benar terpasang beserta nominalnya.
type AppliedDiscount struct {
	IDDiskon int             `json:"id_diskon"`
	Kode     string          `json:"kode"`
	Nama     string          `json:"nama"`
	Jumlah   decimal.Decimal `json:"jumlah"`
}

// DroppedDiscount dilaporkan ketika kode diskon dilepas karena tidak lagi memenuhi syarat.
type DroppedDiscount struct {
	Kode   string `json:"kode"`
	Alasan string `json:"alasan"`
}

type DiscountRequest struct {
	Kode        string          `json:"kode" validate:"required,max=30"`
	Nama        string          `json:"nama" validate:"required,max=120"`
	Tipe        DiscountType    `json:"tipe" validate:"required,oneof=percentage fixed"`
	Nilai       decimal.Decimal `json:"nilai"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	Kategori    string          `json:"kategori" validate:"omitempty,oneof=all lens frame service accessory"`
	Mulai       *time.Time      `json:"mulai"`
	Berakhir    *time.Time      `json:"berakhir"`
	MaxUses     int             `json:"max_uses" validate:"gte=0"`
	Stackable   bool            `json:"stackable"`
	Aktif       *bool           `json:"aktif"`
}

type ApplyDiscountRequest struct {
	Kode string `json:"kode" validate:"required"`
}
