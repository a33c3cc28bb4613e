package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	LensTypes     = []string{"monofocal", "bifocal", "progressive", "ocupacional"}
	LensMaterials = []string{"cr39", "polycarbonate", "trivex", "high_index"}
	LensCoatings  = []string{"antireflective", "blue_light", "photochromic", "polarized", "scratch_resistant"}
)

// Lensa adalah satu produk lensa di katalog beserta rentang resep yang bisa dibuat.
type Lensa struct {
	ID        int             `json:"id_lensa"`
	SKU       string          `json:"sku"`
	Nama      string          `json:"nama"`
	Merek     string          `json:"merek"`
	Tipe      string          `json:"tipe"`
	Material  string          `json:"material"`
	Indeks    decimal.Decimal `json:"indeks"`
	Lapisan   []string        `json:"lapisan"`
	SphMin    decimal.Decimal `json:"sph_min"`
	SphMax    decimal.Decimal `json:"sph_max"`
	CylMin    decimal.Decimal `json:"cyl_min"`
	Harga     decimal.Decimal `json:"harga"`
	Stok      int             `json:"stok"`
	Aktif     bool            `json:"aktif"`
	ImageKey  *string         `json:"image_key,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Multifocal berarti lensa bisa dipakai untuk resep dengan adisi.
func (l Lensa) Multifocal() bool {
	return l.Tipe == "progressive" || l.Tipe == "bifocal"
}

// Covers memeriksa apakah rentang lensa mencakup nilai sferis dan silinder satu mata.
func (l Lensa) Covers(sph, cyl decimal.Decimal) bool {
	return sph.GreaterThanOrEqual(l.SphMin) && sph.LessThanOrEqual(l.SphMax) && cyl.GreaterThanOrEqual(l.CylMin)
}

type LensaRequest struct {
	SKU      string          `json:"sku" validate:"required,max=40"`
	Nama     string          `json:"nama" validate:"required,max=120"`
	Merek    string          `json:"merek" validate:"required,max=60"`
	Tipe     string          `json:"tipe" validate:"required,oneof=monofocal bifocal progressive ocupacional"`
	Material string          `json:"material" validate:"required,oneof=cr39 polycarbonate trivex high_index"`
	Indeks   decimal.Decimal `json:"indeks"`
	Lapisan  []string        `json:"lapisan" validate:"dive,oneof=antireflective blue_light photochromic polarized scratch_resistant"`
	SphMin   decimal.Decimal `json:"sph_min"`
	SphMax   decimal.Decimal `json:"sph_max"`
	CylMin   decimal.Decimal `json:"cyl_min"`
	Harga    decimal.Decimal `json:"harga"`
	Stok     int             `json:"stok" validate:"gte=0"`
	Aktif    *bool           `json:"aktif"`
}

// LensaFilter dibaca dari query string halaman katalog.
type LensaFilter struct {
	Query     string
	Tipe      string
	Material  string
	Lapisan   string
	MinHarga  *decimal.Decimal
	MaxHarga  *decimal.Decimal
	Sort      string
	OnlyAktif bool
}
