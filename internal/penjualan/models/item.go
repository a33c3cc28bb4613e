package models

import "github.com/shopspring/decimal"

// ItemKind adalah kategori baris penjualan; juga dipakai sebagai kategori diskon.
type ItemKind string

const (
	KindLens      ItemKind = "lens"
	KindFrame     ItemKind = "frame"
	KindService   ItemKind = "service"
	KindAccessory ItemKind = "accessory"
)

func (k ItemKind) Valid() bool {
	switch k {
	case KindLens, KindFrame, KindService, KindAccessory:
		return true
	}
	return false
}

// LineItem adalah satu baris di keranjang, penawaran atau penjualan.
type LineItem struct {
	Line        int             `json:"line"`
	Kind        ItemKind        `json:"kind"`
	RefID       *int            `json:"ref_id,omitempty"`
	Deskripsi   string          `json:"deskripsi"`
	Qty         int             `json:"qty"`
	HargaSatuan decimal.Decimal `json:"harga_satuan"`
}

func (l LineItem) Total() decimal.Decimal {
	return l.HargaSatuan.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// LineItemRequest dipakai saat menambah baris dari layar POS atau penawaran.
// Untuk kind "lens" harga dan deskripsi diambil dari katalog.
type LineItemRequest struct {
	Kind        ItemKind         `json:"kind" validate:"required,oneof=lens frame service accessory"`
	RefID       *int             `json:"ref_id"`
	Deskripsi   string           `json:"deskripsi" validate:"max=255"`
	Qty         int              `json:"qty" validate:"required,gt=0"`
	HargaSatuan *decimal.Decimal `json:"harga_satuan"`
}

type UpdateLineRequest struct {
	Qty int `json:"qty" validate:"required,gt=0"`
}

// Totals dihitung ulang dari baris setiap kali keranjang berubah.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Diskon   decimal.Decimal `json:"diskon"`
	Pajak    decimal.Decimal `json:"pajak"`
	Total    decimal.Decimal `json:"total"`
}
