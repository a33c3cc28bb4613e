package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SalePartial   SaleStatus = "partial"
	SalePaid      SaleStatus = "paid"
	SaleCancelled SaleStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

type Payment struct {
	ID         int             `json:"id_pembayaran,omitempty"`
	Metode     PaymentMethod   `json:"metode" validate:"required,oneof=cash card transfer"`
	Jumlah     decimal.Decimal `json:"jumlah"`
	Referensi  string          `json:"referensi,omitempty" validate:"max=60"`
	IDKaryawan int             `json:"id_karyawan,omitempty"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
}

type Sale struct {
	ID          int    `json:"id_penjualan"`
	Folio       string `json:"folio"`
	IDPasien    int    `json:"id_pasien"`
	NamaPasien  string `json:"nama_pasien,omitempty"`
	IDKaryawan  int    `json:"id_karyawan"`
	IDResep     *int   `json:"id_resep,omitempty"`
	IDPenawaran *int   `json:"id_penawaran,omitempty"`
	Totals
	Dibayar         decimal.Decimal   `json:"dibayar"`
	Sisa            decimal.Decimal   `json:"sisa"`
	Status          SaleStatus        `json:"status"`
	CancelReason    *string           `json:"cancel_reason,omitempty"`
	Items           []LineItem        `json:"items,omitempty"`
	DiskonTerpasang []AppliedDiscount `json:"diskon_terpasang,omitempty"`
	Payments        []Payment         `json:"pembayaran,omitempty"`
	Order           *LabOrder         `json:"order_lab,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

type CheckoutRequest struct {
	Payments []Payment `json:"pembayaran" validate:"dive"`
}

type AddPaymentRequest struct {
	Payment
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type SaleFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
	Query  string
}
