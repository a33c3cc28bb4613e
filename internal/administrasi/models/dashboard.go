package models

import "github.com/shopspring/decimal"

// Dashboard adalah ringkasan satu hari untuk layar resepsionis.
type Dashboard struct {
	Tanggal           string          `json:"tanggal"`
	JanjiPerStatus    map[string]int  `json:"janji_per_status"`
	TotalJanji        int             `json:"total_janji"`
	JumlahPenjualan   int             `json:"jumlah_penjualan"`
	Pendapatan        decimal.Decimal `json:"pendapatan"`
	PembayaranMasuk   decimal.Decimal `json:"pembayaran_masuk"`
	OrderTerbuka      map[string]int  `json:"order_terbuka"`
	TotalOrderTerbuka int             `json:"total_order_terbuka"`
	PasienBaru        int             `json:"pasien_baru"`
}
