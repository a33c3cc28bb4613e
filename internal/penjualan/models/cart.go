package models

import "time"

// Cart adalah draft POS yang disimpan di Redis selama resepsionis berpindah layar.
type Cart struct {
	ID          string     `json:"id"`
	IDPasien    *int       `json:"id_pasien,omitempty"`
	IDResep     *int       `json:"id_resep,omitempty"`
	IDPenawaran *int       `json:"id_penawaran,omitempty"`
	Items       []LineItem `json:"items"`
	NextLine    int        `json:"next_line"`
	KodeDiskon  []string   `json:"kode_diskon"`
	CreatedBy   int        `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FindLine mengembalikan indeks baris atau -1.
func (c *Cart) FindLine(line int) int {
	for i, it := range c.Items {
		if it.Line == line {
			return i
		}
	}
	return -1
}

func (c *Cart) HasLens() bool {
	for _, it := range c.Items {
		if it.Kind == KindLens {
			return true
		}
	}
	return false
}

// CartView adalah keranjang beserta hasil perhitungan yang dikirim ke layar.
type CartView struct {
	Cart
	Diskon  []AppliedDiscount `json:"diskon"`
	Dropped []DroppedDiscount `json:"diskon_dilepas,omitempty"`
	Totals  Totals            `json:"totals"`
}

type NewCartRequest struct {
	IDPasien *int `json:"id_pasien"`
	IDResep  *int `json:"id_resep"`
}

type CartAssignRequest struct {
	IDPasien *int `json:"id_pasien"`
	IDResep  *int `json:"id_resep"`
}
