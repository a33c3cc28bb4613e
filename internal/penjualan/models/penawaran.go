package models

import "time"

type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteSent      QuoteStatus = "sent"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteExpired   QuoteStatus = "expired"
	QuoteConverted QuoteStatus = "converted"
)

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteDraft:    {QuoteSent, QuoteAccepted, QuoteExpired},
	QuoteSent:     {QuoteAccepted, QuoteExpired},
	QuoteAccepted: {QuoteConverted, QuoteExpired},
}

func (s QuoteStatus) CanTransitionTo(target QuoteStatus) bool {
	for _, t := range quoteTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Open berarti penawaran masih bisa dikirim ke POS.
func (s QuoteStatus) Open() bool {
	return s == QuoteDraft || s == QuoteSent || s == QuoteAccepted
}

// Quote (penawaran) menyimpan snapshot harga untuk pasien.
type Quote struct {
	ID              int               `json:"id_penawaran"`
	Folio           string            `json:"folio"`
	IDPasien        int               `json:"id_pasien"`
	NamaPasien      string            `json:"nama_pasien,omitempty"`
	IDResep         *int              `json:"id_resep,omitempty"`
	IDKaryawan      int               `json:"id_karyawan"`
	Items           []LineItem        `json:"items"`
	KodeDiskon      []string          `json:"kode_diskon"`
	DiskonTerpasang []AppliedDiscount `json:"diskon_terpasang,omitempty"`
	Totals
	Status     QuoteStatus `json:"status"`
	ValidUntil time.Time   `json:"valid_until"`
	CreatedAt  time.Time   `json:"created_at"`
}

// QuoteRequest membuat penawaran dari keranjang (id_cart) atau dari daftar item.
type QuoteRequest struct {
	IDCart     string            `json:"id_cart"`
	IDPasien   *int              `json:"id_pasien"`
	IDResep    *int              `json:"id_resep"`
	Items      []LineItemRequest `json:"items" validate:"dive"`
	KodeDiskon []string          `json:"kode_diskon"`
}

type QuoteStatusRequest struct {
	Status QuoteStatus `json:"status" validate:"required,oneof=sent accepted expired"`
}

type QuoteFilter struct {
	IDPasien *int
	Status   string
}
