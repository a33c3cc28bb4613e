package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderSent      OrderStatus = "sent"
	OrderReceived  OrderStatus = "received"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:  {OrderSent, OrderCancelled},
	OrderSent:     {OrderReceived, OrderCancelled},
	OrderReceived: {OrderDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderSent, OrderReceived, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// LabOrder adalah pesanan pembuatan lensa ke laboratorium.
type LabOrder struct {
	ID          int         `json:"id_order"`
	Folio       string      `json:"folio"`
	IDPenjualan int         `json:"id_penjualan"`
	FolioJual   string      `json:"folio_penjualan,omitempty"`
	IDResep     int         `json:"id_resep"`
	NamaPasien  string      `json:"nama_pasien,omitempty"`
	Status      OrderStatus `json:"status"`
	Catatan     *string     `json:"catatan,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type OrderStatusRequest struct {
	Status  OrderStatus `json:"status" validate:"required,oneof=pending sent received delivered cancelled"`
	Catatan string      `json:"catatan" validate:"max=500"`
}
