package ws

// Hub menyimpan koneksi layar resepsionis yang terbuka dan menyebarkan event
// (perubahan agenda, penjualan baru, status order lab) ke semuanya.

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventAppointmentUpdate = "appointment_update"
	EventSaleCreated       = "sale_created"
	EventOrderUpdate       = "order_update"
)

// Event adalah bentuk pesan yang dikirim ke client.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Publisher dipakai service untuk mengirim event tanpa bergantung pada Hub.
type Publisher interface {
	Publish(eventType string, data interface{})
}

// Client mewakili koneksi WebSocket
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // ditutup saat Run berhenti
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug("ws client registered", zap.Int("clients", len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Debug("ws client unregistered", zap.Int("clients", len(h.clients)))
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// client lambat, putuskan
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Register menambah client. Setelah hub berhenti, Send langsung ditutup
// supaya writePump ikut selesai.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

// Unregister tidak memblokir setelah hub berhenti; Send sudah ditutup oleh Run.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish mengirim event ke semua client. Tidak pernah memblokir pemanggil:
// bila antrean penuh event dibuang.
func (h *Hub) Publish(eventType string, data interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.log.Warn("ws marshal gagal", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("ws broadcast queue full, event dropped", zap.String("type", eventType))
	}
}

// Nop dipakai bila realtime tidak diperlukan (mis. di test).
type Nop struct{}

func (Nop) Publish(string, interface{}) {}
