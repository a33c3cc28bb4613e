package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestPublishReachesRegisteredClient(t *testing.T) {
	hub := startHub(t)
	client := &Client{Send: make(chan []byte, 1)}
	hub.Register(client)

	hub.Publish(EventSaleCreated, map[string]interface{}{"folio": "VTA-20260101-0001"})

	select {
	case msg := <-client.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		assert.Equal(t, EventSaleCreated, ev.Type)
		assert.Equal(t, "VTA-20260101-0001", ev.Data.(map[string]interface{})["folio"])
	case <-time.After(time.Second):
		t.Fatal("event tidak diterima")
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	client := &Client{Send: make(chan []byte, 1)}
	hub.Register(client)
	hub.Unregister(client)

	select {
	case _, ok := <-client.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel tidak ditutup")
	}
}

func TestRegisterAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	live := &Client{Send: make(chan []byte, 1)}
	hub.Register(live)
	cancel()
	<-stopped

	returned := make(chan struct{})
	late := &Client{Send: make(chan []byte, 1)}
	go func() {
		hub.Register(late)
		hub.Unregister(late)
		hub.Unregister(live)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Register/Unregister memblokir setelah hub berhenti")
	}
	_, ok := <-late.Send
	assert.False(t, ok, "client yang terlambat langsung ditutup")
	_, ok = <-live.Send
	assert.False(t, ok)
}

func TestServeWSDeliversEvents(t *testing.T) {
	hub := startHub(t)
	e := echo.New()
	e.GET("/ws", ServeWS(hub))
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// publish berulang sampai client terdaftar di hub dan menerima event
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				hub.Publish(EventAppointmentUpdate, map[string]int{"id_janji": 3})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), EventAppointmentUpdate)
	assert.Contains(t, string(msg), `"id_janji":3`)
}
