package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func startHubServer(t *testing.T, userID int64) (*Hub, *gorilla.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("userID", userID)
		NewHandler(hub, zerolog.Nop()).HandleConnection(c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(userID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return hub, conn
}

func TestHubDeliversToAddressedUser(t *testing.T) {
	hub, conn := startHubServer(t, 7)

	hub.Send(&Message{Type: MessageTypeNotification, UserID: 99, EventID: 1, Summary: "not for you"})
	hub.Send(&Message{Type: MessageTypeNotification, UserID: 7, EventID: 1, Summary: "Event 'Picnic' updated: title"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	if got.UserID != 7 || got.Summary != "Event 'Picnic' updated: title" {
		t.Fatalf("unexpected message %+v", got)
	}
}

func TestHubWithoutConnectionDoesNotBlock(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Send(&Message{UserID: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked without a running hub")
	}
}

func TestStoppedHubDoesNotBlockClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan bool, 1)
	go func() {
		client := &Client{hub: hub, send: make(chan []byte, 1), userID: 7}
		hub.Unregister(client)
		done <- hub.Register(client)
	}()

	select {
	case registered := <-done:
		if registered {
			t.Fatal("stopped hub accepted a client")
		}
	case <-time.After(time.Second):
		t.Fatal("register or unregister blocked after the hub stopped")
	}
}

func TestHandlerClosesConnectionWhenHubStopped(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("userID", int64(7))
		NewHandler(hub, zerolog.Nop()).HandleConnection(c)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !gorilla.IsCloseError(err, gorilla.CloseGoingAway) {
		t.Fatalf("read error = %v, want going-away close", err)
	}
	if hub.ClientCount(7) != 0 {
		t.Error("client registered on a stopped hub")
	}
}
