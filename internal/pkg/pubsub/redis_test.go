package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/gatherly/gatherly/internal/pkg/websocket"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []*websocket.Message
	recv chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{recv: make(chan struct{}, 16)}
}

func (s *recordingSink) Send(m *websocket.Message) {
	s.mu.Lock()
	s.got = append(s.got, m)
	s.mu.Unlock()
	s.recv <- struct{}{}
}

func TestRedisBroadcasterRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := newRecordingSink()
	if err := NewSubscriber(rdb, "", sink, zerolog.Nop()).Start(ctx); err != nil {
		t.Fatalf("Start err: %v", err)
	}

	b := NewRedisBroadcaster(rdb, "")
	push := &websocket.Message{
		Type:           websocket.MessageTypeNotification,
		UserID:         12,
		NotificationID: 3,
		EventID:        5,
		Summary:        "New announcement for 'Picnic': Bring hats",
	}
	if err := b.Broadcast(ctx, push); err != nil {
		t.Fatalf("Broadcast err: %v", err)
	}

	select {
	case <-sink.recv:
	case <-time.After(2 * time.Second):
		t.Fatal("push never reached the sink")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	got := sink.got[0]
	if got.UserID != 12 || got.EventID != 5 || got.Summary != push.Summary {
		t.Fatalf("unexpected push %+v", got)
	}
}

func TestRedisBroadcasterPublishError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	err := NewRedisBroadcaster(rdb, "").Broadcast(context.Background(), &websocket.Message{UserID: 1})
	if err == nil {
		t.Fatal("expected publish error with redis down")
	}
}

func TestLocalBroadcaster(t *testing.T) {
	sink := newRecordingSink()
	if err := NewLocalBroadcaster(sink).Broadcast(context.Background(), &websocket.Message{UserID: 4}); err != nil {
		t.Fatalf("Broadcast err: %v", err)
	}
	if len(sink.got) != 1 || sink.got[0].UserID != 4 {
		t.Fatalf("unexpected sink contents %+v", sink.got)
	}
}
