// Package pubsub fans notification pushes out across API instances over redis pub/sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gatherly/gatherly/internal/pkg/websocket"
)

// DefaultChannel carries notification pushes.
const DefaultChannel = "notifications"

// Envelope wraps every message published on the channel.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Sink receives decoded pushes; *websocket.Hub satisfies it.
type Sink interface {
	Send(message *websocket.Message)
}

// NewRedisClient connects to url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisBroadcaster publishes pushes to a redis channel; every instance's Subscriber hands
// them to its local hub.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
}

func NewRedisBroadcaster(client *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroadcaster{client: client, channel: channel}
}

// Broadcast publishes message wrapped in an Envelope.
func (b *RedisBroadcaster) Broadcast(ctx context.Context, message *websocket.Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal push: %w", err)
	}
	env, err := json.Marshal(Envelope{
		ID:        uuid.New().String(),
		Type:      message.Type,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, env).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// LocalBroadcaster pushes straight into the in-process hub, used when redis is disabled.
type LocalBroadcaster struct {
	sink Sink
}

func NewLocalBroadcaster(sink Sink) *LocalBroadcaster {
	return &LocalBroadcaster{sink: sink}
}

func (b *LocalBroadcaster) Broadcast(_ context.Context, message *websocket.Message) error {
	b.sink.Send(message)
	return nil
}

// Subscriber forwards pushes from the redis channel to a Sink.
type Subscriber struct {
	client  *redis.Client
	channel string
	sink    Sink
	logger  zerolog.Logger
}

func NewSubscriber(client *redis.Client, channel string, sink Sink, logger zerolog.Logger) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Subscriber{client: client, channel: channel, sink: sink, logger: logger}
}

// Start subscribes, waits for the subscription to be confirmed and then consumes messages
// in a goroutine until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}

	go func() {
		defer ps.Close()
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				s.handle(msg.Payload)
			}
		}
	}()

	s.logger.Info().Str("channel", s.channel).Msg("Subscribed to notification channel")
	return nil
}

func (s *Subscriber) handle(raw string) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		s.logger.Warn().Err(err).Msg("Dropping malformed envelope")
		return
	}
	var message websocket.Message
	if err := json.Unmarshal(env.Payload, &message); err != nil {
		s.logger.Warn().Err(err).Str("envelopeID", env.ID).Msg("Dropping malformed push payload")
		return
	}
	s.sink.Send(&message)
}
