package broker

import (
	"context"
	"encoding/json"

	"github.com/Baaaki/message-board/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	eventsChannel    = "messages:events"
	subscriberBuffer = 100
)

// RedisMessageBroker implements MessageBroker using Redis pub/sub
type RedisMessageBroker struct {
	client *redis.Client
}

var _ MessageBroker = (*RedisMessageBroker)(nil)

func NewRedisMessageBroker(ctx context.Context, redisURL string) (*RedisMessageBroker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisMessageBroker{client: client}, nil
}

// Client exposes the connection so the rate limiter can share it
func (r *RedisMessageBroker) Client() *redis.Client {
	return r.client
}

func (r *RedisMessageBroker) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, eventsChannel, data).Err()
}

// Subscribe returns once Redis has confirmed the subscription,
// so no event published afterwards is missed.
func (r *RedisMessageBroker) Subscribe(ctx context.Context) (Subscription, error) {
	pubsub := r.client.Subscribe(ctx, eventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan Event, subscriberBuffer),
	}
	go sub.forward()

	return sub, nil
}

func (r *RedisMessageBroker) Close() error {
	return r.client.Close()
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan Event
}

func (s *redisSubscription) Events() <-chan Event {
	return s.events
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}

// forward decodes payloads until the pubsub is closed
func (s *redisSubscription) forward() {
	defer close(s.events)

	for redisMsg := range s.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(redisMsg.Payload), &event); err != nil {
			logger.Log.Warn("Broker: dropping malformed event",
				zap.String("channel", redisMsg.Channel),
				zap.Error(err),
			)
			continue
		}

		// A slow consumer loses events instead of stalling the pubsub reader
		select {
		case s.events <- event:
		default:
			logger.Log.Warn("Broker: subscriber buffer full, dropping event",
				zap.String("type", string(event.Type)),
				zap.Int64("message_id", event.MessageID),
			)
		}
	}
}
