package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Baaaki/message-board/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestBroker(t *testing.T) (*RedisMessageBroker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	b, err := NewRedisMessageBroker(context.Background(), fmt.Sprintf("redis://%s", mr.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	return b, mr
}

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	b, _ := setupTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	msg := &models.Message{ID: 7, Content: "hello", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	require.NoError(t, b.Publish(ctx, Event{Type: EventCreated, MessageID: msg.ID, Message: msg, Timestamp: time.Now()}))

	event := receive(t, sub)
	assert.Equal(t, EventCreated, event.Type)
	assert.Equal(t, int64(7), event.MessageID)
	require.NotNil(t, event.Message)
	assert.Equal(t, "hello", event.Message.Content)
	assert.True(t, msg.CreatedAt.Equal(event.Message.CreatedAt))
}

func TestRedisBroker_DeleteEventHasNoMessage(t *testing.T) {
	b, _ := setupTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, Event{Type: EventDeleted, MessageID: 3, Timestamp: time.Now()}))

	event := receive(t, sub)
	assert.Equal(t, EventDeleted, event.Type)
	assert.Equal(t, int64(3), event.MessageID)
	assert.Nil(t, event.Message)
}

func TestRedisBroker_SkipsMalformedPayload(t *testing.T) {
	b, mr := setupTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish(eventsChannel, "not json")
	require.NoError(t, b.Publish(ctx, Event{Type: EventUpdated, MessageID: 1, Timestamp: time.Now()}))

	event := receive(t, sub)
	assert.Equal(t, EventUpdated, event.Type)
}

func TestRedisBroker_CloseEndsSubscription(t *testing.T) {
	b, _ := setupTestBroker(t)

	sub, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel was not closed")
	}
}

func TestNewRedisMessageBroker_InvalidURL(t *testing.T) {
	_, err := NewRedisMessageBroker(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestRedisBroker_PayloadUsesCamelCase(t *testing.T) {
	b, _ := setupTestBroker(t)
	ctx := context.Background()

	raw := b.Client().Subscribe(ctx, eventsChannel)
	defer raw.Close()
	_, err := raw.Receive(ctx)
	require.NoError(t, err)

	msg := &models.Message{ID: 9, Content: "wire", CreatedAt: time.Now().UTC()}
	require.NoError(t, b.Publish(ctx, Event{Type: EventUpdated, MessageID: msg.ID, Message: msg, Timestamp: time.Now()}))

	var payload map[string]any
	select {
	case redisMsg := <-raw.Channel():
		require.NoError(t, json.Unmarshal([]byte(redisMsg.Payload), &payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
	}

	assert.Equal(t, "message.updated", payload["type"])
	assert.EqualValues(t, 9, payload["messageId"])
	assert.NotContains(t, payload, "message_id")
	assert.Contains(t, payload, "timestamp")

	embedded, ok := payload["message"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, embedded, "createdAt")
	assert.Equal(t, "wire", embedded["content"])
}
