package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Baaaki/message-board/internal/broker"
	"github.com/Baaaki/message-board/internal/handler"
	"github.com/Baaaki/message-board/internal/repository"
	"github.com/Baaaki/message-board/internal/server"
	"github.com/Baaaki/message-board/internal/service"
	"github.com/Baaaki/message-board/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedFixture struct {
	server  *httptest.Server
	ws      *handler.WebSocketHandler
	broker  *broker.RedisMessageBroker
	wsURL   string
	httpURL string
}

func setupFeed(t *testing.T, allowedOrigins []string) *feedFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB := testutil.SetupTestDatabase(t)
	t.Cleanup(func() { testDB.Teardown(t) })

	testRedis := testutil.SetupTestRedis(t)
	t.Cleanup(func() { testRedis.Teardown(t) })

	redisBroker, err := broker.NewRedisMessageBroker(context.Background(), testRedis.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisBroker.Close() })

	messageService := service.NewMessageService(repository.NewMessageRepository(testDB.DB), redisBroker)
	ws := handler.NewWebSocketHandler(redisBroker, allowedOrigins)

	router := server.NewRouter(server.Deps{
		CORSOrigins: allowedOrigins,
		Messages:    handler.NewMessageHandler(messageService),
		General:     handler.NewGeneralHandler(),
		WebSocket:   ws,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &feedFixture{
		server:  srv,
		ws:      ws,
		broker:  redisBroker,
		wsURL:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws",
		httpURL: srv.URL,
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) broker.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var event broker.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestWebSocket_StreamsChangeEvents(t *testing.T) {
	feed := setupFeed(t, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(feed.wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool { return feed.ws.ConnectedClients() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(feed.httpURL+"/api/messages", "application/json", strings.NewReader(`{"content":"live"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := readEvent(t, conn)
	assert.Equal(t, broker.EventCreated, created.Type)
	require.NotNil(t, created.Message)
	assert.Equal(t, "live", created.Message.Content)

	req, _ := http.NewRequest(http.MethodDelete, feed.httpURL+"/api/messages/"+itoa(created.MessageID), nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	deleted := readEvent(t, conn)
	assert.Equal(t, broker.EventDeleted, deleted.Type)
	assert.Equal(t, created.MessageID, deleted.MessageID)
	assert.Nil(t, deleted.Message)
}

func TestWebSocket_ClientDisconnect(t *testing.T) {
	feed := setupFeed(t, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(feed.wsURL, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return feed.ws.ConnectedClients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
	))
	conn.Close()

	assert.Eventually(t, func() bool { return feed.ws.ConnectedClients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_RejectsUnknownOrigin(t *testing.T) {
	feed := setupFeed(t, []string{"http://app.example.com"})

	header := http.Header{"Origin": {"http://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(feed.wsURL, header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

type failingSubscriber struct{}

func (failingSubscriber) Subscribe(context.Context) (broker.Subscription, error) {
	return nil, errors.New("redis: connection refused")
}

func TestWebSocket_FeedUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/api/ws", handler.NewWebSocketHandler(failingSubscriber{}, nil).HandleWebSocket)

	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "change feed unavailable")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
