package streamclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_RecvTimeoutDefault(t *testing.T) {
	cfg := Config{PingInterval: 5 * time.Second}
	assert.Equal(t, 30*time.Second, cfg.recvTimeout())

	cfg = Config{PingInterval: time.Second}
	assert.Equal(t, 10*time.Second, cfg.recvTimeout())

	cfg = Config{PingInterval: 5 * time.Second, RecvTimeout: 2 * time.Second}
	assert.Equal(t, 2*time.Second, cfg.recvTimeout())
}

func TestAuth_Empty(t *testing.T) {
	var a *Auth
	assert.True(t, a.empty())

	a = &Auth{}
	assert.True(t, a.empty())

	a = &Auth{APIKey: "k"}
	assert.False(t, a.empty())
}

// newTestServer runs a single-connection WS echo-ish server that records the
// subscribe message and lets the test push frames.
func newTestServer(t *testing.T, onConnect func(conn *websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		onConnect(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestStream_DeliversParsedFrame(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()

		var sub map[string]any
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "market", sub["type"])

		require.NoError(t, conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"asset_id":"a1","best_bid":"0.40","best_ask":"0.45"}`)))

		time.Sleep(50 * time.Millisecond)
	})

	c := New(Config{
		URL:          wsURL(srv.URL),
		DialTimeout:  2 * time.Second,
		PingInterval: time.Hour,
		RecvTimeout:  2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	frames, errc, err := c.Stream(ctx, []string{"a1"}, nil)
	require.NoError(t, err)

	select {
	case f := <-frames:
		require.Len(t, f.Events, 1)
		assert.Equal(t, "a1", f.Events[0].AssetID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}

	// Session ends when the server closes; channel closes, errc delivers
	// the terminal cause (or nothing on clean ctx cancellation).
	for range frames {
	}
	for range errc {
	}
}

func TestStream_DiscardsPingPongFrames(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()

		var sub map[string]any
		require.NoError(t, conn.ReadJSON(&sub))

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("PING")))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"asset_id":"a1","best_bid":"0.40"}`)))

		time.Sleep(50 * time.Millisecond)
	})

	c := New(Config{
		URL:          wsURL(srv.URL),
		DialTimeout:  2 * time.Second,
		PingInterval: time.Hour,
		RecvTimeout:  2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	frames, _, err := c.Stream(ctx, []string{"a1"}, nil)
	require.NoError(t, err)

	select {
	case f := <-frames:
		require.Len(t, f.Events, 1)
		assert.Equal(t, "a1", f.Events[0].AssetID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestStream_SubscribeIncludesAuthOnlyWhenNonEmpty(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := newTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		var sub map[string]any
		require.NoError(t, conn.ReadJSON(&sub))
		received <- sub
		time.Sleep(50 * time.Millisecond)
	})

	c := New(Config{
		URL:          wsURL(srv.URL),
		DialTimeout:  2 * time.Second,
		PingInterval: time.Hour,
		RecvTimeout:  2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _, err := c.Stream(ctx, []string{"a1"}, nil)
	require.NoError(t, err)

	sub := <-received
	_, hasAuth := sub["auth"]
	assert.False(t, hasAuth)
}
