// Package streamclient maintains a single WebSocket subscription to the
// market-data feed and delivers a lazy, restartable sequence of normalized
// frames to the coordinator. Per the concurrency model, exactly two
// cooperative activities share one connection: the receive loop (decode,
// parse, hand off) and the keepalive sender; neither touches book state.
package streamclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mselser95/polymarket-arb/internal/feedparser"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"go.uber.org/zap"
)

// Auth carries the optional private-channel credentials. It is included in
// the subscribe frame only when at least one field is non-empty.
type Auth struct {
	APIKey     string
	Secret     string
	Passphrase string
}

func (a *Auth) empty() bool {
	return a == nil || (a.APIKey == "" && a.Secret == "" && a.Passphrase == "")
}

// Config holds the connection parameters for one Stream Client instance.
type Config struct {
	URL          string
	DialTimeout  time.Duration
	PingInterval time.Duration
	RecvTimeout  time.Duration // default max(10s, 6*PingInterval) if zero
	Logger       *zap.Logger
}

func (c Config) recvTimeout() time.Duration {
	if c.RecvTimeout > 0 {
		return c.RecvTimeout
	}
	floor := 10 * time.Second
	scaled := 6 * c.PingInterval
	if scaled > floor {
		return scaled
	}
	return floor
}

// Frame is one delivered unit: a point in time and the normalized events the
// feed parser produced from the wire message received at that time.
type Frame struct {
	AsOf   time.Time
	Events []types.BookEvent
}

// Client is a single-use Stream Client: one call to Stream establishes one
// connection and one subscription session. The Coordinator is responsible
// for calling Stream again, after the configured reconnect delay, when the
// returned channel closes — there is no attempt to resume a session.
type Client struct {
	cfg Config
}

// New creates a Client from Config.
func New(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Stream connects, subscribes to assetIDs, and returns a channel of Frames.
// The channel is closed when the session ends, for any reason (transport
// error, receive timeout, or ctx cancellation); the terminal cause, if any,
// is returned via the second return channel, which receives at most one
// value before also closing.
func (c *Client) Stream(ctx context.Context, assetIDs []string, auth *Auth) (<-chan Frame, <-chan error, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}

	sub := map[string]any{
		"assets_ids": assetIDs,
		"type":       "market",
	}
	if !auth.empty() {
		sub["auth"] = map[string]string{
			"apiKey":     auth.APIKey,
			"secret":     auth.Secret,
			"passphrase": auth.Passphrase,
		}
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("write subscribe message: %w", err)
	}

	frames := make(chan Frame, 256)
	errc := make(chan error, 1)

	sessionCtx, cancel := context.WithCancel(ctx)

	go c.pingLoop(sessionCtx, conn)
	go c.receiveLoop(sessionCtx, cancel, conn, frames, errc)

	return frames, errc, nil
}

// pingLoop sends an application-level "PING" text frame on the configured
// interval until the session ends. It never touches book state.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
				if c.cfg.Logger != nil {
					c.cfg.Logger.Warn("stream-ping-write-failed", zap.Error(err))
				}
				return
			}
		}
	}
}

// receiveLoop is the single logical event pipeline: receive, decode, parse,
// and deliver. It owns the only mutation of frames/errc and terminates the
// session (closing the connection and both channels) on any transport or
// supervision failure.
func (c *Client) receiveLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, frames chan<- Frame, errc chan<- error) {
	defer cancel()
	defer conn.Close()
	defer close(frames)
	defer close(errc)

	recvTimeout := c.cfg.recvTimeout()

	for {
		if ctx.Err() != nil {
			return
		}

		if err := conn.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
			errc <- fmt.Errorf("set read deadline: %w", err)
			return
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			errc <- fmt.Errorf("read message: %w", err)
			return
		}

		asOf := time.Now()
		FramesReceivedTotal.Inc()

		text := normalizeFrame(msgType, data)
		if text == "" {
			FramesDroppedTotal.WithLabelValues("non_string_frame").Inc()
			continue
		}
		if text == "PING" || text == "PONG" {
			continue
		}

		if !json.Valid([]byte(text)) {
			FramesDroppedTotal.WithLabelValues("non_json").Inc()
			if c.cfg.Logger != nil {
				c.cfg.Logger.Debug("stream-non-json-frame-discarded", zap.Int("bytes", len(text)))
			}
			continue
		}

		events, err := feedparser.Parse([]byte(text))
		if err != nil {
			FramesDroppedTotal.WithLabelValues("parse_error").Inc()
			if c.cfg.Logger != nil {
				c.cfg.Logger.Debug("stream-frame-parse-failed", zap.Error(err))
			}
			continue
		}
		if len(events) == 0 {
			continue
		}

		select {
		case frames <- Frame{AsOf: asOf, Events: events}:
		case <-ctx.Done():
			return
		}
	}
}

// normalizeFrame decodes a binary frame as UTF-8 with replacement and
// discards non-string frame types.
func normalizeFrame(msgType int, data []byte) string {
	switch msgType {
	case websocket.TextMessage, websocket.BinaryMessage:
		return strings.ToValidUTF8(string(data), "�")
	default:
		return ""
	}
}
