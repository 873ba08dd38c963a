package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var (
	ErrNotConnected = errors.New("realtime: not connected")
	ErrRateLimited  = errors.New("realtime: presence event rate limited")
	ErrSendBuffer   = errors.New("realtime: send buffer full")
)

const sendBufferSize = 64

type Settings struct {
	URL              string
	ReconnectDelay   time.Duration
	PresenceInterval time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
}

func DefaultSettings(url string) Settings {
	return Settings{
		URL:              url,
		ReconnectDelay:   2 * time.Second,
		PresenceInterval: time.Second,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     25 * time.Second,
	}
}

// Client keeps one websocket connection to the realtime server for the
// signed-in user. The connection is re-dialed after ReconnectDelay whenever
// it drops, and every successful dial re-announces the user with
// registerUser before any other frame is sent.
type Client struct {
	*Hub

	settings Settings
	logger   logging.Logger
	dialer   *websocket.Dialer

	presenceMu sync.Mutex
	presence   map[string]*rate.Limiter

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	send   chan []byte
	online bool
}

func NewClient(settings Settings, logger logging.Logger) *Client {
	return &Client{
		Hub:      NewHub(logger),
		settings: settings,
		logger:   logger,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: settings.HandshakeTimeout,
		},
		presence: make(map[string]*rate.Limiter),
	}
}

// Connect starts the connection loop for token/userID, replacing any
// existing connection. It returns immediately; dialing happens in the
// background.
func (c *Client) Connect(token, userID string) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		c.run(ctx, token, userID)
	}()
}

// Disconnect stops the connection loop without waiting for it to wind
// down, so it is safe to call from an event handler.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel, c.done = nil, nil
	c.online = false
	c.send = nil
}

// Close disconnects and waits for the connection to close. It must not be
// called from a handler.
func (c *Client) Close() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	c.Disconnect()
	if done != nil {
		<-done
	}
}

// Connected reports whether a connection is currently established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Emit queues an outbound event. Delivery is best-effort: nothing is
// buffered across reconnects and no acknowledgement is awaited.
func (c *Client) Emit(ctx context.Context, name string, p Payload) error {
	if isPresence(name) && !c.allowPresence(name, p.NoteID) {
		c.logger.Debug(ctx, "presence event throttled", "event", name, "note", p.NoteID)
		return ErrRateLimited
	}

	msg, err := encodeFrame(name, p)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.online {
		return ErrNotConnected
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBuffer
	}
}

// allowPresence throttles repeats of one presence event for one note.
// Moving to another note, or from start to stop, is never held back.
func (c *Client) allowPresence(name, noteID string) bool {
	if c.settings.PresenceInterval <= 0 {
		return true
	}
	key := name + "\x00" + noteID
	c.presenceMu.Lock()
	defer c.presenceMu.Unlock()
	l, ok := c.presence[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(c.settings.PresenceInterval), 1)
		c.presence[key] = l
	}
	return l.Allow()
}

func (c *Client) run(ctx context.Context, token, userID string) {
	for {
		ws, err := c.dial(ctx, token, userID)
		if err != nil {
			c.logger.Info(ctx, "realtime connect failed", "error", err)
		} else {
			c.serve(ctx, ws)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.settings.ReconnectDelay):
		}
	}
}

func (c *Client) dial(ctx context.Context, token, userID string) (*websocket.Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}
	ws, _, err := c.dialer.DialContext(ctx, c.settings.URL, header)
	if err != nil {
		return nil, err
	}

	success := false
	defer func() {
		if !success {
			ws.Close()
		}
	}()

	hello, err := encodeFrame(EventRegisterUser, Payload{UserID: userID})
	if err != nil {
		return nil, err
	}
	ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
	if err := ws.WriteMessage(websocket.TextMessage, hello); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	success = true
	return ws, nil
}

// serve pumps frames until the connection fails or ctx ends. Reads happen on
// the calling goroutine, so handlers see events in delivery order.
func (c *Client) serve(ctx context.Context, ws *websocket.Conn) {
	defer ws.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	send := make(chan []byte, sendBufferSize)
	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.send = send
	c.online = true
	c.mu.Unlock()
	c.logger.Info(ctx, "realtime connected", "url", c.settings.URL)

	defer func() {
		c.mu.Lock()
		// a newer Connect may already own the state
		if c.send == send {
			c.online = false
			c.send = nil
		}
		c.mu.Unlock()
	}()

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		defer cancel()

		ping := time.NewTicker(c.settings.PingInterval)
		defer ping.Stop()

		for {
			select {
			case <-connCtx.Done():
				// unblocks the reader
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(c.settings.WriteTimeout))
				ws.Close()
				return
			case msg := <-send:
				ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
				if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
					c.logger.Info(ctx, "realtime write failed", "error", err)
					return
				}
			case <-ping.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.settings.WriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			if connCtx.Err() == nil {
				c.logger.Info(ctx, "realtime read failed", "error", err)
			}
			break
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		ev, err := decodeFrame(message)
		if err != nil {
			c.logger.Warn(ctx, "malformed realtime frame", "error", err)
			continue
		}
		c.Dispatch(ctx, ev)
	}

	cancel()
	writer.Wait()
}
