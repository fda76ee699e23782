package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/eventkit/core/broadcast"
	"github.com/dmitrymomot/eventkit/core/event"
)

// Hub is an http.Handler that streams events from an observable source to
// websocket clients. Each connection gets its own bounded observer stream,
// optionally narrowed to specific event names through a query parameter, and
// receives events as JSON frames in publish order.
//
// Slow clients are disconnected rather than allowed to stall the source:
// a full stream buffer combined with the write deadline bounds how long a
// broadcast can wait on any single connection.
type Hub struct {
	source         broadcast.Observable[event.Event]
	upgrader       *websocket.Upgrader
	responseHeader http.Header
	streamBuffer   int
	writeTimeout   time.Duration
	writeRate      int
	filterParam    string
	logger         *slog.Logger
}

// HubOption configures a Hub during construction.
type HubOption func(*Hub)

// WithReadBuffer sets the connection read buffer size in bytes.
func WithReadBuffer(size int) HubOption {
	return func(h *Hub) {
		h.upgrader.ReadBufferSize = size
	}
}

// WithWriteBuffer sets the connection write buffer size in bytes.
func WithWriteBuffer(size int) HubOption {
	return func(h *Hub) {
		h.upgrader.WriteBufferSize = size
	}
}

// WithHandshakeTimeout limits how long the websocket handshake may take.
func WithHandshakeTimeout(timeout time.Duration) HubOption {
	return func(h *Hub) {
		h.upgrader.HandshakeTimeout = timeout
	}
}

// WithOriginCheck sets a custom origin validation function.
func WithOriginCheck(fn func(r *http.Request) bool) HubOption {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithAllowAnyOrigin disables origin checking. Intended for development and
// for deployments where origin enforcement happens upstream.
func WithAllowAnyOrigin() HubOption {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

// WithSubprotocols sets the supported websocket subprotocols.
func WithSubprotocols(protocols ...string) HubOption {
	return func(h *Hub) {
		h.upgrader.Subprotocols = protocols
	}
}

// WithUpgradeHeaders sets additional headers for the upgrade response.
func WithUpgradeHeaders(header http.Header) HubOption {
	return func(h *Hub) {
		h.responseHeader = header
	}
}

// WithStreamBuffer sets the per-connection observer buffer size.
// Defaults to 32.
func WithStreamBuffer(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.streamBuffer = size
		}
	}
}

// WithWriteTimeout sets the per-frame write deadline. A connection that
// cannot accept a frame within this window is dropped. Defaults to 10s.
func WithWriteTimeout(timeout time.Duration) HubOption {
	return func(h *Hub) {
		if timeout > 0 {
			h.writeTimeout = timeout
		}
	}
}

// WithWriteRate caps outbound frames per second on each connection.
// Zero, the default, disables rate limiting.
func WithWriteRate(perSecond int) HubOption {
	return func(h *Hub) {
		if perSecond > 0 {
			h.writeRate = perSecond
		}
	}
}

// WithFilterParam renames the query parameter carrying the comma-separated
// event names a client wants to receive. Defaults to "events".
func WithFilterParam(name string) HubOption {
	return func(h *Hub) {
		if name != "" {
			h.filterParam = name
		}
	}
}

// WithLogger configures structured logging for hub operations.
// By default logs are discarded.
func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub creates a Hub streaming events from source. The source is typically
// an event.Bus or one of the broker-backed buses.
func NewHub(source broadcast.Observable[event.Event], opts ...HubOption) *Hub {
	h := &Hub{
		source: source,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		streamBuffer: 32,
		writeTimeout: 10 * time.Second,
		filterParam:  "events",
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects, the request context ends, or the source closes. The observer
// stream is released as soon as the connection goes away, so departed clients
// never hold a broadcast slot.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, h.responseHeader)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		h.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = conn.Close() }()

	opts := []broadcast.ObserveOption[event.Event]{
		broadcast.WithBuffer[event.Event](h.streamBuffer),
	}
	if filter := h.eventFilter(r); filter != nil {
		opts = append(opts, broadcast.WithFilter(filter))
	}

	stream, err := h.source.Observe(opts...)
	if err != nil {
		h.closeConn(conn, websocket.CloseGoingAway, "event source closed")
		return
	}
	defer func() { _ = stream.Close() }()

	remote := conn.RemoteAddr().String()
	h.logger.Debug("websocket observer connected", slog.String("remote", remote))

	var limiter *rate.Limiter
	if h.writeRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.writeRate), h.writeRate)
	}

	g, ctx := errgroup.WithContext(r.Context())

	// Closing the connection on cancellation unblocks the read loop, which
	// has no context-aware wait of its own.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	g.Go(func() error { return h.readLoop(conn) })
	g.Go(func() error { return h.writeLoop(ctx, conn, stream, limiter) })

	err = g.Wait()
	if isExpectedClose(err) {
		h.logger.Debug("websocket observer disconnected", slog.String("remote", remote))
		return
	}
	h.logger.Warn("websocket observer failed",
		slog.String("remote", remote),
		slog.String("error", err.Error()))
}

// readLoop discards inbound frames; reading detects client departure and lets
// the websocket library answer control frames. It always returns a non-nil
// error so the errgroup cancels the write loop.
func (h *Hub) readLoop(conn *websocket.Conn) error {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func (h *Hub) writeLoop(ctx context.Context, conn *websocket.Conn, stream *broadcast.Stream[event.Event], limiter *rate.Limiter) error {
	for {
		evt, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, broadcast.ErrStreamClosed) {
				h.closeConn(conn, websocket.CloseGoingAway, "event source closed")
			}
			return err
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}

		if h.writeTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if err := conn.WriteJSON(evt); err != nil {
			return err
		}
	}
}

// eventFilter builds a name filter from the request query, or nil when the
// client did not narrow its subscription.
func (h *Hub) eventFilter(r *http.Request) func(event.Event) bool {
	raw := r.URL.Query().Get(h.filterParam)
	if raw == "" {
		return nil
	}

	names := make(map[string]struct{})
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names[name] = struct{}{}
		}
	}
	if len(names) == 0 {
		return nil
	}

	return func(evt event.Event) bool {
		_, ok := names[evt.Name]
		return ok
	}
}

func (h *Hub) closeConn(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(h.writeTimeout)
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
}

// isExpectedClose reports whether err is part of a normal connection
// teardown rather than a fault worth surfacing.
func isExpectedClose(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, broadcast.ErrStreamClosed) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}
