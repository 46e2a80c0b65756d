package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// wsWriteWait is the time allowed to write a message to the peer.
	wsWriteWait = 10 * time.Second

	// wsPongWait is the time allowed to read the next pong message. Binance
	// pings every 3 minutes; the client also pings on its own.
	wsPongWait = 60 * time.Second

	// wsPingPeriod sends pings at this interval. Must be less than pongWait.
	wsPingPeriod = (wsPongWait * 9) / 10

	// wsReconnectDelay is the base delay before attempting to reconnect.
	wsReconnectDelay = 2 * time.Second

	// wsMaxReconnectDelay caps the exponential backoff.
	wsMaxReconnectDelay = 60 * time.Second
)

// TickerHandler is called when a book-ticker update is received.
type TickerHandler func(BookTicker)

// WSClient is a WebSocket client for real-time Binance book-ticker data.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	// Tracked subscriptions for reconnection.
	subscribedSymbols []string
	reqID             int64

	// Handlers
	tickerHandlers []TickerHandler
	handlerMu      sync.RWMutex

	// done is closed when the client shuts down.
	done chan struct{}
}

// NewWSClient creates a new Binance WebSocket client.
//
// wsURL is the stream endpoint, e.g. "wss://stream.binance.com:9443/ws".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// Connect establishes a WebSocket connection to the Binance stream API.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("binance/ws: client is closed")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("binance/ws: connect: %w", err)
	}

	w.conn = conn

	// Configure read deadline and pong handler.
	w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	// Start background loops.
	go w.readLoop()
	go w.pingLoop()

	// Re-subscribe to any previously tracked symbols.
	if len(w.subscribedSymbols) > 0 {
		if err := w.sendSubscribe(w.subscribedSymbols); err != nil {
			return fmt.Errorf("binance/ws: restore subscriptions: %w", err)
		}
	}

	return nil
}

// Subscribe subscribes to book-ticker updates for the given symbols.
func (w *WSClient) Subscribe(ctx context.Context, symbols []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("binance/ws: not connected")
	}

	if err := w.sendSubscribe(symbols); err != nil {
		return fmt.Errorf("binance/ws: subscribe: %w", err)
	}

	// Track subscriptions for reconnection.
	existing := make(map[string]struct{}, len(w.subscribedSymbols))
	for _, s := range w.subscribedSymbols {
		existing[s] = struct{}{}
	}
	for _, s := range symbols {
		if _, ok := existing[s]; !ok {
			w.subscribedSymbols = append(w.subscribedSymbols, s)
		}
	}

	return nil
}

// OnTicker registers a handler that is called for every book-ticker update.
func (w *WSClient) OnTicker(handler func(BookTicker)) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.tickerHandlers = append(w.tickerHandlers, handler)
}

// Close shuts down the WebSocket connection.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}

	return nil
}

// --------------------------------------------------------------------------
// Internal methods
// --------------------------------------------------------------------------

// sendSubscribe sends a SUBSCRIBE request. Caller must hold w.mu.
func (w *WSClient) sendSubscribe(symbols []string) error {
	w.reqID++

	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = strings.ToLower(s) + "@bookTicker"
	}

	req := struct {
		Method string   `json:"method"`
		Params []string `json:"params"`
		ID     int64    `json:"id"`
	}{
		Method: "SUBSCRIBE",
		Params: streams,
		ID:     w.reqID,
	}

	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}

	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop continuously reads messages from the WebSocket and dispatches
// them to handlers. On disconnect it attempts reconnection.
func (w *WSClient) readLoop() {
	defer func() {
		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}

			w.reconnect()
			return
		}

		w.handleMessage(message)
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (w *WSClient) pingLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()

			if conn == nil {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses a raw WebSocket message and routes it. Both the raw
// stream shape and the combined-stream envelope are accepted.
func (w *WSClient) handleMessage(raw []byte) {
	var payload streamBookTicker

	var envelope struct {
		Stream string          `json:"stream"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Stream != "" {
		raw = envelope.Data
	}

	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	if payload.Symbol == "" {
		// Subscription acknowledgements have no symbol.
		return
	}

	ticker, err := payload.toBookTicker()
	if err != nil {
		return
	}

	w.handlerMu.RLock()
	handlers := w.tickerHandlers
	w.handlerMu.RUnlock()

	for _, h := range handlers {
		h(ticker)
	}
}

// reconnect attempts to re-establish the WebSocket connection with
// exponential backoff.
func (w *WSClient) reconnect() {
	delay := wsReconnectDelay

	for {
		select {
		case <-w.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > wsMaxReconnectDelay {
			delay = wsMaxReconnectDelay
		}
	}
}
