// Package transport carries agent commands over WebSocket text messages.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"nhooyr.io/websocket"
)

// WSReader reads command or response messages from a WebSocket connection.
type WSReader struct {
	conn *websocket.Conn
	ctx  context.Context
}

// NewWSReader creates a new WSReader wrapping the given WebSocket connection.
func NewWSReader(ctx context.Context, conn *websocket.Conn) *WSReader {
	return &WSReader{conn: conn, ctx: ctx}
}

// ReadMessage reads one text message. A normal close is reported as io.EOF.
func (r *WSReader) ReadMessage() ([]byte, error) {
	msgType, data, err := r.conn.Read(r.ctx)
	if err != nil {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) {
			return nil, io.EOF
		}
		return nil, err
	}
	if msgType != websocket.MessageText {
		return nil, fmt.Errorf("unexpected websocket message type: %d", msgType)
	}
	return data, nil
}

// WSWriter writes messages to a WebSocket connection.
// It is safe for concurrent use.
type WSWriter struct {
	conn *websocket.Conn
	ctx  context.Context
	mu   sync.Mutex
}

// NewWSWriter creates a new WSWriter wrapping the given WebSocket connection.
func NewWSWriter(ctx context.Context, conn *websocket.Conn) *WSWriter {
	return &WSWriter{conn: conn, ctx: ctx}
}

// WriteMessage writes data as one text message.
func (w *WSWriter) WriteMessage(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Write(w.ctx, websocket.MessageText, data)
}

// WriteJSON marshals v and writes it as one text message.
func (w *WSWriter) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteMessage(data)
}

// Close sends a normal closure message and closes the WebSocket.
func (w *WSWriter) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}
