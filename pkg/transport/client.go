package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/devicelab-dev/agent-bridge/pkg/agent"
)

// Client is a minimal agent-side connection, used by the send command and
// in tests. It is not safe for concurrent Send calls.
type Client struct {
	conn   *websocket.Conn
	writer *WSWriter
}

// Dial connects to the agent endpoint at url (ws://host:port/agent).
func Dial(ctx context.Context, url, token string) (*Client, error) {
	opts := &websocket.DialOptions{}
	if token != "" {
		opts.HTTPHeader = http.Header{"Authorization": {"Bearer " + token}}
	}

	conn, _, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	// Hierarchy responses can be large.
	conn.SetReadLimit(-1)

	return &Client{
		conn:   conn,
		writer: NewWSWriter(context.Background(), conn),
	}, nil
}

// Send writes cmd and waits for the response carrying the same id. An empty
// id is replaced with a random one.
func (c *Client) Send(ctx context.Context, cmd agent.Command) (agent.Response, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if err := c.writer.WriteJSON(cmd); err != nil {
		return agent.Response{}, fmt.Errorf("sending command: %w", err)
	}

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return agent.Response{}, fmt.Errorf("reading response: %w", err)
		}
		var resp agent.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return agent.Response{}, fmt.Errorf("decoding response: %w", err)
		}
		if resp.ID == cmd.ID {
			return resp, nil
		}
	}
}

// Close sends a normal closure message and closes the connection.
func (c *Client) Close() error {
	return c.writer.Close()
}
