// ABOUTME: WebSocket client for the remote control protocol
// ABOUTME: Handles connection, the hello exchange, and status routing
package remote

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loopdeck/loopdeck-go/internal/engine"
)

// helloTimeout bounds the wait for the server's greeting.
const helloTimeout = 5 * time.Second

// Client is a remote control connection to a running deck.
type Client struct {
	conn  *websocket.Conn
	hello Hello

	// Status receives every snapshot the server pushes.
	Status chan engine.Snapshot

	// Errors receives rejected-command reports.
	Errors chan ErrorPayload

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to a deck at host:port and performs the hello exchange.
func Dial(addr string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/loopdeck"}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := &Client{
		conn:   conn,
		Status: make(chan engine.Snapshot, 16),
		Errors: make(chan ErrorPayload, 4),
		done:   make(chan struct{}),
	}

	if err := c.awaitHello(); err != nil {
		conn.Close()
		return nil, err
	}

	go c.readMessages()
	return c, nil
}

// Hello returns the server's greeting.
func (c *Client) Hello() Hello {
	return c.hello
}

func (c *Client) awaitHello() error {
	c.conn.SetReadDeadline(time.Now().Add(helloTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read hello: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse hello: %w", err)
	}
	if msg.Type != TypeHello {
		return fmt.Errorf("expected hello, got %s", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, &c.hello); err != nil {
		return fmt.Errorf("failed to parse hello payload: %w", err)
	}
	return nil
}

// Send issues one command to the deck.
func (c *Client) Send(cmd Command) error {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Message{Type: TypeCommand, Payload: raw})
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// readMessages routes pushed messages until the connection drops.
func (c *Client) readMessages() {
	defer close(c.done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeStatus:
			var snap engine.Snapshot
			if err := json.Unmarshal(msg.Payload, &snap); err == nil {
				select {
				case c.Status <- snap:
				default:
				}
			}
		case TypeError:
			var e ErrorPayload
			if err := json.Unmarshal(msg.Payload, &e); err == nil {
				select {
				case c.Errors <- e:
				default:
				}
			}
		}
	}
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts the connection down.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
