package wire

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
)

// Client is a connection to a query server. Requests are serialised; one
// response is read per request.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
}

// Dial connects to the server at addr
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, reader: bufio.NewReader(conn)}
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(msgType MsgType, payload interface{}) (MsgType, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := WriteFrame(c.conn, msgType, payload); err != nil {
		return 0, nil, err
	}
	respType, data, err := ReadFrame(c.reader)
	if err != nil {
		return 0, nil, err
	}
	if respType == MsgError {
		var e ErrorMessage
		if err := Decode(data, &e); err != nil {
			return 0, nil, err
		}
		return respType, nil, &e
	}
	return respType, data, nil
}

func (c *Client) call(msgType, want MsgType, req, resp interface{}) error {
	got, data, err := c.roundTrip(msgType, req)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: expected %s response, got %s", ErrInvalidFrame, want, got)
	}
	if resp == nil {
		return nil
	}
	return Decode(data, resp)
}

// Ping checks that the server answers
func (c *Client) Ping() error {
	return c.call(MsgPing, MsgPong, nil, nil)
}

// Info returns the served database summary
func (c *Client) Info() (*InfoMessage, error) {
	var info InfoMessage
	if err := c.call(MsgInfo, MsgInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Query runs sql on the server. A server-side failure is returned as an
// *ErrorMessage.
func (c *Client) Query(sql string) (*ResultMessage, error) {
	var result ResultMessage
	if err := c.call(MsgQuery, MsgResult, NewQueryMessage(sql), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
