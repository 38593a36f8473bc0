package uds

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/modoterra/devconsole/pkg/core"
)

// ErrClosed is returned by requests on a closed connection.
var ErrClosed = errors.New("connection closed")

// EventHandler is called from the read loop for each server-pushed event.
type EventHandler func(msg Message)

// Client is a connection to a console host.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
	writeMu sync.Mutex
	pending map[string]chan Message
	events  EventHandler
	done    chan struct{}
	once    sync.Once
}

// Dial connects to the console socket.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	c := &Client{
		conn:    conn,
		scanner: bufio.NewScanner(conn),
		pending: make(map[string]chan Message),
		done:    make(chan struct{}),
	}
	c.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	go c.readLoop()
	return c, nil
}

// OnEvent registers a handler for server-pushed events.
func (c *Client) OnEvent(h EventHandler) {
	c.mu.Lock()
	c.events = h
	c.mu.Unlock()
}

// OnLogEntry registers a handler for pushed log entries.
func (c *Client) OnLogEntry(h func(core.LogEntry)) {
	c.OnEvent(func(m Message) {
		if m.Method != EventLogEntry {
			return
		}
		var e core.LogEntry
		if err := m.UnmarshalData(&e); err == nil {
			h(e)
		}
	})
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Request sends a request and waits for the correlated response.
func (c *Client) Request(ctx context.Context, method string, data any) (Message, error) {
	msg, err := NewRequest(method, data)
	if err != nil {
		return Message{}, err
	}

	ch := make(chan Message, 1)
	c.mu.Lock()
	c.pending[msg.ID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
	}()

	raw, err := json.Marshal(msg)
	if err != nil {
		return Message{}, err
	}
	c.writeMu.Lock()
	_, err = c.conn.Write(append(raw, '\n'))
	c.writeMu.Unlock()
	if err != nil {
		return Message{}, fmt.Errorf("write: %w", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return resp, fmt.Errorf("server error: %s", resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-c.done:
		return Message{}, ErrClosed
	}
}

// Ping checks the host is alive and returns its session.
func (c *Client) Ping(ctx context.Context) (PingResponse, error) {
	var pong PingResponse
	resp, err := c.Request(ctx, MethodPing, nil)
	if err != nil {
		return pong, err
	}
	err = resp.UnmarshalData(&pong)
	return pong, err
}

// Execute submits one line of console input.
func (c *Client) Execute(ctx context.Context, text string) (ExecuteResponse, error) {
	var out ExecuteResponse
	resp, err := c.Request(ctx, MethodExecute, ExecuteRequest{Text: text})
	if err != nil {
		return out, err
	}
	err = resp.UnmarshalData(&out)
	return out, err
}

// ListLogs fetches entries after afterID.
func (c *Client) ListLogs(ctx context.Context, afterID int) ([]core.LogEntry, error) {
	resp, err := c.Request(ctx, MethodListLogs, ListLogsRequest{AfterID: afterID})
	if err != nil {
		return nil, err
	}
	var out ListLogsResponse
	if err := resp.UnmarshalData(&out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.once.Do(func() { close(c.done) })
	return err
}

func (c *Client) readLoop() {
	defer c.once.Do(func() { close(c.done) })

	for c.scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(c.scanner.Bytes(), &msg); err != nil {
			continue
		}

		switch msg.Type {
		case MsgTypeRes:
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			c.mu.Unlock()
			if ok {
				ch <- msg
			}
		case MsgTypeEvt:
			c.mu.Lock()
			h := c.events
			c.mu.Unlock()
			if h != nil {
				h(msg)
			}
		}
	}
}
