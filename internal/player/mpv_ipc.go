package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/log"
)

// MPVIPCClient provides communication with a running MPV instance
type MPVIPCClient struct {
	socketPath string
	conn       net.Conn
	events     chan MPVEvent

	mu      sync.Mutex
	nextID  int
	pending map[int]chan MPVEvent

	// readerDone is closed when the read loop exits, closing when Close is called
	readerDone chan struct{}
	closing    chan struct{}
	closeOnce  sync.Once
}

// MPVEvent is a line received from mpv: either an asynchronous event or the reply to a command
type MPVEvent struct {
	Event     string          `json:"event,omitempty"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewMPVIPCClient creates a new MPV IPC client
func NewMPVIPCClient(socketPath string) *MPVIPCClient {
	return &MPVIPCClient{
		socketPath: socketPath,
		events:     make(chan MPVEvent, 100),
		pending:    make(map[int]chan MPVEvent),
		readerDone: make(chan struct{}),
		closing:    make(chan struct{}),
	}
}

// Connect establishes a connection with MPV and starts reading from it
func (c *MPVIPCClient) Connect(ctx context.Context) error {
	log.Debug("Connecting to MPV", "path", c.socketPath)
	conn, err := dialMPV(ctx, c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to MPV: %w", err)
	}
	c.attach(conn)
	return nil
}

func (c *MPVIPCClient) attach(conn net.Conn) {
	c.conn = conn
	go c.readEvents()
}

// WaitForConnection attempts to connect to MPV with retries
func (c *MPVIPCClient) WaitForConnection(ctx context.Context, maxAttempts int, retryDelay time.Duration) error {
	log.Debug("Waiting for MPV to create socket", "socket_path", c.socketPath, "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Unix sockets show up on disk before they accept connections
		if runtime.GOOS != "windows" {
			if _, err := os.Stat(c.socketPath); os.IsNotExist(err) {
				log.Trace("MPV socket does not exist yet", "attempt", attempt, "path", c.socketPath)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
					continue
				}
			}
		}

		err := c.Connect(ctx)
		if err == nil {
			log.Debug("Connected to MPV", "attempt", attempt)
			return nil
		}

		log.Debug("Failed to connect to MPV", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return fmt.Errorf("failed to connect to MPV after %d attempts", maxAttempts)
}

// Close closes the connection to MPV.  Events is closed once the read loop has drained.
func (c *MPVIPCClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		if c.conn != nil {
			err = c.conn.Close()
		} else {
			close(c.events)
			close(c.readerDone)
		}
	})
	return err
}

// readEvents continuously reads lines from MPV, routing command replies to their waiting caller and everything else
// to the events channel
func (c *MPVIPCClient) readEvents() {
	defer close(c.readerDone)
	defer close(c.events)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		log.Trace("Raw MPV event", "data", string(line))

		var event MPVEvent
		if err := json.Unmarshal(line, &event); err != nil {
			log.Warn("Failed to unmarshal MPV event", "error", err)
			continue
		}

		if event.Event == "" {
			c.deliverReply(event)
			continue
		}

		select {
		case c.events <- event:
		case <-c.closing:
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Warn("Error reading from MPV socket", "error", err)
	}
	log.Debug("MPV event reader stopped")
}

func (c *MPVIPCClient) deliverReply(reply MPVEvent) {
	c.mu.Lock()
	ch, ok := c.pending[reply.RequestID]
	delete(c.pending, reply.RequestID)
	c.mu.Unlock()
	if ok {
		ch <- reply
	}
}

// Events returns the channel for MPV events
func (c *MPVIPCClient) Events() <-chan MPVEvent {
	return c.events
}

// Command sends a command to MPV and waits for its reply, returning the reply's data
func (c *MPVIPCClient) Command(ctx context.Context, args ...any) (json.RawMessage, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("not connected to MPV")
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	reply := make(chan MPVEvent, 1)
	c.pending[id] = reply

	data, err := json.Marshal(map[string]any{
		"command":    args,
		"request_id": id,
	})
	if err == nil {
		_, err = c.conn.Write(append(data, '\n'))
	}
	if err != nil {
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to send command %v: %w", args[0], err)
	}
	c.mu.Unlock()

	select {
	case r := <-reply:
		if r.Error != "success" {
			return nil, fmt.Errorf("mpv command %v failed: %s", args[0], r.Error)
		}
		return r.Data, nil
	case <-c.readerDone:
		return nil, fmt.Errorf("MPV connection closed while waiting for %v", args[0])
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// ObserveProperty starts observing an MPV property
func (c *MPVIPCClient) ObserveProperty(ctx context.Context, id int, name string) error {
	_, err := c.Command(ctx, "observe_property", id, name)
	return err
}

// SetProperty sets an MPV property
func (c *MPVIPCClient) SetProperty(ctx context.Context, name string, value any) error {
	_, err := c.Command(ctx, "set_property", name, value)
	return err
}
