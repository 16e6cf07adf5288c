package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
)

// Client controls an mpv process over its JSON IPC Unix socket.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
	nextID  int
}

// Connect dials the mpv IPC socket.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to mpv: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendCommand sends one command and reads its response. Event lines
// arriving on this connection before the response are skipped; use a
// second connection with ReadEvent for the event stream.
func (c *Client) SendCommand(args ...any) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	data, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	for c.scanner.Scan() {
		line := c.scanner.Bytes()

		// mpv interleaves events with responses on the same socket.
		var probe struct {
			Event     string `json:"event"`
			RequestID int    `json:"request_id"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			return Response{}, fmt.Errorf("unmarshal response: %w", err)
		}
		if probe.Event != "" || probe.RequestID != id {
			continue
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			return Response{}, fmt.Errorf("unmarshal response: %w", err)
		}
		return resp, nil
	}

	if err := c.scanner.Err(); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return Response{}, fmt.Errorf("connection closed")
}

// ReadEvent reads the next NDJSON event line, skipping command
// responses. Blocks until data arrives.
func (c *Client) ReadEvent() (Event, error) {
	for c.scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(c.scanner.Bytes(), &ev); err != nil {
			return Event{}, fmt.Errorf("unmarshal event: %w", err)
		}
		if ev.Event == "" {
			continue
		}
		return ev, nil
	}

	if err := c.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("read event: %w", err)
	}
	return Event{}, fmt.Errorf("connection closed")
}

// command runs a command and folds a non-success response into an error.
func (c *Client) command(args ...any) error {
	resp, err := c.SendCommand(args...)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("mpv: %s", resp.Error)
	}
	return nil
}

// Load replaces the current track with the resource at src without
// starting playback. The caller decides whether to play.
func (c *Client) Load(src string) error {
	if err := c.command("set_property", "pause", true); err != nil {
		return fmt.Errorf("pause before load: %w", err)
	}
	if err := c.command("loadfile", src, "replace"); err != nil {
		return fmt.Errorf("load %s: %w", src, err)
	}
	return nil
}

// SetPause sets the pause property. SetPause(false) is a play request;
// mpv may refuse it (no track loaded, device unavailable).
func (c *Client) SetPause(paused bool) error {
	return c.command("set_property", "pause", paused)
}

// SetRate sets the playback speed multiplier on the live track.
func (c *Client) SetRate(rate float64) error {
	return c.command("set_property", "speed", rate)
}

// SeekStart rewinds the current track to its beginning.
func (c *Client) SeekStart() error {
	return c.command("seek", 0, "absolute")
}

// Stop stops playback and clears the current track.
func (c *Client) Stop() error {
	return c.command("stop")
}

// Observe subscribes to property-change events for name. Events arrive
// on this connection tagged with id.
func (c *Client) Observe(id int, name string) error {
	return c.command("observe_property", id, name)
}
