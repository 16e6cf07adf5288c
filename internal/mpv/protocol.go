// Package mpv provides the client and protocol types for controlling an
// mpv process over its JSON IPC Unix socket using NDJSON.
package mpv

import "encoding/json"

// request is sent to mpv. Command is the positional command array, e.g.
// ["loadfile", url, "replace"].
type request struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

// Response is returned by mpv after processing a command. Error is
// "success" when the command succeeded.
type Response struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
}

// Event is streamed from mpv to all connected clients.
type Event struct {
	Event  string          `json:"event"`
	Reason string          `json:"reason,omitempty"`
	Name   string          `json:"name,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	ID     int             `json:"id,omitempty"`
}

// Track end reasons reported by the end-file event.
const (
	EndReasonEOF   = "eof"
	EndReasonStop  = "stop"
	EndReasonError = "error"
)

// OK reports whether the response indicates success.
func (r Response) OK() bool { return r.Error == "success" }
