package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
)

// startMockMPV creates a Unix socket that accepts one connection, reads
// commands, and answers each with a success response echoing the
// request id. Received command arrays are sent to the commands channel.
func startMockMPV(t *testing.T) (string, chan []any, func()) {
	t.Helper()

	dir := t.TempDir()
	sockPath := filepath.Join(dir, "mpv.sock")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	commands := make(chan []any, 16)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var req struct {
				Command   []any `json:"command"`
				RequestID int   `json:"request_id"`
			}
			if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
				return
			}
			commands <- req.Command

			resp := fmt.Sprintf(`{"error":"success","request_id":%d}`+"\n", req.RequestID)
			conn.Write([]byte(resp))
		}
	}()

	return sockPath, commands, func() {
		ln.Close()
		os.Remove(sockPath)
	}
}

func TestClientLoad(t *testing.T) {
	sockPath, commands, cleanup := startMockMPV(t)
	defer cleanup()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Load("http://h/audio/doc-1/1?voice=v&translate=false"); err != nil {
		t.Fatalf("load: %v", err)
	}

	// Load pauses first, then replaces the track.
	first := <-commands
	if first[0] != "set_property" || first[1] != "pause" || first[2] != true {
		t.Errorf("first command = %v", first)
	}
	second := <-commands
	if second[0] != "loadfile" || second[2] != "replace" {
		t.Errorf("second command = %v", second)
	}
}

func TestClientSetRate(t *testing.T) {
	sockPath, commands, cleanup := startMockMPV(t)
	defer cleanup()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.SetRate(1.5); err != nil {
		t.Fatalf("set rate: %v", err)
	}

	cmd := <-commands
	if cmd[0] != "set_property" || cmd[1] != "speed" || cmd[2] != 1.5 {
		t.Errorf("command = %v", cmd)
	}
}

func TestClientCommandFailure(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "mpv.sock")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var req struct {
				RequestID int `json:"request_id"`
			}
			json.Unmarshal(scanner.Bytes(), &req)
			resp := fmt.Sprintf(`{"error":"property not found","request_id":%d}`+"\n", req.RequestID)
			conn.Write([]byte(resp))
		}
	}()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.SetPause(false); err == nil {
		t.Error("expected error from failed command")
	}
}

func TestClientSkipsEventsBeforeResponse(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "mpv.sock")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var req struct {
				RequestID int `json:"request_id"`
			}
			json.Unmarshal(scanner.Bytes(), &req)
			// An event arrives before the response line.
			conn.Write([]byte(`{"event":"end-file","reason":"eof"}` + "\n"))
			resp := fmt.Sprintf(`{"error":"success","request_id":%d}`+"\n", req.RequestID)
			conn.Write([]byte(resp))
		}
	}()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestClientReadEvents(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "mpv.sock")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		conn.Write([]byte(`{"event":"property-change","id":1,"name":"pause","data":false}` + "\n"))
		conn.Write([]byte(`{"event":"end-file","reason":"eof"}` + "\n"))
	}()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	ev1, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 1: %v", err)
	}
	if ev1.Event != "property-change" || ev1.Name != "pause" {
		t.Errorf("event1 = %+v", ev1)
	}

	ev2, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 2: %v", err)
	}
	if ev2.Event != "end-file" || ev2.Reason != EndReasonEOF {
		t.Errorf("event2 = %+v", ev2)
	}
}

func TestClientConnectFailure(t *testing.T) {
	if _, err := Connect("/nonexistent/path/mpv.sock"); err == nil {
		t.Error("expected error connecting to nonexistent socket")
	}
}
