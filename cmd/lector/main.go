package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/jwulff/lector/internal/api"
	"github.com/jwulff/lector/internal/app"
	"github.com/jwulff/lector/internal/db"
	"github.com/jwulff/lector/internal/mpv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

const mpvConnectTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "lector:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	serverURL := envOr("LECTOR_SERVER", "http://localhost:8000")
	socketPath := envOr("LECTOR_MPV_SOCKET", defaultSocketPath())
	dbPath := os.Getenv("LECTOR_DB")
	if dbPath == "" {
		dbPath = db.DefaultDBPath()
	}

	logger, closeLog, err := openLogger(os.Getenv("LECTOR_LOG"))
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer store.Close()

	player, err := startMPV(socketPath)
	if err != nil {
		return err
	}
	defer player.Process.Kill()

	transport, err := connectMPV(socketPath)
	if err != nil {
		return fmt.Errorf("connecting to mpv: %w", err)
	}
	defer transport.Close()

	// Second connection so event reads never block commands.
	events, err := connectMPV(socketPath)
	if err != nil {
		return fmt.Errorf("connecting mpv event stream: %w", err)
	}
	defer events.Close()
	if err := events.Observe(1, "pause"); err != nil {
		return fmt.Errorf("observing pause property: %w", err)
	}

	logger.Info("lector starting", "server", serverURL, "db", dbPath, "mpv", socketPath)

	model := app.New(api.NewClient(serverURL), transport, events, store, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSocketPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("lector-mpv-%d.sock", os.Getpid()))
}

// openLogger writes structured logs to path, or discards them when no
// path is configured. Logging to stderr would corrupt the TUI.
func openLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }, nil
}

// startMPV launches an idle mpv instance serving JSON IPC on socketPath.
func startMPV(socketPath string) (*exec.Cmd, error) {
	os.Remove(socketPath)
	cmd := exec.Command("mpv",
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server="+socketPath,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting mpv (is it installed?): %w", err)
	}
	return cmd, nil
}

// connectMPV dials the IPC socket, retrying until mpv has created it.
func connectMPV(socketPath string) (*mpv.Client, error) {
	deadline := time.Now().Add(mpvConnectTimeout)
	for {
		client, err := mpv.Connect(socketPath)
		if err == nil {
			return client, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(100 * time.Millisecond)
	}
}
