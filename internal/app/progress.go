package app

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwulff/lector/internal/api"
)

// progressDebounce is the quiescence window after the last page change
// before progress is persisted.
const progressDebounce = 2 * time.Second

// progressTickCmd starts one debounce timer generation. Every page
// change bumps the model's generation counter, so only the timer
// started by the last change in a burst survives to flush.
func progressTickCmd(seq int) tea.Cmd {
	return tea.Tick(progressDebounce, func(time.Time) tea.Msg {
		return ProgressTickMsg{Seq: seq}
	})
}

// saveProgressCmd flushes the latest page to the service. Persistence
// is advisory: a failure is logged and dropped.
func saveProgressCmd(c *api.Client, logger *slog.Logger, docID string, page int) tea.Cmd {
	return func() tea.Msg {
		if err := c.SaveProgress(docID, page); err != nil {
			logger.Warn("progress save failed", "doc", docID, "page", page, "error", err)
			return ProgressSavedMsg{Err: err}
		}
		return ProgressSavedMsg{}
	}
}
