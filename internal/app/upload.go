package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwulff/lector/internal/api"
)

// statusPollInterval is how often a processing document's status is
// re-checked after upload.
const statusPollInterval = time.Second

// uploadCmd posts the file and reports the provisional document id.
func uploadCmd(c *api.Client, path string) tea.Cmd {
	return func() tea.Msg {
		resp, err := c.Upload(path)
		if err != nil {
			return UploadErrorMsg{Err: err}
		}
		return UploadStartedMsg{DocID: resp.DocID}
	}
}

// pollTickCmd schedules the next status poll. Seq identifies the poll
// chain; a stale tick (abandoned upload, terminal state reached) is
// dropped by Update without rescheduling.
func pollTickCmd(seq int) tea.Cmd {
	return tea.Tick(statusPollInterval, func(time.Time) tea.Msg {
		return PollTickMsg{Seq: seq}
	})
}

// pollStatusCmd fetches the document's processing status once.
func pollStatusCmd(c *api.Client, docID string) tea.Cmd {
	return func() tea.Msg {
		status, err := c.Status(docID)
		return StatusPolledMsg{DocID: docID, Status: status, Err: err}
	}
}
