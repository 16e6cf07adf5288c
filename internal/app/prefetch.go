package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwulff/lector/internal/api"
	"github.com/jwulff/lector/internal/db"
)

// prefetchCmd fetches the next page's audio into the local cache so the
// synthesis latency is hidden when the page turns. Best-effort: the
// result never touches playback state, and failures are absorbed.
func prefetchCmd(c *api.Client, store *db.Store, locator string) tea.Cmd {
	return func() tea.Msg {
		if store != nil && store.HasAudio(locator) {
			return PrefetchDoneMsg{Locator: locator}
		}
		data, err := c.FetchAudio(locator)
		if err != nil {
			return PrefetchDoneMsg{Locator: locator, Err: err}
		}
		if store != nil {
			if err := store.PutAudio(locator, data); err != nil {
				return PrefetchDoneMsg{Locator: locator, Err: err}
			}
		}
		return PrefetchDoneMsg{Locator: locator}
	}
}
