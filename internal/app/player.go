package app

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwulff/lector/internal/api"
	"github.com/jwulff/lector/internal/db"
)

// playStatus is the transport's observable status.
type playStatus int

const (
	statusIdle playStatus = iota
	statusLoading
	statusPlaying
	statusPaused
	statusStopped
	statusEnded
)

// playbackRates is the allowed set of speed multipliers, cycled in order.
var playbackRates = []float64{0.75, 1.0, 1.25, 1.5, 2.0}

// readingSession is the active document being read.
type readingSession struct {
	docID       string
	totalPages  int
	currentPage int
}

// Transport is the audio playback engine. mpv.Client is the production
// implementation.
type Transport interface {
	Load(src string) error
	SetPause(paused bool) error
	SetRate(rate float64) error
	SeekStart() error
	Stop() error
}

// selectDocument replaces the active session and triggers exactly one
// reconciliation. resumePage outside [1, totalPages] falls back to 1.
func (m *Model) selectDocument(docID string, totalPages, resumePage int) tea.Cmd {
	if resumePage < 1 || resumePage > totalPages {
		resumePage = 1
	}
	m.session = &readingSession{
		docID:       docID,
		totalPages:  totalPages,
		currentPage: resumePage,
	}
	m.screen = screenReader
	m.status = statusIdle
	m.autoAdvance = false
	m.loadedLocator = ""
	m.prefetchTarget = ""
	return m.reconcile(true)
}

// closeSession tears down the active session and returns to the
// library. The transport is stopped before the session is released.
func (m *Model) closeSession() tea.Cmd {
	m.session = nil
	m.screen = screenLibrary
	m.status = statusIdle
	m.autoAdvance = false
	m.loadedLocator = ""
	m.prefetchTarget = ""
	m.progressSeq++ // kill any pending debounce timer
	return tea.Batch(stopTransportCmd(m.transport), loadLibraryCmd(m.api))
}

// setCurrentPage navigates to page. Out-of-range requests are ignored.
func (m *Model) setCurrentPage(page int) tea.Cmd {
	if m.session == nil {
		return nil
	}
	if page < 1 || page > m.session.totalPages || page == m.session.currentPage {
		return nil
	}
	m.session.currentPage = page
	return m.reconcile(true)
}

// setVoice switches the synthesis voice.
func (m *Model) setVoice(voice string) tea.Cmd {
	if voice == "" || voice == m.settings.Voice {
		return nil
	}
	m.settings.Voice = voice
	return tea.Batch(saveSettingsCmd(m.store, m.logger, m.settings), m.reconcile(false))
}

// toggleTranslation flips the translated-audio selector.
func (m *Model) toggleTranslation() tea.Cmd {
	m.settings.Translated = !m.settings.Translated
	return tea.Batch(saveSettingsCmd(m.store, m.logger, m.settings), m.reconcile(false))
}

// cycleRate advances to the next allowed playback rate. The live
// transport's rate changes in place; the track is not reloaded.
func (m *Model) cycleRate() tea.Cmd {
	next := playbackRates[0]
	for i, r := range playbackRates {
		if r == m.settings.Rate {
			next = playbackRates[(i+1)%len(playbackRates)]
			break
		}
	}
	m.settings.Rate = next
	return tea.Batch(saveSettingsCmd(m.store, m.logger, m.settings), setRateCmd(m.transport, next))
}

// togglePlay requests pause when playing, play otherwise.
func (m *Model) togglePlay() tea.Cmd {
	if m.session == nil {
		return nil
	}
	if m.status == statusPlaying || m.status == statusLoading {
		m.status = statusPaused
		return pauseCmd(m.transport)
	}
	restart := m.status == statusEnded || m.status == statusStopped
	return playCmd(m.transport, m.loadedLocator, restart)
}

// stopPlayback pauses and rewinds without changing the current page.
func (m *Model) stopPlayback() tea.Cmd {
	if m.session == nil {
		return nil
	}
	m.status = statusStopped
	return rewindCmd(m.transport)
}

// rewindCmd pauses the transport and seeks back to the track start.
func rewindCmd(t Transport) tea.Cmd {
	return func() tea.Msg {
		if err := t.SetPause(true); err != nil {
			return nil
		}
		t.SeekStart()
		return nil
	}
}

// handleTrackEnded advances to the next page with auto-advance intent,
// or marks the book finished on the last page. This is the only page
// navigation the player drives by itself.
func (m *Model) handleTrackEnded() tea.Cmd {
	if m.session == nil {
		return nil
	}
	if m.session.currentPage < m.session.totalPages {
		m.autoAdvance = true
		m.session.currentPage++
		return m.reconcile(true)
	}
	m.status = statusEnded
	return nil
}

// handlePlayResult applies an asynchronous play outcome. Results for a
// locator that is no longer loaded are stale and dropped; a rejected
// play degrades to a paused, user-resumable state with no visible error.
func (m *Model) handlePlayResult(msg PlayResultMsg) {
	if m.session == nil || msg.Locator != m.loadedLocator {
		return
	}
	m.autoAdvance = false
	if msg.Err != nil {
		m.logger.Warn("play request rejected", "locator", msg.Locator, "error", msg.Err)
		m.status = statusPaused
		return
	}
	m.status = statusPlaying
}

// currentLocator resolves the audio locator for the current state.
func (m *Model) currentLocator() string {
	return api.AudioURL(m.api.BaseURL, m.session.docID, m.session.currentPage,
		m.settings.Voice, m.settings.Translated)
}

// reconcile derives the target track from (document, page, voice,
// translation) and brings the transport in line with it, then schedules
// the next-page prefetch and, when the page changed, restarts the
// progress debounce. It is invoked synchronously by every operation
// that changes player state.
func (m *Model) reconcile(pageChanged bool) tea.Cmd {
	if m.session == nil {
		return nil
	}
	var cmds []tea.Cmd

	target := m.currentLocator()
	if target != m.loadedLocator {
		m.loadedLocator = target
		play := m.status == statusPlaying || m.status == statusLoading || m.autoAdvance
		if play {
			m.status = statusLoading
		}
		cmds = append(cmds, loadTrackCmd(m.transport, m.store, target, m.settings.Rate, play))
	}

	if m.session.currentPage < m.session.totalPages {
		next := api.AudioURL(m.api.BaseURL, m.session.docID, m.session.currentPage+1,
			m.settings.Voice, m.settings.Translated)
		if next != m.prefetchTarget {
			m.prefetchTarget = next
			cmds = append(cmds, prefetchCmd(m.api, m.store, next))
		}
	}

	if pageChanged {
		m.progressSeq++
		cmds = append(cmds, progressTickCmd(m.progressSeq))
	}

	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// loadTrackCmd loads a track into the transport, preferring a locally
// cached copy, and optionally issues a play request whose outcome comes
// back as a PlayResultMsg.
func loadTrackCmd(t Transport, store *db.Store, locator string, rate float64, play bool) tea.Cmd {
	return func() tea.Msg {
		src := locator
		if store != nil {
			if path, ok := store.AudioFile(locator); ok {
				src = path
			}
		}
		if err := t.Load(src); err != nil {
			return TrackLoadErrorMsg{Locator: locator, Err: err}
		}
		t.SetRate(rate)
		if !play {
			return TrackLoadedMsg{Locator: locator}
		}
		if err := t.SetPause(false); err != nil {
			return PlayResultMsg{Locator: locator, Err: err}
		}
		return PlayResultMsg{Locator: locator}
	}
}

// playCmd issues a play request for the loaded track.
func playCmd(t Transport, locator string, restart bool) tea.Cmd {
	return func() tea.Msg {
		if restart {
			if err := t.SeekStart(); err != nil {
				return PlayResultMsg{Locator: locator, Err: err}
			}
		}
		if err := t.SetPause(false); err != nil {
			return PlayResultMsg{Locator: locator, Err: err}
		}
		return PlayResultMsg{Locator: locator}
	}
}

// pauseCmd pauses the transport. A pause that fails leaves the track
// playing; the status already reflects the user's intent.
func pauseCmd(t Transport) tea.Cmd {
	return func() tea.Msg {
		t.SetPause(true)
		return nil
	}
}

// setRateCmd changes the live playback rate.
func setRateCmd(t Transport, rate float64) tea.Cmd {
	return func() tea.Msg {
		t.SetRate(rate)
		return nil
	}
}

// stopTransportCmd stops and releases the current track.
func stopTransportCmd(t Transport) tea.Cmd {
	return func() tea.Msg {
		t.Stop()
		return nil
	}
}

// label renders the transport status for the status bar.
func (s playStatus) label() string {
	switch s {
	case statusLoading:
		return "CARGANDO"
	case statusPlaying:
		return "LEYENDO"
	case statusPaused:
		return "PAUSA"
	case statusStopped:
		return "DETENIDO"
	case statusEnded:
		return "FIN"
	default:
		return "LISTO"
	}
}

// formatRate renders a playback rate like "1.25x".
func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "x"
}
