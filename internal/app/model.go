package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jwulff/lector/internal/api"
	"github.com/jwulff/lector/internal/db"
	"github.com/jwulff/lector/internal/mpv"
	"github.com/jwulff/lector/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// screen identifies which top-level view is active.
type screen int

const (
	screenLibrary screen = iota
	screenReader
)

// Model is the root bubbletea model for the lector TUI. It owns the
// whole player state; every other component reads it or submits
// messages to it.
type Model struct {
	api       *api.Client
	transport Transport
	events    *mpv.Client // transport event subscription connection
	store     *db.Store
	logger    *slog.Logger

	screen screen

	// Library
	library       []api.LibraryEntry
	librarySel    int
	voices        []api.Voice
	confirmDelete bool

	// Upload intake
	uploading    bool
	uploadDocID  string
	pathInput    string
	enteringPath bool
	pollSeq      int

	// Player
	session        *readingSession
	sessionTitle   string
	settings       db.Settings
	status         playStatus
	autoAdvance    bool
	loadedLocator  string
	prefetchTarget string

	// Page jump input
	jumpInput    string
	enteringJump bool

	// Progress debounce
	progressSeq int

	// UI state
	width          int
	height         int
	statusText     string
	errorMessage   string
	errorTransient bool
}

// New creates a new Model with default state. events may be nil when no
// transport event stream is available.
func New(client *api.Client, transport Transport, events *mpv.Client, store *db.Store, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return Model{
		api:        client,
		transport:  transport,
		events:     events,
		store:      store,
		logger:     logger,
		settings:   db.DefaultSettings(),
		statusText: "Cargando biblioteca...",
	}
}

// Init loads the library, the voice catalog and the persisted settings,
// and starts reading transport events.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		loadLibraryCmd(m.api),
		loadVoicesCmd(m.api),
		loadSettingsCmd(m.store),
	}
	if m.events != nil {
		cmds = append(cmds, readTransportEventCmd(m.events))
	}
	return tea.Batch(cmds...)
}

// loadLibraryCmd fetches the library listing.
func loadLibraryCmd(c *api.Client) tea.Cmd {
	return func() tea.Msg {
		entries, err := c.Library()
		return LibraryLoadedMsg{Entries: entries, Err: err}
	}
}

// loadVoicesCmd fetches the voice catalog.
func loadVoicesCmd(c *api.Client) tea.Cmd {
	return func() tea.Msg {
		voices, err := c.Voices()
		return VoicesLoadedMsg{Voices: voices, Err: err}
	}
}

// loadSettingsCmd reads persisted playback settings from the store.
func loadSettingsCmd(store *db.Store) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		settings, err := store.Settings()
		if err != nil {
			return nil // silently fall back to defaults
		}
		return SettingsLoadedMsg{Settings: settings}
	}
}

// saveSettingsCmd persists playback settings. Persistence failures are
// logged and dropped.
func saveSettingsCmd(store *db.Store, logger *slog.Logger, settings db.Settings) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		if err := store.SaveSettings(settings); err != nil {
			logger.Warn("settings save failed", "error", err)
		}
		return nil
	}
}

// deleteCmd removes a document from the library.
func deleteCmd(c *api.Client, docID string) tea.Cmd {
	return func() tea.Msg {
		return DeleteResultMsg{DocID: docID, Err: c.Delete(docID)}
	}
}

// readTransportEventCmd reads the next event from the mpv event
// connection.
func readTransportEventCmd(events *mpv.Client) tea.Cmd {
	return func() tea.Msg {
		ev, err := events.ReadEvent()
		if err != nil {
			return TransportErrorMsg{Err: err}
		}
		return TransportEventMsg{Event: ev}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case LibraryLoadedMsg:
		if msg.Err != nil {
			m.statusText = "Biblioteca no disponible"
			m.logger.Warn("library load failed", "error", msg.Err)
			return m, nil
		}
		m.library = msg.Entries
		if m.librarySel >= len(m.library) {
			m.librarySel = max(0, len(m.library)-1)
		}
		m.statusText = ""
		return m, nil

	case VoicesLoadedMsg:
		if msg.Err != nil {
			m.logger.Warn("voices load failed", "error", msg.Err)
			return m, nil
		}
		m.voices = msg.Voices
		return m, nil

	case SettingsLoadedMsg:
		m.settings = msg.Settings
		return m, nil

	case UploadStartedMsg:
		m.uploadDocID = msg.DocID
		m.pollSeq++
		m.statusText = "Procesando PDF..."
		return m, pollTickCmd(m.pollSeq)

	case UploadErrorMsg:
		m.uploading = false
		m.uploadDocID = ""
		m.errorMessage = "Error al subir el archivo: " + msg.Err.Error()
		m.errorTransient = true
		m.statusText = ""
		return m, clearTransientErrorCmd()

	case PollTickMsg:
		// A tick from an abandoned or finished poll chain must not
		// reschedule itself.
		if !m.uploading || msg.Seq != m.pollSeq {
			return m, nil
		}
		return m, pollStatusCmd(m.api, m.uploadDocID)

	case StatusPolledMsg:
		return m.handleStatusPolled(msg)

	case TrackLoadedMsg:
		// Informational; status stays whatever the user last chose.
		return m, nil

	case TrackLoadErrorMsg:
		if msg.Locator != m.loadedLocator {
			return m, nil // stale
		}
		m.autoAdvance = false
		if m.status == statusPlaying || m.status == statusLoading {
			m.status = statusPaused
		}
		m.statusText = "Audio no disponible"
		m.logger.Warn("track load failed", "locator", msg.Locator, "error", msg.Err)
		return m, nil

	case PlayResultMsg:
		m.handlePlayResult(msg)
		return m, nil

	case TransportEventMsg:
		cmd := m.handleTransportEvent(msg.Event)
		var next tea.Cmd
		if m.events != nil {
			next = readTransportEventCmd(m.events)
		}
		return m, tea.Batch(cmd, next)

	case TransportErrorMsg:
		m.statusText = "Reproductor desconectado"
		m.logger.Error("transport event stream broken", "error", msg.Err)
		return m, nil

	case PrefetchDoneMsg:
		if msg.Locator != m.prefetchTarget {
			return m, nil // superseded, result discarded
		}
		if msg.Err != nil {
			m.logger.Debug("prefetch failed", "locator", msg.Locator, "error", msg.Err)
		}
		return m, nil

	case ProgressTickMsg:
		if msg.Seq != m.progressSeq || m.session == nil {
			return m, nil // restarted by a later page change
		}
		return m, saveProgressCmd(m.api, m.logger, m.session.docID, m.session.currentPage)

	case ProgressSavedMsg:
		return m, nil

	case DeleteResultMsg:
		if msg.Err != nil {
			m.errorMessage = "Error al eliminar el libro"
			m.errorTransient = true
			return m, clearTransientErrorCmd()
		}
		return m, loadLibraryCmd(m.api)

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// handleStatusPolled advances the upload state machine: keep polling
// while processing, hand the document to the player when ready, surface
// a terminal error otherwise.
func (m Model) handleStatusPolled(msg StatusPolledMsg) (tea.Model, tea.Cmd) {
	if !m.uploading || msg.DocID != m.uploadDocID {
		return m, nil // abandoned before completion
	}
	if msg.Err != nil {
		// Transient polling failure; the next tick retries.
		m.logger.Warn("status poll failed", "doc", msg.DocID, "error", msg.Err)
		return m, pollTickCmd(m.pollSeq)
	}

	switch msg.Status.Status {
	case "ready":
		m.uploading = false
		m.uploadDocID = ""
		m.statusText = ""
		m.sessionTitle = "Nuevo documento"
		cmd := m.selectDocument(msg.DocID, msg.Status.TotalPages, msg.Status.LastPage)
		return m, tea.Batch(cmd, loadLibraryCmd(m.api))

	case "error":
		m.uploading = false
		m.uploadDocID = ""
		m.statusText = ""
		m.errorMessage = "Error procesando PDF: " + msg.Status.Error
		return m, nil

	default:
		return m, pollTickCmd(m.pollSeq)
	}
}

// handleTransportEvent processes a streamed mpv event.
func (m *Model) handleTransportEvent(ev mpv.Event) tea.Cmd {
	switch ev.Event {
	case "end-file":
		switch ev.Reason {
		case mpv.EndReasonEOF:
			return m.handleTrackEnded()
		case mpv.EndReasonError:
			// The loaded resource failed to decode or stream.
			m.autoAdvance = false
			if m.status == statusPlaying || m.status == statusLoading {
				m.status = statusPaused
			}
			m.statusText = "Audio no disponible"
		}

	case "property-change":
		// Pause flips from outside (media keys, another IPC client)
		// are reflected in the status. Events echoing our own commands
		// land on states that already match.
		if ev.Name == "pause" && m.session != nil {
			var paused bool
			if err := json.Unmarshal(ev.Data, &paused); err != nil {
				return nil
			}
			if paused && m.status == statusPlaying {
				m.status = statusPaused
			} else if !paused && m.status == statusPaused {
				m.status = statusPlaying
			}
		}
	}
	return nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.enteringPath {
		return m.handlePathInputKey(key)
	}
	if m.enteringJump {
		return m.handleJumpInputKey(key)
	}
	if m.confirmDelete {
		return m.handleConfirmDeleteKey(key)
	}

	switch key {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m, tea.Quit
	}

	if m.screen == screenReader {
		return m.handleReaderKey(key)
	}
	return m.handleLibraryKey(key)
}

func (m Model) handleLibraryKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyJ, KeyDown:
		if m.librarySel < len(m.library)-1 {
			m.librarySel++
		}
	case KeyK, KeyUp:
		if m.librarySel > 0 {
			m.librarySel--
		}
	case KeyEnter:
		if m.librarySel < len(m.library) {
			entry := m.library[m.librarySel]
			m.sessionTitle = strings.TrimSuffix(entry.Filename, ".pdf")
			return m, m.selectDocument(entry.DocID, entry.TotalPages, entry.LastPage)
		}
	case KeyDelete:
		if m.librarySel < len(m.library) {
			m.confirmDelete = true
		}
	case KeyUpload:
		m.enteringPath = true
		m.pathInput = ""
	}
	return m, nil
}

func (m Model) handleReaderKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeySpace:
		return m, m.togglePlay()
	case KeyStop:
		return m, m.stopPlayback()
	case KeyLeft, KeyH:
		return m, m.setCurrentPage(m.session.currentPage - 1)
	case KeyRight, KeyL:
		return m, m.setCurrentPage(m.session.currentPage + 1)
	case KeyVoice:
		return m, m.cycleVoice()
	case KeyTranslate:
		return m, m.toggleTranslation()
	case KeyRate:
		return m, m.cycleRate()
	case KeyJump:
		m.enteringJump = true
		m.jumpInput = strconv.Itoa(m.session.currentPage)
	case KeyEsc:
		return m, m.closeSession()
	}
	return m, nil
}

func (m Model) handlePathInputKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyEsc:
		m.enteringPath = false
		m.pathInput = ""
	case KeyEnter:
		path := strings.TrimSpace(m.pathInput)
		m.enteringPath = false
		m.pathInput = ""
		if path == "" {
			return m, nil
		}
		m.uploading = true
		m.statusText = "Subiendo PDF..."
		return m, uploadCmd(m.api, path)
	case KeyBackspace:
		if len(m.pathInput) > 0 {
			m.pathInput = m.pathInput[:len(m.pathInput)-1]
		}
	default:
		if len(key) == 1 || key == "tab" {
			m.pathInput += key
		}
	}
	return m, nil
}

func (m Model) handleJumpInputKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyEsc:
		m.enteringJump = false
		m.jumpInput = ""
	case KeyEnter:
		m.enteringJump = false
		input := m.jumpInput
		m.jumpInput = ""
		page, err := strconv.Atoi(input)
		if err != nil || page < 1 || page > m.session.totalPages {
			return m, nil // invalid jump ignored, input reverts
		}
		return m, m.setCurrentPage(page)
	case KeyBackspace:
		if len(m.jumpInput) > 0 {
			m.jumpInput = m.jumpInput[:len(m.jumpInput)-1]
		}
	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
			m.jumpInput += key
		}
	}
	return m, nil
}

func (m Model) handleConfirmDeleteKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyConfirmYes:
		m.confirmDelete = false
		if m.librarySel < len(m.library) {
			return m, deleteCmd(m.api, m.library[m.librarySel].DocID)
		}
	case KeyConfirmNo, KeyEsc:
		m.confirmDelete = false
	}
	return m, nil
}

// cycleVoice selects the next voice from the catalog.
func (m *Model) cycleVoice() tea.Cmd {
	if len(m.voices) == 0 {
		return nil
	}
	idx := 0
	for i, v := range m.voices {
		if v.ShortName == m.settings.Voice {
			idx = (i + 1) % len(m.voices)
			break
		}
	}
	return m.setVoice(m.voices[idx].ShortName)
}

// voiceLabel returns the friendly name of the selected voice.
func (m Model) voiceLabel() string {
	for _, v := range m.voices {
		if v.ShortName == m.settings.Voice {
			return v.FriendlyName
		}
	}
	return m.settings.Voice
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Iniciando..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.screen == screenReader && m.session != nil {
		sections = append(sections, m.renderReader())
	} else {
		sections = append(sections, m.renderLibrary())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, ui.ErrorStyle.Render("Error: ")+ui.ErrorTextStyle.Render(m.errorMessage))
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("LECTOR")
	if m.screen == screenReader && m.sessionTitle != "" {
		title += ui.DimStyle.Render(" — " + m.sessionTitle)
	}
	if m.statusText != "" {
		title += "  " + ui.StatusStyle.Render(m.statusText)
	}
	return title
}

func (m Model) renderLibrary() string {
	var lines []string
	lines = append(lines, ui.PanelTitleStyle.Render(fmt.Sprintf("BIBLIOTECA (%d)", len(m.library))))

	if m.enteringPath {
		lines = append(lines, "")
		lines = append(lines, "  Ruta del PDF: "+ui.InputStyle.Render(m.pathInput+"▌"))
		lines = append(lines, ui.DimStyle.Render("  Enter para subir, Esc para cancelar"))
		return strings.Join(lines, "\n")
	}

	if len(m.library) == 0 {
		lines = append(lines, ui.DimStyle.Render("  Biblioteca vacía"))
		lines = append(lines, ui.DimStyle.Render("  Pulsa u para subir un PDF"))
		return strings.Join(lines, "\n")
	}

	for i, entry := range m.library {
		pct := 0
		if entry.TotalPages > 0 {
			pct = entry.LastPage * 100 / entry.TotalPages
		}
		line := fmt.Sprintf("%s  %s",
			strings.TrimSuffix(entry.Filename, ".pdf"),
			ui.DimStyle.Render(fmt.Sprintf("%d págs · %d%%", entry.TotalPages, pct)))
		if i == m.librarySel {
			line = ui.SelectedStyle.Render("> ") + line
			if m.confirmDelete {
				line += ui.ErrorTextStyle.Render("  ¿eliminar? y/n")
			}
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderReader() string {
	s := m.session

	var dot string
	switch m.status {
	case statusPlaying, statusLoading:
		dot = ui.PlayingDotStyle.Render("▶ " + m.status.label())
	case statusPaused:
		dot = ui.PausedDotStyle.Render("⏸ " + m.status.label())
	case statusEnded:
		dot = ui.BadgeStyle.Render("✓ " + m.status.label())
	default:
		dot = ui.IdleDotStyle.Render("■ " + m.status.label())
	}

	page := ui.PageNumberStyle.Render(fmt.Sprintf("Página %d de %d", s.currentPage, s.totalPages))
	if m.enteringJump {
		page += "   " + ui.InputStyle.Render("ir a: "+m.jumpInput+"▌")
	}

	var settings []string
	settings = append(settings, "Voz: "+m.voiceLabel())
	settings = append(settings, "Vel: "+formatRate(m.settings.Rate))
	if m.settings.Translated {
		settings = append(settings, ui.BadgeStyle.Render("TRADUCIDO"))
	}

	lines := []string{
		"",
		"  " + page,
		"  " + m.renderProgressBar(),
		"",
		"  " + dot,
		"  " + ui.StatusStyle.Render(strings.Join(settings, "  ·  ")),
		"",
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderProgressBar() string {
	s := m.session
	barLen := max(10, min(40, m.width-20))
	filled := 0
	if s.totalPages > 0 {
		filled = s.currentPage * barLen / s.totalPages
	}
	if filled > barLen {
		filled = barLen
	}
	return ui.ProgressFillStyle.Render(strings.Repeat("█", filled)) +
		ui.ProgressEmptyStyle.Render(strings.Repeat("░", barLen-filled))
}

func (m Model) renderFooter() string {
	var parts []string
	if m.screen == screenReader {
		if m.status == statusPlaying || m.status == statusLoading {
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Pausa"))
		} else {
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Leer"))
		}
		parts = append(parts, ui.FooterKeyStyle.Render("←→")+ui.FooterDescStyle.Render(" Página"))
		parts = append(parts, ui.FooterKeyStyle.Render("g")+ui.FooterDescStyle.Render(" Ir a"))
		parts = append(parts, ui.FooterKeyStyle.Render("v")+ui.FooterDescStyle.Render(" Voz"))
		parts = append(parts, ui.FooterKeyStyle.Render("r")+ui.FooterDescStyle.Render(" Vel"))
		parts = append(parts, ui.FooterKeyStyle.Render("t")+ui.FooterDescStyle.Render(" Trad"))
		parts = append(parts, ui.FooterKeyStyle.Render("s")+ui.FooterDescStyle.Render(" Detener"))
		parts = append(parts, ui.FooterKeyStyle.Render("Esc")+ui.FooterDescStyle.Render(" Biblioteca"))
	} else {
		parts = append(parts, ui.FooterKeyStyle.Render("j/k")+ui.FooterDescStyle.Render(" Nav"))
		parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Leer"))
		parts = append(parts, ui.FooterKeyStyle.Render("u")+ui.FooterDescStyle.Render(" Subir"))
		parts = append(parts, ui.FooterKeyStyle.Render("d")+ui.FooterDescStyle.Render(" Eliminar"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Salir"))
	return strings.Join(parts, "  ")
}
