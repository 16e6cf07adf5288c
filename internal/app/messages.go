package app

import (
	"github.com/jwulff/lector/internal/api"
	"github.com/jwulff/lector/internal/db"
	"github.com/jwulff/lector/internal/mpv"
)

// LibraryLoadedMsg carries the library listing from the service.
type LibraryLoadedMsg struct {
	Entries []api.LibraryEntry
	Err     error
}

// VoicesLoadedMsg carries the voice catalog from the service.
type VoicesLoadedMsg struct {
	Voices []api.Voice
	Err    error
}

// SettingsLoadedMsg carries playback settings from the local store.
type SettingsLoadedMsg struct {
	Settings db.Settings
}

// UploadStartedMsg is sent when the service accepted an upload and
// assigned a provisional document id.
type UploadStartedMsg struct {
	DocID string
}

// UploadErrorMsg is sent when the upload itself failed.
type UploadErrorMsg struct {
	Err error
}

// PollTickMsg drives one round of upload status polling. Seq guards
// against ticks from an abandoned or completed poll chain.
type PollTickMsg struct {
	Seq int
}

// StatusPolledMsg carries one document status response.
type StatusPolledMsg struct {
	DocID  string
	Status api.StatusResponse
	Err    error
}

// TrackLoadedMsg reports that the transport loaded a track without a
// play request attached.
type TrackLoadedMsg struct {
	Locator string
}

// TrackLoadErrorMsg reports that loading a track failed.
type TrackLoadErrorMsg struct {
	Locator string
	Err     error
}

// PlayResultMsg resolves an asynchronous play request. Locator is the
// resource the request was issued for; results for a locator that is no
// longer current are stale and ignored.
type PlayResultMsg struct {
	Locator string
	Err     error
}

// TransportEventMsg wraps a streamed event from the mpv event
// connection.
type TransportEventMsg struct {
	Event mpv.Event
}

// TransportErrorMsg is sent when the transport event stream breaks.
type TransportErrorMsg struct {
	Err error
}

// PrefetchDoneMsg resolves a next-page audio prefetch. Failures are
// absorbed; results for a superseded target are discarded.
type PrefetchDoneMsg struct {
	Locator string
	Err     error
}

// ProgressTickMsg fires when the progress debounce window expires. Seq
// identifies the timer generation; only the latest generation flushes.
type ProgressTickMsg struct {
	Seq int
}

// ProgressSavedMsg resolves a progress flush.
type ProgressSavedMsg struct {
	Err error
}

// DeleteResultMsg resolves a library delete request.
type DeleteResultMsg struct {
	DocID string
	Err   error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
