// Package db provides the local SQLite store for lector: playback
// settings that survive restarts, and the prefetched-audio cache the
// player consults before streaming from the network.
package db

// Settings are the cross-document playback settings.
type Settings struct {
	Voice      string
	Rate       float64
	Translated bool
}

// DefaultSettings returns the fallback used before anything has been
// persisted.
func DefaultSettings() Settings {
	return Settings{
		Voice: "es-AR-TomasNeural",
		Rate:  1.0,
	}
}

// CachedTrack is one prefetched audio entry.
type CachedTrack struct {
	Locator   string
	Data      []byte
	FetchedAt float64
}
