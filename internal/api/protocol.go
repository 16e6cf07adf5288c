// Package api provides the HTTP client and resource locators for the
// lector document service.
package api

// UploadResponse is returned by POST /upload once the file is accepted.
type UploadResponse struct {
	DocID  string `json:"doc_id"`
	Status string `json:"status,omitempty"`
}

// StatusResponse describes a document's processing state.
type StatusResponse struct {
	Status     string `json:"status"` // submitted, processing, ready, error
	TotalPages int    `json:"total_pages,omitempty"`
	LastPage   int    `json:"last_page,omitempty"`
	Error      string `json:"error,omitempty"`
}

// LibraryEntry is one document in the library listing.
type LibraryEntry struct {
	DocID      string `json:"doc_id"`
	Filename   string `json:"filename"`
	TotalPages int    `json:"total_pages"`
	LastPage   int    `json:"last_page"`
}

// Voice is one synthesis voice from the voice catalog.
type Voice struct {
	ShortName    string `json:"ShortName"`
	FriendlyName string `json:"FriendlyName"`
}

// progressRequest is the body of POST /document/{id}/progress.
type progressRequest struct {
	Page int `json:"page"`
}
