package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client talks to the lector document service.
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Upload posts a PDF file and returns the provisional document id.
func (c *Client) Upload(path string) (UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return UploadResponse{}, fmt.Errorf("create form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return UploadResponse{}, fmt.Errorf("copy file: %w", err)
	}
	if err := w.Close(); err != nil {
		return UploadResponse{}, fmt.Errorf("close form: %w", err)
	}

	resp, err := c.httpClient.Post(c.BaseURL+"/upload", w.FormDataContentType(), &body)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UploadResponse{}, fmt.Errorf("upload: server returned %s", resp.Status)
	}

	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return UploadResponse{}, fmt.Errorf("decode upload response: %w", err)
	}
	return out, nil
}

// Status fetches a document's processing status.
func (c *Client) Status(docID string) (StatusResponse, error) {
	var out StatusResponse
	if err := c.getJSON("/document/"+docID+"/status", &out); err != nil {
		return StatusResponse{}, err
	}
	return out, nil
}

// Library lists all documents known to the service.
func (c *Client) Library() ([]LibraryEntry, error) {
	var out []LibraryEntry
	if err := c.getJSON("/library", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Voices lists the available synthesis voices.
func (c *Client) Voices() ([]Voice, error) {
	var out []Voice
	if err := c.getJSON("/voices", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a document from the library.
func (c *Client) Delete(docID string) error {
	req, err := http.NewRequest(http.MethodDelete, c.BaseURL+"/library/"+docID, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete document: server returned %s", resp.Status)
	}
	return nil
}

// SaveProgress persists the last-read page for a document.
func (c *Client) SaveProgress(docID string, page int) error {
	data, err := json.Marshal(progressRequest{Page: page})
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	resp, err := c.httpClient.Post(
		c.BaseURL+"/document/"+docID+"/progress", "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("save progress: server returned %s", resp.Status)
	}
	return nil
}

// FetchAudio downloads the audio bytes at locator. Used by the prefetch
// path; the player itself streams directly from the locator.
func (c *Client) FetchAudio(locator string) ([]byte, error) {
	resp, err := c.httpClient.Get(locator)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch audio: server returned %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return data, nil
}

func (c *Client) getJSON(path string, out any) error {
	resp, err := c.httpClient.Get(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: server returned %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
