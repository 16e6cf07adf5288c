package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/document/abc/status" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(StatusResponse{
			Status:     "ready",
			TotalPages: 12,
			LastPage:   3,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Status("abc")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Status != "ready" {
		t.Errorf("status = %q, want %q", got.Status, "ready")
	}
	if got.TotalPages != 12 {
		t.Errorf("totalPages = %d, want 12", got.TotalPages)
	}
	if got.LastPage != 3 {
		t.Errorf("lastPage = %d, want 3", got.LastPage)
	}
}

func TestLibrary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]LibraryEntry{
			{DocID: "a", Filename: "uno.pdf", TotalPages: 10, LastPage: 4},
			{DocID: "b", Filename: "dos.pdf", TotalPages: 5, LastPage: 1},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Library()
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].DocID != "a" || got[0].LastPage != 4 {
		t.Errorf("entry[0] = %+v", got[0])
	}
}

func TestVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Voice{
			{ShortName: "es-AR-TomasNeural", FriendlyName: "Tomas"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Voices()
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	if len(got) != 1 || got[0].ShortName != "es-AR-TomasNeural" {
		t.Errorf("voices = %+v", got)
	}
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer f.Close()
		if hdr.Filename != "book.pdf" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "%PDF-fake" {
			t.Errorf("body = %q", data)
		}
		json.NewEncoder(w).Encode(UploadResponse{DocID: "doc-1", Status: "processing"})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "book.pdf")
	if err := os.WriteFile(path, []byte("%PDF-fake"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	c := NewClient(srv.URL)
	got, err := c.Upload(path)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if got.DocID != "doc-1" {
		t.Errorf("docID = %q, want %q", got.DocID, "doc-1")
	}
}

func TestSaveProgress(t *testing.T) {
	var gotPage int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/document/doc-1/progress" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req progressRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotPage = req.Page
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.SaveProgress("doc-1", 7); err != nil {
		t.Fatalf("save progress: %v", err)
	}
	if gotPage != 7 {
		t.Errorf("page = %d, want 7", gotPage)
	}
}

func TestDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/library/doc-1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.Delete("doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestFetchAudioFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "synthesis failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchAudio(srv.URL + "/audio/doc-1/2?voice=v&translate=false"); err == nil {
		t.Error("expected error on 500 response")
	}
}
