package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestTranscribeFileUploadsMultipart(t *testing.T) {
	var gotModel, gotFormat, gotFilename string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		if files := r.MultipartForm.File["file"]; len(files) == 1 {
			gotFilename = files[0].Filename
		}
		_, _ = w.Write([]byte("Hello class, today we cover slopes.\n"))
	}))
	defer server.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "segment_1.wav")
	if err := os.WriteFile(path, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "whisper-1"})
	text, err := client.TranscribeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("TranscribeFile failed: %v", err)
	}
	if text != "Hello class, today we cover slopes." {
		t.Fatalf("unexpected transcript %q", text)
	}
	if gotModel != "whisper-1" || gotFormat != "text" {
		t.Fatalf("unexpected form fields model=%q format=%q", gotModel, gotFormat)
	}
	if gotFilename != "segment_1.wav" {
		t.Fatalf("unexpected upload filename %q", gotFilename)
	}
}

func TestTranscribeRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL},
		WithRetryBackoff(time.Millisecond, 5*time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	)
	text, err := client.Transcribe(context.Background(), "clip.webm", []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "recovered" {
		t.Fatalf("unexpected transcript %q", text)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestTranscribeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported format", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	if _, err := client.Transcribe(context.Background(), "clip.wav", []byte("audio")); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retries, got %d calls", calls.Load())
	}
}

func TestTranscribeValidatesInputs(t *testing.T) {
	client := NewClient(Config{APIKey: "test-key", BaseURL: "http://127.0.0.1:0"})
	if _, err := client.Transcribe(context.Background(), "clip.wav", nil); err == nil {
		t.Fatal("expected error for empty payload")
	}

	noKey := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	if _, err := noKey.Transcribe(context.Background(), "clip.wav", []byte("x")); err == nil {
		t.Fatal("expected error for missing api key")
	}

	if _, err := client.TranscribeFile(context.Background(), filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
