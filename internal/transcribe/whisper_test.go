package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seg.wav")
	if err := os.WriteFile(path, []byte("RIFF fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWhisperClient_Transcribe(t *testing.T) {
	var gotLanguage, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model")
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file field: %v", err)
		}
		w.Write([]byte(`{"text":"こんにちは"}`))
	}))
	defer srv.Close()

	wc := NewWhisperClient(srv.URL, "base", 5*time.Second)
	text, err := wc.Transcribe(context.Background(), writeTestWAV(t), "ja")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "こんにちは" {
		t.Errorf("text = %q", text)
	}
	if gotLanguage != "ja" {
		t.Errorf("language = %q, want ja", gotLanguage)
	}
	if gotModel != "base" {
		t.Errorf("model = %q, want base", gotModel)
	}
}

func TestWhisperClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	wc := NewWhisperClient(srv.URL, "base", 5*time.Second)
	if _, err := wc.Transcribe(context.Background(), writeTestWAV(t), "ja"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestValidModelSize(t *testing.T) {
	for _, s := range ModelSizes {
		if !ValidModelSize(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	if ValidModelSize("huge") {
		t.Error("\"huge\" should not be valid")
	}
}
