package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestAssemble_JoinsWithLineBreaks(t *testing.T) {
	doc := Assemble("meeting.m4a", []string{"a", "b", "c"})
	if doc.Body != "a\nb\nc" {
		t.Errorf("Body = %q, want %q", doc.Body, "a\nb\nc")
	}
	if doc.Segments != 3 {
		t.Errorf("Segments = %d, want 3", doc.Segments)
	}
	if doc.Source != "meeting.m4a" {
		t.Errorf("Source = %q", doc.Source)
	}
}

func TestAssemble_EmptySegmentPreserved(t *testing.T) {
	doc := Assemble("x.m4a", []string{"first", "", "third"})
	if doc.Body != "first\n\nthird" {
		t.Errorf("Body = %q, empty segment must keep its line", doc.Body)
	}
}

func TestAssemble_SingleSegment(t *testing.T) {
	doc := Assemble("x.m4a", []string{"only"})
	if doc.Body != "only" {
		t.Errorf("Body = %q, want %q", doc.Body, "only")
	}
}

func TestPersist_NameAndHeader(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zerolog.Nop())

	doc := Assemble("meeting.m4a", []string{"hello", "world"})
	path, err := w.Persist(doc)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "meeting_") || !strings.HasSuffix(name, ".txt") {
		t.Errorf("output name = %q, want meeting_<timestamp>.txt", name)
	}
	wantName := "meeting_" + doc.Created.Format("20060102_150405") + ".txt"
	if name != wantName {
		t.Errorf("output name = %q, want %q", name, wantName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"# Transcription Result\n",
		"Source file: meeting.m4a\n",
		"Created: " + doc.Created.Format("2006-01-02 15:04:05") + "\n",
		headerSeparator,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestPersist_BodyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zerolog.Nop())

	doc := Assemble("rec.m4a", []string{"a", "b", "c"})
	path, err := w.Persist(doc)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, _ := os.ReadFile(path)
	// Body follows the fixed header block.
	parts := strings.SplitN(string(data), headerSeparator+"\n\n", 2)
	if len(parts) != 2 {
		t.Fatalf("separator not found in output")
	}
	if parts[1] != "a\nb\nc" {
		t.Errorf("body = %q, want %q", parts[1], "a\nb\nc")
	}
}

func TestPersist_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zerolog.Nop())

	if _, err := w.Persist(Assemble("x.m4a", []string{"t"})); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestPersist_MissingDirFails(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "nope"), zerolog.Nop())
	if _, err := w.Persist(Assemble("x.m4a", []string{"t"})); err == nil {
		t.Fatal("expected error for missing output directory")
	}
}
