package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWriteWAV_Header(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}

	var buf bytes.Buffer
	if err := WriteWAV(&buf, pcm); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	b := buf.Bytes()
	if len(b) != 44+len(pcm) {
		t.Fatalf("wrote %d bytes, want %d", len(b), 44+len(pcm))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(b[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data length = %d, want %d", got, len(pcm))
	}
	if !bytes.Equal(b[44:], pcm) {
		t.Error("PCM payload mangled")
	}
}

func TestWriteWAV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, nil); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if buf.Len() != 44 {
		t.Errorf("wrote %d bytes, want 44", buf.Len())
	}
}
