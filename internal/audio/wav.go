package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteWAV writes mono 16kHz s16le PCM as a canonical 44-byte-header RIFF
// WAV stream. Recognizers consume the segment through this representation.
func WriteWAV(w io.Writer, pcm []byte) error {
	dataLen := uint32(len(pcm))

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataLen)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)                    // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)                     // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1)                     // mono
	binary.LittleEndian.PutUint32(header[24:28], SampleRate)            // sample rate
	binary.LittleEndian.PutUint32(header[28:32], SampleRate*bytesPerSample) // byte rate
	binary.LittleEndian.PutUint16(header[32:34], bytesPerSample)        // block align
	binary.LittleEndian.PutUint16(header[34:36], 16)                    // bits per sample

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataLen)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wav header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("wav data: %w", err)
	}
	return nil
}
