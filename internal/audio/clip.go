package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Decoded audio is normalized to mono 16kHz signed 16-bit PCM, the input
// format expected by every whisper-family recognizer.
const (
	SampleRate     = 16000
	bytesPerSample = 2
	bytesPerSecond = SampleRate * bytesPerSample
)

// ffmpegAvailable caches whether ffmpeg is in PATH (checked once at startup).
var ffmpegAvailable *bool

// CheckFFmpeg checks if ffmpeg is available in PATH. Call once at startup.
func CheckFFmpeg() bool {
	if ffmpegAvailable != nil {
		return *ffmpegAvailable
	}
	_, err := exec.LookPath("ffmpeg")
	avail := err == nil
	ffmpegAvailable = &avail
	return avail
}

// Clip is a fully decoded recording held in memory.
type Clip struct {
	pcm []byte
}

// NewClip wraps raw mono 16kHz s16le PCM in a Clip.
func NewClip(pcm []byte) *Clip {
	return &Clip{pcm: pcm}
}

// Decode reads an audio file and decodes the whole recording into memory.
// Any container/codec ffmpeg understands is accepted; the output is
// normalized PCM. Corrupt or unreadable input fails the decode as a whole,
// never returning a partial clip.
func Decode(ctx context.Context, path string) (*Clip, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-f", "s16le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-",
	)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(errBuf.Bytes())
		if len(msg) > 0 {
			return nil, fmt.Errorf("decode %s: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	pcm := out.Bytes()
	if len(pcm) == 0 {
		return nil, fmt.Errorf("decode %s: no audio stream", path)
	}

	// Drop a trailing odd byte so the buffer is a whole number of samples.
	pcm = pcm[:len(pcm)/bytesPerSample*bytesPerSample]

	return &Clip{pcm: pcm}, nil
}

// Duration returns the length of the decoded recording.
func (c *Clip) Duration() time.Duration {
	return time.Duration(len(c.pcm)) * time.Second / bytesPerSecond
}

// Segment is a bounded-duration contiguous slice of one recording, the unit
// of work sent to the recognizer. Segments share the clip's backing buffer.
type Segment struct {
	Index int
	Start time.Duration
	pcm   []byte
}

// Duration returns the length of this segment.
func (s Segment) Duration() time.Duration {
	return time.Duration(len(s.pcm)) * time.Second / bytesPerSecond
}

// PCM returns the segment's raw mono 16kHz s16le samples.
func (s Segment) PCM() []byte {
	return s.pcm
}

// Split cuts the clip into contiguous non-overlapping windows of at most max,
// in ascending time order. The final segment carries the remainder and may be
// shorter. Concatenating the segments in index order reconstructs the clip.
func (c *Clip) Split(max time.Duration) []Segment {
	if max <= 0 {
		return []Segment{{Index: 0, Start: 0, pcm: c.pcm}}
	}

	step := int(max / time.Second * bytesPerSecond)
	step += int(max % time.Second * bytesPerSecond / time.Second)
	// Whole samples only, never a zero step.
	step = step / bytesPerSample * bytesPerSample
	if step <= 0 {
		step = bytesPerSample
	}

	var segs []Segment
	for off := 0; off < len(c.pcm); off += step {
		end := off + step
		if end > len(c.pcm) {
			end = len(c.pcm)
		}
		segs = append(segs, Segment{
			Index: len(segs),
			Start: time.Duration(off) * time.Second / bytesPerSecond,
			pcm:   c.pcm[off:end],
		})
	}
	if len(segs) == 0 {
		segs = append(segs, Segment{Index: 0, Start: 0, pcm: c.pcm})
	}
	return segs
}
