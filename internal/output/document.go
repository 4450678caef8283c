package output

import (
	"strings"
	"time"
)

// Document is one assembled transcript: the per-segment texts in index order
// plus provenance metadata. Immutable once assembled.
type Document struct {
	Source   string // original audio filename
	Created  time.Time
	Body     string
	Segments int
}

// Assemble joins per-segment texts with a single line break, in index order.
// An empty segment still contributes an empty line so the transcript keeps
// positional correspondence with the source timeline.
func Assemble(source string, texts []string) *Document {
	return &Document{
		Source:   source,
		Created:  time.Now(),
		Body:     strings.Join(texts, "\n"),
		Segments: len(texts),
	}
}
