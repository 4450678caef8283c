package transcribe

import "context"

// ModelSizes are the recognized model size selectors, fastest to slowest.
var ModelSizes = []string{"tiny", "base", "small", "medium", "large"}

// ValidModelSize reports whether name is one of the supported size selectors.
func ValidModelSize(name string) bool {
	for _, s := range ModelSizes {
		if s == name {
			return true
		}
	}
	return false
}

// Provider is the interface for speech-to-text backends. A provider is loaded
// once per process; Transcribe is called once per segment, in segment order.
// Providers are not assumed safe for concurrent use.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string, language string) (string, error)
	Name() string  // "local", "http"
	Model() string // model identifier for logs
}
