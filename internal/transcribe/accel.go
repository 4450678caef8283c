package transcribe

import (
	"os/exec"
	"runtime"
)

// Accelerator is the hardware the recognizer runs on.
type Accelerator int

const (
	AccelCPU Accelerator = iota
	AccelCUDA
	AccelMetal
)

func (a Accelerator) String() string {
	switch a {
	case AccelMetal:
		return "metal"
	case AccelCUDA:
		return "cuda"
	default:
		return "cpu"
	}
}

// DetectAccelerator probes available hardware once, in priority order:
// Apple-silicon Metal, then NVIDIA CUDA, then plain CPU. This is a
// capability check with graceful degradation, not a retry loop.
func DetectAccelerator() Accelerator {
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return AccelMetal
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return AccelCUDA
	}
	return AccelCPU
}
