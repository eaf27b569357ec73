package generation

import (
	"fmt"
	"time"

	"github.com/linesmerrill/ai-court-api/court"
)

// Generator kinds accepted by New
const (
	KindOpenAI = "openai"
	KindEcho   = "echo"
)

// New returns the generator of the given kind, each call bounded by timeout
func New(kind string, cfg Config, timeout time.Duration) (court.Generator, error) {
	var gen court.Generator
	switch kind {
	case KindOpenAI:
		gen = NewClient(cfg)
	case KindEcho:
		gen = Echo{}
	default:
		return nil, fmt.Errorf("unknown generator %q", kind)
	}
	return WithTimeout(gen, timeout), nil
}
