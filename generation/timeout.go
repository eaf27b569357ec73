package generation

import (
	"context"
	"time"

	"github.com/linesmerrill/ai-court-api/court"
)

// WithTimeout bounds every call to gen by d. The returned generator streams
// when gen does.
func WithTimeout(gen court.Generator, d time.Duration) court.Generator {
	if d <= 0 {
		return gen
	}
	t := timeoutGenerator{gen: gen, d: d}
	if _, ok := gen.(court.StreamingGenerator); ok {
		return timeoutStreamingGenerator{t}
	}
	return t
}

type timeoutGenerator struct {
	gen court.Generator
	d   time.Duration
}

func (t timeoutGenerator) Generate(ctx context.Context, prompt, roleHint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.gen.Generate(ctx, prompt, roleHint)
}

type timeoutStreamingGenerator struct {
	timeoutGenerator
}

func (t timeoutStreamingGenerator) GenerateStream(ctx context.Context, prompt, roleHint string) (court.Stream, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	s, err := t.gen.(court.StreamingGenerator).GenerateStream(ctx, prompt, roleHint)
	if err != nil {
		cancel()
		return nil, err
	}
	return &cancelStream{Stream: s, cancel: cancel}, nil
}

// cancelStream releases the deadline once the stream is closed
type cancelStream struct {
	court.Stream
	cancel context.CancelFunc
}

func (s *cancelStream) Close() error {
	defer s.cancel()
	return s.Stream.Close()
}
