package court

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Generator produces text for a prompt. roleHint names the role the text is
// spoken as.
type Generator interface {
	Generate(ctx context.Context, prompt, roleHint string) (string, error)
}

// Stream yields fragments of a generation. Recv returns io.EOF once the
// generation is complete.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// StreamingGenerator is a Generator that can also stream its output. The
// concatenated fragments equal the synchronous result.
type StreamingGenerator interface {
	Generator
	GenerateStream(ctx context.Context, prompt, roleHint string) (Stream, error)
}

// Drain reads s to completion and returns the concatenated fragments
func Drain(s Stream) (string, error) {
	var b strings.Builder
	for {
		frag, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, prompt, roleHint string) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, prompt, roleHint string) (string, error) {
	return f(ctx, prompt, roleHint)
}
