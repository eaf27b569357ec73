package generation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/linesmerrill/ai-court-api/court"
)

const instructionPrefix = "Instruction: "

// Echo answers every prompt by restating its instruction. It needs no
// network and always returns the same text for the same prompt.
type Echo struct{}

// Generate implements court.Generator
func (Echo) Generate(ctx context.Context, prompt, roleHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Speaking as the %s: %s", roleHint, lastInstruction(prompt)), nil
}

// GenerateStream yields the Generate text one word at a time
func (e Echo) GenerateStream(ctx context.Context, prompt, roleHint string) (court.Stream, error) {
	text, err := e.Generate(ctx, prompt, roleHint)
	if err != nil {
		return nil, err
	}
	return &wordStream{ctx: ctx, words: strings.SplitAfter(text, " ")}, nil
}

func lastInstruction(prompt string) string {
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], instructionPrefix) {
			return strings.TrimPrefix(lines[i], instructionPrefix)
		}
	}
	return "I have nothing further to add."
}

type wordStream struct {
	ctx   context.Context
	words []string
}

func (w *wordStream) Recv() (string, error) {
	if err := w.ctx.Err(); err != nil {
		return "", err
	}
	if len(w.words) == 0 {
		return "", io.EOF
	}
	next := w.words[0]
	w.words = w.words[1:]
	return next, nil
}

func (w *wordStream) Close() error {
	w.words = nil
	return nil
}
