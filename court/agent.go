package court

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Agent speaks for one role
type Agent interface {
	// Speak returns the role's line for stage. It never fails: when the
	// generator cannot produce text a placeholder line is returned instead.
	Speak(ctx context.Context, stage Stage, snap CaseSnapshot) string
}

// Agents selects the Agent for each role
type Agents map[Role]Agent

// AgentOptions tunes how agents call the generator
type AgentOptions struct {
	// Stream drains GenerateStream when the generator supports it
	Stream bool
	// Attempts is the number of generation calls made before falling back
	// to the placeholder. Zero means two: the first call and one retry.
	Attempts int
}

var errEmptyGeneration = errors.New("generator returned no text")

type roleAgent struct {
	role     Role
	gen      Generator
	stream   bool
	attempts int
}

// NewAgent returns an Agent that speaks as role using gen
func NewAgent(role Role, gen Generator, opts AgentOptions) Agent {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 2
	}
	return &roleAgent{
		role:     role,
		gen:      gen,
		stream:   opts.Stream,
		attempts: attempts,
	}
}

// NewAgents builds the judge, plaintiff and defendant agents over one generator
func NewAgents(gen Generator, opts AgentOptions) Agents {
	return Agents{
		RoleJudge:     NewAgent(RoleJudge, gen, opts),
		RolePlaintiff: NewAgent(RolePlaintiff, gen, opts),
		RoleDefendant: NewAgent(RoleDefendant, gen, opts),
	}
}

// Placeholder is the line used when generation fails for role
func Placeholder(role Role) string {
	return fmt.Sprintf("As %s, I will respond based on the case.", strings.ToLower(role.Label()))
}

func (a *roleAgent) Speak(ctx context.Context, stage Stage, snap CaseSnapshot) string {
	prompt := BuildPrompt(a.role, stage, snap)

	var err error
	for attempt := 1; attempt <= a.attempts; attempt++ {
		var text string
		text, err = a.generate(ctx, prompt)
		if err == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text
			}
			err = errEmptyGeneration
		}
		zap.S().Warnw("generation attempt failed",
			"role", a.role.String(),
			"stage", stage.Key.String(),
			"attempt", attempt,
			"error", err)
		if ctx.Err() != nil {
			break
		}
	}

	zap.S().Errorw("generation failed, using placeholder",
		"role", a.role.String(),
		"stage", stage.Key.String(),
		"error", err)
	return Placeholder(a.role)
}

func (a *roleAgent) generate(ctx context.Context, prompt string) (string, error) {
	roleHint := strings.ToLower(a.role.Label())
	if sg, ok := a.gen.(StreamingGenerator); ok && a.stream {
		s, err := sg.GenerateStream(ctx, prompt, roleHint)
		if err != nil {
			return "", err
		}
		defer s.Close()
		return Drain(s)
	}
	return a.gen.Generate(ctx, prompt, roleHint)
}
