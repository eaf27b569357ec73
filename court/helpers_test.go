package court_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/linesmerrill/ai-court-api/court"
)

func loanFacts(role court.Role) court.CaseFacts {
	return court.CaseFacts{
		CaseTitle:         "Zhang v. Li",
		CaseType:          "private lending dispute",
		PlaintiffName:     "Zhang",
		DefendantName:     "Li",
		PlaintiffClaim:    "repay 10000",
		PlaintiffReason:   "a loan agreement was signed in March",
		DefendantResponse: "already repaid",
		DefendantReason:   "the money was returned in cash",
		UserRole:          role,
	}
}

// recordingGenerator answers "<role> speaks" and remembers every call
type recordingGenerator struct {
	mu      sync.Mutex
	prompts []string
	hints   []string
	fail    int
	err     error
}

func (g *recordingGenerator) Generate(_ context.Context, prompt, roleHint string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.hints = append(g.hints, roleHint)
	if g.fail > 0 {
		g.fail--
		return "", errors.New("mocked-error")
	}
	if g.err != nil {
		return "", g.err
	}
	return roleHint + " speaks", nil
}

func (g *recordingGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func (g *recordingGenerator) lastPrompt(roleHint string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.hints) - 1; i >= 0; i-- {
		if g.hints[i] == roleHint {
			return g.prompts[i]
		}
	}
	return ""
}

// streamingGenerator splits its answer into word fragments
type streamingGenerator struct {
	recordingGenerator
	streams int
}

type sliceStream struct {
	frags  []string
	closed bool
}

func (s *sliceStream) Recv() (string, error) {
	if len(s.frags) == 0 {
		return "", io.EOF
	}
	f := s.frags[0]
	s.frags = s.frags[1:]
	return f, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

func (g *streamingGenerator) GenerateStream(ctx context.Context, prompt, roleHint string) (court.Stream, error) {
	g.mu.Lock()
	g.streams++
	g.mu.Unlock()
	text, err := g.Generate(ctx, prompt, roleHint)
	if err != nil {
		return nil, err
	}
	var frags []string
	for i, w := range strings.Fields(text) {
		if i > 0 {
			w = " " + w
		}
		frags = append(frags, w)
	}
	return &sliceStream{frags: frags}, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// failingStore rejects every write
type failingStore struct{}

func (failingStore) Save(context.Context, court.SessionRecord) error {
	return errors.New("mocked-error")
}

func (failingStore) Load(context.Context, string) (*court.SessionRecord, error) {
	return nil, court.ErrSessionNotFound
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("mocked-error")
}

// playToJudgment answers every human turn until the trial completes and
// returns the number of answers given
func playToJudgment(ctx context.Context, c *court.Coordinator) (int, court.StepResult, error) {
	res, err := c.Advance(ctx, "")
	turns := 0
	for i := 0; err == nil && !res.Completed && i < 20; i++ {
		turns++
		res, err = c.Advance(ctx, "human answer "+res.Stage.String())
	}
	return turns, res, err
}
