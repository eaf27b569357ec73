package court_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/ai-court-api/court"
)

func TestAgent_TrimsOutput(t *testing.T) {
	gen := court.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "\n  Objection, your honour.  \n", nil
	})
	a := court.NewAgent(court.RoleDefendant, gen, court.AgentOptions{})

	got := a.Speak(context.Background(), stage(t, court.StageDefendantDebate), evidenceSnapshot())
	assert.Equal(t, "Objection, your honour.", got)
}

func TestAgent_EmptyOutputIsRetried(t *testing.T) {
	calls := 0
	gen := court.GeneratorFunc(func(context.Context, string, string) (string, error) {
		calls++
		if calls == 1 {
			return "   ", nil
		}
		return "second try", nil
	})
	a := court.NewAgent(court.RoleJudge, gen, court.AgentOptions{})

	assert.Equal(t, "second try", a.Speak(context.Background(), stage(t, court.StageJudgment), evidenceSnapshot()))
	assert.Equal(t, 2, calls)
}

func TestAgent_Attempts(t *testing.T) {
	calls := 0
	gen := court.GeneratorFunc(func(context.Context, string, string) (string, error) {
		calls++
		return "", errors.New("mocked-error")
	})
	a := court.NewAgent(court.RoleJudge, gen, court.AgentOptions{Attempts: 3})

	assert.Equal(t, "As judge, I will respond based on the case.", a.Speak(context.Background(), stage(t, court.StageJudgment), evidenceSnapshot()))
	assert.Equal(t, 3, calls)
}

func TestAgent_RoleHint(t *testing.T) {
	var hint string
	gen := court.GeneratorFunc(func(_ context.Context, _ string, roleHint string) (string, error) {
		hint = roleHint
		return "ok", nil
	})
	court.NewAgents(gen, court.AgentOptions{})[court.RolePlaintiff].
		Speak(context.Background(), stage(t, court.StagePlaintiffDebate), evidenceSnapshot())
	assert.Equal(t, "plaintiff", hint)
}

type brokenStream struct{ sent bool }

func (s *brokenStream) Recv() (string, error) {
	if !s.sent {
		s.sent = true
		return "partial", nil
	}
	return "", errors.New("connection reset")
}

func (s *brokenStream) Close() error { return nil }

func TestDrain(t *testing.T) {
	got, err := court.Drain(&sliceStream{frags: []string{"I ", "object", "."}})
	assert.NoError(t, err)
	assert.Equal(t, "I object.", got)

	got, err = court.Drain(&brokenStream{})
	assert.EqualError(t, err, "connection reset")
	assert.Equal(t, "partial", got)
}

func TestCaseSnapshot(t *testing.T) {
	snap := evidenceSnapshot()

	assert.Len(t, snap.EvidenceBy(court.RolePlaintiff), 2)
	assert.Len(t, snap.EvidenceBy(court.RoleDefendant), 1)
	assert.Empty(t, snap.EvidenceBy(court.RoleJudge))
	assert.Equal(t, "Judge: The court is now in session.\nPlaintiff: I lent 10000.\n", snap.Transcript())
}
