package court

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseTable_Valid(t *testing.T) {
	require.NoError(t, validateTable(phaseTable))
	assert.Equal(t, 15, TableLen())

	first, ok := Lookup(InitialStage)
	require.True(t, ok)
	assert.Equal(t, PhaseOpening, first.Phase)
	assert.Equal(t, RoleJudge, first.Speaker)

	last, ok := Lookup(StageJudgment)
	require.True(t, ok)
	assert.True(t, last.Terminal)
	assert.Equal(t, RoleJudge, last.Speaker)

	_, ok = Lookup(StageKey(TableLen()))
	assert.False(t, ok)
}

func TestPhaseTable_Summons(t *testing.T) {
	withSummons := map[StageKey]bool{
		StagePlaintiffStatement: true,
		StageDefendantDefense:   true,
		StagePlaintiffEvidence:  true,
		StageDefendantCross:     true,
		StagePlaintiffFinal:     true,
		StageDefendantFinal:     true,
	}
	facts := CaseFacts{PlaintiffName: "Zhang", DefendantName: "Li"}
	for _, s := range Stages() {
		assert.Equal(t, withSummons[s.Key], s.Summons != nil, s.Key.String())
		if s.Summons != nil {
			assert.Contains(t, s.Summons(facts), facts.partyName(s.Speaker))
		}
	}
}

func TestValidateTable_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]Stage)
		want   string
	}{
		{
			name:   "loop inside a phase",
			mutate: func(tb []Stage) { tb[StagePlaintiffAnswer].Next = StageJudgeQuestionPlaintiff },
			want:   "loops",
		},
		{
			name:   "phase goes back",
			mutate: func(tb []Stage) { tb[StageDefendantCross].Next = StagePlaintiffStatement },
			want:   "goes back",
		},
		{
			name:   "no terminal",
			mutate: func(tb []Stage) { tb[StageJudgment].Terminal = false },
			want:   "0 terminal",
		},
		{
			name:   "unknown successor",
			mutate: func(tb []Stage) { tb[StageOpening].Next = StageKey(42) },
			want:   "unknown successor",
		},
		{
			name:   "fixed stage without a line",
			mutate: func(tb []Stage) { tb[StageDebateOpening].Line = nil },
			want:   "has no line",
		},
		{
			name:   "judge summoned",
			mutate: func(tb []Stage) { tb[StageOpening].Summons = fixed("x") },
			want:   "non-party",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Stages()
			tt.mutate(table)
			err := validateTable(table)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStateMachine_WalksTableOnce(t *testing.T) {
	m := NewStateMachine()
	assert.Equal(t, StageOpening, m.Key())
	assert.Equal(t, 0, m.Progress())

	steps := 0
	for !m.Terminal() {
		prev := m.Phase()
		m.Advance()
		assert.GreaterOrEqual(t, int(m.Phase()), int(prev))
		steps++
	}
	assert.Equal(t, TableLen()-1, steps)
	assert.Equal(t, RoleJudge, m.Speaker())
	assert.Equal(t, 100, m.Progress())

	m.Advance()
	assert.Equal(t, StageJudgment, m.Key())

	_, err := restoreStateMachine(StageKey(-1))
	assert.Error(t, err)
}

func TestEnums_TextForm(t *testing.T) {
	b, err := json.Marshal(TrialRecord{Role: RoleDefendant, Phase: PhaseCourtInquiry, Stage: StageDefendantAnswer, Text: "no"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"role":"defendant"`)
	assert.Contains(t, string(b), `"phase":"court_inquiry"`)
	assert.Contains(t, string(b), `"stage":"defendant_answer"`)

	var f CaseFacts
	require.NoError(t, json.Unmarshal([]byte(`{"userRole":"plaintiff"}`), &f))
	assert.Equal(t, RolePlaintiff, f.UserRole)

	err = json.Unmarshal([]byte(`{"userRole":"jury"}`), &f)
	assert.Error(t, err)

	_, err = ParseRole("")
	assert.Error(t, err)
	assert.Equal(t, RoleDefendant, RolePlaintiff.Opponent())
	assert.Equal(t, RoleUnknown, RoleJudge.Opponent())
	assert.Equal(t, "Evidence Cross-Examination", PhaseEvidenceCrossExamination.Label())
}
