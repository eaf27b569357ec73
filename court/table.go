package court

import (
	"fmt"
)

// StageKey identifies one turn descriptor of the phase table
type StageKey int

// Stage keys in table order
const (
	StageOpening StageKey = iota
	StagePlaintiffStatement
	StageDefendantDefense
	StagePlaintiffEvidence
	StageDefendantCross
	StageJudgeQuestionPlaintiff
	StagePlaintiffAnswer
	StageJudgeQuestionDefendant
	StageDefendantAnswer
	StageDebateOpening
	StagePlaintiffDebate
	StageDefendantDebate
	StagePlaintiffFinal
	StageDefendantFinal
	StageJudgment
)

var stageNames = [...]string{
	StageOpening:                "opening",
	StagePlaintiffStatement:     "plaintiff_statement",
	StageDefendantDefense:       "defendant_defense",
	StagePlaintiffEvidence:      "plaintiff_evidence",
	StageDefendantCross:         "defendant_cross",
	StageJudgeQuestionPlaintiff: "judge_question_plaintiff",
	StagePlaintiffAnswer:        "plaintiff_answer",
	StageJudgeQuestionDefendant: "judge_question_defendant",
	StageDefendantAnswer:        "defendant_answer",
	StageDebateOpening:          "debate_opening",
	StagePlaintiffDebate:        "plaintiff_debate",
	StageDefendantDebate:        "defendant_debate",
	StagePlaintiffFinal:         "plaintiff_final",
	StageDefendantFinal:         "defendant_final",
	StageJudgment:               "judgment",
}

func (k StageKey) String() string {
	if k < StageOpening || k > StageJudgment {
		return fmt.Sprintf("stage(%d)", int(k))
	}
	return stageNames[k]
}

// MarshalText encodes the stage by name
func (k StageKey) MarshalText() ([]byte, error) {
	if k < StageOpening || k > StageJudgment {
		return nil, fmt.Errorf("invalid stage %d", int(k))
	}
	return []byte(stageNames[k]), nil
}

// UnmarshalText decodes a stage name
func (k *StageKey) UnmarshalText(b []byte) error {
	for i, name := range stageNames {
		if name == string(b) {
			*k = StageKey(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(b))
}

// Kind selects how a stage's line is produced. KindFixed lines are procedural
// judge announcements; every other kind is generated by a RoleAgent.
type Kind int

// Line kinds
const (
	KindFixed Kind = iota
	KindStatement
	KindDefense
	KindEvidencePresentation
	KindCrossExamination
	KindInquiryQuestion
	KindAnswer
	KindDebate
	KindFinalStatement
	KindJudgment
)

// Stage describes one turn of the procedure: who speaks, during which phase,
// how the line is produced and which stage follows.
type Stage struct {
	Key     StageKey
	Phase   Phase
	Speaker Role
	Kind    Kind
	// Line renders the fixed text for KindFixed stages.
	Line func(CaseFacts) string
	// Summons is the judge's call on the speaking party, spoken only when that
	// party is played by the human.
	Summons func(CaseFacts) string
	Next    StageKey
	// Terminal stages have no successor; advancing past them is a no-op.
	Terminal bool
}

// Fixed reports whether the stage's line is procedural text
func (s Stage) Fixed() bool {
	return s.Kind == KindFixed
}

// InitialStage is where every trial starts
const InitialStage = StageOpening

func fixed(text string) func(CaseFacts) string {
	return func(CaseFacts) string { return text }
}

func openingLine(f CaseFacts) string {
	return fmt.Sprintf("All present, please observe courtroom discipline: no disturbance, no recording, "+
		"and phones on silent. The civil division now publicly hears the %s case of plaintiff %s "+
		"against defendant %s. The court is now in session.",
		orDefault(f.CaseType, "civil dispute"),
		orDefault(f.PlaintiffName, "the plaintiff"),
		orDefault(f.DefendantName, "the defendant"))
}

func summonParty(role Role, request string) func(CaseFacts) string {
	return func(f CaseFacts) string {
		return fmt.Sprintf("%s %s, %s", role.Label(), f.partyName(role), request)
	}
}

var phaseTable = []Stage{
	{
		Key: StageOpening, Phase: PhaseOpening, Speaker: RoleJudge, Kind: KindFixed,
		Line: openingLine, Next: StagePlaintiffStatement,
	},
	{
		Key: StagePlaintiffStatement, Phase: PhasePlaintiffStatement, Speaker: RolePlaintiff, Kind: KindStatement,
		Summons: summonParty(RolePlaintiff, "please read your statement of claim."),
		Next:    StageDefendantDefense,
	},
	{
		Key: StageDefendantDefense, Phase: PhaseDefendantDefense, Speaker: RoleDefendant, Kind: KindDefense,
		Summons: summonParty(RoleDefendant, "please present your defense."),
		Next:    StagePlaintiffEvidence,
	},
	{
		Key: StagePlaintiffEvidence, Phase: PhaseEvidencePresentation, Speaker: RolePlaintiff, Kind: KindEvidencePresentation,
		Summons: summonParty(RolePlaintiff, "please present your evidence, stating the name, source and purpose of each item."),
		Next:    StageDefendantCross,
	},
	{
		Key: StageDefendantCross, Phase: PhaseEvidenceCrossExamination, Speaker: RoleDefendant, Kind: KindCrossExamination,
		Summons: summonParty(RoleDefendant, "please give your opinion on the evidence: its authenticity, legality and relevance."),
		Next:    StageJudgeQuestionPlaintiff,
	},
	{
		Key: StageJudgeQuestionPlaintiff, Phase: PhaseCourtInquiry, Speaker: RoleJudge, Kind: KindInquiryQuestion,
		Next: StagePlaintiffAnswer,
	},
	{
		Key: StagePlaintiffAnswer, Phase: PhaseCourtInquiry, Speaker: RolePlaintiff, Kind: KindAnswer,
		Next: StageJudgeQuestionDefendant,
	},
	{
		Key: StageJudgeQuestionDefendant, Phase: PhaseCourtInquiry, Speaker: RoleJudge, Kind: KindInquiryQuestion,
		Next: StageDefendantAnswer,
	},
	{
		Key: StageDefendantAnswer, Phase: PhaseCourtInquiry, Speaker: RoleDefendant, Kind: KindAnswer,
		Next: StageDebateOpening,
	},
	{
		Key: StageDebateOpening, Phase: PhaseCourtDebate, Speaker: RoleJudge, Kind: KindFixed,
		Line: fixed("The court now opens the debate. Both parties, please argue the disputed issues, " +
			"such as the validity of the agreement and any damages claimed."),
		Next: StagePlaintiffDebate,
	},
	{
		Key: StagePlaintiffDebate, Phase: PhaseCourtDebate, Speaker: RolePlaintiff, Kind: KindDebate,
		Next: StageDefendantDebate,
	},
	{
		Key: StageDefendantDebate, Phase: PhaseCourtDebate, Speaker: RoleDefendant, Kind: KindDebate,
		Next: StagePlaintiffFinal,
	},
	{
		Key: StagePlaintiffFinal, Phase: PhaseFinalStatement, Speaker: RolePlaintiff, Kind: KindFinalStatement,
		Summons: summonParty(RolePlaintiff, "the debate is closed. Please make your final statement."),
		Next:    StageDefendantFinal,
	},
	{
		Key: StageDefendantFinal, Phase: PhaseFinalStatement, Speaker: RoleDefendant, Kind: KindFinalStatement,
		Summons: summonParty(RoleDefendant, "please make your final statement."),
		Next:    StageJudgment,
	},
	{
		Key: StageJudgment, Phase: PhaseJudgment, Speaker: RoleJudge, Kind: KindJudgment,
		Next: StageJudgment, Terminal: true,
	},
}

func init() {
	if err := validateTable(phaseTable); err != nil {
		panic(err)
	}
}

// Lookup returns the stage descriptor for key
func Lookup(key StageKey) (Stage, bool) {
	if key < 0 || int(key) >= len(phaseTable) {
		return Stage{}, false
	}
	return phaseTable[key], true
}

// Stages returns a copy of the phase table in order
func Stages() []Stage {
	out := make([]Stage, len(phaseTable))
	copy(out, phaseTable)
	return out
}

// TableLen is the number of stages and the upper bound on turns produced by
// a single advance.
func TableLen() int {
	return len(phaseTable)
}

func validateTable(table []Stage) error {
	if len(table) == 0 {
		return fmt.Errorf("phase table is empty")
	}
	terminals := 0
	for i, s := range table {
		if int(s.Key) != i {
			return fmt.Errorf("stage %s is at index %d", s.Key, i)
		}
		if !s.Speaker.valid() {
			return fmt.Errorf("stage %s has no speaker", s.Key)
		}
		if s.Fixed() && s.Line == nil {
			return fmt.Errorf("fixed stage %s has no line", s.Key)
		}
		if s.Summons != nil && !s.Speaker.IsParty() {
			return fmt.Errorf("stage %s summons a non-party", s.Key)
		}
		if int(s.Next) < 0 || int(s.Next) >= len(table) {
			return fmt.Errorf("stage %s has unknown successor %d", s.Key, int(s.Next))
		}
		if s.Terminal {
			terminals++
		}
	}
	if terminals != 1 {
		return fmt.Errorf("phase table has %d terminal stages, want 1", terminals)
	}

	// the chain from the initial stage must reach the terminal stage without
	// revisiting a stage and without the phase order going backwards
	seen := make(map[StageKey]bool, len(table))
	key := InitialStage
	for !table[key].Terminal {
		if seen[key] {
			return fmt.Errorf("phase table loops at stage %s", key)
		}
		seen[key] = true
		next := table[key].Next
		if table[next].Phase < table[key].Phase {
			return fmt.Errorf("stage %s goes back to phase %s", next, table[next].Phase)
		}
		key = next
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
