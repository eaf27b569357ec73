package court

import (
	"fmt"
)

// Phase is a named step of the trial procedure
type Phase int

// Phases in procedural order. Judgment is terminal.
const (
	PhaseOpening Phase = iota
	PhasePlaintiffStatement
	PhaseDefendantDefense
	PhaseEvidencePresentation
	PhaseEvidenceCrossExamination
	PhaseCourtInquiry
	PhaseCourtDebate
	PhaseFinalStatement
	PhaseJudgment
)

var phaseNames = [...]string{
	PhaseOpening:                  "opening",
	PhasePlaintiffStatement:       "plaintiff_statement",
	PhaseDefendantDefense:         "defendant_defense",
	PhaseEvidencePresentation:     "evidence_presentation",
	PhaseEvidenceCrossExamination: "evidence_cross_examination",
	PhaseCourtInquiry:             "court_inquiry",
	PhaseCourtDebate:              "court_debate",
	PhaseFinalStatement:           "final_statement",
	PhaseJudgment:                 "judgment",
}

var phaseLabels = [...]string{
	PhaseOpening:                  "Opening",
	PhasePlaintiffStatement:       "Plaintiff Statement",
	PhaseDefendantDefense:         "Defendant Defense",
	PhaseEvidencePresentation:     "Evidence Presentation",
	PhaseEvidenceCrossExamination: "Evidence Cross-Examination",
	PhaseCourtInquiry:             "Court Inquiry",
	PhaseCourtDebate:              "Court Debate",
	PhaseFinalStatement:           "Final Statement",
	PhaseJudgment:                 "Judgment",
}

func (p Phase) valid() bool {
	return p >= PhaseOpening && p <= PhaseJudgment
}

func (p Phase) String() string {
	if !p.valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Label is the human readable phase name
func (p Phase) Label() string {
	if !p.valid() {
		return p.String()
	}
	return phaseLabels[p]
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText decodes a phase name
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}

// Role is an entity permitted to speak in a stage
type Role int

// Roles. The zero value is invalid so that a missing role never reads as a judge.
const (
	RoleUnknown Role = iota
	RoleJudge
	RolePlaintiff
	RoleDefendant
)

var roleNames = [...]string{
	RoleUnknown:   "",
	RoleJudge:     "judge",
	RolePlaintiff: "plaintiff",
	RoleDefendant: "defendant",
}

var roleLabels = [...]string{
	RoleUnknown:   "Unknown",
	RoleJudge:     "Judge",
	RolePlaintiff: "Plaintiff",
	RoleDefendant: "Defendant",
}

// ParseRole parses the wire form of a role
func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if name != "" && name == s {
			return Role(i), nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

func (r Role) valid() bool {
	return r >= RoleJudge && r <= RoleDefendant
}

// IsParty reports whether r is one of the litigants
func (r Role) IsParty() bool {
	return r == RolePlaintiff || r == RoleDefendant
}

// Opponent returns the other litigant, or RoleUnknown for the judge
func (r Role) Opponent() Role {
	switch r {
	case RolePlaintiff:
		return RoleDefendant
	case RoleDefendant:
		return RolePlaintiff
	}
	return RoleUnknown
}

func (r Role) String() string {
	if r < RoleUnknown || r > RoleDefendant {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// Label is the capitalised role name used in transcripts
func (r Role) Label() string {
	if r < RoleUnknown || r > RoleDefendant {
		return r.String()
	}
	return roleLabels[r]
}

// MarshalText encodes the role by name
func (r Role) MarshalText() ([]byte, error) {
	if !r.valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText decodes a role name
func (r *Role) UnmarshalText(b []byte) error {
	role, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
