package court

import (
	"fmt"
	"strings"
	"time"
)

// CaseFacts are the facts of the case, fixed when the trial starts
type CaseFacts struct {
	CaseTitle         string `json:"caseTitle" bson:"caseTitle" yaml:"case_title"`
	CaseType          string `json:"caseType" bson:"caseType" yaml:"case_type"`
	PlaintiffName     string `json:"plaintiffName" bson:"plaintiffName" yaml:"plaintiff_name"`
	DefendantName     string `json:"defendantName" bson:"defendantName" yaml:"defendant_name"`
	PlaintiffClaim    string `json:"plaintiffClaim" bson:"plaintiffClaim" yaml:"plaintiff_claim"`
	PlaintiffReason   string `json:"plaintiffReason" bson:"plaintiffReason" yaml:"plaintiff_reason"`
	DefendantResponse string `json:"defendantResponse" bson:"defendantResponse" yaml:"defendant_response"`
	DefendantReason   string `json:"defendantReason" bson:"defendantReason" yaml:"defendant_reason"`
	UserRole          Role   `json:"userRole" bson:"userRole" yaml:"user_role"`
}

// Validate checks that every required field is present and that the human
// plays one of the litigants.
func (f CaseFacts) Validate() error {
	required := []struct {
		name, value string
	}{
		{"caseTitle", f.CaseTitle},
		{"caseType", f.CaseType},
		{"plaintiffName", f.PlaintiffName},
		{"defendantName", f.DefendantName},
		{"plaintiffClaim", f.PlaintiffClaim},
		{"plaintiffReason", f.PlaintiffReason},
		{"defendantResponse", f.DefendantResponse},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidCaseFacts, strings.Join(missing, ", "))
	}
	if !f.UserRole.IsParty() {
		return fmt.Errorf("%w: userRole must be plaintiff or defendant", ErrInvalidCaseFacts)
	}
	return nil
}

func (f CaseFacts) partyName(r Role) string {
	switch r {
	case RolePlaintiff:
		return orDefault(f.PlaintiffName, "the plaintiff")
	case RoleDefendant:
		return orDefault(f.DefendantName, "the defendant")
	}
	return ""
}

// Evidence is an item submitted by one of the parties
type Evidence struct {
	Name        string `json:"name" bson:"name" yaml:"name"`
	Source      string `json:"source" bson:"source" yaml:"source"`
	Purpose     string `json:"purpose" bson:"purpose" yaml:"purpose"`
	Content     string `json:"content" bson:"content" yaml:"content"`
	SubmittedBy Role   `json:"submittedBy" bson:"submittedBy" yaml:"submitted_by"`
}

// Validate rejects evidence with missing text fields or a non-party submitter
func (e Evidence) Validate() error {
	required := []struct {
		name, value string
	}{
		{"name", e.Name},
		{"source", e.Source},
		{"purpose", e.Purpose},
		{"content", e.Content},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidEvidence, strings.Join(missing, ", "))
	}
	if !e.SubmittedBy.IsParty() {
		return fmt.Errorf("%w: submittedBy must be plaintiff or defendant", ErrInvalidEvidence)
	}
	return nil
}

// TrialRecord is one turn of the transcript
type TrialRecord struct {
	Role      Role      `json:"role" bson:"role" yaml:"role"`
	Phase     Phase     `json:"phase" bson:"phase" yaml:"phase"`
	Stage     StageKey  `json:"stage" bson:"stage" yaml:"stage"`
	Text      string    `json:"text" bson:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp" yaml:"timestamp"`
}

// CaseContext is the accumulated record of one trial. The facts never change
// after creation; evidence and records are only ever appended.
type CaseContext struct {
	facts    CaseFacts
	evidence []Evidence
	records  []TrialRecord
	now      func() time.Time
}

func newCaseContext(facts CaseFacts, now func() time.Time) *CaseContext {
	if now == nil {
		now = time.Now
	}
	return &CaseContext{facts: facts, now: now}
}

func (c *CaseContext) addEvidence(e Evidence) {
	c.evidence = append(c.evidence, e)
}

func (c *CaseContext) appendRecord(role Role, stage Stage, text string) TrialRecord {
	rec := TrialRecord{
		Role:      role,
		Phase:     stage.Phase,
		Stage:     stage.Key,
		Text:      text,
		Timestamp: c.now().UTC(),
	}
	c.records = append(c.records, rec)
	return rec
}

// lastRecordAt returns the most recent record spoken at stage by role
func (c *CaseContext) lastRecordAt(key StageKey, role Role) (TrialRecord, bool) {
	for i := len(c.records) - 1; i >= 0; i-- {
		r := c.records[i]
		if r.Stage == key && r.Role == role {
			return r, true
		}
	}
	return TrialRecord{}, false
}

// CaseSnapshot is a read-only copy of a CaseContext
type CaseSnapshot struct {
	Facts    CaseFacts
	Evidence []Evidence
	Records  []TrialRecord
}

func (c *CaseContext) snapshot() CaseSnapshot {
	s := CaseSnapshot{
		Facts:    c.facts,
		Evidence: make([]Evidence, len(c.evidence)),
		Records:  make([]TrialRecord, len(c.records)),
	}
	copy(s.Evidence, c.evidence)
	copy(s.Records, c.records)
	return s
}

// EvidenceBy returns the evidence submitted by role, in submission order
func (s CaseSnapshot) EvidenceBy(role Role) []Evidence {
	var out []Evidence
	for _, e := range s.Evidence {
		if e.SubmittedBy == role {
			out = append(out, e)
		}
	}
	return out
}

// Transcript renders the records as "{Role}: {text}" lines
func (s CaseSnapshot) Transcript() string {
	var b strings.Builder
	for _, r := range s.Records {
		b.WriteString(r.Role.Label())
		b.WriteString(": ")
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	return b.String()
}
