package court

import (
	"fmt"
	"strings"
)

var instructions = map[Kind]string{
	KindStatement:            "Read your statement of claim: state what you ask the court for and the facts and reasons behind it.",
	KindDefense:              "Present your defense and respond to each of the plaintiff's claims.",
	KindEvidencePresentation: "Present your evidence to the court. Cover every item listed above in one statement, giving its name, source and what it proves.",
	KindCrossExamination:     "Give your opinion on the other party's evidence listed above, addressing the authenticity, legality and relevance of each item in one statement.",
	KindInquiryQuestion:      "Ask the %s one or two key questions about the disputed facts.",
	KindAnswer:               "Answer the judge's question.",
	KindDebate:               "Argue the disputed issues and rebut the other side's points.",
	KindFinalStatement:       "Make your final statement, summarising your position and your requests to the court.",
	KindJudgment:             "Deliver the judgment. Cover the basic facts of the case, both parties' claims and defenses, the findings on evidence and facts, the applicable law, and the ruling.",
}

// BuildPrompt renders the prompt for role speaking at stage: an identity
// instruction, the case facts relevant to the stage, the transcript so far
// and the stage instruction.
func BuildPrompt(role Role, stage Stage, snap CaseSnapshot) string {
	var b strings.Builder
	f := snap.Facts

	fmt.Fprintf(&b, "You are the %s in the trial of %q (%s). ", strings.ToLower(role.Label()), f.CaseTitle, f.CaseType)
	fmt.Fprintf(&b, "Speak directly as the %s. Do not explain, analyse or summarise what you are doing.\n\n",
		strings.ToLower(role.Label()))

	b.WriteString("Case facts:\n")
	writeFacts(&b, role, stage, snap)

	b.WriteString("\nTranscript so far:\n")
	if len(snap.Records) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(snap.Transcript())
	}

	b.WriteString("\nInstruction: ")
	b.WriteString(instruction(stage))
	b.WriteString("\n")
	return b.String()
}

func instruction(stage Stage) string {
	text, ok := instructions[stage.Kind]
	if !ok {
		return "Speak as the procedure requires."
	}
	if stage.Kind == KindInquiryQuestion {
		next, _ := Lookup(stage.Next)
		return fmt.Sprintf(text, strings.ToLower(next.Speaker.Label()))
	}
	return text
}

func writeFacts(b *strings.Builder, role Role, stage Stage, snap CaseSnapshot) {
	f := snap.Facts
	plaintiff := func() {
		fmt.Fprintf(b, "- Plaintiff %s claims: %s\n", f.PlaintiffName, f.PlaintiffClaim)
		fmt.Fprintf(b, "- Plaintiff's reasons: %s\n", f.PlaintiffReason)
	}
	defendant := func() {
		fmt.Fprintf(b, "- Defendant %s responds: %s\n", f.DefendantName, f.DefendantResponse)
		if f.DefendantReason != "" {
			fmt.Fprintf(b, "- Defendant's reasons: %s\n", f.DefendantReason)
		}
	}
	own := func() {
		if role == RoleDefendant {
			defendant()
			return
		}
		plaintiff()
	}

	switch stage.Kind {
	case KindStatement, KindFinalStatement:
		own()
	case KindDefense:
		plaintiff()
		defendant()
	case KindEvidencePresentation:
		own()
		writeEvidence(b, "Your evidence", snap.EvidenceBy(role))
	case KindCrossExamination:
		writeEvidence(b, "The other party's evidence", snap.EvidenceBy(role.Opponent()))
	case KindInquiryQuestion:
		plaintiff()
		defendant()
	case KindAnswer:
		own()
		if q, ok := lastLineBy(snap, RoleJudge); ok {
			fmt.Fprintf(b, "- The judge asked: %s\n", q)
		}
	case KindDebate, KindJudgment:
		plaintiff()
		defendant()
		writeEvidence(b, "Evidence before the court", snap.Evidence)
	default:
		fmt.Fprintf(b, "- Case type: %s\n", f.CaseType)
	}
}

func writeEvidence(b *strings.Builder, title string, items []Evidence) {
	if len(items) == 0 {
		fmt.Fprintf(b, "- %s: none submitted\n", title)
		return
	}
	fmt.Fprintf(b, "- %s:\n", title)
	for i, e := range items {
		fmt.Fprintf(b, "  %d. %s (source: %s; purpose: %s): %s\n", i+1, e.Name, e.Source, e.Purpose, e.Content)
	}
}

func lastLineBy(snap CaseSnapshot, role Role) (string, bool) {
	for i := len(snap.Records) - 1; i >= 0; i-- {
		if snap.Records[i].Role == role {
			return snap.Records[i].Text, true
		}
	}
	return "", false
}
