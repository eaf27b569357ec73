package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/linesmerrill/ai-court-api/court"
	"github.com/linesmerrill/ai-court-api/generation"
)

const quitCommand = "/quit"

var (
	playCaseFile  string
	playExport    string
	playGenerator string
	playRole      string
)

var (
	phaseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1)

	judgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	plaintiffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	defendantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

// caseFile is the YAML document play reads
type caseFile struct {
	Case     court.CaseFacts  `yaml:"case"`
	Evidence []court.Evidence `yaml:"evidence"`
}

// transcript is the YAML document play exports
type transcript struct {
	SessionID string              `yaml:"session_id"`
	Case      court.CaseFacts     `yaml:"case"`
	Evidence  []court.Evidence    `yaml:"evidence"`
	Records   []court.TrialRecord `yaml:"records"`
	Completed bool                `yaml:"completed"`
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one side of a trial in the terminal",
	Long: `Reads the case facts and any evidence from a YAML file, then runs the trial.
When it is your turn, type your statement and press enter. Type /quit to stop
early. With --export the transcript is written as YAML when the trial ends.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&playCaseFile, "case", "c", "", "YAML case file")
	playCmd.Flags().StringVarP(&playExport, "export", "o", "", "write the transcript to this YAML file")
	playCmd.Flags().StringVar(&playGenerator, "generator", "", "openai or echo (overrides GENERATOR)")
	playCmd.Flags().StringVar(&playRole, "role", "", "plaintiff or defendant (overrides the case file)")
	_ = playCmd.MarkFlagRequired("case")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	cf, err := readCaseFile(playCaseFile)
	if err != nil {
		return err
	}
	if playRole != "" {
		if err := cf.Case.UserRole.UnmarshalText([]byte(playRole)); err != nil {
			return err
		}
	}

	kind := conf.Generator
	if playGenerator != "" {
		kind = playGenerator
	}
	gen, err := generation.New(kind, generation.Config{
		BaseURL:     conf.LLMBaseURL,
		APIKey:      conf.LLMAPIKey,
		Model:       conf.LLMModel,
		Temperature: conf.LLMTemperature,
	}, conf.GenerationTimeout)
	if err != nil {
		return err
	}
	agents := court.NewAgents(gen, court.AgentOptions{Stream: conf.LLMStream})

	c, err := playTrial(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cf, agents)
	if err != nil {
		return err
	}
	if playExport == "" {
		return nil
	}
	if err := exportTranscript(c, playExport); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hintStyle.Render("transcript written to "+playExport))
	return nil
}

func readCaseFile(path string) (caseFile, error) {
	var cf caseFile
	b, err := os.ReadFile(path)
	if err != nil {
		return cf, fmt.Errorf("failed to read case file: %w", err)
	}
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return cf, fmt.Errorf("failed to parse case file %s: %w", path, err)
	}
	return cf, nil
}

// playTrial runs the trial against the lines read from in until judgment,
// end of input or the quit command
func playTrial(ctx context.Context, in io.Reader, out io.Writer, cf caseFile, agents court.Agents) (*court.Coordinator, error) {
	c := court.NewCoordinator(uuid.NewString(), agents)
	if err := c.Start(ctx, cf.Case); err != nil {
		return nil, err
	}
	for _, e := range cf.Evidence {
		if err := c.SubmitEvidence(ctx, e); err != nil {
			return nil, err
		}
	}

	fmt.Fprintln(out, phaseStyle.Render(cf.Case.CaseTitle))
	fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("You are the %s. Type %s to stop.", cf.Case.UserRole, quitCommand)))

	var (
		phase   court.Phase = -1
		scanner             = bufio.NewScanner(in)
		input   string
	)
	for {
		res, err := c.AdvanceStream(ctx, input, func(l court.Line) {
			if l.Phase != phase {
				phase = l.Phase
				fmt.Fprintln(out, phaseStyle.Render("== "+phase.Label()+" =="))
			}
			fmt.Fprintf(out, "%s %s\n", speakerStyle(l.Role).Render(l.Role.Label()+":"), l.Text)
		})
		if err != nil {
			return c, err
		}
		if res.Completed {
			fmt.Fprintln(out, hintStyle.Render("The trial is over."))
			return c, nil
		}

		fmt.Fprint(out, promptStyle.Render(res.CurrentRole.Label()+" > "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			if err := scanner.Err(); err != nil {
				return c, fmt.Errorf("failed to read input: %w", err)
			}
			return c, errors.New("input closed before judgment")
		}
		input = strings.TrimSpace(scanner.Text())
		if input == quitCommand {
			fmt.Fprintln(out, hintStyle.Render("Adjourned."))
			return c, nil
		}
	}
}

func speakerStyle(r court.Role) lipgloss.Style {
	switch r {
	case court.RolePlaintiff:
		return plaintiffStyle
	case court.RoleDefendant:
		return defendantStyle
	}
	return judgeStyle
}

func exportTranscript(c *court.Coordinator, path string) error {
	snap, err := c.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(transcript{
		SessionID: snap.SessionID,
		Case:      snap.Facts,
		Evidence:  snap.Evidence,
		Records:   snap.Records,
		Completed: snap.Completed,
	}); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return enc.Close()
}
