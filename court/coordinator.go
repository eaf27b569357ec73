package court

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Line is one spoken line returned by an advance
type Line struct {
	Role  Role     `json:"role"`
	Phase Phase    `json:"phase"`
	Stage StageKey `json:"stage"`
	Text  string   `json:"text"`
}

func lineOf(rec TrialRecord) Line {
	return Line{Role: rec.Role, Phase: rec.Phase, Stage: rec.Stage, Text: rec.Text}
}

// StepResult is the outcome of one advance
type StepResult struct {
	SessionID   string   `json:"sessionId"`
	Phase       Phase    `json:"phase"`
	Stage       StageKey `json:"stage"`
	Content     []Line   `json:"content"`
	NeedsInput  bool     `json:"needsInput"`
	CurrentRole Role     `json:"currentRole"`
	Completed   bool     `json:"completed"`
	Progress    int      `json:"progress"`
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	SessionID string        `json:"sessionId"`
	Facts     CaseFacts     `json:"caseFacts"`
	UserRole  Role          `json:"userRole"`
	Phase     Phase         `json:"currentPhase"`
	Stage     StageKey      `json:"currentStage"`
	Records   []TrialRecord `json:"trialRecords"`
	Evidence  []Evidence    `json:"evidenceList"`
	Completed bool          `json:"completed"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Coordinator runs one trial. All mutation happens under its lock, which is
// held for the whole of an advance including generation calls.
type Coordinator struct {
	id     string
	agents Agents
	store  Store
	now    func() time.Time

	lastActive atomic.Int64

	// closeMu orders the close flag against saves so a closed session is
	// never written back after its record was deleted
	closeMu sync.Mutex
	closed  bool

	mu        sync.Mutex
	started   bool
	caseCtx   *CaseContext
	machine   *StateMachine
	userRole  Role
	createdAt time.Time
	updatedAt time.Time
}

// CoordinatorOption configures a Coordinator
type CoordinatorOption func(*Coordinator)

// WithStore persists the session after every mutating call
func WithStore(s Store) CoordinatorOption {
	return func(c *Coordinator) { c.store = s }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator returns a coordinator for session id. Start must be called
// before the trial can advance.
func NewCoordinator(id string, agents Agents, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		id:     id,
		agents: agents,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.touch()
	return c
}

// RestoreCoordinator rebuilds a coordinator from a stored record. Nothing is
// regenerated; the transcript is replayed as stored.
func RestoreCoordinator(rec SessionRecord, agents Agents, opts ...CoordinatorOption) (*Coordinator, error) {
	if !rec.UserRole.IsParty() {
		return nil, fmt.Errorf("restore session %s: invalid user role %d", rec.SessionID, int(rec.UserRole))
	}
	machine, err := restoreStateMachine(rec.CurrentStage)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", rec.SessionID, err)
	}

	c := NewCoordinator(rec.SessionID, agents, opts...)
	c.caseCtx = newCaseContext(rec.CaseFacts, c.now)
	c.caseCtx.evidence = append([]Evidence(nil), rec.EvidenceList...)
	c.caseCtx.records = append([]TrialRecord(nil), rec.TrialRecords...)
	c.machine = machine
	c.userRole = rec.UserRole
	c.createdAt = rec.CreatedAt
	c.updatedAt = rec.UpdatedAt
	c.started = true
	return c, nil
}

// ID returns the session id
func (c *Coordinator) ID() string {
	return c.id
}

// LastActive returns the time of the last call on this session
func (c *Coordinator) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

func (c *Coordinator) touch() {
	c.lastActive.Store(c.now().UnixNano())
}

// markClosed ends the session. It does not wait for a running advance; that
// advance finishes but nothing it produces is saved.
func (c *Coordinator) markClosed() {
	c.closeMu.Lock()
	c.closed = true
	c.closeMu.Unlock()
}

func (c *Coordinator) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

// Start records the case facts and puts the trial at the opening. Calling
// Start again restarts the trial from scratch.
func (c *Coordinator) Start(ctx context.Context, facts CaseFacts) error {
	if err := facts.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		return ErrSessionNotFound
	}
	if c.started {
		zap.S().Infow("restarting trial", "session", c.id)
	}
	now := c.now().UTC()
	c.caseCtx = newCaseContext(facts, c.now)
	c.machine = NewStateMachine()
	c.userRole = facts.UserRole
	c.createdAt = now
	c.updatedAt = now
	c.started = true
	c.touch()
	c.persist(ctx)
	return nil
}

// SubmitEvidence appends evidence to the case. Submission is accepted at any
// stage of the trial.
func (c *Coordinator) SubmitEvidence(ctx context.Context, e Evidence) error {
	if err := e.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		return ErrSessionNotFound
	}
	if !c.started {
		return ErrTrialNotStarted
	}
	c.caseCtx.addEvidence(e)
	c.updatedAt = c.now().UTC()
	c.touch()
	c.persist(ctx)

	zap.S().Infow("evidence submitted",
		"session", c.id,
		"by", e.SubmittedBy.String(),
		"name", e.Name,
		"stage", c.machine.Key().String())
	return nil
}

// Advance runs the trial forward. See AdvanceStream.
func (c *Coordinator) Advance(ctx context.Context, input string) (StepResult, error) {
	return c.AdvanceStream(ctx, input, nil)
}

// AdvanceStream records input when it is the human's turn, then produces
// machine turns until the human must speak again or the judgment is given.
// The returned content holds every line recorded by the call except the
// human's input.
//
// onLine, when set, is called with each line as soon as it is recorded.
//
// Input supplied outside a human turn is ignored. Once the judgment has been
// given every call returns it again without recording anything.
func (c *Coordinator) AdvanceStream(ctx context.Context, input string, onLine func(Line)) (StepResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		return StepResult{}, ErrSessionNotFound
	}
	if !c.started {
		return StepResult{}, ErrTrialNotStarted
	}
	c.touch()

	var lines []Line
	emit := func(rec TrialRecord) {
		l := lineOf(rec)
		lines = append(lines, l)
		if onLine != nil {
			onLine(l)
		}
	}

	mutated := false
	defer func() {
		if mutated {
			c.updatedAt = c.now().UTC()
			c.persist(context.WithoutCancel(ctx))
		}
	}()

	if input = strings.TrimSpace(input); input != "" {
		stage := c.machine.Current()
		if !stage.Terminal && stage.Speaker == c.userRole {
			// the human's own line is recorded but not echoed back
			c.caseCtx.appendRecord(c.userRole, stage, input)
			c.step(emit)
			mutated = true
		} else {
			// dropped, then the call proceeds like an advance without input
			zap.S().Infow("ignoring input outside a human turn",
				"session", c.id,
				"stage", stage.Key.String(),
				"speaker", stage.Speaker.String())
		}
	}

	for i := 0; i < TableLen(); i++ {
		stage := c.machine.Current()

		if stage.Terminal {
			if rec, ok := c.caseCtx.lastRecordAt(stage.Key, stage.Speaker); ok {
				emit(rec)
				return c.result(lines, false), nil
			}
		}
		if stage.Speaker == c.userRole {
			return c.result(lines, true), nil
		}

		emit(c.caseCtx.appendRecord(stage.Speaker, stage, c.produce(ctx, stage)))
		mutated = true
		if stage.Terminal {
			zap.S().Infow("judgment given", "session", c.id, "records", len(c.caseCtx.records))
			return c.result(lines, false), nil
		}
		c.step(emit)
	}

	zap.S().Errorw("advance exceeded step budget",
		"session", c.id,
		"stage", c.machine.Key().String(),
		"budget", TableLen())
	return c.result(lines, false), fmt.Errorf("%w: session %s stopped at stage %s",
		ErrStepBudgetExceeded, c.id, c.machine.Key())
}

// step moves the cursor and, when the human must speak next, records the
// judge's summons for that stage.
func (c *Coordinator) step(emit func(TrialRecord)) {
	next := c.machine.Advance()
	if next.Summons != nil && next.Speaker == c.userRole {
		emit(c.caseCtx.appendRecord(RoleJudge, next, next.Summons(c.caseCtx.facts)))
	}
}

func (c *Coordinator) produce(ctx context.Context, stage Stage) string {
	if stage.Fixed() {
		return stage.Line(c.caseCtx.facts)
	}
	agent, ok := c.agents[stage.Speaker]
	if !ok {
		zap.S().Errorw("no agent for role", "session", c.id, "role", stage.Speaker.String())
		return Placeholder(stage.Speaker)
	}
	return agent.Speak(ctx, stage, c.caseCtx.snapshot())
}

func (c *Coordinator) completed() bool {
	stage := c.machine.Current()
	if !stage.Terminal {
		return false
	}
	_, ok := c.caseCtx.lastRecordAt(stage.Key, stage.Speaker)
	return ok
}

func (c *Coordinator) result(lines []Line, needsInput bool) StepResult {
	stage := c.machine.Current()
	if lines == nil {
		lines = []Line{}
	}
	return StepResult{
		SessionID:   c.id,
		Phase:       stage.Phase,
		Stage:       stage.Key,
		Content:     lines,
		NeedsInput:  needsInput,
		CurrentRole: stage.Speaker,
		Completed:   c.completed(),
		Progress:    c.machine.Progress(),
	}
}

// Snapshot returns a copy of the session state
func (c *Coordinator) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		return Snapshot{}, ErrSessionNotFound
	}
	if !c.started {
		return Snapshot{}, ErrTrialNotStarted
	}
	cs := c.caseCtx.snapshot()
	return Snapshot{
		SessionID: c.id,
		Facts:     cs.Facts,
		UserRole:  c.userRole,
		Phase:     c.machine.Phase(),
		Stage:     c.machine.Key(),
		Records:   cs.Records,
		Evidence:  cs.Evidence,
		Completed: c.completed(),
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}, nil
}

func (c *Coordinator) record() SessionRecord {
	cs := c.caseCtx.snapshot()
	return SessionRecord{
		SessionID:    c.id,
		CaseFacts:    cs.Facts,
		EvidenceList: cs.Evidence,
		TrialRecords: cs.Records,
		CurrentPhase: c.machine.Phase(),
		CurrentStage: c.machine.Key(),
		UserRole:     c.userRole,
		CreatedAt:    c.createdAt,
		UpdatedAt:    c.updatedAt,
	}
}

// persist saves the session. A failed save is logged and the in-memory
// session stays authoritative. Closed sessions are not saved.
func (c *Coordinator) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		zap.S().Debugw("session closed, not saving", "session", c.id)
		return
	}
	if err := c.store.Save(ctx, c.record()); err != nil {
		zap.S().Errorw("failed to persist session", "session", c.id, "error", err)
	}
}
