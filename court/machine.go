package court

// StateMachine is the cursor over the phase table. It holds no business
// data; the table decides speakers and successors.
type StateMachine struct {
	current StageKey
}

// NewStateMachine starts a machine at the initial stage
func NewStateMachine() *StateMachine {
	return &StateMachine{current: InitialStage}
}

func restoreStateMachine(key StageKey) (*StateMachine, error) {
	if _, ok := Lookup(key); !ok {
		return nil, errUnknownStage(key)
	}
	return &StateMachine{current: key}, nil
}

// Current returns the descriptor of the current stage
func (m *StateMachine) Current() Stage {
	s, _ := Lookup(m.current)
	return s
}

// Key returns the current stage key
func (m *StateMachine) Key() StageKey {
	return m.current
}

// Phase returns the phase of the current stage
func (m *StateMachine) Phase() Phase {
	return m.Current().Phase
}

// Speaker returns the role that speaks at the current stage
func (m *StateMachine) Speaker() Role {
	return m.Current().Speaker
}

// Terminal reports whether the machine has reached the judgment
func (m *StateMachine) Terminal() bool {
	return m.Current().Terminal
}

// Advance moves to the successor stage. It is a no-op at the terminal stage.
func (m *StateMachine) Advance() Stage {
	cur := m.Current()
	if !cur.Terminal {
		m.current = cur.Next
	}
	return m.Current()
}

// Progress is the share of the table already walked, 0 to 100
func (m *StateMachine) Progress() int {
	if m.Terminal() {
		return 100
	}
	return int(m.current) * 100 / TableLen()
}
