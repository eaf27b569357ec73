package court

import (
	"context"
	"sync"
	"time"
)

// SessionRecord is the persisted form of one session. Reloading it restores
// the coordinator without repeating any generation.
type SessionRecord struct {
	SessionID    string        `json:"sessionId" bson:"_id" yaml:"session_id"`
	CaseFacts    CaseFacts     `json:"caseFacts" bson:"caseFacts" yaml:"case_facts"`
	EvidenceList []Evidence    `json:"evidenceList" bson:"evidenceList" yaml:"evidence_list"`
	TrialRecords []TrialRecord `json:"trialRecords" bson:"trialRecords" yaml:"trial_records"`
	CurrentPhase Phase         `json:"currentPhase" bson:"currentPhase" yaml:"current_phase"`
	CurrentStage StageKey      `json:"currentStage" bson:"currentStage" yaml:"current_stage"`
	UserRole     Role          `json:"userRole" bson:"userRole" yaml:"user_role"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt" yaml:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updatedAt" yaml:"updated_at"`
}

// Store persists session records. Load returns ErrSessionNotFound for an
// unknown id.
type Store interface {
	Save(ctx context.Context, rec SessionRecord) error
	Load(ctx context.Context, id string) (*SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

// Counter is implemented by stores that can report how many records they hold
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]SessionRecord
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]SessionRecord)}
}

// Save stores a copy of rec
func (m *MemoryStore) Save(_ context.Context, rec SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.SessionID] = cloneRecord(rec)
	return nil
}

// Load returns a copy of the record for id
func (m *MemoryStore) Load(_ context.Context, id string) (*SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := cloneRecord(rec)
	return &out, nil
}

// Delete removes the record for id. Deleting an unknown id is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// Len returns the number of stored records
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Count is Len for the Counter interface
func (m *MemoryStore) Count(context.Context) (int, error) {
	return m.Len(), nil
}

func cloneRecord(rec SessionRecord) SessionRecord {
	out := rec
	out.EvidenceList = append([]Evidence(nil), rec.EvidenceList...)
	out.TrialRecords = append([]TrialRecord(nil), rec.TrialRecords...)
	return out
}
