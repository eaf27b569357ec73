package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/ai-court-api/api"
	"github.com/linesmerrill/ai-court-api/config"
	"github.com/linesmerrill/ai-court-api/court"
	"github.com/linesmerrill/ai-court-api/generation"
	"github.com/linesmerrill/ai-court-api/models"
)

var a App

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

const loanCase = `{"caseTitle":"Zhang v. Li","caseType":"private lending dispute",` +
	`"plaintiffName":"Zhang","defendantName":"Li","plaintiffClaim":"repay 10000",` +
	`"plaintiffReason":"loan agreement","defendantResponse":"already repaid","userRole":"plaintiff"}`

func echoApp(conf config.Config) App {
	return App{
		Config:   conf,
		Registry: court.NewRegistry(court.NewAgents(generation.Echo{}, court.AgentOptions{})),
		Metrics:  api.NewMetricsCollector(),
	}
}

func TestUnknownRoute(t *testing.T) {
	a = echoApp(config.Config{})
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a = echoApp(config.Config{})
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestApp_CourtRoutesUnauthorized(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	a = echoApp(config.Config{OperatorEmail: "clerk@court.test", OperatorPasswordHash: string(hash)})
	a.Router = a.New()

	req, _ := http.NewRequest("POST", "/api/v1/court/start_trial", strings.NewReader(loanCase))
	response := executeRequest(req)
	checkResponseCode(t, http.StatusUnauthorized, response.Code)

	req, _ = http.NewRequest("POST", "/api/v1/auth/token", nil)
	req.SetBasicAuth("clerk@court.test", "s3cret")
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response.Code)
	var token models.TokenResponse
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &token))

	req, _ = http.NewRequest("POST", "/api/v1/court/start_trial", strings.NewReader(loanCase))
	req.Header.Set("Authorization", "Bearer "+token.Token)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusCreated, response.Code)
}

func TestApp_TrialOverHTTP(t *testing.T) {
	a = echoApp(config.Config{RequestTimeout: time.Minute})
	a.Router = a.New()

	req, _ := http.NewRequest("POST", "/api/v1/court/start_trial", strings.NewReader(loanCase))
	response := executeRequest(req)
	checkResponseCode(t, http.StatusCreated, response.Code)
	var started models.StartTrialResponse
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &started))
	require.NotEmpty(t, started.SessionID)
	base := "/api/v1/court/session/" + started.SessionID

	req, _ = http.NewRequest("POST", base+"/advance", http.NoBody)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response.Code)
	var step court.StepResult
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &step))
	assert.Len(t, step.Content, 2)
	assert.True(t, step.NeedsInput)
	assert.Equal(t, court.RolePlaintiff, step.CurrentRole)

	req, _ = http.NewRequest("POST", base+"/evidence", strings.NewReader(
		`{"name":"IOU","source":"signed by Li","purpose":"proves the loan","content":"Li owes Zhang 10000","submittedBy":"plaintiff"}`))
	response = executeRequest(req)
	checkResponseCode(t, http.StatusCreated, response.Code)

	req, _ = http.NewRequest("POST", base+"/advance", strings.NewReader(`{"userInput":"I lent Li 10000."}`))
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response.Code)
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &step))
	assert.Equal(t, court.PhaseEvidencePresentation, step.Phase)

	req, _ = http.NewRequest("GET", base, nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response.Code)
	var snap court.Snapshot
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &snap))
	assert.Equal(t, court.RolePlaintiff, snap.UserRole)
	assert.Len(t, snap.Evidence, 1)
	assert.Len(t, snap.Records, 5)

	req, _ = http.NewRequest("DELETE", base, nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response.Code)

	req, _ = http.NewRequest("GET", base, nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusNotFound, response.Code)

	req, _ = http.NewRequest("GET", "/api/v1/metrics?limit=1", nil)
	response = executeRequest(req)
	checkResponseCode(t, http.StatusOK, response.Code)
	var summary MetricsResponse
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &summary))
	assert.Zero(t, summary.LiveSessions)
	assert.Zero(t, summary.StoredSessions)
	assert.Equal(t, int64(7), summary.TotalRequests)
	assert.Equal(t, int64(1), summary.TotalErrors)
	require.Len(t, summary.Routes, 1)
	assert.Equal(t, "/api/v1/court/session/{session_id}", summary.Routes[0].Route)
	assert.Equal(t, int64(2), summary.Routes[0].Count)
}

func TestApp_MetricsInvalidLimit(t *testing.T) {
	a = echoApp(config.Config{})
	a.Router = a.New()

	req, _ := http.NewRequest("GET", "/api/v1/metrics?limit=many", nil)
	response := executeRequest(req)
	checkResponseCode(t, http.StatusBadRequest, response.Code)
}

type countingSessions struct {
	live, stored int
	err          error
}

func (c countingSessions) Len() int { return c.live }

func (c countingSessions) StoredCount(context.Context) (int, error) { return c.stored, c.err }

func TestMetricsHandler_SessionCounts(t *testing.T) {
	m := Metrics{Collector: api.NewMetricsCollector(), Sessions: countingSessions{live: 2, stored: 5}}

	rr := httptest.NewRecorder()
	m.MetricsHandler(rr, httptest.NewRequest("GET", "/api/v1/metrics", nil))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var got MetricsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 2, got.LiveSessions)
	assert.Equal(t, 5, got.StoredSessions)

	m.Sessions = countingSessions{err: errors.New("mocked-error")}
	rr = httptest.NewRecorder()
	m.MetricsHandler(rr, httptest.NewRequest("GET", "/api/v1/metrics", nil))
	checkResponseCode(t, http.StatusInternalServerError, rr.Code)
}

func TestApp_InitializeSQLite(t *testing.T) {
	ctx := context.Background()
	conf := config.Config{
		StoreDriver:       "sqlite",
		SQLitePath:        filepath.Join(t.TempDir(), "court.db"),
		Generator:         "echo",
		GenerationTimeout: time.Minute,
		SessionTTL:        time.Hour,
	}

	a = App{Config: conf}
	require.NoError(t, a.Initialize(ctx))
	require.NotNil(t, a.Router)
	require.NotNil(t, a.Registry)

	id, err := a.Registry.Start(ctx, court.CaseFacts{
		CaseTitle: "Zhang v. Li", CaseType: "private lending dispute",
		PlaintiffName: "Zhang", DefendantName: "Li",
		PlaintiffClaim: "repay 10000", PlaintiffReason: "loan agreement",
		DefendantResponse: "already repaid", UserRole: court.RoleDefendant,
	})
	require.NoError(t, err)
	require.NoError(t, a.Close(ctx))

	// a second app over the same file picks the session up again
	b := App{Config: conf}
	require.NoError(t, b.Initialize(ctx))
	defer b.Close(ctx)
	snap, err := b.Registry.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, court.RoleDefendant, snap.UserRole)
}

func TestApp_InitializeErrors(t *testing.T) {
	ctx := context.Background()

	a = App{Config: config.Config{StoreDriver: "memory", Generator: "oracle", GenerationTimeout: time.Minute}}
	assert.EqualError(t, a.Initialize(ctx), `unknown generator "oracle"`)

	a = App{Config: config.Config{StoreDriver: "etcd", Generator: "echo"}}
	assert.EqualError(t, a.Initialize(ctx), `unknown store driver "etcd"`)
}
