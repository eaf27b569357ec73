package generation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/ai-court-api/court"
	"github.com/linesmerrill/ai-court-api/generation"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Stream      bool    `json:"stream"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newCompletionServer(t *testing.T, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got.Model == "broken" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
			return
		}

		if !got.Stream {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"test",` +
				`"choices":[{"index":0,"message":{"role":"assistant","content":"The defendant denies the claim."},"finish_reason":"stop"}]}`))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, frag := range []string{"The defendant ", "denies ", "the claim."} {
			chunk := fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","model":"test","choices":[{"index":0,"delta":{"content":%q}}]}`, frag)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestClient_Generate(t *testing.T) {
	var got chatRequest
	server := newCompletionServer(t, &got)
	defer server.Close()

	c := generation.NewClient(generation.Config{
		BaseURL:     server.URL + "/v1",
		APIKey:      "test-key",
		Model:       "court-model",
		Temperature: generation.DefaultTemperature,
		HTTPClient:  server.Client(),
	})

	text, err := c.Generate(context.Background(), "Present your defense.", "defendant")
	require.NoError(t, err)
	assert.Equal(t, "The defendant denies the claim.", text)

	assert.Equal(t, "court-model", got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "You play the defendant")
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Present your defense.", got.Messages[1].Content)
}

func TestClient_GenerateStream(t *testing.T) {
	var got chatRequest
	server := newCompletionServer(t, &got)
	defer server.Close()

	c := generation.NewClient(generation.Config{BaseURL: server.URL + "/v1", HTTPClient: server.Client()})

	s, err := c.GenerateStream(context.Background(), "Present your defense.", "defendant")
	require.NoError(t, err)
	defer s.Close()

	text, err := court.Drain(s)
	require.NoError(t, err)
	assert.Equal(t, "The defendant denies the claim.", text)
	assert.True(t, got.Stream)
}

func TestClient_GenerateError(t *testing.T) {
	var got chatRequest
	server := newCompletionServer(t, &got)
	defer server.Close()

	c := generation.NewClient(generation.Config{BaseURL: server.URL + "/v1", Model: "broken", HTTPClient: server.Client()})

	_, err := c.Generate(context.Background(), "Deliver the judgment.", "judge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestEcho(t *testing.T) {
	prompt := "You are the judge.\n\nCase facts:\n- x\n\nInstruction: Deliver the judgment.\n"

	text, err := generation.Echo{}.Generate(context.Background(), prompt, "judge")
	require.NoError(t, err)
	assert.Equal(t, "Speaking as the judge: Deliver the judgment.", text)

	s, err := generation.Echo{}.GenerateStream(context.Background(), prompt, "judge")
	require.NoError(t, err)
	streamed, err := court.Drain(s)
	require.NoError(t, err)
	assert.Equal(t, text, streamed)

	text, err = generation.Echo{}.Generate(context.Background(), "no instruction here", "plaintiff")
	require.NoError(t, err)
	assert.Equal(t, "Speaking as the plaintiff: I have nothing further to add.", text)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = generation.Echo{}.Generate(ctx, prompt, "judge")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEcho_DrivesATrial(t *testing.T) {
	c := court.NewCoordinator("echo", court.NewAgents(generation.Echo{}, court.AgentOptions{Stream: true}))
	require.NoError(t, c.Start(context.Background(), court.CaseFacts{
		CaseTitle: "Zhang v. Li", CaseType: "private lending dispute",
		PlaintiffName: "Zhang", DefendantName: "Li",
		PlaintiffClaim: "repay 10000", PlaintiffReason: "loan agreement",
		DefendantResponse: "already repaid", UserRole: court.RoleDefendant,
	}))

	res, err := c.Advance(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, res.Content, 3)
	assert.Equal(t, "Speaking as the plaintiff: Read your statement of claim: state what you ask the court for and the facts and reasons behind it.",
		res.Content[1].Text)
}

func TestWithTimeout(t *testing.T) {
	slow := court.GeneratorFunc(func(ctx context.Context, prompt, roleHint string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	_, err := generation.WithTimeout(slow, 10*time.Millisecond).Generate(context.Background(), "p", "judge")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, streams := generation.WithTimeout(slow, time.Second).(court.StreamingGenerator)
	assert.False(t, streams)

	wrapped, streams := generation.WithTimeout(generation.Echo{}, time.Second).(court.StreamingGenerator)
	require.True(t, streams)
	s, err := wrapped.GenerateStream(context.Background(), "Instruction: Rise.", "judge")
	require.NoError(t, err)
	text, err := court.Drain(s)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.Equal(t, "Speaking as the judge: Rise.", text)

	assert.Equal(t, generation.Echo{}, generation.WithTimeout(generation.Echo{}, 0))
}

func TestNew(t *testing.T) {
	gen, err := generation.New(generation.KindEcho, generation.Config{}, time.Minute)
	require.NoError(t, err)
	_, streams := gen.(court.StreamingGenerator)
	assert.True(t, streams)

	gen, err = generation.New(generation.KindOpenAI, generation.Config{BaseURL: "http://127.0.0.1:1/v1"}, 0)
	require.NoError(t, err)
	assert.IsType(t, &generation.Client{}, gen)

	_, err = generation.New("oracle", generation.Config{}, time.Minute)
	assert.EqualError(t, err, `unknown generator "oracle"`)
}
