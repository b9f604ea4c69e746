package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctlabs/vct/internal/history"
	"github.com/vctlabs/vct/pkg/brain"
	"github.com/vctlabs/vct/pkg/config"
	"github.com/vctlabs/vct/pkg/mode"
)

const testKey = "vct_test_key"

type memoryRecorder struct {
	entries []history.Entry
}

func (m *memoryRecorder) Record(_ context.Context, e history.Entry) error {
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryRecorder) Recent(_ context.Context, n int) ([]history.Entry, error) {
	if n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]history.Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memoryRecorder) Close() error { return nil }

func testSettings() *config.Settings {
	s := config.DefaultSettings()
	s.CommandsMap = map[string]string{
		"sit":   "SIT",
		"speak": "BARK",
	}
	s.RewardTriggers = map[string]bool{"SIT": true}
	s.Weights = map[string]float64{"stimulus": 3.0}
	s.MinRewardScore = 0.5
	return s
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	b, err := brain.New(testSettings(), mode.Simulate)
	require.NoError(t, err)
	all := append([]Option{WithAPIKey(testKey)}, opts...)
	s, err := New(0, b, all...)
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthIsUnauthenticated(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s.Handler(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "simulate", resp.Mode)
}

func TestAuthRequiredForProtectedRoutes(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s.Handler(), http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "missing_api_key", resp.Error)
}

func TestAuthRejectsWrongKey(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s.Handler(), http.MethodGet, "/status", "vct_wrong", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthDisabled(t *testing.T) {
	s := newTestServer(t, WithAuthDisabled())

	w := doJSON(t, s.Handler(), http.MethodGet, "/status", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusReportsModeAndVersion(t *testing.T) {
	s := newTestServer(t, WithVersion("1.2.3"))

	w := doJSON(t, s.Handler(), http.MethodGet, "/status", testKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "simulate", resp.Mode)
	assert.True(t, resp.Simulate)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestActReturnsDecision(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s.Handler(), http.MethodPost, "/robot/act", testKey, ActRequest{Text: "sit"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ActResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "SIT", resp.Result.Action)
	assert.True(t, resp.Result.Rewarded)
	assert.NotEmpty(t, resp.CorrelationID)
}

func TestActEchoesInboundCorrelationID(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(ActRequest{Text: "sit"}))
	req := httptest.NewRequest(http.MethodPost, "/robot/act", &buf)
	req.Header.Set(APIKeyHeader, testKey)
	req.Header.Set(CorrelationIDHeader, "trace-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-123", w.Header().Get(CorrelationIDHeader))

	var resp ActResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "trace-123", resp.CorrelationID)
}

func TestActValidation(t *testing.T) {
	s := newTestServer(t)

	bad := func(f float64) *float64 { return &f }
	tests := []struct {
		name    string
		body    ActRequest
		errCode string
	}{
		{"empty text", ActRequest{Text: "   "}, "missing_text"},
		{"confidence too high", ActRequest{Text: "sit", Confidence: bad(1.5)}, "invalid_confidence"},
		{"confidence negative", ActRequest{Text: "sit", Confidence: bad(-0.1)}, "invalid_confidence"},
		{"reward bias out of range", ActRequest{Text: "sit", RewardBias: bad(2)}, "invalid_reward_bias"},
		{"mood out of range", ActRequest{Text: "sit", Mood: bad(-1.5)}, "invalid_mood"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s.Handler(), http.MethodPost, "/robot/act", testKey, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.errCode, resp.Error)
		})
	}
}

func TestActRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/robot/act", bytes.NewBufferString("{not json"))
	req.Header.Set(APIKeyHeader, testKey)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulateRunsBatch(t *testing.T) {
	s := newTestServer(t)

	seed := int64(7)
	w := doJSON(t, s.Handler(), http.MethodPost, "/robot/simulate", testKey, SimulateRequest{
		Commands: []string{"sit", "speak", "sit"},
		Seed:     &seed,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		History []struct {
			Brain struct {
				Action string `json:"action"`
			} `json:"brain"`
		} `json:"history"`
		SuccessRate float64 `json:"success_rate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.History, 3)
	assert.Equal(t, "SIT", resp.History[0].Brain.Action)
	assert.Equal(t, "BARK", resp.History[1].Brain.Action)
	assert.GreaterOrEqual(t, resp.SuccessRate, 0.0)
	assert.LessOrEqual(t, resp.SuccessRate, 1.0)
}

func TestSimulateRequiresCommands(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s.Handler(), http.MethodPost, "/robot/simulate", testKey, SimulateRequest{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "missing_commands", resp.Error)
}

func TestHistoryReturnsRecordedCommands(t *testing.T) {
	rec := &memoryRecorder{}
	b, err := brain.New(testSettings(), mode.Simulate, brain.WithRecorder(rec))
	require.NoError(t, err)
	s, err := New(0, b, WithAPIKey(testKey), WithRecorder(rec))
	require.NoError(t, err)

	for _, text := range []string{"sit", "speak"} {
		w := doJSON(t, s.Handler(), http.MethodPost, "/robot/act", testKey, ActRequest{Text: text})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, s.Handler(), http.MethodGet, "/robot/history?n=10", testKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "speak", resp.Entries[0].Text)
	assert.Equal(t, "sit", resp.Entries[1].Text)
}

func TestHistoryEmptyIsNotNull(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s.Handler(), http.MethodGet, "/robot/history", testKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"entries":[]`)
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s.Handler(), http.MethodGet, "/robot/history?n=zero", testKey, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s.Handler(), http.MethodPost, "/robot/act", testKey, ActRequest{Text: "sit"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s.Handler(), http.MethodGet, "/metrics", testKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vct_api_requests_total")
}

func TestLatencyObservedOnlyForActEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s.Handler(), http.MethodPost, "/robot/act", testKey, ActRequest{Text: "sit"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, s.Handler(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s.Handler(), http.MethodGet, "/metrics", testKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `vct_command_latency_seconds_count{endpoint="/robot/act"} 1`)
	assert.NotContains(t, body, `vct_command_latency_seconds_count{endpoint="/health"`)
}

func TestStartAndStop(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.Start())
	defer func() { require.NoError(t, s.Stop()) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLiveModeRequiresAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	b, err := brain.New(testSettings(), mode.Live)
	require.NoError(t, err)

	_, err = New(0, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAPIKey)
}
