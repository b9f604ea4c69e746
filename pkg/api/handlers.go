package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/vctlabs/vct/internal/history"
	"github.com/vctlabs/vct/pkg/brain"
	"github.com/vctlabs/vct/pkg/logging"
	"github.com/vctlabs/vct/pkg/sim"
)

// maxSimulateCommands caps the batch size accepted by POST /robot/simulate.
const maxSimulateCommands = 1000

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
	Uptime int    `json:"uptime_s"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status   string `json:"status"`
	Mode     string `json:"mode"`
	Simulate bool   `json:"simulate"`
	Version  string `json:"version"`
	Uptime   int    `json:"uptime_s"`
}

// ActRequest is the body of POST /robot/act. Pointer fields distinguish
// "absent" from "zero" so defaults only apply to absent fields.
type ActRequest struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
	RewardBias *float64 `json:"reward_bias,omitempty"`
	Mood       *float64 `json:"mood,omitempty"`
}

// ActResponse is the body of a successful POST /robot/act.
type ActResponse struct {
	OK            bool         `json:"ok"`
	Result        brain.Result `json:"result"`
	CorrelationID string       `json:"correlation_id,omitempty"`
}

// SimulateRequest is the body of POST /robot/simulate.
type SimulateRequest struct {
	Commands   []string `json:"commands"`
	Seed       *int64   `json:"seed,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	RewardBias *float64 `json:"reward_bias,omitempty"`
}

// HistoryResponse is the body of GET /robot/history.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// handleHealth handles GET /health. Always unauthenticated so probes work
// without credentials.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Mode:   s.mode.String(),
		Uptime: s.Uptime(),
	})
}

// handleStatus handles GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:   "ok",
		Mode:     s.mode.String(),
		Simulate: s.mode.IsSimulate(),
		Version:  s.version,
		Uptime:   s.Uptime(),
	})
}

// handleAct handles POST /robot/act.
func (s *Server) handleAct(w http.ResponseWriter, r *http.Request) {
	var body ActRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON in request body")
		return
	}

	req := brain.DefaultRequest(strings.TrimSpace(body.Text))
	req.Source = "api"
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing_text", "text is required")
		return
	}
	if body.Confidence != nil {
		if *body.Confidence < 0 || *body.Confidence > 1 {
			writeError(w, http.StatusBadRequest, "invalid_confidence", "confidence must be in [0, 1]")
			return
		}
		req.Confidence = *body.Confidence
	}
	if body.RewardBias != nil {
		if *body.RewardBias < 0 || *body.RewardBias > 1 {
			writeError(w, http.StatusBadRequest, "invalid_reward_bias", "reward_bias must be in [0, 1]")
			return
		}
		req.RewardBias = *body.RewardBias
	}
	if body.Mood != nil {
		if *body.Mood < -1 || *body.Mood > 1 {
			writeError(w, http.StatusBadRequest, "invalid_mood", "mood must be in [-1, 1]")
			return
		}
		req.Mood = *body.Mood
	}

	result, err := s.brain.HandleCommand(r.Context(), req)
	if err != nil {
		s.log.Error("command failed", "text", req.Text, "error", err)
		writeError(w, http.StatusInternalServerError, "command_failed", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, ActResponse{
		OK:            true,
		Result:        result,
		CorrelationID: logging.CorrelationID(r.Context()),
	})
}

// handleSimulate handles POST /robot/simulate. It runs the command batch
// through a fresh closed-loop environment and returns the full trace.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var body SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON in request body")
		return
	}
	if len(body.Commands) == 0 {
		writeError(w, http.StatusBadRequest, "missing_commands", "commands is required and must be non-empty")
		return
	}
	if len(body.Commands) > maxSimulateCommands {
		writeError(w, http.StatusBadRequest, "too_many_commands",
			"commands exceeds the maximum batch size of "+strconv.Itoa(maxSimulateCommands))
		return
	}

	seed := s.simSeed
	if seed == 0 {
		seed = sim.DefaultSeed
	}
	if body.Seed != nil {
		seed = *body.Seed
	}
	confidence := 0.85
	if body.Confidence != nil {
		if *body.Confidence < 0 || *body.Confidence > 1 {
			writeError(w, http.StatusBadRequest, "invalid_confidence", "confidence must be in [0, 1]")
			return
		}
		confidence = *body.Confidence
	}
	rewardBias := 0.5
	if body.RewardBias != nil {
		if *body.RewardBias < 0 || *body.RewardBias > 1 {
			writeError(w, http.StatusBadRequest, "invalid_reward_bias", "reward_bias must be in [0, 1]")
			return
		}
		rewardBias = *body.RewardBias
	}

	env := sim.NewEnv(seed)
	summary, err := env.SimulateCommands(r.Context(), s.brain, body.Commands, confidence, rewardBias)
	if err != nil {
		s.log.Error("simulation failed", "commands", len(body.Commands), "error", err)
		writeError(w, http.StatusInternalServerError, "simulation_failed", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleHistory handles GET /robot/history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "n must be a positive integer")
			return
		}
		n = parsed
	}
	if n > 500 {
		n = 500
	}

	entries, err := s.recorder.Recent(r.Context(), n)
	if err != nil {
		s.log.Error("history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history_failed", "An internal error occurred")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		Entries: entries,
		Count:   len(entries),
	})
}
