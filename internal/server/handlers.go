package server

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/flemzord/loadout/internal/attention"
	"github.com/flemzord/loadout/internal/compiler"
	"github.com/flemzord/loadout/internal/engine"
	"github.com/flemzord/loadout/internal/integrity"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"` // "ok" or "degraded"
	Sections int    `json:"sections"`
}

// handleHealth reports 200 while the integrity monitor is clean, 503 once it
// is degraded.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if in, err := engine.LoadInput(s.ws, s.cfg); err == nil {
			resp.Sections = len(in.Sections)
		}
		if s.engine.Monitor().Status() == integrity.StatusDegraded {
			resp.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime          int64                   `json:"uptime_seconds"`
	Workspace       string                  `json:"workspace"`
	Budget          int                     `json:"budget"`
	Attention       []attention.WeightEntry `json:"attention"`
	IntegrityStatus integrity.Status        `json:"integrity_status"`
	Deviations      []integrity.Deviation   `json:"deviations,omitempty"`
	LastReport      *compiler.Report        `json:"last_report,omitempty"`
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime:          int64(time.Since(s.startedAt).Seconds()),
			Workspace:       s.ws.Root,
			Budget:          s.cfg.Budget,
			Attention:       s.engine.Ledger().Snapshot(),
			IntegrityStatus: s.engine.Monitor().Status(),
			Deviations:      s.engine.Monitor().Deviations(),
			LastReport:      s.lastReport(),
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// CompileRequest is the optional JSON body for POST /compile.
type CompileRequest struct {
	// Sections compiles the given sections instead of the workspace files.
	Sections []SectionInput `json:"sections"`

	// Budget overrides the configured budget when > 0.
	Budget int `json:"budget"`

	// Reinforce names sections to reinforce before this compilation.
	Reinforce []string `json:"reinforce"`
}

// SectionInput is one inline section in a CompileRequest.
type SectionInput struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Priority int    `json:"priority"`
	Critical bool   `json:"critical"`
}

func (s *Server) handleCompile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompileRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
				return
			}
		}

		in, err := s.compileInput(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if len(req.Reinforce) > 0 {
			if err := s.engine.Ledger().Reinforce(req.Reinforce...); err != nil {
				s.logger.Warn("reinforcement not persisted", "error", err)
			}
		}

		budget := s.cfg.Budget
		if req.Budget > 0 {
			budget = req.Budget
		}

		result := s.engine.RunCycle(in.Sections, in.Critical, budget)
		s.metrics.RecordCycle(result)
		s.rememberResult(result)
		writeJSON(w, http.StatusOK, result)
	}
}

// compileInput resolves the sections for one compile request: inline sections
// when supplied, the workspace otherwise.
func (s *Server) compileInput(req CompileRequest) (engine.Input, error) {
	if len(req.Sections) == 0 {
		return engine.LoadInput(s.ws, s.cfg)
	}

	in := engine.Input{
		Sections: make([]compiler.Section, 0, len(req.Sections)),
		Critical: make(map[string]bool),
	}
	for _, sec := range req.Sections {
		in.Sections = append(in.Sections, compiler.Section{
			Name:     sec.Name,
			Content:  sec.Content,
			Priority: sec.Priority,
		})
		if sec.Critical {
			in.Critical[sec.Name] = true
		}
	}
	return in, nil
}

// AttentionResponse is the JSON response for GET /attention.
type AttentionResponse struct {
	Weights []attention.WeightEntry `json:"weights"`
}

func (s *Server) handleAttentionShow() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, AttentionResponse{Weights: s.engine.Ledger().Snapshot()})
	}
}

// ReinforceRequest is the JSON body for POST /attention/reinforce.
type ReinforceRequest struct {
	Names []string `json:"names"`
}

func (s *Server) handleAttentionReinforce() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReinforceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Names) == 0 {
			http.Error(w, "names required", http.StatusBadRequest)
			return
		}
		if err := s.engine.Ledger().Reinforce(req.Names...); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"reinforced": len(req.Names)})
	}
}

func (s *Server) handleAttentionDecay() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := s.engine.Ledger().DecayAll(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"tracked": s.engine.Ledger().Len()})
	}
}

func (s *Server) handleIntegritySnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		in, err := engine.LoadInput(s.ws, s.cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		critical := criticalSections(in)
		if err := s.engine.Monitor().Snapshot(critical); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"protected": len(critical)})
	}
}

// IntegrityCheckResponse is the JSON response for GET /integrity/check.
type IntegrityCheckResponse struct {
	Status     integrity.Status      `json:"status"`
	Deviations []integrity.Deviation `json:"deviations,omitempty"`
}

func (s *Server) handleIntegrityCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		in, err := engine.LoadInput(s.ws, s.cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		deviations, err := s.engine.Monitor().CheckDrift(criticalSections(in))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.metrics.RecordDeviations(len(deviations))
		writeJSON(w, http.StatusOK, IntegrityCheckResponse{
			Status:     s.engine.Monitor().Status(),
			Deviations: deviations,
		})
	}
}

// RestoreResponse is the JSON response for POST /integrity/restore.
type RestoreResponse struct {
	Restored []string `json:"restored"`
}

func (s *Server) handleIntegrityRestore() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		restored, err := s.engine.Monitor().Restore(func(name, content string) error {
			return os.WriteFile(s.ws.SectionPath(name), []byte(content), 0o644)
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.metrics.RecordRestores(len(restored))
		writeJSON(w, http.StatusOK, RestoreResponse{Restored: restored})
	}
}

// criticalSections filters the input down to the monitored subset.
func criticalSections(in engine.Input) []compiler.Section {
	out := make([]compiler.Section, 0, len(in.Critical))
	for _, sec := range in.Sections {
		if in.Critical[sec.Name] {
			out = append(out, sec)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
