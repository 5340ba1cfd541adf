package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docrank/internal/pipeline"
)

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	runs := make([]pipeline.JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		runs = append(runs, j.Snapshot())
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"runs":        runs,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "runID"))
	if job == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "runID"))
	if job == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	rep := job.Report()
	if rep == nil {
		snap := job.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error":  "report not ready",
			"status": snap.Status,
			"phase":  snap.Phase,
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}
