package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/query"
)

// maxFilesPerRun bounds the request body at MaxUploadBytes per file.
const maxFilesPerRun = 10

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*maxFilesPerRun+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	persona := query.Persona{
		Role:  strings.TrimSpace(r.FormValue("persona_role")),
		Focus: strings.TrimSpace(r.FormValue("persona_focus")),
	}
	job := strings.TrimSpace(r.FormValue("job_to_be_done"))
	if job == "" && persona.Role == "" {
		jsonError(w, "job_to_be_done or persona_role is required", http.StatusBadRequest)
		return
	}

	topK, err := formK(r, "top_level_k", s.cfg.TopLevelK)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	subK, err := formK(r, "sub_level_k", s.cfg.SubLevelK)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > maxFilesPerRun {
		jsonError(w, fmt.Sprintf("too many files (max %d)", maxFilesPerRun), http.StatusBadRequest)
		return
	}

	// Unreadable or unsupported files still join the run and are reported
	// as parse failures.
	sources := make([]pipeline.Source, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		f, err := fh.Open()
		if err != nil {
			sources = append(sources, pipeline.Source{Name: filename, Err: fmt.Errorf("open upload: %w", err)})
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil {
			sources = append(sources, pipeline.Source{Name: filename, Err: fmt.Errorf("read upload: %w", err)})
			continue
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			jsonError(w, fmt.Sprintf("%s exceeds max size (%d bytes)", filename, s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		sources = append(sources, pipeline.Source{Name: filename, Data: data})
	}

	run := pipeline.NewJob(persona, job, topK, subK, sources)
	if err := s.orchestrator.Submit(run); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":     run.ID,
		"status":     pipeline.StatusQueued,
		"documents":  len(sources),
		"poll_url":   fmt.Sprintf("/api/runs/%s/status", run.ID),
		"report_url": fmt.Sprintf("/api/runs/%s/report", run.ID),
	})
}

// formK reads a positive integer form value, or returns fallback when unset.
func formK(r *http.Request, key string, fallback int) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
