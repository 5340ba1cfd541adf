package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/query"
	"github.com/dgallion1/docrank/internal/report"
)

const testKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.RunWorkers = 1

	stats := embed.NewStats(time.Hour)
	emb := embed.Instrument(embed.NewHash(64), stats)
	pipe := pipeline.New(emb, log, pipeline.Config{Workers: 2})
	orch := pipeline.NewOrchestrator(cfg, pipe, report.Writer{Dir: t.TempDir()}, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, stats, emb.Model(), log, cfg)
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func analyzeRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return authed(req)
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil)))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", rec.Code)
	}
}

func TestAnalyze_Validation(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
	}{
		{"no query", map[string]string{}, map[string]string{"a.txt": "x"}},
		{"no files", map[string]string{"job_to_be_done": "review"}, nil},
		{"bad top k", map[string]string{"job_to_be_done": "review", "top_level_k": "zero"}, map[string]string{"a.txt": "x"}},
		{"negative sub k", map[string]string{"job_to_be_done": "review", "sub_level_k": "-1"}, map[string]string{"a.txt": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, analyzeRequest(t, tt.fields, tt.files))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, analyzeRequest(t,
		map[string]string{
			"persona_role":   "Researcher",
			"persona_focus":  "benchmarks",
			"job_to_be_done": "literature review",
			"top_level_k":    "3",
		},
		map[string]string{
			"paper.txt": "ABSTRACT\nThis paper studies X. It improves Y.\nMETHODS\nWe benchmark on dataset Z.",
			"scan.bin":  "binary",
		},
	))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		RunID   string `json:"run_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&accepted); err != nil {
		t.Fatal(err)
	}
	if accepted.RunID == "" {
		t.Fatal("expected run id")
	}

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec = httptest.NewRecorder()
		s.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, accepted.PollURL, nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 from status, got %d", rec.Code)
		}
		if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
			t.Fatal(err)
		}
		if snap.Status == pipeline.StatusPartial || snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusPartial {
		t.Fatalf("expected partial run (one unsupported file), got %s: %v", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.DocumentsProcessed != 2 || snap.Progress.DocumentsFailed != 1 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/runs/"+accepted.RunID+"/report", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from report, got %d", rec.Code)
	}
	var rep report.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if len(rep.Metadata.InputDocuments) != 2 {
		t.Errorf("expected 2 input documents, got %q", rep.Metadata.InputDocuments)
	}
	if len(rep.ExtractedSections) != 2 {
		t.Errorf("expected 2 sections, got %+v", rep.ExtractedSections)
	}
	if rep.Metadata.Persona.Role != "Researcher" {
		t.Errorf("unexpected persona %+v", rep.Metadata.Persona)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil)))
	var stats struct {
		Model string              `json:"model"`
		Stats embed.StatsSnapshot `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Model != "hash-64" || stats.Stats.Calls == 0 {
		t.Errorf("unexpected stats %+v", stats)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/runs", nil)))
	var list struct {
		Runs []pipeline.JobSnapshot `json:"runs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Runs) != 1 || list.Runs[0].ID != accepted.RunID {
		t.Errorf("unexpected runs %+v", list.Runs)
	}
}

func TestRunEndpoints_NotFound(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/runs/missing/status", "/api/runs/missing/report"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, path, nil)))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestRunReport_NotReady(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()
	cfg.APIKey = testKey
	pipe := pipeline.New(embed.NewHash(16), log, pipeline.Config{})
	// Not started, so the run stays queued.
	orch := pipeline.NewOrchestrator(cfg, pipe, report.Writer{Dir: t.TempDir()}, log)
	s := NewServer(orch, nil, "hash-16", log, cfg)

	job := pipeline.NewJob(query.Persona{Role: "Analyst"}, "x", 1, 1, nil)
	if err := orch.Submit(job); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/runs/"+job.ID+"/report", nil)))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without stats, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":        "report.pdf",
		"../../etc/passwd":  "passwd",
		`C:\docs\paper.pdf`: "C:_docs_paper.pdf",
		"":                  "unnamed",
		"notes..final.txt":  "notes_final.txt",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
