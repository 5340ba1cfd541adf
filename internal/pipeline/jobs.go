package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docrank/internal/query"
	"github.com/dgallion1/docrank/internal/report"
)

// JobStatus represents the state of an analysis run.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusRunning    JobStatus = "running"
	StatusPersisting JobStatus = "persisting"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single queued analysis run.
type Job struct {
	mu sync.Mutex

	ID          string        `json:"run_id"`
	Status      JobStatus     `json:"status"`
	Phase       string        `json:"phase"`
	Persona     query.Persona `json:"persona"`
	JobToBeDone string        `json:"job_to_be_done"`
	TopLevelK   int           `json:"top_level_k"`
	SubLevelK   int           `json:"sub_level_k"`

	Progress Progress `json:"progress"`

	OutputPath string    `json:"output_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Internal: not serialized.
	sources   []Source
	documents []DocumentSnapshot
	report    *report.Report
	errors    []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalDocuments     int      `json:"total_documents"`
	DocumentsProcessed int      `json:"documents_processed"`
	DocumentsFailed    int      `json:"documents_failed"`
	DocumentsEmpty     int      `json:"documents_empty"`
	Errors             []string `json:"errors"`
}

// DocumentSnapshot is the per-document status exposed to API clients.
type DocumentSnapshot struct {
	Document    string         `json:"document"`
	Status      DocumentStatus `json:"status"`
	FailureKind FailureKind    `json:"failure_kind,omitempty"`
	Error       string         `json:"error,omitempty"`
	ContentHash string         `json:"content_hash,omitempty"`
	Sections    int            `json:"sections"`
	Subsections int            `json:"subsections"`
}

// NewJob creates a queued run over sources.
func NewJob(p query.Persona, job string, topK, subK int, sources []Source) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Status:      StatusQueued,
		Phase:       "queued",
		Persona:     p,
		JobToBeDone: job,
		TopLevelK:   topK,
		SubLevelK:   subK,
		Progress:    Progress{TotalDocuments: len(sources)},
		CreatedAt:   now,
		UpdatedAt:   now,
		sources:     sources,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// List returns all tracked jobs, newest first.
func (s *JobStore) List() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.addErrorLocked(err)
}

func (j *Job) addErrorLocked(err string) {
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// RecordOutcome counts one finished document.
func (j *Job) RecordOutcome(o Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DocumentsProcessed++
	switch {
	case o.Err != nil:
		j.Progress.DocumentsFailed++
		j.addErrorLocked(o.Err.Error())
	case o.Status == StatusEmpty:
		j.Progress.DocumentsEmpty++
	}
	j.UpdatedAt = time.Now()
}

// Sources returns the uploaded documents.
func (j *Job) Sources() []Source {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sources
}

// SetResult stores the finished report and per-document outcomes, and
// drops the uploaded bytes.
func (j *Job) SetResult(res *Result, outputPath string) {
	docs := make([]DocumentSnapshot, len(res.Outcomes))
	for i, o := range res.Outcomes {
		docs[i] = DocumentSnapshot{
			Document:    o.Document,
			Status:      o.Status,
			ContentHash: o.ContentHash,
			Sections:    len(o.Sections),
			Subsections: len(o.Subsections),
		}
		if o.Err != nil {
			docs[i].FailureKind = o.Err.Kind
			docs[i].Error = o.Err.Err.Error()
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.report = res.Report
	j.documents = docs
	j.OutputPath = outputPath
	j.sources = nil
	j.UpdatedAt = time.Now()
}

// Report returns the finished report, or nil while the run is in progress.
func (j *Job) Report() *report.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string             `json:"run_id"`
	Status      JobStatus          `json:"status"`
	Phase       string             `json:"phase"`
	Persona     query.Persona      `json:"persona"`
	JobToBeDone string             `json:"job_to_be_done"`
	TopLevelK   int                `json:"top_level_k"`
	SubLevelK   int                `json:"sub_level_k"`
	Progress    Progress           `json:"progress"`
	Documents   []DocumentSnapshot `json:"documents"`
	OutputPath  string             `json:"output_path,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	docs := make([]DocumentSnapshot, len(j.documents))
	copy(docs, j.documents)
	progress := j.Progress
	progress.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Persona:     j.Persona,
		JobToBeDone: j.JobToBeDone,
		TopLevelK:   j.TopLevelK,
		SubLevelK:   j.SubLevelK,
		Progress:    progress,
		Documents:   docs,
		OutputPath:  j.OutputPath,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}
