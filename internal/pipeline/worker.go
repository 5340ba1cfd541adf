package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docrank/internal/report"
)

// Worker processes a single analysis run.
type Worker struct {
	pipe   *Pipeline
	writer report.Writer
	log    *slog.Logger
}

func NewWorker(pipe *Pipeline, writer report.Writer, log *slog.Logger) *Worker {
	return &Worker{pipe: pipe, writer: writer, log: log}
}

// Process runs the pipeline for a job and persists its report.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("run_id", job.ID)
	sources := job.Sources()

	// Phase 1: Rank
	job.SetStatus(StatusRunning, "ranking")
	res, err := w.pipe.Run(ctx, Request{
		Sources:     sources,
		Persona:     job.Persona,
		JobToBeDone: job.JobToBeDone,
		TopLevelK:   job.TopLevelK,
		SubLevelK:   job.SubLevelK,
		Progress:    job.RecordOutcome,
	})
	if err != nil {
		log.Error("run aborted", "error", err)
		job.AddError(fmt.Sprintf("run: %s", err))
		job.SetStatus(StatusFailed, "ranking")
		return
	}
	failed := res.Failed()
	log.Info("ranking complete",
		"documents", len(sources),
		"failed", failed,
		"sections", len(res.Report.ExtractedSections),
		"subsections", len(res.Report.SubSectionAnalysis))

	// Phase 2: Persist
	job.SetStatus(StatusPersisting, "persisting")
	path, err := w.writer.Write(res.Report)
	if err != nil {
		log.Error("persist failed", "error", err)
		job.SetResult(res, "")
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "persisting")
		return
	}
	job.SetResult(res, path)
	log.Info("report written", "path", path)

	if failed > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}
