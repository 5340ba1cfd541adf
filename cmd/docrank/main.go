// Command docrank ranks the sections of every document in a directory
// against a persona and job-to-be-done, and writes one report per run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	log := slog.New(slog.NewTextHandler(stderr, nil))

	fs := flag.NewFlagSet("docrank", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("DOCRANK_CONFIG"), "path to YAML config file")
	inputDir := fs.String("input", "", "directory of documents to rank (overrides config)")
	outputDir := fs.String("output", "", "directory for the report (overrides config)")
	topK := fs.Int("top", 0, "sections kept per document (overrides config)")
	subK := fs.Int("sub", 0, "sub-passages kept per section (overrides config)")
	workers := fs.Int("workers", 0, "documents processed in parallel (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("could not load .env", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load configuration", "error", err)
		return 1
	}
	if *inputDir != "" {
		cfg.InputDir = *inputDir
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *topK != 0 {
		cfg.TopLevelK = *topK
	}
	if *subK != 0 {
		cfg.SubLevelK = *subK
	}
	if *workers > 0 {
		cfg.WorkerCount = *workers
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources, err := discoverSources(cfg.InputDir)
	if err != nil {
		log.Error("read input directory", "dir", cfg.InputDir, "error", err)
		return 1
	}
	log.Info("documents discovered", "dir", cfg.InputDir, "count", len(sources))

	stats := embed.NewStats(24 * time.Hour)
	emb, err := embed.New(cfg.Embedding(), stats, log)
	if err != nil {
		log.Error("create embedder", "error", err)
		return 1
	}

	pipe := pipeline.New(emb, log, pipeline.Config{
		Workers: cfg.WorkerCount,
		Parser:  parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	})
	res, err := pipe.Run(ctx, pipeline.Request{
		Sources:     sources,
		Persona:     cfg.Persona,
		JobToBeDone: cfg.JobToBeDone,
		TopLevelK:   cfg.TopLevelK,
		SubLevelK:   cfg.SubLevelK,
	})
	if err != nil {
		log.Error("run aborted", "error", err)
		return 1
	}
	for _, o := range res.Outcomes {
		if o.Err != nil {
			log.Warn("document failed", "document", o.Document, "kind", o.Err.Kind, "error", o.Err.Err)
		}
	}

	path, err := report.Writer{Dir: cfg.OutputDir, Format: cfg.OutputFormat}.Write(res.Report)
	if err != nil {
		var perr *report.PersistenceError
		if errors.As(err, &perr) {
			log.Error("report not written", "path", perr.Path, "error", perr.Err)
		} else {
			log.Error("report not written", "error", err)
		}
		return 1
	}

	printSummary(stdout, res, path, stats.Snapshot())
	return 0
}

func printSummary(w io.Writer, res *pipeline.Result, path string, snap embed.StatsSnapshot) {
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintln(w, boldGreen("Done."), "Report written to", boldCyan(path))
	for _, o := range res.Outcomes {
		switch o.Status {
		case pipeline.StatusRanked:
			fmt.Fprintf(w, "  %s %s: %d sections, %d sub-passages\n", boldGreen("ok"), o.Document, len(o.Sections), len(o.Subsections))
		case pipeline.StatusEmpty:
			fmt.Fprintf(w, "  %s %s: no text\n", yellow("empty"), o.Document)
		default:
			fmt.Fprintf(w, "  %s %s: %s failure: %v\n", red("failed"), o.Document, o.Err.Kind, o.Err.Err)
		}
	}
	fmt.Fprintf(w, "Embedding: %s, %d calls, %d texts, avg %.0fms\n", snap.Model, snap.Calls, snap.Texts, snap.AvgMs)
}
