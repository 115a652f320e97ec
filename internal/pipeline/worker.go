package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/normatext/internal/compliance"
	"github.com/dgallion1/normatext/internal/document"
	"github.com/dgallion1/normatext/internal/parser"
	"github.com/dgallion1/normatext/internal/stats"
	"github.com/dgallion1/normatext/internal/store"
)

// Worker processes a single check job.
type Worker struct {
	engine  *compliance.Engine
	reports store.Store
	latency *stats.Latency
	log     *slog.Logger

	parseOpts    parser.Options
	reportMaxAge time.Duration
	rulesHash    string
}

// WorkerConfig carries the optional collaborators of a Worker. A nil
// Reports disables reuse and history; a nil Latency disables timing.
type WorkerConfig struct {
	Reports      store.Store
	Latency      *stats.Latency
	ParseOptions parser.Options
	ReportMaxAge time.Duration
	// LemmaSource names the lemma backend. It is part of the rules
	// fingerprint that stored reports are matched on.
	LemmaSource string
}

func NewWorker(engine *compliance.Engine, wc WorkerConfig, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Worker{
		engine:       engine,
		reports:      wc.Reports,
		latency:      wc.Latency,
		log:          log,
		parseOpts:    wc.ParseOptions,
		reportMaxAge: wc.ReportMaxAge,
		rulesHash:    engine.Rules().Fingerprint(wc.LemmaSource),
	}
}

// Process parses, checks and optionally fixes the job's document. The
// outcome is recorded on the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	start := time.Now()
	log := w.log.With("job_id", job.ID, "filename", job.Filename, "doc_type", job.DocType.String())

	data := job.FileData()
	job.setContentHash(ContentHashHex(data))
	cats := categoryNames(job.Categories)

	// Phase 1: Reuse a stored report for identical content. Fix jobs always
	// run since they must produce the fixed document.
	if w.reports != nil && !job.Fix {
		prev, err := w.reports.Find(ctx, store.Query{
			ContentHash: job.ContentHash,
			DocType:     job.DocType.String(),
			Categories:  cats,
			RulesHash:   w.rulesHash,
			MaxAge:      w.reportMaxAge,
		})
		switch {
		case err == nil:
			log.Info("reusing stored report", "report_id", prev.ID)
			job.complete(StatusCached, Result{Findings: prev.Findings, Replacements: prev.Replacements, ReportID: prev.ID}, nil)
			return
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("report lookup failed, proceeding", "error", err)
		}
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := parser.Parse(bytes.NewReader(data), job.Filename, w.parseOpts)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.Fail("parsing", fmt.Errorf("parse: %w", err))
		return
	}
	if err := ctx.Err(); err != nil {
		job.Fail("parsing", err)
		return
	}

	// Phase 3: Check
	job.SetStatus(StatusChecking, "checking")
	findings := w.engine.Check(doc, job.DocType, job.Categories...)
	log.Info("check complete", "findings", len(findings), "paragraphs", len(doc.Paragraphs()))

	// Phase 4: Fix
	var (
		replacements int
		fixed        []byte
	)
	if job.Fix {
		job.SetStatus(StatusFixing, "fixing")
		replacements = w.engine.AutoFix(doc)
		fixed, err = saveDocument(doc)
		if err != nil {
			log.Error("save fixed document failed", "error", err)
			job.Fail("fixing", err)
			return
		}
		log.Info("fix complete", "replacements", replacements, "bytes", len(fixed))
	}

	elapsed := time.Since(start)
	if w.latency != nil {
		w.latency.Record(formatLabel(job.Filename), elapsed)
	}

	result := Result{Findings: findings, Replacements: replacements}
	if w.reports != nil {
		rep := &store.Report{
			ContentHash:  job.ContentHash,
			Filename:     job.Filename,
			DocType:      job.DocType.String(),
			Categories:   cats,
			RulesHash:    w.rulesHash,
			Findings:     findings,
			Replacements: replacements,
			DurationMs:   elapsed.Milliseconds(),
		}
		if err := w.reports.Save(ctx, rep); err != nil {
			log.Warn("report save failed", "error", err)
			job.AddError(fmt.Sprintf("store report: %s", err))
		} else {
			result.ReportID = rep.ID
		}
	}

	job.complete(StatusCompleted, result, fixed)
}

func saveDocument(doc document.Document) ([]byte, error) {
	saver, ok := doc.(document.Saver)
	if !ok {
		return nil, fmt.Errorf("document of type %T cannot be saved", doc)
	}
	var buf bytes.Buffer
	if err := saver.Save(&buf); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return buf.Bytes(), nil
}

// categoryNames returns the selected categories as strings; none selected
// means all.
func categoryNames(cats []compliance.Category) []string {
	if len(cats) == 0 {
		cats = compliance.Categories
	}
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func formatLabel(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
