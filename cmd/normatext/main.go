// Command normatext checks a document against the office formatting
// standard and optionally rewrites forbidden words.
//
// Usage:
//
//	normatext [flags] <file>
//
// The exit status is 0 when no findings were reported, 1 when there were
// findings and 2 on errors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/normatext/internal/compliance"
	"github.com/dgallion1/normatext/internal/document"
	"github.com/dgallion1/normatext/internal/lemma"
	"github.com/dgallion1/normatext/internal/parser"
	"github.com/dgallion1/normatext/internal/report"
	"github.com/dgallion1/normatext/internal/rules"
)

// errFindings signals a successful run that reported findings.
var errFindings = errors.New("findings reported")

type cliConfig struct {
	InputPath  string
	DocType    string
	Rules      string
	Fix        bool
	OutPath    string
	ReportPath string
	Format     string
	Encoding   string
	RulesFile  string
	DictPath   string
	LemmaURL   string
	FontPath   string
	Pdftotext  bool
}

func main() {
	var (
		cfg     cliConfig
		verbose bool
	)
	flag.StringVar(&cfg.DocType, "type", "приказ", "Document type: приказ|служебная записка|отчёт (or order|memo|report)")
	flag.StringVar(&cfg.Rules, "rules", "", "Comma-separated rule categories: terminology,structure,numbering (default all)")
	flag.BoolVar(&cfg.Fix, "fix", false, "Replace forbidden words and save the fixed document")
	flag.StringVar(&cfg.OutPath, "out", "", "Path for the fixed document (default <name>_fixed.<ext>)")
	flag.StringVar(&cfg.ReportPath, "report", "", "Write the report to this file instead of stdout")
	flag.StringVar(&cfg.Format, "format", "txt", "Report format: txt|pdf")
	flag.StringVar(&cfg.Encoding, "encoding", "utf-8", "Text report encoding: utf-8|windows-1251")
	flag.StringVar(&cfg.RulesFile, "rules-file", os.Getenv("RULES_FILE"), "YAML, JSON or CSV rule overrides")
	flag.StringVar(&cfg.DictPath, "dict", os.Getenv("LEMMA_DICT_PATH"), "Extra lexicon file (lemma|form,form)")
	flag.StringVar(&cfg.LemmaURL, "lemma-url", os.Getenv("LEMMA_SERVICE_URL"), "Remote lemmatization service base URL")
	flag.StringVar(&cfg.FontPath, "font", os.Getenv("REPORT_FONT_PATH"), "UTF-8 TrueType font for PDF reports")
	flag.BoolVar(&cfg.Pdftotext, "pdftotext", true, "Fall back to pdftotext for unreadable PDFs")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cfg.InputPath = flag.Arg(0)

	switch err := run(cfg, os.Stdout, log); {
	case err == nil:
	case errors.Is(err, errFindings):
		os.Exit(1)
	default:
		log.Error("normatext failed", "error", err)
		os.Exit(2)
	}
}

func run(cfg cliConfig, stdout io.Writer, log *slog.Logger) error {
	docType, err := rules.ParseDocType(cfg.DocType)
	if err != nil {
		return err
	}
	cats, err := compliance.ParseCategories(cfg.Rules)
	if err != nil {
		return err
	}
	enc, err := report.ParseEncoding(cfg.Encoding)
	if err != nil {
		return err
	}

	ruleSet := rules.Default()
	if cfg.RulesFile != "" {
		if ruleSet, err = rules.LoadFile(cfg.RulesFile); err != nil {
			return err
		}
	}
	lemmas, closeLemmas, err := lemma.Open(lemma.Options{DictPath: cfg.DictPath, ServiceURL: cfg.LemmaURL})
	if err != nil {
		return err
	}
	defer closeLemmas()
	engine := compliance.New(lemmas, ruleSet, log)

	doc, err := parseFile(cfg.InputPath, parser.Options{FallbackPdftotext: cfg.Pdftotext})
	if err != nil {
		return err
	}

	start := time.Now()
	findings := engine.Check(doc, docType, cats...)
	text := report.Text(findings)
	log.Info("check complete", "file", cfg.InputPath, "findings", len(findings), "duration", time.Since(start))

	if cfg.Fix {
		n := engine.AutoFix(doc)
		out := cfg.OutPath
		if out == "" {
			out = fixedPath(cfg.InputPath)
		}
		if err := saveDocument(doc, out); err != nil {
			return err
		}
		text += "\n\n" + report.FixSummary(n) + "\n" + out
	}

	if err := writeReport(cfg, text, enc, stdout); err != nil {
		return err
	}
	if len(findings) > 0 {
		return errFindings
	}
	return nil
}

func parseFile(path string, opts parser.Options) (document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := parser.Parse(f, filepath.Base(path), opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// fixedPath derives the fixed document name: report.docx → report_fixed.docx,
// notes.md → notes_fixed.txt.
func fixedPath(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_fixed" + parser.OutputExtension(input)
}

func saveDocument(doc document.Document, path string) error {
	saver, ok := doc.(document.Saver)
	if !ok {
		return fmt.Errorf("document of type %T cannot be saved", doc)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := saver.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}

func writeReport(cfg cliConfig, text string, enc report.Encoding, stdout io.Writer) error {
	w := stdout
	if cfg.ReportPath != "" {
		f, err := os.Create(cfg.ReportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	switch strings.ToLower(cfg.Format) {
	case "", "txt":
		return report.WriteText(w, text+"\n", enc)
	case "pdf":
		if cfg.ReportPath == "" {
			return fmt.Errorf("pdf report needs -report")
		}
		return report.WritePDF(w, text, report.PDFOptions{Title: filepath.Base(cfg.InputPath), FontPath: cfg.FontPath})
	}
	return fmt.Errorf("unsupported report format %q", cfg.Format)
}
