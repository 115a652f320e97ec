package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/normatext/internal/compliance"
	"github.com/dgallion1/normatext/internal/parser"
	"github.com/dgallion1/normatext/internal/pipeline"
	"github.com/dgallion1/normatext/internal/report"
	"github.com/dgallion1/normatext/internal/rules"
)

// checkOptions are the form fields shared by every check endpoint.
type checkOptions struct {
	docType    rules.DocType
	categories []compliance.Category
}

func parseCheckOptions(r *http.Request) (checkOptions, error) {
	opts := checkOptions{docType: rules.Order}
	if v := r.FormValue("doc_type"); v != "" {
		t, err := rules.ParseDocType(v)
		if err != nil {
			return opts, err
		}
		opts.docType = t
	}
	cats, err := compliance.ParseCategories(r.FormValue("rules"))
	if err != nil {
		return opts, err
	}
	opts.categories = cats
	return opts, nil
}

// readUpload reads one multipart file, enforcing the extension whitelist
// and the size limit. The returned status is the HTTP code for err.
func (s *Server) readUpload(fh *multipart.FileHeader) (string, []byte, int, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return filename, nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	f, err := fh.Open()
	if err != nil {
		return filename, nil, http.StatusBadRequest, fmt.Errorf("failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return filename, nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return filename, nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return filename, data, 0, nil
}

// singleUpload parses a one-file form and builds a job from it.
func (s *Server) singleUpload(w http.ResponseWriter, r *http.Request, fix bool) (*pipeline.Job, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := parseCheckOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return nil, false
	}
	filename, data, code, err := s.readUpload(files[0])
	if err != nil {
		jsonError(w, err.Error(), code)
		return nil, false
	}
	return pipeline.NewJob(filename, data, opts.docType, opts.categories, fix), true
}

// handleCheck runs a check synchronously and returns the findings with the
// rendered report text.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	job, ok := s.singleUpload(w, r, false)
	if !ok {
		return
	}
	snap := s.orchestrator.Run(r.Context(), job)
	if snap.Status == pipeline.StatusFailed {
		jsonError(w, strings.Join(snap.Errors, "; "), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":       snap.ID,
		"status":       snap.Status,
		"doc_type":     snap.DocType,
		"content_hash": snap.ContentHash,
		"report_id":    snap.Result.ReportID,
		"findings":     snap.Result.Findings,
		"report":       report.Text(snap.Result.Findings),
	})
}

// handleFix runs the auto-fix and returns the fixed document.
func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	job, ok := s.singleUpload(w, r, true)
	if !ok {
		return
	}
	snap := s.orchestrator.Run(r.Context(), job)
	if snap.Status == pipeline.StatusFailed {
		jsonError(w, strings.Join(snap.Errors, "; "), http.StatusUnprocessableEntity)
		return
	}

	ext := parser.OutputExtension(snap.Filename)
	name := strings.TrimSuffix(snap.Filename, filepath.Ext(snap.Filename)) + "_fixed" + ext
	contentType := "text/plain; charset=utf-8"
	if ext == ".docx" {
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Replacements", strconv.Itoa(snap.Result.Replacements))
	w.Header().Set("X-Job-ID", snap.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(job.Fixed())
}

func (s *Server) handleBatchCheck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := parseCheckOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename, data, _, err := s.readUpload(fh)
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(filename, data, opts.docType, opts.categories, false)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/check/%s/status", job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleCheckReport renders a finished job's report as text or PDF.
func (s *Server) handleCheckReport(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if snap.Result == nil {
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return
	}

	text := report.Text(snap.Result.Findings)
	if snap.Fix {
		text += "\n\n" + report.FixSummary(snap.Result.Replacements)
	}
	base := strings.TrimSuffix(snap.Filename, filepath.Ext(snap.Filename)) + "_report"

	q := r.URL.Query()
	switch format := strings.ToLower(q.Get("format")); format {
	case "", "txt":
		enc, err := report.ParseEncoding(q.Get("encoding"))
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		body, err := report.Encode(text, enc)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", enc.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".txt"))
		w.Write(body)
	case "pdf":
		var buf bytes.Buffer
		err := report.WritePDF(&buf, text, report.PDFOptions{Title: snap.Filename, FontPath: s.cfg.ReportFontPath})
		if err != nil {
			s.log.Error("pdf report failed", "job_id", snap.ID, "error", err)
			jsonError(w, "failed to render pdf", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".pdf"))
		w.Write(buf.Bytes())
	default:
		jsonError(w, fmt.Sprintf("unsupported format: %s", format), http.StatusBadRequest)
	}
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
