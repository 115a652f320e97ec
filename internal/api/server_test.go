package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/dgallion1/normatext/internal/compliance"
	"github.com/dgallion1/normatext/internal/config"
	"github.com/dgallion1/normatext/internal/lemma"
	"github.com/dgallion1/normatext/internal/pipeline"
	"github.com/dgallion1/normatext/internal/rules"
	"github.com/dgallion1/normatext/internal/stats"
	"github.com/dgallion1/normatext/internal/store"
)

const (
	testKey = "secret"
	sample  = "Надо проверить штуку.\n"
)

func testConfig() config.Config {
	return config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		CORSOrigins:    []string{"*"},
	}
}

func newTestServer(t *testing.T) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	engine := compliance.New(lemma.Map{"штуку": "штука", "надо": "надо"}, rules.Default(), nil)
	orch := pipeline.NewOrchestrator(testConfig(), engine, pipeline.WorkerConfig{
		Reports: store.NewMemory(),
		Latency: stats.NewLatency(time.Hour),
	}, nil)
	return NewServer(orch, nil, testConfig()), orch
}

type upload struct {
	field, name, content string
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(f.content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decode(t, rec)["status"] != "ok" {
		t.Errorf("expected status ok, got %s", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats/checks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if rec := serve(s, req); rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	s, _ := newTestServer(t)
	req := multipartRequest(t, "/api/check",
		map[string]string{"doc_type": "служебная записка", "rules": "терминология"},
		upload{"file", "memo.txt", sample})
	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decode(t, rec)
	if out["doc_type"] != "memo" {
		t.Errorf("expected memo, got %v", out["doc_type"])
	}
	findings, _ := out["findings"].([]any)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %v", out["findings"])
	}
	text, _ := out["report"].(string)
	if !strings.HasPrefix(text, "Проверка завершена.\nНайденные ошибки:\n• Стр. 1:") {
		t.Errorf("expected rendered report, got %q", text)
	}
}

func TestCheck_BadInput(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		fields map[string]string
		files  []upload
		code   int
	}{
		{"unknown doc type", map[string]string{"doc_type": "письмо"}, []upload{{"file", "a.txt", "x"}}, http.StatusBadRequest},
		{"unknown category", map[string]string{"rules": "spelling"}, []upload{{"file", "a.txt", "x"}}, http.StatusBadRequest},
		{"no file", nil, nil, http.StatusBadRequest},
		{"unsupported extension", nil, []upload{{"file", "a.odt", "x"}}, http.StatusBadRequest},
		{"bad docx", nil, []upload{{"file", "a.docx", "not a zip"}}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, multipartRequest(t, "/api/check", tt.fields, tt.files...))
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestFix(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, multipartRequest(t, "/api/fix",
		map[string]string{"doc_type": "memo"},
		upload{"file", "memo.txt", sample}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Replacements"); got != "2" {
		t.Errorf("expected 2 replacements, got %q", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "memo_fixed.txt") {
		t.Errorf("expected fixed filename, got %q", cd)
	}
	if got := rec.Body.String(); got != "Необходимо проверить единица.\n" {
		t.Errorf("expected fixed text, got %q", got)
	}
}

func TestCheckStatusAndReport(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, multipartRequest(t, "/api/check",
		map[string]string{"doc_type": "memo", "rules": "terminology"},
		upload{"file", "memo.txt", sample}))
	jobID, _ := decode(t, rec)["job_id"].(string)
	if jobID == "" {
		t.Fatalf("expected job id, got %s", rec.Body.String())
	}

	rec = serve(s, authGet("/api/check/"+jobID+"/status"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", rec.Code)
	}
	if st := decode(t, rec)["status"]; st != string(pipeline.StatusCompleted) {
		t.Errorf("expected completed, got %v", st)
	}

	rec = serve(s, authGet("/api/check/"+jobID+"/report?encoding=cp1251"))
	if rec.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=windows-1251" {
		t.Errorf("expected cp1251 content type, got %q", ct)
	}
	text, err := charmap.Windows1251.NewDecoder().Bytes(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode cp1251: %v", err)
	}
	if !strings.Contains(string(text), "Недопустимое слово «Надо»") {
		t.Errorf("expected finding in report, got %q", text)
	}

	rec = serve(s, authGet("/api/check/"+jobID+"/report?format=pdf"))
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Errorf("expected pdf, got %d %q", rec.Code, rec.Body.Bytes()[:min(8, rec.Body.Len())])
	}

	for path, code := range map[string]int{
		"/api/check/" + jobID + "/report?format=rtf":     http.StatusBadRequest,
		"/api/check/" + jobID + "/report?encoding=koi8r": http.StatusBadRequest,
		"/api/check/missing/report":                      http.StatusNotFound,
		"/api/check/missing/status":                      http.StatusNotFound,
	} {
		if rec := serve(s, authGet(path)); rec.Code != code {
			t.Errorf("GET %s: expected %d, got %d", path, code, rec.Code)
		}
	}
}

func TestStoredReport(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, multipartRequest(t, "/api/check", nil, upload{"file", "order.txt", sample}))
	hash, _ := decode(t, rec)["content_hash"].(string)

	rec = serve(s, authGet("/api/reports/"+hash))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode(t, rec)
	rep, _ := out["report"].(map[string]any)
	if rep["filename"] != "order.txt" || rep["doc_type"] != "order" {
		t.Errorf("expected stored order report, got %v", rep)
	}

	if rec := serve(s, authGet("/api/reports/deadbeef")); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown hash, got %d", rec.Code)
	}
}

func TestCheckStats(t *testing.T) {
	s, _ := newTestServer(t)
	serve(s, multipartRequest(t, "/api/check", nil, upload{"file", "a.md", "# 1 Заголовок\n"}))

	rec := serve(s, authGet("/api/stats/checks"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode(t, rec)
	byFormat, _ := out["by_format"].(map[string]any)
	if _, ok := byFormat["md"]; !ok {
		t.Errorf("expected md latency, got %v", out["by_format"])
	}
}

func TestBatchCheck(t *testing.T) {
	s, orch := newTestServer(t)
	orch.Start(context.Background())
	defer orch.Stop()

	rec := serve(s, multipartRequest(t, "/api/check/batch",
		map[string]string{"doc_type": "report"},
		upload{"files", "a.txt", sample},
		upload{"files", "b.exe", "x"}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Jobs []map[string]any `json:"jobs"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if len(out.Jobs) != 2 {
		t.Fatalf("expected 2 results, got %v", out.Jobs)
	}
	if out.Jobs[0]["job_id"] == nil {
		t.Errorf("expected queued job, got %v", out.Jobs[0])
	}
	if out.Jobs[1]["error"] == nil {
		t.Errorf("expected unsupported file error, got %v", out.Jobs[1])
	}

	jobID := out.Jobs[0]["job_id"].(string)
	deadline := time.Now().Add(5 * time.Second)
	for !orch.GetJob(jobID).Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for batch job")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/check", nil)
	req.Header.Set("Origin", "https://editor.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(s, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.docx":       "report.docx",
		"../../etc/passwd":  "passwd",
		"a..b.txt":          "a_b.txt",
		"":                  "unnamed",
		`C:\docs\memo.docx`: `C:_docs_memo.docx`,
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
