package pipeline

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/normatext/internal/compliance"
	"github.com/dgallion1/normatext/internal/rules"
)

// JobStatus represents the state of a check job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusChecking  JobStatus = "checking"
	StatusFixing    JobStatus = "fixing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	// StatusCached means the findings came from a stored report of the
	// same content.
	StatusCached JobStatus = "cached"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCached
}

// Job tracks one document check.
type Job struct {
	mu sync.Mutex

	ID         string
	Status     JobStatus
	Phase      string
	Filename   string
	DocType    rules.DocType
	Categories []compliance.Category
	Fix        bool

	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Internal: not serialized.
	fileData     []byte
	findings     []compliance.Finding
	replacements int
	fixed        []byte
	reportID     int64
	errors       []string
}

// NewJob creates a queued job for the given upload.
func NewJob(filename string, data []byte, t rules.DocType, cats []compliance.Category, fix bool) *Job {
	now := time.Now()
	return &Job{
		ID:         generateULID(),
		Status:     StatusQueued,
		Phase:      "queued",
		Filename:   filename,
		DocType:    t,
		Categories: cats,
		Fix:        fix,
		CreatedAt:  now,
		UpdatedAt:  now,
		fileData:   data,
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

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs and returns how many were dropped.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed in phase.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err.Error())
	j.fileData = nil
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records a non-fatal error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

func (j *Job) setContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// complete stores the result and releases the upload.
func (j *Job) complete(status JobStatus, r Result, fixed []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.findings = r.Findings
	j.replacements = r.Replacements
	j.reportID = r.ReportID
	j.fixed = fixed
	j.fileData = nil
	j.Status = status
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Fixed returns the fixed document bytes, or nil when the job did not fix.
func (j *Job) Fixed() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fixed
}

// Result is the outcome of a finished job.
type Result struct {
	Findings     []compliance.Finding `json:"findings"`
	Replacements int                  `json:"replacements"`
	ReportID     int64                `json:"report_id,omitempty"`
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string                `json:"job_id"`
	Status      JobStatus             `json:"status"`
	Phase       string                `json:"phase"`
	Filename    string                `json:"filename"`
	DocType     string                `json:"doc_type"`
	Categories  []compliance.Category `json:"categories"`
	Fix         bool                  `json:"fix"`
	ContentHash string                `json:"content_hash,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Errors      []string              `json:"errors"`
	Result      *Result               `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state. Result is set once
// the job finished successfully.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := slices.Clone(j.errors)
	if errs == nil {
		errs = []string{}
	}
	snap := JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		DocType:     j.DocType.String(),
		Categories:  slices.Clone(j.Categories),
		Fix:         j.Fix,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		Errors:      errs,
	}
	if j.Status == StatusCompleted || j.Status == StatusCached {
		findings := slices.Clone(j.findings)
		if findings == nil {
			findings = []compliance.Finding{}
		}
		snap.Result = &Result{Findings: findings, Replacements: j.replacements, ReportID: j.reportID}
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
