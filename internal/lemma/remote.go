package lemma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned by Remote.Lookup when the service does not know
// the form.
var ErrNotFound = errors.New("lemma: form not found")

const MaxRetries = 3

// Remote queries an external morphology service:
//
//	GET {base}/api/lemmatize?form=<word>  ->  {"lemma": "..."}
//
// A 404 means the form is unknown; 429 and 5xx responses are retried.
type Remote struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

func NewRemote(baseURL, apiKey string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: Backoff,
	}
}

type lemmaResponse struct {
	Lemma string `json:"lemma"`
}

// Normalize implements Normalizer. Unknown forms come back unchanged.
func (r *Remote) Normalize(word string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.NormalizeContext(ctx, word)
}

// NormalizeContext is Normalize bound to ctx.
func (r *Remote) NormalizeContext(ctx context.Context, word string) (string, error) {
	k := Key(word)
	if k == "" {
		return "", ErrEmptyWord
	}
	var lastErr error
	for attempt := range MaxRetries {
		l, err := r.Lookup(ctx, k)
		if err == nil {
			return l, nil
		}
		if errors.Is(err, ErrNotFound) {
			return k, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}
	return "", lastErr
}

// Lookup performs a single request for form.
func (r *Remote) Lookup(ctx context.Context, form string) (string, error) {
	u := r.baseURL + "/api/lemmatize?form=" + url.QueryEscape(form)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("lemmatize %q: %w", form, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("lemmatize %q: status %d: %s", form, resp.StatusCode, string(respBody))
	}

	var lr lemmaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&lr); err != nil {
		return "", fmt.Errorf("decode lemma: %w", err)
	}
	if lr.Lemma == "" {
		return "", ErrNotFound
	}
	return Key(lr.Lemma), nil
}

// Close releases resources.
func (r *Remote) Close() {
	r.httpClient.CloseIdleConnections()
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	msg := e.Message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, msg)
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
