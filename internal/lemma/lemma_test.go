package lemma

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDictionaryBuiltin(t *testing.T) {
	d, err := NewDictionary()
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}
	tests := []struct {
		word string
		want string
	}{
		{"штуки", "штука"},
		{"Думаю", "думать"},
		{"этого", "этот"},
		{"были", "быть"},
		{"наверное", "наверно"},
		{"очень", "очень"},
		{"кажется", "кажется"},
		{"регламент", "регламент"},
		{"ДОКУМЕНТА", "документ"},
	}
	for _, tc := range tests {
		t.Run(tc.word, func(t *testing.T) {
			got, err := d.Normalize(tc.word)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDictionaryEmptyWord(t *testing.T) {
	d, err := NewDictionary()
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}
	if _, err := d.Normalize("  "); !errors.Is(err, ErrEmptyWord) {
		t.Errorf("expected ErrEmptyWord, got %v", err)
	}
}

func TestDictionaryExtraFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.lex")
	content := "! extra\nрегламент|регламента,регламенту\nштука|штучка\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := NewDictionary(path)
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}
	if got, _ := d.Normalize("регламенту"); got != "регламент" {
		t.Errorf("expected регламент, got %q", got)
	}
	if got, _ := d.Normalize("штучка"); got != "штука" {
		t.Errorf("expected штука, got %q", got)
	}
	if l, ok := d.Lookup("штуки"); !ok || l != "штука" {
		t.Errorf("expected builtin forms to survive, got %q ok=%v", l, ok)
	}
}

func TestDictionaryLoadErrors(t *testing.T) {
	d := &Dictionary{forms: map[string]string{}}
	if err := d.Load(strings.NewReader("no separator here\n")); err == nil {
		t.Error("expected error for line without separator")
	}
	if err := d.Load(strings.NewReader("|форма\n")); err == nil {
		t.Error("expected error for empty lemma")
	}
}

func TestDictionaryFirstLemmaWins(t *testing.T) {
	d := &Dictionary{forms: map[string]string{}}
	if err := d.Load(strings.NewReader("самый|самого\nсам|самого,сама\n")); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.Normalize("самого"); got != "самый" {
		t.Errorf("expected самый, got %q", got)
	}
	if got, _ := d.Normalize("сама"); got != "сам" {
		t.Errorf("expected сам, got %q", got)
	}
}

func TestKeyComposesNFC(t *testing.T) {
	// "й" written as и + combining breve.
	decomposed := "кра\u0438\u0306"
	if got := Key(decomposed); got != "край" {
		t.Errorf("expected composed %q, got %q", "край", got)
	}
}

func TestMap(t *testing.T) {
	m := Map{"штуки": "штука"}
	if got, _ := m.Normalize("штуки"); got != "штука" {
		t.Errorf("expected штука, got %q", got)
	}
	if got, _ := m.Normalize("слово"); got != "слово" {
		t.Errorf("expected unchanged word, got %q", got)
	}
	if _, err := m.Normalize(""); !errors.Is(err, ErrEmptyWord) {
		t.Errorf("expected ErrEmptyWord, got %v", err)
	}
}

type countingNormalizer struct {
	calls atomic.Int64
	err   error
}

func (c *countingNormalizer) Normalize(word string) (string, error) {
	c.calls.Add(1)
	if c.err != nil {
		return "", c.err
	}
	return word + "!", nil
}

func TestCacheMemoizes(t *testing.T) {
	next := &countingNormalizer{}
	c := NewCache(next, 10)
	for range 3 {
		got, err := c.Normalize("а")
		if err != nil {
			t.Fatal(err)
		}
		if got != "а!" {
			t.Errorf("expected а!, got %q", got)
		}
	}
	if n := next.calls.Load(); n != 1 {
		t.Errorf("expected 1 underlying call, got %d", n)
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("expected 2 hits/1 miss, got %d/%d", hits, misses)
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	c := NewCache(&countingNormalizer{}, 2)
	for _, w := range []string{"а", "б", "в"} {
		if _, err := c.Normalize(w); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.items["а"]; ok {
		t.Error("expected oldest entry to be evicted")
	}
}

func TestCacheHitRefreshesEntry(t *testing.T) {
	next := &countingNormalizer{}
	c := NewCache(next, 2)
	for _, w := range []string{"а", "б", "а", "в"} {
		if _, err := c.Normalize(w); err != nil {
			t.Fatal(err)
		}
	}
	if _, ok := c.items["а"]; !ok {
		t.Error("expected recently used entry to survive")
	}
	if _, ok := c.items["б"]; ok {
		t.Error("expected least recently used entry to be evicted")
	}
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	next := &countingNormalizer{err: errors.New("boom")}
	c := NewCache(next, 10)
	for range 2 {
		if _, err := c.Normalize("а"); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := next.calls.Load(); n != 2 {
		t.Errorf("expected 2 underlying calls, got %d", n)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}

func newTestRemote(url string) *Remote {
	r := NewRemote(url, "secret", time.Second)
	r.backoff = func(int) time.Duration { return 0 }
	return r
}

func TestRemoteNormalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/lemmatize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		switch r.URL.Query().Get("form") {
		case "штуки":
			w.Write([]byte(`{"lemma":"штука"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := newTestRemote(srv.URL)
	defer r.Close()

	got, err := r.Normalize("Штуки")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "штука" {
		t.Errorf("expected штука, got %q", got)
	}

	got, err = r.Normalize("регламент")
	if err != nil {
		t.Fatalf("unexpected error for unknown form: %v", err)
	}
	if got != "регламент" {
		t.Errorf("expected unknown form unchanged, got %q", got)
	}
}

func TestRemoteRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"lemma":"думать"}`))
	}))
	defer srv.Close()

	got, err := newTestRemote(srv.URL).Normalize("думаю")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "думать" {
		t.Errorf("expected думать, got %q", got)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

func TestRemoteGivesUp(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestRemote(srv.URL).Normalize("думаю")
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if n := calls.Load(); n != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, n)
	}
}

func TestRemoteClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad form", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestRemote(srv.URL).Normalize("думаю")
	if err == nil || IsRetryable(err) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := range 8 {
		d := Backoff(attempt)
		if d <= 0 || d > 45*time.Second {
			t.Errorf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}
