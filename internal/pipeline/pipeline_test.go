package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/endi/internal/extract"
	"github.com/ppiankov/endi/internal/journal"
	"github.com/ppiankov/endi/internal/model"
	"github.com/ppiankov/endi/internal/store"
)

const catPage = `<html><body>
<p>Кот это домашнее животное.</p>
<p>Что такое собака?</p>
<p>Собака любит кости.</p>
<p>Собака есть друг человека.</p>
<a href="/wiki/Пёс">Пёс</a>
<a href="https://other.example/x">x</a>
</body></html>`

func newPageServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLearner_LearnURL(t *testing.T) {
	server := newPageServer(t, catPage)
	memory := store.New(store.Options{})
	reportPath := filepath.Join(t.TempDir(), "self_report.txt")
	report := journal.NewSelfReport(reportPath, nil)

	learner := NewLearner(NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", ""), memory, report, nil)

	result, err := learner.LearnURL(context.Background(), server.URL+"/wiki/Кошка")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Sentences != 4 {
		t.Errorf("Expected 4 sentences, got %d", result.Sentences)
	}
	if result.Rejected != 2 {
		t.Errorf("Expected 2 rejected sentences, got %d", result.Rejected)
	}
	if result.Facts != 2 {
		t.Errorf("Expected 2 facts, got %d", result.Facts)
	}
	if result.Subject != "Кошка" {
		t.Errorf("Expected subject Кошка, got %q", result.Subject)
	}
	if len(result.Links) != 1 || !strings.HasPrefix(result.Links[0], server.URL+"/wiki/") {
		t.Errorf("Expected one same-host link, got %v", result.Links)
	}

	found := memory.FindBySubject("кот")
	if len(found) != 1 || found[0].Object != "домашнее животное" {
		t.Errorf("Expected cat fact, got %v", found)
	}
	if found[0].Source != "Кот это домашнее животное." {
		t.Errorf("Expected sentence as fact source, got %q", found[0].Source)
	}

	entries := memory.FindKnowledgeByTag("web")
	if len(entries) != 1 {
		t.Fatalf("Expected one knowledge entry, got %d", len(entries))
	}
	if entries[0].Title != "Кошка" || entries[0].Type != model.KnowledgeConcept {
		t.Errorf("Unexpected knowledge entry: %+v", entries[0])
	}

	lines, err := report.Recent(10)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "["+ReportSource+"]") {
		t.Errorf("Expected one learner report line, got %v", lines)
	}
}

func TestLearner_RelearningAddsNothing(t *testing.T) {
	server := newPageServer(t, catPage)
	memory := store.New(store.Options{})
	learner := NewLearner(NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", ""), memory, nil, nil)

	if _, err := learner.LearnURL(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	result, err := learner.LearnURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Facts != 0 {
		t.Errorf("Expected duplicates to be skipped, got %d new facts", result.Facts)
	}
	if memory.Len() != 2 {
		t.Errorf("Expected 2 facts in memory, got %d", memory.Len())
	}
	if len(memory.Knowledge()) != 1 {
		t.Errorf("Expected one knowledge entry, got %d", len(memory.Knowledge()))
	}
}

func TestLearner_RejectsSentencesWithoutLinkingWord(t *testing.T) {
	server := newPageServer(t, `<html><body><p>В 1990 году город получил статус. Население растёт каждый год. Кошка это животное.</p></body></html>`)
	memory := store.New(store.Options{})
	learner := NewLearner(NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", ""), memory, nil, nil)

	cfg := model.DefaultConfig()
	learner.SetValidator(extract.NewTokenizer(cfg.Processor.MaxTokensPerInput, nil), extract.NewStatementValidator(cfg.NLP.LinkingWords))

	result, err := learner.LearnURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Rejected != 2 || result.Facts != 1 {
		t.Errorf("Expected 2 rejected and 1 fact, got %d rejected and %d facts", result.Rejected, result.Facts)
	}

	var triples [][3]string
	for _, f := range memory.Facts() {
		triples = append(triples, [3]string{f.Subject, f.Predicate, f.Object})
	}
	want := [][3]string{{"кошка", "это", "животное"}}
	if diff := cmp.Diff(want, triples); diff != "" {
		t.Errorf("Unexpected facts (-want +got):\n%s", diff)
	}
}

func TestLearner_NoFactsNoKnowledge(t *testing.T) {
	server := newPageServer(t, "<html><body><p>Что такое собака?</p></body></html>")
	memory := store.New(store.Options{})
	learner := NewLearner(NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", ""), memory, nil, nil)

	result, err := learner.LearnURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Facts != 0 || len(memory.Knowledge()) != 0 {
		t.Errorf("Expected nothing learned, got %d facts and %d entries", result.Facts, len(memory.Knowledge()))
	}
}

func TestLearner_FetchError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	memory := store.New(store.Options{})
	learner := NewLearner(NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", ""), memory, nil, nil)

	_, err := learner.LearnURL(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for missing page")
	}
	if !strings.Contains(err.Error(), "unexpected status: 404") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestNewFetcherFromConfig(t *testing.T) {
	server := newPageServer(t, catPage)

	cfg := model.DefaultConfig()
	cfg.HTTP.RespectRobot = false
	cfg.HTTP.RetryCount = 2
	cfg.Paths.CacheDir = filepath.Join(t.TempDir(), "cache")

	fetcher := NewFetcherFromConfig(cfg, nil)
	if fetcher.attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", fetcher.attempts)
	}

	if _, err := fetcher.FetchWithRetry(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	server.Close()

	// Served from the page cache once the server is gone
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected cached page, got %v", err)
	}
	if !result.FromCache {
		t.Error("Expected result from cache")
	}
}
