package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/pipeline"
	"go.uber.org/zap"
)

// Learner learns from a single page
type Learner interface {
	LearnURL(ctx context.Context, url string) (*pipeline.LearnResult, error)
}

// LearnJob learns one page after waiting for its host's rate limit
type LearnJob struct {
	Index   int
	URL     string
	Learner Learner
	Limiter *Limiter
}

// Execute executes the learn job
func (j *LearnJob) Execute(ctx context.Context) Result {
	result := &PageResult{Index: j.Index, URL: j.URL}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			result.Error = fmt.Errorf("rate limit: %w", err)
			return result
		}
	}

	learned, err := j.Learner.LearnURL(ctx, j.URL)
	if err != nil {
		result.Error = err
		return result
	}
	result.Learned = learned
	return result
}

// PageResult is the outcome of learning one page
type PageResult struct {
	Index   int
	URL     string
	Learned *pipeline.LearnResult
	Error   error
}

// GetError returns the error from the page result
func (r *PageResult) GetError() error {
	return r.Error
}

// BatchProcessor learns many pages concurrently
type BatchProcessor struct {
	learner     Learner
	concurrency int
	limiter     *Limiter
	logger      *zap.Logger
}

// NewBatchProcessor creates a batch processor; a non-positive
// requestsPerSecond disables rate limiting
func NewBatchProcessor(learner Learner, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		learner:     learner,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the processor's logger
func (b *BatchProcessor) SetLogger(logger *zap.Logger) {
	b.logger = logging.Component(logger, "batch")
}

// SetDomainRate overrides the request rate for one host, with a burst
// of one; a non-positive rate lifts the limit for that host
func (b *BatchProcessor) SetDomainRate(domain string, requestsPerSecond float64) {
	b.limiter.SetDomainRate(domain, requestsPerSecond, 1)
}

// Hosts returns the number of distinct hosts requested so far
func (b *BatchProcessor) Hosts() int {
	return b.limiter.Hosts()
}

// ProcessURLs learns every URL and returns the results in input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*PageResult {
	if len(urls) == 0 {
		return []*PageResult{}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, url := range urls {
			pool.Submit(&LearnJob{
				Index:   i,
				URL:     url,
				Learner: b.learner,
				Limiter: b.limiter,
			})
		}
		pool.Close()
	}()

	results := make([]*PageResult, 0, len(urls))
	for r := range pool.Results() {
		page := r.(*PageResult)
		if page.Error != nil {
			b.logger.Warn("page not learned", zap.String("url", page.URL), zap.Error(page.Error))
		}
		results = append(results, page)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// ProcessFile reads URLs from a file and learns them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*PageResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// Crawl learns the seed pages and then follows same-host links breadth
// first until maxPages pages have been attempted or no new links remain
func (b *BatchProcessor) Crawl(ctx context.Context, seeds []string, maxPages int) []*PageResult {
	visited := make(map[string]bool)
	var all []*PageResult

	frontier := unvisited(seeds, visited)
	for len(frontier) > 0 && len(all) < maxPages && ctx.Err() == nil {
		if room := maxPages - len(all); len(frontier) > room {
			frontier = frontier[:room]
		}
		for _, u := range frontier {
			visited[u] = true
		}

		results := b.ProcessURLs(ctx, frontier)
		offset := len(all)
		var next []string
		for _, r := range results {
			r.Index += offset
			all = append(all, r)
			if r.Learned != nil {
				next = append(next, r.Learned.Links...)
			}
		}
		frontier = unvisited(next, visited)
	}

	return all
}

// unvisited returns the distinct URLs not yet seen, in order
func unvisited(urls []string, visited map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range urls {
		if visited[u] || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// ReadURLsFromFile reads URLs from a file (one per line), skipping
// blank lines, # comments and duplicates
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
