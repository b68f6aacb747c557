// Package pipeline fetches web pages and feeds their sentences to the fact store.
package pipeline

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ppiankov/endi/internal/extract"
	"github.com/ppiankov/endi/internal/journal"
	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/model"
	"go.uber.org/zap"
)

// ReportSource names the learner in the self-report
const ReportSource = "Learner"

// Memory is the part of the fact store the learner writes to
type Memory interface {
	ExtractFactFromText(text string) bool
	AddKnowledge(title, content string, kind model.KnowledgeType, tags []string) model.KnowledgeEntry
}

// Learner turns pages into facts
type Learner struct {
	fetcher   *Fetcher
	memory    Memory
	tokenizer *extract.Tokenizer
	validator *extract.StatementValidator
	report    *journal.SelfReport // Optional
	logger    *zap.Logger
}

// NewLearner creates a learner that validates sentences against the
// default linking words; report may be nil
func NewLearner(fetcher *Fetcher, memory Memory, report *journal.SelfReport, logger *zap.Logger) *Learner {
	return &Learner{
		fetcher:   fetcher,
		memory:    memory,
		tokenizer: extract.NewTokenizer(extract.DefaultMaxTokens, logger),
		validator: extract.NewStatementValidator(model.DefaultLinkingWords),
		report:    report,
		logger:    logging.Component(logger, "learner"),
	}
}

// SetValidator replaces the sentence tokenizer and statement validator
func (l *Learner) SetValidator(tokenizer *extract.Tokenizer, validator *extract.StatementValidator) {
	l.tokenizer = tokenizer
	l.validator = validator
}

// LearnResult summarizes what one page taught
type LearnResult struct {
	URL       string
	Subject   string
	Sentences int      // Sentences found on the page
	Rejected  int      // Sentences that failed statement validation
	Facts     int      // New facts stored
	Links     []string // Same-host links found on the page
	FromCache bool
}

// LearnURL fetches a page and runs every valid statement of its body
// through fact extraction. A page that yields facts is also kept as a
// knowledge entry tagged "web" and with its host.
func (l *Learner) LearnURL(ctx context.Context, rawURL string) (*LearnResult, error) {
	page, err := l.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("learn %s: %w", rawURL, err)
	}

	sentences, err := extract.PageSentences(page.HTML)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	result := &LearnResult{
		URL:       page.FinalURL,
		Subject:   page.Subject,
		Sentences: len(sentences),
		FromCache: page.FromCache,
	}

	var learned []string
	for _, sentence := range sentences {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !l.validator.Valid(l.tokenizer.Tokenize(sentence)) {
			result.Rejected++
			continue
		}
		if l.memory.ExtractFactFromText(sentence) {
			result.Facts++
			learned = append(learned, sentence)
		}
	}

	if len(learned) > 0 {
		tags := []string{"web"}
		if u, err := url.Parse(page.FinalURL); err == nil && u.Host != "" {
			tags = append(tags, u.Host)
		}
		l.memory.AddKnowledge(page.Subject, learned[0], model.KnowledgeConcept, tags)
	}

	links, err := extract.SameHostLinks(page.HTML, page.FinalURL)
	if err != nil {
		l.logger.Debug("link extraction failed", zap.String("url", page.FinalURL), zap.Error(err))
	}
	result.Links = links

	l.logger.Info("page learned",
		zap.String("url", result.URL),
		zap.Int("sentences", result.Sentences),
		zap.Int("rejected", result.Rejected),
		zap.Int("facts", result.Facts),
		zap.Bool("cached", result.FromCache))
	if l.report != nil {
		l.report.Log(fmt.Sprintf("Изучена страница %s: %d предложений, %d новых фактов", result.URL, result.Sentences, result.Facts), ReportSource)
	}

	return result, nil
}
