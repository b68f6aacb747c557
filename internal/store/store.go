// Package store holds the agent's knowledge: a capacity-bounded list of
// unique subject-predicate-object facts plus free-form knowledge entries.
package store

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/ppiankov/endi/internal/extract"
	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/model"
	"go.uber.org/zap"
)

var (
	// ErrCapacityExceeded is returned when the store already holds max_facts facts
	ErrCapacityExceeded = errors.New("fact capacity exceeded")

	// ErrDuplicateFact is returned when an identical triple is already stored
	ErrDuplicateFact = errors.New("duplicate fact")

	// ErrFactNotFound is returned by UpdateFact and DeleteFact for an unknown id
	ErrFactNotFound = errors.New("fact not found")
)

// DefaultMaxFacts is the capacity used when none is configured
const DefaultMaxFacts = 5000

// Options configures a FactStore
type Options struct {
	MaxFacts int
	Backend  Backend // nil keeps everything in memory

	// Extraction pipeline used by ExtractFactFromText; nil parts get defaults
	Tokenizer  *extract.Tokenizer
	Classifier *extract.Classifier
	Rules      *extract.RuleEngine

	Logger *zap.Logger
}

// Stats summarizes the store contents
type Stats struct {
	Facts     int `json:"facts"`
	Knowledge int `json:"knowledge"`
	MaxFacts  int `json:"max_facts"`
}

// FactStore is safe for concurrent use
type FactStore struct {
	mu        sync.Mutex
	facts     []model.Fact
	knowledge []model.KnowledgeEntry

	maxFacts int
	backend  Backend

	tokenizer  *extract.Tokenizer
	classifier *extract.Classifier
	rules      *extract.RuleEngine

	logger *zap.Logger
}

// New creates a store and loads any persisted state.
// A load failure is logged and leaves the store empty.
func New(opts Options) *FactStore {
	logger := logging.Component(opts.Logger, "memory")

	if opts.MaxFacts <= 0 {
		opts.MaxFacts = DefaultMaxFacts
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = extract.NewTokenizer(extract.DefaultMaxTokens, opts.Logger)
	}
	if opts.Classifier == nil {
		opts.Classifier = extract.NewClassifier(model.DefaultQuestionStarters, model.DefaultCommandVerbs, opts.Logger)
	}
	if opts.Rules == nil {
		opts.Rules = extract.NewRuleEngine(opts.Logger)
	}

	s := &FactStore{
		maxFacts:   opts.MaxFacts,
		backend:    opts.Backend,
		tokenizer:  opts.Tokenizer,
		classifier: opts.Classifier,
		rules:      opts.Rules,
		logger:     logger,
	}

	if s.backend != nil {
		doc, err := s.backend.Load()
		if err != nil {
			logger.Warn("failed to load memory, starting empty", zap.Error(err))
		} else {
			s.facts = s.checkLoadedFacts(doc.Facts)
			s.knowledge = s.checkLoadedEntries(doc.Entries)
		}
	}

	logger.Debug("memory loaded",
		zap.Int("facts", len(s.facts)),
		zap.Int("knowledge", len(s.knowledge)))
	return s
}

// checkLoadedFacts drops duplicate triples and facts beyond the capacity,
// keeping the earliest ones
func (s *FactStore) checkLoadedFacts(facts []model.Fact) []model.Fact {
	type triple struct{ s, p, o string }
	seen := make(map[triple]bool, len(facts))

	kept := make([]model.Fact, 0, len(facts))
	duplicates := 0
	for _, f := range facts {
		key := triple{f.Subject, f.Predicate, f.Object}
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		kept = append(kept, f)
	}
	if duplicates > 0 {
		s.logger.Warn("duplicate facts dropped on load", zap.Int("count", duplicates))
	}

	if len(kept) > s.maxFacts {
		s.logger.Warn("loaded facts exceed capacity, trimming",
			zap.Int("loaded", len(kept)),
			zap.Int("max_facts", s.maxFacts))
		kept = kept[:s.maxFacts]
	}
	return kept
}

// checkLoadedEntries normalizes entry types; unknown types are kept as is
func (s *FactStore) checkLoadedEntries(entries []model.KnowledgeEntry) []model.KnowledgeEntry {
	for i, e := range entries {
		kind, err := model.ParseKnowledgeType(string(e.Type))
		if err != nil {
			s.logger.Warn("knowledge entry with unknown type", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		entries[i].Type = kind
	}
	return entries
}

// AddFact stores a new triple.
// It fails with ErrCapacityExceeded when the store is full and with
// ErrDuplicateFact when the exact (case-sensitive) triple already exists.
// A persistence failure is logged and does not undo the add.
func (s *FactStore) AddFact(subject, predicate, object, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.facts) >= s.maxFacts {
		s.logger.Warn("fact limit reached", zap.Int("max_facts", s.maxFacts))
		return ErrCapacityExceeded
	}

	for _, f := range s.facts {
		if f.SameTriple(subject, predicate, object) {
			s.logger.Debug("duplicate fact skipped",
				zap.String("subject", subject),
				zap.String("predicate", predicate),
				zap.String("object", object))
			return ErrDuplicateFact
		}
	}

	fact := model.NewFact(subject, predicate, object, source)
	s.facts = append(s.facts, fact)
	s.logger.Info("fact added", zap.String("fact", fact.String()))

	s.persistLocked()
	return nil
}

// AddKnowledge appends a knowledge entry; entries are never deduplicated
func (s *FactStore) AddKnowledge(title, content string, kind model.KnowledgeType, tags []string) model.KnowledgeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := model.NewKnowledgeEntry(title, content, kind, tags)
	s.knowledge = append(s.knowledge, entry)
	s.logger.Info("knowledge added", zap.String("title", title), zap.String("type", string(kind)))

	s.persistLocked()
	return entry
}

// UpdateFact replaces the triple of the fact with the given id.
// The id, source and timestamp are kept.
func (s *FactStore) UpdateFact(id, subject, predicate, object string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrFactNotFound
	}

	for i, f := range s.facts {
		if i != idx && f.SameTriple(subject, predicate, object) {
			return ErrDuplicateFact
		}
	}

	s.facts[idx].Subject = subject
	s.facts[idx].Predicate = predicate
	s.facts[idx].Object = object
	s.logger.Info("fact updated", zap.String("id", id), zap.String("fact", s.facts[idx].String()))

	s.persistLocked()
	return nil
}

// DeleteFact removes the fact with the given id
func (s *FactStore) DeleteFact(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return ErrFactNotFound
	}

	s.facts = append(s.facts[:idx], s.facts[idx+1:]...)
	s.logger.Info("fact deleted", zap.String("id", id))

	s.persistLocked()
	return nil
}

// SearchByToken returns "S — P — O" strings for every fact whose subject or
// object contains token, case-insensitively, in insertion order.
// A blank token matches nothing.
func (s *FactStore) SearchByToken(token string) []string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []string
	for _, f := range s.facts {
		if strings.Contains(strings.ToLower(f.Subject), token) ||
			strings.Contains(strings.ToLower(f.Object), token) {
			results = append(results, f.String())
		}
	}
	return results
}

// FindBySubject returns facts whose subject equals subject, ignoring case
func (s *FactStore) FindBySubject(subject string) []model.Fact {
	subject = strings.TrimSpace(subject)

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []model.Fact
	for _, f := range s.facts {
		if strings.EqualFold(f.Subject, subject) {
			results = append(results, f)
		}
	}
	return results
}

// FindKnowledgeByTag returns the entries carrying tag
func (s *FactStore) FindKnowledgeByTag(tag string) []model.KnowledgeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []model.KnowledgeEntry
	for _, k := range s.knowledge {
		if k.HasTag(tag) {
			results = append(results, k)
		}
	}
	return results
}

// ExtractFactFromText runs text through classification, tokenization and
// the rule engine, and stores the resulting fact. It reports whether a new
// fact was stored; no match, a duplicate or a full store all yield false.
func (s *FactStore) ExtractFactFromText(text string) bool {
	phrase := s.classifier.Classify(text)
	tokens := s.tokenizer.Tokenize(text)

	intent, ok := s.rules.Apply(phrase, tokens, text)
	if !ok || intent.Kind != model.IntentFact {
		s.logger.Debug("no fact extracted", zap.String("text", text), zap.Stringer("phrase", phrase))
		return false
	}

	if err := s.AddFact(intent.Subject, intent.Predicate, intent.Object, intent.Source); err != nil {
		s.logger.Debug("extracted fact not stored", zap.Error(err))
		return false
	}
	return true
}

// Facts returns a copy of all facts in insertion order
func (s *FactStore) Facts() []model.Fact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Fact(nil), s.facts...)
}

// Knowledge returns a copy of all knowledge entries in insertion order
func (s *FactStore) Knowledge() []model.KnowledgeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.KnowledgeEntry(nil), s.knowledge...)
}

// Len returns the number of stored facts
func (s *FactStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.facts)
}

// Stats returns counts and the configured capacity
func (s *FactStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Facts:     len(s.facts),
		Knowledge: len(s.knowledge),
		MaxFacts:  s.maxFacts,
	}
}

// Close releases the backend if it holds resources
func (s *FactStore) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *FactStore) indexLocked(id string) int {
	for i, f := range s.facts {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked saves the full state; errors are logged only
func (s *FactStore) persistLocked() {
	if s.backend == nil {
		return
	}

	doc := Document{
		Facts:   append([]model.Fact(nil), s.facts...),
		Entries: append([]model.KnowledgeEntry(nil), s.knowledge...),
	}
	if err := s.backend.Save(doc); err != nil {
		s.logger.Error("failed to save memory", zap.Error(err))
	}
}
