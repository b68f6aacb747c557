// Package curiosity tracks phrases the agent did not understand.
package curiosity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ppiankov/endi/internal/logging"
	"go.uber.org/zap"
)

// Tracker is an insertion-ordered set of unknown phrases
type Tracker struct {
	mu      sync.Mutex
	phrases []string
	logger  *zap.Logger
}

// New creates an empty tracker
func New(logger *zap.Logger) *Tracker {
	return &Tracker{logger: logging.Component(logger, "curiosity")}
}

// Add records a phrase; adding a known phrase is a no-op.
// It reports whether the phrase was new.
func (t *Tracker) Add(phrase string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range t.phrases {
		if p == phrase {
			return false
		}
	}
	t.phrases = append(t.phrases, phrase)
	t.logger.Info("unknown phrase added", zap.String("phrase", phrase))
	return true
}

// Question formats a phrase as a learning question
func Question(phrase string) string {
	return fmt.Sprintf("Что значит: '%s'", phrase)
}

// Questions returns one question per tracked phrase, in insertion order
func (t *Tracker) Questions() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	questions := make([]string, len(t.phrases))
	for i, p := range t.phrases {
		questions[i] = Question(p)
	}
	return questions
}

// All returns a copy of the tracked phrases
func (t *Tracker) All() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.phrases...)
}

// Remove forgets a phrase; it reports whether it was tracked
func (t *Tracker) Remove(phrase string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, p := range t.phrases {
		if p == phrase {
			t.phrases = append(t.phrases[:i], t.phrases[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of tracked phrases
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.phrases)
}

// Clear forgets every phrase
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.phrases = nil
	t.logger.Info("curiosity cleared")
}

// Load replaces the tracked phrases with the JSON list stored at path.
// A missing or empty file yields an empty tracker. On a parse error the
// tracker is emptied and the error returned.
func (t *Tracker) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read curiosity: %w", err)
	}

	var phrases []string
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &phrases); err != nil {
			t.mu.Lock()
			t.phrases = nil
			t.mu.Unlock()
			return fmt.Errorf("parse curiosity %s: %w", path, err)
		}
	}

	t.mu.Lock()
	t.phrases = dedupe(phrases)
	n := len(t.phrases)
	t.mu.Unlock()

	t.logger.Debug("curiosity loaded", zap.Int("phrases", n), zap.String("path", path))
	return nil
}

// Save writes the phrases as an indented JSON list
func (t *Tracker) Save(path string) error {
	phrases := t.All()
	if phrases == nil {
		phrases = []string{}
	}

	data, err := json.MarshalIndent(phrases, "", "  ")
	if err != nil {
		return fmt.Errorf("encode curiosity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create curiosity dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write curiosity: %w", err)
	}
	return nil
}

func dedupe(phrases []string) []string {
	seen := make(map[string]bool, len(phrases))
	var out []string
	for _, p := range phrases {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
