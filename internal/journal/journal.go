// Package journal keeps the agent's append-only records: the meta journal
// of thoughts and goals, the self-report of actions, and the planner that
// turns open curiosity questions into learning goals.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/endi/internal/logging"
	"go.uber.org/zap"
)

// Journal tags
const (
	TagGeneral       = "general"
	TagFact          = "fact"
	TagCuriosity     = "curiosity"
	TagResponse      = "response"
	TagGoal          = "goal"
	TagReflection    = "reflection"
	TagClarification = "clarification"
	TagQuestion      = "question"
	TagKnowledge     = "knowledge"
)

const goalPrefix = "Цель: "

// DefaultJournalLimit bounds Recent when no limit is given
const DefaultJournalLimit = 500

// Entry is one journal line
type Entry struct {
	Time    string `json:"time"`
	Tag     string `json:"tag"`
	Thought string `json:"thought"`
}

// Journal appends entries as JSON lines.
// Write failures are logged and never interrupt the caller.
type Journal struct {
	mu     sync.Mutex
	path   string
	limit  int
	now    func() time.Time
	logger *zap.Logger
}

// NewJournal creates a journal writing to path
func NewJournal(path string, logger *zap.Logger) *Journal {
	return &Journal{
		path:   path,
		limit:  DefaultJournalLimit,
		now:    time.Now,
		logger: logging.Component(logger, "journal"),
	}
}

// Path returns the journal file location
func (j *Journal) Path() string {
	return j.path
}

// Record appends a thought under tag; an empty tag means "general"
func (j *Journal) Record(thought, tag string) {
	if tag == "" {
		tag = TagGeneral
	}
	entry := Entry{
		Time:    j.now().Format(time.RFC3339),
		Tag:     tag,
		Thought: thought,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		j.logger.Error("failed to encode journal entry", zap.Error(err))
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := appendLine(j.path, string(line)); err != nil {
		j.logger.Error("failed to write journal", zap.Error(err))
		return
	}
	j.logger.Debug("journal entry", zap.String("tag", tag), zap.String("thought", thought))
}

// RecordFactAdded notes a newly learned fact
func (j *Journal) RecordFactAdded(subject, predicate, object string) {
	j.Record(fmt.Sprintf("Я запомнил факт: %s — %s — %s.", subject, predicate, object), TagFact)
}

// RecordUnknownPhrase notes a phrase that matched no rule
func (j *Journal) RecordUnknownPhrase(phrase string) {
	j.Record(fmt.Sprintf("Я не понял фразу: '%s'", phrase), TagCuriosity)
}

// RecordResponse notes a reply given to the user
func (j *Journal) RecordResponse(response string) {
	j.Record("Я ответил: "+response, TagResponse)
}

// RecordGoal notes a learning goal; Goals returns description verbatim
func (j *Journal) RecordGoal(description string) {
	j.Record(goalPrefix+description, TagGoal)
}

// RecordReflection notes an insight
func (j *Journal) RecordReflection(insight string) {
	j.Record("Размышление: "+insight, TagReflection)
}

// RecordQuestion notes a detected user question
func (j *Journal) RecordQuestion(text string) {
	j.Record("Обнаружен вопрос: "+text, TagQuestion)
}

// RecordKnowledge notes a new knowledge entry
func (j *Journal) RecordKnowledge(title string) {
	j.Record("Новое знание: "+title, TagKnowledge)
}

// RecordClarificationPrompt notes a clarification question asked by the agent
func (j *Journal) RecordClarificationPrompt(prompt string) {
	j.Record(prompt, TagClarification)
}

// RecordClarificationResponse notes the user's answer to a clarification
func (j *Journal) RecordClarificationResponse(response, question string) {
	msg := "Уточняющий ответ: " + response
	if question != "" {
		msg += " на вопрос: " + question
	}
	j.Record(msg, TagClarification)
}

// Recent returns up to n most recent entries, oldest first.
// n <= 0 uses the default limit. Malformed lines are skipped.
func (j *Journal) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		n = j.limit
	}

	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Goals returns the descriptions of every goal entry, in order
func (j *Journal) Goals() ([]string, error) {
	entries, err := j.readAll()
	if err != nil {
		return nil, err
	}

	var goals []string
	for _, e := range entries {
		if e.Tag == TagGoal {
			goals = append(goals, strings.TrimPrefix(e.Thought, goalPrefix))
		}
	}
	return goals, nil
}

func (j *Journal) readAll() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			j.logger.Warn("skipping malformed journal line", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}

// appendLine appends one line to path, creating parent directories
func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
