package journal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ppiankov/endi/internal/logging"
	"go.uber.org/zap"
)

// DefaultReportLimit bounds Recent when no limit is given
const DefaultReportLimit = 300

// DefaultSource is used when an action is logged without a source
const DefaultSource = "Trainer"

// SelfReport is a plain-text action log: "[time] [source] action"
type SelfReport struct {
	mu     sync.Mutex
	path   string
	limit  int
	now    func() time.Time
	logger *zap.Logger
}

// NewSelfReport creates a report writing to path
func NewSelfReport(path string, logger *zap.Logger) *SelfReport {
	return &SelfReport{
		path:   path,
		limit:  DefaultReportLimit,
		now:    time.Now,
		logger: logging.Component(logger, "self_report"),
	}
}

// Log appends an action; write failures are logged only
func (r *SelfReport) Log(action, source string) {
	if source == "" {
		source = DefaultSource
	}
	line := fmt.Sprintf("[%s] [%s] %s", r.now().Format("2006-01-02 15:04:05"), source, action)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := appendLine(r.path, line); err != nil {
		r.logger.Error("failed to write self-report", zap.Error(err))
		return
	}
	r.logger.Debug("action logged", zap.String("source", source), zap.String("action", action))
}

// Recent returns up to n most recent lines, oldest first.
// n <= 0 uses the default limit.
func (r *SelfReport) Recent(n int) ([]string, error) {
	if n <= 0 {
		n = r.limit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open self-report: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read self-report: %w", err)
	}
	return lines, nil
}
