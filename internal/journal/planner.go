package journal

import (
	"github.com/ppiankov/endi/internal/logging"
	"go.uber.org/zap"
)

// NoOpenQuestions is the single plan item returned when nothing is left to learn
const NoOpenQuestions = "На данный момент у меня нет открытых вопросов."

// QuestionSource supplies the open learning questions
type QuestionSource interface {
	Questions() []string
}

// Planner derives learning goals from open questions, skipping the ones
// already recorded as goals in the journal
type Planner struct {
	questions QuestionSource
	journal   *Journal
	logger    *zap.Logger
}

// NewPlanner creates a planner
func NewPlanner(questions QuestionSource, journal *Journal, logger *zap.Logger) *Planner {
	return &Planner{
		questions: questions,
		journal:   journal,
		logger:    logging.Component(logger, "planner"),
	}
}

// Plan returns the new goals, or NoOpenQuestions when there are none.
// A journal read failure is logged and treated as "no goals logged yet".
func (p *Planner) Plan() []string {
	questions := p.questions.Questions()
	if len(questions) == 0 {
		p.logger.Info("no open questions")
		return []string{NoOpenQuestions}
	}

	logged := make(map[string]bool)
	if p.journal != nil {
		goals, err := p.journal.Goals()
		if err != nil {
			p.logger.Warn("failed to read logged goals", zap.Error(err))
		}
		for _, g := range goals {
			logged[g] = true
		}
	}

	var plan []string
	for _, q := range questions {
		if !logged[q] {
			plan = append(plan, q)
		}
	}

	p.logger.Debug("plan built", zap.Int("questions", len(questions)), zap.Int("new_goals", len(plan)))
	if len(plan) == 0 {
		return []string{NoOpenQuestions}
	}
	return plan
}
