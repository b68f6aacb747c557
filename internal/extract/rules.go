package extract

import (
	"strings"

	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/model"
	"go.uber.org/zap"
)

// Condition decides whether a rule applies to an utterance
type Condition func(phrase model.PhraseType, tokens []string, raw string) bool

// Action builds the intent for an utterance a rule applies to
type Action func(phrase model.PhraseType, tokens []string, raw string) model.Intent

// Rule is a named (condition, action) pair
type Rule struct {
	Name      string
	Condition Condition
	Action    Action
}

// Baseline rule names
const (
	RuleFactLong  = "fact_long"
	RuleFactShort = "fact_short"
	RuleQuestion  = "question"
)

// RuleEngine evaluates rules in registration order.
// There is no priority re-sorting: the first matching rule wins.
type RuleEngine struct {
	rules  []Rule
	logger *zap.Logger
}

// NewRuleEngine creates an engine pre-loaded with the baseline rules:
// fact_long, fact_short, question (in that order)
func NewRuleEngine(logger *zap.Logger) *RuleEngine {
	e := &RuleEngine{logger: logging.Component(logger, "rules")}
	for _, r := range BaselineRules() {
		e.Register(r)
	}
	return e
}

// BaselineRules returns the built-in rules in evaluation order
func BaselineRules() []Rule {
	return []Rule{
		{
			Name: RuleFactLong,
			Condition: func(p model.PhraseType, tokens []string, _ string) bool {
				return p == model.PhraseStatement && len(tokens) >= 3
			},
			Action: func(_ model.PhraseType, tokens []string, raw string) model.Intent {
				return model.Intent{
					Kind:      model.IntentFact,
					Subject:   tokens[0],
					Predicate: tokens[1],
					Object:    strings.Join(tokens[2:], " "),
					Source:    raw,
				}
			},
		},
		{
			Name: RuleFactShort,
			Condition: func(p model.PhraseType, tokens []string, _ string) bool {
				return p == model.PhraseStatement && len(tokens) == 2
			},
			Action: func(_ model.PhraseType, tokens []string, raw string) model.Intent {
				return model.Intent{
					Kind:      model.IntentFact,
					Subject:   tokens[0],
					Predicate: tokens[1],
					Object:    "",
					Source:    raw,
				}
			},
		},
		{
			Name: RuleQuestion,
			Condition: func(p model.PhraseType, _ []string, _ string) bool {
				return p == model.PhraseQuestion
			},
			Action: func(_ model.PhraseType, tokens []string, raw string) model.Intent {
				return model.Intent{
					Kind:   model.IntentQuestion,
					Text:   raw,
					Tokens: append([]string(nil), tokens...),
				}
			},
		},
	}
}

// Register appends a rule; it is evaluated after all earlier rules
func (e *RuleEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
	e.logger.Debug("rule registered", zap.String("rule", rule.Name))
}

// Rules returns the rule names in evaluation order
func (e *RuleEngine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Apply returns the intent of the first matching rule.
// ok is false when no rule matches.
func (e *RuleEngine) Apply(phrase model.PhraseType, tokens []string, raw string) (intent model.Intent, ok bool) {
	for _, rule := range e.rules {
		if rule.Condition(phrase, tokens, raw) {
			e.logger.Debug("rule applied", zap.String("rule", rule.Name))
			return rule.Action(phrase, tokens, raw), true
		}
	}
	return model.Intent{}, false
}
