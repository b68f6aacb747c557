// Package respond turns a classified utterance into the agent's reply text.
package respond

import (
	"fmt"
	"strings"

	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/model"
	"go.uber.org/zap"
)

// Reply texts
const (
	FoundPrefix     = "Вот что я нашёл в своей памяти: "
	UnknownAnswer   = "Пока не знаю ответа, но запомню этот вопрос."
	StatementStored = "Хорошо, я запомнил это как утверждение."
	CommandReply    = "Понял команду, но пока не умею её выполнять."
	UnknownReply    = "Я пока не знаю, как на это ответить."
	Acknowledgement = "Принято. Записал."
)

// StatementPredicate is the predicate used when a statement is stored whole
const StatementPredicate = "is"

// Memory is the part of the fact store the generator uses
type Memory interface {
	SearchByToken(token string) []string
	AddFact(subject, predicate, object, source string) error
}

// Generator builds replies; it works without memory too
type Generator struct {
	memory Memory
	logger *zap.Logger
}

// NewGenerator creates a generator; memory may be nil
func NewGenerator(memory Memory, logger *zap.Logger) *Generator {
	return &Generator{
		memory: memory,
		logger: logging.Component(logger, "generator"),
	}
}

// Generate returns the reply for an utterance of the given type.
// For statements it also stores (t0, "is", rest) in memory.
func (g *Generator) Generate(phrase model.PhraseType, tokens []string) string {
	switch phrase {
	case model.PhraseQuestion:
		return g.answer(tokens)
	case model.PhraseStatement:
		return g.acknowledgeStatement(tokens)
	case model.PhraseCommand:
		return CommandReply
	default:
		return UnknownReply
	}
}

func (g *Generator) answer(tokens []string) string {
	if g.memory != nil && len(tokens) > 0 {
		keyword := tokens[len(tokens)-1]
		if found := g.memory.SearchByToken(keyword); len(found) > 0 {
			g.logger.Info("answer found in memory", zap.String("keyword", keyword))
			return FoundPrefix + found[0]
		}
	}
	return UnknownAnswer
}

func (g *Generator) acknowledgeStatement(tokens []string) string {
	if g.memory != nil && len(tokens) > 0 {
		err := g.memory.AddFact(tokens[0], StatementPredicate, strings.Join(tokens[1:], " "), "")
		if err != nil {
			g.logger.Debug("statement not stored", zap.Error(err))
		}
	}
	return StatementStored
}

// AskClarification asks the user to explain a phrase
func (g *Generator) AskClarification(phrase string) string {
	return fmt.Sprintf("Ты можешь объяснить, что значит: '%s'?", phrase)
}

// Acknowledgement confirms a clarification was received
func (g *Generator) Acknowledgement() string {
	return Acknowledgement
}

// Error formats a user-visible failure
func (g *Generator) Error(info string) string {
	return strings.TrimSpace("Возникла ошибка. " + info)
}
