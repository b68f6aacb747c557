package trainer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/endi/internal/curiosity"
	"go.uber.org/zap"
)

// Explainer answers "what does this phrase mean" with one declarative
// sentence, e.g. "гравитация — это сила притяжения"
type Explainer interface {
	Explain(ctx context.Context, phrase string) (string, error)
}

// Explanation is the outcome for one curiosity phrase
type Explanation struct {
	Phrase   string
	Term     string // What ex was asked about
	Sentence string
	Learned  bool // A new fact was extracted; the phrase left curiosity
	Err      error
}

// Words that follow a question starter without naming the subject
var questionFillers = map[string]bool{
	"такое": true, "такой": true, "такая": true, "такие": true,
	"значит": true, "это": true, "есть": true, "же": true, "означает": true,
}

// explainTerm reduces a tracked phrase to the term worth explaining:
// "что такое гравитация" becomes "гравитация". Leading question starters
// and filler words are dropped; when nothing remains the last token is used.
func (t *Trainer) explainTerm(phrase string) string {
	tokens := t.tokenizer.Tokenize(phrase)
	if len(tokens) == 0 {
		return phrase
	}

	rest := tokens
	for len(rest) > 0 && (t.classifier.IsQuestionStarter(rest[0]) || questionFillers[rest[0]]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return tokens[len(tokens)-1]
	}
	return strings.Join(rest, " ")
}

// ExplainCuriosity takes up to limit tracked phrases (0 means all), asks ex
// about the term each one names and feeds the answer through fact
// extraction, like a clarification.
// Phrases that produce a fact are removed from curiosity.
func (t *Trainer) ExplainCuriosity(ctx context.Context, ex Explainer, limit int) []Explanation {
	phrases := t.curiosity.All()
	if limit > 0 && len(phrases) > limit {
		phrases = phrases[:limit]
	}

	var results []Explanation
	for _, phrase := range phrases {
		if ctx.Err() != nil {
			break
		}

		term := t.explainTerm(phrase)
		sentence, err := ex.Explain(ctx, term)
		if err != nil {
			t.logger.Warn("explanation failed", zap.String("phrase", phrase), zap.String("term", term), zap.Error(err))
			results = append(results, Explanation{Phrase: phrase, Term: term, Err: err})
			continue
		}

		learned := t.store.ExtractFactFromText(sentence)
		if t.journal != nil {
			t.journal.RecordClarificationResponse(sentence, curiosity.Question(phrase))
		}
		t.logAction("Получено объяснение: "+sentence, "Explainer")
		if learned {
			t.curiosity.Remove(phrase)
		} else if t.journal != nil {
			t.journal.RecordReflection(fmt.Sprintf("объяснение '%s' не дало факта", term))
		}

		results = append(results, Explanation{Phrase: phrase, Term: term, Sentence: sentence, Learned: learned})
	}

	t.saveCuriosity()
	return results
}
