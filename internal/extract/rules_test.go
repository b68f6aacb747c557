package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/endi/internal/model"
	"go.uber.org/zap"
)

func TestRuleEngine_BaselineOrder(t *testing.T) {
	e := NewRuleEngine(zap.NewNop())

	want := []string{RuleFactLong, RuleFactShort, RuleQuestion}
	if diff := cmp.Diff(want, e.Rules()); diff != "" {
		t.Errorf("Rule order mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleEngine_FactLong(t *testing.T) {
	e := NewRuleEngine(zap.NewNop())

	intent, ok := e.Apply(model.PhraseStatement, []string{"кот", "это", "животное"}, "кот это животное")
	if !ok {
		t.Fatal("Expected a rule to match")
	}

	want := model.Intent{
		Kind:      model.IntentFact,
		Subject:   "кот",
		Predicate: "это",
		Object:    "животное",
		Source:    "кот это животное",
	}
	if diff := cmp.Diff(want, intent); diff != "" {
		t.Errorf("Intent mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleEngine_FactLongJoinsObject(t *testing.T) {
	e := NewRuleEngine(zap.NewNop())

	intent, ok := e.Apply(model.PhraseStatement, []string{"москва", "это", "столица", "россии"}, "raw")
	if !ok {
		t.Fatal("Expected a rule to match")
	}
	if intent.Object != "столица россии" {
		t.Errorf("Expected joined object, got %q", intent.Object)
	}
}

func TestRuleEngine_FactShort(t *testing.T) {
	e := NewRuleEngine(zap.NewNop())

	intent, ok := e.Apply(model.PhraseStatement, []string{"кот", "есть"}, "кот есть")
	if !ok {
		t.Fatal("Expected a rule to match")
	}
	if intent.Kind != model.IntentFact || intent.Subject != "кот" || intent.Predicate != "есть" || intent.Object != "" {
		t.Errorf("Unexpected intent: %+v", intent)
	}
}

func TestRuleEngine_Question(t *testing.T) {
	e := NewRuleEngine(zap.NewNop())

	tokens := []string{"что", "такое", "гравитация"}
	intent, ok := e.Apply(model.PhraseQuestion, tokens, "что такое гравитация")
	if !ok {
		t.Fatal("Expected a rule to match")
	}
	if intent.Kind != model.IntentQuestion || intent.Text != "что такое гравитация" {
		t.Errorf("Unexpected intent: %+v", intent)
	}
	if diff := cmp.Diff(tokens, intent.Tokens); diff != "" {
		t.Errorf("Tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleEngine_NoMatch(t *testing.T) {
	e := NewRuleEngine(zap.NewNop())

	tests := []struct {
		name   string
		phrase model.PhraseType
		tokens []string
	}{
		{"statement with one token", model.PhraseStatement, []string{"кот"}},
		{"statement with no tokens", model.PhraseStatement, nil},
		{"command", model.PhraseCommand, []string{"покажи", "факты"}},
		{"unknown", model.PhraseUnknown, []string{"а", "б", "в"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if intent, ok := e.Apply(tt.phrase, tt.tokens, "raw"); ok {
				t.Errorf("Expected no match, got %+v", intent)
			}
		})
	}
}

func TestRuleEngine_RegisteredRulesRunLast(t *testing.T) {
	e := NewRuleEngine(zap.NewNop())

	called := false
	e.Register(Rule{
		Name: "catch_all",
		Condition: func(model.PhraseType, []string, string) bool {
			called = true
			return true
		},
		Action: func(_ model.PhraseType, tokens []string, raw string) model.Intent {
			return model.Intent{Kind: model.IntentConcept, Title: raw, Content: raw, KnowledgeType: model.KnowledgeConcept}
		},
	})

	// A baseline rule still wins for a long statement.
	intent, _ := e.Apply(model.PhraseStatement, []string{"a", "b", "c"}, "a b c")
	if intent.Kind != model.IntentFact {
		t.Errorf("Expected baseline fact rule to win, got %s", intent.Kind)
	}
	if called {
		t.Error("Later rule condition must not be evaluated once an earlier rule matched")
	}

	intent, ok := e.Apply(model.PhraseCommand, []string{"x"}, "x")
	if !ok || intent.Kind != model.IntentConcept {
		t.Errorf("Expected registered rule to match commands, got %+v", intent)
	}
}
