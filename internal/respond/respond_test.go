package respond

import (
	"errors"
	"testing"

	"github.com/ppiankov/endi/internal/model"
	"go.uber.org/zap"
)

type fakeMemory struct {
	facts  map[string][]string
	added  [][3]string
	addErr error
}

func (m *fakeMemory) SearchByToken(token string) []string {
	return m.facts[token]
}

func (m *fakeMemory) AddFact(subject, predicate, object, _ string) error {
	m.added = append(m.added, [3]string{subject, predicate, object})
	return m.addErr
}

func TestGenerate_Question(t *testing.T) {
	mem := &fakeMemory{facts: map[string][]string{
		"кот": {"кот — это — животное", "кот — любит — рыбу"},
	}}
	g := NewGenerator(mem, zap.NewNop())

	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"last token found", []string{"кто", "такой", "кот"}, "Вот что я нашёл в своей памяти: кот — это — животное"},
		{"last token unknown", []string{"кот", "где"}, UnknownAnswer},
		{"no tokens", nil, UnknownAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Generate(model.PhraseQuestion, tt.tokens); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGenerate_StatementStoresWholeStatement(t *testing.T) {
	mem := &fakeMemory{}
	g := NewGenerator(mem, zap.NewNop())

	got := g.Generate(model.PhraseStatement, []string{"кот", "это", "животное"})
	if got != StatementStored {
		t.Errorf("Expected %q, got %q", StatementStored, got)
	}
	if len(mem.added) != 1 || mem.added[0] != [3]string{"кот", "is", "это животное"} {
		t.Errorf("Unexpected stored facts: %v", mem.added)
	}

	// A failed store does not change the reply
	mem.addErr = errors.New("duplicate")
	if got := g.Generate(model.PhraseStatement, []string{"кот", "это", "животное"}); got != StatementStored {
		t.Errorf("Expected %q, got %q", StatementStored, got)
	}

	// No tokens, nothing stored
	g.Generate(model.PhraseStatement, nil)
	if len(mem.added) != 2 {
		t.Errorf("Expected no store for empty tokens, got %v", mem.added)
	}
}

func TestGenerate_WithoutMemory(t *testing.T) {
	g := NewGenerator(nil, nil)

	if got := g.Generate(model.PhraseQuestion, []string{"кот"}); got != UnknownAnswer {
		t.Errorf("Expected %q, got %q", UnknownAnswer, got)
	}
	if got := g.Generate(model.PhraseStatement, []string{"кот", "спит"}); got != StatementStored {
		t.Errorf("Expected %q, got %q", StatementStored, got)
	}
}

func TestGenerate_CommandAndUnknown(t *testing.T) {
	g := NewGenerator(nil, nil)

	if got := g.Generate(model.PhraseCommand, []string{"покажи"}); got != CommandReply {
		t.Errorf("Expected %q, got %q", CommandReply, got)
	}
	if got := g.Generate(model.PhraseUnknown, []string{"абв"}); got != UnknownReply {
		t.Errorf("Expected %q, got %q", UnknownReply, got)
	}
}

func TestGenerator_FixedTexts(t *testing.T) {
	g := NewGenerator(nil, nil)

	if got := g.AskClarification("абв"); got != "Ты можешь объяснить, что значит: 'абв'?" {
		t.Errorf("Unexpected clarification: %q", got)
	}
	if got := g.Acknowledgement(); got != "Принято. Записал." {
		t.Errorf("Unexpected acknowledgement: %q", got)
	}
	if got := g.Error("диск"); got != "Возникла ошибка. диск" {
		t.Errorf("Unexpected error text: %q", got)
	}
	if got := g.Error(""); got != "Возникла ошибка." {
		t.Errorf("Unexpected error text: %q", got)
	}
}
