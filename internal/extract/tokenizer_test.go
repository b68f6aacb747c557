package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Кот Это Животное", "кот это животное"},
		{"collapse whitespace", "  кот \t это\n\nживотное  ", "кот это животное"},
		{"em dash", "Москва — столица", "москва - столица"},
		{"en dash and slash", "a–b/c", "a-b-c"},
		{"repeated hyphens", "a---b", "a-b"},
		{"strip punctuation", "Привет, мир! (да?)", "привет мир да"},
		{"keep digits and underscore", "версия_2 вышла.", "версия_2 вышла"},
		{"empty", "   ", ""},
		{"hyphens around removed punctuation", "a-.-b", "a-b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizer_Tokenize(t *testing.T) {
	tok := NewTokenizer(200, zap.NewNop())

	tests := []struct {
		in   string
		want []string
	}{
		{"Кот это животное.", []string{"кот", "это", "животное"}},
		{"Москва — столица России", []string{"москва", "столица", "россии"}},
		{"кто-то пришёл", []string{"кто", "то", "пришёл"}},
		{"Что такое гравитация?", []string{"что", "такое", "гравитация"}},
		{"", nil},
		{"?!...", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := tok.Tokenize(tt.in)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestTokenizer_TruncationBoundary(t *testing.T) {
	const limit = 5
	tok := NewTokenizer(limit, zap.NewNop())

	words := make([]string, limit+1)
	for i := range words {
		words[i] = "слово"
	}

	got := tok.Tokenize(strings.Join(words, " "))
	if len(got) != limit {
		t.Errorf("Expected exactly %d tokens after truncation, got %d", limit, len(got))
	}

	exact := tok.Tokenize(strings.Join(words[:limit], " "))
	if len(exact) != limit {
		t.Errorf("Expected %d tokens at the limit, got %d", limit, len(exact))
	}
}

func TestTokenizer_TruncationKeepsOrder(t *testing.T) {
	tok := NewTokenizer(2, zap.NewNop())

	got := tok.Tokenize("один два три")
	if diff := cmp.Diff([]string{"один", "два"}, got); diff != "" {
		t.Errorf("Truncation mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizer_DefaultLimit(t *testing.T) {
	tok := NewTokenizer(0, nil)
	long := strings.Repeat("слово ", DefaultMaxTokens+10)
	if got := tok.CountTokens(long); got != DefaultMaxTokens {
		t.Errorf("Expected default limit %d, got %d", DefaultMaxTokens, got)
	}
}

func TestTokenizer_IdempotentOnCleanedInput(t *testing.T) {
	tok := NewTokenizer(200, zap.NewNop())

	inputs := []string{
		"Кот — это ДОМАШНЕЕ   животное!",
		"Что такое гравитация?",
		"a-.-b  «цитата» (скобки); конец.",
		"Москва/Питер -- города",
	}

	for _, in := range inputs {
		raw := tok.Tokenize(in)
		cleaned := tok.Tokenize(Clean(in))
		if Clean(Clean(in)) != Clean(in) {
			t.Errorf("Clean not idempotent for %q", in)
		}
		if diff := cmp.Diff(raw, cleaned); diff != "" {
			t.Errorf("Tokenize not idempotent for %q (-raw +cleaned):\n%s", in, diff)
		}
	}
}

func TestTokenizer_CountAndPreview(t *testing.T) {
	tok := NewTokenizer(200, zap.NewNop())

	preview := tok.PreviewTokens("Кот спит")
	if diff := cmp.Diff([]string{"кот", "спит"}, preview); diff != "" {
		t.Errorf("Preview mismatch (-want +got):\n%s", diff)
	}
}
