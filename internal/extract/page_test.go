package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPageText_VisibleBodyOnly(t *testing.T) {
	html := `
	<html>
	<head><title>Заголовок вкладки</title></head>
	<body>
		<h1>Кошки</h1>
		<script>var x = "скрипт";</script>
		<style>.a { color: red; }</style>
		<noscript>Включите JavaScript</noscript>
		<p>Кот это домашнее животное.</p>
	</body>
	</html>
	`

	text, err := PageText(html)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if text != "Кошки Кот это домашнее животное." {
		t.Errorf("Unexpected page text: %q", text)
	}

	for _, hidden := range []string{"скрипт", "color", "JavaScript", "Заголовок"} {
		if strings.Contains(text, hidden) {
			t.Errorf("Expected %q to be skipped, got %q", hidden, text)
		}
	}
}

func TestPageText_EmptyHTML(t *testing.T) {
	text, err := PageText("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "" {
		t.Errorf("Expected empty text, got %q", text)
	}
}

func TestPageSentences_BasicSplitting(t *testing.T) {
	html := `
	<html>
	<body>
		<p>Кот это домашнее животное. Собака это друг человека!</p>
		<p>Что такое гравитация? Да.</p>
	</body>
	</html>
	`

	sentences, err := PageSentences(html)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []string{
		"Кот это домашнее животное.",
		"Собака это друг человека!",
		"Что такое гравитация?",
	}
	if diff := cmp.Diff(want, sentences); diff != "" {
		t.Errorf("Sentences mismatch (-want +got):\n%s", diff)
	}
}

func TestPageSentences_Deduplication(t *testing.T) {
	html := `
	<html>
	<body>
		<p>Кот это домашнее животное.</p>
		<p>КОТ ЭТО ДОМАШНЕЕ ЖИВОТНОЕ.</p>
		<p>Луна это спутник Земли.</p>
	</body>
	</html>
	`

	sentences, err := PageSentences(html)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(sentences) != 2 {
		t.Fatalf("Expected 2 unique sentences, got %d: %v", len(sentences), sentences)
	}
	if sentences[0] != "Кот это домашнее животное." {
		t.Errorf("Expected first occurrence to be kept, got %q", sentences[0])
	}
}

func TestSplitSentences_DecimalsDoNotSplit(t *testing.T) {
	sentences := splitSentences("Число пи равно 3.14 примерно. Вторая фраза здесь.")

	want := []string{"Число пи равно 3.14 примерно.", "Вторая фраза здесь."}
	if diff := cmp.Diff(want, sentences); diff != "" {
		t.Errorf("Sentences mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitSentences_MinMaxLength(t *testing.T) {
	long := strings.Repeat("слово ", 60) + "конец."
	text := "Мало. " + long + " Нормальная длина фразы."

	sentences := splitSentences(text)

	if len(sentences) != 1 {
		t.Fatalf("Expected 1 sentence within bounds, got %d: %v", len(sentences), sentences)
	}
	if sentences[0] != "Нормальная длина фразы." {
		t.Errorf("Unexpected sentence: %q", sentences[0])
	}
}

func TestSplitSentences_TrailingTextWithoutTerminator(t *testing.T) {
	sentences := splitSentences("Первая фраза готова. хвост без точки")

	want := []string{"Первая фраза готова.", "хвост без точки"}
	if diff := cmp.Diff(want, sentences); diff != "" {
		t.Errorf("Sentences mismatch (-want +got):\n%s", diff)
	}
}
