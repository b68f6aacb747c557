package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/endi/internal/model"
)

func printFacts(w io.Writer, facts []model.Fact) {
	if len(facts) == 0 {
		fmt.Fprintln(w, "Фактов нет.")
		return
	}
	for _, f := range facts {
		fmt.Fprintf(w, "%s  %s\n", f.ID, f)
	}
}

func printKnowledge(w io.Writer, entries []model.KnowledgeEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Знаний нет.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "[%s] %s: %s", e.Type, e.Title, e.Content)
		if len(e.Tags) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(e.Tags, ", "))
		}
		fmt.Fprintln(w)
	}
}

// printList writes one numbered line per item, or empty when there are none
func printList(w io.Writer, items []string, empty string) {
	if len(items) == 0 {
		if empty != "" {
			fmt.Fprintln(w, empty)
		}
		return
	}
	for i, item := range items {
		fmt.Fprintf(w, "%d. %s\n", i+1, item)
	}
}
