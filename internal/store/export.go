package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/endi/internal/model"
)

// Export formats
const (
	FormatMarkdown = "md"
	FormatCSV      = "csv"
)

// Export writes the store contents in the given format ("md" or "csv")
func (s *FactStore) Export(w io.Writer, format string) error {
	facts := s.Facts()
	knowledge := s.Knowledge()

	switch format {
	case FormatMarkdown:
		return WriteMarkdown(w, facts, knowledge)
	case FormatCSV:
		return WriteCSV(w, facts, knowledge)
	default:
		return fmt.Errorf("unknown export format %q (use md or csv)", format)
	}
}

// WriteMarkdown renders facts as a table and knowledge entries as sections
func WriteMarkdown(w io.Writer, facts []model.Fact, knowledge []model.KnowledgeEntry) error {
	var b strings.Builder

	b.WriteString("# Память Endi\n\n")
	fmt.Fprintf(&b, "## Факты (%d)\n\n", len(facts))
	if len(facts) > 0 {
		b.WriteString("| Субъект | Предикат | Объект | Время |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, f := range facts {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				escapeCell(f.Subject), escapeCell(f.Predicate), escapeCell(f.Object), f.Timestamp)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Знания (%d)\n\n", len(knowledge))
	for _, k := range knowledge {
		fmt.Fprintf(&b, "### %s\n\n", k.Title)
		fmt.Fprintf(&b, "- Тип: %s\n", k.Type)
		if len(k.Tags) > 0 {
			fmt.Fprintf(&b, "- Теги: %s\n", strings.Join(k.Tags, ", "))
		}
		fmt.Fprintf(&b, "- Создано: %s\n\n", k.Created)
		fmt.Fprintf(&b, "%s\n\n", k.Content)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCSV writes one record per fact and per knowledge entry.
// The first column tells the two kinds apart.
func WriteCSV(w io.Writer, facts []model.Fact, knowledge []model.KnowledgeEntry) error {
	cw := csv.NewWriter(w)

	header := []string{"kind", "id", "subject_or_title", "predicate_or_type", "object_or_content", "tags", "source", "time"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, f := range facts {
		if err := cw.Write([]string{"fact", f.ID, f.Subject, f.Predicate, f.Object, "", f.Source, f.Timestamp}); err != nil {
			return err
		}
	}
	for _, k := range knowledge {
		record := []string{"knowledge", k.ID, k.Title, string(k.Type), k.Content, strings.Join(k.Tags, ";"), "", k.Created}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
