package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/endi/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var memExportOut string

// memCmd represents the mem command
var memCmd = &cobra.Command{
	Use:   "mem",
	Short: "Inspect and edit Endi's memory",
}

var memFactsCmd = &cobra.Command{
	Use:   "facts [subject]",
	Short: "List facts, optionally only those about a subject",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.FactStore) error {
			if len(args) == 1 {
				printFacts(cmd.OutOrStdout(), s.FindBySubject(args[0]))
			} else {
				printFacts(cmd.OutOrStdout(), s.Facts())
			}
			return nil
		})
	},
}

var memKnowledgeCmd = &cobra.Command{
	Use:   "knowledge [tag]",
	Short: "List knowledge entries, optionally only those with a tag",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.FactStore) error {
			if len(args) == 1 {
				printKnowledge(cmd.OutOrStdout(), s.FindKnowledgeByTag(args[0]))
			} else {
				printKnowledge(cmd.OutOrStdout(), s.Knowledge())
			}
			return nil
		})
	},
}

var memExportCmd = &cobra.Command{
	Use:       "export md|csv",
	Short:     "Export memory as Markdown or CSV",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{store.FormatMarkdown, store.FormatCSV},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(args[0])
		return withStore(func(s *store.FactStore) error {
			if memExportOut == "" {
				return s.Export(cmd.OutOrStdout(), format)
			}

			f, err := os.Create(memExportOut)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := s.Export(f, format); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported to %s\n", memExportOut)
			return nil
		})
	},
}

var memUpdateCmd = &cobra.Command{
	Use:   "update <id> <subject> <predicate> <object>",
	Short: "Replace the triple of a stored fact",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.FactStore) error {
			if err := s.UpdateFact(args[0], args[1], args[2], args[3]); err != nil {
				return fmt.Errorf("update fact %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Fact %s updated\n", args[0])
			return nil
		})
	},
}

var memDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored fact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.FactStore) error {
			if err := s.DeleteFact(args[0]); err != nil {
				return fmt.Errorf("delete fact %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Fact %s deleted\n", args[0])
			return nil
		})
	},
}

var memStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.FactStore) error {
			printStats(cmd.OutOrStdout(), s.Stats())
			return nil
		})
	},
}

func init() {
	memExportCmd.Flags().StringVarP(&memExportOut, "out", "o", "", "write to file instead of stdout")

	memCmd.AddCommand(memFactsCmd, memKnowledgeCmd, memExportCmd, memUpdateCmd, memDeleteCmd, memStatsCmd)
	rootCmd.AddCommand(memCmd)
}

// withStore runs fn against the configured memory and closes it
// afterwards. Only the memory is opened: curiosity and the journals
// are left untouched.
func withStore(fn func(s *store.FactStore) error) error {
	s, err := store.Open(appConfig, store.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to open memory: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("failed to close memory", zap.Error(err))
		}
	}()
	return fn(s)
}
