package cli

import (
	"fmt"

	"github.com/ppiankov/endi/internal/journal"
	"github.com/spf13/cobra"
)

var tailLines int

// journalCmd represents the journal command
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the most recent meta-journal entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j := journal.NewJournal(appConfig.Paths.JournalFile, logger)
		entries, err := j.Recent(tailLines)
		if err != nil {
			return fmt.Errorf("read journal: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintf(out, "Журнал пуст (%s)\n", j.Path())
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s [%s] %s\n", e.Time, e.Tag, e.Thought)
		}
		return nil
	},
}

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the most recent self-report actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := journal.NewSelfReport(appConfig.Paths.SelfReport, logger)
		lines, err := r.Recent(tailLines)
		if err != nil {
			return fmt.Errorf("read self-report: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	journalCmd.Flags().IntVarP(&tailLines, "lines", "n", 20, "number of entries to show")
	reportCmd.Flags().IntVarP(&tailLines, "lines", "n", 20, "number of lines to show")

	rootCmd.AddCommand(journalCmd, reportCmd)
}
