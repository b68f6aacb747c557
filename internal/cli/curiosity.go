package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/endi/internal/curiosity"
	"github.com/ppiankov/endi/internal/journal"
	"github.com/ppiankov/endi/internal/llm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	explainLimit   int
	explainTimeout time.Duration
)

// curiosityCmd represents the curiosity command
var curiosityCmd = &cobra.Command{
	Use:   "curiosity",
	Short: "Inspect the phrases Endi wants to learn about",
	Args:  cobra.NoArgs,
	RunE:  runCuriosityList,
}

var curiosityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open questions",
	Args:  cobra.NoArgs,
	RunE:  runCuriosityList,
}

var curiosityClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every open question",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTrainer()
		if err != nil {
			return err
		}
		defer closeTrainer(t)

		n := t.Curiosity().Len()
		t.ClearCuriosity()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d open question(s)\n", n)
		return nil
	},
}

var curiosityPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show learning goals not yet recorded in the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cur := loadCuriosity()
		planner := journal.NewPlanner(cur, journal.NewJournal(appConfig.Paths.JournalFile, logger), logger)
		printList(cmd.OutOrStdout(), planner.Plan(), "")
		return nil
	},
}

var curiosityExplainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Ask an external language model to explain open questions",
	Long: `Explain sends each open question to the configured language model and
feeds the one-sentence answer through fact extraction. Phrases that
produce a fact leave the curiosity list.

Requires modules.enable_external_ai and an llm.provider
(openai, anthropic or ollama). The API key is read from llm.api_key,
ENDI_LLM_API_KEY or OPENAI_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: runCuriosityExplain,
}

func init() {
	curiosityExplainCmd.Flags().IntVarP(&explainLimit, "limit", "n", 5, "explain at most this many phrases (0 means all)")
	curiosityExplainCmd.Flags().DurationVar(&explainTimeout, "timeout", 5*time.Minute, "total timeout")

	curiosityCmd.AddCommand(curiosityListCmd, curiosityClearCmd, curiosityPlanCmd, curiosityExplainCmd)
	rootCmd.AddCommand(curiosityCmd)
}

func runCuriosityList(cmd *cobra.Command, args []string) error {
	printList(cmd.OutOrStdout(), loadCuriosity().Questions(), "Открытых вопросов нет.")
	return nil
}

// loadCuriosity reads the saved open questions without starting a trainer
func loadCuriosity() *curiosity.Tracker {
	cur := curiosity.New(logger)
	if err := cur.Load(appConfig.Paths.CuriosityFile); err != nil {
		logger.Warn("failed to load curiosity", zap.Error(err))
	}
	return cur
}

func runCuriosityExplain(cmd *cobra.Command, args []string) error {
	explainer, err := llm.NewExplainer(appConfig, logger)
	if err != nil {
		return fmt.Errorf("create explainer: %w", err)
	}
	if explainer == nil {
		return fmt.Errorf("external AI is disabled (set modules.enable_external_ai and llm.provider)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), explainTimeout)
	defer cancel()

	if !explainer.IsAvailable(ctx) {
		return fmt.Errorf("%s endpoint is not available (check llm.base_url and the API key)", explainer.Name())
	}

	t, err := openTrainer()
	if err != nil {
		return err
	}
	defer closeTrainer(t)

	out := cmd.OutOrStdout()
	results := t.ExplainCuriosity(ctx, explainer, explainLimit)
	if len(results) == 0 {
		fmt.Fprintln(out, "Открытых вопросов нет.")
		return nil
	}

	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(out, "✗ %s: %v\n", r.Phrase, r.Err)
		case r.Learned:
			fmt.Fprintf(out, "✓ %s\n", r.Sentence)
		default:
			fmt.Fprintf(out, "· %s (no fact extracted)\n", r.Sentence)
		}
	}
	return nil
}
