package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/endi/internal/trainer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive dialogue",
	Long: `Start an interactive dialogue with Endi.

Besides plain utterances the console understands:
  /mem facts [subject]     list facts
  /mem knowledge [tag]     list knowledge entries
  /mem export md|csv       print the memory
  /mem stats               show memory usage
  /curiosity               list open questions
  /plan                    show new learning goals
  выход, exit, quit        leave the dialogue`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

// sayCmd represents the say command
var sayCmd = &cobra.Command{
	Use:   "say <text>",
	Short: "Process a single utterance and print the reply",
	Example: `  endi say "кот это животное"
  endi say "что такое кот"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSay,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sayCmd)
}

// openTrainer builds a trainer from the loaded configuration
func openTrainer() (*trainer.Trainer, error) {
	t, err := trainer.New(appConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start trainer: %w", err)
	}
	return t, nil
}

func closeTrainer(t *trainer.Trainer) {
	if err := t.Close(); err != nil {
		logger.Error("failed to close memory", zap.Error(err))
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	t, err := openTrainer()
	if err != nil {
		return err
	}
	defer closeTrainer(t)

	return NewConsole(t, os.Stdin, cmd.OutOrStdout(), logger).Run()
}

func runSay(cmd *cobra.Command, args []string) error {
	t, err := openTrainer()
	if err != nil {
		return err
	}
	defer closeTrainer(t)

	c := NewConsole(t, nil, cmd.OutOrStdout(), logger)
	c.say(strings.Join(args, " "))
	return nil
}
