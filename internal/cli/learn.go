package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/endi/internal/extract"
	"github.com/ppiankov/endi/internal/pipeline"
	"github.com/ppiankov/endi/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	learnFile    string
	learnFollow  int
	learnWorkers int
	learnTimeout time.Duration
	learnNoCache bool
)

// learnCmd represents the learn command
var learnCmd = &cobra.Command{
	Use:   "learn [url...]",
	Short: "Learn facts from web pages",
	Long: `Learn fetches pages and feeds every valid statement of their body text
through fact extraction:
- URLs are read from arguments and/or a file (one per line)
- Pages are fetched in parallel with per-host rate limiting
- robots.txt is honoured unless http.respect_robots is off
- With --follow, same-host links are followed breadth-first

Example:
  endi learn https://ru.wikipedia.org/wiki/Кошка
  endi learn --file urls.txt --workers 8
  endi learn https://ru.wikipedia.org/wiki/Кошка --follow 20`,
	RunE: runLearn,
}

func init() {
	rootCmd.AddCommand(learnCmd)

	learnCmd.Flags().StringVarP(&learnFile, "file", "f", "", "file with URLs, one per line")
	learnCmd.Flags().IntVar(&learnFollow, "follow", 0, "follow same-host links up to this many pages in total")
	learnCmd.Flags().IntVar(&learnWorkers, "workers", 0, "number of concurrent workers (default: concurrency.workers)")
	learnCmd.Flags().DurationVar(&learnTimeout, "timeout", 10*time.Minute, "total timeout for learning")
	learnCmd.Flags().BoolVar(&learnNoCache, "no-cache", false, "disable cache (force fresh fetch)")
}

func runLearn(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && learnFile == "" {
		return fmt.Errorf("no URLs given (pass them as arguments or with --file)")
	}

	workers := learnWorkers
	if workers <= 0 {
		workers = appConfig.Concurrency.Workers
	}
	if learnNoCache {
		appConfig.Cache.Enabled = false
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), learnTimeout)
	defer cancel()

	t, err := openTrainer()
	if err != nil {
		return err
	}
	defer closeTrainer(t)

	fetcher := pipeline.NewFetcherFromConfig(appConfig, logger)
	learner := pipeline.NewLearner(fetcher, t.Store(), t.Report(), logger)
	learner.SetValidator(
		extract.NewTokenizer(appConfig.Processor.MaxTokensPerInput, logger),
		extract.NewStatementValidator(appConfig.NLP.LinkingWords))

	processor := worker.NewBatchProcessor(learner, workers, appConfig.RateLimiting.RequestsPerSecond, appConfig.RateLimiting.BurstSize)
	processor.SetLogger(logger)
	for domain, rps := range appConfig.RateLimiting.Domains {
		processor.SetDomainRate(domain, rps)
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "⚙️  Learning with %d workers...\n\n", workers)

	var results []*worker.PageResult
	switch {
	case learnFollow > 0:
		seeds := append([]string(nil), args...)
		if learnFile != "" {
			fromFile, err := worker.ReadURLsFromFile(learnFile)
			if err != nil {
				return err
			}
			seeds = append(seeds, fromFile...)
		}
		results = processor.Crawl(ctx, seeds, learnFollow)
	default:
		results = processor.ProcessURLs(ctx, args)
		if learnFile != "" {
			fromFile, err := processor.ProcessFile(ctx, learnFile)
			if err != nil {
				return err
			}
			results = append(results, fromFile...)
		}
	}

	printLearnSummary(cmd.OutOrStdout(), errOut, results)
	logger.Info("learning finished",
		zap.Int("pages", len(results)),
		zap.Int("hosts", processor.Hosts()),
		zap.Int("facts", t.Store().Len()))
	return nil
}

func printLearnSummary(out, errOut io.Writer, results []*worker.PageResult) {
	success, failures, facts := 0, 0, 0
	for _, r := range results {
		if r.Error != nil {
			failures++
			fmt.Fprintf(errOut, "✗ %s: %v\n", r.URL, r.Error)
			continue
		}

		success++
		facts += r.Learned.Facts
		cached := ""
		if r.Learned.FromCache {
			cached = " (cache)"
		}
		fmt.Fprintf(out, "✓ %s: %d sentences (%d rejected), %d new facts%s\n",
			r.Learned.Subject, r.Learned.Sentences, r.Learned.Rejected, r.Learned.Facts, cached)
	}

	fmt.Fprintln(errOut)
	fmt.Fprintf(errOut, "  Pages:     %d\n", len(results))
	fmt.Fprintf(errOut, "  Success:   %d\n", success)
	fmt.Fprintf(errOut, "  Failures:  %d\n", failures)
	fmt.Fprintf(errOut, "  New facts: %d\n", facts)

	if failures > 0 && success == 0 {
		fmt.Fprintln(errOut, "No page could be learned.")
	}
}
