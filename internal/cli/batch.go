package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/finnflow/lebensessenz-kursbot/internal/format"
	"github.com/finnflow/lebensessenz-kursbot/internal/pipeline"
	"github.com/finnflow/lebensessenz-kursbot/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple meal descriptions from a file in parallel",
	Long: `Batch analyzes meal descriptions concurrently:
- Read descriptions from input file (one per line, # for comments)
- Process lines in parallel with configurable worker count
- Write one result file per line into the output directory

Example:
  kursbot batch speiseplan.txt
  kursbot batch speiseplan.txt --concurrency 8 --output-dir ./ergebnisse
  kursbot batch speiseplan.txt --mode assumption --classifier openai`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./kursbot-ergebnisse", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// Shared with analyze
	batchCmd.Flags().StringVar(&analysisMode, "mode", "strict", "analysis mode: strict or assumption")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable classifier response cache")
	batchCmd.Flags().BoolVar(&noDiagnostics, "no-diagnostics", false, "disable unknown-term logging")
	batchCmd.Flags().StringVar(&classifierProvider, "classifier", "", "fallback classifier provider (openai, ollama); empty disables")
	batchCmd.Flags().StringVar(&classifierModel, "classifier-model", "", "classifier model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Kursbot Batch-Analyse\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency
	if cfg.Classifier.Provider != "" {
		fmt.Fprintf(os.Stderr, "  Classifier:   %s/%s\n\n", cfg.Classifier.Provider, cfg.Classifier.Model)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	analyzer, err := pipeline.NewAnalyzer(cfg)
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}
	defer func() { _ = analyzer.Close() }()

	processor := worker.NewBatchProcessor(analyzer, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Reading input lines...\n")
	outcomes, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d lines\n", len(outcomes))
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Analyzing with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	successCount := 0
	failureCount := 0

	for _, outcome := range outcomes {
		if outcome.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.Line, outcome.Error)
			continue
		}
		successCount++

		slug := sanitizeFilename(outcome.Line)
		path := filepath.Join(outputDir, slug+".json")
		data, err := json.MarshalIndent(outcome.Results, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: marshal results: %v\n", outcome.Line, err)
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: write results: %v\n", outcome.Line, err)
			continue
		}

		for _, r := range outcome.Results {
			fmt.Fprintf(os.Stderr, "✓ %s: %s\n", r.DishName, r.Verdict)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "  Query: %s\n", format.BuildQuery(outcome.Results, false))
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch abgeschlossen\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d lines\n", len(outcomes))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename turns an input line into a safe file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-", ",", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "analyse"
	}
	return s
}
