package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/finnflow/lebensessenz-kursbot/internal/format"
	"github.com/finnflow/lebensessenz-kursbot/internal/model"
	"github.com/finnflow/lebensessenz-kursbot/internal/parse"
	"github.com/finnflow/lebensessenz-kursbot/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	inputFile          string
	analysisMode       string
	outputJSON         bool
	noCache            bool
	noDiagnostics      bool
	classifierProvider string
	classifierModel    string
	analyzeTimeout     time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze a meal description against the Trennkost rules",
	Long: `Analyze parses a meal description, classifies the ingredients and
evaluates the combination:
- Free text: "Reis mit Hähnchen und Brokkoli"
- Questions: "Ist Spaghetti Carbonara ok?"
- Pasted recipes with "Zutat: Menge" lines
- Pasted HTML (menus, newsletters)

Example:
  kursbot analyze "Reis, Hähnchen, Brokkoli"
  kursbot analyze --file speiseplan.txt --mode assumption
  kursbot analyze "Ist ein Burger mit Tempeh ok?" --classifier openai`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read input text from file instead of argument")
	analyzeCmd.Flags().StringVar(&analysisMode, "mode", "strict", "analysis mode: strict (only explicit items) or assumption (include assumed items)")
	analyzeCmd.Flags().BoolVar(&outputJSON, "json", false, "output results as JSON")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable classifier response cache")
	analyzeCmd.Flags().BoolVar(&noDiagnostics, "no-diagnostics", false, "disable unknown-term logging")
	analyzeCmd.Flags().StringVar(&classifierProvider, "classifier", "", "fallback classifier provider (openai, ollama); empty disables")
	analyzeCmd.Flags().StringVar(&classifierModel, "classifier-model", "", "classifier model name")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 60*time.Second, "overall analysis timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	analyzer, err := pipeline.NewAnalyzer(cfg)
	if err != nil {
		return fmt.Errorf("init analyzer: %w", err)
	}
	defer func() { _ = analyzer.Close() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "Mode: %s\n", cfg.Analysis.Mode)
		if cfg.Classifier.Provider != "" {
			fmt.Fprintf(os.Stderr, "Classifier: %s/%s\n", cfg.Classifier.Provider, cfg.Classifier.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	results, err := analyzer.AnalyzeText(ctx, text)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if outputJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	breakfast := parse.IsBreakfastContext(text)
	fmt.Println(format.FormatResults(results, breakfast))
	if verbose {
		fmt.Fprintf(os.Stderr, "\nRetrieval query: %s\n", format.BuildQuery(results, breakfast))
	}
	return nil
}

// readInput resolves the text argument or the --file flag.
func readInput(args []string) (string, error) {
	switch {
	case inputFile != "" && len(args) > 0:
		return "", fmt.Errorf("provide either a text argument or --file, not both")
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	case len(args) > 0 && strings.TrimSpace(args[0]) != "":
		return args[0], nil
	}
	return "", fmt.Errorf("no input: pass a text argument or --file")
}

// buildConfig assembles the configuration from defaults, flags and env.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Analysis.Mode = analysisMode
	cfg.Cache.Enabled = !noCache
	cfg.Diagnostics.Enabled = !noDiagnostics
	cfg.Output.Verbose = verbose
	cfg.Output.JSON = outputJSON

	if cfg.Analysis.Mode != "strict" && cfg.Analysis.Mode != "assumption" {
		return nil, fmt.Errorf("invalid mode %q (use strict or assumption)", cfg.Analysis.Mode)
	}

	if classifierProvider != "" {
		cfg.Classifier.Provider = classifierProvider
		if classifierModel != "" {
			cfg.Classifier.Model = classifierModel
		}
		switch classifierProvider {
		case "openai":
			cfg.Classifier.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.Classifier.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.Classifier.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}
