package cli

import (
	"fmt"
	"os"

	"github.com/finnflow/lebensessenz-kursbot/internal/diag"
	"github.com/finnflow/lebensessenz-kursbot/internal/engine"
	"github.com/finnflow/lebensessenz-kursbot/internal/model"
	"github.com/finnflow/lebensessenz-kursbot/internal/ontology"
	"github.com/spf13/cobra"
)

var unknownsLimit int

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect and validate the ontology, compound and rule data",
}

var dataValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate all data files",
	Long: `Load the ontology, compound and rule data with full validation.
Exits non-zero on the first malformed entry. Run this after editing
any data file; the analyzer refuses to start on broken data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := model.DefaultConfig()

		index, compounds, err := ontology.Load(cfg.Data)
		if err != nil {
			return fmt.Errorf("ontology: %w", err)
		}
		rules, err := engine.LoadRules(cfg.Data.RulesPath)
		if err != nil {
			return fmt.Errorf("rules: %w", err)
		}

		fmt.Printf("✓ Ontology:  %d entries, %d indexed terms\n", index.Len(), index.SynonymCount())
		fmt.Printf("✓ Compounds: %d dishes\n", compounds.Len())
		fmt.Printf("✓ Rules:     %d rules, explicit priority order\n", len(rules.Rules))
		return nil
	},
}

var dataUnknownsCmd = &cobra.Command{
	Use:   "unknowns",
	Short: "List logged unknown terms",
	Long: `Show the terms the ontology could not classify, most frequent
first. These are the candidates for new ontology entries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := model.DefaultConfig()

		if _, err := os.Stat(cfg.Diagnostics.UnknownsDB); err != nil {
			fmt.Println("No unknown terms logged yet.")
			return nil
		}

		store, err := diag.Open(cfg.Diagnostics.UnknownsDB)
		if err != nil {
			return fmt.Errorf("open diagnostics db: %w", err)
		}
		defer func() { _ = store.Close() }()

		entries, err := store.List(unknownsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No unknown terms logged yet.")
			return nil
		}

		total, err := store.Count()
		if err != nil {
			return err
		}

		fmt.Printf("%d distinct unknown terms:\n\n", total)
		for _, e := range entries {
			fmt.Printf("  %4d× %-30s (zuletzt: %s)\n", e.Count, e.Term, e.LastSeen.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataValidateCmd)
	dataCmd.AddCommand(dataUnknownsCmd)

	dataUnknownsCmd.Flags().IntVar(&unknownsLimit, "limit", 50, "maximum number of terms to list")
}
