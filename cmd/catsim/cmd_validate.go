package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/format"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/pool"
)

var validateFlags struct {
	pool     string
	defaults string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check quiz settings against a pool file",
	RunE:  runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateFlags.pool, "pool", "", "YAML pool file (required)")
	f.StringVar(&validateFlags.defaults, "defaults", os.Getenv("QUIZ_DEFAULTS_FILE"), "YAML quiz defaults, overridden by keys in the pool file's quiz section")
	_ = validateCmd.MarkFlagRequired("pool")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, p, err := loadQuiz(validateFlags.pool, validateFlags.defaults)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	counts := pool.Levels(p)
	levels := make([]int, 0, len(counts))
	for l := range counts {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	tb := format.NewTable(format.ASCII)
	tb.Header("Level", "Questions", "In range")
	for _, l := range levels {
		tb.Row(l, counts[l], format.Mark(l >= cfg.LowestLevel && l <= cfg.HighestLevel))
	}
	fmt.Fprintln(out, tb.String())

	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := cat.NewSession("validate", cfg, p); err != nil {
		return err
	}
	if p.CountAtLevel(cfg.StartingLevel) == 0 {
		return &cat.ConfigError{Fields: map[string]string{
			"questionpool": fmt.Sprintf("no question at starting level %d", cfg.StartingLevel),
		}}
	}
	fmt.Fprintf(out, "OK: %d questions, levels %d-%d, starting at %d\n", p.Len(), cfg.LowestLevel, cfg.HighestLevel, cfg.StartingLevel)
	return nil
}
