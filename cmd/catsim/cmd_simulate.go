package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/config"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/format"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/pool"
	"github.com/mind-engage/mindengage-adaptivequiz/internal/sim"
)

var simulateFlags struct {
	pool      string
	defaults  string
	examinees int
	seed      uint64
	workers   int
	mean      float64
	sd        float64
	model     string
	format    string
	details   bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulated examinees through a quiz and report estimation error",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateFlags.pool, "pool", "", "YAML pool file (required)")
	f.StringVar(&simulateFlags.defaults, "defaults", os.Getenv("QUIZ_DEFAULTS_FILE"), "YAML quiz defaults, overridden by keys in the pool file's quiz section")
	f.IntVar(&simulateFlags.examinees, "examinees", 500, "number of simulated examinees")
	f.Uint64Var(&simulateFlags.seed, "seed", 1, "random seed")
	f.IntVar(&simulateFlags.workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	f.Float64Var(&simulateFlags.mean, "mean", 0, "mean true ability in logits")
	f.Float64Var(&simulateFlags.sd, "sd", 1, "spread of true ability in logits")
	f.StringVar(&simulateFlags.model, "model", "", "override the estimator (bayes|fisher)")
	f.StringVar(&simulateFlags.format, "format", "ascii", "output format: ascii|markdown|html")
	f.BoolVar(&simulateFlags.details, "details", false, "print one row per examinee")

	_ = simulateCmd.MarkFlagRequired("pool")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(simulateFlags.format)
	if err != nil {
		return err
	}
	cfg, p, err := loadQuiz(simulateFlags.pool, simulateFlags.defaults)
	if err != nil {
		return err
	}
	if simulateFlags.model != "" {
		cfg.Model = cat.Model(simulateFlags.model)
	}
	s, err := sim.Run(cmd.Context(), sim.Params{
		Config:      cfg,
		Pool:        p,
		Examinees:   simulateFlags.examinees,
		Seed:        simulateFlags.seed,
		Workers:     simulateFlags.workers,
		AbilityMean: simulateFlags.mean,
		AbilitySD:   simulateFlags.sd,
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), s.Render(mode, simulateFlags.details))
	return nil
}

// loadQuiz reads a pool file and resolves the quiz settings: keys in the file's
// quiz section override the defaults file, which overrides built-in defaults.
func loadQuiz(poolPath, defaultsPath string) (cat.Config, *cat.Pool, error) {
	f, err := pool.Load(poolPath)
	if err != nil {
		return cat.Config{}, nil, err
	}
	cfg, err := config.LoadQuizDefaults(defaultsPath)
	if err != nil {
		return cat.Config{}, nil, err
	}
	if cfg, err = f.Settings(cfg); err != nil {
		return cat.Config{}, nil, err
	}
	p, err := f.Pool()
	if err != nil {
		return cat.Config{}, nil, err
	}
	return cfg, p, nil
}
