// catsim exercises adaptive quiz settings offline.
//
// Usage:
//
//	catsim simulate --pool=<file.yaml> [--examinees=500] [--seed=1] [--details]
//	catsim validate --pool=<file.yaml>
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "catsim",
	Short: "Validate and simulate adaptive quiz settings",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
