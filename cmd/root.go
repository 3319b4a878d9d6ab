package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptest/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "adaptest",
	Short: "Adaptive exam practice and learner analytics",
	Long: `adaptest serves adaptive language exams over HTTP and from the terminal.

It selects questions by item response theory, tracks each learner's ability
per section, builds study plans and forecasts scores from exam history.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides ADAPTEST_DB env var)")
	rootCmd.PersistentFlags().String("user", defaultUser(), "Learner id for learner-scoped commands")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log informational messages to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path: the --db flag, then the
// configured path (ADAPTEST_DB, possibly from .env), then the XDG default.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}

// resolveUser returns the --user flag, which must not be empty.
func resolveUser(cmd *cobra.Command) (string, error) {
	u, _ := cmd.Flags().GetString("user")
	if u == "" {
		return "", fmt.Errorf("a learner id is required: pass --user or set ADAPTEST_USER")
	}
	return u, nil
}

func defaultUser() string {
	if u := os.Getenv("ADAPTEST_USER"); u != "" {
		return u
	}
	return os.Getenv("USER")
}
