package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/ui/report"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json|->",
	Short: "Import questions from a versioned JSON envelope",
	Long: `Import questions from a JSON envelope of the form

  {"version": "v1.0.0", "questions": [{...}, ...]}

Each record is validated and saved on its own; invalid records are reported
and skipped. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		var env questionbank.Envelope
		if err := json.NewDecoder(r).Decode(&env); err != nil {
			return fmt.Errorf("decode envelope: %w", err)
		}

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.services.Questions.Import(cmd.Context(), env)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Import(rep))
		return nil
	},
}
