package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show question pool size by section and review status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		statuses := []questionbank.ReviewStatus{
			questionbank.StatusApproved, questionbank.StatusPending,
			questionbank.StatusDraft, questionbank.StatusRejected,
		}

		fmt.Printf("%-12s", "Section")
		for _, st := range statuses {
			fmt.Printf("  %9s", st)
		}
		fmt.Println()
		fmt.Println(strings.Repeat("─", 12+11*len(statuses)))

		totals := make([]int, len(statuses))
		for _, sec := range sections.All() {
			fmt.Printf("%-12s", sec.DisplayName())
			for i, st := range statuses {
				res, err := a.services.Questions.Search(cmd.Context(), questionbank.Filter{Section: sec, ReviewStatus: st}, 1, 0)
				if err != nil {
					return err
				}
				totals[i] += res.Total
				fmt.Printf("  %9d", res.Total)
			}
			fmt.Println()
		}

		fmt.Println(strings.Repeat("─", 12+11*len(statuses)))
		fmt.Printf("%-12s", "TOTAL")
		for _, n := range totals {
			fmt.Printf("  %9d", n)
		}
		fmt.Println()
		return nil
	},
}
