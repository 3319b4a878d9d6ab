package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Browse and review the question pool",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions (optionally filtered by section, tier or status)",
	RunE: func(cmd *cobra.Command, args []string) error {
		section, _ := cmd.Flags().GetString("section")
		tier, _ := cmd.Flags().GetInt("difficulty")
		status, _ := cmd.Flags().GetString("status")
		topic, _ := cmd.Flags().GetString("topic")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		f := questionbank.Filter{
			Section:      sections.Section(section),
			Topic:        topic,
			ReviewStatus: questionbank.ReviewStatus(status),
		}
		if tier != 0 {
			f.Difficulties = []int{tier}
		}
		res, err := a.services.Questions.Search(cmd.Context(), f, limit, 0)
		if err != nil {
			return err
		}

		// Header.
		fmt.Printf("%-36s  %-10s  %-15s  %4s  %-8s  %s\n",
			"ID", "Section", "Type", "Tier", "Status", "Prompt")
		fmt.Println(strings.Repeat("─", 120))

		for _, q := range res.Questions {
			prompt := strings.ReplaceAll(q.Prompt, "\n", " ")
			if len(prompt) > 40 {
				prompt = prompt[:37] + "..."
			}
			fmt.Printf("%-36s  %-10s  %-15s  %4d  %-8s  %s\n",
				q.ID, q.Section, q.Type, q.Difficulty, q.ReviewStatus, prompt)
		}

		fmt.Printf("\n%d of %d questions\n", len(res.Questions), res.Total)
		return nil
	},
}

var questionsReviewCmd = &cobra.Command{
	Use:   "review <id> <approved|rejected|pending>",
	Short: "Set a question's review status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.services.Questions.Review(cmd.Context(), args[0], questionbank.ReviewStatus(args[1])); err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	questionsListCmd.Flags().String("section", "", "Filter by section")
	questionsListCmd.Flags().Int("difficulty", 0, "Filter by difficulty tier (1-5)")
	questionsListCmd.Flags().String("status", "", "Filter by review status (e.g. pending)")
	questionsListCmd.Flags().String("topic", "", "Filter by topic")
	questionsListCmd.Flags().IntP("limit", "n", 50, "Number of questions to show")

	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsReviewCmd)
}
