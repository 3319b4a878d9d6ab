package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/sections"
	"github.com/abhisek/adaptest/internal/service"
	"github.com/abhisek/adaptest/internal/ui/report"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate questions with the configured LLM",
	Long: `Generate a batch of questions for one section and difficulty tier.

Generated questions are validated, scored for quality and saved with
"pending" review status. With --user they lean toward that learner's weak
topics in the section.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		section, _ := cmd.Flags().GetString("section")
		typ, _ := cmd.Flags().GetString("type")
		difficulty, _ := cmd.Flags().GetInt("difficulty")
		topic, _ := cmd.Flags().GetString("topic")
		count, _ := cmd.Flags().GetInt("count")
		personal, _ := cmd.Flags().GetBool("personal")

		a, err := openApp(cmd, appOptions{withLLM: true})
		if err != nil {
			return err
		}
		defer a.Close()

		req := service.GenerateRequest{
			Section:    sections.Section(section),
			Type:       questionbank.Type(typ),
			Difficulty: difficulty,
			Topic:      topic,
			Count:      count,
		}
		if personal {
			if req.UserID, err = resolveUser(cmd); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Generating %d %s questions...\n", count, section)
		rep, err := a.services.Questions.Generate(cmd.Context(), req)
		if rep != nil {
			fmt.Fprint(cmd.OutOrStdout(), report.Generation(rep))
		}
		return err
	},
}

func init() {
	generateCmd.Flags().String("section", "", "Section: listening, vocabulary, grammar or reading (required)")
	generateCmd.Flags().String("type", string(questionbank.TypeMultipleChoice), "Question type: multiple_choice, true_false or fill_in_blank")
	generateCmd.Flags().Int("difficulty", 3, "Difficulty tier 1-5")
	generateCmd.Flags().String("topic", "", "Topic to focus on")
	generateCmd.Flags().IntP("count", "n", 5, "Number of questions to generate")
	generateCmd.Flags().Bool("personal", false, "Target the --user learner's weak topics")
	_ = generateCmd.MarkFlagRequired("section")
}
