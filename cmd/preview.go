package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/questiongen"
	"github.com/abhisek/adaptest/internal/sections"
	"github.com/abhisek/adaptest/internal/ui/theme"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview LLM-generated questions for a section (no database)",
	Long: `Generate and interactively answer questions for one section and tier.

This is a stateless developer tool: no database, no profile updates, no
events. Useful for judging question quality and tuning prompts.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("section", "", "Section: listening, vocabulary, grammar or reading (required)")
	previewCmd.Flags().String("type", string(questionbank.TypeMultipleChoice), "Question type")
	previewCmd.Flags().Int("difficulty", 3, "Difficulty tier 1-5")
	previewCmd.Flags().String("topic", "", "Topic to focus on")
	previewCmd.Flags().Int("count", 5, "Number of questions to generate")
	_ = previewCmd.MarkFlagRequired("section")
}

func runPreview(cmd *cobra.Command, args []string) error {
	sectionVal, _ := cmd.Flags().GetString("section")
	typeVal, _ := cmd.Flags().GetString("type")
	difficulty, _ := cmd.Flags().GetInt("difficulty")
	topic, _ := cmd.Flags().GetString("topic")
	count, _ := cmd.Flags().GetInt("count")

	section, err := sections.Parse(sectionVal)
	if err != nil {
		return err
	}

	// No EventRepo: request logging is skipped.
	ctx := context.Background()
	provider, llmCfg, err := newProvider(ctx, nil, cliLogger(cmd))
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	cfg := questiongen.DefaultConfig()
	cfg.ProviderName = llmCfg.Provider
	gen := questiongen.New(provider, cfg)
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Printf("Section: %s, tier %d (%s)\n", section.DisplayName(), difficulty, typeVal)
	fmt.Printf("Generating %d questions...\n\n", count)

	var correct int
	var priorQuestions []string

	for i := 1; i <= count; i++ {
		q, err := gen.Generate(ctx, questiongen.Input{
			Section:        section,
			Type:           questionbank.Type(typeVal),
			Difficulty:     difficulty,
			Topic:          topic,
			PriorQuestions: priorQuestions,
		})
		if err != nil {
			fmt.Printf("Question %d: generation failed: %v\n\n", i, err)
			continue
		}

		priorQuestions = append(priorQuestions, q.Prompt)

		fmt.Printf("── Question %d/%d ── %s\n", i, count,
			theme.Hint.Render(fmt.Sprintf("[%s, quality %.2f]", q.Topic, q.QualityScore())))
		if q.Passage != "" {
			fmt.Println(theme.Hint.Render(q.Passage))
			fmt.Println()
		}
		fmt.Println(q.Prompt)
		if q.Type != questionbank.TypeFillInBlank {
			for j, o := range q.Options {
				fmt.Printf("  %d) %s\n", j+1, o.Text)
			}
		}

		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Println("(skipped)")
			fmt.Println()
			continue
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(q.Options) {
			answer = q.Options[n-1].ID
		}

		if q.IsCorrect(answer) {
			correct++
			fmt.Println(theme.Good.Render("✓ Correct!"))
		} else {
			fmt.Printf("%s Answer: %s\n", theme.Bad.Render("✗ Wrong."), answerText(q))
		}
		if q.Explanation != "" {
			fmt.Printf("Explanation: %s\n", q.Explanation)
		}
		fmt.Println()
	}

	fmt.Printf("── Summary: %d/%d correct ──\n", correct, count)
	return nil
}

// answerText shows the key as option text where there is one.
func answerText(q *questionbank.Question) string {
	for _, o := range q.Options {
		if strings.EqualFold(o.ID, q.CorrectAnswer) {
			return o.Text
		}
	}
	return q.CorrectAnswer
}
