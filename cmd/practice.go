package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	tui "github.com/abhisek/adaptest/internal/app"
	"github.com/abhisek/adaptest/internal/exam"
	"github.com/abhisek/adaptest/internal/questionbank"
	"github.com/abhisek/adaptest/internal/screens/attempt"
	"github.com/abhisek/adaptest/internal/screens/result"
	"github.com/abhisek/adaptest/internal/sections"
	"github.com/abhisek/adaptest/internal/service"
	"github.com/abhisek/adaptest/internal/ui/report"
	"github.com/abhisek/adaptest/internal/ui/theme"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Take an exam in the terminal",
	Long: `Take a full exam, a section practice or a micro session in the terminal.

Answers update the learner profile exactly as they do over HTTP. The exam
runs full-screen; with --plain it becomes a line prompt instead: type the
option number (or the answer text for fill-in-the-blank), press enter on an
empty line to skip, or "q" to finish early.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := resolveUser(cmd)
		if err != nil {
			return err
		}
		kind, _ := cmd.Flags().GetString("type")
		section, _ := cmd.Flags().GetString("section")
		count, _ := cmd.Flags().GetInt("count")
		minutes, _ := cmd.Flags().GetInt("minutes")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		plain, _ := cmd.Flags().GetBool("plain")

		a, err := openApp(cmd, appOptions{withRedis: true})
		if err != nil {
			return err
		}
		defer a.Close()

		req := service.CreateExamRequest{
			Kind:       exam.Kind(kind),
			Section:    sections.Section(section),
			Count:      count,
			Duration:   minutes,
			Difficulty: difficulty,
		}
		if plain {
			return runPractice(cmd, a.services.Exams, user, req)
		}
		return runPracticeTUI(cmd, a.services.Exams, user, req)
	},
}

func init() {
	practiceCmd.Flags().String("type", string(exam.KindSection), "Exam type: full, section or micro")
	practiceCmd.Flags().String("section", string(sections.Grammar), "Section for section practice and micro sessions")
	practiceCmd.Flags().Int("count", 10, "Questions in a section practice")
	practiceCmd.Flags().Int("minutes", 5, "Micro session length: 5, 10 or 15")
	practiceCmd.Flags().String("difficulty", "", "easy, medium, hard or mixed (default adaptive)")
	practiceCmd.Flags().Bool("plain", false, "Use a line prompt instead of the full-screen view")
}

func runPractice(cmd *cobra.Command, exams *service.ExamService, user string, req service.CreateExamRequest) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	view, err := exams.CreateExam(ctx, user, req)
	if err != nil {
		return err
	}
	id := view.Attempt.ID
	if _, err := exams.Start(ctx, user, id); err != nil {
		return err
	}
	questions, err := exams.Questions(ctx, user, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d questions, %s\n\n", view.Config.Name, len(questions),
		view.Attempt.TimeLimit.Round(time.Minute))

	for i, q := range questions {
		fmt.Fprintf(out, "── Question %d/%d · %s ──\n", i+1, len(questions), q.Section.DisplayName())
		printQuestion(out, q)

		fmt.Fprint(out, "\nYour answer: ")
		asked := time.Now()
		if !in.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		raw := strings.TrimSpace(in.Text())
		if raw == "q" {
			break
		}
		if raw == "" {
			fmt.Fprintln(out, "(skipped)")
			fmt.Fprintln(out)
			continue
		}

		res, err := exams.SubmitAnswer(ctx, user, id, service.SubmitRequest{
			QuestionID:    q.QuestionID,
			Response:      responseFor(q, raw),
			TimeSpentSecs: time.Since(asked).Seconds(),
		})
		if err != nil {
			return err
		}
		if res.Answer.Correct {
			fmt.Fprintln(out, theme.Good.Render("✓ Correct!"))
		} else {
			fmt.Fprintln(out, theme.Bad.Render("✗ Wrong."))
		}
		fmt.Fprintln(out, theme.Hint.Render(fmt.Sprintf("%d/%d answered, %s left", res.Answered, res.Total,
			(time.Duration(res.RemainingSecs)*time.Second).String())))
		fmt.Fprintln(out)
	}

	done, err := finishAttempt(ctx, exams, user, id)
	if err != nil {
		return err
	}
	fmt.Fprint(out, report.Result(done.Attempt))
	return nil
}

func runPracticeTUI(cmd *cobra.Command, exams *service.ExamService, user string, req service.CreateExamRequest) error {
	ctx := cmd.Context()
	view, err := exams.CreateExam(ctx, user, req)
	if err != nil {
		return err
	}
	id := view.Attempt.ID
	if view, err = exams.Start(ctx, user, id); err != nil {
		return err
	}
	questions, err := exams.Questions(ctx, user, id)
	if err != nil {
		return err
	}

	final, err := tui.Run(attempt.New(exams, user, view, questions), user)
	if err != nil {
		return err
	}

	// The alt screen is gone once the program exits, so print the result
	// again. Quitting mid-exam scores what was answered.
	done, ok := final.(*result.Screen)
	if ok {
		fmt.Fprint(cmd.OutOrStdout(), report.Result(done.ExamView().Attempt))
		return nil
	}
	finished, err := finishAttempt(ctx, exams, user, id)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Result(finished.Attempt))
	return nil
}

// finishAttempt completes the attempt, or returns it as-is when it already
// ended, e.g. by running out of time.
func finishAttempt(ctx context.Context, exams *service.ExamService, user, id string) (*service.ExamView, error) {
	view, err := exams.Complete(ctx, user, id)
	if errors.Is(err, exam.ErrInvalidState) {
		return exams.Get(ctx, user, id)
	}
	return view, err
}

func printQuestion(w io.Writer, q exam.PresentedQuestion) {
	if q.Passage != "" {
		fmt.Fprintln(w, theme.Hint.Render(q.Passage))
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, q.Prompt)
	if q.Type == questionbank.TypeFillInBlank {
		return
	}
	for j, o := range q.Options {
		fmt.Fprintf(w, "  %d) %s\n", j+1, o.Text)
	}
}

// responseFor maps an option number to its ID; anything else is sent as
// typed.
func responseFor(q exam.PresentedQuestion, raw string) string {
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1].ID
	}
	return raw
}
