package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptest/internal/ui/report"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the learner's scores, forecast and milestones",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := resolveUser(cmd)
		if err != nil {
			return err
		}
		a, err := openApp(cmd, appOptions{withRedis: true})
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.services.Learners.Dashboard(cmd.Context(), user)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, snap)
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Dashboard(snap))
		return nil
	},
}

var goalCmd = &cobra.Command{
	Use:   "goal <score> <YYYY-MM-DD>",
	Short: "Set the learner's target score and date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := resolveUser(cmd)
		if err != nil {
			return err
		}
		var score int
		if _, err := fmt.Sscanf(args[0], "%d", &score); err != nil {
			return fmt.Errorf("invalid score %q: %w", args[0], err)
		}
		date, err := time.ParseInLocation(time.DateOnly, args[1], time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", args[1], err)
		}

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.services.Learners.SetGoal(cmd.Context(), user, score, date)
		if err != nil {
			return err
		}
		g := p.Goal
		fmt.Printf("Goal set: %d by %s, starting from %d (%.1f points/day).\n",
			g.TargetScore, g.TargetDate.Format(time.DateOnly), g.StartScore, g.RequiredDailyGain)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build a weekly study plan and list recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := resolveUser(cmd)
		if err != nil {
			return err
		}
		goal, _ := cmd.Flags().GetInt("goal")
		weeks, _ := cmd.Flags().GetInt("weeks")

		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if goal == 0 {
			p, err := a.services.Learners.Profile(ctx, user)
			if err != nil {
				return err
			}
			if p.Goal == nil {
				return fmt.Errorf("no goal set: pass --goal or run \"adaptest goal\" first")
			}
			goal = p.Goal.TargetScore
		}

		plan, err := a.services.Learners.StudyPlan(ctx, user, goal, weeks)
		if err != nil {
			return err
		}
		recs, err := a.services.Learners.Recommendations(ctx, user, 0)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, map[string]any{"plan": plan, "recommendations": recs})
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Plan(plan))
		fmt.Fprint(cmd.OutOrStdout(), report.Recommendations(recs))
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	dashboardCmd.Flags().Bool("json", false, "Print the raw snapshot as JSON")

	planCmd.Flags().Int("goal", 0, "Goal score (defaults to the stored goal)")
	planCmd.Flags().Int("weeks", 8, "Plan length in weeks")
	planCmd.Flags().Bool("json", false, "Print the plan as JSON")
}
