package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entirecontext/ec/internal/futures"
	"github.com/entirecontext/ec/internal/types"
)

var futuresCmd = &cobra.Command{
	Use:     "futures",
	GroupID: "views",
	Short:   "Record and inspect futures assessments (Tidy-First verdicts)",
}

var futuresCreateVerdict, futuresCreateImpact, futuresCreateRoadmap, futuresCreateSuggestion string

var futuresCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a futures assessment (verdict: expand, narrow, or neutral)",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		f, err := futures.CreateAssessment(rootCtx, store, types.Verdict(futuresCreateVerdict), futuresCreateImpact, futuresCreateRoadmap, futuresCreateSuggestion)
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(f)
			return nil
		}
		fmt.Printf("Created assessment %s (%s)\n", f.ID, f.Verdict)
		return nil
	},
}

var futuresListVerdict string

var futuresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List futures assessments, optionally filtered by verdict",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		assessments, err := futures.ListAssessments(rootCtx, store, types.Verdict(futuresListVerdict))
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(assessments)
			return nil
		}
		if len(assessments) == 0 {
			fmt.Println("No futures assessments recorded.")
			return nil
		}
		for _, f := range assessments {
			fmt.Printf("%s  %-8s  %s\n", f.ID[:12], f.Verdict, f.ImpactSummary)
		}
		return nil
	},
}

var futuresShowCmd = &cobra.Command{
	Use:   "show <id-or-prefix>",
	Short: "Show one futures assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		f, err := futures.GetAssessment(rootCtx, store, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(f)
			return nil
		}
		fmt.Printf("ID:                %s\n", f.ID)
		fmt.Printf("Verdict:           %s\n", f.Verdict)
		fmt.Printf("Impact:            %s\n", f.ImpactSummary)
		fmt.Printf("Roadmap alignment: %s\n", f.RoadmapAlignment)
		fmt.Printf("Suggestion:        %s\n", f.Suggestion)
		if f.Feedback != "" {
			fmt.Printf("Feedback:          %s (%s)\n", f.Feedback, f.FeedbackReason)
		}
		return nil
	},
}

var futuresFeedbackReason string

var futuresFeedbackCmd = &cobra.Command{
	Use:   "feedback <id-or-prefix> <agree|disagree>",
	Short: "Record agreement or disagreement with an assessment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		f, err := futures.AddFeedback(rootCtx, store, args[0], types.Feedback(args[1]), futuresFeedbackReason)
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(f)
			return nil
		}
		fmt.Printf("Recorded %s feedback on assessment %s\n", f.Feedback, f.ID)
		return nil
	},
}

var futuresLessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Distill feedback-reviewed assessments into a lessons digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := requireRepoRoot()
		store := requireStore(repoRoot)
		defer store.Close()

		reviewed, err := futures.GetLessons(rootCtx, store)
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(reviewed)
			return nil
		}
		fmt.Print(futures.DistillLessons(reviewed))
		return nil
	},
}

func init() {
	futuresCreateCmd.Flags().StringVar(&futuresCreateVerdict, "verdict", "", "expand, narrow, or neutral (required)")
	futuresCreateCmd.Flags().StringVar(&futuresCreateImpact, "impact", "", "one-sentence impact summary")
	futuresCreateCmd.Flags().StringVar(&futuresCreateRoadmap, "roadmap", "", "roadmap alignment note")
	futuresCreateCmd.Flags().StringVar(&futuresCreateSuggestion, "suggestion", "", "tidying suggestion")
	_ = futuresCreateCmd.MarkFlagRequired("verdict")

	futuresListCmd.Flags().StringVar(&futuresListVerdict, "verdict", "", "filter to expand, narrow, or neutral")

	futuresFeedbackCmd.Flags().StringVar(&futuresFeedbackReason, "reason", "", "why you agree or disagree")

	futuresCmd.AddCommand(futuresCreateCmd, futuresListCmd, futuresShowCmd, futuresFeedbackCmd, futuresLessonsCmd)
	rootCmd.AddCommand(futuresCmd)
}
