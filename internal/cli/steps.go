package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reforma/internal/usecase"
)

var (
	stepsAnswers map[string]string
	stepsIndex   int
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Show the onboarding questions that apply to the given answers",
	Long: `Show the active onboarding steps for a set of answers, the progress at
--index and the insight unlocked by each answered step.

Example:
  reforma steps --answer sector=tecnologia --answer state=AM --answer revenueBracket=4.8m_78m --index 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		answers := usecase.Answers(stepsAnswers)
		if answers == nil {
			answers = usecase.Answers{}
		}
		steps := usecase.GetActiveSteps(answers)
		progress := usecase.GetStepProgress(steps, stepsIndex)

		fmt.Printf("Passo %d de %d (%d%%)\n\n", progress.Current, progress.Total, progress.Percent)
		for i, s := range steps {
			marker := " "
			if _, ok := answers[s.Field]; ok {
				marker = "x"
			}
			optional := ""
			if s.Optional {
				optional = " (opcional)"
			}
			fmt.Printf("[%s] %2d. %s%s\n       %s\n", marker, i+1, s.Title, optional, s.Question)
		}

		insights := usecase.GetInsights(steps, answers)
		if len(insights) > 0 {
			fmt.Println("\nInsights:")
			for _, in := range insights {
				fmt.Printf("  %s: %s\n", in.Title, in.Text)
				if in.Source != "" {
					fmt.Printf("    Fonte: %s\n", in.Source)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
	stepsCmd.Flags().StringToStringVar(&stepsAnswers, "answer", nil, "answer as field=value (repeatable)")
	stepsCmd.Flags().IntVar(&stepsIndex, "index", 0, "zero-based current step")
}
