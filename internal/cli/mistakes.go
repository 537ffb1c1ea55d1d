package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reforma/internal/usecase"
)

var (
	mistakesProfile profileFlags
	mistakesMax     int
)

var mistakesCmd = &cobra.Command{
	Use:   "mistakes",
	Short: "List the common reform mistakes that apply to a profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := mistakesProfile.profile(cmd).ToInput()
		mistakes := usecase.GetCommonMistakes(in, usecase.Calculate(in), mistakesMax)
		if len(mistakes) == 0 {
			fmt.Println("Nenhum erro comum identificado para este perfil.")
			return nil
		}
		for i, m := range mistakes {
			fmt.Printf("%d. [%s] %s\n   %s\n   Pergunta sugerida: %s\n", i+1, m.Severity, m.Title, m.Description, m.SuggestedQuestion)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mistakesCmd)
	mistakesProfile.bind(mistakesCmd)
	mistakesCmd.Flags().IntVar(&mistakesMax, "max", usecase.DefaultMaxMistakes, "maximum number of mistakes")
}
