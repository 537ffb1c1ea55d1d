package cli

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/spf13/cobra"

	"reforma/internal/domain"
	"reforma/internal/usecase"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var (
	promptProfile  profileFlags
	promptQuestion string
	promptMax      int
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the assistant's grounding prompt for a profile",
	Long: `Render the system prompt that grounds the tax assistant: the profile, the
simulation summary and the common mistakes that apply to it.

Example:
  reforma prompt --sector saude --regime lucro_presumido -q "Vou pagar mais imposto?"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := renderPrompt(promptProfile.profile(cmd), promptQuestion, promptMax)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptProfile.bind(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuestion, "question", "q", "", "user question appended to the prompt")
	promptCmd.Flags().IntVar(&promptMax, "max", usecase.DefaultMaxMistakes, "maximum number of mistakes included")
}

// PromptData feeds the chat prompt template.
type PromptData struct {
	Input    domain.SimulatorInput
	Result   domain.SimulatorResult
	Mistakes string
	Question string
}

func renderPrompt(profile domain.Profile, question string, maxMistakes int) (string, error) {
	in := profile.ToInput()
	result := usecase.Calculate(in)
	data := PromptData{
		Input:    in,
		Result:   result,
		Mistakes: usecase.FormatMistakesForPrompt(usecase.GetCommonMistakes(in, result, maxMistakes)),
		Question: question,
	}

	tmplContent, err := promptTemplates.ReadFile("templates/chat_prompt.txt")
	if err != nil {
		return "", fmt.Errorf("template not found: %w", err)
	}
	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"brl": usecase.FormatBRL,
		"pct": usecase.FormatSignedPercent,
	}).Parse(string(tmplContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
