package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reforma/internal/domain"
	"reforma/internal/usecase"
)

var (
	simulateProfile profileFlags
	simulateJSON    bool
	simulateFull    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Estimate the tax reform impact for a business profile",
	Long: `Estimate the annual tax burden before and after the reform for a business
profile. Missing fields fall back to conservative defaults and lower the
result's confidence.

Examples:
  reforma simulate --sector servicos --regime lucro_presumido --bracket 360k_4.8m
  reforma simulate --sector comercio --regime simples_nacional --revenue 250000 --b2b 80 --json`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateProfile.bind(simulateCmd)
	simulateCmd.Flags().BoolVar(&simulateJSON, "json", false, "print the full result as JSON")
	simulateCmd.Flags().BoolVar(&simulateFull, "full", false, "include the projection and checklist")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	in := simulateProfile.profile(cmd).ToInput()
	result := usecase.Calculate(in)
	teaser := usecase.GenerateTeaser(result, in)

	if simulateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Input  domain.SimulatorInput  `json:"input"`
			Result domain.SimulatorResult `json:"result"`
			Teaser domain.Teaser          `json:"teaser"`
		}{in, result, teaser})
	}

	printSimulation(in, result, teaser, simulateFull)
	return nil
}

func printSimulation(in domain.SimulatorInput, r domain.SimulatorResult, teaser domain.Teaser, full bool) {
	b := r.Breakdown
	fmt.Printf("%s\n%s\n\n", teaser.Summary, teaser.CTA)
	fmt.Printf("Perfil: %s, %s, faturamento %s\n", in.Sector.Label(), in.Regime.Label(), usecase.FormatBRL(b.Revenue))
	fmt.Printf("  Carga atual:   %s a %s\n", usecase.FormatBRL(b.CurrentMin), usecase.FormatBRL(b.CurrentMax))
	fmt.Printf("  Carga nova:    %s a %s\n", usecase.FormatBRL(b.NewMin), usecase.FormatBRL(b.NewMax))
	fmt.Printf("  Impacto:       %s a %s (%s)\n", usecase.FormatBRL(r.Impact.Min), usecase.FormatBRL(r.Impact.Max), usecase.FormatSignedPercent(r.Impact.Percentual))
	fmt.Printf("  Risco:         %s\n", r.RiskLevel)
	fmt.Printf("  Confiança:     %s\n", r.Provenance.Confidence)

	printList("Alertas", r.Alerts)
	printList("Ações", r.Actions)

	fmt.Println("\nLinha do tempo:")
	for _, e := range r.Timeline {
		fmt.Printf("  %-8s [%s] %s\n", e.Date, e.Urgency, e.Title)
	}

	if full {
		g := r.GatedContent
		fmt.Println("\nProjeção:")
		for _, p := range g.Projection {
			fmt.Printf("  %d  carga %-16s delta %s\n", p.Year, usecase.FormatBRL(p.EstimatedBurden), usecase.FormatBRL(p.DeltaVsCurrent))
		}
		if rec := g.RegimeRecommendation; rec != nil {
			fmt.Printf("\nRegime sugerido: %s (economia estimada %s)\n  %s\n", rec.SuggestedRegime.Label(), usecase.FormatBRL(rec.EstimatedSavings), rec.Rationale)
		}
		fmt.Printf("\nEfetividade: %s\n", g.Effectiveness.Note)
		printList("Checklist", g.Checklist)
	}

	printList("Limitações", r.Provenance.Limitations)
	printList("Fontes", r.Provenance.Sources)
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
