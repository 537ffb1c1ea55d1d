package cli

import (
	"github.com/spf13/cobra"

	"reforma/internal/domain"
)

// profileFlags collects the business profile from command-line flags.
// Optional numeric and boolean fields are only set when the flag was given.
type profileFlags struct {
	sector    string
	state     string
	regime    string
	bracket   string
	revenue   float64
	payroll   float64
	costType  string
	b2b       int
	incentive bool
	exports   bool
}

func (p *profileFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.sector, "sector", "", "business sector (comercio, industria, servicos, tecnologia, ...)")
	f.StringVar(&p.state, "state", "", "two-letter state code")
	f.StringVar(&p.regime, "regime", "", "tax regime (simples_nacional, lucro_presumido, lucro_real)")
	f.StringVar(&p.bracket, "bracket", "", "revenue bracket (ate_81k, 81k_360k, 360k_4.8m, 4.8m_78m, acima_78m)")
	f.Float64Var(&p.revenue, "revenue", 0, "exact annual revenue in BRL")
	f.Float64Var(&p.payroll, "payroll", 0, "payroll share of revenue (0-1)")
	f.StringVar(&p.costType, "cost-type", "", "dominant cost (folha, mercadorias, servicos_terceiros, misto)")
	f.IntVar(&p.b2b, "b2b", 0, "percentage of business customers (0-100)")
	f.BoolVar(&p.incentive, "incentive", false, "has a state tax incentive")
	f.BoolVar(&p.exports, "exports", false, "exports services")
}

func (p *profileFlags) profile(cmd *cobra.Command) domain.Profile {
	f := cmd.Flags()
	prof := domain.Profile{
		Sector:           p.sector,
		State:            p.state,
		Regime:           p.regime,
		RevenueBracket:   p.bracket,
		DominantCostType: p.costType,
	}
	if f.Changed("revenue") {
		prof.ExactRevenue = &p.revenue
	}
	if f.Changed("payroll") {
		prof.PayrollRatio = &p.payroll
	}
	if f.Changed("b2b") {
		prof.B2BPercent = &p.b2b
	}
	if f.Changed("incentive") {
		prof.HasStateIncentive = &p.incentive
	}
	if f.Changed("exports") {
		prof.ExportsServices = &p.exports
	}
	return prof
}
