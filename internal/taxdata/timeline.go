package taxdata

import (
	"github.com/shopspring/decimal"

	"reforma/internal/domain"
)

// ReferenceRate is the combined IBS+CBS reference rate once the transition ends.
var ReferenceRate = domain.CitedValue[decimal.Decimal]{
	Value:      d("26.5"),
	Source:     SourceFazendaRate,
	Confidence: domain.ConfidenceOfficialEstimate,
	Notes:      "CBS 8,8% e IBS 17,7%; valor final depende de resolução do Senado.",
}

var transitionTimeline = []domain.TransitionYear{
	{Year: 2026, CBSRate: d("0.9"), IBSRate: d("0.1"), Source: SourceLC214,
		Description: "Ano de teste: CBS 0,9% e IBS 0,1% destacados em nota, compensáveis com PIS/COFINS."},
	{Year: 2027, CBSRate: d("8.8"), IBSRate: d("0.1"), Source: SourceEC132,
		Description: "CBS em vigor integral; PIS e COFINS extintos; IPI zerado exceto Zona Franca."},
	{Year: 2028, CBSRate: d("8.8"), IBSRate: d("0.1"), Source: SourceEC132,
		Description: "CBS integral; IBS ainda em alíquota de teste."},
	{Year: 2029, CBSRate: d("8.8"), IBSRate: d("1.77"), Source: SourceEC132,
		Description: "ICMS e ISS reduzidos em 10%; IBS assume a parcela correspondente."},
	{Year: 2030, CBSRate: d("8.8"), IBSRate: d("3.54"), Source: SourceEC132,
		Description: "ICMS e ISS reduzidos em 20%."},
	{Year: 2031, CBSRate: d("8.8"), IBSRate: d("5.31"), Source: SourceEC132,
		Description: "ICMS e ISS reduzidos em 30%."},
	{Year: 2032, CBSRate: d("8.8"), IBSRate: d("7.08"), Source: SourceEC132,
		Description: "ICMS e ISS reduzidos em 40%; último ano dos benefícios fiscais de ICMS."},
	{Year: 2033, CBSRate: d("8.8"), IBSRate: d("17.7"), Source: SourceEC132,
		Description: "ICMS e ISS extintos; sistema novo em vigor integral."},
}

// TransitionTimeline returns a copy of the year-by-year transition, ordered by year.
func TransitionTimeline() []domain.TransitionYear {
	out := make([]domain.TransitionYear, len(transitionTimeline))
	copy(out, transitionTimeline)
	return out
}

// PhaseInShare returns the fraction of the final combined rate in force in
// year, rounded to 4 places. Years before the transition return 0 and years
// after it return 1.
func PhaseInShare(year int) decimal.Decimal {
	first := transitionTimeline[0]
	last := transitionTimeline[len(transitionTimeline)-1]
	if year < first.Year {
		return decimal.Zero
	}
	if year >= last.Year {
		return decimal.NewFromInt(1)
	}
	for _, ty := range transitionTimeline {
		if ty.Year == year {
			return ty.CBSRate.Add(ty.IBSRate).Div(ReferenceRate.Value).Round(4)
		}
	}
	return decimal.Zero
}
