package taxdata

import (
	"reforma/internal/domain"
)

// CollectSources returns the deduplicated citations behind a calculation,
// in lookup order. The list is never empty.
func CollectSources(r domain.Regime, s domain.Sector, b domain.RevenueBracket, state string) []string {
	candidates := []string{
		RevenueMidpoint(b).Source,
		CurrentBurden(r, s).Source,
		NewBurden(s).Source,
		RegimeMultiplier(r).Source,
		EffectivenessFactor(r, s).Source,
		SourceEC132,
		SourceLC214,
	}
	switch s {
	case domain.SectorCommerce, domain.SectorIndustry, domain.SectorAgribusiness:
		// Goods sectors carry ICMS in their current burden.
		candidates = append(candidates, SourceICMS)
	}
	if inc, ok := IncentiveProgram(state); ok {
		candidates = append(candidates, inc.Source)
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// CollectLimitations returns the caveats that apply to a regime and sector.
func CollectLimitations(r domain.Regime, s domain.Sector) []string {
	out := []string{
		"Estimativa simplificada sobre a receita; não substitui análise contábil individual.",
	}
	if NewBurden(s).Confidence != domain.ConfidenceLegislated {
		out = append(out, "Alíquotas de referência do IBS e da CBS ainda não fixadas pelo Senado; faixa estimada.")
	}
	switch r {
	case domain.RegimeUnknown:
		out = append(out, "Regime tributário não informado: a precisão da estimativa é reduzida.")
	case domain.RegimeSimplified:
		out = append(out, "No Simples Nacional o efeito é majoritariamente indireto, via crédito dos clientes.")
	}
	if s == domain.SectorOther {
		out = append(out, "Setor não enquadrado nas categorias principais; usada faixa genérica.")
	}
	return out
}

// DetermineConfidence grades a simulation: high when the regime is known and
// the sector's new rate is legislated, medium when only one holds, low otherwise.
func DetermineConfidence(r domain.Regime, s domain.Sector) domain.ResultConfidence {
	known := r != domain.RegimeUnknown
	legislated := NewBurden(s).Confidence == domain.ConfidenceLegislated
	switch {
	case known && legislated:
		return domain.ResultConfidenceHigh
	case known || legislated:
		return domain.ResultConfidenceMedium
	default:
		return domain.ResultConfidenceLow
	}
}
