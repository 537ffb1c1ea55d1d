// Package taxdata holds the static, cited tables behind every simulation:
// revenue midpoints, current and reformed burden ranges, regime multipliers,
// effectiveness factors, the transition timeline and state incentive programs.
//
// Every lookup is total over the closed enums in package domain. The tables
// are immutable after package initialization and safe for concurrent use.
package taxdata

import (
	"github.com/shopspring/decimal"

	"reforma/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rate(min, max string) domain.RateRange {
	return domain.RateRange{Min: d(min), Max: d(max)}
}

// Sectors lists every sector in display order.
func Sectors() []domain.Sector {
	return []domain.Sector{
		domain.SectorCommerce,
		domain.SectorIndustry,
		domain.SectorServices,
		domain.SectorAgribusiness,
		domain.SectorTechnology,
		domain.SectorHealth,
		domain.SectorEducation,
		domain.SectorConstruction,
		domain.SectorFinance,
		domain.SectorOther,
	}
}

// Regimes lists every regime, unknown last.
func Regimes() []domain.Regime {
	return []domain.Regime{
		domain.RegimeSimplified,
		domain.RegimePresumedProfit,
		domain.RegimeRealProfit,
		domain.RegimeUnknown,
	}
}

// Brackets lists the known revenue brackets in ascending order.
func Brackets() []domain.RevenueBracket {
	return []domain.RevenueBracket{
		domain.BracketMicro,
		domain.BracketSmall,
		domain.BracketMedium,
		domain.BracketLarge,
		domain.BracketEnterprise,
	}
}

var bracketMidpoints = map[domain.RevenueBracket]domain.CitedValue[decimal.Decimal]{
	domain.BracketMicro: {
		Value:      d("60000"),
		Source:     SourceLC128MEI,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Ponto representativo da faixa do MEI (até R$ 81 mil).",
	},
	domain.BracketSmall: {
		Value:      d("220000"),
		Source:     SourceLC123Brackets,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Ponto médio da faixa de microempresa.",
	},
	domain.BracketMedium: {
		Value:      d("1500000"),
		Source:     SourceLC123Brackets,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Valor representativo da faixa de empresa de pequeno porte.",
	},
	domain.BracketLarge: {
		Value:      d("20000000"),
		Source:     SourcePresumed,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Faixa até o limite do Lucro Presumido (R$ 78 milhões).",
	},
	domain.BracketEnterprise: {
		Value:      d("150000000"),
		Source:     SourceRealProfit,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Empresas obrigadas ao Lucro Real; valor conservador.",
	},
}

// RevenueMidpoint returns the representative annual revenue for a bracket.
// An unknown bracket resolves to the 360k_4.8m midpoint.
func RevenueMidpoint(b domain.RevenueBracket) domain.CitedValue[decimal.Decimal] {
	if v, ok := bracketMidpoints[b]; ok {
		return v
	}
	v := bracketMidpoints[domain.BracketMedium]
	v.Notes = "Faixa de faturamento não informada; usado o ponto médio de R$ 1,5 milhão."
	return v
}

type burdenRow map[domain.Sector]domain.RateRange

var currentBurdenRows = map[domain.Regime]burdenRow{
	domain.RegimeSimplified: {
		domain.SectorCommerce:     rate("4.0", "11.6"),
		domain.SectorIndustry:     rate("4.5", "12.0"),
		domain.SectorServices:     rate("6.0", "15.5"),
		domain.SectorAgribusiness: rate("4.0", "10.0"),
		domain.SectorTechnology:   rate("6.0", "15.5"),
		domain.SectorHealth:       rate("6.0", "15.5"),
		domain.SectorEducation:    rate("6.0", "15.5"),
		domain.SectorConstruction: rate("4.5", "14.0"),
		domain.SectorFinance:      rate("6.0", "15.5"),
		domain.SectorOther:        rate("4.5", "14.0"),
	},
	domain.RegimePresumedProfit: {
		domain.SectorCommerce:     rate("11.0", "20.0"),
		domain.SectorIndustry:     rate("12.0", "22.0"),
		domain.SectorServices:     rate("8.65", "14.5"),
		domain.SectorAgribusiness: rate("6.0", "12.0"),
		domain.SectorTechnology:   rate("8.65", "14.5"),
		domain.SectorHealth:       rate("8.65", "14.5"),
		domain.SectorEducation:    rate("5.65", "8.65"),
		domain.SectorConstruction: rate("7.65", "12.0"),
		domain.SectorFinance:      rate("4.65", "9.65"),
		domain.SectorOther:        rate("8.65", "14.5"),
	},
	domain.RegimeRealProfit: {
		domain.SectorCommerce:     rate("12.0", "22.0"),
		domain.SectorIndustry:     rate("13.0", "24.0"),
		domain.SectorServices:     rate("11.25", "17.25"),
		domain.SectorAgribusiness: rate("7.0", "13.0"),
		domain.SectorTechnology:   rate("11.25", "17.25"),
		domain.SectorHealth:       rate("11.25", "14.25"),
		domain.SectorEducation:    rate("7.25", "12.25"),
		domain.SectorConstruction: rate("9.25", "14.25"),
		domain.SectorFinance:      rate("4.65", "9.65"),
		domain.SectorOther:        rate("11.25", "17.25"),
	},
}

var currentBurdenSources = map[domain.Regime]string{
	domain.RegimeSimplified:     SourceLC123,
	domain.RegimePresumedProfit: SourcePresumed,
	domain.RegimeRealProfit:     SourceRealProfit,
}

// CurrentBurden returns the consumption-tax burden range (percent of revenue)
// under today's rules. Unknown regimes use the presumed-profit row and are
// marked as derived.
func CurrentBurden(r domain.Regime, s domain.Sector) domain.CitedValue[domain.RateRange] {
	if row, ok := currentBurdenRows[r]; ok {
		return domain.CitedValue[domain.RateRange]{
			Value:      row[s],
			Source:     currentBurdenSources[r],
			Confidence: domain.ConfidenceOfficialEstimate,
			Notes:      "PIS, COFINS, ICMS, ISS e IPI somados sobre a receita.",
		}
	}
	return domain.CitedValue[domain.RateRange]{
		Value:      currentBurdenRows[domain.RegimePresumedProfit][s],
		Source:     SourcePresumed,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Regime não informado; adotada a faixa do Lucro Presumido.",
	}
}

var newBurdens = map[domain.Sector]domain.CitedValue[domain.RateRange]{
	domain.SectorCommerce: {
		Value:      rate("14.0", "20.0"),
		Source:     SourceFazendaRate,
		Confidence: domain.ConfidenceOfficialEstimate,
		Notes:      "Alíquota cheia sobre o valor adicionado, com crédito das mercadorias.",
	},
	domain.SectorIndustry: {
		Value:      rate("12.0", "18.0"),
		Source:     SourceFazendaRate,
		Confidence: domain.ConfidenceOfficialEstimate,
		Notes:      "Crédito amplo de insumos reduz a carga efetiva.",
	},
	domain.SectorServices: {
		Value:      rate("25.0", "28.0"),
		Source:     SourceFazendaRate,
		Confidence: domain.ConfidenceOfficialEstimate,
		Notes:      "Pouco crédito disponível: folha de pagamento não gera crédito.",
	},
	domain.SectorAgribusiness: {
		Value:      rate("10.0", "18.0"),
		Source:     SourceLC214Reduced60,
		Confidence: domain.ConfidenceLegislated,
		Notes:      "Redução de 60% para produtos agropecuários e insumos.",
	},
	domain.SectorTechnology: {
		Value:      rate("22.0", "26.5"),
		Source:     SourceFazendaRate,
		Confidence: domain.ConfidenceOfficialEstimate,
		Notes:      "Serviços digitais com crédito limitado a licenças e infraestrutura.",
	},
	domain.SectorHealth: {
		Value:      rate("10.6", "12.0"),
		Source:     SourceLC214Reduced60,
		Confidence: domain.ConfidenceLegislated,
		Notes:      "Redução de 60% para serviços de saúde.",
	},
	domain.SectorEducation: {
		Value:      rate("10.6", "12.0"),
		Source:     SourceLC214Reduced60,
		Confidence: domain.ConfidenceLegislated,
		Notes:      "Redução de 60% para serviços de educação.",
	},
	domain.SectorConstruction: {
		Value:      rate("18.0", "22.0"),
		Source:     SourceLC214Property,
		Confidence: domain.ConfidenceOfficialEstimate,
		Notes:      "Regime específico de bens imóveis com redutores.",
	},
	domain.SectorFinance: {
		Value:      rate("10.0", "12.0"),
		Source:     SourceLC214Finance,
		Confidence: domain.ConfidenceOfficialEstimate,
		Notes:      "Regime específico sobre a margem financeira.",
	},
	domain.SectorOther: {
		Value:      rate("20.0", "26.5"),
		Source:     SourceFazendaRate,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Faixa genérica entre crédito parcial e alíquota cheia.",
	},
}

// NewBurden returns the estimated IBS+CBS burden range for a sector once the
// transition is complete.
func NewBurden(s domain.Sector) domain.CitedValue[domain.RateRange] {
	if v, ok := newBurdens[s]; ok {
		return v
	}
	return newBurdens[domain.SectorOther]
}

var regimeMultipliers = map[domain.Regime]domain.CitedValue[decimal.Decimal]{
	domain.RegimeSimplified: {
		Value:      d("0.4"),
		Source:     SourceLC214Simples,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Simples continua recolhendo pelo DAS; impacto indireto via crédito dos clientes.",
	},
	domain.RegimePresumedProfit: {
		Value:      d("1.0"),
		Source:     SourceLC214,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Passa ao regime regular sem ajuste.",
	},
	domain.RegimeRealProfit: {
		Value:      d("0.85"),
		Source:     SourceLC214,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Estrutura de créditos já existente aproveita melhor a não cumulatividade plena.",
	},
	domain.RegimeUnknown: {
		Value:      d("1.0"),
		Source:     SourceLC214,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Sem ajuste por regime.",
	},
}

// RegimeMultiplier returns the adjustment applied to the new burden.
func RegimeMultiplier(r domain.Regime) domain.CitedValue[decimal.Decimal] {
	if v, ok := regimeMultipliers[r]; ok {
		return v
	}
	return regimeMultipliers[domain.RegimeUnknown]
}

var (
	effectivenessBase = map[domain.Regime]decimal.Decimal{
		domain.RegimeSimplified:     d("0.82"),
		domain.RegimePresumedProfit: d("0.86"),
		domain.RegimeRealProfit:     d("0.94"),
		domain.RegimeUnknown:        d("0.86"),
	}
	effectivenessOffset = map[domain.Sector]decimal.Decimal{
		domain.SectorCommerce:     d("-0.04"),
		domain.SectorIndustry:     d("0.02"),
		domain.SectorServices:     d("-0.06"),
		domain.SectorAgribusiness: d("-0.05"),
		domain.SectorTechnology:   d("0.00"),
		domain.SectorHealth:       d("-0.02"),
		domain.SectorEducation:    d("0.00"),
		domain.SectorConstruction: d("-0.08"),
		domain.SectorFinance:      d("0.04"),
		domain.SectorOther:        d("-0.03"),
	}
)

// EffectivenessFactor returns the ratio of taxes actually declared to taxes
// legally owed for a regime and sector. Split payment is expected to push it
// towards 1.
func EffectivenessFactor(r domain.Regime, s domain.Sector) domain.CitedValue[decimal.Decimal] {
	base, ok := effectivenessBase[r]
	if !ok {
		base = effectivenessBase[domain.RegimeUnknown]
	}
	v := base.Add(effectivenessOffset[s])
	if v.GreaterThan(decimal.NewFromInt(1)) {
		v = decimal.NewFromInt(1)
	}
	return domain.CitedValue[decimal.Decimal]{
		Value:      v,
		Source:     SourceTaxGap,
		Confidence: domain.ConfidenceDerived,
		Notes:      "Razão entre tributo declarado e tributo devido.",
	}
}

// Formalization pressure tiers.
const (
	PressureHigh   = "high"
	PressureMedium = "medium"
	PressureLow    = "low"
)

// PressureTier classifies how much split payment will squeeze a business,
// given its effectiveness factor.
func PressureTier(factor decimal.Decimal) string {
	switch {
	case factor.LessThan(d("0.80")):
		return PressureHigh
	case factor.LessThan(d("0.90")):
		return PressureMedium
	default:
		return PressureLow
	}
}
