package usecase

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"reforma/internal/domain"
	"reforma/internal/taxdata"
)

var (
	hundred = decimal.NewFromInt(100)

	riskCriticalAbove = decimal.NewFromInt(100)
	riskHighAbove     = decimal.NewFromInt(50)
	riskMediumAbove   = decimal.NewFromInt(20)

	// Presumed-profit businesses above this increase get a migration suggestion.
	migrationThreshold = decimal.NewFromInt(30)
)

const (
	moneyPlaces   = 2
	percentPlaces = 1
)

// Calculate estimates the before/after reform burden for a profile. It has no
// I/O and no error conditions: identical input yields identical output.
func Calculate(in domain.SimulatorInput) domain.SimulatorResult {
	revenue := taxdata.RevenueMidpoint(in.RevenueBracket).Value
	if in.ExactRevenue != nil && in.ExactRevenue.IsPositive() {
		revenue = *in.ExactRevenue
	}

	curRate := taxdata.CurrentBurden(in.Regime, in.Sector).Value
	newRate := taxdata.NewBurden(in.Sector).Value
	mult := taxdata.RegimeMultiplier(in.Regime).Value

	curMin := revenue.Mul(curRate.Min).Div(hundred)
	curMax := revenue.Mul(curRate.Max).Div(hundred)
	newMin := revenue.Mul(newRate.Min).Mul(mult).Div(hundred)
	newMax := revenue.Mul(newRate.Max).Mul(mult).Div(hundred)

	// Crosswise on purpose: the spread is wider than min-to-min/max-to-max.
	best := newMin.Sub(curMax)
	worst := newMax.Sub(curMin)

	pct := percentDelta(curRate.Average(), newRate.Average().Mul(mult))

	impact := domain.ImpactRange{
		Min:        best.Round(moneyPlaces),
		Max:        worst.Round(moneyPlaces),
		Percentual: pct.Round(percentPlaces),
	}

	risk := classifyRisk(in, impact.Percentual)

	return domain.SimulatorResult{
		Impact:    impact,
		RiskLevel: risk,
		Alerts:    buildAlerts(in, impact.Percentual),
		Timeline:  buildTimeline(in),
		Actions:   buildActions(in, impact.Percentual, risk),
		GatedContent: domain.GatedContent{
			Checklist:            checklist(),
			Projection:           buildProjection(revenue, curRate, newRate, mult),
			RegimeRecommendation: recommendRegime(in, revenue, newRate, impact.Percentual),
			Effectiveness:        effectiveness(in, revenue, curRate),
		},
		Breakdown: domain.BurdenBreakdown{
			Revenue:          revenue.Round(moneyPlaces),
			CurrentRate:      curRate,
			NewRate:          newRate,
			RegimeMultiplier: mult,
			CurrentMin:       curMin.Round(moneyPlaces),
			CurrentMax:       curMax.Round(moneyPlaces),
			NewMin:           newMin.Round(moneyPlaces),
			NewMax:           newMax.Round(moneyPlaces),
		},
		Provenance: provenance(in),
	}
}

// percentDelta is (next - cur) / cur * 100, or 0 when cur is 0.
func percentDelta(cur, next decimal.Decimal) decimal.Decimal {
	if cur.IsZero() {
		return decimal.Zero
	}
	return next.Sub(cur).Div(cur).Mul(hundred)
}

func classifyRisk(in domain.SimulatorInput, pct decimal.Decimal) domain.RiskLevel {
	if in.Sector == domain.SectorServices && in.Regime == domain.RegimePresumedProfit && pct.GreaterThan(riskHighAbove) {
		return domain.RiskCritical
	}
	// General tiers grade the size of the change in either direction.
	mag := pct.Abs()
	switch {
	case mag.GreaterThan(riskCriticalAbove):
		return domain.RiskCritical
	case mag.GreaterThan(riskHighAbove):
		return domain.RiskHigh
	case mag.GreaterThan(riskMediumAbove):
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func buildAlerts(in domain.SimulatorInput, pct decimal.Decimal) []string {
	var alerts []string

	if in.Sector == domain.SectorAgribusiness {
		alerts = append(alerts, "Créditos acumulados de ICMS precisam de plano de uso: o saldo não migra automaticamente para o IBS.")
	}
	if in.Regime == domain.RegimeSimplified {
		alerts = append(alerts, "Clientes B2B passam a tomar crédito integral de fornecedores do regime regular: avalie sua competitividade no Simples.")
	}
	if in.Sector == domain.SectorServices && pct.GreaterThan(riskHighAbove) {
		alerts = append(alerts, "Serviços com folha alta quase não geram crédito: o aumento de carga tende a ser repassado ao preço.")
	}
	if in.Regime == domain.RegimeUnknown {
		alerts = append(alerts, "Regime tributário não informado: a estimativa usa premissas genéricas e tem precisão reduzida.")
	}
	if pct.IsNegative() {
		alerts = append(alerts, "O cenário indica possível redução de carga; confirme com seu contador antes de ajustar preços.")
	}
	if in.DeclaresIncentive() {
		alerts = append(alerts, "Benefícios fiscais de ICMS serão extintos gradualmente até 2032: revise o custo sem o incentivo.")
	}
	if in.Exports() {
		alerts = append(alerts, "Exportações de serviços mantêm imunidade de IBS e CBS, com manutenção dos créditos.")
	}

	alerts = append(alerts,
		"2026 é ano de teste: notas fiscais já devem destacar CBS e IBS.",
		"Em 2027 a CBS entra em vigor integral e PIS/COFINS deixam de existir.",
	)
	return alerts
}

func buildTimeline(in domain.SimulatorInput) []domain.TimelineEntry {
	entries := []domain.TimelineEntry{
		{Date: "2026-01-01", Title: "Ano de teste da CBS e do IBS", Urgency: domain.UrgencyImmediate,
			Description: "Emissores de nota fiscal passam a destacar CBS 0,9% e IBS 0,1%."},
		{Date: "2027-01-01", Title: "CBS em vigor integral", Urgency: domain.UrgencySoon,
			Description: "PIS e COFINS são extintos; a CBS passa a ser cobrada com alíquota cheia."},
		{Date: "2029-01-01", Title: "Início da redução de ICMS e ISS", Urgency: domain.UrgencyPlanned,
			Description: "ICMS e ISS caem 10% ao ano até 2032 enquanto o IBS cresce."},
		{Date: "2033-01-01", Title: "Sistema novo em vigor integral", Urgency: domain.UrgencyPlanned,
			Description: "ICMS e ISS extintos; IBS e CBS com alíquotas de referência."},
	}

	switch in.Sector {
	case domain.SectorAgribusiness:
		entries = append(entries, domain.TimelineEntry{Date: "2026-12-31", Title: "Plano para créditos acumulados de ICMS",
			Urgency: domain.UrgencyImmediate, Description: "Mapeie saldos credores antes do início da transição do IBS."})
	case domain.SectorServices, domain.SectorTechnology:
		entries = append(entries, domain.TimelineEntry{Date: "2026-06-30", Title: "Revisão de contratos de longo prazo",
			Urgency: domain.UrgencyImmediate, Description: "Inclua cláusulas de reequilíbrio tributário nos contratos vigentes após 2027."})
	case domain.SectorConstruction:
		entries = append(entries, domain.TimelineEntry{Date: "2026-12-31", Title: "Regime de transição de obras",
			Urgency: domain.UrgencySoon, Description: "Contratos firmados antes de 2027 podem optar pelo regime anterior."})
	}
	if in.DeclaresIncentive() {
		entries = append(entries, domain.TimelineEntry{Date: "2032-12-31", Title: "Fim dos benefícios de ICMS",
			Urgency: domain.UrgencyPlanned, Description: "Incentivos estaduais deixam de valer; compensação via fundo federal."})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries
}

func buildActions(in domain.SimulatorInput, pct decimal.Decimal, risk domain.RiskLevel) []string {
	actions := []string{
		"Verifique se seu emissor de notas fiscais já suporta os campos de CBS e IBS.",
		"Mapeie quais despesas vão gerar crédito no novo sistema.",
	}
	if risk.Rank() >= domain.RiskHigh.Rank() {
		if pct.IsNegative() {
			actions = append(actions, "Avalie repassar parte da redução estimada aos preços de 2027 para ganhar mercado.")
		} else {
			actions = append(actions, "Revise sua política de preços para 2027 considerando o aumento estimado.")
		}
	}
	if in.Regime == domain.RegimeSimplified {
		actions = append(actions, "Simule a opção pelo recolhimento de IBS/CBS por fora do DAS se seus clientes forem empresas.")
	}
	if in.Regime == domain.RegimePresumedProfit && pct.GreaterThan(migrationThreshold) {
		actions = append(actions, "Compare o Lucro Real com seu contador: o crédito amplo pode reduzir o impacto.")
	}
	if in.Regime == domain.RegimeUnknown {
		actions = append(actions, "Confirme seu regime tributário com o contador para refinar a simulação.")
	}
	actions = append(actions, "Acompanhe a regulamentação das alíquotas de referência pelo Senado.")
	return actions
}

func checklist() []string {
	return []string{
		"Atualizar o ERP e o emissor fiscal para o leiaute da NF-e com CBS e IBS.",
		"Levantar saldos credores de ICMS, PIS e COFINS e definir plano de aproveitamento.",
		"Revisar contratos de fornecimento e de venda com cláusula de reequilíbrio tributário.",
		"Reprecificar produtos e serviços com base na carga líquida de créditos.",
		"Treinar a equipe fiscal no split payment e na apuração assistida.",
	}
}

func buildProjection(revenue decimal.Decimal, cur, next domain.RateRange, mult decimal.Decimal) []domain.YearProjection {
	curAvg := cur.Average()
	nextAvg := next.Average().Mul(mult)
	current := revenue.Mul(curAvg).Div(hundred)
	one := decimal.NewFromInt(1)

	timeline := taxdata.TransitionTimeline()
	rows := make([]domain.YearProjection, 0, len(timeline))
	for _, ty := range timeline {
		share := taxdata.PhaseInShare(ty.Year)
		blended := curAvg.Mul(one.Sub(share)).Add(nextAvg.Mul(share))
		burden := revenue.Mul(blended).Div(hundred)
		rows = append(rows, domain.YearProjection{
			Year:            ty.Year,
			CBSRate:         ty.CBSRate,
			IBSRate:         ty.IBSRate,
			PhaseInShare:    share,
			EstimatedBurden: burden.Round(moneyPlaces),
			DeltaVsCurrent:  burden.Sub(current).Round(moneyPlaces),
			Description:     ty.Description,
		})
	}
	return rows
}

func recommendRegime(in domain.SimulatorInput, revenue decimal.Decimal, next domain.RateRange, pct decimal.Decimal) *domain.RegimeRecommendation {
	if in.Regime != domain.RegimePresumedProfit || !pct.GreaterThan(migrationThreshold) {
		return nil
	}
	presumed := taxdata.RegimeMultiplier(domain.RegimePresumedProfit).Value
	realProfit := taxdata.RegimeMultiplier(domain.RegimeRealProfit).Value
	savings := revenue.Mul(next.Average()).Mul(presumed.Sub(realProfit)).Div(hundred)
	return &domain.RegimeRecommendation{
		CurrentRegime:    domain.RegimePresumedProfit,
		SuggestedRegime:  domain.RegimeRealProfit,
		EstimatedSavings: savings.Round(moneyPlaces),
		Rationale: fmt.Sprintf("No Lucro Real a não cumulatividade plena reduz a carga estimada em cerca de %s%% para %s.",
			formatPercent(hundred.Sub(realProfit.Mul(hundred)), 0), in.Sector.Label()),
	}
}

func effectiveness(in domain.SimulatorInput, revenue decimal.Decimal, cur domain.RateRange) domain.EffectivenessMetrics {
	factor := taxdata.EffectivenessFactor(in.Regime, in.Sector).Value
	statutory := revenue.Mul(cur.Average()).Div(hundred)
	declared := statutory.Mul(factor)
	tier := taxdata.PressureTier(factor)

	var note string
	switch tier {
	case taxdata.PressureHigh:
		note = "O split payment deve fechar uma parcela relevante da diferença entre o devido e o recolhido no setor."
	case taxdata.PressureMedium:
		note = "O recolhimento automático tende a elevar moderadamente a carga efetiva."
	default:
		note = "A carga efetiva já está próxima da legal; pouco efeito do split payment."
	}

	return domain.EffectivenessMetrics{
		Factor:          factor,
		StatutoryBurden: statutory.Round(moneyPlaces),
		DeclaredBurden:  declared.Round(moneyPlaces),
		ComplianceGap:   statutory.Sub(declared).Round(moneyPlaces),
		Pressure:        tier,
		Note:            note,
	}
}

func provenance(in domain.SimulatorInput) domain.Provenance {
	limitations := taxdata.CollectLimitations(in.Regime, in.Sector)
	if in.RevenueBracket == domain.BracketUnknown && in.ExactRevenue == nil {
		limitations = append(limitations, taxdata.RevenueMidpoint(domain.BracketUnknown).Notes)
	}
	return domain.Provenance{
		Confidence:  taxdata.DetermineConfidence(in.Regime, in.Sector),
		Sources:     taxdata.CollectSources(in.Regime, in.Sector, in.RevenueBracket, in.State),
		Limitations: limitations,
	}
}

// GenerateTeaser derives a one-line summary and a call to action.
func GenerateTeaser(result domain.SimulatorResult, in domain.SimulatorInput) domain.Teaser {
	var summary string
	if result.Impact.Max.IsPositive() {
		summary = fmt.Sprintf("Sua empresa de %s pode pagar até %s a mais por ano com a reforma tributária (%s).",
			in.Sector.Label(), FormatBRL(result.Impact.Max), FormatSignedPercent(result.Impact.Percentual))
	} else {
		summary = fmt.Sprintf("Sua empresa de %s pode economizar até %s por ano com a reforma tributária (%s).",
			in.Sector.Label(), FormatBRL(result.Impact.Min.Abs()), FormatSignedPercent(result.Impact.Percentual))
	}
	return domain.Teaser{Summary: summary, CTA: ctaFor(result.RiskLevel)}
}

func ctaFor(risk domain.RiskLevel) string {
	switch risk {
	case domain.RiskCritical:
		return "Impacto crítico: veja o plano de ação completo e fale com um especialista agora."
	case domain.RiskHigh:
		return "Impacto alto: desbloqueie a projeção ano a ano e o checklist de adaptação."
	case domain.RiskMedium:
		return "Veja como se preparar com a projeção completa até 2033."
	default:
		return "Confira o relatório completo e confirme que sua empresa está pronta."
	}
}
