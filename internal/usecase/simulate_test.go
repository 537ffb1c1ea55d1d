package usecase

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"reforma/internal/domain"
	"reforma/internal/taxdata"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func servicesPresumed() domain.SimulatorInput {
	return domain.SimulatorInput{
		Regime:         domain.RegimePresumedProfit,
		Sector:         domain.SectorServices,
		RevenueBracket: domain.BracketMedium,
		State:          "SP",
	}
}

func TestCalculateServicesPresumed(t *testing.T) {
	res := Calculate(servicesPresumed())

	if !res.Breakdown.Revenue.Equal(dec("1500000")) {
		t.Errorf("expected revenue 1500000, got %s", res.Breakdown.Revenue)
	}
	if !res.Impact.Min.Equal(dec("157500")) {
		t.Errorf("expected impact min 157500, got %s", res.Impact.Min)
	}
	if !res.Impact.Max.Equal(dec("290250")) {
		t.Errorf("expected impact max 290250, got %s", res.Impact.Max)
	}
	if !res.Impact.Percentual.Equal(dec("128.9")) {
		t.Errorf("expected percentual 128.9, got %s", res.Impact.Percentual)
	}
	if res.RiskLevel != domain.RiskCritical {
		t.Errorf("expected critical risk, got %s", res.RiskLevel)
	}
	if res.Provenance.Confidence != domain.ResultConfidenceMedium {
		t.Errorf("expected medium confidence, got %s", res.Provenance.Confidence)
	}
}

// Best case pairs the new minimum with the current maximum and the worst case
// pairs the new maximum with the current minimum. Parallel pairing would give
// 245250 and 202500 for this profile.
func TestCalculateDeltasAreCrosswise(t *testing.T) {
	res := Calculate(servicesPresumed())
	b := res.Breakdown

	if !res.Impact.Min.Equal(b.NewMin.Sub(b.CurrentMax)) {
		t.Errorf("impact min %s != newMin - currentMax (%s)", res.Impact.Min, b.NewMin.Sub(b.CurrentMax))
	}
	if !res.Impact.Max.Equal(b.NewMax.Sub(b.CurrentMin)) {
		t.Errorf("impact max %s != newMax - currentMin (%s)", res.Impact.Max, b.NewMax.Sub(b.CurrentMin))
	}
	if res.Impact.Min.Equal(b.NewMin.Sub(b.CurrentMin)) {
		t.Error("impact min matches parallel pairing")
	}
	if res.Impact.Max.Sub(res.Impact.Min).LessThanOrEqual(b.NewMax.Sub(b.CurrentMax).Sub(b.NewMin.Sub(b.CurrentMin)).Abs()) {
		t.Error("crosswise spread should be wider than the parallel spread")
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	for _, r := range taxdata.Regimes() {
		for _, s := range taxdata.Sectors() {
			for _, b := range append(taxdata.Brackets(), domain.BracketUnknown) {
				in := domain.SimulatorInput{Regime: r, Sector: s, RevenueBracket: b, State: "AM"}
				first, err := json.Marshal(Calculate(in))
				if err != nil {
					t.Fatal(err)
				}
				second, err := json.Marshal(Calculate(in))
				if err != nil {
					t.Fatal(err)
				}
				if !bytes.Equal(first, second) {
					t.Fatalf("non-deterministic output for %s/%s/%s", r, s, b)
				}
			}
		}
	}
}

func TestPercentualSignMatchesAverages(t *testing.T) {
	for _, r := range taxdata.Regimes() {
		for _, s := range taxdata.Sectors() {
			in := domain.SimulatorInput{Regime: r, Sector: s, RevenueBracket: domain.BracketMedium}
			res := Calculate(in)
			curAvg := res.Breakdown.CurrentRate.Average()
			newAvg := res.Breakdown.NewRate.Average().Mul(res.Breakdown.RegimeMultiplier)

			switch {
			case newAvg.GreaterThan(curAvg) && !res.Impact.Percentual.IsPositive():
				t.Errorf("%s/%s: new avg above current but percentual %s", r, s, res.Impact.Percentual)
			case newAvg.LessThan(curAvg) && !res.Impact.Percentual.IsNegative():
				t.Errorf("%s/%s: new avg below current but percentual %s", r, s, res.Impact.Percentual)
			}
			if res.Impact.Min.GreaterThan(res.Impact.Max) {
				t.Errorf("%s/%s: impact min above max", r, s)
			}
		}
	}
}

func TestRiskIsMonotonic(t *testing.T) {
	increases := []string{"0", "10", "20", "20.1", "35", "50", "50.1", "75", "100", "100.1", "250"}
	decreases := []string{"0", "-10", "-20", "-20.1", "-35", "-50", "-50.1", "-58", "-75", "-100", "-100.1"}
	for _, r := range taxdata.Regimes() {
		for _, s := range taxdata.Sectors() {
			in := domain.SimulatorInput{Regime: r, Sector: s}
			for _, steps := range [][]string{increases, decreases} {
				prev := -1
				for _, p := range steps {
					rank := classifyRisk(in, dec(p)).Rank()
					if rank < prev {
						t.Errorf("%s/%s: risk dropped at %s%%", r, s, p)
					}
					prev = rank
				}
			}
		}
	}
}

func TestRiskGradesLargeDecreases(t *testing.T) {
	in := domain.SimulatorInput{Regime: domain.RegimeSimplified, Sector: domain.SectorHealth}
	if got := classifyRisk(in, dec("-58")); got != domain.RiskHigh {
		t.Errorf("expected high risk for -58%%, got %s", got)
	}
	if got := classifyRisk(in, dec("-30")); got != domain.RiskMedium {
		t.Errorf("expected medium risk for -30%%, got %s", got)
	}
	if got := classifyRisk(servicesPresumed(), dec("-60")); got != domain.RiskHigh {
		t.Errorf("services override must only apply to increases, got %s", got)
	}

	res := Calculate(domain.SimulatorInput{
		Regime:         domain.RegimeSimplified,
		Sector:         domain.SectorHealth,
		RevenueBracket: domain.BracketMedium,
	})
	if res.Impact.Percentual.IsNegative() && res.Impact.Percentual.Abs().GreaterThan(dec("50")) && res.RiskLevel.Rank() < domain.RiskHigh.Rank() {
		t.Errorf("percentual %s graded %s", res.Impact.Percentual, res.RiskLevel)
	}
}

func TestRiskOverrideForServicesPresumed(t *testing.T) {
	in := servicesPresumed()
	if got := classifyRisk(in, dec("50.1")); got != domain.RiskCritical {
		t.Errorf("expected override to critical, got %s", got)
	}
	if got := classifyRisk(in, dec("50")); got != domain.RiskMedium {
		t.Errorf("expected medium at exactly 50%%, got %s", got)
	}

	other := domain.SimulatorInput{Regime: domain.RegimeRealProfit, Sector: domain.SectorServices}
	if got := classifyRisk(other, dec("60")); got != domain.RiskHigh {
		t.Errorf("override must not apply to real profit, got %s", got)
	}
}

func TestAgribusinessIsLowerThanServices(t *testing.T) {
	services := Calculate(servicesPresumed())
	for _, r := range taxdata.Regimes() {
		agro := Calculate(domain.SimulatorInput{Regime: r, Sector: domain.SectorAgribusiness, RevenueBracket: domain.BracketMedium})
		nb := agro.Breakdown.NewRate
		if !nb.Min.Equal(dec("10")) || !nb.Max.Equal(dec("18")) {
			t.Errorf("%s: unexpected agribusiness new range %s-%s", r, nb.Min, nb.Max)
		}
		if !agro.Impact.Percentual.LessThan(services.Impact.Percentual) {
			t.Errorf("%s: agribusiness %s%% not below services %s%%", r, agro.Impact.Percentual, services.Impact.Percentual)
		}
		if agro.RiskLevel.Rank() > services.RiskLevel.Rank() {
			t.Errorf("%s: agribusiness risk %s above services", r, agro.RiskLevel)
		}
	}
}

func TestCalculateUsesExactRevenue(t *testing.T) {
	in := servicesPresumed()
	rev := dec("1000000")
	in.ExactRevenue = &rev
	res := Calculate(in)
	if !res.Breakdown.Revenue.Equal(rev) {
		t.Errorf("expected exact revenue, got %s", res.Breakdown.Revenue)
	}
	if !res.Impact.Max.Equal(dec("193500")) {
		t.Errorf("expected impact max 193500, got %s", res.Impact.Max)
	}
}

func TestCalculateUnknownInputsDoNotPanic(t *testing.T) {
	res := Calculate(domain.Profile{}.ToInput())
	if len(res.Provenance.Sources) == 0 {
		t.Error("expected sources")
	}
	found := false
	for _, l := range res.Provenance.Limitations {
		if strings.Contains(l, "Faixa de faturamento") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unknown-bracket limitation, got %v", res.Provenance.Limitations)
	}
	if res.Provenance.Confidence != domain.ResultConfidenceLow {
		t.Errorf("expected low confidence, got %s", res.Provenance.Confidence)
	}
}

func TestAlerts(t *testing.T) {
	res := Calculate(domain.SimulatorInput{Regime: domain.RegimeSimplified, Sector: domain.SectorAgribusiness, RevenueBracket: domain.BracketSmall})
	if len(res.Alerts) < 4 {
		t.Fatalf("expected agro, simplified and two timeline alerts, got %v", res.Alerts)
	}
	if !strings.Contains(res.Alerts[0], "ICMS") {
		t.Errorf("expected agribusiness alert first, got %q", res.Alerts[0])
	}
	last := res.Alerts[len(res.Alerts)-2:]
	if !strings.HasPrefix(last[0], "2026") || !strings.HasPrefix(last[1], "Em 2027") {
		t.Errorf("expected fixed timeline alerts at the end, got %v", last)
	}
}

func TestTimelineIsSortedByDate(t *testing.T) {
	yes := true
	in := servicesPresumed()
	in.HasStateIncentive = &yes
	res := Calculate(in)
	for i := 1; i < len(res.Timeline); i++ {
		if res.Timeline[i].Date < res.Timeline[i-1].Date {
			t.Errorf("timeline out of order at %d", i)
		}
	}
	if res.Timeline[len(res.Timeline)-1].Date != "2033-01-01" {
		t.Errorf("expected 2033 last, got %s", res.Timeline[len(res.Timeline)-1].Date)
	}
}

func TestGatedContentAlwaysComputed(t *testing.T) {
	res := Calculate(servicesPresumed())
	g := res.GatedContent

	if len(g.Checklist) != 5 {
		t.Errorf("expected 5 checklist items, got %d", len(g.Checklist))
	}
	if len(g.Projection) != 8 || g.Projection[0].Year != 2026 || g.Projection[7].Year != 2033 {
		t.Fatalf("unexpected projection %+v", g.Projection)
	}
	if !g.Projection[7].EstimatedBurden.Equal(dec("397500")) {
		t.Errorf("expected 2033 burden 397500, got %s", g.Projection[7].EstimatedBurden)
	}
	if !g.Projection[7].DeltaVsCurrent.Equal(dec("223875")) {
		t.Errorf("expected 2033 delta 223875, got %s", g.Projection[7].DeltaVsCurrent)
	}

	if g.RegimeRecommendation == nil {
		t.Fatal("expected regime recommendation")
	}
	if g.RegimeRecommendation.SuggestedRegime != domain.RegimeRealProfit {
		t.Errorf("expected lucro_real, got %s", g.RegimeRecommendation.SuggestedRegime)
	}
	if !g.RegimeRecommendation.EstimatedSavings.Equal(dec("59625")) {
		t.Errorf("expected savings 59625, got %s", g.RegimeRecommendation.EstimatedSavings)
	}

	eff := g.Effectiveness
	if !eff.Factor.Equal(dec("0.80")) || eff.Pressure != taxdata.PressureMedium {
		t.Errorf("unexpected effectiveness %s/%s", eff.Factor, eff.Pressure)
	}
	if !eff.StatutoryBurden.Sub(eff.DeclaredBurden).Equal(eff.ComplianceGap) {
		t.Error("compliance gap should equal statutory minus declared")
	}
}

func TestNoRegimeRecommendationOutsidePresumed(t *testing.T) {
	res := Calculate(domain.SimulatorInput{Regime: domain.RegimeRealProfit, Sector: domain.SectorServices, RevenueBracket: domain.BracketMedium})
	if res.GatedContent.RegimeRecommendation != nil {
		t.Error("recommendation only applies to presumed profit")
	}
}

func TestGenerateTeaser(t *testing.T) {
	in := servicesPresumed()
	teaser := GenerateTeaser(Calculate(in), in)
	want := "Sua empresa de serviços pode pagar até R$ 290.250 a mais por ano com a reforma tributária (+128,9%)."
	if teaser.Summary != want {
		t.Errorf("unexpected summary:\n got %q\nwant %q", teaser.Summary, want)
	}
	if teaser.CTA != ctaFor(domain.RiskCritical) {
		t.Errorf("unexpected CTA %q", teaser.CTA)
	}
}

func TestGenerateTeaserGain(t *testing.T) {
	res := domain.SimulatorResult{
		Impact:    domain.ImpactRange{Min: dec("-50000"), Max: dec("-1000"), Percentual: dec("-12.5")},
		RiskLevel: domain.RiskLow,
	}
	teaser := GenerateTeaser(res, domain.SimulatorInput{Sector: domain.SectorHealth})
	if !strings.Contains(teaser.Summary, "economizar até R$ 50.000") {
		t.Errorf("expected gain phrasing, got %q", teaser.Summary)
	}
	if !strings.Contains(teaser.Summary, "-12,5%") {
		t.Errorf("expected signed percent, got %q", teaser.Summary)
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0"},
		{"999", "R$ 999"},
		{"1000", "R$ 1.000"},
		{"1234567.89", "R$ 1.234.568"},
		{"-45000", "-R$ 45.000"},
		{"150000000", "R$ 150.000.000"},
	}
	for _, tt := range tests {
		if got := FormatBRL(dec(tt.in)); got != tt.want {
			t.Errorf("FormatBRL(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
