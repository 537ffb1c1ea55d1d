package taxdata

import (
	"testing"

	"github.com/shopspring/decimal"

	"reforma/internal/domain"
)

func TestTablesAreExhaustive(t *testing.T) {
	for _, r := range Regimes() {
		for _, s := range Sectors() {
			cur := CurrentBurden(r, s)
			if cur.Source == "" {
				t.Errorf("CurrentBurden(%s, %s) has no source", r, s)
			}
			if !cur.Value.Max.GreaterThan(decimal.Zero) {
				t.Errorf("CurrentBurden(%s, %s) max is %s", r, s, cur.Value.Max)
			}
			if cur.Value.Min.GreaterThan(cur.Value.Max) {
				t.Errorf("CurrentBurden(%s, %s) min > max", r, s)
			}

			f := EffectivenessFactor(r, s)
			if f.Value.LessThanOrEqual(decimal.Zero) || f.Value.GreaterThan(decimal.NewFromInt(1)) {
				t.Errorf("EffectivenessFactor(%s, %s) = %s out of (0, 1]", r, s, f.Value)
			}
		}
		if RegimeMultiplier(r).Source == "" {
			t.Errorf("RegimeMultiplier(%s) has no source", r)
		}
	}

	for _, s := range Sectors() {
		nb := NewBurden(s)
		if nb.Source == "" || nb.Confidence == "" {
			t.Errorf("NewBurden(%s) missing citation", s)
		}
		if nb.Value.Min.GreaterThan(nb.Value.Max) {
			t.Errorf("NewBurden(%s) min > max", s)
		}
	}

	for _, b := range Brackets() {
		if !RevenueMidpoint(b).Value.IsPositive() {
			t.Errorf("RevenueMidpoint(%s) not positive", b)
		}
	}
}

func TestBracketMidpointsAscend(t *testing.T) {
	prev := decimal.Zero
	for _, b := range Brackets() {
		v := RevenueMidpoint(b).Value
		if !v.GreaterThan(prev) {
			t.Errorf("midpoint for %s (%s) not above previous %s", b, v, prev)
		}
		prev = v
	}
}

func TestUnknownBracketFallsBackToMedium(t *testing.T) {
	got := RevenueMidpoint(domain.BracketUnknown)
	want := RevenueMidpoint(domain.BracketMedium)
	if !got.Value.Equal(want.Value) {
		t.Errorf("expected %s, got %s", want.Value, got.Value)
	}
	if got.Notes == want.Notes {
		t.Error("expected fallback note on unknown bracket")
	}
}

func TestServicesPresumedBurden(t *testing.T) {
	cur := CurrentBurden(domain.RegimePresumedProfit, domain.SectorServices).Value
	if !cur.Min.Equal(decimal.RequireFromString("8.65")) || !cur.Max.Equal(decimal.RequireFromString("14.5")) {
		t.Errorf("unexpected services/presumed range %s-%s", cur.Min, cur.Max)
	}
	nb := NewBurden(domain.SectorServices).Value
	if !nb.Min.Equal(decimal.NewFromInt(25)) || !nb.Max.Equal(decimal.NewFromInt(28)) {
		t.Errorf("unexpected services new range %s-%s", nb.Min, nb.Max)
	}
}

func TestAgribusinessIsLegislated(t *testing.T) {
	nb := NewBurden(domain.SectorAgribusiness)
	if nb.Confidence != domain.ConfidenceLegislated {
		t.Errorf("expected legislated, got %s", nb.Confidence)
	}
	if !nb.Value.Min.Equal(decimal.NewFromInt(10)) || !nb.Value.Max.Equal(decimal.NewFromInt(18)) {
		t.Errorf("unexpected agribusiness range %s-%s", nb.Value.Min, nb.Value.Max)
	}
}

func TestUnknownRegimeIsDerived(t *testing.T) {
	cur := CurrentBurden(domain.RegimeUnknown, domain.SectorCommerce)
	if cur.Confidence != domain.ConfidenceDerived {
		t.Errorf("expected derived confidence, got %s", cur.Confidence)
	}
	presumed := CurrentBurden(domain.RegimePresumedProfit, domain.SectorCommerce)
	if !cur.Value.Min.Equal(presumed.Value.Min) || !cur.Value.Max.Equal(presumed.Value.Max) {
		t.Error("unknown regime should reuse the presumed-profit row")
	}
}

func TestPressureTier(t *testing.T) {
	tests := []struct {
		factor string
		want   string
	}{
		{"0.70", PressureHigh},
		{"0.7999", PressureHigh},
		{"0.80", PressureMedium},
		{"0.89", PressureMedium},
		{"0.90", PressureLow},
		{"1", PressureLow},
	}
	for _, tt := range tests {
		if got := PressureTier(decimal.RequireFromString(tt.factor)); got != tt.want {
			t.Errorf("PressureTier(%s) = %s, want %s", tt.factor, got, tt.want)
		}
	}
}

func TestTransitionTimeline(t *testing.T) {
	tl := TransitionTimeline()
	if len(tl) != 8 {
		t.Fatalf("expected 8 years, got %d", len(tl))
	}
	for i, ty := range tl {
		if ty.Year != 2026+i {
			t.Errorf("entry %d has year %d", i, ty.Year)
		}
		if ty.Source == "" || ty.Description == "" {
			t.Errorf("year %d missing citation or description", ty.Year)
		}
	}

	last := tl[len(tl)-1]
	if !last.CBSRate.Add(last.IBSRate).Equal(ReferenceRate.Value) {
		t.Errorf("final combined rate %s != reference %s", last.CBSRate.Add(last.IBSRate), ReferenceRate.Value)
	}

	// The returned slice is a copy.
	tl[0].Year = 1999
	if TransitionTimeline()[0].Year != 2026 {
		t.Error("TransitionTimeline exposed internal state")
	}
}

func TestPhaseInShare(t *testing.T) {
	if !PhaseInShare(2025).IsZero() {
		t.Error("expected zero share before 2026")
	}
	if !PhaseInShare(2033).Equal(decimal.NewFromInt(1)) {
		t.Error("expected full share in 2033")
	}
	prev := decimal.Zero
	for y := 2026; y <= 2033; y++ {
		s := PhaseInShare(y)
		if s.LessThan(prev) {
			t.Errorf("share decreased in %d: %s < %s", y, s, prev)
		}
		prev = s
	}
}

func TestIncentivePrograms(t *testing.T) {
	for _, uf := range []string{"AM", "BA", "CE", "ES", "GO", "PE", "SC", "am"} {
		if !HasIncentiveProgram(uf) {
			t.Errorf("expected program for %s", uf)
		}
	}
	for _, uf := range []string{"SP", "RJ", "", "XYZ"} {
		if HasIncentiveProgram(uf) {
			t.Errorf("unexpected program for %q", uf)
		}
	}
}

func TestCollectSources(t *testing.T) {
	for _, r := range Regimes() {
		for _, s := range Sectors() {
			for _, b := range append(Brackets(), domain.BracketUnknown) {
				for _, uf := range []string{"", "SP", "AM"} {
					sources := CollectSources(r, s, b, uf)
					if len(sources) == 0 {
						t.Fatalf("empty sources for %s/%s/%s/%s", r, s, b, uf)
					}
					seen := map[string]bool{}
					for _, src := range sources {
						if seen[src] {
							t.Errorf("duplicate source %q for %s/%s/%s/%s", src, r, s, b, uf)
						}
						seen[src] = true
					}
				}
			}
		}
	}
}

func TestCollectSourcesIncludesIncentive(t *testing.T) {
	sources := CollectSources(domain.RegimeRealProfit, domain.SectorIndustry, domain.BracketLarge, "AM")
	found := false
	for _, s := range sources {
		if s == SourceSUFRAMA {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SUFRAMA citation in %v", sources)
	}
}

func TestCollectSourcesCitesICMSForGoods(t *testing.T) {
	has := func(sources []string) bool {
		for _, s := range sources {
			if s == SourceICMS {
				return true
			}
		}
		return false
	}
	if !has(CollectSources(domain.RegimeRealProfit, domain.SectorCommerce, domain.BracketMedium, "SP")) {
		t.Error("commerce should cite the ICMS law")
	}
	if has(CollectSources(domain.RegimeRealProfit, domain.SectorServices, domain.BracketMedium, "SP")) {
		t.Error("services pay ISS, not ICMS")
	}
}

func TestCollectLimitations(t *testing.T) {
	known := CollectLimitations(domain.RegimeRealProfit, domain.SectorHealth)
	unknown := CollectLimitations(domain.RegimeUnknown, domain.SectorHealth)
	if len(unknown) <= len(known) {
		t.Errorf("unknown regime should add a limitation: %v vs %v", unknown, known)
	}
}

func TestDetermineConfidence(t *testing.T) {
	tests := []struct {
		regime domain.Regime
		sector domain.Sector
		want   domain.ResultConfidence
	}{
		{domain.RegimeRealProfit, domain.SectorHealth, domain.ResultConfidenceHigh},
		{domain.RegimePresumedProfit, domain.SectorServices, domain.ResultConfidenceMedium},
		{domain.RegimeUnknown, domain.SectorAgribusiness, domain.ResultConfidenceMedium},
		{domain.RegimeUnknown, domain.SectorOther, domain.ResultConfidenceLow},
	}
	for _, tt := range tests {
		if got := DetermineConfidence(tt.regime, tt.sector); got != tt.want {
			t.Errorf("DetermineConfidence(%s, %s) = %s, want %s", tt.regime, tt.sector, got, tt.want)
		}
	}
}
