package domain

import (
	"math"
	"testing"
)

func TestToInputNormalizes(t *testing.T) {
	rev := 2_000_000.0
	in := Profile{Sector: "SAUDE ", Regime: "xyz", State: " am", ExactRevenue: &rev}.ToInput()
	if in.Sector != SectorHealth || in.Regime != RegimeUnknown || in.State != "AM" {
		t.Errorf("unexpected input %+v", in)
	}
	if in.ExactRevenue == nil || in.ExactRevenue.IntPart() != 2_000_000 {
		t.Errorf("unexpected revenue %v", in.ExactRevenue)
	}
}

func TestToInputDropsNonFiniteNumbers(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		rev, ratio := v, v
		in := Profile{ExactRevenue: &rev, PayrollRatio: &ratio}.ToInput()
		if in.ExactRevenue != nil || in.PayrollRatio != nil {
			t.Errorf("%v should be dropped, got %+v", v, in)
		}
	}

	zero := 0.0
	if in := (Profile{ExactRevenue: &zero}).ToInput(); in.ExactRevenue != nil {
		t.Error("zero revenue should fall back to the bracket")
	}
}
