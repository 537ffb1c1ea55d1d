package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Profile is the plain record read from a user's account. Every field is optional.
type Profile struct {
	Sector            string   `json:"sector,omitempty" yaml:"sector,omitempty"`
	State             string   `json:"state,omitempty" yaml:"state,omitempty"`
	Regime            string   `json:"regime,omitempty" yaml:"regime,omitempty"`
	RevenueBracket    string   `json:"revenueBracket,omitempty" yaml:"revenue_bracket,omitempty"`
	ExactRevenue      *float64 `json:"exactRevenue,omitempty" yaml:"exact_revenue,omitempty"`
	PayrollRatio      *float64 `json:"payrollRatio,omitempty" yaml:"payroll_ratio,omitempty"`
	DominantCostType  string   `json:"dominantCostType,omitempty" yaml:"dominant_cost_type,omitempty"`
	B2BPercent        *int     `json:"b2bPercent,omitempty" yaml:"b2b_percent,omitempty"`
	HasStateIncentive *bool    `json:"hasStateIncentive,omitempty" yaml:"has_state_incentive,omitempty"`
	ExportsServices   *bool    `json:"exportsServices,omitempty" yaml:"exports_services,omitempty"`
}

// ToInput normalizes the profile into a SimulatorInput, falling back to unknown members.
func (p Profile) ToInput() SimulatorInput {
	in := SimulatorInput{
		Regime:            ParseRegime(p.Regime),
		Sector:            ParseSector(p.Sector),
		RevenueBracket:    ParseRevenueBracket(p.RevenueBracket),
		State:             NormalizeState(p.State),
		PayrollRatio:      finite(p.PayrollRatio),
		DominantCostType:  ParseCostType(p.DominantCostType),
		B2BPercent:        p.B2BPercent,
		HasStateIncentive: p.HasStateIncentive,
		ExportsServices:   p.ExportsServices,
	}
	if rev := finite(p.ExactRevenue); rev != nil && *rev > 0 {
		d := decimal.NewFromFloat(*rev)
		in.ExactRevenue = &d
	}
	return in
}

// finite drops NaN and infinite values, which decimal cannot represent.
func finite(v *float64) *float64 {
	if v == nil || math.IsInf(*v, 0) || math.IsNaN(*v) {
		return nil
	}
	return v
}

// NormalizeState upper-cases a two-letter state code; anything else becomes empty.
func NormalizeState(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return ""
	}
	return s
}

// SimulatorInput is the normalized profile used by one simulation.
type SimulatorInput struct {
	Regime            Regime           `json:"regime"`
	Sector            Sector           `json:"sector"`
	RevenueBracket    RevenueBracket   `json:"revenueBracket"`
	ExactRevenue      *decimal.Decimal `json:"exactRevenue,omitempty"`
	State             string           `json:"state,omitempty"`
	PayrollRatio      *float64         `json:"payrollRatio,omitempty"`
	DominantCostType  CostType         `json:"dominantCostType,omitempty"`
	B2BPercent        *int             `json:"b2bPercent,omitempty"`
	HasStateIncentive *bool            `json:"hasStateIncentive,omitempty"`
	ExportsServices   *bool            `json:"exportsServices,omitempty"`
}

// DeclaresIncentive reports whether the user explicitly declared a state incentive.
func (in SimulatorInput) DeclaresIncentive() bool {
	return in.HasStateIncentive != nil && *in.HasStateIncentive
}

// Exports reports whether the user declared service exports.
func (in SimulatorInput) Exports() bool {
	return in.ExportsServices != nil && *in.ExportsServices
}

// RiskLevel classifies how strongly the reform affects the business.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders risk levels from 0 (low) to 3 (critical).
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// Urgency tiers a timeline entry.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencySoon      Urgency = "soon"
	UrgencyPlanned   Urgency = "planned"
)

// ImpactRange is the annual monetary delta between reformed and current burden.
type ImpactRange struct {
	Min        decimal.Decimal `json:"min"`
	Max        decimal.Decimal `json:"max"`
	Percentual decimal.Decimal `json:"percentual"`
}

// BurdenBreakdown exposes the intermediate figures of a calculation.
type BurdenBreakdown struct {
	Revenue          decimal.Decimal `json:"revenue"`
	CurrentRate      RateRange       `json:"currentRate"`
	NewRate          RateRange       `json:"newRate"`
	RegimeMultiplier decimal.Decimal `json:"regimeMultiplier"`
	CurrentMin       decimal.Decimal `json:"currentMin"`
	CurrentMax       decimal.Decimal `json:"currentMax"`
	NewMin           decimal.Decimal `json:"newMin"`
	NewMax           decimal.Decimal `json:"newMax"`
}

// TimelineEntry is a dated milestone shown to the user.
type TimelineEntry struct {
	Date        string  `json:"date"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Urgency     Urgency `json:"urgency"`
}

// YearProjection is one row of the 2026-2033 projection.
type YearProjection struct {
	Year            int             `json:"year"`
	CBSRate         decimal.Decimal `json:"cbsRate"`
	IBSRate         decimal.Decimal `json:"ibsRate"`
	PhaseInShare    decimal.Decimal `json:"phaseInShare"`
	EstimatedBurden decimal.Decimal `json:"estimatedBurden"`
	DeltaVsCurrent  decimal.Decimal `json:"deltaVsCurrent"`
	Description     string          `json:"description"`
}

// RegimeRecommendation suggests migrating to another regime.
type RegimeRecommendation struct {
	CurrentRegime    Regime          `json:"currentRegime"`
	SuggestedRegime  Regime          `json:"suggestedRegime"`
	EstimatedSavings decimal.Decimal `json:"estimatedSavings"`
	Rationale        string          `json:"rationale"`
}

// EffectivenessMetrics compares statutory and declared burden.
type EffectivenessMetrics struct {
	Factor          decimal.Decimal `json:"factor"`
	StatutoryBurden decimal.Decimal `json:"statutoryBurden"`
	DeclaredBurden  decimal.Decimal `json:"declaredBurden"`
	ComplianceGap   decimal.Decimal `json:"complianceGap"`
	Pressure        string          `json:"pressure"`
	Note            string          `json:"note"`
}

// GatedContent is computed for every simulation. Hiding it is up to the consumer.
type GatedContent struct {
	Checklist            []string              `json:"checklist"`
	Projection           []YearProjection      `json:"projection"`
	RegimeRecommendation *RegimeRecommendation `json:"regimeRecommendation,omitempty"`
	Effectiveness        EffectivenessMetrics  `json:"effectiveness"`
}

// Provenance records how trustworthy a result is and which sources back it.
type Provenance struct {
	Confidence  ResultConfidence `json:"confidence"`
	Sources     []string         `json:"sources"`
	Limitations []string         `json:"limitations"`
}

// SimulatorResult is the full output of one simulation.
type SimulatorResult struct {
	Impact       ImpactRange     `json:"impact"`
	RiskLevel    RiskLevel       `json:"riskLevel"`
	Alerts       []string        `json:"alerts"`
	Timeline     []TimelineEntry `json:"timeline"`
	Actions      []string        `json:"actions"`
	GatedContent GatedContent    `json:"gatedContent"`
	Breakdown    BurdenBreakdown `json:"breakdown"`
	Provenance   Provenance      `json:"provenance"`
}

// Teaser is a one-line summary plus call to action.
type Teaser struct {
	Summary string `json:"summary"`
	CTA     string `json:"cta"`
}
