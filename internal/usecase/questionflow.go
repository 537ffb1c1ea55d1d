package usecase

import (
	"math"
	"strconv"
	"strings"

	"reforma/internal/domain"
	"reforma/internal/taxdata"
)

// Answers holds the questionnaire answers keyed by step field.
type Answers map[string]string

// Answer field keys, matching the Profile JSON names.
const (
	FieldSector            = "sector"
	FieldState             = "state"
	FieldRegime            = "regime"
	FieldRevenueBracket    = "revenueBracket"
	FieldExactRevenue      = "exactRevenue"
	FieldPayrollRatio      = "payrollRatio"
	FieldDominantCostType  = "dominantCostType"
	FieldB2BPercent        = "b2bPercent"
	FieldHasStateIncentive = "hasStateIncentive"
	FieldExportsServices   = "exportsServices"
)

// StepOption is one selectable answer.
type StepOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// StepDefinition is one question of the adaptive flow.
type StepDefinition struct {
	ID        string               `json:"id"`
	Field     string               `json:"field"`
	Title     string               `json:"title"`
	Question  string               `json:"question"`
	Options   []StepOption         `json:"options,omitempty"`
	Optional  bool                 `json:"optional"`
	Condition func(a Answers) bool `json:"-"`
}

// StepProgress is the 1-indexed position in the active steps.
type StepProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

var exportSectors = map[domain.Sector]bool{
	domain.SectorServices:     true,
	domain.SectorTechnology:   true,
	domain.SectorIndustry:     true,
	domain.SectorAgribusiness: true,
}

func sectorOptions() []StepOption {
	sectors := taxdata.Sectors()
	out := make([]StepOption, 0, len(sectors))
	for _, s := range sectors {
		out = append(out, StepOption{Value: string(s), Label: s.Label()})
	}
	return out
}

func regimeOptions() []StepOption {
	regimes := taxdata.Regimes()
	out := make([]StepOption, 0, len(regimes))
	for _, r := range regimes {
		label := r.Label()
		if r == domain.RegimeUnknown {
			label = "Não sei"
		}
		out = append(out, StepOption{Value: string(r), Label: label})
	}
	return out
}

var stepDefinitions = []StepDefinition{
	{
		ID: "setor", Field: FieldSector, Title: "Setor",
		Question: "Em qual setor sua empresa atua?",
		Options:  sectorOptions(),
	},
	{
		ID: "estado", Field: FieldState, Title: "Estado",
		Question: "Em qual estado fica a sede da empresa?",
	},
	{
		ID: "regime", Field: FieldRegime, Title: "Regime tributário",
		Question: "Qual é o regime tributário da empresa?",
		Options:  regimeOptions(),
	},
	{
		ID: "faturamento", Field: FieldRevenueBracket, Title: "Faturamento",
		Question: "Qual é o faturamento anual aproximado?",
		Options: []StepOption{
			{Value: string(domain.BracketMicro), Label: "Até R$ 81 mil (MEI)"},
			{Value: string(domain.BracketSmall), Label: "R$ 81 mil a R$ 360 mil"},
			{Value: string(domain.BracketMedium), Label: "R$ 360 mil a R$ 4,8 milhões"},
			{Value: string(domain.BracketLarge), Label: "R$ 4,8 milhões a R$ 78 milhões"},
			{Value: string(domain.BracketEnterprise), Label: "Acima de R$ 78 milhões"},
		},
	},
	{
		ID: "faturamento-exato", Field: FieldExactRevenue, Title: "Faturamento exato",
		Question: "Se souber, informe o faturamento anual exato.",
		Optional: true,
		Condition: func(a Answers) bool {
			return domain.ParseRevenueBracket(a[FieldRevenueBracket]).Rank() >= domain.BracketLarge.Rank()
		},
	},
	{
		ID: "folha", Field: FieldPayrollRatio, Title: "Folha de pagamento",
		Question: "Quanto a folha de pagamento representa do faturamento?",
		Optional: true,
		Options: []StepOption{
			{Value: "0.1", Label: "Até 10%"},
			{Value: "0.25", Label: "De 10% a 40%"},
			{Value: "0.5", Label: "Mais de 40%"},
		},
		Condition: func(a Answers) bool {
			return domain.ParseRevenueBracket(a[FieldRevenueBracket]) != domain.BracketMicro
		},
	},
	{
		ID: "custos", Field: FieldDominantCostType, Title: "Principal custo",
		Question: "Qual é o principal custo da operação?",
		Optional: true,
		Options: []StepOption{
			{Value: string(domain.CostPayroll), Label: "Folha de pagamento"},
			{Value: string(domain.CostGoods), Label: "Mercadorias e insumos"},
			{Value: string(domain.CostServices), Label: "Serviços de terceiros"},
			{Value: string(domain.CostMixed), Label: "Misto"},
		},
	},
	{
		ID: "clientes", Field: FieldB2BPercent, Title: "Perfil de clientes",
		Question: "Que parte das vendas vai para outras empresas (B2B)?",
		Optional: true,
		Options: []StepOption{
			{Value: "10", Label: "Quase tudo para consumidor final"},
			{Value: "50", Label: "Metade empresas, metade consumidores"},
			{Value: "90", Label: "Quase tudo para empresas"},
		},
	},
	{
		ID: "incentivo", Field: FieldHasStateIncentive, Title: "Incentivo de ICMS",
		Question: "A empresa usa algum programa estadual de incentivo de ICMS?",
		Optional: true,
		Options:  yesNo(),
		Condition: func(a Answers) bool {
			return taxdata.HasIncentiveProgram(a[FieldState])
		},
	},
	{
		ID: "exportacao", Field: FieldExportsServices, Title: "Exportação",
		Question: "A empresa exporta produtos ou serviços?",
		Optional: true,
		Options:  yesNo(),
		Condition: func(a Answers) bool {
			s, ok := a[FieldSector]
			return ok && exportSectors[domain.ParseSector(s)]
		},
	},
}

func yesNo() []StepOption {
	return []StepOption{{Value: "true", Label: "Sim"}, {Value: "false", Label: "Não"}}
}

// AllSteps returns every step definition in order, ignoring conditions.
func AllSteps() []StepDefinition {
	out := make([]StepDefinition, len(stepDefinitions))
	copy(out, stepDefinitions)
	return out
}

// GetActiveSteps returns the steps whose condition holds for the answers so far.
func GetActiveSteps(a Answers) []StepDefinition {
	var out []StepDefinition
	for _, s := range stepDefinitions {
		if s.Condition == nil || s.Condition(a) {
			out = append(out, s)
		}
	}
	return out
}

// GetStepProgress returns the 1-indexed progress for currentIndex, clamped to the step count.
func GetStepProgress(steps []StepDefinition, currentIndex int) StepProgress {
	total := len(steps)
	if total == 0 {
		return StepProgress{}
	}
	current := currentIndex + 1
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	return StepProgress{Current: current, Total: total, Percent: current * 100 / total}
}

// ProfileFromAnswers converts questionnaire answers to a Profile. Malformed
// and non-finite numeric answers are dropped.
func ProfileFromAnswers(a Answers) domain.Profile {
	p := domain.Profile{
		Sector:           a[FieldSector],
		State:            a[FieldState],
		Regime:           a[FieldRegime],
		RevenueBracket:   a[FieldRevenueBracket],
		DominantCostType: a[FieldDominantCostType],
	}
	p.ExactRevenue = parseFinite(a[FieldExactRevenue])
	p.PayrollRatio = parseFinite(a[FieldPayrollRatio])
	if v, err := strconv.Atoi(strings.TrimSpace(a[FieldB2BPercent])); err == nil {
		p.B2BPercent = &v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(a[FieldHasStateIncentive])); err == nil {
		p.HasStateIncentive = &v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(a[FieldExportsServices])); err == nil {
		p.ExportsServices = &v
	}
	return p
}

func parseFinite(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
