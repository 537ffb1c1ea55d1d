package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Regime is a business's tax-filing category.
type Regime string

const (
	RegimeSimplified     Regime = "simples_nacional"
	RegimePresumedProfit Regime = "lucro_presumido"
	RegimeRealProfit     Regime = "lucro_real"
	RegimeUnknown        Regime = "nao_sei"
)

// ParseRegime maps free-form input to a Regime. Unrecognized values become RegimeUnknown.
func ParseRegime(s string) Regime {
	switch normalizeKey(s) {
	case "simples_nacional", "simples", "simplified":
		return RegimeSimplified
	case "lucro_presumido", "presumido", "presumed_profit", "presumed-profit":
		return RegimePresumedProfit
	case "lucro_real", "real", "real_profit", "real-profit":
		return RegimeRealProfit
	default:
		return RegimeUnknown
	}
}

// Label returns the pt-BR display name.
func (r Regime) Label() string {
	switch r {
	case RegimeSimplified:
		return "Simples Nacional"
	case RegimePresumedProfit:
		return "Lucro Presumido"
	case RegimeRealProfit:
		return "Lucro Real"
	default:
		return "regime não informado"
	}
}

// Sector is one of the closed set of business sectors.
type Sector string

const (
	SectorCommerce     Sector = "comercio"
	SectorIndustry     Sector = "industria"
	SectorServices     Sector = "servicos"
	SectorAgribusiness Sector = "agronegocio"
	SectorTechnology   Sector = "tecnologia"
	SectorHealth       Sector = "saude"
	SectorEducation    Sector = "educacao"
	SectorConstruction Sector = "construcao"
	SectorFinance      Sector = "financeiro"
	SectorOther        Sector = "outro"
)

// ParseSector maps free-form input to a Sector. Unrecognized values become SectorOther.
func ParseSector(s string) Sector {
	switch normalizeKey(s) {
	case "comercio", "commerce", "varejo":
		return SectorCommerce
	case "industria", "industry":
		return SectorIndustry
	case "servicos", "services":
		return SectorServices
	case "agronegocio", "agro", "agribusiness":
		return SectorAgribusiness
	case "tecnologia", "technology", "ti":
		return SectorTechnology
	case "saude", "health":
		return SectorHealth
	case "educacao", "education":
		return SectorEducation
	case "construcao", "construction":
		return SectorConstruction
	case "financeiro", "finance":
		return SectorFinance
	default:
		return SectorOther
	}
}

// Label returns the pt-BR display name.
func (s Sector) Label() string {
	switch s {
	case SectorCommerce:
		return "comércio"
	case SectorIndustry:
		return "indústria"
	case SectorServices:
		return "serviços"
	case SectorAgribusiness:
		return "agronegócio"
	case SectorTechnology:
		return "tecnologia"
	case SectorHealth:
		return "saúde"
	case SectorEducation:
		return "educação"
	case SectorConstruction:
		return "construção civil"
	case SectorFinance:
		return "serviços financeiros"
	default:
		return "outros setores"
	}
}

// RevenueBracket is an ordered annual revenue band.
type RevenueBracket string

const (
	BracketMicro      RevenueBracket = "ate_81k"
	BracketSmall      RevenueBracket = "81k_360k"
	BracketMedium     RevenueBracket = "360k_4.8m"
	BracketLarge      RevenueBracket = "4.8m_78m"
	BracketEnterprise RevenueBracket = "acima_78m"
	BracketUnknown    RevenueBracket = ""
)

// ParseRevenueBracket maps input to a RevenueBracket. Unrecognized values become BracketUnknown.
func ParseRevenueBracket(s string) RevenueBracket {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(BracketMicro):
		return BracketMicro
	case string(BracketSmall):
		return BracketSmall
	case string(BracketMedium):
		return BracketMedium
	case string(BracketLarge):
		return BracketLarge
	case string(BracketEnterprise):
		return BracketEnterprise
	default:
		return BracketUnknown
	}
}

// Rank orders brackets from 1 (micro) to 5 (enterprise); unknown is 0.
func (b RevenueBracket) Rank() int {
	switch b {
	case BracketMicro:
		return 1
	case BracketSmall:
		return 2
	case BracketMedium:
		return 3
	case BracketLarge:
		return 4
	case BracketEnterprise:
		return 5
	default:
		return 0
	}
}

// CostType is the dominant cost category of the business.
type CostType string

const (
	CostPayroll   CostType = "folha"
	CostGoods     CostType = "mercadorias"
	CostServices  CostType = "servicos_terceiros"
	CostMixed     CostType = "misto"
	CostUndefined CostType = ""
)

// ParseCostType maps input to a CostType. Unrecognized values become CostUndefined.
func ParseCostType(s string) CostType {
	switch normalizeKey(s) {
	case "folha", "payroll":
		return CostPayroll
	case "mercadorias", "goods", "insumos":
		return CostGoods
	case "servicos_terceiros", "services", "terceiros":
		return CostServices
	case "misto", "mixed":
		return CostMixed
	default:
		return CostUndefined
	}
}

// SourceConfidence grades how firmly a registry figure is established.
type SourceConfidence string

const (
	ConfidenceLegislated       SourceConfidence = "legislated"
	ConfidenceOfficialEstimate SourceConfidence = "official_estimate"
	ConfidenceDerived          SourceConfidence = "derived"
)

// CitedValue wraps a registry fact with its citation.
type CitedValue[T any] struct {
	Value      T                `json:"value"`
	Source     string           `json:"source"`
	Confidence SourceConfidence `json:"confidence"`
	Notes      string           `json:"notes,omitempty"`
}

// RateRange is a burden range in percent of revenue.
type RateRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Average returns the midpoint of the range.
func (r RateRange) Average() decimal.Decimal {
	return r.Min.Add(r.Max).Div(decimal.NewFromInt(2))
}

// ResultConfidence is the overall confidence of a simulation.
type ResultConfidence string

const (
	ResultConfidenceHigh   ResultConfidence = "high"
	ResultConfidenceMedium ResultConfidence = "medium"
	ResultConfidenceLow    ResultConfidence = "low"
)

// StateIncentive describes a state-level ICMS incentive program.
type StateIncentive struct {
	State       string `json:"state"`
	Program     string `json:"program"`
	Description string `json:"description"`
}

// TransitionYear is one year of the IBS/CBS transition.
type TransitionYear struct {
	Year        int             `json:"year"`
	IBSRate     decimal.Decimal `json:"ibsRate"`
	CBSRate     decimal.Decimal `json:"cbsRate"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(
		"ç", "c", "ã", "a", "á", "a", "â", "a", "é", "e", "ê", "e",
		"í", "i", "ó", "o", "ô", "o", "õ", "o", "ú", "u", " ", "_",
	)
	return r.Replace(s)
}
