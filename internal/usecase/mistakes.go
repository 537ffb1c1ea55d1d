package usecase

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"reforma/internal/domain"
	"reforma/internal/taxdata"
)

// MistakeSeverity grades how costly a common mistake is for the profile.
type MistakeSeverity string

const (
	SeverityHigh   MistakeSeverity = "alta"
	SeverityMedium MistakeSeverity = "media"
	SeverityLow    MistakeSeverity = "baixa"
)

func (s MistakeSeverity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// CommonMistake is a matched catalog entry with its templates rendered.
type CommonMistake struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	SuggestedQuestion string          `json:"suggestedQuestion"`
	Severity          MistakeSeverity `json:"severity"`
}

// MistakeContext is the derived view of a profile that catalog rules match on.
type MistakeContext struct {
	Sector              domain.Sector
	Regime              domain.Regime
	Bracket             domain.RevenueBracket
	State               string
	CostType            domain.CostType
	Pressure            string
	B2BPercent          int // -1 when unknown
	PayrollRatio        float64
	EffectivenessFactor decimal.Decimal
	ImpactPercent       decimal.Decimal
	Risk                domain.RiskLevel
	HasIncentive        bool
	StateHasProgram     bool
	Exports             bool
}

// NewMistakeContext derives the matching context from input and result.
func NewMistakeContext(in domain.SimulatorInput, res domain.SimulatorResult) MistakeContext {
	ctx := MistakeContext{
		Sector:              in.Sector,
		Regime:              in.Regime,
		Bracket:             in.RevenueBracket,
		State:               in.State,
		CostType:            in.DominantCostType,
		Pressure:            res.GatedContent.Effectiveness.Pressure,
		B2BPercent:          -1,
		EffectivenessFactor: res.GatedContent.Effectiveness.Factor,
		ImpactPercent:       res.Impact.Percentual,
		Risk:                res.RiskLevel,
		HasIncentive:        in.DeclaresIncentive(),
		StateHasProgram:     taxdata.HasIncentiveProgram(in.State),
		Exports:             in.Exports(),
	}
	if ctx.Pressure == "" {
		ctx.EffectivenessFactor = taxdata.EffectivenessFactor(in.Regime, in.Sector).Value
		ctx.Pressure = taxdata.PressureTier(ctx.EffectivenessFactor)
	}
	if in.B2BPercent != nil {
		ctx.B2BPercent = *in.B2BPercent
	}
	if in.PayrollRatio != nil {
		ctx.PayrollRatio = *in.PayrollRatio
	}
	return ctx
}

func (c MistakeContext) b2bAtLeast(p int) bool { return c.B2BPercent >= p }
func (c MistakeContext) b2bKnown() bool        { return c.B2BPercent >= 0 }
func (c MistakeContext) pctAbove(p int64) bool {
	return c.ImpactPercent.GreaterThan(decimal.NewFromInt(p))
}
func (c MistakeContext) serviceLike() bool {
	return c.Sector == domain.SectorServices || c.Sector == domain.SectorTechnology
}

func (c MistakeContext) replacer() *strings.Replacer {
	state := c.State
	if state == "" {
		state = "seu estado"
	}
	b2b := "não informado"
	if c.b2bKnown() {
		b2b = strconv.Itoa(c.B2BPercent) + "%"
	}
	return strings.NewReplacer(
		"{setor}", c.Sector.Label(),
		"{regime}", c.Regime.Label(),
		"{estado}", state,
		"{percentual}", FormatSignedPercent(c.ImpactPercent),
		"{b2b}", b2b,
	)
}

type mistakeRule struct {
	id          string
	title       string
	description string
	question    string
	match       func(MistakeContext) bool
	severity    func(MistakeContext) MistakeSeverity
}

func fixed(s MistakeSeverity) func(MistakeContext) MistakeSeverity {
	return func(MistakeContext) MistakeSeverity { return s }
}

var mistakeCatalog = []mistakeRule{
	{
		id:          "preco-sem-credito",
		title:       "Manter preços sem considerar a perda de crédito",
		description: "Empresas de {setor} no {regime} tendem a ver a carga subir ({percentual}). Manter a tabela de preços atual pode consumir a margem a partir de 2027.",
		question:    "Como devo reprecificar meus serviços considerando o aumento estimado de {percentual}?",
		match:       func(c MistakeContext) bool { return c.pctAbove(20) },
		severity: func(c MistakeContext) MistakeSeverity {
			if c.pctAbove(50) {
				return SeverityHigh
			}
			return SeverityMedium
		},
	},
	{
		id:          "contratos-sem-reequilibrio",
		title:       "Contratos longos sem cláusula de reequilíbrio tributário",
		description: "Contratos de {setor} assinados hoje atravessam a transição. Sem cláusula de revisão, o aumento de tributo fica com você.",
		question:    "Quais cláusulas incluir em contratos que vão além de 2027?",
		match:       func(c MistakeContext) bool { return c.serviceLike() || c.Sector == domain.SectorConstruction },
		severity: func(c MistakeContext) MistakeSeverity {
			if c.pctAbove(50) {
				return SeverityHigh
			}
			return SeverityMedium
		},
	},
	{
		id:          "simples-b2b-competitividade",
		title:       "Ignorar o crédito reduzido que o Simples gera para clientes",
		description: "Com {b2b} de clientes empresas, quem compra de você no Simples aproveita menos crédito que de um fornecedor do regime regular.",
		question:    "Vale a pena recolher IBS e CBS por fora do Simples para atender clientes B2B?",
		match: func(c MistakeContext) bool {
			return c.Regime == domain.RegimeSimplified && (!c.b2bKnown() || c.b2bAtLeast(30))
		},
		severity: func(c MistakeContext) MistakeSeverity {
			if c.b2bAtLeast(70) {
				return SeverityHigh
			}
			if c.b2bAtLeast(30) {
				return SeverityMedium
			}
			return SeverityLow
		},
	},
	{
		id:          "simples-b2c-opcao-desnecessaria",
		title:       "Sair do Simples sem precisar",
		description: "Vendendo principalmente ao consumidor final, a opção pelo regime regular de IBS/CBS raramente compensa.",
		question:    "Faz sentido continuar no Simples se vendo quase só para pessoa física?",
		match: func(c MistakeContext) bool {
			return c.Regime == domain.RegimeSimplified && c.b2bKnown() && c.B2BPercent < 30
		},
		severity: fixed(SeverityLow),
	},
	{
		id:          "creditos-icms-acumulados",
		title:       "Deixar créditos acumulados de ICMS sem plano",
		description: "No {setor}, saldos credores de ICMS são comuns e terão regras próprias de compensação durante a transição.",
		question:    "Como aproveitar meus créditos acumulados de ICMS antes de 2033?",
		match: func(c MistakeContext) bool {
			return c.Sector == domain.SectorAgribusiness || c.Sector == domain.SectorIndustry || c.Exports
		},
		severity: func(c MistakeContext) MistakeSeverity {
			if c.Sector == domain.SectorAgribusiness {
				return SeverityHigh
			}
			return SeverityMedium
		},
	},
	{
		id:          "incentivo-icms-permanente",
		title:       "Contar com o incentivo de ICMS depois de 2032",
		description: "Os benefícios de ICMS em {estado} acabam com a extinção do imposto. O custo sem incentivo precisa entrar no planejamento.",
		question:    "O que acontece com o incentivo fiscal que tenho em {estado}?",
		match:       func(c MistakeContext) bool { return c.HasIncentive },
		severity:    fixed(SeverityHigh),
	},
	{
		id:          "incentivo-nao-verificado",
		title:       "Não verificar se a empresa usa programa estadual",
		description: "{estado} tem programa de incentivo de ICMS relevante. Se você usa algum, o impacto da reforma muda.",
		question:    "Como saber se minha empresa aproveita algum benefício de ICMS em {estado}?",
		match:       func(c MistakeContext) bool { return c.StateHasProgram && !c.HasIncentive },
		severity:    fixed(SeverityLow),
	},
	{
		id:          "split-payment-caixa",
		title:       "Subestimar o efeito do split payment no caixa",
		description: "Com o recolhimento automático na liquidação, o tributo sai do caixa no recebimento. Em {setor} a diferença entre devido e recolhido é relevante.",
		question:    "Como o split payment vai afetar meu fluxo de caixa?",
		match:       func(c MistakeContext) bool { return c.Pressure != taxdata.PressureLow },
		severity: func(c MistakeContext) MistakeSeverity {
			if c.Pressure == taxdata.PressureHigh {
				return SeverityHigh
			}
			return SeverityMedium
		},
	},
	{
		id:          "folha-sem-credito",
		title:       "Esperar crédito sobre a folha de pagamento",
		description: "Salários não geram crédito de IBS/CBS. Com folha como principal custo, a carga líquida sobe mais que a média de {setor}.",
		question:    "Como reduzir o impacto da reforma numa empresa com folha alta?",
		match: func(c MistakeContext) bool {
			return c.CostType == domain.CostPayroll || c.PayrollRatio >= 0.4
		},
		severity: func(c MistakeContext) MistakeSeverity {
			if c.serviceLike() {
				return SeverityHigh
			}
			return SeverityMedium
		},
	},
	{
		id:          "fornecedores-simples",
		title:       "Manter fornecedores sem avaliar o crédito que geram",
		description: "Compras de fornecedores do Simples geram crédito menor. Com custo concentrado em mercadorias, isso pesa na carga final.",
		question:    "Devo trocar fornecedores do Simples por fornecedores do regime regular?",
		match: func(c MistakeContext) bool {
			return c.CostType == domain.CostGoods || c.CostType == domain.CostServices
		},
		severity: func(c MistakeContext) MistakeSeverity {
			if c.Regime == domain.RegimeRealProfit {
				return SeverityMedium
			}
			return SeverityLow
		},
	},
	{
		id:          "lucro-presumido-sem-comparar",
		title:       "Ficar no Lucro Presumido sem comparar com o Lucro Real",
		description: "Com aumento estimado de {percentual}, o crédito amplo do Lucro Real pode compensar a apuração mais complexa.",
		question:    "Vale a pena migrar para o Lucro Real com a reforma?",
		match: func(c MistakeContext) bool {
			return c.Regime == domain.RegimePresumedProfit && c.pctAbove(30)
		},
		severity: func(c MistakeContext) MistakeSeverity {
			if c.pctAbove(80) {
				return SeverityHigh
			}
			return SeverityMedium
		},
	},
	{
		id:          "regime-desconhecido",
		title:       "Planejar sem saber o próprio regime tributário",
		description: "Sem confirmar o regime, qualquer estimativa de impacto é genérica. O efeito muda muito entre Simples, Presumido e Real.",
		question:    "Como descubro em qual regime tributário minha empresa está?",
		match:       func(c MistakeContext) bool { return c.Regime == domain.RegimeUnknown },
		severity:    fixed(SeverityHigh),
	},
	{
		id:          "reducao-60-automatica",
		title:       "Assumir que a redução de 60% vale para tudo",
		description: "A alíquota reduzida de {setor} vale só para os itens listados na lei complementar. Atividades fora da lista pagam a alíquota cheia.",
		question:    "Quais atividades da minha empresa têm direito à alíquota reduzida?",
		match: func(c MistakeContext) bool {
			return c.Sector == domain.SectorHealth || c.Sector == domain.SectorEducation || c.Sector == domain.SectorAgribusiness
		},
		severity: fixed(SeverityMedium),
	},
	{
		id:          "exportacao-sem-documentacao",
		title:       "Não documentar exportações de serviços",
		description: "A imunidade na exportação de serviços exige prova de que o resultado ocorre no exterior. Sem documentação, a operação é tributada.",
		question:    "Que documentos preciso guardar para comprovar exportação de serviços?",
		match:       func(c MistakeContext) bool { return c.Exports },
		severity:    fixed(SeverityMedium),
	},
	{
		id:          "sistema-fiscal-2026",
		title:       "Deixar a adaptação do emissor fiscal para 2027",
		description: "Em 2026 as notas já precisam destacar CBS e IBS. Sistemas não atualizados geram rejeição de documentos.",
		question:    "O que preciso mudar no meu sistema de notas fiscais em 2026?",
		match:       func(c MistakeContext) bool { return true },
		severity: func(c MistakeContext) MistakeSeverity {
			if c.Bracket.Rank() >= domain.BracketLarge.Rank() {
				return SeverityMedium
			}
			return SeverityLow
		},
	},
	{
		id:          "construcao-regime-transicao",
		title:       "Não avaliar o regime de transição de obras em andamento",
		description: "Obras e incorporações iniciadas antes de 2027 podem manter regras antigas. Perder o prazo de opção encarece o projeto.",
		question:    "Minhas obras em andamento podem ficar no regime antigo?",
		match:       func(c MistakeContext) bool { return c.Sector == domain.SectorConstruction },
		severity:    fixed(SeverityHigh),
	},
	{
		id:          "financeiro-regime-especifico",
		title:       "Aplicar as regras gerais a serviços financeiros",
		description: "Serviços financeiros têm regime específico sobre a margem, com alíquotas e créditos próprios.",
		question:    "Como funciona o regime específico de serviços financeiros?",
		match:       func(c MistakeContext) bool { return c.Sector == domain.SectorFinance },
		severity:    fixed(SeverityMedium),
	},
	{
		id:          "tecnologia-licencas-importadas",
		title:       "Esquecer o IBS/CBS na importação de software e serviços digitais",
		description: "Licenças e serviços contratados do exterior passam a ser tributados na importação, com direito a crédito para quem está no regime regular.",
		question:    "Como fica a tributação de softwares e serviços que contrato no exterior?",
		match:       func(c MistakeContext) bool { return c.Sector == domain.SectorTechnology },
		severity:    fixed(SeverityMedium),
	},
	{
		id:          "reducao-de-carga-ignorada",
		title:       "Não repassar a redução de carga ao preço",
		description: "O cenário de {setor} indica queda de carga ({percentual}). Concorrentes que repassarem a redução ganham mercado.",
		question:    "Devo reduzir preços se minha carga tributária cair?",
		match:       func(c MistakeContext) bool { return c.ImpactPercent.IsNegative() },
		severity:    fixed(SeverityLow),
	},
	{
		id:          "mei-desenquadramento",
		title:       "Ultrapassar o limite do MEI durante a transição",
		description: "O MEI segue com recolhimento fixo, mas o desenquadramento leva ao regime regular de IBS/CBS sem período de adaptação.",
		question:    "O que muda para o MEI com a reforma tributária?",
		match:       func(c MistakeContext) bool { return c.Bracket == domain.BracketMicro },
		severity:    fixed(SeverityLow),
	},
}

// DefaultMaxMistakes is how many mistakes callers show when not told otherwise.
const DefaultMaxMistakes = 5

// GetCommonMistakes matches the catalog against a profile and its result,
// sorts by severity (catalog order breaks ties) and keeps at most maxItems.
// A non-positive maxItems yields no mistakes.
func GetCommonMistakes(in domain.SimulatorInput, res domain.SimulatorResult, maxItems int) []CommonMistake {
	if maxItems <= 0 {
		return nil
	}
	ctx := NewMistakeContext(in, res)
	r := ctx.replacer()

	var matched []CommonMistake
	for _, rule := range mistakeCatalog {
		if !rule.match(ctx) {
			continue
		}
		matched = append(matched, CommonMistake{
			ID:                rule.id,
			Title:             r.Replace(rule.title),
			Description:       r.Replace(rule.description),
			SuggestedQuestion: r.Replace(rule.question),
			Severity:          rule.severity(ctx),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Severity.rank() > matched[j].Severity.rank()
	})

	if len(matched) > maxItems {
		matched = matched[:maxItems]
	}
	return matched
}

// FormatMistakesForPrompt renders mistakes as compact numbered text for an
// assistant's system prompt. The layout is stable; an empty list yields "".
func FormatMistakesForPrompt(mistakes []CommonMistake) string {
	if len(mistakes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("ERROS COMUNS PARA ESTE PERFIL:\n")
	for i, m := range mistakes {
		fmt.Fprintf(&b, "%d. [%s] %s: %s\n", i+1, strings.ToUpper(string(m.Severity)), m.Title, m.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
