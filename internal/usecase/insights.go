package usecase

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"reforma/internal/domain"
	"reforma/internal/taxdata"
)

// Insight is the short fact shown after a step is answered.
type Insight struct {
	StepID string `json:"stepId"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// GetInsight returns the insight for an answered step, or nil when the step
// has no answer or no insight applies. Figures come from the registry.
func GetInsight(step StepDefinition, a Answers) *Insight {
	value, ok := a[step.Field]
	if !ok || value == "" {
		return nil
	}
	switch step.Field {
	case FieldSector:
		return sectorInsight(step.ID, domain.ParseSector(value))
	case FieldState:
		return stateInsight(step.ID, value)
	case FieldRegime:
		return regimeInsight(step.ID, domain.ParseRegime(value))
	case FieldRevenueBracket:
		return bracketInsight(step.ID, domain.ParseRevenueBracket(value))
	case FieldPayrollRatio:
		return payrollInsight(step.ID, value)
	case FieldDominantCostType:
		return costInsight(step.ID, domain.ParseCostType(value))
	case FieldB2BPercent:
		return clientInsight(step.ID, value)
	case FieldHasStateIncentive:
		if value == "true" {
			return &Insight{StepID: step.ID, Title: "Incentivos têm prazo",
				Text:   "Os benefícios de ICMS são reduzidos junto com o imposto e deixam de existir em 2033.",
				Source: taxdata.SourceEC132}
		}
	case FieldExportsServices:
		if value == "true" {
			return &Insight{StepID: step.ID, Title: "Exportação segue imune",
				Text:   "Exportações não pagam IBS nem CBS e mantêm o direito aos créditos das compras.",
				Source: taxdata.SourceLC214}
		}
	}
	return nil
}

// GetInsights returns the insights for every answered active step, in step order.
func GetInsights(steps []StepDefinition, a Answers) []Insight {
	var out []Insight
	for _, s := range steps {
		if in := GetInsight(s, a); in != nil {
			out = append(out, *in)
		}
	}
	return out
}

func pct(v decimal.Decimal) string {
	return formatPercent(v.Round(1), 1) + "%"
}

func sectorInsight(id string, s domain.Sector) *Insight {
	nb := taxdata.NewBurden(s)
	text := fmt.Sprintf("Para %s, a carga estimada com IBS e CBS fica entre %s e %s da receita.",
		s.Label(), pct(nb.Value.Min), pct(nb.Value.Max))
	if nb.Confidence == domain.ConfidenceLegislated {
		text += " A redução de alíquota do setor já está prevista em lei."
	}
	return &Insight{StepID: id, Title: "Carga prevista no seu setor", Text: text, Source: nb.Source}
}

func stateInsight(id, state string) *Insight {
	if inc, ok := taxdata.IncentiveProgram(state); ok {
		return &Insight{StepID: id, Title: "Programa estadual identificado",
			Text: fmt.Sprintf("%s tem o programa %s. %s Os benefícios de ICMS terminam em 2032.",
				inc.Value.State, inc.Value.Program, inc.Value.Description),
			Source: inc.Source}
	}
	return &Insight{StepID: id, Title: "Tributação no destino",
		Text:   "O IBS passa a ser devido ao estado e ao município de destino, o que reduz a guerra fiscal entre estados.",
		Source: taxdata.SourceEC132}
}

func regimeInsight(id string, r domain.Regime) *Insight {
	m := taxdata.RegimeMultiplier(r)
	switch r {
	case domain.RegimeSimplified:
		return &Insight{StepID: id, Title: "Simples Nacional continua",
			Text:   "O Simples segue existindo, mas seus clientes empresas aproveitam menos crédito. " + m.Notes,
			Source: m.Source}
	case domain.RegimeRealProfit:
		return &Insight{StepID: id, Title: "Lucro Real e créditos",
			Text:   "Quem já apura no Lucro Real costuma aproveitar melhor o crédito amplo. " + m.Notes,
			Source: m.Source}
	case domain.RegimePresumedProfit:
		return &Insight{StepID: id, Title: "Lucro Presumido muda mais",
			Text:   "PIS e COFINS cumulativos dão lugar à CBS não cumulativa: o crédito passa a depender das suas compras.",
			Source: taxdata.SourcePresumed}
	default:
		return &Insight{StepID: id, Title: "Sem problema",
			Text:   "Vamos usar premissas médias. Confirmar o regime com o contador deixa a simulação mais precisa.",
			Source: m.Source}
	}
}

func bracketInsight(id string, b domain.RevenueBracket) *Insight {
	mid := taxdata.RevenueMidpoint(b)
	return &Insight{StepID: id, Title: "Receita de referência",
		Text:   fmt.Sprintf("Usaremos %s por ano como receita representativa da sua faixa.", FormatBRL(mid.Value)),
		Source: mid.Source}
}

func payrollInsight(id, value string) *Insight {
	ratio := parseFinite(value)
	if ratio == nil {
		return nil
	}
	if *ratio >= 0.4 {
		return &Insight{StepID: id, Title: "Folha não gera crédito",
			Text:   "Salários não geram crédito de IBS e CBS. Com folha alta, a carga líquida tende a subir.",
			Source: taxdata.SourceLC214}
	}
	return &Insight{StepID: id, Title: "Mais espaço para crédito",
		Text:   "Com folha menor, uma parte maior dos custos pode gerar crédito no novo sistema.",
		Source: taxdata.SourceLC214}
}

func costInsight(id string, c domain.CostType) *Insight {
	switch c {
	case domain.CostGoods:
		return &Insight{StepID: id, Title: "Crédito amplo de mercadorias",
			Text:   "Toda compra de mercadoria e insumo com imposto destacado gera crédito integral.",
			Source: taxdata.SourceLC214}
	case domain.CostServices:
		return &Insight{StepID: id, Title: "Serviços contratados geram crédito",
			Text:   "Serviços de terceiros passam a gerar crédito, inclusive consultorias e software.",
			Source: taxdata.SourceLC214}
	case domain.CostPayroll:
		return &Insight{StepID: id, Title: "Folha fora da não cumulatividade",
			Text:   "A folha de pagamento não gera crédito; esse é o principal motivo do aumento de carga em serviços.",
			Source: taxdata.SourceLC214}
	default:
		return nil
	}
}

func clientInsight(id, value string) *Insight {
	share, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	if share >= 50 {
		return &Insight{StepID: id, Title: "Clientes empresas tomam crédito",
			Text:   "Seus clientes vão abater o IBS e a CBS que você destacar, o que torna o preço líquido mais relevante que o bruto.",
			Source: taxdata.SourceLC214Simples}
	}
	return &Insight{StepID: id, Title: "Consumidor final sente o preço",
		Text:   "Na venda ao consumidor final não há crédito: qualquer aumento de carga aparece direto no preço.",
		Source: taxdata.SourceLC214}
}
