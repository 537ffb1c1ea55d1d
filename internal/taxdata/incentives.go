package taxdata

import (
	"reforma/internal/domain"
)

var incentivePrograms = map[string]domain.CitedValue[domain.StateIncentive]{
	"AM": {
		Value: domain.StateIncentive{State: "AM", Program: "Zona Franca de Manaus",
			Description: "Isenções de IPI e créditos presumidos de ICMS; mantida até 2073 com crédito presumido de IBS/CBS."},
		Source: SourceSUFRAMA, Confidence: domain.ConfidenceLegislated,
	},
	"BA": {
		Value: domain.StateIncentive{State: "BA", Program: "Desenvolve",
			Description: "Dilação do saldo devedor de ICMS para indústrias."},
		Source: SourceCONFAZ, Confidence: domain.ConfidenceLegislated,
	},
	"CE": {
		Value: domain.StateIncentive{State: "CE", Program: "FDI",
			Description: "Fundo de Desenvolvimento Industrial com diferimento de ICMS."},
		Source: SourceCONFAZ, Confidence: domain.ConfidenceLegislated,
	},
	"ES": {
		Value: domain.StateIncentive{State: "ES", Program: "Invest-ES",
			Description: "Crédito presumido de ICMS para importação e indústria."},
		Source: SourceCONFAZ, Confidence: domain.ConfidenceLegislated,
	},
	"GO": {
		Value: domain.StateIncentive{State: "GO", Program: "Produzir",
			Description: "Financiamento de parte do ICMS devido para indústrias."},
		Source: SourceCONFAZ, Confidence: domain.ConfidenceLegislated,
	},
	"PE": {
		Value: domain.StateIncentive{State: "PE", Program: "Prodepe",
			Description: "Crédito presumido de ICMS para indústria e atacado."},
		Source: SourceCONFAZ, Confidence: domain.ConfidenceLegislated,
	},
	"SC": {
		Value: domain.StateIncentive{State: "SC", Program: "TTD / Pró-Emprego",
			Description: "Tratamento tributário diferenciado de ICMS para importação e atacado."},
		Source: SourceCONFAZ, Confidence: domain.ConfidenceLegislated,
	},
}

// IncentiveProgram returns the state's notable ICMS incentive program, if any.
func IncentiveProgram(state string) (domain.CitedValue[domain.StateIncentive], bool) {
	v, ok := incentivePrograms[domain.NormalizeState(state)]
	return v, ok
}

// HasIncentiveProgram reports whether the state has a program in the registry.
func HasIncentiveProgram(state string) bool {
	_, ok := IncentiveProgram(state)
	return ok
}
