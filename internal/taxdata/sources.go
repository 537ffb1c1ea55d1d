package taxdata

// Citations shared by the registry tables.
const (
	SourceEC132          = "EC 132/2023 (Reforma Tributária do consumo)"
	SourceLC214          = "LC 214/2025 (regulamentação do IBS, CBS e Imposto Seletivo)"
	SourceLC214Reduced60 = "LC 214/2025, arts. 128 a 138 (redução de 60% das alíquotas)"
	SourceLC214Simples   = "LC 214/2025, arts. 41 e 47 (Simples Nacional e crédito ao adquirente)"
	SourceLC214Finance   = "LC 214/2025, arts. 181 a 233 (regimes específicos de serviços financeiros)"
	SourceLC214Property  = "LC 214/2025, arts. 251 a 270 (operações com bens imóveis)"
	SourceLC123          = "LC 123/2006 (Simples Nacional), Anexos I a V"
	SourceLC123Brackets  = "LC 123/2006, art. 3º (limites de receita bruta)"
	SourceLC128MEI       = "LC 128/2008 (Microempreendedor Individual)"
	SourcePresumed       = "Lei 9.718/1998 e LC 116/2003 (PIS/COFINS cumulativos e ISS)"
	SourceRealProfit     = "Leis 10.637/2002 e 10.833/2003 (PIS/COFINS não cumulativos)"
	SourceICMS           = "LC 87/1996 (Lei Kandir) e regulamentos estaduais de ICMS"
	SourceFazendaRate    = "Ministério da Fazenda, nota técnica da alíquota de referência (2024)"
	SourceTaxGap         = "Receita Federal, estimativas de gap tributário por setor"
	SourceCONFAZ         = "LC 160/2017 e convênios CONFAZ (convalidação de benefícios de ICMS)"
	SourceSUFRAMA        = "Decreto-Lei 288/1967 e EC 132/2023, art. 92-B ADCT (Zona Franca de Manaus)"
)
