package cli

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"reforma/internal/domain"
)

func TestProfileFlagsOnlySetsChangedOptionals(t *testing.T) {
	var pf profileFlags
	cmd := &cobra.Command{Use: "test"}
	pf.bind(cmd)
	if err := cmd.ParseFlags([]string{"--sector", "saude", "--regime", "lucro_real", "--b2b", "0"}); err != nil {
		t.Fatal(err)
	}

	p := pf.profile(cmd)
	if p.Sector != "saude" || p.Regime != "lucro_real" {
		t.Errorf("unexpected profile %+v", p)
	}
	if p.B2BPercent == nil || *p.B2BPercent != 0 {
		t.Error("explicit --b2b 0 should be kept")
	}
	if p.ExactRevenue != nil || p.PayrollRatio != nil || p.HasStateIncentive != nil || p.ExportsServices != nil {
		t.Errorf("flags not given should stay unset: %+v", p)
	}
}

func TestRenderPrompt(t *testing.T) {
	profile := domain.Profile{
		Sector:         "servicos",
		Regime:         "lucro_presumido",
		RevenueBracket: "360k_4.8m",
		State:          "sp",
	}
	out, err := renderPrompt(profile, "Vou pagar mais imposto?", 2)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"PERFIL DA EMPRESA:",
		"- Regime: Lucro Presumido",
		"- Estado: SP",
		"Faturamento considerado: R$ 1.500.000",
		"ERROS COMUNS PARA ESTE PERFIL:",
		"PERGUNTA DO USUÁRIO:\nVou pagar mais imposto?",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\n3. [") {
		t.Error("expected at most 2 mistakes")
	}
}

func TestRenderPromptWithoutQuestion(t *testing.T) {
	out, err := renderPrompt(domain.Profile{}, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "PERGUNTA DO USUÁRIO") {
		t.Error("empty question should be omitted")
	}
	if strings.Contains(out, "- Estado:") {
		t.Error("unknown state should be omitted")
	}
}
