package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"reforma/config"
	"reforma/internal/domain"
	"reforma/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(config.DefaultConfig().Server, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d", resp.StatusCode)
	}
}

func TestHandleSimulate(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/api/v1/simulations",
		`{"sector":"servicos","regime":"lucro_presumido","revenueBracket":"360k_4.8m","state":"sp"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}

	var out simulationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	in := domain.Profile{Sector: "servicos", Regime: "lucro_presumido", RevenueBracket: "360k_4.8m", State: "sp"}.ToInput()
	want := usecase.Calculate(in)
	if out.Input.State != "SP" || out.Input.Sector != domain.SectorServices {
		t.Errorf("input not normalized: %+v", out.Input)
	}
	if out.Result.RiskLevel != want.RiskLevel {
		t.Errorf("risk: got %s, want %s", out.Result.RiskLevel, want.RiskLevel)
	}
	if !out.Result.Impact.Percentual.Equal(want.Impact.Percentual) {
		t.Errorf("percentual: got %s, want %s", out.Result.Impact.Percentual, want.Impact.Percentual)
	}
	if out.Teaser != usecase.GenerateTeaser(want, in) {
		t.Errorf("teaser: got %+v", out.Teaser)
	}
}

func TestHandleSimulateBadBody(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/api/v1/simulations", `{"sector":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d", resp.StatusCode)
	}
	var out map[string]string
	json.NewDecoder(resp.Body).Decode(&out)
	if out["error"] == "" {
		t.Error("expected error message")
	}
}

func TestHandleMistakes(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/api/v1/mistakes",
		`{"profile":{"sector":"servicos","regime":"simples_nacional","b2bPercent":80},"maxItems":2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	var out mistakesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Mistakes) == 0 || len(out.Mistakes) > 2 {
		t.Fatalf("expected 1-2 mistakes, got %d", len(out.Mistakes))
	}
	if !strings.HasPrefix(out.Prompt, "ERROS COMUNS PARA ESTE PERFIL:") {
		t.Errorf("unexpected prompt %q", out.Prompt)
	}
}

func TestHandleMistakesMaxItems(t *testing.T) {
	ts := newTestServer(t)
	count := func(body string) int {
		t.Helper()
		resp := post(t, ts, "/api/v1/mistakes", body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status: got %d", resp.StatusCode)
		}
		var out mistakesResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		return len(out.Mistakes)
	}

	const profile = `"profile":{"sector":"servicos","regime":"lucro_presumido","b2bPercent":80}`
	if n := count(`{` + profile + `}`); n == 0 || n > usecase.DefaultMaxMistakes {
		t.Errorf("omitted maxItems should default to at most %d, got %d", usecase.DefaultMaxMistakes, n)
	}
	if n := count(`{` + profile + `,"maxItems":0}`); n != 0 {
		t.Errorf("maxItems 0 should return none, got %d", n)
	}
}

func TestHandleSteps(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/api/v1/steps",
		`{"answers":{"sector":"tecnologia","state":"AM","revenueBracket":"4.8m_78m"},"currentIndex":2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	var out struct {
		Steps []struct {
			ID string `json:"id"`
		} `json:"steps"`
		Progress usecase.StepProgress `json:"progress"`
		Insights []usecase.Insight    `json:"insights"`
		Profile  domain.Profile       `json:"profile"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}

	answers := usecase.Answers{"sector": "tecnologia", "state": "AM", "revenueBracket": "4.8m_78m"}
	want := usecase.GetActiveSteps(answers)
	if len(out.Steps) != len(want) {
		t.Fatalf("steps: got %d, want %d", len(out.Steps), len(want))
	}
	for i := range want {
		if out.Steps[i].ID != want[i].ID {
			t.Errorf("step %d: got %s, want %s", i, out.Steps[i].ID, want[i].ID)
		}
	}
	if out.Progress.Current != 3 || out.Progress.Total != len(want) {
		t.Errorf("unexpected progress %+v", out.Progress)
	}
	if len(out.Insights) != 3 {
		t.Errorf("expected one insight per answered step, got %d", len(out.Insights))
	}
	if out.Profile.Sector != "tecnologia" {
		t.Errorf("profile not derived: %+v", out.Profile)
	}
}

func TestHandleStepsEmptyAnswers(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/api/v1/steps", `{}`)
	var out stepsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Steps) != len(usecase.GetActiveSteps(usecase.Answers{})) || out.Insights == nil {
		t.Errorf("unexpected response %+v", out)
	}
}

func TestHandleStepsNonFiniteRevenue(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/api/v1/steps", `{"answers":{"sector":"saude","exactRevenue":"Inf"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	var out stepsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if out.Profile.ExactRevenue != nil {
		t.Errorf("non-finite revenue should be dropped, got %v", *out.Profile.ExactRevenue)
	}
}
