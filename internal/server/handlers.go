package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"reforma/internal/domain"
	"reforma/internal/usecase"
)

const maxBodyBytes = 1 << 20

type simulationResponse struct {
	Input  domain.SimulatorInput  `json:"input"`
	Result domain.SimulatorResult `json:"result"`
	Teaser domain.Teaser          `json:"teaser"`
}

type mistakesRequest struct {
	Profile  domain.Profile `json:"profile"`
	MaxItems *int           `json:"maxItems,omitempty"`
}

type mistakesResponse struct {
	Mistakes []usecase.CommonMistake `json:"mistakes"`
	Prompt   string                  `json:"prompt"`
}

type stepsRequest struct {
	Answers      usecase.Answers `json:"answers"`
	CurrentIndex int             `json:"currentIndex"`
}

type stepsResponse struct {
	Steps    []usecase.StepDefinition `json:"steps"`
	Progress usecase.StepProgress     `json:"progress"`
	Insights []usecase.Insight        `json:"insights"`
	Profile  domain.Profile           `json:"profile"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var profile domain.Profile
	if !s.decode(w, r, &profile) {
		return
	}
	in := profile.ToInput()
	result := usecase.Calculate(in)
	s.logger.Debug("simulation",
		zap.String("sector", string(in.Sector)),
		zap.String("regime", string(in.Regime)),
		zap.String("risk", string(result.RiskLevel)),
	)
	s.respondJSON(w, http.StatusOK, simulationResponse{
		Input:  in,
		Result: result,
		Teaser: usecase.GenerateTeaser(result, in),
	})
}

func (s *Server) handleMistakes(w http.ResponseWriter, r *http.Request) {
	var req mistakesRequest
	if !s.decode(w, r, &req) {
		return
	}
	in := req.Profile.ToInput()
	maxItems := usecase.DefaultMaxMistakes
	if req.MaxItems != nil {
		maxItems = *req.MaxItems
	}
	mistakes := usecase.GetCommonMistakes(in, usecase.Calculate(in), maxItems)
	if mistakes == nil {
		mistakes = []usecase.CommonMistake{}
	}
	s.respondJSON(w, http.StatusOK, mistakesResponse{
		Mistakes: mistakes,
		Prompt:   usecase.FormatMistakesForPrompt(mistakes),
	})
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	var req stepsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Answers == nil {
		req.Answers = usecase.Answers{}
	}
	steps := usecase.GetActiveSteps(req.Answers)
	insights := usecase.GetInsights(steps, req.Answers)
	if insights == nil {
		insights = []usecase.Insight{}
	}
	s.respondJSON(w, http.StatusOK, stepsResponse{
		Steps:    steps,
		Progress: usecase.GetStepProgress(steps, req.CurrentIndex),
		Insights: insights,
		Profile:  usecase.ProfileFromAnswers(req.Answers),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
