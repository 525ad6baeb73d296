package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ScenarioInfo describes an available evaluation scenario
type ScenarioInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Cases       int    `json:"cases"`
}

// EvaluationRequest runs one scenario, or all of them when Scenario is empty
type EvaluationRequest struct {
	Scenario string `json:"scenario"`
}

const evaluatedParser = "hybrid"

// ListScenarios returns the available evaluation scenarios
func (a *API) ListScenarios(c *gin.Context) {
	if a.Evaluator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Evaluation is disabled"})
		return
	}

	scenarios := a.Evaluator.GetScenarios()
	out := make([]ScenarioInfo, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, ScenarioInfo{
			ID:          s.ID,
			Name:        s.Name,
			Type:        s.Type,
			Description: s.Description,
			Cases:       len(s.Cases),
		})
	}
	c.JSON(http.StatusOK, out)
}

// Evaluate scores the NLP parser against labelled utterances
func (a *API) Evaluate(c *gin.Context) {
	if a.Evaluator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Evaluation is disabled"})
		return
	}

	var req EvaluationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if req.Scenario == "" {
		results, err := a.Evaluator.EvaluateAll(c.Request.Context(), evaluatedParser)
		if err != nil {
			a.respondError(c, err)
			return
		}
		for _, r := range results {
			a.recordEvaluation(r.Scenario, r.Metrics)
			if a.Metrics != nil {
				a.Metrics.RecordEvaluation(r)
			}
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
		return
	}

	if !a.Evaluator.HasScenario(req.Scenario) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scenario: " + req.Scenario})
		return
	}

	result, err := a.Evaluator.Evaluate(c.Request.Context(), evaluatedParser, req.Scenario)
	if err != nil {
		a.respondError(c, err)
		return
	}
	a.recordEvaluation(result.Scenario, result.Metrics)
	if a.Metrics != nil {
		a.Metrics.RecordEvaluation(result)
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) recordEvaluation(scenario string, metrics map[string]interface{}) {
	a.Monitor.RecordEvaluationResult(evaluatedParser, scenario, metrics)
}
