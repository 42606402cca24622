package agent

import (
	"testing"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

func TestSelector_Classify(t *testing.T) {
	tests := []struct {
		task       string
		agent      schema.AgentType
		confidence float64
	}{
		{"please implement a login form", schema.AgentCodeGenerator, 0.8},
		{"please review this pull request", schema.AgentCodeReviewer, 0.8},
		{"deploy to production", schema.AgentDeploymentManager, 0.9},
		{"what time is it", schema.AgentGeneralAssistant, 0.5},
		{"AUDIT the payment module", schema.AgentCodeReviewer, 0.8},
		// generation bucket wins over review and deployment
		{"build and deploy after review", schema.AgentCodeGenerator, 0.8},
		{"", schema.AgentGeneralAssistant, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			got := Selector{}.Classify(tt.task)
			if got.RecommendedAgent != tt.agent {
				t.Errorf("expected %s, got %s", tt.agent, got.RecommendedAgent)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("expected confidence %v, got %v", tt.confidence, got.Confidence)
			}
			if got.Reasoning == "" {
				t.Error("expected reasoning")
			}
		})
	}
}
