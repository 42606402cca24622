package agent

import (
	"fmt"
	"strings"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

type rule struct {
	keywords   []string
	agent      schema.AgentType
	confidence float64
	summary    string
}

// Buckets are evaluated in order; the first bucket with a matching keyword
// wins.
var rules = []rule{
	{
		keywords:   []string{"generate", "create", "implement", "build"},
		agent:      schema.AgentCodeGenerator,
		confidence: 0.8,
		summary:    "the task asks for new code to be written",
	},
	{
		keywords:   []string{"review", "analyze", "check", "audit"},
		agent:      schema.AgentCodeReviewer,
		confidence: 0.8,
		summary:    "the task asks for existing work to be examined",
	},
	{
		keywords:   []string{"deploy", "release", "publish"},
		agent:      schema.AgentDeploymentManager,
		confidence: 0.9,
		summary:    "the task is about shipping a change",
	},
}

const fallbackConfidence = 0.5

// Selector recommends an archetype for a free-text task by keyword matching.
type Selector struct{}

var _ schema.Classifier = Selector{}

// Classify returns the recommendation for task. Matching is a
// case-insensitive substring test.
func (Selector) Classify(task string) schema.Recommendation {
	text := strings.ToLower(task)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return schema.Recommendation{
					RecommendedAgent: r.agent,
					Confidence:       r.confidence,
					Reasoning:        fmt.Sprintf("Matched keyword %q: %s.", kw, r.summary),
				}
			}
		}
	}
	return schema.Recommendation{
		RecommendedAgent: schema.AgentGeneralAssistant,
		Confidence:       fallbackConfidence,
		Reasoning:        "No specialist keywords matched; using the general assistant.",
	}
}
