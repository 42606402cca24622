package schema

import (
	"context"
	"time"
)

// Orchestrator is the collaborator that actually runs sub-agents. The spawner
// and the workflow coordinator find it on ExecutionContext.Orchestrator.
// Implemented by runtime.Runtime. Defined here to avoid an import cycle.
type Orchestrator interface {
	SpawnSubAgent(ctx context.Context, agentType AgentType, task string, ectx *ExecutionContext) (SpawnResult, error)
	GenerateAgentID() string
	ExecuteWorkflow(ctx context.Context, name string, ectx *ExecutionContext) (WorkflowExecution, error)
	ActiveSubAgents() []AgentHandle
	ExecutionHistory(ctx context.Context, since time.Time) ([]HistoryEntry, error)
}

// Spawner is what the spawn tool uses to start sub-agents.
// Implemented by agent.Spawner.
type Spawner interface {
	Spawn(ctx context.Context, req SpawnRequest) SpawnResult
}

// Classifier maps a free-text task to an archetype.
// Implemented by agent.Selector.
type Classifier interface {
	Classify(task string) Recommendation
}
