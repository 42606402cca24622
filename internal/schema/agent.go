package schema

import "time"

// AgentType names a specialist sub-agent archetype.
// The set is open: catalogues may declare additional types.
type AgentType string

const (
	AgentCodeGenerator       AgentType = "CODE_GENERATOR"
	AgentCodeReviewer        AgentType = "CODE_REVIEWER"
	AgentDeploymentManager   AgentType = "DEPLOYMENT_MANAGER"
	AgentTestEngineer        AgentType = "TEST_ENGINEER"
	AgentDocumentationWriter AgentType = "DOCUMENTATION_WRITER"
	AgentResearcher          AgentType = "RESEARCHER"
	AgentGeneralAssistant    AgentType = "GENERAL_ASSISTANT"
)

// ReturnMode selects how a spawn call reports back to its caller.
type ReturnMode string

const (
	ReturnWait     ReturnMode = "wait"
	ReturnAsync    ReturnMode = "async"
	ReturnCallback ReturnMode = "callback"
)

// Agent run states reported in SpawnResult.Status and AgentHandle.Status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// SpawnRequest asks for one sub-agent to perform one task.
// An empty ReturnTo means ReturnWait.
type SpawnRequest struct {
	AgentType AgentType         `json:"agentType"`
	Task      string            `json:"task"`
	Context   *ExecutionContext `json:"-"`
	ReturnTo  ReturnMode        `json:"returnTo,omitempty"`
}

// SpawnResult is the per-invocation outcome of a spawn. It is not persisted
// by the spawner itself.
type SpawnResult struct {
	Success  bool          `json:"success"`
	AgentID  string        `json:"agentId,omitempty"`
	Result   any           `json:"result,omitempty"`
	Duration time.Duration `json:"duration"`
	Status   string        `json:"status,omitempty"`
	Error    string        `json:"error,omitempty"`
	// ErrorCode classifies Error when the spawner itself rejected the
	// request, e.g. MISSING_CALLBACK_TARGET.
	ErrorCode string `json:"errorCode,omitempty"`
}

// AgentHandle describes a sub-agent that is currently running.
type AgentHandle struct {
	AgentID   string    `json:"agentId"`
	ParentID  string    `json:"parentId,omitempty"`
	AgentType AgentType `json:"agentType"`
	Task      string    `json:"task"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
}

// HistoryEntry records one finished sub-agent run.
type HistoryEntry struct {
	AgentID   string        `json:"agentId"`
	ParentID  string        `json:"parentId,omitempty"`
	AgentType AgentType     `json:"agentType"`
	Task      string        `json:"task"`
	Success   bool          `json:"success"`
	Result    any           `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Recommendation is the delegation selector's answer for a task description.
type Recommendation struct {
	RecommendedAgent AgentType `json:"recommendedAgent"`
	Confidence       float64   `json:"confidence"`
	Reasoning        string    `json:"reasoning"`
}
