package schema

import "time"

// WorkflowTask is one step of a custom workflow. DependsOn names the Agent of
// an earlier task in the same run.
type WorkflowTask struct {
	Agent     AgentType `json:"agent" yaml:"agent"`
	Task      string    `json:"task" yaml:"task"`
	DependsOn AgentType `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// TaskOutcome is the recorded result of one workflow task.
type TaskOutcome struct {
	Agent    AgentType     `json:"agent"`
	Task     string        `json:"task"`
	Success  bool          `json:"success"`
	Result   any           `json:"result,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// WorkflowRunResult aggregates the outcomes of one workflow run.
// Success is the AND of every task, Duration their sum.
type WorkflowRunResult struct {
	Success    bool          `json:"success"`
	WorkflowID string        `json:"workflowId,omitempty"`
	Tasks      []TaskOutcome `json:"tasks"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// WorkflowExecution is what an Orchestrator reports for a named workflow.
type WorkflowExecution struct {
	Success    bool          `json:"success"`
	WorkflowID string        `json:"workflowId"`
	Steps      []TaskOutcome `json:"steps"`
	Duration   time.Duration `json:"duration"`
}
