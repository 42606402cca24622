// Package schema holds the data model and collaborator contracts shared
// across the orchestrator packages. It has no dependencies on the rest of
// the module so every package can import it without cycles.
package schema

// ParamType is the JSON Schema type of a single tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
	ParamObject  ParamType = "object"
	ParamArray   ParamType = "array"
)

// Parameter describes one named argument of a tool.
type Parameter struct {
	Type        ParamType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// ParameterSchema is the object schema of a tool's arguments.
type ParameterSchema struct {
	Type       string               `json:"type" yaml:"type"`
	Properties map[string]Parameter `json:"properties" yaml:"properties"`
	Required   []string             `json:"required,omitempty" yaml:"required,omitempty"`
}

// NewParameterSchema returns an object schema over props with the given
// required parameter names.
func NewParameterSchema(props map[string]Parameter, required ...string) ParameterSchema {
	if props == nil {
		props = map[string]Parameter{}
	}
	return ParameterSchema{Type: "object", Properties: props, Required: required}
}

// ToolDefinition is the model-facing description of a tool.
// It is immutable once the tool is registered.
type ToolDefinition struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Parameters  ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ToolSpec is a definition in OpenAI function-calling format:
// {"type":"function","function":{...}}.
type ToolSpec struct {
	Type     string         `json:"type"`
	Function ToolDefinition `json:"function"`
}

// Category names a bucket of tools an archetype may declare as a capability.
type Category string

const (
	CategoryAgents     Category = "agents"
	CategoryCode       Category = "code"
	CategoryReview     Category = "review"
	CategoryDeployment Category = "deployment"
	CategoryWeb        Category = "web"
	CategoryProject    Category = "project"
	CategoryGeneral    Category = "general"
)

// Cost is the coarse execution cost of a tool.
type Cost string

const (
	CostLow    Cost = "low"
	CostMedium Cost = "medium"
	CostHigh   Cost = "high"
)

// RateLimit is an optional call quota declared by a tool.
type RateLimit struct {
	Requests int   `json:"requests" yaml:"requests"`
	WindowMs int64 `json:"windowMs" yaml:"windowMs"`
}

// Result is the normalised outcome of a tool call.
type Result struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Failure returns an unsuccessful Result carrying msg.
func Failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Validation is the outcome of a pre-execution check.
// Missing lists every absent item of the first failing category.
type Validation struct {
	Valid   bool     `json:"valid"`
	Error   string   `json:"error,omitempty"`
	Missing []string `json:"missing,omitempty"`
}
