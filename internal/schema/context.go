package schema

import "slices"

// Well-known context keys understood by ExecutionContext.Has.
const (
	ContextUser             = "user"
	ContextOrganization     = "organization"
	ContextProject          = "project"
	ContextOrchestrator     = "orchestrator"
	ContextCallbackURL      = "callbackUrl"
	ContextDependencyResult = "dependencyResult"
	ContextAgentID          = "agentId"
	ContextParentAgentID    = "parentAgentId"
	ContextWorkflowInput    = "workflowInput"
)

// ContextAssignedAgentID carries an id reserved by an async spawn. The
// orchestrator consumes it once; it never reaches the sub-agent's tools.
const ContextAssignedAgentID = "assignedAgentId"

// User is the authenticated caller.
type User struct {
	ID          string   `json:"id"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission reports whether p is in the user's permission set.
func (u *User) HasPermission(p string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Permissions, p)
}

// ExecutionContext carries ambient per-call data through tool and sub-agent
// invocations. It is supplied fresh by the caller and never owned by a tool;
// anything that needs to add keys works on a copy (see With).
type ExecutionContext struct {
	User         *User
	OrgID        string
	ProjectID    string
	Orchestrator Orchestrator
	Values       map[string]any
}

// Permissions returns the caller's permission set, or nil without a user.
func (c *ExecutionContext) Permissions() []string {
	if c == nil || c.User == nil {
		return nil
	}
	return c.User.Permissions
}

// Has reports whether key is present and truthy.
func (c *ExecutionContext) Has(key string) bool {
	if c == nil {
		return false
	}
	switch key {
	case ContextUser:
		return c.User != nil
	case ContextOrganization:
		return c.OrgID != ""
	case ContextProject:
		return c.ProjectID != ""
	case ContextOrchestrator:
		return c.Orchestrator != nil
	}
	return truthy(c.Values[key])
}

// Value returns the extra value stored under key.
func (c *ExecutionContext) Value(key string) any {
	if c == nil {
		return nil
	}
	return c.Values[key]
}

// String returns the extra value under key if it is a string.
func (c *ExecutionContext) String(key string) string {
	s, _ := c.Value(key).(string)
	return s
}

// Clone returns a shallow copy with an independent Values map.
// A nil receiver clones to an empty context.
func (c *ExecutionContext) Clone() *ExecutionContext {
	if c == nil {
		return &ExecutionContext{Values: map[string]any{}}
	}
	out := *c
	out.Values = make(map[string]any, len(c.Values)+1)
	for k, v := range c.Values {
		out.Values[k] = v
	}
	return &out
}

// With returns a copy of c with key set to v.
func (c *ExecutionContext) With(key string, v any) *ExecutionContext {
	out := c.Clone()
	out.Values[key] = v
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return true
}
