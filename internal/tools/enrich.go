package tools

import (
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Source is one of the tool shapes Enrich accepts:
//   - *Tool: already canonical
//   - FunctionSchema: {"type":"function","function":{...}}, schema only
//   - Callable: {name, description, parameters, execute}
type Source interface {
	source()
}

// FunctionSchema is a function-calling definition without an implementation.
type FunctionSchema struct {
	Type     string                `json:"type" yaml:"type"`
	Function schema.ToolDefinition `json:"function" yaml:"function"`
}

// Callable is a directly invokable tool definition.
type Callable struct {
	Name        string
	Description string
	Parameters  schema.ParameterSchema
	Execute     Handler
}

func (*Tool) source()          {}
func (FunctionSchema) source() {}
func (Callable) source()       {}

// Metadata is the catalogue information attached to a tool at registration.
type Metadata struct {
	RequiredPermissions []string
	RequiredContext     []string
	RateLimit           *schema.RateLimit
	Cost                schema.Cost
	Async               bool
}

// Enrich normalises src into a canonical Tool. A nil src yields nil.
//
// An already canonical Tool is copied and only its empty fields are filled
// from category and meta, so enriching twice gives the same definition,
// category and permissions.
func Enrich(src Source, category schema.Category, meta Metadata) *Tool {
	var t *Tool
	switch s := src.(type) {
	case nil:
		return nil
	case *Tool:
		if s == nil {
			return nil
		}
		t = s.clone()
		fillMetadata(t, category, meta)
		return t
	case FunctionSchema:
		t = &Tool{Definition: s.Function}
	case *FunctionSchema:
		if s == nil {
			return nil
		}
		t = &Tool{Definition: s.Function}
	case Callable:
		t = fromCallable(s)
	case *Callable:
		if s == nil {
			return nil
		}
		t = fromCallable(*s)
	default:
		return nil
	}

	t.Category = category
	t.RequiredPermissions = meta.RequiredPermissions
	t.RequiredContext = meta.RequiredContext
	t.RateLimit = meta.RateLimit
	t.Cost = meta.Cost
	t.Async = meta.Async
	fillMetadata(t, "", Metadata{})
	return t.clone()
}

// EnrichAll enriches every non-nil source into category with shared meta.
// Nil entries are dropped silently so callers can leave undeclared slots.
func EnrichAll(category schema.Category, meta Metadata, srcs ...Source) []*Tool {
	out := make([]*Tool, 0, len(srcs))
	for _, src := range srcs {
		if t := Enrich(src, category, meta); t != nil {
			out = append(out, t)
		}
	}
	return out
}

func fromCallable(c Callable) *Tool {
	return &Tool{
		Definition: schema.ToolDefinition{
			Name:        c.Name,
			Description: c.Description,
			Parameters:  c.Parameters,
		},
		Handler: c.Execute,
	}
}

func fillMetadata(t *Tool, category schema.Category, meta Metadata) {
	if t.Category == "" {
		t.Category = category
	}
	if t.Category == "" {
		t.Category = schema.CategoryGeneral
	}
	if len(t.RequiredPermissions) == 0 {
		t.RequiredPermissions = append([]string(nil), meta.RequiredPermissions...)
	}
	if len(t.RequiredContext) == 0 {
		t.RequiredContext = append([]string(nil), meta.RequiredContext...)
	}
	if t.RateLimit == nil && meta.RateLimit != nil {
		rl := *meta.RateLimit
		t.RateLimit = &rl
	}
	if t.Cost == "" {
		t.Cost = meta.Cost
	}
	if t.Cost == "" {
		t.Cost = schema.CostLow
	}
	t.Async = t.Async || meta.Async
}
