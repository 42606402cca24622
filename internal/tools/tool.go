package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Handler is a tool's implementation. It may return an error or panic;
// SafeExecute turns both into a failed schema.Result.
type Handler func(ctx context.Context, args map[string]any, ectx *schema.ExecutionContext) (any, error)

// Tool is the canonical catalogue entry every tool shape is normalised into.
// Fields are set once by Enrich or a constructor and not changed afterwards.
type Tool struct {
	Definition          schema.ToolDefinition
	Category            schema.Category
	RequiredPermissions []string
	RequiredContext     []string
	RateLimit           *schema.RateLimit
	Cost                schema.Cost
	Async               bool
	Handler             Handler
}

func (t *Tool) Name() string        { return t.Definition.Name }
func (t *Tool) Description() string { return t.Definition.Description }

// Validate checks permissions, then context keys, then required parameters.
// It stops at the first failing category and reports every missing item in it.
func (t *Tool) Validate(args map[string]any, ectx *schema.ExecutionContext) schema.Validation {
	if missing := missingPermissions(t.RequiredPermissions, ectx); len(missing) > 0 {
		return invalid("permissions", missing)
	}
	if missing := missingContext(t.RequiredContext, ectx); len(missing) > 0 {
		return invalid("context", missing)
	}
	if missing := missingParameters(t.Definition.Parameters.Required, args); len(missing) > 0 {
		return invalid("parameters", missing)
	}
	return schema.Validation{Valid: true}
}

// Execute runs the tool body without validation or recovery.
// Callers outside this package should use SafeExecute.
func (t *Tool) Execute(ctx context.Context, args map[string]any, ectx *schema.ExecutionContext) (any, error) {
	if t.Handler == nil {
		return nil, errs.Newf(errs.CodeExecution, "tool %q has no implementation", t.Name())
	}
	return t.Handler(ctx, args, ectx)
}

// SafeExecute validates and executes the tool. It never panics and never
// returns an error: every failure comes back as Result{Success:false}.
func (t *Tool) SafeExecute(ctx context.Context, args map[string]any, ectx *schema.ExecutionContext) (res schema.Result) {
	if t == nil {
		return schema.Failure("tool not found")
	}
	if v := t.Validate(args, ectx); !v.Valid {
		return schema.Failure(v.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Tool panicked", "name", t.Name(), "panic", r)
			res = schema.Failure(panicMessage(r))
		}
	}()

	out, err := t.Execute(ctx, args, ectx)
	if err != nil {
		slog.Error("Tool execution failed", "name", t.Name(), "err", err)
		return schema.Failure(err.Error())
	}
	return normalizeOutcome(out)
}

// normalizeOutcome maps whatever a handler returned onto a Result.
// Outcomes without an explicit success flag count as successful.
func normalizeOutcome(out any) schema.Result {
	switch v := out.(type) {
	case schema.Result:
		return v
	case *schema.Result:
		if v == nil {
			return schema.Result{Success: true}
		}
		return *v
	case map[string]any:
		res := schema.Result{Success: true, Data: v}
		if ok, present := v["success"].(bool); present {
			res.Success = ok
		}
		if msg, present := v["error"].(string); present {
			res.Error = msg
		}
		return res
	}
	return schema.Result{Success: true, Data: out}
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	}
	return fmt.Sprint(r)
}

// clone returns a deep-enough copy: slices and the rate limit are not shared.
func (t *Tool) clone() *Tool {
	out := *t
	out.RequiredPermissions = append([]string(nil), t.RequiredPermissions...)
	out.RequiredContext = append([]string(nil), t.RequiredContext...)
	out.Definition.Parameters = cloneParameters(t.Definition.Parameters)
	if t.RateLimit != nil {
		rl := *t.RateLimit
		out.RateLimit = &rl
	}
	return &out
}

func cloneParameters(p schema.ParameterSchema) schema.ParameterSchema {
	props := make(map[string]schema.Parameter, len(p.Properties))
	for k, v := range p.Properties {
		v.Enum = append([]string(nil), v.Enum...)
		props[k] = v
	}
	typ := p.Type
	if typ == "" {
		typ = "object"
	}
	return schema.ParameterSchema{
		Type:       typ,
		Properties: props,
		Required:   append([]string(nil), p.Required...),
	}
}
