package tools

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

func echoCallable(name string) Callable {
	return Callable{
		Name:        name,
		Description: "Echo the text argument",
		Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
			"text": {Type: schema.ParamString},
		}, "text"),
		Execute: func(_ context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
			return args["text"], nil
		},
	}
}

func userContext(perms ...string) *schema.ExecutionContext {
	return &schema.ExecutionContext{User: &schema.User{ID: "u1", Permissions: perms}}
}

func TestValidate_Order(t *testing.T) {
	tool := Enrich(echoCallable("echo"), schema.CategoryGeneral, Metadata{
		RequiredPermissions: []string{"repo:read", "repo:write"},
		RequiredContext:     []string{schema.ContextProject, schema.ContextOrganization},
	})

	tests := []struct {
		name    string
		args    map[string]any
		ectx    *schema.ExecutionContext
		valid   bool
		missing []string
	}{
		{
			name:    "permissions reported first and in full",
			args:    map[string]any{},
			ectx:    userContext(),
			missing: []string{"repo:read", "repo:write"},
		},
		{
			name:    "then context keys",
			args:    map[string]any{},
			ectx:    &schema.ExecutionContext{User: &schema.User{Permissions: []string{"repo:read", "repo:write"}}, OrgID: "acme"},
			missing: []string{schema.ContextProject},
		},
		{
			name: "then parameters",
			args: map[string]any{"text": nil},
			ectx: &schema.ExecutionContext{
				User:      &schema.User{Permissions: []string{"repo:read", "repo:write"}},
				OrgID:     "acme",
				ProjectID: "p1",
			},
			missing: []string{"text"},
		},
		{
			name: "valid",
			args: map[string]any{"text": "hi"},
			ectx: &schema.ExecutionContext{
				User:      &schema.User{Permissions: []string{"repo:read", "repo:write"}},
				OrgID:     "acme",
				ProjectID: "p1",
			},
			valid: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tool.Validate(tt.args, tt.ectx)
			if v.Valid != tt.valid {
				t.Fatalf("expected valid=%v, got %+v", tt.valid, v)
			}
			if !reflect.DeepEqual(v.Missing, tt.missing) {
				t.Errorf("expected missing %v, got %v", tt.missing, v.Missing)
			}
		})
	}
}

func TestValidateToolExecution_NilTool(t *testing.T) {
	v := ValidateToolExecution(nil, nil, nil)
	if v.Valid || v.Error != "Tool not found" {
		t.Errorf("expected tool not found, got %+v", v)
	}
}

func TestSafeExecute_NeverPanics(t *testing.T) {
	tests := []struct {
		name    string
		handler Handler
		want    schema.Result
	}{
		{
			name: "panic with string",
			handler: func(context.Context, map[string]any, *schema.ExecutionContext) (any, error) {
				panic("kaboom")
			},
			want: schema.Result{Success: false, Error: "kaboom"},
		},
		{
			name: "panic with error",
			handler: func(context.Context, map[string]any, *schema.ExecutionContext) (any, error) {
				panic(errors.New("bad state"))
			},
			want: schema.Result{Success: false, Error: "bad state"},
		},
		{
			name: "error return",
			handler: func(context.Context, map[string]any, *schema.ExecutionContext) (any, error) {
				return nil, errors.New("remote refused")
			},
			want: schema.Result{Success: false, Error: "remote refused"},
		},
		{
			name: "raw value defaults to success",
			handler: func(context.Context, map[string]any, *schema.ExecutionContext) (any, error) {
				return 42, nil
			},
			want: schema.Result{Success: true, Data: 42},
		},
		{
			name: "map honours success and error keys",
			handler: func(context.Context, map[string]any, *schema.ExecutionContext) (any, error) {
				return map[string]any{"success": false, "error": "quota"}, nil
			},
			want: schema.Result{Success: false, Error: "quota", Data: map[string]any{"success": false, "error": "quota"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := &Tool{Definition: schema.ToolDefinition{Name: "t"}, Handler: tt.handler}
			got := tool.SafeExecute(context.Background(), map[string]any{}, nil)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestSafeExecute_ValidationSkipsHandler(t *testing.T) {
	called := false
	tool := Enrich(Callable{
		Name:       "guarded",
		Parameters: schema.NewParameterSchema(nil),
		Execute: func(context.Context, map[string]any, *schema.ExecutionContext) (any, error) {
			called = true
			return nil, nil
		},
	}, schema.CategoryGeneral, Metadata{RequiredPermissions: []string{"admin"}})

	res := tool.SafeExecute(context.Background(), nil, userContext("viewer"))
	if res.Success || res.Error != "Missing required permissions: admin" {
		t.Errorf("unexpected result %+v", res)
	}
	if called {
		t.Error("handler must not run when validation fails")
	}
}

func TestSafeExecute_NilTool(t *testing.T) {
	var tool *Tool
	if res := tool.SafeExecute(context.Background(), nil, nil); res.Success {
		t.Error("expected failure for nil tool")
	}
}

func TestEnrich_Shapes(t *testing.T) {
	fn := FunctionSchema{Type: "function", Function: schema.ToolDefinition{Name: "lookup", Description: "Look up"}}
	tool := Enrich(fn, schema.CategoryReview, Metadata{Cost: schema.CostHigh})
	if tool.Category != schema.CategoryReview || tool.Cost != schema.CostHigh {
		t.Errorf("unexpected metadata %+v", tool)
	}
	if tool.Definition.Parameters.Type != "object" {
		t.Errorf("expected object parameter schema, got %q", tool.Definition.Parameters.Type)
	}
	res := tool.SafeExecute(context.Background(), nil, nil)
	if res.Success {
		t.Error("schema-only tool should fail to execute")
	}

	if got := Enrich(nil, schema.CategoryGeneral, Metadata{}); got != nil {
		t.Errorf("expected nil for nil source, got %+v", got)
	}
	var nilTool *Tool
	if got := EnrichAll(schema.CategoryGeneral, Metadata{}, nilTool, echoCallable("a"), nil); len(got) != 1 {
		t.Errorf("expected nil entries dropped, got %d tools", len(got))
	}
}

func TestEnrich_Idempotent(t *testing.T) {
	meta := Metadata{
		RequiredPermissions: []string{"deploy"},
		RequiredContext:     []string{schema.ContextProject},
		RateLimit:           &schema.RateLimit{Requests: 5, WindowMs: 1000},
		Cost:                schema.CostMedium,
	}
	once := Enrich(echoCallable("echo"), schema.CategoryDeployment, meta)
	twice := Enrich(once, schema.CategoryGeneral, Metadata{Cost: schema.CostLow})

	if !reflect.DeepEqual(once.Definition, twice.Definition) {
		t.Errorf("definition changed: %+v vs %+v", once.Definition, twice.Definition)
	}
	if twice.Category != schema.CategoryDeployment || twice.Cost != schema.CostMedium {
		t.Errorf("metadata overwritten: %+v", twice)
	}
	if !reflect.DeepEqual(once.RequiredPermissions, twice.RequiredPermissions) {
		t.Errorf("permissions changed: %v vs %v", once.RequiredPermissions, twice.RequiredPermissions)
	}

	twice.RequiredPermissions[0] = "mutated"
	twice.RateLimit.Requests = 99
	if once.RequiredPermissions[0] != "deploy" || once.RateLimit.Requests != 5 {
		t.Error("enriched copy shares state with its source")
	}
}

func TestEnrich_Defaults(t *testing.T) {
	tool := Enrich(echoCallable("echo"), "", Metadata{})
	if tool.Category != schema.CategoryGeneral || tool.Cost != schema.CostLow {
		t.Errorf("expected general/low defaults, got %s/%s", tool.Category, tool.Cost)
	}
}
