package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/tools"
)

// scriptedProvider returns its responses in order and records what it saw.
type scriptedProvider struct {
	responses []schema.LLMResponse
	seen      []schema.Messages
	tools     [][]schema.ToolSpec
}

func (p *scriptedProvider) Chat(_ context.Context, msgs schema.Messages, specs []schema.ToolSpec, _ schema.ChatOptions) (schema.LLMResponse, error) {
	p.seen = append(p.seen, schema.NewMessages(msgs.Messages...))
	p.tools = append(p.tools, specs)
	if len(p.responses) == 0 {
		return schema.LLMResponse{}, errors.New("script exhausted")
	}
	r := p.responses[0]
	p.responses = p.responses[1:]
	return r, nil
}

func echoTool() *tools.Tool {
	return &tools.Tool{
		Definition: schema.ToolDefinition{
			Name:       "echo",
			Parameters: schema.NewParameterSchema(map[string]schema.Parameter{"text": {Type: schema.ParamString}}, "text"),
		},
		Handler: func(_ context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
			return args["text"], nil
		},
	}
}

func TestLoopRunner_ToolRoundTrip(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{
		{ToolCalls: []schema.ToolCall{{ID: "c1", Name: "echo", Arguments: map[string]any{"text": "hi"}}}},
		{Content: "<think>hmm</think>all done"},
	}}
	r := NewLoopRunner(p, LoopSettings{MaxIter: 3})

	out, err := r.Run(context.Background(), Assignment{
		AgentID:   "a1",
		Archetype: Archetype{Type: schema.AgentGeneralAssistant},
		Task:      "say hi",
		Tools:     tools.NewToolList(echoTool()),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "all done" {
		t.Errorf("expected %q, got %v", "all done", out)
	}
	if len(p.tools[0]) != 1 || p.tools[0][0].Function.Name != "echo" {
		t.Errorf("expected echo definition, got %+v", p.tools[0])
	}

	// Second request carries the assistant turn and the tool result.
	second := p.seen[1].Messages
	last := second[len(second)-1]
	if last.Role != "tool" || last.ToolCallID != "c1" {
		t.Fatalf("expected tool result message, got %+v", last)
	}
	var res schema.Result
	if err := json.Unmarshal([]byte(last.Content), &res); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	if !res.Success || res.Data != "hi" {
		t.Errorf("unexpected tool result: %+v", res)
	}
}

func TestLoopRunner_MaxIterations(t *testing.T) {
	call := schema.LLMResponse{ToolCalls: []schema.ToolCall{{ID: "c", Name: "missing"}}}
	p := &scriptedProvider{responses: []schema.LLMResponse{call, call}}
	_, err := NewLoopRunner(p, LoopSettings{MaxIter: 2}).Run(context.Background(), Assignment{Task: "loop"})
	if errs.CodeOf(err) != errs.CodeExecution {
		t.Errorf("expected execution error, got %v", err)
	}
}

func TestLoopRunner_DependencyResultInBriefing(t *testing.T) {
	p := &scriptedProvider{responses: []schema.LLMResponse{{Content: "ok"}}}
	ectx := (&schema.ExecutionContext{}).With(schema.ContextDependencyResult, "generated code")
	if _, err := NewLoopRunner(p, LoopSettings{}).Run(context.Background(), Assignment{Task: "review", Context: ectx}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user := p.seen[0].Messages[1]
	if !strings.Contains(user.Content, "generated code") {
		t.Errorf("expected dependency result in briefing, got %q", user.Content)
	}
}

func TestLoopRunner_NoProvider(t *testing.T) {
	_, err := NewLoopRunner(nil, LoopSettings{}).Run(context.Background(), Assignment{})
	if !errors.Is(err, errs.ErrUnavailableCollaborator) {
		t.Errorf("expected unavailable collaborator, got %v", err)
	}
}

func TestHTTPRunner_Run(t *testing.T) {
	var got runRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/agents/run" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(runResponse{Success: true, Result: "shipped"})
	}))
	defer srv.Close()

	r := NewHTTPRunner(srv.URL+"/", "secret", 0)
	out, err := r.Run(context.Background(), Assignment{
		AgentID:   "a9",
		Archetype: Archetype{Type: schema.AgentDeploymentManager},
		Task:      "deploy",
		Context:   &schema.ExecutionContext{ProjectID: "p1"},
		Tools:     tools.NewToolList(echoTool()),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "shipped" {
		t.Errorf("expected shipped, got %v", out)
	}
	if got.AgentID != "a9" || got.AgentType != schema.AgentDeploymentManager || got.ProjectID != "p1" {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(got.Tools) != 1 {
		t.Errorf("expected 1 tool definition, got %d", len(got.Tools))
	}
}

func TestHTTPRunner_WorkerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(runResponse{Success: false, Error: "no capacity"})
	}))
	defer srv.Close()

	_, err := NewHTTPRunner(srv.URL, "", 0).Run(context.Background(), Assignment{Task: "x"})
	if err == nil || !strings.Contains(err.Error(), "no capacity") {
		t.Errorf("expected worker error, got %v", err)
	}
}

func TestHTTPRunner_NoEndpoint(t *testing.T) {
	_, err := NewHTTPRunner("", "", 0).Run(context.Background(), Assignment{})
	if !errors.Is(err, errs.ErrUnavailableCollaborator) {
		t.Errorf("expected unavailable collaborator, got %v", err)
	}
}
