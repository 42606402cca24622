package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/shared/llmutils"
)

// HTTPRunner hands assignments to a remote agent worker. The worker receives
// the task, the upstream result and the tool definitions it may request, and
// answers with a single result.
type HTTPRunner struct {
	endpoint string
	token    string
	client   *http.Client
}

var _ Runner = (*HTTPRunner)(nil)

// NewHTTPRunner posts to endpoint + "/v1/agents/run". A zero timeout means
// none; sub-agent runs are not bounded by the orchestrator.
func NewHTTPRunner(endpoint, token string, timeout time.Duration) *HTTPRunner {
	return &HTTPRunner{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

type runRequest struct {
	AgentID          string            `json:"agentId"`
	AgentType        schema.AgentType  `json:"agentType"`
	Task             string            `json:"task"`
	Prompt           string            `json:"prompt,omitempty"`
	DependencyResult any               `json:"dependencyResult,omitempty"`
	OrgID            string            `json:"organizationId,omitempty"`
	ProjectID        string            `json:"projectId,omitempty"`
	Tools            []schema.ToolSpec `json:"tools"`
}

type runResponse struct {
	Success bool   `json:"success"`
	Result  any    `json:"result"`
	Error   string `json:"error"`
}

func (r *HTTPRunner) Run(ctx context.Context, a Assignment) (any, error) {
	if r.endpoint == "" {
		return nil, errs.New(errs.CodeUnavailableCollaborator, "no agent worker endpoint configured")
	}
	body := runRequest{
		AgentID:          a.AgentID,
		AgentType:        a.Archetype.Type,
		Task:             a.Task,
		Prompt:           a.Archetype.Prompt,
		DependencyResult: a.DependencyResult(),
		Tools:            a.Tools.Definitions(),
	}
	if a.Context != nil {
		body.OrgID = a.Context.OrgID
		body.ProjectID = a.Context.ProjectID
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode assignment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/v1/agents/run", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeUnavailableCollaborator, "agent worker unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, errs.Newf(errs.CodeExecution, "agent worker returned HTTP %d", resp.StatusCode)
	}

	var out runResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode worker response: %w", err)
	}
	if !out.Success {
		return nil, errs.New(errs.CodeExecution, llmutils.StringOrDefault(out.Error, "agent worker reported failure"))
	}
	return out.Result, nil
}
