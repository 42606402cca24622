package tools

import (
	"context"
	"sort"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

const ToolRunDeployScript = "run_deploy_script"

// PermissionDeploy gates run_deploy_script.
const PermissionDeploy = "deploy:run"

// NewDeploymentTools returns run_deploy_script over opts.DeployScripts, or
// nothing when no script is configured. Only configured scripts can run; the
// model picks one by name and never supplies a command.
func NewDeploymentTools(opts WorkspaceOptions) []*Tool {
	if opts.Root == "" || len(opts.DeployScripts) == 0 {
		return nil
	}
	names := make([]string, 0, len(opts.DeployScripts))
	for name := range opts.DeployScripts {
		names = append(names, name)
	}
	sort.Strings(names)

	timeout := opts.ExecTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	scripts := opts.DeployScripts
	root := opts.Root
	return []*Tool{{
		Definition: schema.ToolDefinition{
			Name:        ToolRunDeployScript,
			Description: "Run one of the configured deployment scripts in the workspace.",
			Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
				"script": {Type: schema.ParamString, Description: "Script name", Enum: names},
			}, "script"),
		},
		Category:            schema.CategoryDeployment,
		RequiredPermissions: []string{PermissionDeploy},
		Cost:                schema.CostHigh,
		Handler: func(ctx context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
			name, _ := args["script"].(string)
			command, ok := scripts[name]
			if !ok {
				return nil, errs.Newf(errs.CodeNotFound, "unknown deploy script %q", name)
			}
			return shell(ctx, root, command, timeout)
		},
	}}
}
