package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

const maxCommandOutput = 10000

// Commands matching any of these are refused outright.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-[rf]{1,2}\b`),
	regexp.MustCompile(`(?i)\bdel\s+/[fq]\b`),
	regexp.MustCompile(`(?i)\brmdir\s+/s\b`),
	regexp.MustCompile(`(?i)(?:^|[;&|]\s*)format\b`),
	regexp.MustCompile(`(?i)\b(mkfs|diskpart)\b`),
	regexp.MustCompile(`(?i)\bdd\s+if=`),
	regexp.MustCompile(`(?i)>\s*/dev/sd`),
	regexp.MustCompile(`(?i)\b(shutdown|reboot|poweroff)\b`),
	regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`), // fork bomb
}

var absolutePathRE = regexp.MustCompile(`(?:^|[\s|>])(/[^\s"'>]+)`)

type runCommand struct {
	ws      workspace
	timeout time.Duration
}

func newRunCommandTool(ws workspace, timeout time.Duration) *Tool {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rc := &runCommand{ws: ws, timeout: timeout}
	return &Tool{
		Definition: schema.ToolDefinition{
			Name:        ToolRunCommand,
			Description: "Run a shell command in the workspace and return its output and exit code.",
			Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
				"command": {Type: schema.ParamString, Description: "Shell command"},
				"dir":     {Type: schema.ParamString, Description: "Working directory, relative to the workspace"},
			}, "command"),
		},
		Category:            schema.CategoryCode,
		RequiredPermissions: []string{PermissionExec},
		Cost:                schema.CostHigh,
		Handler:             rc.run,
	}
}

func (rc *runCommand) run(ctx context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
	command, _ := args["command"].(string)
	dir := rc.ws.root
	if d, _ := args["dir"].(string); d != "" {
		resolved, err := rc.ws.resolve(d)
		if err != nil {
			return nil, err
		}
		dir = resolved
	}
	if reason := rc.guard(command); reason != "" {
		return nil, errs.Newf(errs.CodeValidation, "command blocked: %s", reason)
	}

	return shell(ctx, dir, command, rc.timeout)
}

// shell runs command under sh -c in dir. A non-zero exit is a failed Result,
// not an error.
func shell(ctx context.Context, dir, command string, timeout time.Duration) (any, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if cmdCtx.Err() == context.DeadlineExceeded {
		return nil, errs.Newf(errs.CodeExecution, "command timed out after %s", timeout)
	}
	exitCode := 0
	var exitErr *exec.ExitError
	switch {
	case errors.As(runErr, &exitErr):
		exitCode = exitErr.ExitCode()
	case runErr != nil:
		return nil, fmt.Errorf("run command: %w", runErr)
	}

	return schema.Result{
		Success: exitCode == 0,
		Data: map[string]any{
			"stdout":   clip(stdout.String()),
			"stderr":   clip(stderr.String()),
			"exitCode": exitCode,
		},
		Error: exitError(exitCode),
	}, nil
}

// guard returns why command must not run, or "".
func (rc *runCommand) guard(command string) string {
	lower := strings.ToLower(strings.TrimSpace(command))
	for _, p := range denyPatterns {
		if p.MatchString(lower) {
			return "dangerous pattern"
		}
	}
	if !rc.ws.restrict {
		return ""
	}
	if strings.Contains(command, `..\`) || strings.Contains(command, "../") {
		return "path traversal"
	}
	for _, m := range absolutePathRE.FindAllStringSubmatch(command, -1) {
		raw := strings.TrimSpace(m[1])
		p, err := filepath.EvalSymlinks(raw)
		if err != nil {
			p = filepath.Clean(raw)
		}
		if !rc.ws.contains(p) {
			return "path outside the workspace"
		}
	}
	return ""
}

func clip(s string) string {
	if len(s) <= maxCommandOutput {
		return s
	}
	return s[:maxCommandOutput] + fmt.Sprintf("\n... (truncated, %d more chars)", len(s)-maxCommandOutput)
}

func exitError(code int) string {
	if code == 0 {
		return ""
	}
	return fmt.Sprintf("exit code %d", code)
}
