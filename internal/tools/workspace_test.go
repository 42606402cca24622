package tools

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

func workspaceTools(t *testing.T, restrict bool) (string, map[string]*Tool) {
	t.Helper()
	root := t.TempDir()
	byName := map[string]*Tool{}
	for _, tool := range NewWorkspaceTools(WorkspaceOptions{Root: root, Restrict: restrict, ExecTimeout: 5 * time.Second}) {
		byName[tool.Name()] = tool
	}
	return root, byName
}

func TestWorkspaceTools_Disabled(t *testing.T) {
	if got := NewWorkspaceTools(WorkspaceOptions{}); len(got) != 0 {
		t.Errorf("expected no tools without a root, got %d", len(got))
	}
}

func TestWorkspaceTools_FileRoundTrip(t *testing.T) {
	root, ws := workspaceTools(t, true)
	ctx := context.Background()

	res := ws[ToolWriteFile].SafeExecute(ctx, map[string]any{"path": "pkg/main.go", "content": "package main\n\nfunc main() {}\n"}, nil)
	if !res.Success {
		t.Fatalf("write failed: %+v", res)
	}
	if _, err := os.Stat(filepath.Join(root, "pkg", "main.go")); err != nil {
		t.Fatalf("file not created: %v", err)
	}

	res = ws[ToolEditFile].SafeExecute(ctx, map[string]any{"path": "pkg/main.go", "oldText": "func main() {}", "newText": "func main() { run() }"}, nil)
	if !res.Success {
		t.Fatalf("edit failed: %+v", res)
	}

	res = ws[ToolReadFile].SafeExecute(ctx, map[string]any{"path": "pkg/main.go"}, nil)
	if !res.Success || !strings.Contains(res.Data.(string), "run()") {
		t.Errorf("unexpected read %+v", res)
	}

	res = ws[ToolListDir].SafeExecute(ctx, map[string]any{"path": "."}, nil)
	if !res.Success || !reflect.DeepEqual(res.Data, []string{"[D] pkg"}) {
		t.Errorf("unexpected listing %+v", res)
	}
}

func TestWorkspaceTools_EditFailures(t *testing.T) {
	root, ws := workspaceTools(t, true)
	ctx := context.Background()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha\nbeta\nalpha\n"), 0o644)

	res := ws[ToolEditFile].SafeExecute(ctx, map[string]any{"path": "a.txt", "oldText": "alpha", "newText": "x"}, nil)
	if res.Success || !strings.Contains(res.Error, "appears 2 times") {
		t.Errorf("expected ambiguity failure, got %+v", res)
	}

	res = ws[ToolEditFile].SafeExecute(ctx, map[string]any{"path": "a.txt", "oldText": "betta", "newText": "x"}, nil)
	if res.Success || !strings.Contains(res.Error, "closest match") {
		t.Errorf("expected similarity hint, got %+v", res)
	}
}

func TestWorkspaceTools_Restrict(t *testing.T) {
	_, ws := workspaceTools(t, true)
	res := ws[ToolReadFile].SafeExecute(context.Background(), map[string]any{"path": "../../etc/passwd"}, nil)
	if res.Success || !strings.Contains(res.Error, "outside the workspace") {
		t.Errorf("expected restriction failure, got %+v", res)
	}
}

func TestRunCommand(t *testing.T) {
	root, ws := workspaceTools(t, true)
	run := ws[ToolRunCommand]
	ctx := context.Background()
	allowed := userContext(PermissionExec)

	res := run.SafeExecute(ctx, map[string]any{"command": "echo hi"}, userContext())
	if res.Success || !strings.Contains(res.Error, PermissionExec) {
		t.Errorf("expected permission failure, got %+v", res)
	}

	res = run.SafeExecute(ctx, map[string]any{"command": "echo hi > out.txt && cat out.txt"}, allowed)
	data, _ := res.Data.(map[string]any)
	if !res.Success || strings.TrimSpace(data["stdout"].(string)) != "hi" {
		t.Errorf("unexpected result %+v", res)
	}
	if _, err := os.Stat(filepath.Join(root, "out.txt")); err != nil {
		t.Errorf("command did not run in the workspace: %v", err)
	}

	res = run.SafeExecute(ctx, map[string]any{"command": "exit 3"}, allowed)
	if res.Success || res.Error != "exit code 3" {
		t.Errorf("expected exit code failure, got %+v", res)
	}

	for _, cmd := range []string{"rm -rf build", "cat ../secret", "cat /etc/hosts"} {
		res = run.SafeExecute(ctx, map[string]any{"command": cmd}, allowed)
		if res.Success || !strings.Contains(res.Error, "command blocked") {
			t.Errorf("%q: expected block, got %+v", cmd, res)
		}
	}
}

func TestWorkspaceTools_Metadata(t *testing.T) {
	_, ws := workspaceTools(t, false)
	for name, tool := range ws {
		if tool.Category != schema.CategoryCode {
			t.Errorf("%s: expected code category, got %s", name, tool.Category)
		}
	}
	if ws[ToolRunCommand].Cost != schema.CostHigh {
		t.Errorf("run_command should be high cost")
	}
}
