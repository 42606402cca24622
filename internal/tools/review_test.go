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

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func reviewTools(t *testing.T) (string, map[string]*Tool) {
	t.Helper()
	root := t.TempDir()
	byName := map[string]*Tool{}
	for _, tool := range NewReviewTools(WorkspaceOptions{Root: root, Restrict: true}) {
		byName[tool.Name()] = tool
	}
	return root, byName
}

func TestViewFile(t *testing.T) {
	root, rv := reviewTools(t)
	writeTree(t, root, map[string]string{"a.go": "one\ntwo\nthree\nfour\n"})
	ctx := context.Background()

	res := rv[ToolViewFile].SafeExecute(ctx, map[string]any{"path": "a.go", "start": float64(2), "end": float64(3)}, nil)
	if !res.Success {
		t.Fatalf("view failed: %+v", res)
	}
	if want := "    2  two\n    3  three\n"; res.Data != want {
		t.Errorf("expected %q, got %q", want, res.Data)
	}

	res = rv[ToolViewFile].SafeExecute(ctx, map[string]any{"path": "a.go", "start": float64(9)}, nil)
	if res.Success || !strings.Contains(res.Error, "has 4 lines") {
		t.Errorf("expected out of range failure, got %+v", res)
	}

	res = rv[ToolViewFile].SafeExecute(ctx, map[string]any{"path": "../etc/passwd"}, nil)
	if res.Success {
		t.Error("expected restricted path to fail")
	}
}

func TestSearchCode(t *testing.T) {
	root, rv := reviewTools(t)
	writeTree(t, root, map[string]string{
		"cmd/main.go":        "package main\n\n// remove later\nfunc main() {}\n",
		"internal/x/x.go":    "package x\n\nfunc Remove() {}\n",
		".git/config":        "remove me\n",
		"bin/blob":           "remove\x00\n",
		"internal/x/doc.txt": "nothing here\n",
	})

	res := rv[ToolSearchCode].SafeExecute(context.Background(), map[string]any{"query": "emove"}, nil)
	if !res.Success {
		t.Fatalf("search failed: %+v", res)
	}
	data := res.Data.(map[string]any)
	want := []string{"cmd/main.go:3: // remove later", "internal/x/x.go:3: func Remove() {}"}
	if !reflect.DeepEqual(data["matches"], want) {
		t.Errorf("expected %q, got %q", want, data["matches"])
	}

	res = rv[ToolSearchCode].SafeExecute(context.Background(), map[string]any{"query": "emove", "path": "internal"}, nil)
	if got := res.Data.(map[string]any)["matches"].([]string); len(got) != 1 {
		t.Errorf("expected one match under internal, got %q", got)
	}
}

func TestReviewTools_ReadOnly(t *testing.T) {
	_, rv := reviewTools(t)
	for name, tool := range rv {
		if tool.Category != schema.CategoryReview {
			t.Errorf("%s: expected review category, got %s", name, tool.Category)
		}
	}
	if len(NewReviewTools(WorkspaceOptions{})) != 0 {
		t.Error("expected no review tools without a root")
	}
}

func TestRunDeployScript(t *testing.T) {
	if got := NewDeploymentTools(WorkspaceOptions{Root: t.TempDir()}); len(got) != 0 {
		t.Fatalf("expected no deployment tools without scripts, got %d", len(got))
	}

	tools := NewDeploymentTools(WorkspaceOptions{
		Root:          t.TempDir(),
		ExecTimeout:   5 * time.Second,
		DeployScripts: map[string]string{"staging": "echo shipped", "broken": "exit 2"},
	})
	if len(tools) != 1 {
		t.Fatalf("expected one tool, got %d", len(tools))
	}
	deploy := tools[0]
	if got := deploy.Definition.Parameters.Properties["script"].Enum; !reflect.DeepEqual(got, []string{"broken", "staging"}) {
		t.Errorf("expected sorted script enum, got %v", got)
	}

	ctx := context.Background()
	if res := deploy.SafeExecute(ctx, map[string]any{"script": "staging"}, nil); res.Success {
		t.Error("expected permission failure without deploy:run")
	}

	ectx := &schema.ExecutionContext{User: &schema.User{ID: "u", Permissions: []string{PermissionDeploy}}}
	res := deploy.SafeExecute(ctx, map[string]any{"script": "staging"}, ectx)
	if !res.Success || !strings.Contains(res.Data.(map[string]any)["stdout"].(string), "shipped") {
		t.Errorf("unexpected result %+v", res)
	}
	res = deploy.SafeExecute(ctx, map[string]any{"script": "broken"}, ectx)
	if res.Success || res.Error != "exit code 2" {
		t.Errorf("expected exit code failure, got %+v", res)
	}
	res = deploy.SafeExecute(ctx, map[string]any{"script": "rm -rf /"}, ectx)
	if res.Success || !strings.Contains(res.Error, "unknown deploy script") {
		t.Errorf("expected unknown script failure, got %+v", res)
	}
}

func TestCurrentTime(t *testing.T) {
	saved := now
	now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	defer func() { now = saved }()

	tool := NewCurrentTimeTool()
	res := tool.SafeExecute(context.Background(), map[string]any{}, nil)
	data, ok := res.Data.(map[string]any)
	if !res.Success || !ok || data["time"] != "2026-03-02T12:00:00Z" || data["weekday"] != "Monday" {
		t.Errorf("unexpected result %+v", res)
	}

	res = tool.SafeExecute(context.Background(), map[string]any{"timezone": "Mars/Olympus"}, nil)
	if res.Success {
		t.Error("expected unknown zone to fail")
	}
}
