package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Workspace tool names.
const (
	ToolReadFile   = "read_file"
	ToolWriteFile  = "write_file"
	ToolEditFile   = "edit_file"
	ToolListDir    = "list_dir"
	ToolRunCommand = "run_command"
)

// PermissionExec gates run_command.
const PermissionExec = "code:exec"

// WorkspaceOptions configures the code category tools.
type WorkspaceOptions struct {
	// Root resolves relative paths. Empty disables the workspace tools.
	Root string
	// Restrict rejects paths and commands reaching outside Root.
	Restrict    bool
	ExecTimeout time.Duration
	// DeployScripts maps a script name to the shell command run_deploy_script
	// executes for it.
	DeployScripts map[string]string
}

type workspace struct {
	root     string
	restrict bool
}

// resolve joins a relative path onto the root and, when restricted, rejects
// anything that resolves outside it.
func (w workspace) resolve(path string) (string, error) {
	if path == "" {
		return "", errs.New(errs.CodeValidation, "path is required")
	}
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(w.root, p)
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		// Not created yet.
		resolved = filepath.Clean(p)
	}
	if w.restrict && !w.contains(resolved) {
		return "", errs.Newf(errs.CodeValidation, "path %s is outside the workspace", path)
	}
	return resolved, nil
}

// contains reports whether p is the root or below it. Both the literal and
// the symlink-resolved root count.
func (w workspace) contains(p string) bool {
	roots := []string{filepath.Clean(w.root)}
	if r, err := filepath.EvalSymlinks(w.root); err == nil {
		roots = append(roots, r)
	}
	for _, root := range roots {
		if p == root || strings.HasPrefix(p, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// NewWorkspaceTools returns the code category tools for opts.Root: the file
// tools and run_command.
func NewWorkspaceTools(opts WorkspaceOptions) []*Tool {
	if opts.Root == "" {
		return nil
	}
	w := workspace{root: opts.Root, restrict: opts.Restrict}
	pathParam := func(desc string) schema.Parameter {
		return schema.Parameter{Type: schema.ParamString, Description: desc}
	}
	return []*Tool{
		{
			Definition: schema.ToolDefinition{
				Name:        ToolReadFile,
				Description: "Read the contents of a file in the workspace.",
				Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
					"path": pathParam("File path, relative to the workspace"),
				}, "path"),
			},
			Category: schema.CategoryCode,
			Handler:  w.readFile,
		},
		{
			Definition: schema.ToolDefinition{
				Name:        ToolWriteFile,
				Description: "Write a file in the workspace, creating parent directories.",
				Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
					"path":    pathParam("File path, relative to the workspace"),
					"content": {Type: schema.ParamString, Description: "Full file content"},
				}, "path", "content"),
			},
			Category: schema.CategoryCode,
			Handler:  w.writeFile,
		},
		{
			Definition: schema.ToolDefinition{
				Name:        ToolEditFile,
				Description: "Replace one exact, unique occurrence of oldText with newText in a file.",
				Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
					"path":    pathParam("File path, relative to the workspace"),
					"oldText": {Type: schema.ParamString, Description: "Exact text to replace"},
					"newText": {Type: schema.ParamString, Description: "Replacement text"},
				}, "path", "oldText", "newText"),
			},
			Category: schema.CategoryCode,
			Handler:  w.editFile,
		},
		{
			Definition: schema.ToolDefinition{
				Name:        ToolListDir,
				Description: "List a workspace directory; [D] marks directories, [F] files.",
				Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
					"path": pathParam("Directory path, relative to the workspace"),
				}, "path"),
			},
			Category: schema.CategoryCode,
			Handler:  w.listDir,
		},
		newRunCommandTool(w, opts.ExecTimeout),
	}
}

func (w workspace) readFile(_ context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
	path, _ := args["path"].(string)
	fp, err := w.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(fp)
	if err != nil {
		return nil, errs.Newf(errs.CodeNotFound, "file not found: %s", path)
	}
	if !info.Mode().IsRegular() {
		return nil, errs.Newf(errs.CodeValidation, "not a file: %s", path)
	}
	data, err := os.ReadFile(fp)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func (w workspace) writeFile(_ context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)
	fp, err := w.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}
	if err := os.WriteFile(fp, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return map[string]any{"path": path, "bytes": len(content)}, nil
}

func (w workspace) editFile(_ context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
	path, _ := args["path"].(string)
	oldText, _ := args["oldText"].(string)
	newText, _ := args["newText"].(string)
	fp, err := w.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fp)
	if err != nil {
		return nil, errs.Newf(errs.CodeNotFound, "file not found: %s", path)
	}
	content := string(data)

	switch n := strings.Count(content, oldText); {
	case oldText == "" || n == 0:
		return schema.Failure(notFoundHint(oldText, content, path)), nil
	case n > 1:
		return schema.Failure(fmt.Sprintf("oldText appears %d times in %s; include more context to make it unique", n, path)), nil
	}

	if err := os.WriteFile(fp, []byte(strings.Replace(content, oldText, newText, 1)), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return map[string]any{"path": path, "edited": true}, nil
}

// notFoundHint points at the window of the file most similar to oldText.
func notFoundHint(oldText, content, path string) string {
	want := strings.Split(oldText, "\n")
	lines := strings.Split(content, "\n")
	window := min(len(want), len(lines))

	best, bestAt := 0.0, 0
	for i := 0; i+window <= len(lines); i++ {
		if r := overlap(want, lines[i:i+window]); r > best {
			best, bestAt = r, i
		}
	}
	if best <= 0.5 {
		return fmt.Sprintf("oldText not found in %s and no similar text found", path)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "oldText not found in %s; closest match (%.0f%% similar) at line %d:\n", path, best*100, bestAt+1)
	for _, l := range lines[bestAt : bestAt+window] {
		b.WriteString("  " + l + "\n")
	}
	return b.String()
}

// overlap is a character multiset similarity in [0,1].
func overlap(a, b []string) float64 {
	sa, sb := strings.Join(a, "\n"), strings.Join(b, "\n")
	if len(sa)+len(sb) == 0 {
		return 1
	}
	freq := make(map[byte]int, len(sa))
	for i := 0; i < len(sa); i++ {
		freq[sa[i]]++
	}
	common := 0
	for i := 0; i < len(sb); i++ {
		if freq[sb[i]] > 0 {
			common++
			freq[sb[i]]--
		}
	}
	return 2 * float64(common) / float64(len(sa)+len(sb))
}

func (w workspace) listDir(_ context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
	path, _ := args["path"].(string)
	dp, err := w.resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dp)
	if err != nil {
		return nil, errs.Newf(errs.CodeNotFound, "directory not found: %s", path)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		prefix := "[F] "
		if e.IsDir() {
			prefix = "[D] "
		}
		out = append(out, prefix+e.Name())
	}
	return out, nil
}
