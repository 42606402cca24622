package tools

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Review tool names.
const (
	ToolViewFile   = "view_file"
	ToolSearchCode = "search_code"
)

const (
	maxViewLines     = 400
	maxSearchMatches = 200
	maxSearchFile    = 1 << 20
)

// NewReviewTools returns the read-only inspection tools for opts.Root. None of
// them modifies the workspace.
func NewReviewTools(opts WorkspaceOptions) []*Tool {
	if opts.Root == "" {
		return nil
	}
	w := workspace{root: opts.Root, restrict: opts.Restrict}
	return []*Tool{
		{
			Definition: schema.ToolDefinition{
				Name:        ToolViewFile,
				Description: "Show a workspace file with line numbers, optionally only lines start..end.",
				Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
					"path":  {Type: schema.ParamString, Description: "File path, relative to the workspace"},
					"start": {Type: schema.ParamInteger, Description: "First line, 1-based"},
					"end":   {Type: schema.ParamInteger, Description: "Last line, inclusive"},
				}, "path"),
			},
			Category: schema.CategoryReview,
			Handler:  w.viewFile,
		},
		{
			Definition: schema.ToolDefinition{
				Name:        ToolSearchCode,
				Description: "Search workspace files for a literal string; returns path:line: text matches.",
				Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
					"query": {Type: schema.ParamString, Description: "Text to look for, case-sensitive"},
					"path":  {Type: schema.ParamString, Description: "Directory to search, relative to the workspace"},
				}, "query"),
			},
			Category: schema.CategoryReview,
			Handler:  w.searchCode,
		},
	}
}

func (w workspace) viewFile(_ context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
	path, _ := args["path"].(string)
	fp, err := w.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fp)
	if err != nil {
		return nil, errs.Newf(errs.CodeNotFound, "file not found: %s", path)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")

	start := max(intArg(args, "start", 1), 1)
	end := intArg(args, "end", len(lines))
	end = min(end, len(lines), start+maxViewLines-1)
	if start > len(lines) {
		return schema.Failure(fmt.Sprintf("%s has %d lines", path, len(lines))), nil
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%5d  %s\n", i, lines[i-1])
	}
	return b.String(), nil
}

func (w workspace) searchCode(ctx context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return schema.Failure("query is required"), nil
	}
	dir := w.root
	if p, _ := args["path"].(string); p != "" {
		resolved, err := w.resolve(p)
		if err != nil {
			return nil, err
		}
		dir = resolved
	}

	var matches []string
	truncated := false
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if name := d.Name(); p != dir && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxSearchFile {
			return nil
		}
		rel, _ := filepath.Rel(w.root, p)
		found, err := grepFile(p, rel, query, maxSearchMatches-len(matches))
		if err != nil {
			return nil
		}
		matches = append(matches, found...)
		if len(matches) >= maxSearchMatches {
			truncated = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"matches": matches, "truncated": truncated}, nil
}

// grepFile returns up to limit "rel:line: text" matches. Files containing NUL
// bytes are treated as binary and skipped.
func grepFile(path, rel, query string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxSearchFile)
	for n := 1; sc.Scan() && len(out) < limit; n++ {
		line := sc.Text()
		if strings.IndexByte(line, 0) >= 0 {
			return nil, nil
		}
		if strings.Contains(line, query) {
			out = append(out, fmt.Sprintf("%s:%d: %s", filepath.ToSlash(rel), n, strings.TrimSpace(line)))
		}
	}
	return out, sc.Err()
}
