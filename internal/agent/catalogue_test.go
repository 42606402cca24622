package agent

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

func TestDefaultCatalogue(t *testing.T) {
	c := DefaultCatalogue()
	if len(c.Archetypes()) != 7 {
		t.Errorf("expected 7 archetypes, got %d", len(c.Archetypes()))
	}
	w, err := c.Workflow("feature-delivery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.Tasks) != 3 || w.Tasks[1].DependsOn != schema.AgentCodeGenerator {
		t.Errorf("unexpected feature-delivery tasks: %+v", w.Tasks)
	}
	if _, err := c.Archetype("NOPE"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLoadCatalogue_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	data := `
archetypes:
  - type: SECURITY_AUDITOR
    description: Audits for vulnerabilities
    capabilities:
      - review
      - name: web
  - type: RESEARCHER
    description: Overridden
    capabilities: [web, project]
workflows:
  - name: audit
    tasks:
      - agent: SECURITY_AUDITOR
        task: Audit the service
      - agent: DOCUMENTATION_WRITER
        task: Write findings
        dependsOn: SECURITY_AUDITOR
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCatalogue(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, err := c.Archetype("SECURITY_AUDITOR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Capabilities) != 2 || a.Capabilities[0].Name != "review" || a.Capabilities[1].Name != "web" {
		t.Errorf("expected both capability shapes to parse, got %+v", a.Capabilities)
	}
	r, _ := c.Archetype(schema.AgentResearcher)
	if r.Description != "Overridden" || len(r.Capabilities) != 2 {
		t.Errorf("expected researcher override, got %+v", r)
	}
	w, err := c.Workflow("audit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Tasks[1].DependsOn != "SECURITY_AUDITOR" {
		t.Errorf("expected dependsOn SECURITY_AUDITOR, got %q", w.Tasks[1].DependsOn)
	}
	if _, err := c.Workflow("feature-delivery"); err != nil {
		t.Errorf("defaults should survive overlay: %v", err)
	}
}

func TestLoadCatalogue_MissingFile(t *testing.T) {
	c, err := LoadCatalogue(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Workflows()) == 0 {
		t.Error("expected default workflows")
	}
}

func TestCatalogue_MergeRejectsUntyped(t *testing.T) {
	c := DefaultCatalogue()
	err := c.Merge([]byte("archetypes:\n  - description: no type\n"))
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
