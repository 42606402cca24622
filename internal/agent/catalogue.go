package agent

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/tools"
)

// Archetype is a kind of specialist sub-agent and the tool categories it may
// use.
type Archetype struct {
	Type         schema.AgentType   `yaml:"type" json:"type"`
	Description  string             `yaml:"description" json:"description"`
	Capabilities []tools.Capability `yaml:"capabilities" json:"capabilities"`
	Prompt       string             `yaml:"prompt,omitempty" json:"prompt,omitempty"`
}

// Workflow is a named, predefined task list.
type Workflow struct {
	Name        string                `yaml:"name" json:"name"`
	Description string                `yaml:"description" json:"description"`
	Tasks       []schema.WorkflowTask `yaml:"tasks" json:"tasks"`
}

// Catalogue holds the archetypes and named workflows known to the runtime.
// It is read-only once loaded.
type Catalogue struct {
	archetypes map[schema.AgentType]Archetype
	workflows  map[string]Workflow
}

// DefaultCatalogue returns the built-in archetypes and workflows.
func DefaultCatalogue() *Catalogue {
	c := &Catalogue{
		archetypes: make(map[schema.AgentType]Archetype),
		workflows:  make(map[string]Workflow),
	}
	for _, a := range []Archetype{
		{
			Type:         schema.AgentCodeGenerator,
			Description:  "Writes new code from a description of the change.",
			Capabilities: tools.Capabilities(schema.CategoryCode, schema.CategoryProject, schema.CategoryWeb),
		},
		{
			Type:         schema.AgentCodeReviewer,
			Description:  "Reviews code and reports defects and risks.",
			Capabilities: tools.Capabilities(schema.CategoryReview, schema.CategoryProject),
		},
		{
			Type:         schema.AgentDeploymentManager,
			Description:  "Ships changes to the target environment.",
			Capabilities: tools.Capabilities(schema.CategoryDeployment, schema.CategoryReview, schema.CategoryProject),
		},
		{
			Type:         schema.AgentTestEngineer,
			Description:  "Writes and runs tests for a change.",
			Capabilities: tools.Capabilities(schema.CategoryCode, schema.CategoryProject),
		},
		{
			Type:         schema.AgentDocumentationWriter,
			Description:  "Writes user and developer documentation.",
			Capabilities: tools.Capabilities(schema.CategoryProject, schema.CategoryWeb),
		},
		{
			Type:         schema.AgentResearcher,
			Description:  "Gathers information from the web and summarises it.",
			Capabilities: tools.Capabilities(schema.CategoryWeb),
		},
		{
			Type:         schema.AgentGeneralAssistant,
			Description:  "Handles tasks that fit no specialist.",
			Capabilities: tools.Capabilities(schema.CategoryGeneral, schema.CategoryWeb, schema.CategoryAgents),
		},
	} {
		c.archetypes[a.Type] = a
	}

	c.workflows["feature-delivery"] = Workflow{
		Name:        "feature-delivery",
		Description: "Implement a feature, review it, then deploy it.",
		Tasks: []schema.WorkflowTask{
			{Agent: schema.AgentCodeGenerator, Task: "Implement the requested feature"},
			{Agent: schema.AgentCodeReviewer, Task: "Review the implementation", DependsOn: schema.AgentCodeGenerator},
			{Agent: schema.AgentDeploymentManager, Task: "Deploy the reviewed change", DependsOn: schema.AgentCodeReviewer},
		},
	}
	c.workflows["research-report"] = Workflow{
		Name:        "research-report",
		Description: "Research a topic and write it up.",
		Tasks: []schema.WorkflowTask{
			{Agent: schema.AgentResearcher, Task: "Research the topic"},
			{Agent: schema.AgentDocumentationWriter, Task: "Write a report from the research", DependsOn: schema.AgentResearcher},
		},
	}
	return c
}

type catalogueFile struct {
	Archetypes []Archetype `yaml:"archetypes"`
	Workflows  []Workflow  `yaml:"workflows"`
}

// LoadCatalogue returns the default catalogue overlaid with the YAML file at
// path. Entries in the file replace defaults of the same type or name. An
// empty path or a missing file yields the defaults.
func LoadCatalogue(path string) (*Catalogue, error) {
	c := DefaultCatalogue()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	if err := c.Merge(data); err != nil {
		return nil, fmt.Errorf("parse catalogue %s: %w", path, err)
	}
	return c, nil
}

// Merge overlays YAML catalogue data onto c.
func (c *Catalogue) Merge(data []byte) error {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	for _, a := range f.Archetypes {
		if a.Type == "" {
			return errs.New(errs.CodeValidation, "archetype without type")
		}
		c.archetypes[a.Type] = a
	}
	for _, w := range f.Workflows {
		if w.Name == "" {
			return errs.New(errs.CodeValidation, "workflow without name")
		}
		c.workflows[w.Name] = w
	}
	return nil
}

// Archetype looks up t.
func (c *Catalogue) Archetype(t schema.AgentType) (Archetype, error) {
	a, ok := c.archetypes[t]
	if !ok {
		return Archetype{}, errs.Newf(errs.CodeNotFound, "unknown agent type %q", t)
	}
	return a, nil
}

// Workflow looks up a named workflow.
func (c *Catalogue) Workflow(name string) (Workflow, error) {
	w, ok := c.workflows[name]
	if !ok {
		return Workflow{}, errs.Newf(errs.CodeNotFound, "unknown workflow %q", name)
	}
	return w, nil
}

// Archetypes returns all archetypes sorted by type.
func (c *Catalogue) Archetypes() []Archetype {
	out := make([]Archetype, 0, len(c.archetypes))
	for _, a := range c.archetypes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Workflows returns all named workflows sorted by name.
func (c *Catalogue) Workflows() []Workflow {
	out := make([]Workflow, 0, len(c.workflows))
	for _, w := range c.workflows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
