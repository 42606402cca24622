package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// LoadTasks reads a custom task list from a YAML (or JSON) file. The file is
// either a bare list of tasks or a mapping with a tasks key.
func LoadTasks(path string) ([]schema.WorkflowTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	return ParseTasks(data)
}

// ParseTasks decodes a task list and checks every task names an agent.
func ParseTasks(data []byte) ([]schema.WorkflowTask, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	var tasks []schema.WorkflowTask
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
		var wrapped struct {
			Tasks []schema.WorkflowTask `yaml:"tasks"`
		}
		if err := node.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("parse tasks: %w", err)
		}
		tasks = wrapped.Tasks
	} else if err := node.Decode(&tasks); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}

	for i, t := range tasks {
		if t.Agent == "" {
			return nil, errs.Newf(errs.CodeValidation, "task %d: agent is required", i)
		}
	}
	return tasks, nil
}
