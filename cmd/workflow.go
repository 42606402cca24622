package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/shared/cmdutils"
	"github.com/crystaldolphin/orchestrator/internal/workflow"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "List and run workflows",
}

func init() {
	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowRunCmd)
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List named workflows and archetypes",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := buildContainer(context.Background())
		if err != nil {
			return err
		}
		defer c.Close()

		fmt.Println("Workflows:")
		for _, w := range c.Catalogue().Workflows() {
			fmt.Printf("  %-20s %s\n", w.Name, w.Description)
			for i, t := range w.Tasks {
				dep := ""
				if t.DependsOn != "" {
					dep = " (after " + string(t.DependsOn) + ")"
				}
				fmt.Printf("    %d. %s: %s%s\n", i+1, t.Agent, t.Task, dep)
			}
		}
		fmt.Println("\nArchetypes:")
		for _, a := range c.Catalogue().Archetypes() {
			fmt.Printf("  %-22s %s\n", a.Type, a.Description)
		}
		return nil
	},
}

var (
	workflowFile    string
	workflowInput   string
	workflowProject string
)

var workflowRunCmd = &cobra.Command{
	Use:   "run [name]",
	Short: "Run a named workflow or a task file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		req := workflow.Request{}
		switch {
		case len(args) == 1 && workflowFile != "":
			return fmt.Errorf("give either a workflow name or --file, not both")
		case len(args) == 1:
			req.Workflow = args[0]
		case workflowFile != "":
			tasks, err := workflow.LoadTasks(workflowFile)
			if err != nil {
				return err
			}
			req.Tasks = tasks
		default:
			return fmt.Errorf("missing workflow name or --file")
		}

		ctx := context.Background()
		c, err := buildContainer(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		ectx := c.Context()
		if workflowProject != "" {
			ectx.ProjectID = workflowProject
		}
		if workflowInput != "" {
			ectx = ectx.With(schema.ContextWorkflowInput, workflowInput)
		}
		req.Context = ectx

		res := c.Coordinator().Run(ctx, req)
		if err := cmdutils.PrintJSON(res); err != nil {
			return err
		}
		if !res.Success {
			if res.Error != "" {
				return fmt.Errorf("workflow failed: %s", res.Error)
			}
			return fmt.Errorf("workflow failed")
		}
		return nil
	},
}

func init() {
	workflowRunCmd.Flags().StringVarP(&workflowFile, "file", "f", "", "YAML task list to run instead of a named workflow")
	workflowRunCmd.Flags().StringVarP(&workflowInput, "input", "i", "", "Input appended to each task of a named workflow")
	workflowRunCmd.Flags().StringVarP(&workflowProject, "project", "p", "", "Project whose tools the agents may use")
}
