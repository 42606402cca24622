package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/shared/cmdutils"
	"github.com/crystaldolphin/orchestrator/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the tool registry",
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsSearchCmd)
	toolsCmd.AddCommand(toolsExportCmd)
}

var toolsListCategory string

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools by category",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := buildContainer(context.Background())
		if err != nil {
			return err
		}
		defer c.Close()

		reg := c.Registry()
		if toolsListCategory != "" {
			printToolTable(reg.ToolsByCategory(schema.Category(toolsListCategory)))
			return nil
		}
		printToolTable(reg.AllTools())
		return nil
	},
}

func init() {
	toolsListCmd.Flags().StringVarP(&toolsListCategory, "category", "c", "", "Only list this category")
}

var (
	toolsSearchCategory    string
	toolsSearchDescription bool
)

var toolsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search tools by name or description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := buildContainer(context.Background())
		if err != nil {
			return err
		}
		defer c.Close()

		found := c.Registry().Search(strings.Join(args, " "), tools.SearchOptions{
			Category:           schema.Category(toolsSearchCategory),
			Permissions:        c.Context().Permissions(),
			IncludeDescription: toolsSearchDescription,
		})
		if len(found) == 0 {
			fmt.Println("No matching tools.")
			return nil
		}
		printToolTable(found)
		return nil
	},
}

func init() {
	toolsSearchCmd.Flags().StringVarP(&toolsSearchCategory, "category", "c", "", "Restrict to a category")
	toolsSearchCmd.Flags().BoolVarP(&toolsSearchDescription, "description", "d", false, "Also match descriptions")
}

var toolsExportArchetype string

var toolsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print function-calling definitions as JSON",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		c, err := buildContainer(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		list := c.Registry().AllTools()
		if toolsExportArchetype != "" {
			a, err := c.Catalogue().Archetype(schema.AgentType(toolsExportArchetype))
			if err != nil {
				return err
			}
			list = c.Registry().ToolsForArchetype(ctx, a.Type, a.Capabilities, c.Context())
		}
		return cmdutils.PrintJSON(tools.ExportDefinitions(list))
	},
}

func init() {
	toolsExportCmd.Flags().StringVarP(&toolsExportArchetype, "archetype", "a", "", "Export only the tools of this archetype")
}

func printToolTable(list []*tools.Tool) {
	if len(list) == 0 {
		fmt.Println("No tools.")
		return
	}
	fmt.Printf("%-24s %-12s %-8s %s\n", "Name", "Category", "Cost", "Description")
	fmt.Println(cmdutils.Rule(90))
	for _, t := range list {
		fmt.Printf("%-24s %-12s %-8s %s\n", cmdutils.Fit(t.Name(), 24), t.Category, t.Cost, cmdutils.Fit(t.Description(), 44))
	}
}
