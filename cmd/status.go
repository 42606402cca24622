package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/orchestrator/internal/config"
	"github.com/crystaldolphin/orchestrator/internal/schedule"
	"github.com/crystaldolphin/orchestrator/internal/shared/cmdutils"
	"github.com/crystaldolphin/orchestrator/internal/shared/llmutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show crystaldolphin status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	fmt.Printf("%s crystaldolphin Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:    %s %s\n", cfgPath, cmdutils.Mark(statErr == nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	catalogue := cfg.CataloguePath()
	_, catErr := os.Stat(catalogue)
	fmt.Printf("Catalogue: %s %s\n", catalogue, cmdutils.Mark(catErr == nil))
	ws := cfg.WorkspacePath()
	_, wsErr := os.Stat(ws)
	fmt.Printf("Workspace: %s %s\n", llmutils.StringOrDefault(ws, "(disabled)"), cmdutils.Mark(ws != "" && wsErr == nil))
	fmt.Printf("Worker:    %s\n", llmutils.StringOrDefault(cfg.Agents.Endpoint, "(not set)"))
	fmt.Printf("History:   %s\n", cfg.History.Driver)
	fmt.Printf("Identity:  %s %v\n\n", cfg.Identity.UserID, cfg.Identity.Permissions)

	fmt.Println("Tools:")
	fmt.Printf("  %-20s %s\n", "web_search", cmdutils.Mark(cfg.Tools.Web.Search.APIKey != ""))
	ids := make([]string, 0, len(cfg.Tools.Projects))
	for id := range cfg.Tools.Projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("  project %-12s %d MCP server(s)\n", id, len(cfg.Tools.Projects[id].MCPServers))
	}

	jobs := schedule.NewService(cfg.SchedulePath(), nil).List(true)
	enabled := 0
	for _, j := range jobs {
		if j.Enabled {
			enabled++
		}
	}
	fmt.Printf("\nSchedule:  %d job(s), %d enabled\n", len(jobs), enabled)
	return nil
}
