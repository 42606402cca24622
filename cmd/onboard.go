package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/orchestrator/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and the archetype catalogue",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}
	if err := config.Save(cfg, cfgPath); err != nil {
		return err
	}

	if ws := cfg.WorkspacePath(); ws != "" {
		if err := os.MkdirAll(ws, 0o755); err != nil {
			return fmt.Errorf("create workspace: %w", err)
		}
		fmt.Printf("✓ Workspace at %s\n", ws)
	}

	catalogue := cfg.CataloguePath()
	if catalogue != "" {
		if _, err := os.Stat(catalogue); os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(catalogue), 0o755); err != nil {
				return fmt.Errorf("create catalogue dir: %w", err)
			}
			if err := os.WriteFile(catalogue, []byte(catalogueTemplate), 0o644); err != nil {
				return fmt.Errorf("write catalogue: %w", err)
			}
			fmt.Printf("✓ Created catalogue at %s\n", catalogue)
		}
	}

	fmt.Printf("\n%s crystaldolphin is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Set agents.endpoint in %s to your agent worker\n", cfgPath)
	fmt.Println("  2. List tools:     crystaldolphin tools list")
	fmt.Println("  3. Run a workflow: crystaldolphin workflow run feature-delivery --input \"add dark mode\"")
	return nil
}

const catalogueTemplate = `# Archetypes and workflows listed here replace built-ins of the same
# type or name. Capabilities are tool categories: general, code, review,
# deployment, project, web, agents.
archetypes:
  - type: SECURITY_AUDITOR
    description: Audits a change for security issues.
    capabilities: [review, project, {name: web}]

workflows:
  - name: audited-release
    description: Review, audit, then deploy.
    tasks:
      - agent: CODE_REVIEWER
        task: Review the change
      - agent: SECURITY_AUDITOR
        task: Audit the reviewed change
        dependsOn: CODE_REVIEWER
      - agent: DEPLOYMENT_MANAGER
        task: Deploy the audited change
        dependsOn: SECURITY_AUDITOR
`
