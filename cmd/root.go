// Package cmd implements the crystaldolphin CLI using cobra.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/orchestrator/internal/config"
	"github.com/crystaldolphin/orchestrator/internal/dependency"
	"github.com/crystaldolphin/orchestrator/internal/logging"
)

const version = "0.2.0"
const logo = "🐬"

var (
	configPath string
	logLevel   string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "crystaldolphin",
	Short: logo + " crystaldolphin — tool and sub-agent orchestrator",
	Long:  logo + " crystaldolphin runs tools, delegates tasks to specialist sub-agents and sequences them into workflows",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		logging.Setup(level, cfg.Log.Format)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.crystaldolphin/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(delegateCmd)
	rootCmd.AddCommand(spawnCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.ConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildContainer loads the config and wires every service. Callers must
// Close the container.
func buildContainer(ctx context.Context) (*dependency.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	c, err := dependency.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("wire services: %w", err)
	}
	return c, nil
}
