// Package config defines the configuration schema for the orchestrator.
//
// The file lives at ~/.crystaldolphin/config.json and uses camelCase keys.
// Values missing from the file keep their DefaultConfig value.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AgentsConfig selects how sub-agents run.
type AgentsConfig struct {
	// Endpoint of the remote agent worker. Empty disables remote runs.
	Endpoint       string `json:"endpoint"`
	Token          string `json:"token,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds"` // 0 waits indefinitely
	// Catalogue is a YAML file overlaying the built-in archetypes and workflows.
	Catalogue string `json:"catalogue"`
}

func defaultAgentsConfig() AgentsConfig {
	return AgentsConfig{Catalogue: "~/.crystaldolphin/catalogue.yaml"}
}

// WebSearchConfig configures the Brave web-search tool.
type WebSearchConfig struct {
	APIKey     string `json:"apiKey"`
	MaxResults int    `json:"maxResults"`
}

// WebFetchConfig configures web_fetch.
type WebFetchConfig struct {
	MaxChars       int `json:"maxChars"`
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// WebToolsConfig groups web-related tool settings.
type WebToolsConfig struct {
	Search WebSearchConfig `json:"search"`
	Fetch  WebFetchConfig  `json:"fetch"`
}

// MCPServerConfig describes one MCP server connection (stdio or HTTP).
type MCPServerConfig struct {
	Command     string            `json:"command,omitempty"`
	Args        []string          `json:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	URL         string            `json:"url,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Permissions []string          `json:"permissions,omitempty"`
}

// ProjectToolsConfig lists the MCP servers serving one project's tools.
type ProjectToolsConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
}

// WorkspaceConfig configures the file and command tools. An empty Path
// disables them.
type WorkspaceConfig struct {
	Path                string            `json:"path"`
	RestrictToWorkspace bool              `json:"restrictToWorkspace"`
	ExecTimeoutSeconds  int               `json:"execTimeoutSeconds"`
	DeployScripts       map[string]string `json:"deployScripts,omitempty"`
}

// ToolsConfig groups all tool-level settings.
type ToolsConfig struct {
	Web               WebToolsConfig                `json:"web"`
	Workspace         WorkspaceConfig               `json:"workspace"`
	Projects          map[string]ProjectToolsConfig `json:"projects"`
	MCPTimeoutSeconds int                           `json:"mcpTimeoutSeconds"`
}

func defaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		Web: WebToolsConfig{
			Search: WebSearchConfig{MaxResults: 5},
			Fetch:  WebFetchConfig{MaxChars: 50000, TimeoutSeconds: 30},
		},
		Workspace: WorkspaceConfig{
			Path:                "~/.crystaldolphin/workspace",
			RestrictToWorkspace: true,
			ExecTimeoutSeconds:  60,
		},
		Projects:          map[string]ProjectToolsConfig{},
		MCPTimeoutSeconds: 30,
	}
}

// RedisConfig holds the Redis connection for the redis history driver.
type RedisConfig struct {
	Address    string `json:"address"`
	Password   string `json:"password,omitempty"`
	DB         int    `json:"db"`
	Key        string `json:"key"`
	MaxEntries int64  `json:"maxEntries"`
}

// History drivers.
const (
	HistoryMemory = "memory"
	HistoryRedis  = "redis"
)

// HistoryConfig selects where finished runs are recorded.
type HistoryConfig struct {
	Driver string      `json:"driver"` // "memory" | "redis"
	Limit  int         `json:"limit"`  // memory driver only
	Redis  RedisConfig `json:"redis"`
}

func defaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Driver: HistoryMemory,
		Limit:  1000,
		Redis:  RedisConfig{Address: "localhost:6379", Key: "crystaldolphin:history", MaxEntries: 10000},
	}
}

// ScheduleConfig controls the workflow scheduler started by serve.
type ScheduleConfig struct {
	Enabled   bool   `json:"enabled"`
	StorePath string `json:"storePath"`
}

func defaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{Enabled: true, StorePath: "~/.crystaldolphin/schedule/jobs.json"}
}

// LogConfig configures the slog default logger.
type LogConfig struct {
	Level  string `json:"level"`  // debug | info | warn | error
	Format string `json:"format"` // text | json
}

// IdentityConfig is the caller identity used by the CLI.
type IdentityConfig struct {
	UserID      string   `json:"userId"`
	OrgID       string   `json:"organizationId,omitempty"`
	ProjectID   string   `json:"projectId,omitempty"`
	Permissions []string `json:"permissions"`
}

func defaultIdentityConfig() IdentityConfig {
	return IdentityConfig{UserID: "local", Permissions: []string{"agents:read"}}
}

// Config is the root configuration object.
type Config struct {
	Agents   AgentsConfig   `json:"agents"`
	Tools    ToolsConfig    `json:"tools"`
	History  HistoryConfig  `json:"history"`
	Schedule ScheduleConfig `json:"schedule"`
	Log      LogConfig      `json:"log"`
	Identity IdentityConfig `json:"identity"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Agents:   defaultAgentsConfig(),
		Tools:    defaultToolsConfig(),
		History:  defaultHistoryConfig(),
		Schedule: defaultScheduleConfig(),
		Log:      LogConfig{Level: "info", Format: "text"},
		Identity: defaultIdentityConfig(),
	}
}

// AgentTimeout is the worker request timeout; zero means none.
func (c *Config) AgentTimeout() time.Duration {
	return time.Duration(c.Agents.TimeoutSeconds) * time.Second
}

// CataloguePath returns the expanded catalogue path.
func (c *Config) CataloguePath() string { return ExpandHome(c.Agents.Catalogue) }

// WorkspacePath returns the expanded workspace root, or "" when disabled.
func (c *Config) WorkspacePath() string { return ExpandHome(c.Tools.Workspace.Path) }

// SchedulePath returns the expanded job file path.
func (c *Config) SchedulePath() string {
	if c.Schedule.StorePath == "" {
		return filepath.Join(DataDir(), "schedule", "jobs.json")
	}
	return ExpandHome(c.Schedule.StorePath)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
