package mcp

// ServerConfig holds the connection parameters for a single MCP server.
// Exactly one of Command (stdio) or URL (HTTP) is expected.
type ServerConfig struct {
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// Permissions are required of the caller for every tool this server
	// exposes.
	Permissions []string `json:"permissions,omitempty"`
}

// ProjectConfig lists the MCP servers attached to one project, by name.
type ProjectConfig struct {
	Servers map[string]ServerConfig `json:"servers"`
}
