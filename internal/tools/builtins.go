package tools

import "github.com/crystaldolphin/orchestrator/internal/schema"

// WithBuiltins registers the orchestration tools (agents category), the web
// tools and current_time (general). Category order is agents, web, general.
func (b *RegistryBuilder) WithBuiltins(spawner schema.Spawner, classifier schema.Classifier, web WebOptions) *RegistryBuilder {
	b.WithTool(schema.CategoryAgents, NewSpawnTool(spawner)).
		WithTool(schema.CategoryAgents, NewDelegateTool(classifier)).
		WithTool(schema.CategoryAgents, NewListAgentsTool()).
		WithTool(schema.CategoryAgents, NewAgentHistoryTool())
	for _, t := range NewWebTools(web) {
		b.WithTool(schema.CategoryWeb, t)
	}
	return b.WithTool(schema.CategoryGeneral, NewCurrentTimeTool())
}

// WithWorkspace registers the tools that work on the workspace: file and
// command tools (code), read-only inspection (review) and configured deploy
// scripts (deployment). An empty opts.Root registers nothing.
func (b *RegistryBuilder) WithWorkspace(opts WorkspaceOptions) *RegistryBuilder {
	for _, t := range NewWorkspaceTools(opts) {
		b.WithTool(schema.CategoryCode, t)
	}
	for _, t := range NewReviewTools(opts) {
		b.WithTool(schema.CategoryReview, t)
	}
	for _, t := range NewDeploymentTools(opts) {
		b.WithTool(schema.CategoryDeployment, t)
	}
	return b
}
