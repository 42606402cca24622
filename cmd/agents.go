package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/orchestrator/internal/schema"
	"github.com/crystaldolphin/orchestrator/internal/shared/cmdutils"
)

var delegateCmd = &cobra.Command{
	Use:   "delegate <task>",
	Short: "Recommend a sub-agent archetype for a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := buildContainer(context.Background())
		if err != nil {
			return err
		}
		defer c.Close()

		rec := c.Selector().Classify(strings.Join(args, " "))
		fmt.Printf("Agent:      %s\n", rec.RecommendedAgent)
		fmt.Printf("Confidence: %.2f\n", rec.Confidence)
		fmt.Printf("Reasoning:  %s\n", rec.Reasoning)
		return nil
	},
}

var (
	spawnReturn   string
	spawnProject  string
	spawnCallback string
	spawnTimeout  time.Duration
)

var spawnCmd = &cobra.Command{
	Use:   "spawn <agent-type> <task>",
	Short: "Run a sub-agent and print its result",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		mode := schema.ReturnMode(spawnReturn)
		if mode == schema.ReturnAsync {
			return fmt.Errorf("async spawns outlive the command; use --return wait")
		}

		ctx := context.Background()
		if spawnTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, spawnTimeout)
			defer cancel()
		}
		c, err := buildContainer(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		ectx := c.Context()
		if spawnProject != "" {
			ectx.ProjectID = spawnProject
		}
		if spawnCallback != "" {
			ectx = ectx.With(schema.ContextCallbackURL, spawnCallback)
		}

		res := c.Spawner().Spawn(ctx, schema.SpawnRequest{
			AgentType: schema.AgentType(strings.ToUpper(args[0])),
			Task:      strings.Join(args[1:], " "),
			Context:   ectx,
			ReturnTo:  mode,
		})
		if !res.Success {
			return fmt.Errorf("spawn failed: %s", res.Error)
		}
		if text, ok := res.Result.(string); ok {
			cmdutils.PrintResponse(text)
			fmt.Printf("agent %s finished in %s\n", res.AgentID, res.Duration.Round(time.Millisecond))
			return nil
		}
		return cmdutils.PrintJSON(res)
	},
}

func init() {
	spawnCmd.Flags().StringVarP(&spawnReturn, "return", "r", string(schema.ReturnWait), "Return mode: wait or callback")
	spawnCmd.Flags().StringVarP(&spawnProject, "project", "p", "", "Project whose tools the agent may use")
	spawnCmd.Flags().StringVar(&spawnCallback, "callback-url", "", "Callback target for --return callback")
	spawnCmd.Flags().DurationVar(&spawnTimeout, "timeout", 0, "Give up after this long (0 waits indefinitely)")
}
