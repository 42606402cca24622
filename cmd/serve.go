package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

var serveReportEvery time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled workflows until interrupted",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&serveReportEvery, "report-every", 5*time.Minute, "Log active sub-agents at this interval (0 disables)")
}

func runServe(_ *cobra.Command, _ []string) error {
	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := buildContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	var scheduler func(context.Context) error
	if c.Config().Schedule.Enabled {
		scheduler = c.Scheduler().Start
		fmt.Printf("✓ Scheduler: %d job(s) from %s\n", len(c.Scheduler().List(false)), c.Config().SchedulePath())
	} else {
		fmt.Println("Warning: scheduler disabled in config")
	}

	fmt.Printf("%s crystaldolphin running. Press Ctrl+C to stop.\n", logo)

	if err := serveUntilDone(ctx, scheduler, c.Runtime().ActiveSubAgents, serveReportEvery); err != nil {
		fmt.Fprintf(os.Stderr, "serve error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}

// serveUntilDone runs the scheduler (when non-nil) and the active sub-agent
// reporter (when every > 0) and returns once ctx is done, whichever of them
// is enabled.
func serveUntilDone(ctx context.Context, scheduler func(context.Context) error, active func() []schema.AgentHandle, every time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return gctx.Err()
	})
	if scheduler != nil {
		g.Go(func() error { return scheduler(gctx) })
	}
	if every > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
					handles := active()
					slog.Info("Active subagents", "count", len(handles))
					for _, h := range handles {
						slog.Debug("Active subagent", "id", h.AgentID, "parent", h.ParentID, "type", h.AgentType, "since", h.StartedAt)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
