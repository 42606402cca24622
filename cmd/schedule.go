package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/orchestrator/internal/schedule"
	"github.com/crystaldolphin/orchestrator/internal/shared/cmdutils"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage scheduled workflows",
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleRemoveCmd)
	scheduleCmd.AddCommand(scheduleEnableCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
}

// jobStore opens the job file without wiring a runner; enough for edits.
func jobStore() (*schedule.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return schedule.NewService(cfg.SchedulePath(), nil), nil
}

var scheduleListAll bool

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	RunE: func(_ *cobra.Command, _ []string) error {
		svc, err := jobStore()
		if err != nil {
			return err
		}
		jobs := svc.List(scheduleListAll)
		if len(jobs) == 0 {
			fmt.Println("No scheduled jobs.")
			return nil
		}
		fmt.Printf("%-36s %-18s %-20s %-18s %-9s %-16s %s\n", "ID", "Name", "Workflow", "Schedule", "Status", "Next Run", "Last")
		fmt.Println(cmdutils.Rule(130))
		for _, j := range jobs {
			status := "enabled"
			if !j.Enabled {
				status = "disabled"
			}
			nextRun := ""
			if j.State.NextRunAtMs > 0 {
				nextRun = time.UnixMilli(j.State.NextRunAtMs).Format("2006-01-02 15:04")
			}
			fmt.Printf("%-36s %-18s %-20s %-18s %-9s %-16s %s\n",
				j.ID, cmdutils.Fit(j.Name, 18), cmdutils.Fit(j.Target.Workflow, 20),
				cmdutils.Fit(formatSchedule(j.Schedule), 18), status, nextRun, j.State.LastStatus)
		}
		return nil
	},
}

func init() {
	scheduleListCmd.Flags().BoolVarP(&scheduleListAll, "all", "a", false, "Include disabled jobs")
}

var (
	scheduleAddName     string
	scheduleAddWorkflow string
	scheduleAddInput    string
	scheduleAddProject  string
	scheduleAddEvery    int
	scheduleAddCron     string
	scheduleAddTZ       string
	scheduleAddAt       string
)

var scheduleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Schedule a named workflow",
	RunE: func(_ *cobra.Command, _ []string) error {
		if scheduleAddTZ != "" && scheduleAddCron == "" {
			return fmt.Errorf("--tz can only be used with --cron")
		}

		var sched schedule.Schedule
		switch {
		case scheduleAddEvery > 0:
			sched = schedule.Schedule{Kind: schedule.KindEvery, EveryMs: int64(scheduleAddEvery) * 1000}
		case scheduleAddCron != "":
			sched = schedule.Schedule{Kind: schedule.KindCron, Expr: scheduleAddCron, TZ: scheduleAddTZ}
		case scheduleAddAt != "":
			dt, err := time.ParseInLocation("2006-01-02T15:04:05", scheduleAddAt, time.Local)
			if err != nil {
				dt, err = time.Parse(time.RFC3339, scheduleAddAt)
				if err != nil {
					return fmt.Errorf("invalid --at value %q: %w", scheduleAddAt, err)
				}
			}
			sched = schedule.Schedule{Kind: schedule.KindAt, AtMs: dt.UnixMilli()}
		default:
			return fmt.Errorf("must specify --every, --cron, or --at")
		}

		svc, err := jobStore()
		if err != nil {
			return err
		}
		job, err := svc.Add(scheduleAddName, sched, schedule.Target{
			Workflow:  scheduleAddWorkflow,
			Input:     scheduleAddInput,
			ProjectID: scheduleAddProject,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Added job '%s' (%s)\n", job.Name, job.ID)
		return nil
	},
}

func init() {
	f := scheduleAddCmd.Flags()
	f.StringVarP(&scheduleAddName, "name", "n", "", "Job name (required)")
	f.StringVarP(&scheduleAddWorkflow, "workflow", "w", "", "Named workflow to run (required)")
	f.StringVarP(&scheduleAddInput, "input", "i", "", "Input appended to each workflow task")
	f.StringVarP(&scheduleAddProject, "project", "p", "", "Project context for the run")
	f.IntVarP(&scheduleAddEvery, "every", "e", 0, "Run every N seconds")
	f.StringVarP(&scheduleAddCron, "cron", "c", "", "Cron expression (e.g. '0 9 * * 1')")
	f.StringVar(&scheduleAddTZ, "tz", "", "IANA timezone for --cron")
	f.StringVar(&scheduleAddAt, "at", "", "Run once at ISO datetime")

	_ = scheduleAddCmd.MarkFlagRequired("name")
	_ = scheduleAddCmd.MarkFlagRequired("workflow")
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove <job-id>",
	Short: "Remove a scheduled job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		svc, err := jobStore()
		if err != nil {
			return err
		}
		if svc.Remove(args[0]) {
			fmt.Printf("✓ Removed job %s\n", args[0])
		} else {
			fmt.Printf("Job %s not found\n", args[0])
		}
		return nil
	},
}

var scheduleEnableDisable bool

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable <job-id>",
	Short: "Enable (or disable) a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		svc, err := jobStore()
		if err != nil {
			return err
		}
		job, err := svc.Enable(args[0], !scheduleEnableDisable)
		if err != nil {
			return err
		}
		action := "enabled"
		if scheduleEnableDisable {
			action = "disabled"
		}
		fmt.Printf("✓ Job '%s' %s\n", job.Name, action)
		return nil
	},
}

func init() {
	scheduleEnableCmd.Flags().BoolVar(&scheduleEnableDisable, "disable", false, "Disable instead of enable")
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Run a job now, even if disabled",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		c, err := buildContainer(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Scheduler().RunNow(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("✓ Job executed")
		return nil
	},
}

func formatSchedule(s schedule.Schedule) string {
	switch s.Kind {
	case schedule.KindEvery:
		return fmt.Sprintf("every %ds", s.EveryMs/1000)
	case schedule.KindCron:
		if s.TZ != "" {
			return s.Expr + " (" + s.TZ + ")"
		}
		return s.Expr
	case schedule.KindAt:
		return "once " + time.UnixMilli(s.AtMs).Format("01-02 15:04")
	}
	return s.Kind
}
