package tools

import (
	"context"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

const ToolCurrentTime = "current_time"

// now is replaced in tests.
var now = time.Now

// NewCurrentTimeTool returns current_time, which reports the wall clock in an
// optional IANA time zone.
func NewCurrentTimeTool() *Tool {
	return &Tool{
		Definition: schema.ToolDefinition{
			Name:        ToolCurrentTime,
			Description: "Get the current date and time, optionally in an IANA time zone such as Europe/Berlin.",
			Parameters: schema.NewParameterSchema(map[string]schema.Parameter{
				"timezone": {Type: schema.ParamString, Description: "IANA time zone, default UTC"},
			}),
		},
		Category: schema.CategoryGeneral,
		Cost:     schema.CostLow,
		Handler: func(_ context.Context, args map[string]any, _ *schema.ExecutionContext) (any, error) {
			loc := time.UTC
			if tz, _ := args["timezone"].(string); tz != "" {
				l, err := time.LoadLocation(tz)
				if err != nil {
					return nil, errs.Newf(errs.CodeValidation, "unknown time zone %q", tz)
				}
				loc = l
			}
			t := now().In(loc)
			return map[string]any{
				"time":     t.Format(time.RFC3339),
				"timezone": loc.String(),
				"weekday":  t.Weekday().String(),
			}, nil
		},
	}
}
