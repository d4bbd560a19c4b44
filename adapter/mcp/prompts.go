package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common recurrence workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("plan_recurrence").
		Description("Turn a plain-language schedule into a recurrence rule and create the task.").
		Argument("task", "What needs to be done", true).
		Argument("schedule", "How often, e.g. \"every other Tuesday\" or \"the last Friday of each quarter\"", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			task := args["task"]
			if task == "" {
				task = "[Please specify the task]"
			}
			schedule := args["schedule"]
			if schedule == "" {
				schedule = "[Please describe how often it repeats]"
			}

			return &mcp.PromptResult{
				Description: "Recurrence Planner",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Help me schedule a repeating task.

**Task:** %s
**Schedule:** %s

1. Translate the schedule into a recurrence with frequency (daily, weekly, monthly or yearly),
   interval, and the daysOfWeek (0=Sunday), daysOfMonth, monthsOfYear or ordinalWeekdays it needs.
2. Call rule.preview with that recurrence and show me the description and the next dates.
3. If the dates match what I meant, list my task lists with tasklist.list and ask which one to use.
4. Create the task with task.create, using the first previewed date as due_date.

If a day of month does not exist in some months (e.g. the 31st), point out that those months are skipped.`, task, schedule),
						},
					},
				},
			}, nil
		})

	srv.Prompt("daily_agenda").
		Description("Walk through today's occurrences and clear what is overdue.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Daily Agenda",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Let's go through my agenda. Please:

1. Read the recurra://occurrences resource
2. Summarize what is overdue, what is due today and what is coming up

For each overdue occurrence, help me decide whether I already did it (complete it with
occurrence.toggle and complete=true) or whether the rule no longer fits (adjust it with task.repeat).
Finish with the list of things left for today.`,
						},
					},
				},
			}, nil
		})

	return nil
}
