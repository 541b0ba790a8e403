package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Command runs a shell command per event. The template may reference
// {{.Title}}, {{.Body}}, {{.Machine}}, {{.JobID}} and {{.Achievement}}.
type Command struct {
	template string
}

// NewCommand creates a Command sender, e.g.
// "notify-send 'Spindle' '{{.Title}}'".
func NewCommand(template string) *Command {
	return &Command{template: template}
}

func (c *Command) Name() string { return "command" }

func (c *Command) Send(ctx context.Context, evt Event) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", templateEvent(c.template, evt))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify: command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// templateEvent replaces placeholders in the command template with event values.
func templateEvent(command string, evt Event) string {
	r := strings.NewReplacer(
		"{{.Title}}", evt.Title,
		"{{.Body}}", evt.Body,
		"{{.Machine}}", evt.Machine,
		"{{.JobID}}", strconv.FormatUint(uint64(evt.JobID), 10),
		"{{.Achievement}}", strconv.FormatFloat(evt.Achievement, 'f', 1, 64),
	)
	return r.Replace(command)
}
