// Package notify delivers job completion notices to operators through a
// shell command, Slack, or Discord.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/zulandar/spindle/internal/config"
	"github.com/zulandar/spindle/internal/job"
	"github.com/zulandar/spindle/internal/logger"
)

// Field is a labelled value shown alongside an event.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Event is a channel-neutral completion notice.
type Event struct {
	Title       string
	Body        string
	Color       string // hex, e.g. "#36a64f"
	Machine     string
	JobID       uint
	Achievement float64
	Fields      []Field
}

// Sender delivers an Event to one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, evt Event) error
}

// Notifier fans finish results out to every configured sender.
type Notifier struct {
	senders []Sender
	log     *slog.Logger
}

// New creates a Notifier over senders.
func New(log *slog.Logger, senders ...Sender) *Notifier {
	if log == nil {
		log = logger.Discard()
	}
	return &Notifier{senders: senders, log: log}
}

// FromConfig builds the senders enabled in cfg. It returns nil when none
// are enabled.
func FromConfig(cfg config.NotifyConfig, log *slog.Logger) (*Notifier, error) {
	var senders []Sender
	if cfg.Command != "" {
		senders = append(senders, NewCommand(cfg.Command))
	}
	if cfg.Slack.Enabled() {
		s, err := NewSlack(cfg.Slack, nil)
		if err != nil {
			return nil, err
		}
		senders = append(senders, s)
	}
	if cfg.Discord.Enabled() {
		d, err := NewDiscord(cfg.Discord, nil)
		if err != nil {
			return nil, err
		}
		senders = append(senders, d)
	}
	if len(senders) == 0 {
		return nil, nil
	}
	return New(log, senders...), nil
}

// Senders returns the configured sender names.
func (n *Notifier) Senders() []string {
	names := make([]string, len(n.senders))
	for i, s := range n.senders {
		names[i] = s.Name()
	}
	return names
}

// NotifyFinished sends a completion notice to every sender. A failing
// sender does not stop the others; all failures are returned joined.
func (n *Notifier) NotifyFinished(ctx context.Context, res *job.FinishResult) error {
	evt := FinishedEvent(res)
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, evt); err != nil {
			n.log.Warn("notification failed", "sender", s.Name(), "job_id", evt.JobID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.log.Debug("notification sent", "sender", s.Name(), "job_id", evt.JobID)
	}
	return errors.Join(errs...)
}

// FinishedEvent formats a finish result for operators.
func FinishedEvent(res *job.FinishResult) Event {
	a := res.Archived
	evt := Event{
		Title:       fmt.Sprintf("%s finished job %d", a.Machine, a.SourceJobID),
		Body:        fmt.Sprintf("%s %s (%s) by %s", a.Model, a.Part, a.Size, a.Operator),
		Color:       achievementColor(a.Achievement),
		Machine:     a.Machine,
		JobID:       a.SourceJobID,
		Achievement: a.Achievement,
		Fields: []Field{
			{Name: "Achievement", Value: formatPercent(a.Achievement), Short: true},
			{Name: "Target", Value: a.TargetHours, Short: true},
			{Name: "Start", Value: orDash(a.Start), Short: true},
			{Name: "Finish", Value: orDash(a.Finish), Short: true},
		},
	}
	if res.Promoted != nil {
		p := res.Promoted
		evt.Fields = append(evt.Fields, Field{
			Name:  "Up next",
			Value: fmt.Sprintf("job %d: %s %s", p.ID, p.Model, p.Part),
		})
	}
	return evt
}

func achievementColor(pct float64) string {
	switch {
	case pct >= 90:
		return "#36a64f"
	case pct >= 50:
		return "#daa038"
	default:
		return "#d00000"
	}
}

func formatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
