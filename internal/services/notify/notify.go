// Package notify posts plan-run summaries to Telegram. Optional: when
// disabled or unconfigured, the service is a no-op.
package notify

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"autoplan/internal/planner"
	"autoplan/pkg/logx"
)

type Config struct {
	Enabled    bool
	Token      string
	ChatID     int64
	RatePerSec int
}

type Service struct {
	cfg     Config
	bot     *tele.Bot
	limiter *rate.Limiter
	log     logx.Logger
}

// New builds the notifier. A disabled config returns a working no-op service.
func New(cfg Config, log logx.Logger) (*Service, error) {
	s := &Service{cfg: cfg, log: log}
	if !cfg.Enabled {
		return s, nil
	}
	if strings.TrimSpace(cfg.Token) == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("notify: token and chat_id are required when enabled")
	}

	bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	s.bot = bot

	per := cfg.RatePerSec
	if per <= 0 {
		per = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(per), per)
	return s, nil
}

// Enabled reports whether messages will actually be sent.
func (s *Service) Enabled() bool { return s.cfg.Enabled && s.bot != nil }

// PlanSummary sends one message describing a completed plan run.
func (s *Service) PlanSummary(ctx context.Context, res *planner.Result, misses []planner.Miss, attempts int) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := formatSummary(res, misses, attempts)
	_, err := s.bot.Send(tele.ChatID(s.cfg.ChatID), msg)
	if err != nil {
		s.log.Warn("plan summary send failed", logx.Int64("chat_id", s.cfg.ChatID), logx.Err(err))
		return err
	}
	s.log.Debug("plan summary sent", logx.Int64("chat_id", s.cfg.ChatID))
	return nil
}

func formatSummary(res *planner.Result, misses []planner.Miss, attempts int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan: %d blocks scheduled, %d left over", len(res.Entries), len(res.Unscheduled))
	if attempts > 1 {
		fmt.Fprintf(&b, " (auto-adjust, %d attempts)", attempts)
	}
	b.WriteString("\n")

	if len(res.Entries) > 0 {
		first, last := res.Entries[0], res.Entries[len(res.Entries)-1]
		fmt.Fprintf(&b, "Window: %s - %s\n",
			first.Start.Format("Mon Jan 2 15:04"), last.End.Format("Mon Jan 2 15:04"))
	}

	if len(misses) == 0 {
		b.WriteString("All deadlines met.")
		return b.String()
	}
	fmt.Fprintf(&b, "%d deadline misses:\n", len(misses))
	for _, m := range misses {
		fmt.Fprintf(&b, "- %s (due %s", m.Title, m.Due.Format("2006-01-02"))
		switch {
		case m.OverageDays != nil:
			fmt.Fprintf(&b, ", %.1f days over)", *m.OverageDays)
		case m.UnscheduledBlocks > 0:
			fmt.Fprintf(&b, ", %d blocks unscheduled)", m.UnscheduledBlocks)
		default:
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
