// Package daemon runs the planner on a schedule: a cron spec or daily HH:MM
// trigger, plus an optional re-plan whenever the config file changes.
package daemon

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	sdnotify "github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"autoplan/internal/config"
	"autoplan/pkg/logx"
)

type Config struct {
	Enabled bool

	// Schedule is a cron spec ("30 6 * * *") or a daily HH:MM ("06:30").
	Schedule string
	Timezone string // IANA TZ, e.g. "Europe/Berlin"

	WatchConfig bool
	PlanOnStart bool
}

// PlanFunc executes one plan run at the given wall-clock time.
type PlanFunc func(ctx context.Context, now time.Time) error

type Service struct {
	cfg    Config
	cfgMgr *config.Manager
	run    PlanFunc
	log    logx.Logger

	parser cron.Parser
}

func New(cfg Config, cfgMgr *config.Manager, run PlanFunc, log logx.Logger) *Service {
	return &Service{
		cfg:    cfg,
		cfgMgr: cfgMgr,
		run:    run,
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Run blocks until ctx is done, planning on every trigger. Runs are strictly
// sequential; a trigger firing while a run is in flight is skipped.
func (s *Service) Run(ctx context.Context) error {
	loc := s.loadLocation()
	spec, err := s.resolveSpec()
	if err != nil {
		return err
	}

	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	triggers := make(chan string, 1)
	if _, err := c.AddFunc(spec, func() {
		select {
		case triggers <- "schedule":
		default:
		}
	}); err != nil {
		return fmt.Errorf("daemon schedule %q: %w", s.cfg.Schedule, err)
	}

	var cfgCh chan *config.Config
	if s.cfg.WatchConfig {
		cfgCh = s.cfgMgr.Subscribe(1)
		go func() {
			if err := s.cfgMgr.Watch(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("config watch stopped", logx.Err(err))
			}
		}()
	}

	c.Start()
	defer func() { <-c.Stop().Done() }()

	// Under systemd this flips the unit to ready; elsewhere it is a no-op.
	if ok, err := sdnotify.SdNotify(false, sdnotify.SdNotifyReady); err != nil {
		s.log.Warn("sd_notify failed", logx.Err(err))
	} else if ok {
		s.log.Debug("sd_notify ready sent")
	}
	s.log.Info("daemon started", logx.String("schedule", spec), logx.String("tz", loc.String()))

	if s.cfg.PlanOnStart {
		s.plan(ctx, "startup")
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("daemon stopped")
			return ctx.Err()
		case reason := <-triggers:
			s.plan(ctx, reason)
		case <-cfgCh:
			s.plan(ctx, "config change")
		}
	}
}

func (s *Service) plan(ctx context.Context, reason string) {
	start := time.Now()
	if err := s.run(ctx, start); err != nil {
		s.log.Error("plan run failed", logx.String("reason", reason), logx.Err(err))
		return
	}
	s.log.Info("plan run ok", logx.String("reason", reason), logx.Duration("took", time.Since(start)))
}

// resolveSpec turns the configured schedule into a cron spec. HH:MM becomes a
// daily trigger; empty defaults to 06:00.
func (s *Service) resolveSpec() (string, error) {
	raw := strings.TrimSpace(s.cfg.Schedule)
	if raw == "" {
		raw = "06:00"
	}
	if h, m, err := parseHHMM(raw); err == nil {
		return fmt.Sprintf("%d %d * * *", m, h), nil
	}
	if _, err := s.parser.Parse(raw); err != nil {
		return "", fmt.Errorf("daemon schedule %q: %w", raw, err)
	}
	return raw, nil
}

func (s *Service) loadLocation() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func parseHHMM(s string) (hour int, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}
