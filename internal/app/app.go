// Package app wires the config, store, planner, apply and notify layers into
// one run entry point shared by the CLI and the daemon.
package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"autoplan/internal/apply"
	"autoplan/internal/config"
	"autoplan/internal/planner"
	"autoplan/internal/services/notify"
	"autoplan/internal/store"
	"autoplan/pkg/logx"
)

type App struct {
	cfgMgr   *config.Manager
	store    *store.Store
	applier  *apply.Applier
	notifier *notify.Service
	log      logx.Logger
}

// New loads the config file (a missing file yields defaults), opens the store
// and builds the notifier. Close releases the store.
func New(cfgPath string, log logx.Logger) (*App, error) {
	mgr := config.NewManager(cfgPath, log)
	cfg, err := mgr.Load()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = &config.Config{}
		log.Debug("no config file, using defaults", logx.String("path", cfgPath))
	}

	path := cfg.Storage.Path
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".autoplan", "tasks.db")
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(store.Config{Path: path, BusyTimeout: busy}, log)
	if err != nil {
		return nil, err
	}

	var ncfg notify.Config
	if cfg.Notify != nil {
		ncfg = notify.Config{
			Enabled:    cfg.Notify.Enabled,
			Token:      cfg.Notify.Token,
			ChatID:     cfg.Notify.ChatID,
			RatePerSec: cfg.Notify.RatePerSec,
		}
	}
	nt, err := notify.New(ncfg, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &App{
		cfgMgr:   mgr,
		store:    st,
		applier:  apply.New(st, log),
		notifier: nt,
		log:      log,
	}, nil
}

func (a *App) Close() error                   { return a.store.Close() }
func (a *App) Store() *store.Store            { return a.store }
func (a *App) Config() *config.Config         { return a.cfgMgr.Get() }
func (a *App) ConfigManager() *config.Manager { return a.cfgMgr }

// Summary is the outcome of one plan run.
type Summary struct {
	Result *planner.Result
	Misses []planner.Miss

	UrgencyWeight  float64
	DeadlineWeight float64
	Attempts       int

	MergeReport apply.Report
	PlanReport  apply.Report
	Applied     bool
}

// RunPlan executes one full cycle: reconcile leftover split blocks, schedule,
// and optionally persist the outcome and notify.
//
// With persist=false nothing is written: merges are applied to the snapshot
// in memory so the plan still starts from a clean one-task-per-original
// state.
func (a *App) RunPlan(ctx context.Context, now time.Time, persist bool) (*Summary, error) {
	snap, err := a.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Applied: persist}

	plans := planner.PlanAllMerges(snap)
	if len(plans) > 0 {
		if persist {
			sum.MergeReport = a.applier.Merges(ctx, plans)
			for _, e := range sum.MergeReport.Errors {
				a.log.Warn("merge item failed", logx.String("task", e.TaskID),
					logx.String("op", e.Op), logx.Err(e.Err))
			}
			if snap, err = a.store.Snapshot(ctx); err != nil {
				return nil, err
			}
		} else {
			snap = planner.MergedSnapshot(snap, plans)
		}
	}

	cfg := plannerConfig(a.cfgMgr.Get())
	if cfg.AutoAdjust {
		adj := planner.ScheduleWithAutoAdjust(snap, cfg, now)
		sum.Result = adj.Result
		sum.Misses = adj.Misses
		sum.UrgencyWeight = adj.UrgencyWeight
		sum.DeadlineWeight = adj.DeadlineWeight
		sum.Attempts = adj.Attempts
	} else {
		sum.Result = planner.Schedule(snap, cfg, now)
		sum.Misses = planner.FindMisses(snap, sum.Result, now.Location())
		sum.UrgencyWeight = cfg.UrgencyWeight
		sum.DeadlineWeight = cfg.DeadlineWeight
		sum.Attempts = 1
	}

	a.log.Info("plan computed",
		logx.Int("entries", len(sum.Result.Entries)),
		logx.Int("unscheduled", len(sum.Result.Unscheduled)),
		logx.Int("misses", len(sum.Misses)),
		logx.Int("attempts", sum.Attempts))

	if persist {
		sum.PlanReport = a.applier.Plan(ctx, snap, sum.Result)
		for _, e := range sum.PlanReport.Errors {
			a.log.Warn("apply item failed", logx.String("task", e.TaskID),
				logx.String("op", e.Op), logx.Err(e.Err))
		}
	}

	if err := a.notifier.PlanSummary(ctx, sum.Result, sum.Misses, sum.Attempts); err != nil {
		a.log.Warn("plan notification failed", logx.Err(err))
	}
	return sum, nil
}

// RunMerge reconciles previously split blocks back into single tasks.
func (a *App) RunMerge(ctx context.Context) (apply.Report, error) {
	snap, err := a.store.Snapshot(ctx)
	if err != nil {
		return apply.Report{}, err
	}
	plans := planner.PlanAllMerges(snap)
	rep := a.applier.Merges(ctx, plans)
	a.log.Info("merge reconciled",
		logx.Int("groups", len(plans)),
		logx.Int("deleted", rep.Deleted),
		logx.Int("errors", len(rep.Errors)))
	return rep, nil
}

func plannerConfig(cfg *config.Config) planner.Config {
	if cfg == nil {
		return planner.Config{}.WithDefaults()
	}
	return cfg.PlannerValues()
}
