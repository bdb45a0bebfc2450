package surveysync

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultCronSpec = "@every 30m"

// Scheduler triggers periodic runs. The global enable flag and the
// schedule-specific flag gate it independently; either one off makes
// Start a no-op.
type Scheduler struct {
	cfg    Config
	engine *Engine
	logger *logrus.Logger
	cron   *cron.Cron
}

func NewScheduler(cfg Config, engine *Engine, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{cfg: cfg, engine: engine, logger: logger}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled || !s.cfg.ScheduleEnabled {
		s.logger.Info("survey sync scheduler disabled")
		return nil
	}

	spec := s.cfg.CronSpec
	if spec == "" {
		spec = defaultCronSpec
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		summary, err := s.engine.Run(context.Background(), TriggerScheduled)
		if err != nil {
			if err == ErrRunInProgress {
				s.logger.Info("survey sync: scheduled run skipped, another run in progress")
				return
			}
			s.logger.Errorf("survey sync: scheduled run failed: %v", err)
			return
		}
		s.logger.WithFields(logrus.Fields{
			"synced_count": summary.SyncedCount,
			"failed_count": summary.FailedCount,
		}).Info("survey sync: scheduled run complete")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Infof("survey sync scheduler started (spec=%s)", spec)
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
