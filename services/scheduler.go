package services

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/wanessald/chatbot-payroll/utils"
)

// ReloadScheduler reloads the payroll source on a cron schedule.
type ReloadScheduler struct {
	scheduler gocron.Scheduler
}

// NewReloadScheduler registers the reload job. schedule is a five-field cron
// expression; the scheduler does not run until Start.
func NewReloadScheduler(schedule string, reloader *Reloader) (*ReloadScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(func() {
			if _, err := reloader.Reload(context.Background()); err != nil {
				utils.Logger.Error("Scheduled payroll reload failed", zap.Error(err))
			}
		}),
		gocron.WithName("payroll-reload"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.Shutdown()
		return nil, fmt.Errorf("invalid reload schedule %q: %w", schedule, err)
	}

	return &ReloadScheduler{scheduler: s}, nil
}

func (r *ReloadScheduler) Start() {
	r.scheduler.Start()
}

func (r *ReloadScheduler) Shutdown() error {
	return r.scheduler.Shutdown()
}
