// Package jobs runs the background maintenance work: the periodic sweep
// that flips overdue inventory batches to "expired".
package jobs

import (
	"context"
	"time"

	"bloodlink-api-server/internal/cache"
	"bloodlink-api-server/internal/engine"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type Scheduler struct {
	scheduler gocron.Scheduler
	engine    *engine.Engine
	feed      *cache.FeedCache
	log       *zap.Logger
}

func NewScheduler(eng *engine.Engine, feed *cache.FeedCache, sweepInterval time.Duration, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		scheduler: scheduler,
		engine:    eng,
		feed:      feed,
		log:       log,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(s.sweepExpiredBatches),
		gocron.WithName("expire-overdue-batches"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Info("starting background scheduler")
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	s.log.Info("stopping background scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) sweepExpiredBatches() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.engine.ExpireOverdueBatches(ctx)
	if err != nil {
		s.log.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 && s.feed != nil {
		s.feed.Invalidate(ctx)
	}
}
