package workers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/futureself/internal/cache"
	"github.com/yoockh/futureself/internal/events"
	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/services"
)

// StatusAPI is what the pool needs from the remote client.
type StatusAPI interface {
	ReportStatus(ctx context.Context, userID, reportID string) (*models.ReportTicket, error)
}

// ReportStatusEvent is published to the user's report channel.
type ReportStatusEvent struct {
	ReportID string              `json:"report_id"`
	Status   models.ReportStatus `json:"status"`
	// TimedOut marks a watch that gave up before the report was ready.
	TimedOut bool `json:"timed_out,omitempty"`
}

// ReportWorkerPool watches triggered reports until they are ready and
// pushes status changes to the user's sockets. Jobs come from the Redis
// stream consumer group, or from Jobs when running in-process.
type ReportWorkerPool struct {
	Redis *redis.Client
	Jobs  <-chan events.ReportJob

	API       StatusAPI
	Publisher events.Publisher
	Cache     cache.Cache

	NumWorkers   int
	PollInterval time.Duration
	PollTimeout  time.Duration

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *ReportWorkerPool) defaults() error {
	if (p.Redis == nil && p.Jobs == nil) || p.API == nil || p.Publisher == nil {
		return errors.New("ReportWorkerPool missing dependency: Redis or Jobs, API and Publisher must be set")
	}
	if p.Stream == "" {
		p.Stream = events.ReportStream
	}
	if p.Group == "" {
		p.Group = "report-watchers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.PollInterval <= 0 {
		p.PollInterval = 3 * time.Second
	}
	if p.PollTimeout <= 0 {
		p.PollTimeout = 5 * time.Minute
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	return nil
}

// Run consumes jobs until ctx is cancelled and all workers have returned.
func (p *ReportWorkerPool) Run(ctx context.Context) error {
	if err := p.defaults(); err != nil {
		return err
	}

	if p.Redis != nil {
		err := p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err()
		if err != nil && !isBusyGroup(err) {
			return err
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.Redis != nil {
				p.runConsumer(ctx, consumer)
				return
			}
			p.runLocal(ctx)
		}()
	}
	p.Logger.WithField("workers", p.NumWorkers).Info("report workers started")
	wg.Wait()
	return nil
}

func (p *ReportWorkerPool) runLocal(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.Jobs:
			if !ok {
				return
			}
			p.Watch(ctx, job)
		}
	}
}

func (p *ReportWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("report stream read failed")
			sleep(ctx, 500*time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				if job, ok := events.ParseReportJob(msg.Values); ok {
					p.Watch(ctx, job)
				} else {
					p.Logger.WithField("redis_id", msg.ID).Warn("dropping malformed report job")
				}
				_ = p.Redis.XAck(context.WithoutCancel(ctx), p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// Watch polls the remote status of one report until it is ready, the poll
// timeout passes or ctx ends. Every observed status change is published.
func (p *ReportWorkerPool) Watch(ctx context.Context, job events.ReportJob) {
	log := p.Logger.WithFields(logrus.Fields{
		"user_id":   job.UserID,
		"report_id": job.ReportID,
	})
	channel := events.ReportChannel(job.UserID)
	deadline := time.NewTimer(p.PollTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(p.PollInterval)
	defer tick.Stop()

	var last models.ReportStatus
	for {
		t, err := p.API.ReportStatus(ctx, job.UserID, job.ReportID)
		switch {
		case err != nil:
			log.WithError(err).Debug("report status poll failed")
		case t.Status != last:
			last = t.Status
			p.publish(ctx, channel, ReportStatusEvent{ReportID: job.ReportID, Status: t.Status}, log)
		}
		if last == models.ReportReady {
			if p.Cache != nil {
				_ = services.RememberReport(ctx, p.Cache, job.UserID, models.ReportTicket{ReportID: job.ReportID, Status: last})
			}
			log.Info("report ready")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			log.Warn("report watch timed out")
			p.publish(ctx, channel, ReportStatusEvent{ReportID: job.ReportID, Status: last, TimedOut: true}, log)
			return
		case <-tick.C:
		}
	}
}

func (p *ReportWorkerPool) publish(ctx context.Context, channel string, ev ReportStatusEvent, log *logrus.Entry) {
	err := p.Publisher.Publish(ctx, channel, events.Event{Type: events.TypeReportStatus, Data: ev})
	if err != nil {
		log.WithError(err).Warn("report status publish failed")
	}
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
