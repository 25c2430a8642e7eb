package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nadmax/pulse/internal/job"
	"github.com/nadmax/pulse/internal/metrics"
	"go.uber.org/zap"
)

const storeWriteTimeout = 5 * time.Second

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	q.logger.Debug("queue worker started", zap.Int("worker", id))

	for {
		select {
		case <-q.ctx.Done():
			q.logger.Debug("queue worker stopped", zap.Int("worker", id))
			return
		case j := <-q.jobs:
			metrics.IncActiveWorkers()
			q.process(j)
			metrics.DecActiveWorkers()
		}
	}
}

func (q *Queue) process(j *job.Job) {
	log := q.logger.With(zap.String("job_id", j.ID), zap.String("job", j.Name))
	metrics.RecordJobWaitTime(j.Name, time.Since(j.CreatedAt))

	handler, exists := q.handler(j.Name)
	if !exists {
		log.Error("no handler registered for job")
		q.finish(j, fmt.Errorf("no handler registered for job: %s", j.Name), 0)
		return
	}

	now := time.Now().UTC()
	j.Status = job.StatusActive
	j.StartedAt = &now
	j.UpdatedAt = now
	q.save(j)

	ctx, cancel := q.jobContext()
	q.track(j.ID, cancel)

	log.Debug("processing job")
	err := invoke(ctx, handler, j.Payload)
	duration := time.Since(now)
	q.untrack(j.ID)

	if err != nil && errors.Is(err, context.Canceled) && q.ctx.Err() == nil {
		metrics.RecordJobCancelled(j.Name)
	}

	q.finish(j, err, duration)
	if err != nil {
		log.Warn("job failed", zap.Error(err), zap.Duration("duration", duration))
		return
	}
	log.Debug("job completed", zap.Duration("duration", duration))
}

func (q *Queue) jobContext() (context.Context, context.CancelFunc) {
	if q.opts.JobTimeout > 0 {
		return context.WithTimeout(q.ctx, q.opts.JobTimeout)
	}
	return context.WithCancel(q.ctx)
}

func (q *Queue) finish(j *job.Job, err error, duration time.Duration) {
	now := time.Now().UTC()
	j.CompletedAt = &now
	j.UpdatedAt = now

	if err != nil {
		j.Status = job.StatusFailed
		j.ErrorMessage = err.Error()
		metrics.RecordJobFailed(j.Name, duration)
	} else {
		j.Status = job.StatusCompleted
		metrics.RecordJobCompleted(j.Name, duration)
	}

	q.save(j)
}

func (q *Queue) save(j *job.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()

	if err := q.store.Save(ctx, j); err != nil {
		q.logger.Error("failed to update job record",
			zap.String("job_id", j.ID),
			zap.String("status", string(j.Status)),
			zap.Error(err))
	}
}

func (q *Queue) track(id string, cancel context.CancelFunc) {
	q.runningMu.Lock()
	defer q.runningMu.Unlock()
	q.running[id] = cancel
}

func (q *Queue) untrack(id string) {
	q.runningMu.Lock()
	cancel := q.running[id]
	delete(q.running, id)
	q.runningMu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func invoke(ctx context.Context, handler HandlerFunc, payload map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()

	return handler(ctx, payload)
}
