// Package notification hands domain events to the background job queue and
// renders the mails those jobs deliver.
package notification

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-admin-api/pkg/jobs"
)

// JobRegistrationMail is the job name of the registration confirmation mail.
const JobRegistrationMail = "RegistrationMail"

// Outcome labels passed to the recorder.
const (
	OutcomeEnqueued = "enqueued"
	OutcomeFailed   = "enqueue_failed"
	OutcomeSent     = "sent"
	OutcomeError    = "send_failed"
	OutcomeDropped  = "dropped"
)

type publisher interface {
	Publish(ctx context.Context, job jobs.Job) error
}

type recorder interface {
	RecordNotification(job, outcome string)
}

// Dispatcher publishes named jobs. Enqueue never reports failure to the caller.
type Dispatcher struct {
	queue   publisher
	metrics recorder
	logger  *zap.Logger
}

// NewDispatcher builds a dispatcher over the configured queue backend.
func NewDispatcher(queue publisher, metrics recorder, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{queue: queue, metrics: metrics, logger: logger}
}

// Enqueue marshals payload and publishes it as a job named name.
func (d *Dispatcher) Enqueue(ctx context.Context, name string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("notification payload not encodable", zap.String("job", name), zap.Error(err))
		d.record(name, OutcomeFailed)
		return
	}

	job := jobs.Job{ID: uuid.NewString(), Type: name, Payload: raw}
	if err := d.queue.Publish(ctx, job); err != nil {
		d.logger.Warn("notification enqueue failed", zap.String("job", name), zap.String("job_id", job.ID), zap.Error(err))
		d.record(name, OutcomeFailed)
		return
	}
	d.logger.Debug("notification enqueued", zap.String("job", name), zap.String("job_id", job.ID))
	d.record(name, OutcomeEnqueued)
}

func (d *Dispatcher) record(job, outcome string) {
	if d.metrics != nil {
		d.metrics.RecordNotification(job, outcome)
	}
}

// Router returns a jobs.Handler that dispatches on Job.Type. Jobs of unknown
// type are logged and dropped instead of being retried.
func Router(routes map[string]jobs.Handler, metrics recorder, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		handler, ok := routes[job.Type]
		if !ok {
			logger.Error("no handler for job", zap.String("type", job.Type), zap.String("job_id", job.ID))
			if metrics != nil {
				metrics.RecordNotification(job.Type, OutcomeDropped)
			}
			return nil
		}
		return handler(ctx, job)
	}
}
