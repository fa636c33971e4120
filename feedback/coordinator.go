package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"nutricoach"
)

// FeedbackStore is the persistence the coordinator needs.
type FeedbackStore interface {
	GetRecordByID(ctx context.Context, id uint) (*nutricoach.DailyRecord, error)
	// SaveRecordFeedback writes text only if the record has no feedback yet and
	// reports whether this call's write took effect.
	SaveRecordFeedback(ctx context.Context, recordID uint, text string) (bool, error)
}

// Locker serializes generation for one record across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

type textSource interface {
	Available() bool
	Generate(ctx context.Context, s nutricoach.DailySummary) string
}

const (
	defaultLockWait      = 45 * time.Second
	defaultNotifyTimeout = 5 * time.Second
)

type CoordinatorOptions struct {
	Locker Locker
	// LockWait bounds how long a flight waits for the record lock.
	LockWait time.Duration
	Notifier nutricoach.FeedbackNotifier
	// NotifyTimeout bounds the notification sent after feedback is stored.
	NotifyTimeout time.Duration
}

// Coordinator makes sure each daily record is sent to the language model at
// most once. Concurrent requests in one process share a single flight, the
// optional Locker covers other processes, and the conditional write in the
// store decides the winner when both of those are bypassed.
type Coordinator struct {
	store         FeedbackStore
	generator     textSource
	locker        Locker
	lockWait      time.Duration
	notifier      nutricoach.FeedbackNotifier
	notifyTimeout time.Duration
	group         singleflight.Group
	tracer        trace.Tracer

	cacheHits   metric.Int64Counter
	generations metric.Int64Counter
	unavailable metric.Int64Counter
	raceLost    metric.Int64Counter
}

type outcome struct {
	text      string
	persisted bool
}

func NewCoordinator(store FeedbackStore, generator textSource, opts CoordinatorOptions) *Coordinator {
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}

	meter := otel.Meter(nutricoach.MeterName)
	cacheHits, _ := meter.Int64Counter("feedback_cache_hits_total",
		metric.WithDescription("Summaries served with feedback that was already stored"))
	generations, _ := meter.Int64Counter("feedback_generations_total",
		metric.WithDescription("Feedback texts written after a generation attempt"))
	unavailable, _ := meter.Int64Counter("feedback_unavailable_total",
		metric.WithDescription("Summaries served without a configured generator"))
	raceLost, _ := meter.Int64Counter("feedback_race_lost_total",
		metric.WithDescription("Generations discarded because another writer stored feedback first"))

	return &Coordinator{
		store:         store,
		generator:     generator,
		locker:        opts.Locker,
		lockWait:      opts.LockWait,
		notifier:      opts.Notifier,
		notifyTimeout: opts.NotifyTimeout,
		tracer:        otel.Tracer(nutricoach.TracerNameFeedback),
		cacheHits:     cacheHits,
		generations:   generations,
		unavailable:   unavailable,
		raceLost:      raceLost,
	}
}

// EnsureFeedback fills draft.Feedback for record. Stored feedback is reused
// without calling the model. When no generator is configured the draft gets
// UnavailableFeedback and nothing is written. The returned bool reports whether
// the flight serving this call wrote new feedback. Only storage failures and
// the caller's own cancellation are returned as errors.
//
// The flight is detached from the caller that started it, so one caller going
// away does not fail the others; the generator timeout still bounds it.
func (c *Coordinator) EnsureFeedback(ctx context.Context, record nutricoach.DailyRecord, draft nutricoach.DailySummary) (nutricoach.DailySummary, bool, error) {
	ctx, span := c.tracer.Start(ctx, "Coordinator.EnsureFeedback", trace.WithAttributes(
		attribute.Int("record.id", int(record.ID)),
	))
	defer span.End()

	if record.HasFeedback() {
		c.cacheHits.Add(ctx, 1)
		return withFeedback(draft, record.Feedback), false, nil
	}

	if !c.generator.Available() {
		c.unavailable.Add(ctx, 1)
		draft.Feedback = UnavailableFeedback
		return draft, false, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	key := strconv.FormatUint(uint64(record.ID), 10)
	ch := c.group.DoChan(key, func() (any, error) {
		out, err := c.fill(flightCtx, record.ID, draft)
		if err == nil && out.persisted {
			c.notify(flightCtx, withFeedback(draft, out.text))
		}
		return out, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return draft, false, ctx.Err()
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		return draft, false, res.Err
	}
	out := res.Val.(outcome)
	span.SetAttributes(attribute.Bool("feedback.shared", res.Shared), attribute.Bool("feedback.persisted", out.persisted))

	return withFeedback(draft, out.text), out.persisted, nil
}

func (c *Coordinator) fill(ctx context.Context, recordID uint, draft nutricoach.DailySummary) (outcome, error) {
	if c.locker != nil {
		acquireCtx, cancel := context.WithTimeout(ctx, c.lockWait)
		release, err := c.locker.Acquire(acquireCtx, lockKey(recordID))
		cancel()
		if err != nil {
			// The conditional write still keeps the first feedback.
			slog.Warn("FEEDBACK: Could not acquire record lock, continuing without it", "record_id", recordID, "error", err)
		} else {
			defer func() {
				if err := release(ctx); err != nil {
					slog.Warn("FEEDBACK: Failed to release record lock", "record_id", recordID, "error", err)
				}
			}()
		}
	}

	current, err := c.store.GetRecordByID(ctx, recordID)
	if err != nil {
		return outcome{}, err
	}
	if current.HasFeedback() {
		c.cacheHits.Add(ctx, 1)
		return outcome{text: current.Feedback}, nil
	}

	text := c.generator.Generate(ctx, draft)

	committed, err := c.store.SaveRecordFeedback(ctx, recordID, text)
	if err != nil {
		return outcome{}, err
	}

	if !committed {
		c.raceLost.Add(ctx, 1)
		winner, err := c.store.GetRecordByID(ctx, recordID)
		if err != nil {
			return outcome{}, err
		}
		slog.Info("FEEDBACK: Another writer stored feedback first", "record_id", recordID)
		if winner.HasFeedback() {
			return outcome{text: winner.Feedback}, nil
		}
		// Cleared again between our write and the re-read.
		return outcome{text: text}, nil
	}

	c.generations.Add(ctx, 1)
	slog.Info("FEEDBACK: Stored feedback", "record_id", recordID, "user_id", draft.User.ID, "date", draft.Date.String())

	return outcome{text: text, persisted: true}, nil
}

// notify runs after the record lock is released.
func (c *Coordinator) notify(ctx context.Context, s nutricoach.DailySummary) {
	if c.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.notifyTimeout)
	defer cancel()
	if err := c.notifier.FeedbackGenerated(ctx, s); err != nil {
		slog.Warn("FEEDBACK: Notification failed", "record_id", s.Record.ID, "error", err)
	}
}

func withFeedback(s nutricoach.DailySummary, text string) nutricoach.DailySummary {
	s.Feedback = text
	s.Record.Feedback = text
	return s
}

func lockKey(recordID uint) string {
	return fmt.Sprintf("nutricoach:feedback:%d", recordID)
}
