package outbox

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// WorkerOptions configures a Worker.
type WorkerOptions struct {
	Logger         *zap.Logger
	MeterProvider  metric.MeterProvider
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Option configures a Worker.
type Option func(*WorkerOptions)

// WithLogger sets the worker logger.
func WithLogger(lg *zap.Logger) Option {
	return func(o *WorkerOptions) { o.Logger = lg }
}

// WithMeterProvider sets the meter provider for delivery metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *WorkerOptions) { o.MeterProvider = mp }
}

// WithPollInterval sets how often the outbox is polled.
func WithPollInterval(d time.Duration) Option {
	return func(o *WorkerOptions) { o.PollInterval = d }
}

// WithBatchSize sets the number of events pulled per poll.
func WithBatchSize(n int) Option {
	return func(o *WorkerOptions) { o.BatchSize = n }
}

// WithMaxAttempts sets the publish attempts per event before it is marked failed.
func WithMaxAttempts(n int) Option {
	return func(o *WorkerOptions) { o.MaxAttempts = n }
}

// WithRetryBaseDelay sets the first backoff delay; it doubles per attempt.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(o *WorkerOptions) { o.RetryBaseDelay = d }
}

// Worker publishes pending outbox events.
type Worker struct {
	repo      Repository
	publisher Publisher
	lg        *zap.Logger

	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration

	attempts metric.Int64Counter
	pending  metric.Int64Gauge
}

// NewWorker creates an outbox worker.
func NewWorker(repo Repository, publisher Publisher, options ...Option) (*Worker, error) {
	opts := WorkerOptions{
		PollInterval:   defaultPollInterval,
		BatchSize:      defaultBatchSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
	}
	for _, o := range options {
		o(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = noop.NewMeterProvider()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}

	meter := opts.MeterProvider.Meter("github.com/aexfood/orders/internal/domain/outbox")
	attempts, err := meter.Int64Counter("outbox.publish.attempts",
		metric.WithDescription("Outbox publish attempts grouped by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create attempts counter")
	}
	pending, err := meter.Int64Gauge("outbox.pending",
		metric.WithDescription("Pending outbox events"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create pending gauge")
	}

	return &Worker{
		repo:           repo,
		publisher:      publisher,
		lg:             opts.Logger.Named("outbox"),
		pollInterval:   opts.PollInterval,
		batchSize:      opts.BatchSize,
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
		attempts:       attempts,
		pending:        pending,
	}, nil
}

// Run polls the outbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce runs a single polling cycle and returns the number of events
// delivered.
func (w *Worker) ProcessOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	events, err := w.repo.PullPending(ctx, w.batchSize)
	if err != nil {
		w.lg.Warn("Pull pending events", zap.Error(err))
		return 0
	}

	sent := 0
	for _, e := range events {
		if ctx.Err() != nil {
			break
		}
		lg := w.lg.With(
			zap.Stringer("event_id", e.ID),
			zap.String("event_type", e.EventType),
			zap.String("aggregate_id", e.AggregateID),
		)

		attempts, err := w.publishWithRetry(ctx, e)
		if err != nil {
			if ctx.Err() != nil {
				// Leave the event pending for the next run.
				break
			}
			lg.Error("Publish failed after retries", zap.Int("attempts", attempts), zap.Error(err))
			w.record(ctx, "failed")
			if err := w.repo.MarkFailed(ctx, e.ID, e.Attempts+attempts); err != nil {
				lg.Warn("Mark event failed", zap.Error(err))
			}
			continue
		}

		if err := w.repo.MarkSent(ctx, e.ID, e.Attempts+attempts); err != nil {
			lg.Warn("Mark event sent", zap.Error(err))
			continue
		}
		lg.Debug("Event published")
		sent++
	}

	w.refreshBacklog(ctx)
	return sent
}

func (w *Worker) publishWithRetry(ctx context.Context, e Event) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.publisher.Publish(ctx, e)
		if err == nil {
			w.record(ctx, "sent")
			return attempt, nil
		}
		lastErr = err
		w.record(ctx, "retry_error")

		if attempt == w.maxAttempts {
			break
		}
		delay := w.retryBackoff(attempt)
		if delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(delay):
		}
	}
	return w.maxAttempts, errors.Wrapf(lastErr, "publish failed after %d attempts", w.maxAttempts)
}

func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.retryBaseDelay <= 0 {
		return 0
	}
	const maxDuration = time.Duration(1<<63 - 1)
	delay := w.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}

func (w *Worker) refreshBacklog(ctx context.Context) {
	stats, err := w.repo.Stats(ctx)
	if err != nil {
		w.lg.Warn("Collect outbox stats", zap.Error(err))
		return
	}
	w.pending.Record(ctx, stats.PendingCount)
	if stats.PendingCount > 0 && !stats.OldestPendingAt.IsZero() {
		w.lg.Debug("Outbox backlog",
			zap.Int64("pending", stats.PendingCount),
			zap.Duration("oldest_age", time.Since(stats.OldestPendingAt)),
		)
	}
}

func (w *Worker) record(ctx context.Context, result string) {
	w.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
