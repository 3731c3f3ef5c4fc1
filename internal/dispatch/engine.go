// Package dispatch sends templated WhatsApp messages to contact batches under
// a shared rate limit, retrying transient transport failures with bounded
// exponential backoff.
package dispatch

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/elit-parking/campaign-cli/internal/model"
	"github.com/elit-parking/campaign-cli/internal/resilience"
)

const (
	defaultRateLimit     = 10
	defaultMaxAttempts   = 3
	defaultProgressEvery = 100

	// DefaultFirstName fills the template variable for contacts without a
	// first name.
	DefaultFirstName = "Client"
)

// Engine sends messages one at a time through a Sender. The sent/failed
// counters and the error list accumulate across every batch sent by the same
// Engine.
type Engine struct {
	sender        Sender
	from          string
	limiter       *rate.Limiter
	maxAttempts   int
	progressEvery int
	classifier    *resilience.Classifier
	sleep         resilience.Sleeper
	now           func() time.Time

	mu     sync.Mutex
	sent   int
	failed int
	errors []model.SendError
}

// Option configures an Engine.
type Option func(*Engine)

// WithRateLimit caps sends at perSecond messages per second. Non-positive
// values are ignored.
func WithRateLimit(perSecond float64) Option {
	return func(e *Engine) {
		if perSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLimiter replaces the throttle.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Engine) {
		e.limiter = l
	}
}

// WithMaxAttempts sets the attempt budget per contact, first try included.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithClassifier sets the error classifier deciding which failures retry.
func WithClassifier(c *resilience.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithSleeper replaces the backoff wait.
func WithSleeper(s resilience.Sleeper) Option {
	return func(e *Engine) {
		e.sleep = s
	}
}

// WithProgressEvery sets how many contacts pass between progress logs.
func WithProgressEvery(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.progressEvery = n
		}
	}
}

// New creates an Engine sending from the given sender address.
func New(sender Sender, from string, opts ...Option) *Engine {
	e := &Engine{
		sender:        sender,
		from:          from,
		limiter:       rate.NewLimiter(defaultRateLimit, 1),
		maxAttempts:   defaultMaxAttempts,
		progressEvery: defaultProgressEvery,
		classifier:    resilience.NewClassifier(nil),
		sleep:         resilience.SleepContext,
		now:           time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Stats is a snapshot of the engine's running counters.
type Stats struct {
	Sent   int
	Failed int
	Errors []model.SendError
}

// Stats returns a copy of the running counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Sent:   e.sent,
		Failed: e.failed,
		Errors: slices.Clone(e.errors),
	}
}

// SendOne sends the template to one address. It waits for the throttle once,
// then makes up to maxAttempts attempts, backing off 1s, 2s, 4s... between
// retryable failures. The result is always terminal.
func (e *Engine) SendOne(ctx context.Context, to, templateSID, firstName string) model.DispatchResult {
	log := zap.L().With(zap.String("to", to), zap.String("template_sid", templateSID))

	res := model.DispatchResult{
		To:          to,
		FirstName:   firstName,
		TemplateSID: templateSID,
		Status:      model.DispatchPending,
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return e.fail(res, &model.SendError{
			Code:    model.ErrorCodeCanceled,
			Message: err.Error(),
			Attempt: 0,
		}, log)
	}

	vars := map[string]string{"1": firstName}

	cfg := resilience.BackoffConfig(e.maxAttempts)
	cfg.ShouldRetry = e.classifier.Retryable
	cfg.Sleep = e.sleep
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		res.Status = model.DispatchRetrying
		log.Warn("dispatch: retryable failure, backing off",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.maxAttempts),
			zap.Duration("wait", wait),
			zap.String("code", resilience.Code(err, "")),
			zap.Error(err),
		)
	}

	sid, attempts, err := resilience.DoVal(ctx, cfg, func(ctx context.Context, _ int) (string, error) {
		res.Status = model.DispatchPending
		return e.sender.Send(ctx, e.from, to, templateSID, vars)
	})
	res.Attempts = attempts

	if err != nil {
		class := e.classifier.Classify(err)
		code := resilience.Code(err, model.ErrorCodeUnexpected)
		if class == resilience.ClassUnexpected {
			code = model.ErrorCodeUnexpected
		}
		return e.fail(res, &model.SendError{
			Code:    code,
			Message: err.Error(),
			Attempt: attempts,
		}, log.With(zap.String("class", string(class)), zap.Error(err)))
	}

	res.Status = model.DispatchSent
	res.MessageSID = sid

	e.mu.Lock()
	e.sent++
	e.mu.Unlock()

	log.Debug("dispatch: message sent", zap.String("message_sid", sid), zap.Int("attempts", attempts))
	return res
}

func (e *Engine) fail(res model.DispatchResult, sendErr *model.SendError, log *zap.Logger) model.DispatchResult {
	res.Status = model.DispatchFailed
	res.Error = sendErr

	e.mu.Lock()
	e.failed++
	e.errors = append(e.errors, *sendErr)
	e.mu.Unlock()

	log.Error("dispatch: message failed",
		zap.String("code", sendErr.Code),
		zap.Int("attempt", sendErr.Attempt),
	)
	return res
}

// BatchOptions controls one SendBatch call.
type BatchOptions struct {
	// TestMode truncates the batch to the first TestLimit contacts.
	TestMode  bool
	TestLimit int
}

// SendBatch sends the template to each contact in order. Contacts without a
// phone are skipped and not counted as attempted. Cancelling ctx stops the
// batch before the next contact; the summary covers what was attempted.
func (e *Engine) SendBatch(ctx context.Context, contacts []model.CleanContact, templateSID string, opts BatchOptions) *model.BatchSummary {
	log := zap.L().With(zap.String("template_sid", templateSID))

	if opts.TestMode && opts.TestLimit >= 0 && len(contacts) > opts.TestLimit {
		log.Warn("dispatch: test mode, truncating batch",
			zap.Int("test_limit", opts.TestLimit),
			zap.Int("contacts", len(contacts)),
		)
		contacts = contacts[:opts.TestLimit]
	}

	log.Info("dispatch: starting batch", zap.Int("contacts", len(contacts)))

	start := e.now()
	results := make([]model.DispatchResult, 0, len(contacts))
	batchSent := 0

	for i, c := range contacts {
		if ctx.Err() != nil {
			log.Warn("dispatch: batch cancelled",
				zap.Int("processed", i),
				zap.Int("remaining", len(contacts)-i),
			)
			break
		}

		if c.Phone == "" {
			log.Warn("dispatch: skipping contact without phone", zap.Int("index", i))
			continue
		}

		firstName := c.FirstName
		if firstName == "" {
			firstName = DefaultFirstName
		}

		res := e.SendOne(ctx, c.Phone, templateSID, firstName)
		if res.Status == model.DispatchSent {
			batchSent++
		}
		results = append(results, res)

		if (i+1)%e.progressEvery == 0 {
			stats := e.Stats()
			log.Info("dispatch: progress",
				zap.Int("processed", i+1),
				zap.Int("total", len(contacts)),
				zap.Int("sent", stats.Sent),
				zap.Int("failed", stats.Failed),
			)
		}
	}

	elapsed := e.now().Sub(start).Seconds()
	stats := e.Stats()

	summary := &model.BatchSummary{
		TotalAttempted: len(results),
		Sent:           stats.Sent,
		Failed:         stats.Failed,
		ElapsedSeconds: elapsed,
		Errors:         stats.Errors,
		Results:        results,
	}
	if len(results) > 0 {
		summary.SuccessRate = float64(batchSent) / float64(len(results)) * 100
	}
	if elapsed > 0 {
		summary.MessagesPerSecond = float64(len(results)) / elapsed
	}

	log.Info("dispatch: batch complete",
		zap.Int("attempted", summary.TotalAttempted),
		zap.Int("sent", batchSent),
		zap.Int("failed", len(results)-batchSent),
		zap.Float64("success_rate", summary.SuccessRate),
		zap.Float64("elapsed_seconds", elapsed),
	)
	return summary
}
