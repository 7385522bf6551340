// Package schedule records metrics on a cron schedule, either in-process
// (Runner) or through the user's crontab.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/stader-labs/kyv-cli/internal/chain"
	"github.com/stader-labs/kyv-cli/internal/telemetry"
)

// DefaultSpec records once an hour.
const DefaultSpec = "@hourly"

// Recorder is the engine operation a Runner drives.
type Recorder interface {
	RecordMetrics(ctx context.Context) (chain.TxResult, error)
}

// Runner calls RecordMetrics on every tick of a standard five-field cron
// spec. A failed run is logged and counted; the next tick proceeds as usual.
type Runner struct {
	rec     Recorder
	spec    string
	timeout time.Duration
	log     zerolog.Logger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// RunnerOptions are optional Runner collaborators.
type RunnerOptions struct {
	Timeout time.Duration // per run; 0 means 2m
	Logger  zerolog.Logger
	Metrics *telemetry.Metrics
	Clock   func() time.Time
}

// NewRunner validates spec and returns a Runner.
func NewRunner(rec Recorder, spec string, opts RunnerOptions) (*Runner, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Runner{
		rec:     rec,
		spec:    spec,
		timeout: opts.Timeout,
		log:     opts.Logger.With().Str("component", "schedule").Logger(),
		metrics: opts.Metrics,
		now:     opts.Clock,
	}, nil
}

func (r *Runner) Spec() string { return r.spec }

// RunOnce performs a single record_metrics submission.
func (r *Runner) RunOnce(ctx context.Context) (chain.TxResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := r.now()
	res, err := r.rec.RecordMetrics(ctx)
	outcome := telemetry.OutcomeOK
	switch {
	case err == nil:
		r.log.Info().Str("txhash", res.TxHash).Int64("height", res.Height).Int64("timestamp", started.Unix()).Msg("metrics recorded")
	default:
		outcome = telemetry.OutcomeError
		ev := r.log.Error().Err(err)
		if txErr, ok := chain.AsTxError(err); ok {
			outcome = telemetry.OutcomeRejected
			ev = ev.Uint32("code", txErr.Code).Str("codespace", txErr.Codespace).Str("txhash", txErr.TxHash)
		}
		ev.Msg("record_metrics failed; waiting for next tick")
	}
	if r.metrics != nil {
		r.metrics.ScheduledRun(outcome, started.Unix())
	}
	return res, err
}

// Run blocks until ctx is cancelled, recording on every tick. Overlapping
// ticks are skipped while a run is still in flight.
func (r *Runner) Run(ctx context.Context) error {
	l := cronLogger{r.log}
	c := cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)))
	if _, err := c.AddFunc(r.spec, func() { _, _ = r.RunOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	r.log.Info().Str("spec", r.spec).Msg("scheduler started")
	<-ctx.Done()
	<-c.Stop().Done()
	r.log.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
