package chain

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stader-labs/kyv-cli/internal/telemetry"
)

// Instrumented wraps a Client with logging and metrics. It never changes
// the results or errors of the wrapped client.
type Instrumented struct {
	next    Client
	metrics *telemetry.Metrics
	log     zerolog.Logger
}

// Instrument decorates next. metrics may be nil.
func Instrument(next Client, metrics *telemetry.Metrics, log zerolog.Logger) *Instrumented {
	return &Instrumented{next: next, metrics: metrics, log: log.With().Str("component", "chain").Logger()}
}

func (i *Instrumented) Sender() string { return i.next.Sender() }

func (i *Instrumented) Query(ctx context.Context, req any, out any) error {
	start := time.Now()
	err := i.next.Query(ctx, req, out)
	i.observe("query", start, err)
	return err
}

func (i *Instrumented) Execute(ctx context.Context, msgs []any, funds Coins) (TxResult, error) {
	start := time.Now()
	res, err := i.next.Execute(ctx, msgs, funds)
	i.observe("execute", start, err)
	if err == nil {
		i.log.Info().Str("txhash", res.TxHash).Int64("height", res.Height).Int("msgs", len(msgs)).Msg("transaction included")
	}
	return res, err
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	outcome := telemetry.OutcomeOK
	switch {
	case err == nil:
	case isTxErr(err):
		outcome = telemetry.OutcomeRejected
	default:
		outcome = telemetry.OutcomeError
	}
	elapsed := time.Since(start)
	if i.metrics != nil {
		i.metrics.Observe(op, outcome, elapsed)
	}
	ev := i.log.Debug()
	if err != nil {
		ev = i.log.Warn().Err(err)
	}
	ev.Str("op", op).Str("outcome", outcome).Dur("elapsed", elapsed).Msg("chain call")
}

func isTxErr(err error) bool {
	_, ok := AsTxError(err)
	return ok
}
