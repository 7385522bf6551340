package kyv

import (
	"context"

	"github.com/stader-labs/kyv-cli/internal/chain"
)

// Execute operations return the adapter's TxResult and error unmodified.
// A contract rejection arrives as a *chain.TxError next to the TxResult.

// AddNewValidator registers addr for tracking, attaching the deposit.
func (e *Engine) AddNewValidator(ctx context.Context, addr string) (chain.TxResult, error) {
	var m addValidatorMsg
	m.AddValidator.Addr = addr
	return e.execute(ctx, m, chain.Coins{e.deposit})
}

// RecordMetrics snapshots every tracked validator at the current time.
func (e *Engine) RecordMetrics(ctx context.Context) (chain.TxResult, error) {
	var m recordMetricsMsg
	m.RecordMetrics.Timestamp = uint64(e.now().Unix())
	return e.execute(ctx, m, nil)
}

func (e *Engine) UpdateRecordsToUpdatePerRun(ctx context.Context, n uint64) (chain.TxResult, error) {
	var m updateRecordsPerRunMsg
	m.UpdateRecordsToUpdatePerRun.No = n
	return e.execute(ctx, m, nil)
}

// RemoveValidator stops tracking the validator with operator address addr.
func (e *Engine) RemoveValidator(ctx context.Context, addr string) (chain.TxResult, error) {
	var m removeValidatorMsg
	m.RemoveValidator.ValidatorOperAddr = addr
	return e.execute(ctx, m, nil)
}

func (e *Engine) UpdateConfig(ctx context.Context, batchSize uint64) (chain.TxResult, error) {
	var m updateConfigMsg
	m.UpdateConfig.BatchSize = batchSize
	return e.execute(ctx, m, nil)
}

func (e *Engine) execute(ctx context.Context, msg any, funds chain.Coins) (chain.TxResult, error) {
	return e.client.Execute(ctx, []any{msg}, funds)
}
