package kyv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stader-labs/kyv-cli/internal/chain"
)

// DefaultDeposit is the bond the contract requires with add_validator.
var DefaultDeposit = chain.Coin{Denom: "uluna", Amount: "10000000"}

// Engine issues KYV contract queries and executes through a chain.Client
// and derives APR figures from recorded snapshots. Calls are sequential;
// an Engine holds no state beyond its collaborators.
type Engine struct {
	client  chain.Client
	now     func() time.Time
	deposit chain.Coin
	log     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock used by RecordMetrics.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithDeposit overrides the add_validator deposit.
func WithDeposit(c chain.Coin) Option {
	return func(e *Engine) { e.deposit = c }
}

func New(client chain.Client, opts ...Option) *Engine {
	e := &Engine{
		client:  client,
		now:     time.Now,
		deposit: DefaultDeposit,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With().Str("component", "kyv").Logger()
	return e
}

// GetHistoryByTime returns every tracked validator's snapshot for ts in
// the order the contract returned them.
func (e *Engine) GetHistoryByTime(ctx context.Context, ts uint64) ([]ValidatorMetric, error) {
	var q getHistoryByTimeQuery
	q.GetHistoryByTime.Timestamp = ts
	var out []ValidatorMetric
	if err := e.client.Query(ctx, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetState returns the contract state document unmodified.
func (e *Engine) GetState(ctx context.Context) (json.RawMessage, error) {
	return e.raw(ctx, getStateQuery{})
}

// GetCurrentState issues the legacy get_current_state query.
func (e *Engine) GetCurrentState(ctx context.Context) (json.RawMessage, error) {
	return e.raw(ctx, getCurrentStateQuery{})
}

func (e *Engine) GetConfig(ctx context.Context) (json.RawMessage, error) {
	return e.raw(ctx, getConfigQuery{})
}

func (e *Engine) raw(ctx context.Context, q any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := e.client.Query(ctx, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAllTimestamps lists every timestamp the contract has metrics for.
func (e *Engine) GetAllTimestamps(ctx context.Context) ([]uint64, error) {
	var out []uint64
	if err := e.client.Query(ctx, getAllTimestampsQuery{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeValidatorAPR asks the contract for addr's APR over [t1, t2].
func (e *Engine) ComputeValidatorAPR(ctx context.Context, t1, t2 uint64, addr string) (AprResult, error) {
	var q getAprByValidatorQuery
	q.GetAprByValidator.Timestamp1 = t1
	q.GetAprByValidator.Timestamp2 = t2
	q.GetAprByValidator.Addr = addr
	var resp validatorAprResponse
	if err := e.client.Query(ctx, q, &resp); err != nil {
		return AprResult{}, err
	}
	if resp.Addr == "" {
		resp.Addr = addr
	}
	return AprResult{FromTimestamp: t1, ToTimestamp: t2, ValidatorAddress: resp.Addr, APRPercent: resp.APR}, nil
}

// ComputeAllValidatorsAPRs asks the contract for every tracked validator's
// APR over [t1, t2]. A nil page covers every validator in get_state.
func (e *Engine) ComputeAllValidatorsAPRs(ctx context.Context, t1, t2 uint64, page *Page) ([]AprResult, error) {
	page, err := e.resolvePage(ctx, page)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return []AprResult{}, nil
	}
	var q getAllAprsByIntervalQuery
	q.GetAllAprsByInterval.Timestamp1 = t1
	q.GetAllAprsByInterval.Timestamp2 = t2
	q.GetAllAprsByInterval.From = page.From
	q.GetAllAprsByInterval.To = page.To
	var resp []validatorAprResponse
	if err := e.client.Query(ctx, q, &resp); err != nil {
		return nil, err
	}
	out := make([]AprResult, 0, len(resp))
	for _, r := range resp {
		out = append(out, AprResult{FromTimestamp: t1, ToTimestamp: t2, ValidatorAddress: r.Addr, APRPercent: r.APR})
	}
	return out, nil
}

// resolvePage returns page unchanged when set. Otherwise it spans every
// validator in get_state, or nil when none are tracked.
func (e *Engine) resolvePage(ctx context.Context, page *Page) (*Page, error) {
	if page != nil {
		if page.From > page.To {
			return nil, fmt.Errorf("invalid page: from %d > to %d", page.From, page.To)
		}
		return page, nil
	}
	var st stateValidators
	if err := e.client.Query(ctx, getStateQuery{}, &st); err != nil {
		return nil, err
	}
	if len(st.Validators) == 0 {
		e.log.Debug().Msg("no validators tracked; skipping paginated query")
		return nil, nil
	}
	return &Page{From: 0, To: uint64(len(st.Validators) - 1)}, nil
}

// GetAllValidatorMetrics returns every snapshot recorded for addr, oldest
// first.
func (e *Engine) GetAllValidatorMetrics(ctx context.Context, addr string) ([]ValidatorMetric, error) {
	var q getAllValidatorMetricsQuery
	q.GetAllValidatorMetrics.Addr = addr
	return e.metricEntries(ctx, q)
}

// GetValidatorMetricsBetween returns addr's snapshots with t1 <= timestamp
// <= t2. The contract rejects t1 >= t2.
func (e *Engine) GetValidatorMetricsBetween(ctx context.Context, addr string, t1, t2 uint64) ([]ValidatorMetric, error) {
	var q getValidatorMetricsBtwTimestampsQuery
	q.GetValidatorMetricsBtwTimestamps.Addr = addr
	q.GetValidatorMetricsBtwTimestamps.Timestamp1 = t1
	q.GetValidatorMetricsBtwTimestamps.Timestamp2 = t2
	return e.metricEntries(ctx, q)
}

// GetValidatorMetricsAt returns addr's snapshot at ts.
func (e *Engine) GetValidatorMetricsAt(ctx context.Context, addr string, ts uint64) (ValidatorMetric, error) {
	var q getValidatorMetricsByTimestampQuery
	q.GetValidatorMetricsByTimestamp.Timestamp = ts
	q.GetValidatorMetricsByTimestamp.Addr = addr
	var out ValidatorMetric
	if err := e.client.Query(ctx, q, &out); err != nil {
		return ValidatorMetric{}, err
	}
	return out, nil
}

// GetValidatorsMetricsAt returns the snapshots at ts for the validators in
// page. A nil page covers every validator in get_state.
func (e *Engine) GetValidatorsMetricsAt(ctx context.Context, ts uint64, page *Page) ([]ValidatorMetric, error) {
	page, err := e.resolvePage(ctx, page)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return []ValidatorMetric{}, nil
	}
	var q getValidatorsMetricsByTimestampQuery
	q.GetValidatorsMetricsByTimestamp.Timestamp = ts
	q.GetValidatorsMetricsByTimestamp.From = page.From
	q.GetValidatorsMetricsByTimestamp.To = page.To
	var out []ValidatorMetric
	if err := e.client.Query(ctx, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// metricEntries decodes a range query answered as [[key, metric], ...].
func (e *Engine) metricEntries(ctx context.Context, q any) ([]ValidatorMetric, error) {
	var raw []json.RawMessage
	if err := e.client.Query(ctx, q, &raw); err != nil {
		return nil, err
	}
	out := make([]ValidatorMetric, 0, len(raw))
	for i, item := range raw {
		m, err := decodeMetricEntry(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// decodeMetricEntry accepts a [key, metric] pair or a bare metric object.
func decodeMetricEntry(b json.RawMessage) (ValidatorMetric, error) {
	var m ValidatorMetric
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return m, fmt.Errorf("expected [key, metric], got %d elements", len(pair))
		}
		b = pair[1]
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, err
	}
	return m, nil
}

// snapshotAt fetches the first metric recorded for ts and stamps it with
// the requested time, so elapsed time is measured between requests.
func (e *Engine) snapshotAt(ctx context.Context, ts uint64) (ValidatorMetric, error) {
	hist, err := e.GetHistoryByTime(ctx, ts)
	if err != nil {
		return ValidatorMetric{}, err
	}
	if len(hist) == 0 {
		return ValidatorMetric{}, fmt.Errorf("%w at %d", ErrNoSnapshot, ts)
	}
	m := hist[0]
	m.Timestamp = ts
	return m, nil
}

// ComputeAPRByInterval computes the APR between the snapshots at t1 and t2
// client-side.
func (e *Engine) ComputeAPRByInterval(ctx context.Context, t1, t2 uint64) (string, error) {
	h1, err := e.snapshotAt(ctx, t1)
	if err != nil {
		return "", err
	}
	h2, err := e.snapshotAt(ctx, t2)
	if err != nil {
		return "", err
	}
	return ComputeAPR(h1, h2)
}

// ComputeAPRByIntervals computes the APR of each timestamp against its
// immediate predecessor. The result has the same length and order as ts;
// its first element is NoPriorSnapshot. A failed fetch aborts the chain
// with an *IntervalError.
func (e *Engine) ComputeAPRByIntervals(ctx context.Context, ts []uint64) ([]string, error) {
	out := make([]string, 0, len(ts))
	var prev *ValidatorMetric
	for i, t := range ts {
		cur, err := e.snapshotAt(ctx, t)
		if err != nil {
			return nil, &IntervalError{Index: i, Timestamp: t, Err: err}
		}
		apr := NoPriorSnapshot
		if prev != nil {
			if apr, err = ComputeAPR(*prev, cur); err != nil {
				return nil, &IntervalError{Index: i, Timestamp: t, Err: err}
			}
		}
		e.log.Debug().Int("index", i).Uint64("timestamp", t).Str("apr", apr).Msg("interval")
		out = append(out, apr)
		prev = &cur
	}
	return out, nil
}
