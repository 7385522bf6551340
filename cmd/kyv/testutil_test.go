package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stader-labs/kyv-cli/internal/chain"
	"github.com/stader-labs/kyv-cli/internal/config"
	"github.com/stader-labs/kyv-cli/internal/kyv"
	"github.com/stader-labs/kyv-cli/internal/telemetry"
	ui "github.com/stader-labs/kyv-cli/internal/ui"
)

// errMock is a generic error for test assertions.
var errMock = errors.New("mock error")

// mockEngine implements Engine for testing. Every call is recorded.
type mockEngine struct {
	calls []string

	history    []kyv.ValidatorMetric
	state      json.RawMessage
	current    json.RawMessage
	contract   json.RawMessage
	timestamps []uint64
	aprResult  kyv.AprResult
	aprResults []kyv.AprResult
	interval   string
	intervals  []string
	lastPage   *kyv.Page
	metrics    []kyv.ValidatorMetric
	metric     kyv.ValidatorMetric

	tx    chain.TxResult
	err   error
	txErr error
}

func (m *mockEngine) record(format string, a ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, a...))
}

func (m *mockEngine) GetHistoryByTime(ctx context.Context, ts uint64) ([]kyv.ValidatorMetric, error) {
	m.record("history %d", ts)
	return m.history, m.err
}

func (m *mockEngine) GetState(ctx context.Context) (json.RawMessage, error) {
	m.record("state")
	return m.state, m.err
}

func (m *mockEngine) GetCurrentState(ctx context.Context) (json.RawMessage, error) {
	m.record("current_state")
	return m.current, m.err
}

func (m *mockEngine) GetConfig(ctx context.Context) (json.RawMessage, error) {
	m.record("config")
	return m.contract, m.err
}

func (m *mockEngine) GetAllTimestamps(ctx context.Context) ([]uint64, error) {
	m.record("timestamps")
	return m.timestamps, m.err
}

func (m *mockEngine) GetAllValidatorMetrics(ctx context.Context, addr string) ([]kyv.ValidatorMetric, error) {
	m.record("validator_metrics %s", addr)
	return m.metrics, m.err
}

func (m *mockEngine) GetValidatorMetricsBetween(ctx context.Context, addr string, t1, t2 uint64) ([]kyv.ValidatorMetric, error) {
	m.record("validator_metrics %s %d %d", addr, t1, t2)
	return m.metrics, m.err
}

func (m *mockEngine) GetValidatorMetricsAt(ctx context.Context, addr string, ts uint64) (kyv.ValidatorMetric, error) {
	m.record("validator_metrics_at %s %d", addr, ts)
	return m.metric, m.err
}

func (m *mockEngine) GetValidatorsMetricsAt(ctx context.Context, ts uint64, page *kyv.Page) ([]kyv.ValidatorMetric, error) {
	m.record("validators_metrics_at %d", ts)
	m.lastPage = page
	return m.metrics, m.err
}

func (m *mockEngine) ComputeValidatorAPR(ctx context.Context, t1, t2 uint64, addr string) (kyv.AprResult, error) {
	m.record("apr %s %d %d", addr, t1, t2)
	return m.aprResult, m.err
}

func (m *mockEngine) ComputeAllValidatorsAPRs(ctx context.Context, t1, t2 uint64, page *kyv.Page) ([]kyv.AprResult, error) {
	m.record("apr_all %d %d", t1, t2)
	m.lastPage = page
	return m.aprResults, m.err
}

func (m *mockEngine) ComputeAPRByInterval(ctx context.Context, t1, t2 uint64) (string, error) {
	m.record("interval %d %d", t1, t2)
	return m.interval, m.err
}

func (m *mockEngine) ComputeAPRByIntervals(ctx context.Context, ts []uint64) ([]string, error) {
	m.record("intervals %v", ts)
	return m.intervals, m.err
}

func (m *mockEngine) AddNewValidator(ctx context.Context, addr string) (chain.TxResult, error) {
	m.record("add_validator %s", addr)
	return m.tx, m.txErr
}

func (m *mockEngine) RecordMetrics(ctx context.Context) (chain.TxResult, error) {
	m.record("record_metrics")
	return m.tx, m.txErr
}

func (m *mockEngine) UpdateRecordsToUpdatePerRun(ctx context.Context, n uint64) (chain.TxResult, error) {
	m.record("records_per_run %d", n)
	return m.tx, m.txErr
}

func (m *mockEngine) RemoveValidator(ctx context.Context, addr string) (chain.TxResult, error) {
	m.record("remove_validator %s", addr)
	return m.tx, m.txErr
}

func (m *mockEngine) UpdateConfig(ctx context.Context, batchSize uint64) (chain.TxResult, error) {
	m.record("update_config %d", batchSize)
	return m.tx, m.txErr
}

// mockPrompter is a configurable prompter for testing.
// It returns responses in order and can be configured as interactive or not.
type mockPrompter struct {
	responses   []string
	interactive bool
	prompts     []string
}

func (p *mockPrompter) ReadLine(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.responses) == 0 {
		return "", fmt.Errorf("no more responses configured")
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *mockPrompter) IsInteractive() bool {
	return p.interactive
}

// memTab is an in-memory crontab.
type memTab struct {
	content string
	readErr error
}

func (m *memTab) Read() (string, error) { return m.content, m.readErr }

func (m *memTab) Write(s string) error {
	m.content = s
	return nil
}

// testCfg returns a minimal config for testing.
func testCfg() config.Config {
	cfg := config.Defaults(config.Development)
	cfg.HomeDir = "/tmp/test-terra"
	cfg.ContractAddress = "terra14hj2tavq8fpesdwxxcu44rty3hh90vhujrvcmstl4zr3txmfvw9ssrc8au"
	cfg.Timeout = 5 * time.Second
	return cfg
}

// testDeps wires eng into Deps with a plain-text printer writing to the
// returned buffer. Flags touched by handlers are restored on cleanup.
func testDeps(t *testing.T, format string, eng *mockEngine) (*Deps, *bytes.Buffer) {
	t.Helper()
	saveFlags(t)
	flagOutput = format
	var out bytes.Buffer
	return &Deps{
		Cfg:      testCfg(),
		Engine:   eng,
		Printer:  ui.NewPrinterTo(&out, format, ui.NewColorConfigWith(true, true)),
		Prompter: &mockPrompter{},
		Log:      nopLogger(),
		Metrics:  telemetry.New(),
		Tab:      &memTab{},
	}, &out
}

func saveFlags(t *testing.T) {
	t.Helper()
	origOutput, origYes, origNonInteractive := flagOutput, flagYes, flagNonInteractive
	origConfig, origEnv, origKey, origRPC := flagConfig, flagEnv, flagKey, flagRPC
	origBroadcast := flagBroadcastMode
	t.Cleanup(func() {
		flagOutput, flagYes, flagNonInteractive = origOutput, origYes, origNonInteractive
		flagConfig, flagEnv, flagKey, flagRPC = origConfig, origEnv, origKey, origRPC
		flagBroadcastMode = origBroadcast
	})
}

// containsAll reports whether s contains every want.
func containsAll(t *testing.T, s string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(s, w) {
			t.Errorf("output missing %q:\n%s", w, s)
		}
	}
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }
