package chain

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stader-labs/kyv-cli/internal/telemetry"
)

type stubClient struct {
	queryErr error
	res      TxResult
	execErr  error
}

func (s stubClient) Query(context.Context, any, any) error { return s.queryErr }
func (s stubClient) Execute(context.Context, []any, Coins) (TxResult, error) {
	return s.res, s.execErr
}
func (s stubClient) Sender() string { return "terra1stub" }

func TestInstrumented_CountsOutcomes(t *testing.T) {
	m := telemetry.New()
	var logs bytes.Buffer
	log := zerolog.New(&logs).Level(zerolog.DebugLevel)
	ctx := context.Background()

	ok := Instrument(stubClient{res: TxResult{TxHash: "AA"}}, m, log)
	require.NoError(t, ok.Query(ctx, nil, nil))
	res, err := ok.Execute(ctx, []any{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, "AA", res.TxHash)
	assert.Equal(t, "terra1stub", ok.Sender())

	rejection := &TxError{Code: 5, Codespace: "wasm"}
	rejected := Instrument(stubClient{res: TxResult{Code: 5, Codespace: "wasm"}, execErr: rejection}, m, log)
	res, err = rejected.Execute(ctx, []any{1}, nil)
	assert.Same(t, rejection, err)
	assert.Equal(t, uint32(5), res.Code)

	broken := Instrument(stubClient{queryErr: &QueryError{Err: errors.New("dial tcp: refused")}}, m, log)
	assert.Error(t, broken.Query(ctx, nil, nil))

	expected := `
# HELP kyv_chain_requests_total Chain calls by operation and outcome
# TYPE kyv_chain_requests_total counter
kyv_chain_requests_total{op="execute",outcome="ok"} 1
kyv_chain_requests_total{op="execute",outcome="rejected"} 1
kyv_chain_requests_total{op="query",outcome="error"} 1
kyv_chain_requests_total{op="query",outcome="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "kyv_chain_requests_total"))
	assert.Contains(t, logs.String(), `"txhash":"AA"`)
	assert.Contains(t, logs.String(), `"outcome":"rejected"`)
}

func TestInstrumented_NilMetrics(t *testing.T) {
	c := Instrument(stubClient{}, nil, zerolog.Nop())
	assert.NoError(t, c.Query(context.Background(), nil, nil))
}

func TestRouted(t *testing.T) {
	q := stubClient{queryErr: errors.New("from queries")}
	x := stubClient{res: TxResult{TxHash: "FROM-TXS"}}
	r := Routed{Queries: q, Txs: x}

	assert.EqualError(t, r.Query(context.Background(), nil, nil), "from queries")
	res, err := r.Execute(context.Background(), []any{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, "FROM-TXS", res.TxHash)
	assert.Equal(t, "terra1stub", r.Sender())
}
