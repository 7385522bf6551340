package chain

import "context"

// Routed sends queries to one client and transactions to another, e.g.
// LCD queries alongside binary-signed executes.
type Routed struct {
	Queries Client
	Txs     Client
}

func (r Routed) Query(ctx context.Context, req any, out any) error {
	return r.Queries.Query(ctx, req, out)
}

func (r Routed) Execute(ctx context.Context, msgs []any, funds Coins) (TxResult, error) {
	return r.Txs.Execute(ctx, msgs, funds)
}

func (r Routed) Sender() string { return r.Txs.Sender() }
