// Package chain is the adapter between the KYV engine and a CosmWasm chain.
// It exposes two primitives, a read-only smart query and a signed execute
// transaction, behind the Client interface.
package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Client is the surface the engine depends on.
type Client interface {
	// Query runs a read-only smart query against the contract and decodes
	// the contract's response into out. out may be nil.
	Query(ctx context.Context, req any, out any) error
	// Execute submits one transaction holding every msg, each sent from the
	// signing identity to the contract with funds attached when non-empty.
	Execute(ctx context.Context, msgs []any, funds Coins) (TxResult, error)
	// Sender is the address of the signing identity ("" for read-only clients).
	Sender() string
}

// Signer is the opaque signing identity injected into a Client.
type Signer interface {
	Address(ctx context.Context) (string, error)
	Sign(ctx context.Context, unsignedTx []byte) ([]byte, error)
}

// Coin is an amount of a single denom in base units.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func (c Coin) String() string { return c.Amount + c.Denom }

// Coins attached to a message. A nil or empty Coins means the funds field
// is omitted entirely.
type Coins []Coin

// NewCoins is a convenience for a single-denom Coins.
func NewCoins(amount, denom string) Coins { return Coins{{Denom: denom, Amount: amount}} }

// IsEmpty reports whether no funds are attached.
func (cs Coins) IsEmpty() bool { return len(cs) == 0 }

// String renders coins the way the chain CLI expects them (10uluna,5uusd).
func (cs Coins) String() string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ",")
}

// Validate rejects zero, negative or non-integer amounts. A zero-amount
// coin is never equivalent to sending no funds.
func (cs Coins) Validate() error {
	for _, c := range cs {
		if c.Denom == "" {
			return fmt.Errorf("coin %q: missing denom", c.String())
		}
		d, err := decimal.NewFromString(c.Amount)
		if err != nil || !d.IsInteger() {
			return fmt.Errorf("coin %q: amount must be an integer", c.String())
		}
		if !d.IsPositive() {
			return fmt.Errorf("coin %q: %w", c.String(), ErrZeroFunds)
		}
	}
	return nil
}

// TxResult is the outcome of a broadcast transaction. Code 0 means the
// transaction was accepted.
type TxResult struct {
	TxHash    string `json:"txhash"`
	Height    int64  `json:"height"`
	Code      uint32 `json:"code"`
	Codespace string `json:"codespace,omitempty"`
	RawLog    string `json:"raw_log,omitempty"`
	GasWanted int64  `json:"gas_wanted"`
	GasUsed   int64  `json:"gas_used"`
}

// Failed reports whether the chain rejected the transaction.
func (r TxResult) Failed() bool { return r.Code != 0 }
