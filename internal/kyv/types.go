// Package kyv implements the client side of the KYV contract: snapshot
// queries, contract-side and client-side APR, and the state-changing
// executes an operator runs.
package kyv

import (
	"encoding/json"
	"fmt"
)

// ValidatorMetric is one snapshot of a validator as recorded by the
// contract. Amounts are decimal strings and are never converted to floats.
type ValidatorMetric struct {
	Address         string `json:"addr"`
	RewardsAccrued  string `json:"rewards"`
	DelegatedAmount string `json:"delegated_amount"`
	Timestamp       uint64 `json:"timestamp"`
}

// UnmarshalJSON accepts both the legacy `addr` and the current
// `operator_addr` field names.
func (m *ValidatorMetric) UnmarshalJSON(b []byte) error {
	var raw struct {
		Addr            string          `json:"addr"`
		OperatorAddr    string          `json:"operator_addr"`
		Rewards         json.RawMessage `json:"rewards"`
		DelegatedAmount json.RawMessage `json:"delegated_amount"`
		Timestamp       uint64          `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	rewards, err := amountString(raw.Rewards)
	if err != nil {
		return fmt.Errorf("rewards: %w", err)
	}
	delegated, err := amountString(raw.DelegatedAmount)
	if err != nil {
		return fmt.Errorf("delegated_amount: %w", err)
	}
	m.Address = raw.Addr
	if m.Address == "" {
		m.Address = raw.OperatorAddr
	}
	m.RewardsAccrued = rewards
	m.DelegatedAmount = delegated
	m.Timestamp = raw.Timestamp
	return nil
}

// amountString takes a Uint128/Decimal that is normally a JSON string but
// tolerates a bare number, keeping its exact textual form. A missing or
// null amount is an error rather than zero.
func amountString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: missing", ErrInvalidAmount)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: not a decimal: %s", ErrInvalidAmount, raw)
	}
	return n.String(), nil
}

// AllValidators is the ValidatorAddress of an aggregate AprResult.
const AllValidators = "all"

// AprResult is an APR over [FromTimestamp, ToTimestamp].
type AprResult struct {
	FromTimestamp    uint64 `json:"from_timestamp" yaml:"from_timestamp"`
	ToTimestamp      uint64 `json:"to_timestamp" yaml:"to_timestamp"`
	ValidatorAddress string `json:"validator_address" yaml:"validator_address"`
	APRPercent       string `json:"apr_percent" yaml:"apr_percent"`
}

// Page restricts a paginated query to validator indexes [From, To]. Both
// bounds are inclusive: the contract rejects To >= len(validators) and
// From > To.
type Page struct {
	From uint64
	To   uint64
}
