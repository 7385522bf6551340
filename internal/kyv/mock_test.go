package kyv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stader-labs/kyv-cli/internal/chain"
)

type executeCall struct {
	Msgs  []json.RawMessage
	Funds chain.Coins
}

// mockClient answers queries by message tag and records every call as JSON.
type mockClient struct {
	responses map[string]func(payload json.RawMessage) (any, error)
	queries   []json.RawMessage
	executes  []executeCall

	txResult chain.TxResult
	txErr    error
}

func newMockClient() *mockClient {
	return &mockClient{responses: map[string]func(json.RawMessage) (any, error){}}
}

func (m *mockClient) on(tag string, fn func(payload json.RawMessage) (any, error)) {
	m.responses[tag] = fn
}

func (m *mockClient) Query(_ context.Context, req any, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	m.queries = append(m.queries, body)
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return err
	}
	for tag, payload := range msg {
		fn, ok := m.responses[tag]
		if !ok {
			return &chain.QueryError{Query: tag, Err: fmt.Errorf("unknown variant %s", tag)}
		}
		resp, err := fn(payload)
		if err != nil {
			return err
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		return json.Unmarshal(b, out)
	}
	return fmt.Errorf("empty query")
}

func (m *mockClient) Execute(_ context.Context, msgs []any, funds chain.Coins) (chain.TxResult, error) {
	call := executeCall{Funds: funds}
	for _, msg := range msgs {
		b, err := json.Marshal(msg)
		if err != nil {
			return chain.TxResult{}, err
		}
		call.Msgs = append(call.Msgs, b)
	}
	m.executes = append(m.executes, call)
	return m.txResult, m.txErr
}

func (m *mockClient) Sender() string { return "terra1sender" }

// historyByTimestamp serves get_history_by_time from a fixed table.
func historyByTimestamp(table map[uint64][]map[string]any) func(json.RawMessage) (any, error) {
	return func(payload json.RawMessage) (any, error) {
		var p struct {
			Timestamp uint64 `json:"timestamp"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		rows, ok := table[p.Timestamp]
		if !ok {
			return []map[string]any{}, nil
		}
		return rows, nil
	}
}
