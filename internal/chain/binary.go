package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BinaryOptions configures a BinaryClient.
type BinaryOptions struct {
	Binary        string // e.g. terrad
	HomeDir       string
	ChainID       string
	Node          string // tendermint RPC, e.g. http://127.0.0.1:26657
	Contract      string
	GasPrices     string // e.g. 0.15uluna
	GasAdjustment string // e.g. 1.4
	BroadcastMode string // sync (default) or block
	PollInterval  time.Duration
	Runner        Runner
	Signer        Signer
	Logger        zerolog.Logger
}

// BinaryClient talks to the chain by exec'ing the chain binary. Queries go
// through `query wasm contract-state smart`; executes are generated
// unsigned, merged into one tx, signed through the Signer and broadcast.
// A sync broadcast only reports CheckTx, so the tx is then polled with
// `query tx` until it is included and its DeliverTx code is known.
type BinaryClient struct {
	opts   BinaryOptions
	sender string
}

// NewBinary builds a BinaryClient. The Signer is resolved lazily on the
// first Execute; queries never touch it.
func NewBinary(opts BinaryOptions) *BinaryClient {
	if opts.Binary == "" {
		opts.Binary = "terrad"
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.BroadcastMode == "" {
		opts.BroadcastMode = "sync"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	opts.Logger = opts.Logger.With().Str("component", "chain-binary").Logger()
	return &BinaryClient{opts: opts}
}

func (c *BinaryClient) Sender() string { return c.sender }

func (c *BinaryClient) nodeArgs() []string {
	var args []string
	if c.opts.Node != "" {
		args = append(args, "--node", c.opts.Node)
	}
	if c.opts.HomeDir != "" {
		args = append(args, "--home", c.opts.HomeDir)
	}
	return args
}

func (c *BinaryClient) Query(ctx context.Context, req any, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return &QueryError{Err: fmt.Errorf("encode request: %w", err)}
	}
	name := queryName(body)
	args := append([]string{"query", "wasm", "contract-state", "smart", c.opts.Contract, string(body)}, c.nodeArgs()...)
	args = append(args, "-o", "json")

	c.opts.Logger.Debug().Str("query", name).RawJSON("msg", body).Msg("smart query")
	raw, err := c.opts.Runner.Run(ctx, c.opts.Binary, args...)
	if err != nil {
		return &QueryError{Query: name, Err: err}
	}
	return decodeQueryData(name, raw, out)
}

// decodeQueryData unwraps the {"data": ...} envelope shared by the chain
// binary and the LCD.
func decodeQueryData(name string, raw []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return &QueryError{Query: name, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(env.Data) == 0 {
		return &QueryError{Query: name, Err: errors.New("empty response data")}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &QueryError{Query: name, Err: fmt.Errorf("decode %s: %w", name, err)}
	}
	return nil
}

// queryName returns the message tag of a single-key JSON object.
func queryName(body []byte) string {
	var m map[string]json.RawMessage
	if json.Unmarshal(body, &m) != nil || len(m) != 1 {
		return ""
	}
	for k := range m {
		return k
	}
	return ""
}

func (c *BinaryClient) Execute(ctx context.Context, msgs []any, funds Coins) (TxResult, error) {
	if len(msgs) == 0 {
		return TxResult{}, ErrNoMessages
	}
	if err := funds.Validate(); err != nil {
		return TxResult{}, err
	}
	if c.opts.Signer == nil {
		return TxResult{}, ErrReadOnly
	}
	if c.sender == "" {
		addr, err := c.opts.Signer.Address(ctx)
		if err != nil {
			return TxResult{}, &TransportError{Stage: "sign", Err: fmt.Errorf("resolve signer address: %w", err)}
		}
		c.sender = addr
	}

	unsigned := make([][]byte, 0, len(msgs))
	for _, m := range msgs {
		tx, err := c.generate(ctx, m, funds)
		if err != nil {
			return TxResult{}, &TransportError{Stage: "build", Err: err}
		}
		unsigned = append(unsigned, tx)
	}
	merged, err := mergeUnsignedTxs(unsigned)
	if err != nil {
		return TxResult{}, &TransportError{Stage: "build", Err: err}
	}

	signed, err := c.opts.Signer.Sign(ctx, merged)
	if err != nil {
		return TxResult{}, &TransportError{Stage: "sign", Err: err}
	}
	res, err := c.broadcast(ctx, signed)
	if err != nil {
		return TxResult{}, &TransportError{Stage: "broadcast", Err: err}
	}
	if c.opts.BroadcastMode == "sync" && !res.Failed() {
		if res, err = c.awaitTx(ctx, res.TxHash); err != nil {
			return TxResult{}, &TransportError{Stage: "confirm", Err: err}
		}
	}
	ev := c.opts.Logger.Debug().Str("txhash", res.TxHash).Uint32("code", res.Code).Int("msgs", len(msgs))
	if res.Failed() {
		ev.Str("codespace", res.Codespace).Msg("tx rejected")
		return res, &TxError{Code: res.Code, Codespace: res.Codespace, TxHash: res.TxHash, RawLog: res.RawLog}
	}
	ev.Msg("tx accepted")
	return res, nil
}

// generate produces the unsigned tx for one execute message.
func (c *BinaryClient) generate(ctx context.Context, msg any, funds Coins) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	args := []string{"tx", "wasm", "execute", c.opts.Contract, string(body),
		"--from", c.sender,
		"--chain-id", c.opts.ChainID,
		"--generate-only",
	}
	if !funds.IsEmpty() {
		args = append(args, "--amount", funds.String())
	}
	if c.opts.GasPrices != "" {
		args = append(args, "--gas", "auto", "--gas-prices", c.opts.GasPrices)
		if c.opts.GasAdjustment != "" {
			args = append(args, "--gas-adjustment", c.opts.GasAdjustment)
		}
	}
	args = append(args, c.nodeArgs()...)
	args = append(args, "-o", "json")
	out, err := c.opts.Runner.Run(ctx, c.opts.Binary, args...)
	if err != nil {
		return nil, err
	}
	return firstJSONObject(out)
}

func (c *BinaryClient) broadcast(ctx context.Context, signed []byte) (TxResult, error) {
	f, err := os.CreateTemp("", "kyv-signed-*.json")
	if err != nil {
		return TxResult{}, err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(signed); err != nil {
		_ = f.Close()
		return TxResult{}, err
	}
	_ = f.Close()

	args := append([]string{"tx", "broadcast", f.Name(), "--broadcast-mode", c.opts.BroadcastMode}, c.nodeArgs()...)
	args = append(args, "-o", "json")
	out, err := c.opts.Runner.Run(ctx, c.opts.Binary, args...)
	if err != nil {
		return TxResult{}, err
	}
	return parseTxResult(out)
}

// awaitTx polls `query tx` until hash is included or ctx is done.
func (c *BinaryClient) awaitTx(ctx context.Context, hash string) (TxResult, error) {
	args := append([]string{"query", "tx", hash}, c.nodeArgs()...)
	args = append(args, "-o", "json")
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for attempt := 1; ; attempt++ {
		out, err := c.opts.Runner.Run(ctx, c.opts.Binary, args...)
		if err == nil {
			return parseTxResult(out)
		}
		if !isTxNotFound(err) {
			return TxResult{}, fmt.Errorf("txhash %s: %w", hash, err)
		}
		c.opts.Logger.Debug().Str("txhash", hash).Int("attempt", attempt).Msg("tx not yet included")
		select {
		case <-ctx.Done():
			return TxResult{}, fmt.Errorf("txhash %s not included before deadline: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

func isTxNotFound(err error) bool {
	var ce *CommandError
	if !errors.As(err, &ce) {
		return false
	}
	s := strings.ToLower(ce.Stderr)
	return strings.Contains(s, "not found")
}

// firstJSONObject strips any gas-estimate chatter the binary prints before
// the JSON document.
func firstJSONObject(out []byte) ([]byte, error) {
	i := bytes.IndexByte(out, '{')
	if i < 0 {
		return nil, fmt.Errorf("no JSON in output: %q", strings.TrimSpace(string(out)))
	}
	return bytes.TrimSpace(out[i:]), nil
}

// flexInt decodes cosmos integers that are emitted either as numbers or as
// quoted strings depending on the SDK version.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

func parseTxResult(out []byte) (TxResult, error) {
	doc, err := firstJSONObject(out)
	if err != nil {
		return TxResult{}, err
	}
	var raw struct {
		TxHash    string  `json:"txhash"`
		Height    flexInt `json:"height"`
		Code      flexInt `json:"code"`
		Codespace string  `json:"codespace"`
		RawLog    string  `json:"raw_log"`
		GasWanted flexInt `json:"gas_wanted"`
		GasUsed   flexInt `json:"gas_used"`
	}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return TxResult{}, fmt.Errorf("decode broadcast result: %w", err)
	}
	if raw.TxHash == "" {
		return TxResult{}, errors.New("broadcast result has no txhash")
	}
	return TxResult{
		TxHash:    raw.TxHash,
		Height:    int64(raw.Height),
		Code:      uint32(raw.Code),
		Codespace: raw.Codespace,
		RawLog:    raw.RawLog,
		GasWanted: int64(raw.GasWanted),
		GasUsed:   int64(raw.GasUsed),
	}, nil
}

// mergeUnsignedTxs folds the messages of several generate-only txs into the
// first one, summing gas limits and fee amounts so the merged tx still pays
// for every message.
func mergeUnsignedTxs(txs [][]byte) ([]byte, error) {
	if len(txs) == 1 {
		return txs[0], nil
	}
	var base map[string]json.RawMessage
	if err := json.Unmarshal(txs[0], &base); err != nil {
		return nil, fmt.Errorf("decode unsigned tx: %w", err)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(base["body"], &body); err != nil {
		return nil, fmt.Errorf("decode tx body: %w", err)
	}
	var authInfo map[string]json.RawMessage
	if err := json.Unmarshal(base["auth_info"], &authInfo); err != nil {
		return nil, fmt.Errorf("decode tx auth_info: %w", err)
	}

	var msgs []json.RawMessage
	gas := decimal.Zero
	fees := map[string]decimal.Decimal{}
	var denoms []string
	for i, raw := range txs {
		var tx struct {
			Body struct {
				Messages []json.RawMessage `json:"messages"`
			} `json:"body"`
			AuthInfo struct {
				Fee struct {
					Amount   []Coin `json:"amount"`
					GasLimit string `json:"gas_limit"`
				} `json:"fee"`
			} `json:"auth_info"`
		}
		if err := json.Unmarshal(raw, &tx); err != nil {
			return nil, fmt.Errorf("decode unsigned tx %d: %w", i, err)
		}
		msgs = append(msgs, tx.Body.Messages...)
		if g, err := decimal.NewFromString(tx.AuthInfo.Fee.GasLimit); err == nil {
			gas = gas.Add(g)
		}
		for _, c := range tx.AuthInfo.Fee.Amount {
			amt, err := decimal.NewFromString(c.Amount)
			if err != nil {
				continue
			}
			if _, ok := fees[c.Denom]; !ok {
				denoms = append(denoms, c.Denom)
			}
			fees[c.Denom] = fees[c.Denom].Add(amt)
		}
	}

	feeAmount := make([]Coin, 0, len(denoms))
	for _, d := range denoms {
		feeAmount = append(feeAmount, Coin{Denom: d, Amount: fees[d].String()})
	}
	var fee map[string]json.RawMessage
	if err := json.Unmarshal(authInfo["fee"], &fee); err != nil || fee == nil {
		fee = map[string]json.RawMessage{}
	}
	var err error
	if fee["amount"], err = json.Marshal(feeAmount); err != nil {
		return nil, err
	}
	if fee["gas_limit"], err = json.Marshal(gas.String()); err != nil {
		return nil, err
	}
	if authInfo["fee"], err = json.Marshal(fee); err != nil {
		return nil, err
	}
	if body["messages"], err = json.Marshal(msgs); err != nil {
		return nil, err
	}
	if base["body"], err = json.Marshal(body); err != nil {
		return nil, err
	}
	if base["auth_info"], err = json.Marshal(authInfo); err != nil {
		return nil, err
	}
	return json.Marshal(base)
}
