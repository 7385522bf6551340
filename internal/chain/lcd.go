package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// LCDOptions configures an LCDClient.
type LCDOptions struct {
	BaseURL  string // e.g. https://lcd.terra.dev
	Contract string
	Retries  int
	Timeout  time.Duration
}

// LCDClient runs smart queries over the LCD REST gateway. It cannot sign,
// so Execute always returns ErrReadOnly.
type LCDClient struct {
	base     string
	contract string
	http     *retryablehttp.Client
}

// NewLCD builds a read-only client. Retries apply to transport errors and
// gateway unavailability only; contract errors are returned at once.
func NewLCD(opts LCDOptions) *LCDClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	c := retryablehttp.NewClient()
	c.RetryMax = opts.Retries
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.Logger = nil
	c.HTTPClient.Timeout = opts.Timeout
	c.CheckRetry = lcdRetryPolicy
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &LCDClient{
		base:     strings.TrimRight(opts.BaseURL, "/"),
		contract: opts.Contract,
		http:     c,
	}
}

func lcdRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

func (c *LCDClient) Sender() string { return "" }

func (c *LCDClient) Execute(context.Context, []any, Coins) (TxResult, error) {
	return TxResult{}, ErrReadOnly
}

func (c *LCDClient) Query(ctx context.Context, req any, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return &QueryError{Err: fmt.Errorf("encode request: %w", err)}
	}
	name := queryName(body)
	u := fmt.Sprintf("%s/cosmwasm/wasm/v1/contract/%s/smart/%s",
		c.base, url.PathEscape(c.contract), base64.URLEncoding.EncodeToString(body))

	hreq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &QueryError{Query: name, Err: err}
	}
	hreq.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(hreq)
	if err != nil {
		return &QueryError{Query: name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return &QueryError{Query: name, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode >= 300 {
		var gwErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &gwErr) == nil && gwErr.Message != "" {
			return &QueryError{Query: name, Err: fmt.Errorf("http %d: %s", resp.StatusCode, gwErr.Message)}
		}
		return &QueryError{Query: name, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}
	return decodeQueryData(name, raw, out)
}
