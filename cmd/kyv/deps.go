package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/stader-labs/kyv-cli/internal/chain"
	"github.com/stader-labs/kyv-cli/internal/config"
	"github.com/stader-labs/kyv-cli/internal/exitcodes"
	"github.com/stader-labs/kyv-cli/internal/kyv"
	"github.com/stader-labs/kyv-cli/internal/logging"
	"github.com/stader-labs/kyv-cli/internal/schedule"
	"github.com/stader-labs/kyv-cli/internal/telemetry"
	ui "github.com/stader-labs/kyv-cli/internal/ui"
)

// Engine is the KYV engine surface the commands use; *kyv.Engine in
// production, a mock in tests.
type Engine interface {
	GetHistoryByTime(ctx context.Context, ts uint64) ([]kyv.ValidatorMetric, error)
	GetState(ctx context.Context) (json.RawMessage, error)
	GetCurrentState(ctx context.Context) (json.RawMessage, error)
	GetConfig(ctx context.Context) (json.RawMessage, error)
	GetAllTimestamps(ctx context.Context) ([]uint64, error)
	GetAllValidatorMetrics(ctx context.Context, addr string) ([]kyv.ValidatorMetric, error)
	GetValidatorMetricsBetween(ctx context.Context, addr string, t1, t2 uint64) ([]kyv.ValidatorMetric, error)
	GetValidatorMetricsAt(ctx context.Context, addr string, ts uint64) (kyv.ValidatorMetric, error)
	GetValidatorsMetricsAt(ctx context.Context, ts uint64, page *kyv.Page) ([]kyv.ValidatorMetric, error)
	ComputeValidatorAPR(ctx context.Context, t1, t2 uint64, addr string) (kyv.AprResult, error)
	ComputeAllValidatorsAPRs(ctx context.Context, t1, t2 uint64, page *kyv.Page) ([]kyv.AprResult, error)
	ComputeAPRByInterval(ctx context.Context, t1, t2 uint64) (string, error)
	ComputeAPRByIntervals(ctx context.Context, ts []uint64) ([]string, error)

	AddNewValidator(ctx context.Context, addr string) (chain.TxResult, error)
	RecordMetrics(ctx context.Context) (chain.TxResult, error)
	UpdateRecordsToUpdatePerRun(ctx context.Context, n uint64) (chain.TxResult, error)
	RemoveValidator(ctx context.Context, addr string) (chain.TxResult, error)
	UpdateConfig(ctx context.Context, batchSize uint64) (chain.TxResult, error)
}

// Prompter abstracts interactive terminal I/O for testability.
type Prompter interface {
	// ReadLine displays the prompt and reads a line of input.
	ReadLine(prompt string) (string, error)
	// IsInteractive returns whether the terminal supports interactive input.
	IsInteractive() bool
}

// Deps holds all injectable dependencies for command handlers.
type Deps struct {
	Cfg      config.Config
	Engine   Engine
	Printer  ui.Printer
	Prompter Prompter
	Log      zerolog.Logger
	Metrics  *telemetry.Metrics
	Tab      schedule.Tab
}

// ttyPrompter is the production implementation of Prompter.
// It uses /dev/tty when stdin is not a terminal (e.g., piped input).
type ttyPrompter struct {
	out io.Writer
}

func (p *ttyPrompter) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	var reader *bufio.Reader
	if term.IsTerminal(int(os.Stdin.Fd())) {
		reader = bufio.NewReader(os.Stdin)
	} else {
		tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			return "", fmt.Errorf("no interactive terminal available: %w", err)
		}
		defer tty.Close()
		reader = bufio.NewReader(tty)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *ttyPrompter) IsInteractive() bool {
	if flagNonInteractive {
		return false
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err == nil {
		tty.Close()
		return true
	}
	return false
}

// newDeps creates production dependencies from the current flags and config.
func newDeps() (*Deps, error) {
	cfg, err := loadCfg()
	if err != nil {
		return nil, err
	}
	log := logging.New(os.Stderr, logging.LevelFor(flagVerbose, flagDebug, false), flagLogJSON, flagNoColor)
	metrics := telemetry.New()

	client, err := newClient(cfg, log)
	if err != nil {
		return nil, err
	}
	engine := kyv.New(
		chain.Instrument(client, metrics, log),
		kyv.WithLogger(log),
		kyv.WithDeposit(chain.Coin{Denom: cfg.Denom, Amount: cfg.Deposit}),
	)

	return &Deps{
		Cfg:      cfg,
		Engine:   engine,
		Printer:  getPrinter(),
		Prompter: &ttyPrompter{out: os.Stderr},
		Log:      log,
		Metrics:  metrics,
		Tab:      schedule.SystemTab{},
	}, nil
}

// newClient builds the chain client selected by --query-via. Transactions
// always go through the chain binary and its keyring.
func newClient(cfg config.Config, log zerolog.Logger) (chain.Client, error) {
	signer := chain.NewKeyringSigner(chain.KeyringOptions{
		Binary:         cfg.Binary,
		HomeDir:        cfg.HomeDir,
		KeyName:        cfg.KeyName,
		KeyringBackend: cfg.KeyringBackend,
		ChainID:        cfg.ChainID,
		Node:           cfg.RPC,
	})
	binary := chain.NewBinary(chain.BinaryOptions{
		Binary:        cfg.Binary,
		HomeDir:       cfg.HomeDir,
		ChainID:       cfg.ChainID,
		Node:          cfg.RPC,
		Contract:      cfg.ContractAddress,
		GasPrices:     cfg.GasPrices,
		GasAdjustment: cfg.GasAdjustment,
		BroadcastMode: cfg.BroadcastMode,
		Signer:        signer,
		Logger:        log,
	})

	switch flagQueryVia {
	case "", "binary":
		return binary, nil
	case "lcd":
		if cfg.LCD == "" {
			return nil, exitcodes.InvalidArgsError("--query-via lcd needs an LCD endpoint (--lcd or KYV_LCD)")
		}
		lcd := chain.NewLCD(chain.LCDOptions{
			BaseURL:  cfg.LCD,
			Contract: cfg.ContractAddress,
			Retries:  cfg.QueryRetries,
			Timeout:  cfg.Timeout,
		})
		return chain.Routed{Queries: lcd, Txs: binary}, nil
	}
	return nil, exitcodes.InvalidArgsErrorf("invalid --query-via %q (use binary|lcd)", flagQueryVia)
}
