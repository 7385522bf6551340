package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stader-labs/kyv-cli/internal/config"
	"github.com/stader-labs/kyv-cli/internal/exitcodes"
	ui "github.com/stader-labs/kyv-cli/internal/ui"
)

// Version information - set via -ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// rootCmd wires the CLI surface using Cobra. Persistent flags are
// applied to a loaded config in loadCfg(). Subcommands query the KYV
// contract, compute APRs and submit the manager transactions.
var rootCmd = &cobra.Command{
	Use:           "kyv",
	Short:         "KYV contract client",
	Long:          "Record validator metrics, register validators and compute APRs against the KYV contract.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ValidFormat(flagOutput) {
			return exitcodes.InvalidArgsErrorf("invalid --output: %s (use json|yaml|text)", flagOutput)
		}
		if flagNoColor {
			os.Setenv("NO_COLOR", "1")
		}
		return nil
	},
}

var (
	flagConfig         string
	flagEnv            string
	flagHome           string
	flagBin            string
	flagRPC            string
	flagLCD            string
	flagContract       string
	flagKey            string
	flagChainID        string
	flagBroadcastMode  string
	flagQueryVia       string
	flagOutput         string
	flagTimeout        time.Duration
	flagVerbose        bool
	flagDebug          bool
	flagLogJSON        bool
	flagNoColor        bool
	flagNoEmoji        bool
	flagYes            bool
	flagNonInteractive bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "YAML config file (overrides environment preset)")
	pf.StringVar(&flagEnv, "env", "", "Environment preset: development|test|production (overrides KYV_ENV)")
	pf.StringVar(&flagHome, "home", "", "Chain binary home directory (overrides env)")
	pf.StringVar(&flagBin, "bin", "", "Path to the chain binary, e.g. terrad (overrides env)")
	pf.StringVar(&flagRPC, "rpc", "", "Tendermint RPC endpoint (http[s]://host:port)")
	pf.StringVar(&flagLCD, "lcd", "", "LCD REST endpoint used with --query-via lcd")
	pf.StringVar(&flagContract, "contract", "", "KYV contract address")
	pf.StringVar(&flagKey, "key", "", "Keyring key that signs transactions")
	pf.StringVar(&flagChainID, "chain-id", "", "Chain ID")
	pf.StringVar(&flagBroadcastMode, "broadcast-mode", "", "Tx broadcast mode: sync (wait for inclusion) or block")
	pf.StringVar(&flagQueryVia, "query-via", "binary", "Query transport: binary|lcd")
	pf.StringVarP(&flagOutput, "output", "o", "text", "Output format: json|yaml|text")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Per-command timeout (default from config)")
	pf.BoolVar(&flagVerbose, "verbose", false, "Verbose logs")
	pf.BoolVarP(&flagDebug, "debug", "d", false, "Debug logs: every chain call")
	pf.BoolVar(&flagLogJSON, "log-json", false, "Write logs as JSON lines")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable ANSI colors")
	pf.BoolVar(&flagNoEmoji, "no-emoji", false, "Disable emoji output")
	pf.BoolVarP(&flagYes, "yes", "y", false, "Assume yes for all prompts")
	pf.BoolVar(&flagNonInteractive, "non-interactive", false, "Fail instead of prompting")

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return exitcodes.InvalidArgsError(err.Error())
	})

	// Replace root help to present grouped output.
	// Only apply custom help to the root command; subcommands use cobra's default help.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			fmt.Fprintln(os.Stdout, cmd.UsageString())
			return
		}
		printRootHelp(os.Stdout, ui.NewColorConfigWith(flagNoColor, flagNoEmoji))
	})

	rootCmd.AddCommand(
		newStateCmd(),
		newContractConfigCmd(),
		newTimestampsCmd(),
		newHistoryCmd(),
		newValidatorHistoryCmd(),
		newValidatorMetricsCmd(),
		newAPRCmd(),
		newAddValidatorCmd(),
		newRemoveValidatorCmd(),
		newRecordMetricsCmd(),
		newSetRecordsPerRunCmd(),
		newUpdateConfigCmd(),
		newScheduleCmd(),
		newVersionCmd(),
	)
}

func printRootHelp(w io.Writer, c *ui.ColorConfig) {
	// Fixed column width for command alignment (longest command + buffer)
	const cmdWidth = 34

	fmt.Fprintln(w, c.Header(" KYV "))
	fmt.Fprintln(w, c.Description("Record validator metrics, register validators and compute APRs."))
	fmt.Fprintln(w, c.Separator(50))
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("USAGE"))
	fmt.Fprintf(w, "  %s <command> [flags]\n", "kyv")
	fmt.Fprintln(w)

	sections := []struct {
		title string
		cmds  [][2]string
	}{
		{"Contract", [][2]string{
			{"state [--legacy]", "Show contract state"},
			{"contract-config", "Show contract config"},
			{"timestamps", "List recorded snapshot timestamps"},
			{"history <timestamp> [--from --to]", "Show validator snapshots at a timestamp"},
			{"validator-history <addr> [t1 t2]", "Show every snapshot of one validator"},
			{"validator-metrics <addr> <ts>", "Show one validator's snapshot at a timestamp"},
		}},
		{"APR", [][2]string{
			{"apr validator <addr> <t1> <t2>", "Contract-side APR of one validator"},
			{"apr all <t1> <t2> [--from --to]", "Contract-side APR of every validator"},
			{"apr interval <t1> <t2>", "Client-side APR between two snapshots"},
			{"apr intervals <t0> <t1> ...", "Client-side APR over a chain of snapshots"},
		}},
		{"Manager", [][2]string{
			{"record-metrics", "Snapshot every tracked validator now"},
			{"add-validator <valoper>", "Track a validator (attaches the deposit)"},
			{"remove-validator <valoper>", "Stop tracking a validator"},
			{"set-records-per-run <n>", "Records advanced per record_metrics run"},
			{"update-config --batch-size <n>", "Update the contract batch size"},
		}},
		{"Scheduling", [][2]string{
			{"schedule run", "Record metrics on a cron schedule (foreground)"},
			{"schedule install|uninstall|status", "Manage the crontab entry"},
		}},
	}
	for _, s := range sections {
		fmt.Fprintln(w, c.SubHeader(s.title))
		for _, it := range s.cmds {
			fmt.Fprintln(w, c.FormatCommandAligned(it[0], it[1], cmdWidth))
		}
		fmt.Fprintln(w)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stdout, os.Stderr, err)
		os.Exit(exitcodes.CodeForError(err))
	}
}

// reportError renders a failure: a structured payload on stdout for
// json/yaml, an explained error on stderr otherwise.
func reportError(stdout, stderr io.Writer, err error) {
	if flagOutput == ui.FormatJSON || flagOutput == ui.FormatYAML {
		payload := ui.ErrorPayload(err)
		payload["exit_code"] = exitcodes.CodeForError(err)
		ui.NewPrinterTo(stdout, flagOutput, nil).Emit(payload, nil)
		return
	}
	c := ui.NewColorConfigWith(flagNoColor, flagNoEmoji)
	fmt.Fprint(stderr, ui.ErrorFor(err).Format(c))
}

// loadCfg reads defaults + file + env via internal/config.Load() and then
// applies overrides from persistent flags.
func loadCfg() (config.Config, error) {
	if flagEnv != "" {
		if _, err := config.ParseEnvironment(flagEnv); err != nil {
			return config.Config{}, exitcodes.InvalidArgsError(err.Error())
		}
		os.Setenv("KYV_ENV", flagEnv)
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, exitcodes.ValidationErr(err.Error())
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, exitcodes.ValidationErr(err.Error())
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config) {
	overrides := []struct {
		flag string
		dst  *string
	}{
		{flagHome, &cfg.HomeDir},
		{flagBin, &cfg.Binary},
		{flagRPC, &cfg.RPC},
		{flagLCD, &cfg.LCD},
		{flagContract, &cfg.ContractAddress},
		{flagKey, &cfg.KeyName},
		{flagChainID, &cfg.ChainID},
		{flagBroadcastMode, &cfg.BroadcastMode},
	}
	for _, o := range overrides {
		if o.flag != "" {
			*o.dst = o.flag
		}
	}
	if flagTimeout > 0 {
		cfg.Timeout = flagTimeout
	}
}

func getPrinter() ui.Printer {
	return ui.NewPrinterTo(os.Stdout, flagOutput, ui.NewColorConfigWith(flagNoColor, flagNoEmoji))
}

// withTimeout bounds one command by the configured timeout.
func withTimeout(parent context.Context, d *Deps) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if d.Cfg.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d.Cfg.Timeout)
}
