package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/spf13/cobra"

	"github.com/stader-labs/kyv-cli/internal/chain"
	"github.com/stader-labs/kyv-cli/internal/exitcodes"
	"github.com/stader-labs/kyv-cli/internal/kyv"
)

// parseTimestamp accepts unix seconds or an RFC3339 time.
func parseTimestamp(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, exitcodes.InvalidArgsErrorf("invalid timestamp %q (unix seconds or RFC3339)", s)
	}
	if t.Unix() < 0 {
		return 0, exitcodes.InvalidArgsErrorf("timestamp %q is before the unix epoch", s)
	}
	return uint64(t.Unix()), nil
}

func parseTimestamps(args []string) ([]uint64, error) {
	out := make([]uint64, 0, len(args))
	for _, a := range args {
		ts, err := parseTimestamp(a)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func parseCount(name, s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, exitcodes.InvalidArgsErrorf("%s must be a positive integer, got %q", name, s)
	}
	return n, nil
}

// addPageFlags registers --from/--to for a paginated validator query.
func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("from", 0, "First validator index (inclusive)")
	cmd.Flags().Uint64("to", 0, "Last validator index (inclusive)")
}

// pageFromFlags returns nil when neither --from nor --to was given. Both
// bounds are inclusive, so --from 2 --to 2 selects a single validator.
func pageFromFlags(cmd *cobra.Command) (*kyv.Page, error) {
	fs := cmd.Flags()
	if !fs.Changed("from") && !fs.Changed("to") {
		return nil, nil
	}
	if !fs.Changed("to") {
		return nil, exitcodes.InvalidArgsError("--to is required with --from")
	}
	from, err := fs.GetUint64("from")
	if err != nil {
		return nil, exitcodes.InvalidArgsErrorf("--from: %v", err)
	}
	to, err := fs.GetUint64("to")
	if err != nil {
		return nil, exitcodes.InvalidArgsErrorf("--to: %v", err)
	}
	if to < from {
		return nil, exitcodes.InvalidArgsErrorf("--to (%d) must not be less than --from (%d)", to, from)
	}
	return &kyv.Page{From: from, To: to}, nil
}

// validateValoper checks addr is a bech32 validator operator address
// (HRP ending in "valoper", e.g. terravaloper1...).
func validateValoper(addr string) error {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return exitcodes.InvalidArgsErrorf("invalid validator address %q: %v", addr, err)
	}
	if !strings.HasSuffix(hrp, "valoper") {
		return exitcodes.InvalidArgsErrorf("%q is not a validator operator address (want prefix *valoper)", addr)
	}
	if _, err := bech32.ConvertBits(data, 5, 8, false); err != nil {
		return exitcodes.InvalidArgsErrorf("invalid validator address %q: %v", addr, err)
	}
	return nil
}

// confirm asks a y/N question. --yes and structured output skip it;
// --non-interactive without --yes is a precondition failure.
func confirm(d *Deps, question string) (bool, error) {
	if flagYes || d.Printer.Structured() {
		return true, nil
	}
	if d.Prompter == nil || !d.Prompter.IsInteractive() {
		return false, exitcodes.PreconditionError("confirmation required: use --yes in non-interactive mode")
	}
	response, err := d.Prompter.ReadLine(question + " (y/N): ")
	if err != nil {
		return false, nil
	}
	r := strings.ToLower(strings.TrimSpace(response))
	return r == "y" || r == "yes", nil
}

// printTxResult reports an accepted transaction.
func printTxResult(d *Deps, action string, res chain.TxResult, extra map[string]any) {
	payload := map[string]any{
		"ok":         true,
		"action":     action,
		"txhash":     res.TxHash,
		"height":     res.Height,
		"gas_wanted": res.GasWanted,
		"gas_used":   res.GasUsed,
	}
	if u := d.Cfg.TxURL(res.TxHash); u != "" {
		payload["explorer"] = u
	}
	for k, v := range extra {
		payload[k] = v
	}
	d.Printer.Emit(payload, func() {
		d.Printer.Success(action)
		d.Printer.KeyValueLine("  TxHash", res.TxHash, "blue")
		if res.Height > 0 {
			d.Printer.KeyValueLine("  Height", strconv.FormatInt(res.Height, 10), "")
		}
		if res.GasUsed > 0 {
			d.Printer.KeyValueLine("  Gas", fmt.Sprintf("%d / %d", res.GasUsed, res.GasWanted), "dim")
		}
		if u := d.Cfg.TxURL(res.TxHash); u != "" {
			d.Printer.KeyValueLine("  Explorer", u, "dim")
		}
	})
}

// txFailure maps an execute failure onto an exit-coded error. Contract
// rejections keep the TxError reachable through Unwrap.
func txFailure(action string, err error) error {
	if _, ok := chain.AsTxError(err); ok {
		return exitcodes.RejectedErr(action+" rejected", err)
	}
	return err
}
