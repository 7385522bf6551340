package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/stader-labs/kyv-cli/internal/exitcodes"
	"github.com/stader-labs/kyv-cli/internal/kyv"
	ui "github.com/stader-labs/kyv-cli/internal/ui"
)

func newStateCmd() *cobra.Command {
	var legacy bool
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show contract state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleState(cmd.Context(), d, legacy)
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Use the legacy get_current_state query")
	return cmd
}

func newContractConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contract-config",
		Short: "Show contract config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleContractConfig(cmd.Context(), d)
		},
	}
}

func newTimestampsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timestamps",
		Short: "List recorded snapshot timestamps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleTimestamps(cmd.Context(), d)
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <timestamp>",
		Short: "Show validator snapshots at a timestamp",
		Long: "Without --from/--to this issues get_history_by_time. With them it " +
			"issues the paginated get_validators_metrics_by_timestamp over the inclusive index range.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamp(args[0])
			if err != nil {
				return err
			}
			page, err := pageFromFlags(cmd)
			if err != nil {
				return err
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleHistory(cmd.Context(), d, ts, page)
		},
	}
	addPageFlags(cmd)
	return cmd
}

func newValidatorHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validator-history <addr> [<t1> <t2>]",
		Short: "Show every snapshot of one validator",
		Long:  "With t1 and t2 only snapshots with t1 <= timestamp <= t2 are shown.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return exitcodes.InvalidArgsErrorf("accepts <addr> or <addr> <t1> <t2>, received %d arg(s)", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamps(args[1:])
			if err != nil {
				return err
			}
			if len(ts) == 2 && ts[0] >= ts[1] {
				return exitcodes.InvalidArgsErrorf("t1 (%d) must be before t2 (%d)", ts[0], ts[1])
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleValidatorHistory(cmd.Context(), d, args[0], ts)
		},
	}
}

func newValidatorMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validator-metrics <addr> <timestamp>",
		Short: "Show one validator's snapshot at a timestamp",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamp(args[1])
			if err != nil {
				return err
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleValidatorMetrics(cmd.Context(), d, args[0], ts)
		},
	}
}

func handleState(ctx context.Context, d *Deps, legacy bool) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	get := d.Engine.GetState
	title := "Contract state"
	if legacy {
		get = d.Engine.GetCurrentState
		title = "Contract state (legacy)"
	}
	raw, err := get(ctx)
	if err != nil {
		return err
	}
	return emitRaw(d, title, raw)
}

func handleContractConfig(ctx context.Context, d *Deps) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	raw, err := d.Engine.GetConfig(ctx)
	if err != nil {
		return err
	}
	return emitRaw(d, "Contract config", raw)
}

// emitRaw prints a contract response untouched in json, as a document in
// yaml and indented under a section header in text.
func emitRaw(d *Deps, title string, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode %s: %w", title, err)
	}
	switch d.Printer.Format() {
	case ui.FormatJSON:
		d.Printer.JSON(raw)
	case ui.FormatYAML:
		d.Printer.YAML(v)
	default:
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
		d.Printer.Section(title)
		d.Printer.Textf("%s\n", buf.String())
	}
	return nil
}

func handleTimestamps(ctx context.Context, d *Deps) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	ts, err := d.Engine.GetAllTimestamps(ctx)
	if err != nil {
		return err
	}
	if ts == nil {
		ts = []uint64{}
	}
	d.Printer.Emit(map[string]any{"timestamps": ts, "count": len(ts)}, func() {
		if len(ts) == 0 {
			d.Printer.Info("no metrics recorded yet")
			return
		}
		rows := make([][]string, 0, len(ts))
		for _, t := range ts {
			rows = append(rows, []string{strconv.FormatUint(t, 10), formatUnix(t)})
		}
		d.Printer.Table([]string{"TIMESTAMP", "UTC"}, rows)
	})
	return nil
}

func handleHistory(ctx context.Context, d *Deps, ts uint64, page *kyv.Page) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	var metrics []kyv.ValidatorMetric
	var err error
	if page != nil {
		metrics, err = d.Engine.GetValidatorsMetricsAt(ctx, ts, page)
	} else {
		metrics, err = d.Engine.GetHistoryByTime(ctx, ts)
	}
	if err != nil {
		return err
	}
	if metrics == nil {
		metrics = []kyv.ValidatorMetric{}
	}
	d.Printer.Emit(map[string]any{"timestamp": ts, "validators": metrics}, func() {
		if len(metrics) == 0 {
			d.Printer.Warn(fmt.Sprintf("no snapshot at %d", ts))
			return
		}
		metricsTable(d, metrics)
	})
	return nil
}

// handleValidatorHistory lists addr's snapshots; ts is empty or [t1, t2].
func handleValidatorHistory(ctx context.Context, d *Deps, addr string, ts []uint64) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	var metrics []kyv.ValidatorMetric
	var err error
	if len(ts) == 2 {
		metrics, err = d.Engine.GetValidatorMetricsBetween(ctx, addr, ts[0], ts[1])
	} else {
		metrics, err = d.Engine.GetAllValidatorMetrics(ctx, addr)
	}
	if err != nil {
		return err
	}
	if metrics == nil {
		metrics = []kyv.ValidatorMetric{}
	}
	d.Printer.Emit(map[string]any{"validator": addr, "metrics": metrics}, func() {
		if len(metrics) == 0 {
			d.Printer.Warn(fmt.Sprintf("no snapshots for %s", addr))
			return
		}
		metricsTable(d, metrics)
	})
	return nil
}

func handleValidatorMetrics(ctx context.Context, d *Deps, addr string, ts uint64) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	m, err := d.Engine.GetValidatorMetricsAt(ctx, addr, ts)
	if err != nil {
		return err
	}
	d.Printer.Emit(m, func() {
		d.Printer.KeyValueLine("Validator", m.Address, "blue")
		d.Printer.KeyValueLine("Delegated", ui.FormatAmount(m.DelegatedAmount), "")
		d.Printer.KeyValueLine("Rewards", ui.FormatAmount(m.RewardsAccrued), "")
		d.Printer.KeyValueLine("Recorded", formatUnix(m.Timestamp), "dim")
	})
	return nil
}

func metricsTable(d *Deps, metrics []kyv.ValidatorMetric) {
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{
			m.Address,
			ui.FormatAmount(m.DelegatedAmount),
			ui.FormatAmount(m.RewardsAccrued),
			formatUnix(m.Timestamp),
		})
	}
	d.Printer.Table([]string{"VALIDATOR", "DELEGATED", "REWARDS", "RECORDED"}, rows)
}

func formatUnix(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
