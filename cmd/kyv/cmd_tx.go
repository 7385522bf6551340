package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stader-labs/kyv-cli/internal/exitcodes"
)

func newAddValidatorCmd() *cobra.Command {
	var initial bool
	cmd := &cobra.Command{
		Use:   "add-validator [valoper]",
		Short: "Track a validator (attaches the registration deposit)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if initial == (len(args) == 1) {
				return exitcodes.InvalidArgsError("pass exactly one validator address, or --initial")
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			addrs := args
			if initial {
				addrs = d.Cfg.InitialValidators
				if len(addrs) == 0 {
					return exitcodes.PreconditionError("no initial_validators configured for this environment")
				}
			}
			return handleAddValidators(cmd.Context(), d, addrs)
		},
	}
	cmd.Flags().BoolVar(&initial, "initial", false, "Add the environment's initial validators")
	return cmd
}

func newRemoveValidatorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-validator <valoper>",
		Short: "Stop tracking a validator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateValoper(args[0]); err != nil {
				return err
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleRemoveValidator(cmd.Context(), d, args[0])
		},
	}
}

func newRecordMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record-metrics",
		Short: "Snapshot every tracked validator now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleRecordMetrics(cmd.Context(), d)
		},
	}
}

func newSetRecordsPerRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-records-per-run <n>",
		Short: "Set how many records one record_metrics run advances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseCount("records per run", args[0])
			if err != nil {
				return err
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleSetRecordsPerRun(cmd.Context(), d, n)
		},
	}
}

func newUpdateConfigCmd() *cobra.Command {
	var batchSize uint64
	cmd := &cobra.Command{
		Use:   "update-config",
		Short: "Update the contract batch size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize == 0 {
				return exitcodes.InvalidArgsError("--batch-size must be a positive integer")
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleUpdateConfig(cmd.Context(), d, batchSize)
		},
	}
	cmd.Flags().Uint64Var(&batchSize, "batch-size", 0, "Validators processed per batch")
	_ = cmd.MarkFlagRequired("batch-size")
	return cmd
}

// handleAddValidators adds each address in order and stops at the first
// failure.
func handleAddValidators(ctx context.Context, d *Deps, addrs []string) error {
	for _, a := range addrs {
		if err := validateValoper(a); err != nil {
			return err
		}
	}
	deposit := d.Cfg.Deposit + d.Cfg.Denom
	q := fmt.Sprintf("Add %s with a deposit of %s?", addrs[0], deposit)
	if len(addrs) > 1 {
		q = fmt.Sprintf("Add %d validators with a deposit of %s each?", len(addrs), deposit)
	}
	ok, err := confirm(d, q)
	if err != nil {
		return err
	}
	if !ok {
		d.Printer.Info("cancelled")
		return nil
	}
	for _, a := range addrs {
		ctx, cancel := withTimeout(ctx, d)
		res, err := d.Engine.AddNewValidator(ctx, a)
		cancel()
		if err != nil {
			return txFailure("add_validator "+a, err)
		}
		printTxResult(d, "Validator added", res, map[string]any{"validator": a, "deposit": deposit})
	}
	return nil
}

func handleRemoveValidator(ctx context.Context, d *Deps, addr string) error {
	ok, err := confirm(d, fmt.Sprintf("Remove %s from the tracked validators?", addr))
	if err != nil {
		return err
	}
	if !ok {
		d.Printer.Info("cancelled")
		return nil
	}
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	res, err := d.Engine.RemoveValidator(ctx, addr)
	if err != nil {
		return txFailure("remove_validator", err)
	}
	printTxResult(d, "Validator removed", res, map[string]any{"validator": addr})
	return nil
}

func handleRecordMetrics(ctx context.Context, d *Deps) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	res, err := d.Engine.RecordMetrics(ctx)
	if err != nil {
		return txFailure("record_metrics", err)
	}
	printTxResult(d, "Metrics recorded", res, nil)
	return nil
}

func handleSetRecordsPerRun(ctx context.Context, d *Deps, n uint64) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	res, err := d.Engine.UpdateRecordsToUpdatePerRun(ctx, n)
	if err != nil {
		return txFailure("update_records_to_update_per_run", err)
	}
	printTxResult(d, "Records per run updated", res, map[string]any{"records_per_run": n})
	return nil
}

func handleUpdateConfig(ctx context.Context, d *Deps, batchSize uint64) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	res, err := d.Engine.UpdateConfig(ctx, batchSize)
	if err != nil {
		return txFailure("update_config", err)
	}
	printTxResult(d, "Contract config updated", res, map[string]any{"batch_size": batchSize})
	return nil
}
