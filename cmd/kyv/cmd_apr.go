package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stader-labs/kyv-cli/internal/kyv"
)

func newAPRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apr",
		Short: "Compute validator APRs",
		Long: "Contract-side APRs (validator, all) are computed by the contract. " +
			"Client-side APRs (interval, intervals) are computed from the recorded snapshots.",
	}
	cmd.AddCommand(newAPRValidatorCmd(), newAPRAllCmd(), newAPRIntervalCmd(), newAPRIntervalsCmd())
	return cmd
}

func newAPRValidatorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validator <addr> <t1> <t2>",
		Short: "Contract-side APR of one validator",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamps(args[1:])
			if err != nil {
				return err
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleAPRValidator(cmd.Context(), d, args[0], ts[0], ts[1])
		},
	}
}

func newAPRAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all <t1> <t2>",
		Short: "Contract-side APR of every validator",
		Long: "Without --from/--to every validator in get_state is covered. " +
			"--from and --to are inclusive indexes into the validator list.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamps(args)
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
			return handleAPRAll(cmd.Context(), d, ts[0], ts[1], page)
		},
	}
	addPageFlags(cmd)
	return cmd
}

func newAPRIntervalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interval <t1> <t2>",
		Short: "Client-side APR between two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamps(args)
			if err != nil {
				return err
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleAPRInterval(cmd.Context(), d, ts[0], ts[1])
		},
	}
}

func newAPRIntervalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intervals <t0> <t1> [t2...]",
		Short: "Client-side APR of each snapshot against the previous one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseTimestamps(args)
			if err != nil {
				return err
			}
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleAPRIntervals(cmd.Context(), d, ts)
		},
	}
}

func handleAPRValidator(ctx context.Context, d *Deps, addr string, t1, t2 uint64) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	res, err := d.Engine.ComputeValidatorAPR(ctx, t1, t2, addr)
	if err != nil {
		return err
	}
	d.Printer.Emit(res, func() {
		d.Printer.KeyValueLine("Validator", res.ValidatorAddress, "blue")
		d.Printer.KeyValueLine("Interval", formatUnix(t1)+" → "+formatUnix(t2), "dim")
		d.Printer.Textf("%s %s %%\n", d.Printer.Colors.Label("APR:"), d.Printer.Colors.APR(res.APRPercent))
	})
	return nil
}

func handleAPRAll(ctx context.Context, d *Deps, t1, t2 uint64, page *kyv.Page) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	res, err := d.Engine.ComputeAllValidatorsAPRs(ctx, t1, t2, page)
	if err != nil {
		return err
	}
	d.Printer.Emit(map[string]any{"from_timestamp": t1, "to_timestamp": t2, "aprs": res}, func() {
		if len(res) == 0 {
			d.Printer.Info("no validators tracked")
			return
		}
		rows := make([][]string, 0, len(res))
		for _, r := range res {
			rows = append(rows, []string{r.ValidatorAddress, d.Printer.Colors.APR(r.APRPercent)})
		}
		d.Printer.Table([]string{"VALIDATOR", "APR %"}, rows)
	})
	return nil
}

func handleAPRInterval(ctx context.Context, d *Deps, t1, t2 uint64) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	apr, err := d.Engine.ComputeAPRByInterval(ctx, t1, t2)
	if err != nil {
		return err
	}
	d.Printer.Emit(kyv.AprResult{FromTimestamp: t1, ToTimestamp: t2, ValidatorAddress: kyv.AllValidators, APRPercent: apr}, func() {
		d.Printer.KeyValueLine("Interval", formatUnix(t1)+" → "+formatUnix(t2), "dim")
		d.Printer.Textf("%s %s %%\n", d.Printer.Colors.Label("APR:"), d.Printer.Colors.APR(apr))
	})
	return nil
}

func handleAPRIntervals(ctx context.Context, d *Deps, ts []uint64) error {
	ctx, cancel := withTimeout(ctx, d)
	defer cancel()
	aprs, err := d.Engine.ComputeAPRByIntervals(ctx, ts)
	if err != nil {
		return err
	}
	type row struct {
		Timestamp uint64 `json:"timestamp" yaml:"timestamp"`
		APR       string `json:"apr_percent" yaml:"apr_percent"`
	}
	out := make([]row, len(aprs))
	for i, a := range aprs {
		out[i] = row{Timestamp: ts[i], APR: a}
	}
	d.Printer.Emit(map[string]any{"intervals": out}, func() {
		rows := make([][]string, 0, len(out))
		for _, r := range out {
			rows = append(rows, []string{strconv.FormatUint(r.Timestamp, 10), formatUnix(r.Timestamp), d.Printer.Colors.APR(r.APR)})
		}
		d.Printer.Table([]string{"TIMESTAMP", "UTC", "APR %"}, rows)
	})
	return nil
}
