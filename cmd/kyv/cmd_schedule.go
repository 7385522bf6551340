package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stader-labs/kyv-cli/internal/exitcodes"
	"github.com/stader-labs/kyv-cli/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Record metrics periodically",
	}

	var (
		runSpec     string
		metricsAddr string
		runNow      bool
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Record metrics on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return handleScheduleRun(ctx, d, runSpec, metricsAddr, runNow)
		},
	}
	runCmd.Flags().StringVar(&runSpec, "spec", schedule.DefaultSpec, "Cron spec (five fields, @hourly, @every 30m)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus /metrics on this address, e.g. :9102")
	runCmd.Flags().BoolVar(&runNow, "now", false, "Record once immediately before the first tick")

	var installSpec string
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install a crontab entry running record-metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			return handleScheduleInstall(d, installSpec, crontabCommand(exe))
		},
	}
	installCmd.Flags().StringVar(&installSpec, "spec", schedule.DefaultSpec, "Crontab spec (five fields or @hourly)")

	uninstallCmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the record-metrics crontab entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleScheduleUninstall(d)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the record-metrics crontab entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleScheduleStatus(d)
		},
	}

	cmd.AddCommand(runCmd, installCmd, uninstallCmd, statusCmd)
	return cmd
}

func handleScheduleRun(ctx context.Context, d *Deps, spec, metricsAddr string, runNow bool) error {
	runner, err := schedule.NewRunner(d.Engine, spec, schedule.RunnerOptions{
		Timeout: d.Cfg.Timeout,
		Logger:  d.Log,
		Metrics: d.Metrics,
	})
	if err != nil {
		return exitcodes.InvalidArgsError(err.Error())
	}

	if metricsAddr != "" {
		stop, err := serveMetrics(d, metricsAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	if !d.Printer.Structured() {
		d.Printer.Info(fmt.Sprintf("recording metrics on %q (Ctrl+C to stop)", runner.Spec()))
	}
	if runNow {
		// A failed first run is logged and counted like any other tick.
		_, _ = runner.RunOnce(ctx)
	}
	return runner.Run(ctx)
}

// serveMetrics exposes /metrics and returns a function that shuts the
// server down.
func serveMetrics(d *Deps, addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, exitcodes.PreconditionErrorf("listen on %s: %v", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.Metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.Log.Error().Err(err).Msg("metrics server")
		}
	}()
	d.Log.Info().Str("addr", ln.Addr().String()).Msg("serving /metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// crontabCommand is the record-metrics invocation written to the crontab.
// Connection flags given to this process are carried over; the config
// path is made absolute since cron runs from $HOME.
func crontabCommand(exe string) []string {
	cmd := []string{exe, "record-metrics", "--non-interactive", "--log-json"}
	if flagConfig != "" {
		p, err := filepath.Abs(flagConfig)
		if err != nil {
			p = flagConfig
		}
		cmd = append(cmd, "--config", p)
	}
	for _, f := range []struct{ name, val string }{
		{"--env", flagEnv},
		{"--home", flagHome},
		{"--bin", flagBin},
		{"--rpc", flagRPC},
		{"--contract", flagContract},
		{"--key", flagKey},
		{"--chain-id", flagChainID},
		{"--broadcast-mode", flagBroadcastMode},
	} {
		if f.val != "" {
			cmd = append(cmd, f.name, f.val)
		}
	}
	return cmd
}

func handleScheduleInstall(d *Deps, spec string, command []string) error {
	if err := schedule.ValidateCrontabSpec(spec); err != nil {
		return exitcodes.InvalidArgsError(err.Error())
	}
	if err := schedule.InstallCrontab(d.Tab, spec, command); err != nil {
		return exitcodes.PreconditionErrorf("install crontab entry: %v", err)
	}
	line := schedule.CrontabLine(spec, command)
	d.Printer.Emit(map[string]any{"ok": true, "installed": true, "spec": spec, "entry": line}, func() {
		d.Printer.Success("crontab entry installed")
		d.Printer.KeyValueLine("  Schedule", spec, "blue")
		d.Printer.KeyValueLine("  Entry", line, "dim")
	})
	return nil
}

func handleScheduleUninstall(d *Deps) error {
	was := schedule.IsCrontabInstalled(d.Tab)
	if err := schedule.UninstallCrontab(d.Tab); err != nil {
		return exitcodes.PreconditionErrorf("remove crontab entry: %v", err)
	}
	d.Printer.Emit(map[string]any{"ok": true, "removed": was}, func() {
		if was {
			d.Printer.Success("crontab entry removed")
		} else {
			d.Printer.Info("no crontab entry installed")
		}
	})
	return nil
}

func handleScheduleStatus(d *Deps) error {
	line, ok, err := schedule.InstalledCrontabLine(d.Tab)
	if err != nil {
		return exitcodes.PreconditionErrorf("read crontab: %v", err)
	}
	d.Printer.Emit(map[string]any{"installed": ok, "entry": line}, func() {
		if !ok {
			d.Printer.Info("not installed (kyv schedule install)")
			return
		}
		d.Printer.Success("installed")
		d.Printer.KeyValueLine("  Entry", line, "dim")
	})
	return nil
}
