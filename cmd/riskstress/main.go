package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// 压测输出只保留汇总，日志仅记录告警
	if err := logger.Init(logger.Config{Level: "warn", Format: "text", Output: "stderr"}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "[risk_stress] jobs=%d iterations=%d paths=%d runVar=%t\n",
		cfg.Jobs, cfg.Iterations, cfg.Paths, cfg.RunVaR)

	done := logger.LogDuration(ctx, "stress run finished", "jobs", cfg.Jobs, "iterations", cfg.Iterations)
	entries, wall, err := application.RunStress(ctx, cfg)
	done()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	printSummary(stdout, application.Summarize(entries, wall))
	return 0
}

func parseFlags(args []string, stderr io.Writer) (application.StressConfig, error) {
	cfg := application.DefaultStressConfig()
	optionOnly := false

	fs := pflag.NewFlagSet("riskstress", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "concurrent jobs")
	fs.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "iterations per job")
	fs.IntVar(&cfg.Paths, "paths", cfg.Paths, "Monte Carlo paths per run")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "workers per simulation, 0 uses GOMAXPROCS")
	fs.BoolVar(&optionOnly, "option-only", false, "skip the VaR run after each option pricing")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unknown argument: %s", fs.Arg(0))
	}
	if cfg.Iterations < 0 || cfg.Paths <= 0 {
		return cfg, fmt.Errorf("iterations must be >= 0 and paths > 0")
	}
	cfg.Jobs = max(1, cfg.Jobs)
	cfg.RunVaR = !optionOnly
	return cfg, nil
}

func printSummary(w io.Writer, s application.StressSummary) {
	fmt.Fprintln(w, "\n=== Aggregate Metrics ===")
	fmt.Fprintf(w, "Total runs        : %d\n", s.TotalRuns)
	fmt.Fprintf(w, "Wall-clock        : %.6f s\n", s.WallClock.Seconds())
	fmt.Fprintf(w, "Mean duration     : %.6f s\n", s.MeanDuration.Seconds())
	fmt.Fprintf(w, "Median duration   : %.6f s\n", s.MedianDuration.Seconds())
	fmt.Fprintf(w, "P99 duration      : %.6f s\n", s.P99Duration.Seconds())
	fmt.Fprintf(w, "Workers (avg)     : %.2f\n", s.MeanWorkers)

	if s.OptionRuns > 0 {
		fmt.Fprintln(w, "\n--- Option Pricing ---")
		fmt.Fprintf(w, "Runs              : %d\n", s.OptionRuns)
		fmt.Fprintf(w, "Price mean        : %.6f\n", s.PriceMean)
		fmt.Fprintf(w, "Price stdev       : %.6f\n", s.PriceStdDev)
		fmt.Fprintf(w, "StdErr mean       : %.6f\n", s.StdErrMean)
		fmt.Fprintf(w, "Analytic mean     : %.6f\n", s.AnalyticMean)
	}

	if s.VaRRuns > 0 {
		fmt.Fprintln(w, "\n--- Value-at-Risk ---")
		fmt.Fprintf(w, "Runs              : %d\n", s.VaRRuns)
		fmt.Fprintf(w, "VaR mean          : %.6f\n", s.VaRMean)
		fmt.Fprintf(w, "VaR stdev         : %.6f\n", s.VaRStdDev)
		fmt.Fprintf(w, "ES mean           : %.6f\n", s.ShortfallMean)
	}
}
