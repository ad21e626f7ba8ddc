package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

type outputFormat int

const (
	formatText outputFormat = iota
	formatJSON
)

func parseFormat(raw string) (outputFormat, error) {
	switch strings.ToLower(raw) {
	case "", "text":
		return formatText, nil
	case "json":
		return formatJSON, nil
	default:
		return formatText, fmt.Errorf("unsupported format: %s", raw)
	}
}

// printer 文本表格或 JSON 文档
type printer struct {
	w      io.Writer
	format outputFormat
}

type document struct {
	Command domain.CommandKind `json:"command"`
	Workers int                `json:"workers"`
	Cached  bool               `json:"cached,omitempty"`
	Result  any                `json:"result"`
}

type errorDocument struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (p *printer) json(v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(p.w, "{\"error\": \"Runtime\", \"details\": %q}\n", err.Error())
		return
	}
	fmt.Fprintf(p.w, "%s\n", raw)
}

func (p *printer) reportError(kind, details string) {
	p.json(errorDocument{Error: kind, Details: details})
}

// fail 输出运行错误并返回退出码
func (p *printer) fail(stderr io.Writer, err error) int {
	if p.format == formatJSON {
		p.reportError("Runtime", err.Error())
		return 1
	}
	fmt.Fprintf(stderr, "Runtime error: %v\n", err)
	return 1
}

func (p *printer) header(workers int) {
	fmt.Fprintf(p.w, "High-Performance Risk Simulation Engine\nWorkers: %d\n\n", workers)
}

func (p *printer) option(run *application.OptionRun) {
	if p.format == formatJSON {
		p.json(document{Command: domain.CommandOption, Workers: run.Workers, Cached: run.Cached, Result: run.Result})
		return
	}
	res := run.Result
	p.header(run.Workers)
	fmt.Fprintf(p.w, "Monte Carlo price : %.6f (std. error %.6f)\n", res.Price, res.StandardError)
	fmt.Fprintf(p.w, "Black-Scholes     : %.6f (relative error %.6f%%)\n", res.AnalyticPrice, res.RelativeError*100)
	fmt.Fprintf(p.w, "Control variate β : %.6f\n", res.ControlVariateWeight)
	fmt.Fprintf(p.w, "Paths simulated   : %d\n", res.Scenarios)
}

func (p *printer) vaR(run *application.VaRRun) {
	if p.format == formatJSON {
		p.json(document{Command: domain.CommandVaR, Workers: run.Workers, Cached: run.Cached, Result: run.Result})
		return
	}
	res := run.Result
	p.header(run.Workers)
	fmt.Fprintf(p.w, "Value-at-Risk (%.6f%%) : %.6f\n", res.Percentile*100, res.ValueAtRisk)
	fmt.Fprintf(p.w, "Expected Shortfall               : %.6f\n", res.ExpectedShortfall)
	fmt.Fprintf(p.w, "Mean loss / Std Dev              : %.6f / %.6f\n", res.MeanLoss, res.LossStdDev)
	fmt.Fprintf(p.w, "Scenarios                         : %d\n", res.Scenarios)
}

func (p *printer) convergence(run *application.ConvergenceRun) {
	if p.format == formatJSON {
		p.json(document{Command: domain.CommandConvergence, Workers: run.Workers, Cached: run.Cached, Result: run.Result})
		return
	}
	p.header(run.Workers)
	fmt.Fprintln(p.w, "Convergence study vs. Black-Scholes analytic price")
	if len(run.Result) == 0 {
		fmt.Fprintln(p.w, "No convergence points computed.")
		return
	}
	fmt.Fprintf(p.w, "%12s%18s%18s%18s%18s\n", "Paths", "Price", "Abs Error", "Rel Error", "Std Error")
	for _, pt := range run.Result {
		fmt.Fprintf(p.w, "%12d%18.6f%18.6f%18.6f%18.6f\n",
			pt.Scenarios, pt.Price, pt.AbsoluteError, pt.RelativeError, pt.StandardError)
	}
}
