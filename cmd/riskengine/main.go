package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
	"github.com/wyfcoding/riskengine/pkg/logger"
)

const usage = `Usage:
  riskengine <command> [options]

Commands:
  option       Price a European option via Monte Carlo
  var          Estimate portfolio VaR and Expected Shortfall
  convergence  Run a convergence study against Black-Scholes

Common Options:
  --spot <value>          Spot price (default: 100)
  --rate <value>          Risk-free rate (default: 0.02)
  --dividend <value>      Dividend yield (default: 0.01)
  --vol <value>           Volatility (default: 0.2)
  --maturity <value>      Time to maturity in years (default: 1)
  --steps <value>         Time steps per path (default: 252)
  --paths <value>         Monte Carlo paths (default: 200000)
  --seed <value>          RNG seed (default: 42)
  --antithetic=<bool>     Enable antithetic variates (default: true)
  --control=<bool>        Enable control variate (default: true)
  --block <value>         Simulation block size (default: 4096)
  --workers <value>       Worker goroutines, 0 uses GOMAXPROCS (default: 0)
  --format <text|json>    Output format (default: text)
  --remote <host:port>    Run on a remote riskdashboard gRPC server
  --timeout <seconds>     Remote request timeout (default: 300)

Option Command Options:
  --strike <value>        Strike price (default: spot)
  --type <call|put>       Option type (default: call)

VaR Command Options:
  --notional <value>      Portfolio notional (default: 1)
  --percentile <value>    VaR percentile in (0,1) (default: 0.99)

Convergence Command Options:
  --samples <list>        Comma-separated path counts
                          (default: 5000,20000,80000,160000)

Every option can also be set through RISKENGINE_<NAME> environment variables.
`

// runner 本地服务或远程 gRPC 客户端
type runner interface {
	PriceOption(ctx context.Context, cmd application.PriceOptionCommand) (*application.OptionRun, error)
	EstimateVaR(ctx context.Context, cmd application.EstimateVaRCommand) (*application.VaRRun, error)
	RunConvergence(ctx context.Context, cmd application.ConvergenceCommand) (*application.ConvergenceRun, error)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stdout, usage)
		return 1
	}
	command := args[0]
	if command == "-h" || command == "--help" || command == "help" {
		fmt.Fprint(stdout, usage)
		return 0
	}

	v, err := parseFlags(args[1:])
	if err != nil {
		fmt.Fprintf(stderr, "Argument error: %v\n", err)
		fmt.Fprint(stdout, usage)
		return 1
	}

	format, err := parseFormat(v.GetString("format"))
	if err != nil {
		fmt.Fprintf(stderr, "Runtime error: %v\n", err)
		return 1
	}
	out := &printer{w: stdout, format: format}

	switch domain.CommandKind(command) {
	case domain.CommandOption, domain.CommandVaR, domain.CommandConvergence:
	default:
		if format == formatJSON {
			out.reportError("Unknown command", command)
		} else {
			fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
			fmt.Fprint(stdout, usage)
		}
		return 1
	}

	// 日志写 stderr，避免污染结果输出
	if err := logger.Init(logger.Config{Level: v.GetString("log-level"), Format: "text", Output: "stderr"}); err != nil {
		fmt.Fprintf(stderr, "Runtime error: %v\n", err)
		return 1
	}

	r, closeRunner, err := newRunner(v)
	if err != nil {
		return out.fail(stderr, err)
	}
	defer closeRunner()

	ctx := context.Background()
	if err := execute(ctx, r, domain.CommandKind(command), v, out); err != nil {
		return out.fail(stderr, err)
	}
	return 0
}

func parseFlags(args []string) (*viper.Viper, error) {
	fs := pflag.NewFlagSet("riskengine", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Float64("spot", 100, "")
	fs.Float64("rate", 0.02, "")
	fs.Float64("dividend", 0.01, "")
	fs.Float64("vol", 0.2, "")
	fs.Float64("maturity", 1, "")
	fs.Int("steps", 252, "")
	fs.Int("paths", 200000, "")
	fs.Uint64("seed", 42, "")
	fs.Bool("antithetic", true, "")
	fs.Bool("control", true, "")
	fs.Int("block", 4096, "")
	fs.Int("workers", 0, "")
	fs.Float64("strike", 0, "")
	fs.String("type", "call", "")
	fs.Float64("notional", 1, "")
	fs.Float64("percentile", 0.99, "")
	fs.String("samples", "", "")
	fs.String("format", "text", "")
	fs.String("remote", "", "")
	fs.Int("timeout", 300, "")
	fs.String("log-level", "warn", "")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected token: %s", fs.Arg(0))
	}

	v := viper.New()
	v.SetEnvPrefix("RISKENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

func parameters(v *viper.Viper) application.Parameters {
	p := application.DefaultParameters()
	p.Market = domain.MarketParams{
		Spot:          v.GetFloat64("spot"),
		RiskFreeRate:  v.GetFloat64("rate"),
		DividendYield: v.GetFloat64("dividend"),
		Volatility:    v.GetFloat64("vol"),
	}
	p.Simulation.Maturity = v.GetFloat64("maturity")
	p.Simulation.TimeSteps = v.GetInt("steps")
	p.Simulation.Paths = v.GetInt("paths")
	p.Simulation.Seed = v.GetUint64("seed")
	p.Simulation.UseAntithetic = v.GetBool("antithetic")
	p.Simulation.UseControlVariate = v.GetBool("control")
	p.Simulation.BlockSize = v.GetInt("block")
	p.Simulation.VaRConfidenceLevel = v.GetFloat64("percentile")
	p.Simulation.Workers = v.GetInt("workers")
	return p
}

func optionConfig(v *viper.Viper, spot float64) (domain.OptionConfig, error) {
	// 未显式给出时取平值，显式的非正值交给引擎校验
	opt := domain.OptionConfig{Strike: spot, IsCall: true}
	if v.IsSet("strike") {
		opt.Strike = v.GetFloat64("strike")
	}
	switch strings.ToLower(v.GetString("type")) {
	case "call":
	case "put":
		opt.IsCall = false
	default:
		return opt, fmt.Errorf("unknown option type: %s", v.GetString("type"))
	}
	return opt, nil
}

// parseSamples 逗号分隔，忽略空项
func parseSamples(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return append([]int(nil), application.DefaultSampleSizes...), nil
	}
	var out []int
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		n, err := strconv.Atoi(item)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid sample size: %q", item)
		}
		out = append(out, n)
	}
	return out, nil
}

func execute(ctx context.Context, r runner, command domain.CommandKind, v *viper.Viper, out *printer) error {
	p := parameters(v)
	switch command {
	case domain.CommandOption:
		opt, err := optionConfig(v, p.Market.Spot)
		if err != nil {
			return err
		}
		res, err := r.PriceOption(ctx, application.PriceOptionCommand{Parameters: p, Option: opt})
		if err != nil {
			return err
		}
		out.option(res)
	case domain.CommandVaR:
		cfg := domain.VaRConfig{
			Percentile: v.GetFloat64("percentile"),
			Notional:   v.GetFloat64("notional"),
		}
		res, err := r.EstimateVaR(ctx, application.EstimateVaRCommand{Parameters: p, VaR: cfg})
		if err != nil {
			return err
		}
		out.vaR(res)
	case domain.CommandConvergence:
		opt, err := optionConfig(v, p.Market.Spot)
		if err != nil {
			return err
		}
		samples, err := parseSamples(v.GetString("samples"))
		if err != nil {
			return err
		}
		res, err := r.RunConvergence(ctx, application.ConvergenceCommand{Parameters: p, Option: opt, SampleSizes: samples})
		if err != nil {
			return err
		}
		out.convergence(res)
	default:
		return errors.New("unknown command")
	}
	return nil
}

// newRunner 设置 --remote 时走 gRPC，否则本地计算
func newRunner(v *viper.Viper) (runner, func(), error) {
	if addr := v.GetString("remote"); addr != "" {
		return dialRemote(addr, time.Duration(v.GetInt("timeout"))*time.Second)
	}
	return application.NewSimulationService(nil), func() {}, nil
}
