package http

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

// queryReader 读取查询参数，记录第一个解析错误
type queryReader struct {
	c   *gin.Context
	err error
}

func (q *queryReader) raw(key string) (string, bool) {
	v, ok := q.c.GetQuery(key)
	if !ok || q.err != nil {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (q *queryReader) fail(key, v string) {
	q.err = fmt.Errorf("invalid query parameter %s=%q", key, v)
}

func (q *queryReader) getFloat(key string, def float64) float64 {
	v, ok := q.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		q.fail(key, v)
		return def
	}
	return f
}

func (q *queryReader) getInt(key string, def int) int {
	v, ok := q.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.fail(key, v)
		return def
	}
	return n
}

func (q *queryReader) getUint(key string, def uint64) uint64 {
	v, ok := q.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		q.fail(key, v)
		return def
	}
	return n
}

func (q *queryReader) getBool(key string, def bool) bool {
	v, ok := q.raw(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	q.fail(key, v)
	return def
}

func (q *queryReader) getInts(key string, def []int) []int {
	v, ok := q.raw(key)
	if !ok {
		return def
	}
	var out []int
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		n, err := strconv.Atoi(item)
		if err != nil {
			q.fail(key, v)
			return def
		}
		out = append(out, n)
	}
	return out
}

func (q *queryReader) parameters(base application.Parameters) application.Parameters {
	p := base
	p.Market.Spot = q.getFloat("spot", p.Market.Spot)
	p.Market.RiskFreeRate = q.getFloat("rate", p.Market.RiskFreeRate)
	p.Market.DividendYield = q.getFloat("dividend", p.Market.DividendYield)
	p.Market.Volatility = q.getFloat("vol", p.Market.Volatility)

	p.Simulation.Maturity = q.getFloat("maturity", p.Simulation.Maturity)
	p.Simulation.TimeSteps = q.getInt("steps", p.Simulation.TimeSteps)
	p.Simulation.Paths = q.getInt("paths", p.Simulation.Paths)
	p.Simulation.Seed = q.getUint("seed", p.Simulation.Seed)
	p.Simulation.UseAntithetic = q.getBool("antithetic", p.Simulation.UseAntithetic)
	p.Simulation.UseControlVariate = q.getBool("control", p.Simulation.UseControlVariate)
	p.Simulation.BlockSize = q.getInt("block", p.Simulation.BlockSize)
	p.Simulation.Workers = q.getInt("workers", p.Simulation.Workers)
	return p
}

// option 行权价默认等于现价；type 只接受 call 或 put
func (q *queryReader) option(spot float64) domain.OptionConfig {
	opt := domain.OptionConfig{Strike: q.getFloat("strike", spot), IsCall: true}
	if v, ok := q.raw("type"); ok {
		switch strings.ToLower(v) {
		case "call":
		case "put":
			opt.IsCall = false
		default:
			q.fail("type", v)
		}
	}
	return opt
}

func optionCommand(c *gin.Context) (application.PriceOptionCommand, error) {
	q := &queryReader{c: c}
	cmd := application.NewPriceOptionCommand()
	cmd.Parameters = q.parameters(cmd.Parameters)
	cmd.Option = q.option(cmd.Market.Spot)
	return cmd, q.err
}

func varCommand(c *gin.Context) (application.EstimateVaRCommand, error) {
	q := &queryReader{c: c}
	cmd := application.NewEstimateVaRCommand()
	cmd.Parameters = q.parameters(cmd.Parameters)
	cmd.VaR.Notional = q.getFloat("notional", cmd.VaR.Notional)
	cmd.VaR.Percentile = q.getFloat("percentile", cmd.VaR.Percentile)
	return cmd, q.err
}

func convergenceCommand(c *gin.Context) (application.ConvergenceCommand, error) {
	q := &queryReader{c: c}
	cmd := application.NewConvergenceCommand()
	cmd.Parameters = q.parameters(cmd.Parameters)
	cmd.Option = q.option(cmd.Market.Spot)
	cmd.SampleSizes = q.getInts("samples", cmd.SampleSizes)
	return cmd, q.err
}
