package domain

import (
	"math"

	"github.com/sourcegraph/conc"
	"gonum.org/v1/gonum/floats"
)

// minControlVariance 控制变量方差低于该值时不做调整
const minControlVariance = 1e-12

// payoffMoments 贴现收益与控制变量的一、二阶累加量
type payoffMoments struct {
	count     int
	payoff    float64
	payoffSq  float64
	control   float64
	controlSq float64
	cross     float64
}

func (m *payoffMoments) add(payoff, control []float64) {
	m.count += len(payoff)
	m.payoff += floats.Sum(payoff)
	m.payoffSq += floats.Dot(payoff, payoff)
	m.control += floats.Sum(control)
	m.controlSq += floats.Dot(control, control)
	m.cross += floats.Dot(payoff, control)
}

func (m *payoffMoments) merge(o payoffMoments) {
	m.count += o.count
	m.payoff += o.payoff
	m.payoffSq += o.payoffSq
	m.control += o.control
	m.controlSq += o.controlSq
	m.cross += o.cross
}

// populationVariance E[x²] - E[x]²，截断到非负
func populationVariance(sum, sumSq float64, n int) float64 {
	mean := sum / float64(n)
	return math.Max(0, sumSq/float64(n)-mean*mean)
}

// estimate 由累加量计算价格与标准误差，返回 (price, stdErr, beta)
func (m payoffMoments) estimate(expectedControl float64, useControl bool) (float64, float64, float64) {
	n := float64(m.count)
	meanPayoff := m.payoff / n
	meanControl := m.control / n
	varPayoff := populationVariance(m.payoff, m.payoffSq, m.count)
	varControl := populationVariance(m.control, m.controlSq, m.count)
	cov := m.cross/n - meanPayoff*meanControl

	price := meanPayoff
	variance := varPayoff
	beta := 0.0
	if useControl && varControl > minControlVariance {
		beta = cov / varControl
		price = meanPayoff + beta*(expectedControl-meanControl)
		variance = math.Max(0, varPayoff+beta*beta*varControl-2*beta*cov)
	}
	return price, math.Sqrt(variance / n), beta
}

// payoffEvaluator 将到期价格映射为贴现收益和贴现控制变量
type payoffEvaluator struct {
	strike   float64
	isCall   bool
	discount float64
	payoff   []float64
	control  []float64
}

func newPayoffEvaluator(opt OptionConfig, discount float64, capacity int) *payoffEvaluator {
	return &payoffEvaluator{
		strike:   opt.Strike,
		isCall:   opt.IsCall,
		discount: discount,
		payoff:   make([]float64, capacity),
		control:  make([]float64, capacity),
	}
}

func (p *payoffEvaluator) accumulate(m *payoffMoments, terminal []float64) {
	n := len(terminal)
	payoff := p.payoff[:n]
	control := p.control[:n]
	for i, st := range terminal {
		intrinsic := st - p.strike
		if !p.isCall {
			intrinsic = -intrinsic
		}
		payoff[i] = p.discount * math.Max(intrinsic, 0)
	}
	floats.ScaleTo(control, p.discount, terminal)
	m.add(payoff, control)
}

// priceEuropean 边模拟边累加，不保存完整的到期价格向量。
// 各工作协程只写自己的槽位，合并在汇合后按协程编号顺序进行。
func priceEuropean(market MarketParams, sim SimulationConfig, opt OptionConfig) OptionResult {
	base := sim.Paths
	discount := math.Exp(-market.RiskFreeRate * sim.Maturity)
	expectedControl := market.Spot * math.Exp(-market.DividendYield*sim.Maturity)
	workers := activeWorkers(sim.Workers, chunkCount(base, sim.BlockSize))

	partials := make([]payoffMoments, workers)
	var wg conc.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			rng := workerRand(sim.Seed, w, pricingSeedStride, pricingSeedOffset)
			st := newStepper(market, sim)
			eval := newPayoffEvaluator(opt, discount, sim.BlockSize)
			state := make([]float64, sim.BlockSize)
			var anti []float64
			if sim.UseAntithetic {
				anti = make([]float64, sim.BlockSize)
			}

			local := payoffMoments{}
			forEachChunk(w, workers, base, sim.BlockSize, func(start, end int) {
				n := end - start
				var a []float64
				if anti != nil {
					a = anti[:n]
				}
				st.evolve(rng, state[:n], a)
				eval.accumulate(&local, state[:n])
				if a != nil {
					eval.accumulate(&local, a)
				}
			})
			partials[w] = local
		})
	}
	wg.Wait()

	var total payoffMoments
	for _, p := range partials {
		total.merge(p)
	}

	price, stdErr, beta := total.estimate(expectedControl, sim.UseControlVariate)
	analytic := BlackScholesPrice(market, sim.Maturity, opt)
	relErr := 0.0
	if analytic != 0 {
		relErr = (price - analytic) / analytic
	}

	return OptionResult{
		Price:                price,
		StandardError:        stdErr,
		AnalyticPrice:        analytic,
		RelativeError:        relErr,
		ControlVariateWeight: beta,
		Scenarios:            total.count,
	}
}
