package domain

import (
	"math"

	"github.com/sourcegraph/conc"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// 每个工作协程的随机流种子步长
const (
	simulatorSeedStride = 7919
	pricingSeedStride   = 104729
	pricingSeedOffset   = 1337
)

// workerRand 按 (seed, worker) 派生独立随机流
func workerRand(seed uint64, worker int, stride, offset uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed + stride*uint64(worker) + offset))
}

// stepper 在一个分块内逐步推进正向与对偶路径
type stepper struct {
	spot       float64
	drift      float64
	diffusion  float64
	steps      int
	antithetic bool

	shocks []float64
	growth []float64
}

func newStepper(market MarketParams, sim SimulationConfig) *stepper {
	dt := sim.Maturity / float64(sim.TimeSteps)
	return &stepper{
		spot:       market.Spot,
		drift:      (market.RiskFreeRate - market.DividendYield - 0.5*market.Volatility*market.Volatility) * dt,
		diffusion:  market.Volatility * math.Sqrt(dt),
		steps:      sim.TimeSteps,
		antithetic: sim.UseAntithetic,
		shocks:     make([]float64, sim.BlockSize),
		growth:     make([]float64, sim.BlockSize),
	}
}

// evolve 将 state（以及 anti，若启用对偶）从 spot 推进到到期日。
// anti[i] 与 state[i] 使用同一组冲击的相反数。
func (s *stepper) evolve(rng *rand.Rand, state, anti []float64) {
	n := len(state)
	shocks := s.shocks[:n]
	growth := s.growth[:n]

	fill(state, s.spot)
	if s.antithetic {
		fill(anti, s.spot)
	}

	for step := 0; step < s.steps; step++ {
		for i := range shocks {
			shocks[i] = rng.NormFloat64()
		}

		floats.ScaleTo(growth, s.diffusion, shocks)
		floats.AddConst(s.drift, growth)
		expInPlace(growth)
		floats.Mul(state, growth)

		if s.antithetic {
			floats.ScaleTo(growth, -s.diffusion, shocks)
			floats.AddConst(s.drift, growth)
			expInPlace(growth)
			floats.Mul(anti, growth)
		}
	}
}

func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}

func expInPlace(v []float64) {
	for i, x := range v {
		v[i] = math.Exp(x)
	}
}

// chunkCount 基础路径被切分成的分块数
func chunkCount(paths, blockSize int) int {
	return (paths + blockSize - 1) / blockSize
}

// activeWorkers 工作协程数不超过分块数，多余的协程不会分到任何分块
func activeWorkers(workers, chunks int) int {
	if workers > chunks {
		return chunks
	}
	return workers
}

// forEachChunk 以静态交错方式分配分块：worker w 处理 w, w+W, w+2W ...
func forEachChunk(worker, workers, paths, blockSize int, fn func(start, end int)) {
	chunks := chunkCount(paths, blockSize)
	for c := worker; c < chunks; c += workers {
		start := c * blockSize
		fn(start, min(start+blockSize, paths))
	}
}

// simulateTerminalPrices 并行生成到期价格。
// 输出 [0, Paths) 为正向路径，启用对偶时 [Paths, 2*Paths) 为对应的对偶路径。
func simulateTerminalPrices(market MarketParams, sim SimulationConfig) []float64 {
	base := sim.Paths
	terminal := make([]float64, sim.Scenarios())
	workers := activeWorkers(sim.Workers, chunkCount(base, sim.BlockSize))

	var wg conc.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			rng := workerRand(sim.Seed, w, simulatorSeedStride, 0)
			st := newStepper(market, sim)
			forEachChunk(w, workers, base, sim.BlockSize, func(start, end int) {
				var anti []float64
				if sim.UseAntithetic {
					anti = terminal[base+start : base+end]
				}
				st.evolve(rng, terminal[start:end], anti)
			})
		})
	}
	wg.Wait()

	return terminal
}
