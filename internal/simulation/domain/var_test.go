package domain

import (
	"errors"
	"math"
	"slices"
	"testing"

	"golang.org/x/exp/rand"
)

func TestSelectKthMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 3, 10, 257, 1000} {
		data := make([]float64, n)
		for i := range data {
			data[i] = rng.NormFloat64()
		}
		sorted := slices.Clone(data)
		slices.Sort(sorted)

		for _, k := range []int{0, n / 2, n - 1} {
			work := slices.Clone(data)
			got := selectKth(work, k)
			if got != sorted[k] {
				t.Fatalf("n=%d k=%d: got %v, want %v", n, k, got, sorted[k])
			}
			for i := 0; i < k; i++ {
				if work[i] > got {
					t.Fatalf("n=%d k=%d: work[%d]=%v > kth", n, k, i, work[i])
				}
			}
		}
	}
}

func TestSelectKthWithTies(t *testing.T) {
	data := []float64{3, 1, 3, 3, 2, 3, 1}
	if got := selectKth(slices.Clone(data), 4); got != 3 {
		t.Errorf("got %v, want 3", got)
	}
	if got := selectKth(slices.Clone(data), 1); got != 1 {
		t.Errorf("got %v, want 1", got)
	}
}

func TestQuantileIndex(t *testing.T) {
	cases := []struct {
		p    float64
		n    int
		want int
	}{
		{0.99, 100, 98},
		{0.5, 10, 4},
		{0.001, 10, 0},
		{0.9999999, 1000, 999},
		{0.95, 1, 0},
	}
	for _, tc := range cases {
		if got := quantileIndex(tc.p, tc.n); got != tc.want {
			t.Errorf("quantileIndex(%v, %d) = %d, want %d", tc.p, tc.n, got, tc.want)
		}
	}
}

func TestEstimateVaRSmallSample(t *testing.T) {
	losses := []float64{5, -2, 9, 1, 7, 3, -4, 8, 0, 6}
	res := estimateVaR(slices.Clone(losses), 0.8)

	// ceil(0.8*10) = 8 -> 第 8 小的损失 = 7
	if res.ValueAtRisk != 7 {
		t.Errorf("VaR = %v, want 7", res.ValueAtRisk)
	}
	// >= 7 的损失：7, 8, 9
	if !approxEqual(res.ExpectedShortfall, 8, 1e-12) {
		t.Errorf("ES = %v, want 8", res.ExpectedShortfall)
	}
	if !approxEqual(res.MeanLoss, 3.3, 1e-12) {
		t.Errorf("mean = %v, want 3.3", res.MeanLoss)
	}
	var ss float64
	for _, l := range losses {
		ss += (l - 3.3) * (l - 3.3)
	}
	if !approxEqual(res.LossStdDev, math.Sqrt(ss/10), 1e-9) {
		t.Errorf("std = %v, want %v", res.LossStdDev, math.Sqrt(ss/10))
	}
	if res.Scenarios != 10 {
		t.Errorf("scenarios = %d, want 10", res.Scenarios)
	}
}

func TestComputeVaRRejectsPercentile(t *testing.T) {
	e := mustEngine(t, testMarket(), testSim(100))
	for _, p := range []float64{0, 1, -0.1, 1.5, math.NaN(), math.Inf(1)} {
		_, err := e.ComputeVaR(VaRConfig{Percentile: p, Notional: 1})
		if !errors.Is(err, ErrPercentileOutOfRange) || !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("percentile %v: err = %v, want ErrPercentileOutOfRange", p, err)
		}
	}
}

func TestVaRMonotoneAndBoundedByShortfall(t *testing.T) {
	sim := testSim(20_000)
	sim.UseControlVariate = false
	e := mustEngine(t, testMarket(), sim)

	prevVaR, prevES := math.Inf(-1), math.Inf(-1)
	for _, p := range []float64{0.9, 0.95, 0.99, 0.995} {
		res, err := e.ComputeVaR(VaRConfig{Percentile: p, Notional: 1_000_000})
		if err != nil {
			t.Fatal(err)
		}
		if res.ExpectedShortfall < res.ValueAtRisk {
			t.Errorf("p=%v: ES %.4f < VaR %.4f", p, res.ExpectedShortfall, res.ValueAtRisk)
		}
		if res.ValueAtRisk < prevVaR || res.ExpectedShortfall < prevES {
			t.Errorf("p=%v: VaR/ES not monotone (%.4f/%.4f after %.4f/%.4f)",
				p, res.ValueAtRisk, res.ExpectedShortfall, prevVaR, prevES)
		}
		prevVaR, prevES = res.ValueAtRisk, res.ExpectedShortfall
	}
}

func TestVaRExtremePercentileSelectsWorstLoss(t *testing.T) {
	market := testMarket()
	sim := testSim(3000)
	e := mustEngine(t, market, sim)
	const notional = 250_000.0

	terminal := e.SimulateTerminalPrices()
	worst := math.Inf(-1)
	for _, st := range terminal {
		worst = math.Max(worst, -notional*(st/market.Spot-1))
	}

	res, err := e.ComputeVaR(VaRConfig{Percentile: 1 - 1e-9, Notional: notional})
	if err != nil {
		t.Fatal(err)
	}
	if res.ValueAtRisk != worst {
		t.Errorf("VaR = %v, want worst loss %v", res.ValueAtRisk, worst)
	}
	if res.ExpectedShortfall != worst {
		t.Errorf("ES = %v, want worst loss %v", res.ExpectedShortfall, worst)
	}
}
