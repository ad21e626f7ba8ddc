package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// tailTolerance 计算 ES 时纳入恰好落在 VaR 上的损失
const tailTolerance = 1e-12

// lossDistribution 名义多头头寸在各场景下的损失
func lossDistribution(terminal []float64, spot, notional float64) []float64 {
	losses := make([]float64, len(terminal))
	for i, st := range terminal {
		losses[i] = -notional * (st/spot - 1)
	}
	return losses
}

// quantileIndex ceil(p*N) 截断到 [1, N] 后的零基下标
func quantileIndex(percentile float64, n int) int {
	k := int(math.Ceil(percentile * float64(n)))
	k = max(1, min(k, n))
	return k - 1
}

// estimateVaR 经验 VaR/ES，losses 会被原地重排
func estimateVaR(losses []float64, percentile float64) VaRResult {
	n := len(losses)
	mean := floats.Sum(losses) / float64(n)
	variance := math.Max(0, floats.Dot(losses, losses)/float64(n)-mean*mean)

	idx := quantileIndex(percentile, n)
	valueAtRisk := selectKth(losses, idx)

	tailSum, tailCount := 0.0, 0
	for _, l := range losses {
		if l >= valueAtRisk-tailTolerance {
			tailSum += l
			tailCount++
		}
	}
	shortfall := valueAtRisk
	if tailCount > 0 {
		shortfall = tailSum / float64(tailCount)
	}

	return VaRResult{
		Percentile:        percentile,
		ValueAtRisk:       valueAtRisk,
		ExpectedShortfall: shortfall,
		MeanLoss:          mean,
		LossStdDev:        math.Sqrt(variance),
		Scenarios:         n,
	}
}

// selectKth 返回 a 中第 k 小（零基）的元素，a 被部分重排：
// a[:k] <= a[k] <= a[k+1:]
func selectKth(a []float64, k int) float64 {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi)
		switch {
		case k == p:
			return a[k]
		case k < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
	return a[k]
}

// partition 以三数取中为枢轴的 Lomuto 划分，返回枢轴最终位置
func partition(a []float64, lo, hi int) int {
	mid := lo + (hi-lo)/2
	if a[mid] < a[lo] {
		a[mid], a[lo] = a[lo], a[mid]
	}
	if a[hi] < a[lo] {
		a[hi], a[lo] = a[lo], a[hi]
	}
	if a[mid] < a[hi] {
		a[mid], a[hi] = a[hi], a[mid]
	}
	pivot := a[hi]

	i := lo
	for j := lo; j < hi; j++ {
		if a[j] < pivot {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}
