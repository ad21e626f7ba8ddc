package application

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

func TestInterpolatedQuantile(t *testing.T) {
	x := []float64{4, 1, 3, 2}
	if got := interpolatedQuantile(x, 0.5); got != 2.5 {
		t.Errorf("median = %v, want 2.5", got)
	}
	if got := interpolatedQuantile(x, 0.99); math.Abs(got-3.97) > 1e-12 {
		t.Errorf("p99 = %v, want 3.97", got)
	}
	if x[0] != 4 {
		t.Error("input must not be reordered")
	}
	if interpolatedQuantile(nil, 0.5) != 0 {
		t.Error("empty input should give 0")
	}
}

func TestSummarize(t *testing.T) {
	entries := []StressEntry{
		{Command: domain.CommandOption, Duration: 10 * time.Millisecond, Workers: 4,
			Option: &domain.OptionResult{Price: 8, StandardError: 0.1, AnalyticPrice: 8.1}},
		{Command: domain.CommandOption, Duration: 30 * time.Millisecond, Workers: 4,
			Option: &domain.OptionResult{Price: 10, StandardError: 0.3, AnalyticPrice: 9.9}},
		{Command: domain.CommandVaR, Duration: 20 * time.Millisecond, Workers: 2,
			VaR: &domain.VaRResult{ValueAtRisk: 100, ExpectedShortfall: 120}},
	}
	s := Summarize(entries, time.Second)

	if s.TotalRuns != 3 || s.OptionRuns != 2 || s.VaRRuns != 1 {
		t.Fatalf("counts = %+v", s)
	}
	if s.MeanDuration != 20*time.Millisecond || s.MedianDuration != 20*time.Millisecond {
		t.Errorf("durations mean=%v median=%v", s.MeanDuration, s.MedianDuration)
	}
	if math.Abs(s.MeanWorkers-10.0/3) > 1e-12 {
		t.Errorf("mean workers = %v", s.MeanWorkers)
	}
	if s.PriceMean != 9 || s.PriceStdDev != 1 {
		t.Errorf("price mean=%v stdev=%v", s.PriceMean, s.PriceStdDev)
	}
	if math.Abs(s.StdErrMean-0.2) > 1e-12 || math.Abs(s.AnalyticMean-9) > 1e-12 {
		t.Errorf("se mean=%v analytic=%v", s.StdErrMean, s.AnalyticMean)
	}
	if s.VaRMean != 100 || s.VaRStdDev != 0 || s.ShortfallMean != 120 {
		t.Errorf("var summary = %+v", s)
	}

	if empty := Summarize(nil, 0); empty.TotalRuns != 0 || empty.PriceMean != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestRunStress(t *testing.T) {
	cfg := StressConfig{Jobs: 2, Iterations: 2, Paths: 256, RunVaR: true, Workers: 1}
	entries, wall, err := RunStress(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 8 || wall <= 0 {
		t.Fatalf("entries=%d wall=%v", len(entries), wall)
	}
	options := 0
	for _, e := range entries {
		if e.Command == domain.CommandOption {
			options++
			if e.Option == nil || e.Option.Scenarios != 512 {
				t.Errorf("option entry = %+v", e.Option)
			}
		}
	}
	if options != 4 {
		t.Errorf("option runs = %d, want 4", options)
	}

	cfg.RunVaR = false
	entries, _, err = RunStress(context.Background(), cfg)
	if err != nil || len(entries) != 4 {
		t.Errorf("option-only entries=%d err=%v", len(entries), err)
	}
}

func TestRunStressHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := RunStress(ctx, StressConfig{Jobs: 1, Iterations: 3, Paths: 64}); err == nil {
		t.Error("expected context error")
	}
}
