package mysql

import (
	"testing"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

func TestToModelSummarisesRecord(t *testing.T) {
	rec := &domain.SimulationRecord{
		ID:         "0b7c5a64-3c1d-4b53-9a0e-4b7d8a6f1e21",
		Command:    domain.CommandVaR,
		CreatedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		DurationMs: 12.5,
		Workers:    8,
		Scenarios:  400000,
		VaRResult:  &domain.VaRResult{ValueAtRisk: 31234.567891234, ExpectedShortfall: 40000},
	}

	m, err := toModel(rec)
	if err != nil {
		t.Fatal(err)
	}
	if m.Command != "var" || m.Scenarios != 400000 || m.Workers != 8 {
		t.Errorf("unexpected summary columns: %+v", m)
	}
	if m.Headline != "31234.56789123" {
		t.Errorf("headline = %s, want 31234.56789123", m.Headline)
	}

	back, err := toRecord(m)
	if err != nil {
		t.Fatal(err)
	}
	if back.ID != rec.ID || back.VaRResult == nil || back.VaRResult.ValueAtRisk != rec.VaRResult.ValueAtRisk {
		t.Errorf("payload did not round-trip: %+v", back)
	}
}
