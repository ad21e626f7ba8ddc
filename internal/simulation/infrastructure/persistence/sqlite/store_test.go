package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

func TestStoreSaveAndList(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := &domain.SimulationRecord{
			ID:          fmt.Sprintf("id-%d", i),
			Command:     domain.CommandConvergence,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			Scenarios:   1000 * (i + 1),
			Convergence: []domain.ConvergencePoint{{Scenarios: 1000, Price: 8.3}},
		}
		if err := s.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "id-2" || recs[1].ID != "id-1" {
		t.Fatalf("unexpected order: %+v", recs)
	}
	if len(recs[0].Convergence) != 1 || recs[0].Convergence[0].Price != 8.3 {
		t.Errorf("convergence payload lost: %+v", recs[0].Convergence)
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("List(0) len = %d, want 3", len(all))
	}

	if err := s.Save(ctx, &domain.SimulationRecord{ID: "id-0", CreatedAt: base}); err == nil {
		t.Error("duplicate record id accepted")
	}
}
