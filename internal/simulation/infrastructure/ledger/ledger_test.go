package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

func TestLedgerKeepsNewestFirstAndBounds(t *testing.T) {
	ctx := context.Background()
	l := New(3)
	for i := 0; i < 5; i++ {
		if err := l.Save(ctx, &domain.SimulationRecord{ID: fmt.Sprint(i)}); err != nil {
			t.Fatal(err)
		}
	}

	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	recs, _ := l.List(ctx, 0)
	want := []string{"4", "3", "2"}
	for i, r := range recs {
		if r.ID != want[i] {
			t.Errorf("recs[%d].ID = %s, want %s", i, r.ID, want[i])
		}
	}

	recs, _ = l.List(ctx, 2)
	if len(recs) != 2 || recs[0].ID != "4" {
		t.Errorf("List(2) = %v", recs)
	}
}

func TestLedgerDefaultCapacity(t *testing.T) {
	l := New(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		_ = l.Save(context.Background(), &domain.SimulationRecord{})
	}
	if l.Len() != DefaultCapacity {
		t.Errorf("Len = %d, want %d", l.Len(), DefaultCapacity)
	}
}

func TestLedgerConcurrentSave(t *testing.T) {
	l := New(50)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Save(context.Background(), &domain.SimulationRecord{ID: fmt.Sprint(i)})
			_, _ = l.List(context.Background(), 10)
		}()
	}
	wg.Wait()
	if l.Len() != 50 {
		t.Errorf("Len = %d, want 50", l.Len())
	}
}
