package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

func TestStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "runs.jsonl")
	s, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		rec := &domain.SimulationRecord{
			ID:        fmt.Sprintf("run-%d", i),
			Command:   domain.CommandOption,
			CreatedAt: time.Date(2025, 1, 1, 0, 0, i, 0, time.UTC),
			OptionResult: &domain.OptionResult{
				Price:     10 + float64(i),
				Scenarios: 1000,
			},
		}
		if err := s.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(raw), "\n"); lines != 4 {
		t.Fatalf("lines = %d, want 4", lines)
	}

	recs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "run-3" || recs[1].ID != "run-2" {
		t.Fatalf("List(2) ids = %v", ids(recs))
	}
	if recs[0].OptionResult == nil || recs[0].OptionResult.Price != 13 {
		t.Errorf("round-tripped option result = %+v", recs[0].OptionResult)
	}
}

func TestStoreListMissingFileAndBadLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	s, _ := NewStore(path)

	recs, err := s.List(ctx, 10)
	if err != nil || len(recs) != 0 {
		t.Fatalf("missing file: recs=%v err=%v", recs, err)
	}

	content := `{"id":"a","command":"var"}` + "\nnot json\n" + `{"id":"b","command":"option"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	recs, err = s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(recs); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("ids = %v, want [b a]", got)
	}
}

func ids(recs []*domain.SimulationRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
