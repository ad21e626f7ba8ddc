package chart

import (
	"bytes"
	"testing"

	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

func TestConvergencePNG(t *testing.T) {
	points := []domain.ConvergencePoint{
		{Scenarios: 5000, Price: 8.41, StandardError: 0.09},
		{Scenarios: 20000, Price: 8.33, StandardError: 0.045},
		{Scenarios: 80000, Price: 8.352, StandardError: 0.022},
	}
	img, err := ConvergencePNG(points, 8.3494)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG: % x", img[:8])
	}
}

func TestConvergencePNGEmpty(t *testing.T) {
	if _, err := ConvergencePNG(nil, 1); err == nil {
		t.Error("expected error for empty input")
	}
}
