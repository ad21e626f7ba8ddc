package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/internal/simulation/infrastructure/ledger"
	"github.com/wyfcoding/riskengine/pkg/metrics"
)

func TestLoadConfigFlagsOverrideDefaults(t *testing.T) {
	cfg, err := loadConfig([]string{
		"--config", filepath.Join(t.TempDir(), "missing.toml"),
		"--port", "9090",
		"--ledger-backend", "none",
		"--max-records", "16",
		"--historical-symbol", "QQQ",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Data.LedgerBackend != "none" || cfg.Ledger.MaxRecords != 16 {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Historical.Symbol != "QQQ" || cfg.StaticRoot != "web" {
		t.Errorf("symbol/static root = %s/%s", cfg.Historical.Symbol, cfg.StaticRoot)
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riskengine.toml")
	body := `
static_root = "public"

[http]
port = 7070

[data]
ledger_backend = "sqlite"

[data.sqlite]
path = "runs.db"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig([]string{"--config", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 7070 || cfg.StaticRoot != "public" {
		t.Errorf("file values not applied: port=%d static=%s", cfg.HTTP.Port, cfg.StaticRoot)
	}
	if cfg.Data.LedgerBackend != "sqlite" || cfg.Data.SQLite.Path != "runs.db" {
		t.Errorf("data section = %+v", cfg.Data)
	}

	cfg, err = loadConfig([]string{"--config", path, "--port", "6060"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 6060 {
		t.Errorf("flag should win over file, port = %d", cfg.HTTP.Port)
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	_, err := loadConfig([]string{"--config", "", "--ledger-backend", "postgres"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRouterServesProbesAndMetrics(t *testing.T) {
	cfg, err := loadConfig([]string{"--config", "", "--ledger-backend", "none", "--static-root", ""})
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.New("riskengine_test")
	svc := application.NewSimulationService(ledger.New(4), application.WithMetrics(m))
	r := newRouter(cfg, svc, m, nil)

	for _, path := range []string{"/sys/health", "/sys/ready", cfg.Metrics.Path} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/option?paths=500&steps=4", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/option = %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, cfg.Metrics.Path, nil))
	if !strings.Contains(w.Body.String(), "simulation") {
		t.Error("simulation metrics not exported")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}

func TestRunStopsAllServersOnCancel(t *testing.T) {
	cfg, err := loadConfig([]string{"--config", "", "--ledger-backend", "none", "--static-root", "", "--historical-csv", ""})
	if err != nil {
		t.Fatal(err)
	}
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = freePort(t)
	cfg.GRPC.Host = "127.0.0.1"
	cfg.GRPC.Port = freePort(t)
	cfg.Metrics.Port = freePort(t)
	cfg.Logger.Output = "stderr"
	cfg.Logger.Level = "error"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	metricsURL := fmt.Sprintf("http://127.0.0.1:%d%s", cfg.Metrics.Port, cfg.Metrics.Path)
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(metricsURL)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("metrics status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("metrics server not up: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel with a dedicated metrics port")
	}
}
