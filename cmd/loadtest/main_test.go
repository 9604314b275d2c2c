package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/app"
	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

func TestParseMode(t *testing.T) {
	for _, value := range []string{"checkout", "checkout-retry", "checkout-cancel"} {
		mode, err := parseMode(" " + value + " ")
		if err != nil {
			t.Fatalf("parse mode %q: %v", value, err)
		}
		if string(mode) != value {
			t.Fatalf("expected %q, got %q", value, mode)
		}
	}

	if _, err := parseMode("unknown"); err == nil {
		t.Fatal("expected error for unsupported mode")
	}
}

func TestOutcomeOf(t *testing.T) {
	cases := map[string]error{
		"ok":                  nil,
		"declined":            domain.ErrPaymentDeclined,
		"validation":          fmt.Errorf("wrapped: %w", domain.ErrPaymentValidation),
		"insufficient_stock":  domain.ErrInsufficientStock,
		"invalid_transition":  domain.ErrInvalidTransition,
		"carrier_unavailable": domain.ErrCarrierUnavailable,
		"error":               errors.New("boom"),
	}
	for expected, err := range cases {
		if got := outcomeOf(err); got != expected {
			t.Errorf("outcomeOf(%v) = %q, expected %q", err, got, expected)
		}
	}
}

func TestCollector_BuildReport(t *testing.T) {
	col := newCollector()
	col.record("scenario", 10*time.Millisecond, "ok")
	col.record("scenario", 20*time.Millisecond, "declined")
	col.record("Checkout", 5*time.Millisecond, "ok")

	result := col.buildReport(time.Now(), time.Second)

	if result.TotalScenarios != 2 {
		t.Fatalf("expected 2 scenarios, got %d", result.TotalScenarios)
	}
	if result.SuccessScenarios != 1 || result.FailedScenarios != 1 {
		t.Fatalf("unexpected success/failed: %d/%d", result.SuccessScenarios, result.FailedScenarios)
	}
	if result.ErrorRate != 0.5 {
		t.Fatalf("expected error rate 0.5, got %f", result.ErrorRate)
	}
	if result.RPS != 2 {
		t.Fatalf("expected 2 rps, got %f", result.RPS)
	}

	step, ok := result.Steps["Checkout"]
	if !ok {
		t.Fatal("expected Checkout step in report")
	}
	if step.Calls != 1 || step.Outcomes["ok"] != 1 {
		t.Fatalf("unexpected step stats: %+v", step)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	if p := percentile(sorted, 50); p != 5.5 {
		t.Errorf("p50 = %f, expected 5.5", p)
	}
	if p := percentile(sorted, 100); p != 10 {
		t.Errorf("p100 = %f, expected 10", p)
	}
	if p := percentile(nil, 95); p != 0 {
		t.Errorf("empty percentile = %f, expected 0", p)
	}
	if p := percentile([]float64{7}, 99); p != 7 {
		t.Errorf("single-value percentile = %f, expected 7", p)
	}
}

func TestBuildLatencySummary_Empty(t *testing.T) {
	summary := buildLatencySummary(nil)
	if summary != (latencySummary{}) {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestRatio(t *testing.T) {
	if r := ratio(1, 4); r != 0.25 {
		t.Errorf("ratio(1,4) = %f", r)
	}
	if r := ratio(1, 0); r != 0 {
		t.Errorf("ratio with zero total = %f", r)
	}
}

func TestDispatchJobs_CountMode(t *testing.T) {
	jobs := make(chan int, 16)
	dispatchJobs(jobs, config{total: 5})

	count := 0
	for range jobs {
		count++
	}
	if count != 5 {
		t.Fatalf("expected 5 jobs, got %d", count)
	}
}

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	if err := writeJSONReport(path, report{TotalScenarios: 3}); err != nil {
		t.Fatalf("write report: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.TotalScenarios != 3 {
		t.Fatalf("unexpected report: %+v", decoded)
	}
}

func TestWriteJSONReport_RejectsBadPaths(t *testing.T) {
	if err := writeJSONReport(".", report{}); err == nil {
		t.Error("expected error for current directory path")
	}
	if err := writeJSONReport("../escape.json", report{}); err == nil {
		t.Error("expected error for path outside current directory")
	}
}

func newLoadtestDeps(t *testing.T) *app.Dependencies {
	t.Helper()

	deps, err := app.NewDependencies(context.Background(), app.DefaultConfig(), log.WithField("test", "loadtest"))
	if err != nil {
		t.Fatalf("new dependencies: %v", err)
	}
	t.Cleanup(deps.Close)
	return deps
}

func loadtestConfig(mode loadMode) config {
	return config{
		total:       4,
		concurrency: 2,
		timeout:     5 * time.Second,
		mode:        mode,
		sku:         "SKU-LOAD",
		amountMinor: defaultAmount,
		customerTag: "load",
		carrierCode: "expressline",
	}
}

func TestRunScenario_CheckoutMode(t *testing.T) {
	deps := newLoadtestDeps(t)
	cfg := loadtestConfig(modeCheckout)
	deps.Ledger.SetStock(cfg.sku, 100)

	col := newCollector()
	if err := runScenario(deps, cfg, 0, "test-run", col); err != nil {
		t.Fatalf("scenario: %v", err)
	}

	result := col.buildReport(time.Now(), time.Second)
	if result.SuccessScenarios != 1 {
		t.Fatalf("expected 1 success, got %+v", result)
	}
	if result.Steps["Checkout"].Outcomes["ok"] != 1 {
		t.Fatalf("expected successful checkout step: %+v", result.Steps)
	}
}

func TestRunScenario_RetryMode(t *testing.T) {
	deps := newLoadtestDeps(t)
	cfg := loadtestConfig(modeCheckoutRetry)
	deps.Ledger.SetStock(cfg.sku, 100)

	col := newCollector()
	if err := runScenario(deps, cfg, 0, "test-run", col); err != nil {
		t.Fatalf("scenario: %v", err)
	}

	result := col.buildReport(time.Now(), time.Second)
	if result.Steps["Checkout"].Outcomes["declined"] != 1 {
		t.Fatalf("expected declined first attempt: %+v", result.Steps)
	}
	if result.Steps["RetryPayment"].Outcomes["ok"] != 1 {
		t.Fatalf("expected successful retry: %+v", result.Steps)
	}
	if result.Steps["RegisterShipment"].Outcomes["ok"] != 1 {
		t.Fatalf("expected successful shipment registration: %+v", result.Steps)
	}
}

func TestRunScenario_CancelMode(t *testing.T) {
	deps := newLoadtestDeps(t)
	cfg := loadtestConfig(modeCheckoutCancel)
	deps.Ledger.SetStock(cfg.sku, 100)

	col := newCollector()
	if err := runScenario(deps, cfg, 0, "test-run", col); err != nil {
		t.Fatalf("scenario: %v", err)
	}

	result := col.buildReport(time.Now(), time.Second)
	if result.Steps["Cancel"].Outcomes["ok"] != 1 {
		t.Fatalf("expected successful cancel: %+v", result.Steps)
	}

	// После отмены резерв возвращён в доступный сток.
	if deps.Ledger.Available(cfg.sku) != 100 {
		t.Fatalf("expected released stock, got %d", deps.Ledger.Available(cfg.sku))
	}
}
