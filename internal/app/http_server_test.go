package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

// startTestMetricsServer поднимает сервер на свободном порту и возвращает
// базовый URL и функцию остановки.
func startTestMetricsServer(t *testing.T) (string, context.CancelFunc) {
	t.Helper()

	port := findFreePort(t)
	ctx, cancel := context.WithCancel(context.Background())

	logger := log.WithField("test", "http")
	healthHandler := healthcheck.NewHandler(version.String())
	srv := startMetricsServer(ctx, fmt.Sprintf(":%d", port), logger, healthHandler)
	if srv == nil {
		cancel()
		t.Fatal("startMetricsServer should not return nil")
	}

	baseURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, baseURL+"/livez")
	return baseURL, cancel
}

// waitForServer ждёт, пока сервер начнёт отвечать.
func waitForServer(t *testing.T, url string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server did not start at %s", url)
}

func TestStartMetricsServer_Endpoints(t *testing.T) {
	baseURL, cancel := startTestMetricsServer(t)
	defer cancel()

	for _, path := range []string{"/metrics", "/healthz", "/livez", "/readyz"} {
		resp, err := http.Get(baseURL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s returned status %d, expected 200", path, resp.StatusCode)
		}
		if len(body) == 0 {
			t.Errorf("%s should return non-empty response", path)
		}
	}
}

func TestStartMetricsServer_StopsOnContextCancel(t *testing.T) {
	baseURL, cancel := startTestMetricsServer(t)

	cancel()

	url := baseURL + "/livez"
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err != nil {
			return
		}
		resp.Body.Close()
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("server should be stopped after context cancellation")
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	logger := log.WithField("test", "http-nil")

	// Не должно паниковать
	shutdownHTTP(nil, logger)
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
