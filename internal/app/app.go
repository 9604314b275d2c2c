package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

// Config описывает настройки запуска движка оформления заказов.
type Config struct {
	// MetricsAddr — адрес HTTP-сервера метрик и health-проб.
	MetricsAddr string
	// KafkaBrokers — список брокеров через запятую. Пустая строка
	// отключает публикацию событий.
	KafkaBrokers string
	// PostgresDSN — строка подключения к PostgreSQL. Пустая строка
	// переключает хранилище на in-memory реализацию.
	PostgresDSN string
	// Currency — код валюты всех заказов экземпляра.
	Currency string
	// ReleaseOnPaymentFailure снимает резерв склада при отказе оплаты
	// вместо удержания до повтора или отмены.
	ReleaseOnPaymentFailure bool
}

// DefaultConfig возвращает базовые настройки: in-memory хранилище, без Kafka.
func DefaultConfig() Config {
	return Config{
		MetricsAddr: ":9090",
		Currency:    "USD",
	}
}

// Run собирает зависимости, наполняет демо-каталог и держит процесс до
// отмены контекста. Сам движок не слушает сетевых портов — наружу смотрит
// только HTTP-сервер метрик и health-проб.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	seedDemoData(deps, logger)

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Store.Ping(pingCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	logger.WithFields(log.Fields{
		"storage":  deps.StorageKind,
		"kafka":    deps.Kafka != nil,
		"currency": cfg.Currency,
	}).Info("checkout engine started")

	<-ctx.Done()
	logger.Info("получен сигнал остановки, завершаем работу")

	shutdownHTTP(metricsSrv, logger)
	return ctx.Err()
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus
// и health-пробы.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
