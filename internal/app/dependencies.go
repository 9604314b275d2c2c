package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/carrier"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/inventory"
	"github.com/vladislavdragonenkov/checkout/internal/service/order"
	"github.com/vladislavdragonenkov/checkout/internal/service/payment"
	"github.com/vladislavdragonenkov/checkout/internal/service/pricing"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

// Лимит суммы для оплаты наличными при получении: 500.00 в минимальных единицах.
const defaultCODLimitMinor int64 = 50000

// Dependencies содержит собранный граф движка оформления заказов.
type Dependencies struct {
	Orders    domain.OrderRepository
	Timeline  domain.TimelineRepository
	Products  domain.ProductRepository
	Customers domain.CustomerRepository

	Ledger     *inventory.Ledger
	Calculator *pricing.Calculator
	Payments   *payment.Registry
	Carriers   *carrier.Registry
	Metrics    *metrics.CheckoutMetrics
	Lifecycle  *order.Manager
	Checkout   *checkout.Orchestrator

	// Store не nil только при работе поверх PostgreSQL.
	Store *postgres.Store
	// Kafka не nil только когда настроены брокеры и подключение удалось.
	Kafka *kafka.Producer

	StorageKind string
	Logger      *log.Entry
}

// NewDependencies создаёт и связывает все зависимости приложения.
// Kafka опциональна: ошибка подключения понижается до предупреждения,
// события просто не публикуются. PostgreSQL опционален: без DSN движок
// работает на in-memory хранилище.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	storage, err := initStorage(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return nil, err
	}

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		producer = nil
	}
	// Типизированный nil в интерфейсе сломал бы проверки publisher == nil.
	var publisher domain.EventPublisher
	if producer != nil {
		publisher = producer
	}

	ledger := inventory.NewLedger(logger.WithField("component", "inventory"))
	calculator := pricing.NewCalculator(pricing.DefaultConfig())
	payments := payment.NewRegistry(
		payment.NewCardStrategy(),
		payment.NewWalletStrategy(demoWalletBalances()),
		payment.NewCashOnDeliveryStrategy(defaultCODLimitMinor),
		payment.NewBankTransferStrategy(),
	)
	carriers := carrier.NewRegistry(
		carrier.NewExpressLineAdapter(),
		carrier.NewPostalAdapter(),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics()

	lifecycle := order.NewManagerWithEvents(
		storage.orders,
		storage.timeline,
		carriers,
		publisher,
		checkoutMetrics,
		logger.WithField("component", "order-lifecycle"),
	)
	orchestrator := checkout.NewOrchestratorWithMetrics(
		ledger,
		calculator,
		payments,
		carriers,
		lifecycle,
		checkout.Config{
			Currency:                cfg.Currency,
			ReleaseOnPaymentFailure: cfg.ReleaseOnPaymentFailure,
		},
		checkoutMetrics,
		logger.WithField("component", "checkout"),
	)

	return &Dependencies{
		Orders:      storage.orders,
		Timeline:    storage.timeline,
		Products:    storage.products,
		Customers:   storage.customers,
		Ledger:      ledger,
		Calculator:  calculator,
		Payments:    payments,
		Carriers:    carriers,
		Metrics:     checkoutMetrics,
		Lifecycle:   lifecycle,
		Checkout:    orchestrator,
		Store:       storage.store,
		Kafka:       producer,
		StorageKind: storage.kind,
		Logger:      logger,
	}, nil
}

// Close освобождает внешние ресурсы: Kafka producer и подключение к БД.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	closeKafka(d.Kafka, d.Logger)
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

// demoWalletBalances — стартовые балансы кошельков для демо-окружения.
func demoWalletBalances() map[string]int64 {
	return map[string]int64{
		"wallet-alice": 100000,
		"wallet-bob":   2500,
	}
}
