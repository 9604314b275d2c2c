package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

// storageSet — выбранный набор репозиториев и владеющий ими Store.
type storageSet struct {
	orders    domain.OrderRepository
	timeline  domain.TimelineRepository
	products  domain.ProductRepository
	customers domain.CustomerRepository
	store     *postgres.Store
	kind      string
}

// initStorage выбирает реализацию хранилища. Пустой DSN — in-memory;
// иначе открываем PostgreSQL и прогоняем миграции.
func initStorage(ctx context.Context, dsn string, logger *log.Entry) (storageSet, error) {
	if dsn == "" {
		logger.Info("postgres DSN is not set, using in-memory storage")
		return storageSet{
			orders:    memory.NewOrderRepository(),
			timeline:  memory.NewTimelineRepository(),
			products:  memory.NewProductRepository(),
			customers: memory.NewCustomerRepository(),
			kind:      "memory",
		}, nil
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return storageSet{}, fmt.Errorf("open postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return storageSet{}, fmt.Errorf("apply migrations: %w", err)
	}

	logger.Info("postgres storage initialized")
	return storageSet{
		orders:    postgres.NewOrderRepository(store),
		timeline:  postgres.NewTimelineRepository(store),
		products:  postgres.NewProductRepository(store),
		customers: postgres.NewCustomerRepository(store),
		store:     store,
		kind:      "postgres",
	}, nil
}
