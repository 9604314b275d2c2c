package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository для
// локальной разработки и тестов. Поведение повторяет PostgreSQL-вариант:
// optimistic locking по Version, ErrVersionConflict при гонке.
type orderRepositoryInMemory struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewOrderRepository создаёт пустой in-memory репозиторий заказов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		orders: make(map[string]domain.Order),
	}
}

// cloneOrder делает глубокую копию заказа. Order несёт срезы и указатель на
// отгрузку, поэтому простой копии структуры недостаточно: вызывающий код не
// должен видеть чужие мутации до Save.
func cloneOrder(order domain.Order) domain.Order {
	out := order
	if order.Lines != nil {
		out.Lines = append([]domain.CartLine(nil), order.Lines...)
	}
	if order.Payments != nil {
		out.Payments = append([]domain.PaymentRecord(nil), order.Payments...)
	}
	if order.Shipment != nil {
		shipment := *order.Shipment
		out.Shipment = &shipment
	}
	return out
}

// Create сохраняет новый заказ. Повторное использование ID — конфликт.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrVersionConflict
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает копию заказа или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByCustomer возвращает заказы клиента от новых к старым.
// При limit > 0 выборка усечена.
func (r *orderRepositoryInMemory) ListByCustomer(customerID string, limit int) ([]domain.Order, error) {
	r.mu.RLock()
	result := make([]domain.Order, 0)
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			result = append(result, cloneOrder(order))
		}
	}
	r.mu.RUnlock()

	// Вторичный ключ по ID даёт детерминированный порядок при равном времени.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Save перезаписывает заказ, сверяя версию. Несовпадение версии означает,
// что заказ кто-то успел изменить: вызывающий код перечитывает и повторяет.
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrVersionConflict
	}

	order.Version++
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
