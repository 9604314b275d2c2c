package payment

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Registry хранит платёжные стратегии по ключу метода. Оркестратор выбирает
// стратегию во время исполнения; добавление нового метода не трогает
// вызывающий код.
type Registry struct {
	mu         sync.RWMutex
	strategies map[domain.PaymentMethod]domain.PaymentStrategy
}

// NewRegistry создаёт реестр с переданными стратегиями.
func NewRegistry(strategies ...domain.PaymentStrategy) *Registry {
	r := &Registry{strategies: make(map[domain.PaymentMethod]domain.PaymentStrategy)}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// Register добавляет или заменяет стратегию.
func (r *Registry) Register(s domain.PaymentStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Method()] = s
}

// Lookup возвращает стратегию по методу или ErrUnknownPaymentMethod.
func (r *Registry) Lookup(method domain.PaymentMethod) (domain.PaymentStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[method]
	if !ok {
		return nil, domain.ErrUnknownPaymentMethod
	}
	return s, nil
}

// Methods возвращает зарегистрированные методы (для UI-коллаборатора).
func (r *Registry) Methods() []domain.PaymentMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.PaymentMethod, 0, len(r.strategies))
	for m := range r.strategies {
		out = append(out, m)
	}
	return out
}

// newRecord собирает успешную платёжную запись. OrderID проставляет
// оркестратор, привязывая запись к заказу.
func newRecord(method domain.PaymentMethod, authRef string, amountMinor int64) domain.PaymentRecord {
	return domain.PaymentRecord{
		ID:          uuid.New().String(),
		Method:      method,
		AuthRef:     authRef,
		AmountMinor: amountMinor,
		Succeeded:   true,
		CreatedAt:   time.Now().UTC(),
	}
}
