package carrier

import (
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Registry хранит адаптеры перевозчиков по коду. Граница адаптера изолирует
// словарь статусов конкретного перевозчика от машины состояний заказа.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]domain.CarrierAdapter
}

// NewRegistry создаёт реестр с переданными адаптерами.
func NewRegistry(adapters ...domain.CarrierAdapter) *Registry {
	r := &Registry{adapters: make(map[string]domain.CarrierAdapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register добавляет или заменяет адаптер.
func (r *Registry) Register(a domain.CarrierAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Code()] = a
}

// Lookup возвращает адаптер по коду перевозчика или ErrUnknownCarrier.
func (r *Registry) Lookup(code string) (domain.CarrierAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[code]
	if !ok {
		return nil, domain.ErrUnknownCarrier
	}
	return a, nil
}

// Codes возвращает коды зарегистрированных перевозчиков.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.adapters))
	for code := range r.adapters {
		out = append(out, code)
	}
	return out
}
