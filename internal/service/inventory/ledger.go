package inventory

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// entry — счётчики одного SKU со своим мьютексом. Блокировка на уровне SKU,
// а не всего леджера: резервирования несвязанных товаров не сериализуются.
type entry struct {
	mu        sync.Mutex
	available int32
	reserved  int32
}

// Ledger — in-memory реализация domain.InventoryLedger.
// Инвариант: available + reserved никогда не превышает заявленный сток.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *log.Entry
}

// NewLedger создаёт пустой леджер.
func NewLedger(logger *log.Entry) *Ledger {
	if logger == nil {
		logger = log.WithField("component", "inventory")
	}
	return &Ledger{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// SetStock задаёт доступный остаток SKU, сбрасывая резерв.
// Используется при загрузке каталога и в тестах.
func (l *Ledger) SetStock(sku string, qty int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[sku] = &entry{available: qty}
}

// lookup возвращает запись SKU или nil, если товар леджеру не известен.
func (l *Ledger) lookup(sku string) *entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[sku]
}

// Reserve переносит qty из доступного в зарезервированное атомарно по SKU.
func (l *Ledger) Reserve(sku string, qty int32) error {
	if qty <= 0 {
		return domain.ErrInvalidInput
	}

	e := l.lookup(sku)
	if e == nil {
		return domain.ErrInsufficientStock
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.available < qty {
		l.logger.WithFields(log.Fields{
			"sku":       sku,
			"requested": qty,
			"available": e.available,
		}).Debug("reserve rejected")
		return domain.ErrInsufficientStock
	}
	e.available -= qty
	e.reserved += qty
	return nil
}

// Release возвращает qty из резерва в доступное.
func (l *Ledger) Release(sku string, qty int32) error {
	if qty <= 0 {
		return domain.ErrInvalidInput
	}

	e := l.lookup(sku)
	if e == nil {
		return domain.ErrInvalidRelease
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.reserved < qty {
		// Ошибка вызывающего кода: снимают больше, чем держат.
		return domain.ErrInvalidRelease
	}
	e.reserved -= qty
	e.available += qty
	return nil
}

// Commit окончательно списывает qty из резерва.
func (l *Ledger) Commit(sku string, qty int32) error {
	if qty <= 0 {
		return domain.ErrInvalidInput
	}

	e := l.lookup(sku)
	if e == nil {
		return domain.ErrInvalidRelease
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.reserved < qty {
		return domain.ErrInvalidRelease
	}
	e.reserved -= qty
	return nil
}

// Available возвращает текущий доступный остаток SKU.
func (l *Ledger) Available(sku string) int32 {
	e := l.lookup(sku)
	if e == nil {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// Reserved возвращает текущий зарезервированный объём SKU.
func (l *Ledger) Reserved(sku string) int32 {
	e := l.lookup(sku)
	if e == nil {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reserved
}

var _ domain.InventoryLedger = (*Ledger)(nil)
