package inventory

import (
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MockLedger — конфигурируемая заглушка InventoryLedger для тестов.
type MockLedger struct {
	mu sync.Mutex

	ReserveErr error
	ReleaseErr error
	CommitErr  error
	// ReserveErrFor позволяет завалить резерв только для конкретного SKU.
	ReserveErrFor map[string]error

	ReserveCalls []string
	ReleaseCalls []string
	CommitCalls  []string
}

// NewMockLedger возвращает mock с успешным сценарием по умолчанию.
func NewMockLedger() *MockLedger {
	return &MockLedger{}
}

// Reserve возвращает заранее настроенную ошибку и запоминает вызовы.
func (m *MockLedger) Reserve(sku string, qty int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReserveCalls = append(m.ReserveCalls, sku)
	if err, ok := m.ReserveErrFor[sku]; ok {
		return err
	}
	return m.ReserveErr
}

// Release возвращает заранее настроенную ошибку и запоминает вызовы.
func (m *MockLedger) Release(sku string, qty int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls = append(m.ReleaseCalls, sku)
	return m.ReleaseErr
}

// Commit возвращает заранее настроенную ошибку и запоминает вызовы.
func (m *MockLedger) Commit(sku string, qty int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitCalls = append(m.CommitCalls, sku)
	return m.CommitErr
}

// Available всегда возвращает 0; остатки mock не моделирует.
func (m *MockLedger) Available(sku string) int32 { return 0 }

var _ domain.InventoryLedger = (*MockLedger)(nil)
