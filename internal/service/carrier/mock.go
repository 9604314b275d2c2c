package carrier

import (
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MockAdapter — конфигурируемая заглушка CarrierAdapter для тестов.
type MockAdapter struct {
	mu sync.Mutex

	CodeKey     string
	RegisterErr error
	TrackErr    error
	TrackingRef string
	Status      domain.ShipmentStatus

	RegisterCalls int
	TrackCalls    int
}

// NewMockAdapter возвращает mock с успешным сценарием по умолчанию.
func NewMockAdapter(code string) *MockAdapter {
	return &MockAdapter{
		CodeKey:     code,
		TrackingRef: "MOCK-TRACK",
		Status:      domain.ShipmentStatusPending,
	}
}

func (m *MockAdapter) Code() string { return m.CodeKey }

// Register возвращает настроенный трек-номер и считает вызовы.
func (m *MockAdapter) Register(orderID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RegisterCalls++
	if m.RegisterErr != nil {
		return "", m.RegisterErr
	}
	return m.TrackingRef, nil
}

// Track возвращает настроенный статус и считает вызовы.
func (m *MockAdapter) Track(trackingRef string) (domain.ShipmentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrackCalls++
	if m.TrackErr != nil {
		return "", m.TrackErr
	}
	return m.Status, nil
}

// SetStatus меняет статус, который mock будет отдавать дальше.
func (m *MockAdapter) SetStatus(status domain.ShipmentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = status
}

var _ domain.CarrierAdapter = (*MockAdapter)(nil)
