package payment

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MockStrategy — конфигурируемая заглушка PaymentStrategy для тестов.
type MockStrategy struct {
	mu sync.Mutex

	MethodKey domain.PaymentMethod
	Err       error
	// Errs, если задан, выдаёт ошибки по одной на каждый вызов;
	// после исчерпания списка авторизация проходит успешно.
	Errs []error

	Calls   int
	Amounts []int64
}

// NewMockStrategy возвращает mock с успешным сценарием по умолчанию.
func NewMockStrategy(method domain.PaymentMethod) *MockStrategy {
	return &MockStrategy{MethodKey: method}
}

func (m *MockStrategy) Method() domain.PaymentMethod {
	return m.MethodKey
}

// Authorize возвращает заранее настроенный результат и считает вызовы.
func (m *MockStrategy) Authorize(amountMinor int64, _ domain.PaymentDetails) (domain.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.Amounts = append(m.Amounts, amountMinor)

	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		if err != nil {
			return domain.PaymentRecord{}, err
		}
	} else if m.Err != nil {
		return domain.PaymentRecord{}, m.Err
	}

	return domain.PaymentRecord{
		ID:          "mock-pay",
		Method:      m.MethodKey,
		AuthRef:     "MOCK-REF",
		AmountMinor: amountMinor,
		Succeeded:   true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

var _ domain.PaymentStrategy = (*MockStrategy)(nil)
