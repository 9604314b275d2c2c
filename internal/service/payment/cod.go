package payment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// CashOnDeliveryStrategy — оплата наличными при получении. Деньги не
// списываются в момент оформления, поэтому авторизация сводится к проверке
// лимита: слишком крупные заказы курьеру наличными не доверяют.
type CashOnDeliveryStrategy struct {
	maxAmountMinor int64
}

// NewCashOnDeliveryStrategy создаёт стратегию с лимитом суммы заказа.
func NewCashOnDeliveryStrategy(maxAmountMinor int64) *CashOnDeliveryStrategy {
	return &CashOnDeliveryStrategy{maxAmountMinor: maxAmountMinor}
}

// Method возвращает ключ выбора стратегии.
func (s *CashOnDeliveryStrategy) Method() domain.PaymentMethod {
	return domain.PaymentMethodCashOnDelivery
}

// Authorize подтверждает заказ к оплате при получении.
func (s *CashOnDeliveryStrategy) Authorize(amountMinor int64, _ domain.PaymentDetails) (domain.PaymentRecord, error) {
	if amountMinor <= 0 {
		return domain.PaymentRecord{}, fmt.Errorf("non-positive amount: %w", domain.ErrPaymentValidation)
	}
	if s.maxAmountMinor > 0 && amountMinor > s.maxAmountMinor {
		return domain.PaymentRecord{}, domain.ErrPaymentDeclined
	}

	authRef := fmt.Sprintf("COD-%s", uuid.New().String()[:8])
	return newRecord(domain.PaymentMethodCashOnDelivery, authRef, amountMinor), nil
}

var _ domain.PaymentStrategy = (*CashOnDeliveryStrategy)(nil)
