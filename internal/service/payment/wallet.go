package payment

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// WalletStrategy авторизует оплату с электронного кошелька. Балансы хранятся
// локально и стоят на месте реального кошелькового провайдера.
type WalletStrategy struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewWalletStrategy создаёт стратегию с начальными балансами кошельков.
func NewWalletStrategy(balances map[string]int64) *WalletStrategy {
	copied := make(map[string]int64, len(balances))
	for id, b := range balances {
		copied[id] = b
	}
	return &WalletStrategy{balances: copied}
}

// Method возвращает ключ выбора стратегии.
func (s *WalletStrategy) Method() domain.PaymentMethod {
	return domain.PaymentMethodWallet
}

// Authorize списывает сумму с кошелька. Неизвестный кошелёк — ошибка
// валидации; нехватка средств — отказ, который можно повторить после
// пополнения.
func (s *WalletStrategy) Authorize(amountMinor int64, details domain.PaymentDetails) (domain.PaymentRecord, error) {
	if amountMinor <= 0 {
		return domain.PaymentRecord{}, fmt.Errorf("non-positive amount: %w", domain.ErrPaymentValidation)
	}
	if details.WalletID == "" {
		return domain.PaymentRecord{}, fmt.Errorf("wallet id required: %w", domain.ErrPaymentValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[details.WalletID]
	if !ok {
		return domain.PaymentRecord{}, fmt.Errorf("wallet %s: %w", details.WalletID, domain.ErrPaymentValidation)
	}
	if balance < amountMinor {
		return domain.PaymentRecord{}, domain.ErrPaymentDeclined
	}

	s.balances[details.WalletID] = balance - amountMinor
	authRef := fmt.Sprintf("DW-%s", uuid.New().String()[:8])
	return newRecord(domain.PaymentMethodWallet, authRef, amountMinor), nil
}

// Balance возвращает текущий баланс кошелька (для тестов и демо).
func (s *WalletStrategy) Balance(walletID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[walletID]
}

var _ domain.PaymentStrategy = (*WalletStrategy)(nil)
