package payment

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// BankTransferStrategy авторизует оплату банковским переводом.
type BankTransferStrategy struct{}

func NewBankTransferStrategy() *BankTransferStrategy {
	return &BankTransferStrategy{}
}

func (s *BankTransferStrategy) Method() domain.PaymentMethod {
	return domain.PaymentMethodBankTransfer
}

// Authorize проверяет форму IBAN и подтверждает перевод.
func (s *BankTransferStrategy) Authorize(amountMinor int64, details domain.PaymentDetails) (domain.PaymentRecord, error) {
	if amountMinor <= 0 {
		return domain.PaymentRecord{}, fmt.Errorf("non-positive amount: %w", domain.ErrPaymentValidation)
	}

	iban := strings.ToUpper(strings.ReplaceAll(details.IBAN, " ", ""))
	if len(iban) < 15 || len(iban) > 34 {
		return domain.PaymentRecord{}, fmt.Errorf("bad iban length: %w", domain.ErrPaymentValidation)
	}
	// Две буквы кода страны, затем две контрольные цифры.
	if !isLetter(iban[0]) || !isLetter(iban[1]) || !isDigit(iban[2]) || !isDigit(iban[3]) {
		return domain.PaymentRecord{}, fmt.Errorf("bad iban format: %w", domain.ErrPaymentValidation)
	}

	authRef := fmt.Sprintf("BT-%s", uuid.New().String()[:8])
	return newRecord(domain.PaymentMethodBankTransfer, authRef, amountMinor), nil
}

func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }

var _ domain.PaymentStrategy = (*BankTransferStrategy)(nil)
