package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// declineSuffix имитирует отказ провайдера: карты с этим окончанием валидны,
// но всегда отклоняются (по образцу тестовых карт платёжных шлюзов).
const declineSuffix = "0002"

// CardStrategy авторизует оплату банковской картой. Провайдер не вызывается,
// авторизация имитируется локально; валидация номера, срока и CVV настоящая.
type CardStrategy struct{}

// NewCardStrategy возвращает стратегию оплаты картой.
func NewCardStrategy() *CardStrategy {
	return &CardStrategy{}
}

// Method возвращает ключ выбора стратегии.
func (s *CardStrategy) Method() domain.PaymentMethod {
	return domain.PaymentMethodCard
}

// Authorize валидирует данные карты и проводит авторизацию.
func (s *CardStrategy) Authorize(amountMinor int64, details domain.PaymentDetails) (domain.PaymentRecord, error) {
	if amountMinor <= 0 {
		return domain.PaymentRecord{}, fmt.Errorf("non-positive amount: %w", domain.ErrPaymentValidation)
	}

	number := strings.ReplaceAll(details.CardNumber, " ", "")
	if err := validateCardNumber(number); err != nil {
		return domain.PaymentRecord{}, err
	}
	if err := validateExpiry(details.CardExpiry); err != nil {
		return domain.PaymentRecord{}, err
	}
	if n := len(details.CardCVV); n < 3 || n > 4 || !digitsOnly(details.CardCVV) {
		return domain.PaymentRecord{}, fmt.Errorf("bad cvv: %w", domain.ErrPaymentValidation)
	}

	if strings.HasSuffix(number, declineSuffix) {
		return domain.PaymentRecord{}, domain.ErrPaymentDeclined
	}

	authRef := fmt.Sprintf("CC-%s", uuid.New().String()[:8])
	return newRecord(domain.PaymentMethodCard, authRef, amountMinor), nil
}

// validateCardNumber проверяет длину, набор символов и контрольную сумму Луна.
func validateCardNumber(number string) error {
	if len(number) < 13 || len(number) > 19 || !digitsOnly(number) {
		return fmt.Errorf("bad card number format: %w", domain.ErrPaymentValidation)
	}

	var sum int
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	if sum%10 != 0 {
		return fmt.Errorf("luhn check failed: %w", domain.ErrPaymentValidation)
	}
	return nil
}

// validateExpiry ожидает формат MM/YY и отклоняет просроченные карты.
func validateExpiry(expiry string) error {
	exp, err := time.Parse("01/06", expiry)
	if err != nil {
		return fmt.Errorf("bad expiry %q: %w", expiry, domain.ErrPaymentValidation)
	}
	// Карта действует до конца месяца истечения.
	endOfMonth := exp.AddDate(0, 1, 0)
	if !time.Now().UTC().Before(endOfMonth) {
		return fmt.Errorf("card expired: %w", domain.ErrPaymentValidation)
	}
	return nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

var _ domain.PaymentStrategy = (*CardStrategy)(nil)
