package domain

import "time"

// PaymentMethod — ключ выбора платёжной стратегии во время исполнения.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodWallet         PaymentMethod = "wallet"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
)

// PaymentDetails — данные, которые стратегия валидирует перед авторизацией.
// Каждая стратегия читает только свои поля.
type PaymentDetails struct {
	// Карта.
	CardNumber string
	CardExpiry string // MM/YY
	CardCVV    string
	// Кошелёк.
	WalletID string
	// Банковский перевод.
	IBAN string
}

// PaymentRecord фиксирует одну попытку оплаты. Запись неизменяема после
// создания; повторная попытка порождает новую запись у того же заказа.
type PaymentRecord struct {
	ID          string
	OrderID     string
	Method      PaymentMethod
	AuthRef     string // Непрозрачная ссылка авторизации от провайдера.
	AmountMinor int64
	Succeeded   bool
	CreatedAt   time.Time
}

// Validate проверяет корректность полей платёжной записи.
func (p *PaymentRecord) Validate() []error {
	var errs []error

	if p.OrderID == "" {
		errs = append(errs, ErrOrderNotFound)
	}
	if p.Method == "" {
		errs = append(errs, ErrUnknownPaymentMethod)
	}
	if p.AmountMinor < 0 {
		errs = append(errs, ErrInvalidInput)
	}

	return errs
}
