package pricing

import (
	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Config задаёт правила расчёта стоимости. Ставки выражены в базисных
// пунктах (1% = 100 bps), деньги — в минимальных единицах: расчёт полностью
// целочисленный и детерминированный, что позволяет идемпотентно повторять
// оформление с теми же входами.
type Config struct {
	TaxRateBps       int64
	FlatShippingFee  int64
	DiscountCodesBps map[string]int64
}

// DefaultConfig возвращает правила по умолчанию: налог 10%, доставка 5.00.
func DefaultConfig() Config {
	return Config{
		TaxRateBps:      1000,
		FlatShippingFee: 500,
		DiscountCodesBps: map[string]int64{
			"WELCOME10": 1000,
			"LOYAL5":    500,
		},
	}
}

// Calculator — чистая функция от снапшота корзины и конфигурации.
// Без побочных эффектов; единственный режим отказа — ErrInvalidInput.
type Calculator struct {
	cfg Config
}

// NewCalculator создаёт калькулятор с заданными правилами.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Quote считает разбивку стоимости: subtotal − discount, налог на уменьшенную
// базу, плюс фиксированная доставка. Скидка применяется до налога.
func (c *Calculator) Quote(lines []domain.CartLine, discountCode string) (domain.Quote, error) {
	if len(lines) == 0 {
		return domain.Quote{}, domain.ErrEmptyCart
	}

	var subtotal int64
	for _, line := range lines {
		if line.Qty <= 0 || line.UnitPriceMinor < 0 {
			return domain.Quote{}, domain.ErrInvalidInput
		}
		subtotal += line.LineTotalMinor()
	}

	var discount int64
	if discountCode != "" {
		bps, ok := c.cfg.DiscountCodesBps[discountCode]
		if !ok {
			return domain.Quote{}, domain.ErrInvalidInput
		}
		discount = subtotal * bps / 10000
	}

	taxable := subtotal - discount
	tax := taxable * c.cfg.TaxRateBps / 10000

	return domain.Quote{
		SubtotalMinor: subtotal,
		DiscountMinor: discount,
		TaxMinor:      tax,
		ShippingMinor: c.cfg.FlatShippingFee,
		TotalMinor:    taxable + tax + c.cfg.FlatShippingFee,
	}, nil
}
