package domain

import "time"

// Invoice — неизменяемый документ, чистая проекция оплаченного заказа.
// Сериализуется потребителем в любой формат; движок только порождает его.
type Invoice struct {
	ID            string
	OrderID       string
	CustomerID    string
	Lines         []CartLine
	SubtotalMinor int64
	DiscountMinor int64
	TaxMinor      int64
	ShippingMinor int64
	TotalMinor    int64
	IssuedAt      time.Time
}

// NewInvoice строит счёт по заказу. Позиции копируются, чтобы документ
// не делил память с заказом.
func NewInvoice(id string, order Order, issuedAt time.Time) Invoice {
	lines := make([]CartLine, len(order.Lines))
	copy(lines, order.Lines)

	return Invoice{
		ID:            id,
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Lines:         lines,
		SubtotalMinor: order.Quote.SubtotalMinor,
		DiscountMinor: order.Quote.DiscountMinor,
		TaxMinor:      order.Quote.TaxMinor,
		ShippingMinor: order.Quote.ShippingMinor,
		TotalMinor:    order.Quote.TotalMinor,
		IssuedAt:      issuedAt,
	}
}
