package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в движке оформления.
type OrderStatus string

const (
	// OrderStatusCreated — заказ создан, резерв взят, оплата ещё не запрошена.
	OrderStatusCreated OrderStatus = "created"
	// OrderStatusPaymentPending — оплата запрошена у платёжной стратегии.
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	// OrderStatusPaid — оплата подтверждена, резерв закоммичен.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusPaymentFailed — провайдер отклонил платёж; допускается повтор.
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
	// OrderStatusShipped — отгрузка зарегистрирована у перевозчика.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — перевозчик подтвердил доставку. Терминальный статус.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён до оплаты. Терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// transitions — единственная авторитетная таблица переходов статусов.
// Любой переход вне таблицы отклоняется с ErrInvalidTransition; в частности,
// Paid и Shipped нельзя отменить (возвраты не моделируются).
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:        {OrderStatusPaymentPending, OrderStatusCancelled},
	OrderStatusPaymentPending: {OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusPaymentFailed:  {OrderStatusPaymentPending, OrderStatusCancelled},
	OrderStatusPaid:           {OrderStatusShipped},
	OrderStatusShipped:        {OrderStatusDelivered},
}

// CanTransition проверяет допустимость перехода между статусами.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Quote — детерминированная разбивка стоимости заказа в минимальных единицах.
type Quote struct {
	SubtotalMinor int64
	DiscountMinor int64
	TaxMinor      int64
	ShippingMinor int64
	TotalMinor    int64
}

// Order агрегирует снапшот корзины, стоимость и записи об оплате и отгрузке.
// Позиции и суммы неизменяемы после создания; мутируют только статус,
// список платежей и запись об отгрузке.
type Order struct {
	ID         string
	CustomerID string
	Currency   string
	Lines      []CartLine
	Quote      Quote
	Status     OrderStatus
	Payments   []PaymentRecord
	Shipment   *ShipmentRecord
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Transition меняет статус заказа, если переход разрешён таблицей.
// При отказе заказ остаётся без изменений.
func (o *Order) Transition(to OrderStatus) error {
	if !CanTransition(o.Status, to) {
		return ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// LastPayment возвращает последнюю платёжную запись заказа или nil.
func (o *Order) LastPayment() *PaymentRecord {
	if len(o.Payments) == 0 {
		return nil
	}
	return &o.Payments[len(o.Payments)-1]
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerNotFound)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrEmptyCart)
	}

	// Сверяем subtotal заказа с суммой позиций: qty * price.
	var calc int64
	for _, line := range o.Lines {
		if line.Qty <= 0 || line.UnitPriceMinor < 0 {
			errs = append(errs, ErrInvalidInput)
		}
		calc += line.LineTotalMinor()
	}
	if calc != o.Quote.SubtotalMinor {
		errs = append(errs, ErrInvalidInput)
	}

	return errs
}
