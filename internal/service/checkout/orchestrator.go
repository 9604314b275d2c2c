package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/order"
	"github.com/vladislavdragonenkov/checkout/internal/service/pricing"
)

// StrategyLookup выбирает платёжную стратегию по методу.
type StrategyLookup interface {
	Lookup(method domain.PaymentMethod) (domain.PaymentStrategy, error)
}

// Config — политики оркестратора.
type Config struct {
	// Currency — код валюты всех заказов экземпляра движка.
	Currency string
	// ReleaseOnPaymentFailure снимает резерв при неудачной оплате.
	// По умолчанию false: резерв держится до явной отмены или успешного повтора.
	ReleaseOnPaymentFailure bool
}

// DefaultConfig возвращает политики по умолчанию.
func DefaultConfig() Config {
	return Config{Currency: "USD"}
}

// Request — входные данные оформления заказа.
type Request struct {
	Cart        domain.Cart
	Method      domain.PaymentMethod
	Details     domain.PaymentDetails
	CarrierCode string
}

// Result — итог оформления: заказ и счёт (только при успешной оплате).
type Result struct {
	Order   domain.Order
	Invoice *domain.Invoice
}

// Orchestrator реализует последовательность оформления заказа:
// Snapshot → Reserve → Quote → Create → Authorize → Commit → Register.
// Порядок побочных эффектов строгий: резерв раньше авторизации, commit
// только после подтверждённой оплаты, регистрация отгрузки — последней.
type Orchestrator struct {
	ledger    domain.InventoryLedger
	calc      *pricing.Calculator
	payments  StrategyLookup
	carriers  order.CarrierLookup
	lifecycle *order.Manager
	cfg       Config
	logger    *log.Entry
	metrics   *metrics.CheckoutMetrics
}

// NewOrchestrator создаёт оркестратор без метрик (для тестов).
func NewOrchestrator(
	ledger domain.InventoryLedger,
	calc *pricing.Calculator,
	payments StrategyLookup,
	carriers order.CarrierLookup,
	lifecycle *order.Manager,
	cfg Config,
	logger *log.Entry,
) *Orchestrator {
	return NewOrchestratorWithMetrics(ledger, calc, payments, carriers, lifecycle, cfg, nil, logger)
}

// NewOrchestratorWithMetrics создаёт оркестратор с Prometheus метриками.
func NewOrchestratorWithMetrics(
	ledger domain.InventoryLedger,
	calc *pricing.Calculator,
	payments StrategyLookup,
	carriers order.CarrierLookup,
	lifecycle *order.Manager,
	cfg Config,
	m *metrics.CheckoutMetrics,
	logger *log.Entry,
) *Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Orchestrator{
		ledger:    ledger,
		calc:      calc,
		payments:  payments,
		carriers:  carriers,
		lifecycle: lifecycle,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
	}
}

// Checkout оформляет заказ из корзины. Пустая корзина и нехватка стока
// отклоняются до создания заказа; неудачная оплата оставляет заказ в
// PaymentFailed с удерживаемым резервом (если политика не говорит иначе).
func (o *Orchestrator) Checkout(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if o.metrics != nil {
		o.metrics.RecordCheckoutStarted()
	}

	result, err := o.checkout(ctx, req)

	if o.metrics != nil {
		o.metrics.RecordCheckoutDuration(time.Since(start))
		if err != nil {
			o.metrics.RecordCheckoutFailed()
		} else {
			o.metrics.RecordCheckoutCompleted()
		}
	}
	return result, err
}

func (o *Orchestrator) checkout(ctx context.Context, req Request) (Result, error) {
	if req.Cart.IsEmpty() {
		return Result{}, domain.ErrEmptyCart
	}
	if req.Cart.CustomerID == "" {
		return Result{}, domain.ErrCustomerNotFound
	}

	// Проверяем стратегию и перевозчика до того, как трогать склад:
	// опечатка в методе оплаты не должна оставлять висящих резервов.
	strategy, err := o.payments.Lookup(req.Method)
	if err != nil {
		return Result{}, err
	}
	if _, err := o.carriers.Lookup(req.CarrierCode); err != nil {
		return Result{}, err
	}

	// Снапшот фиксирует позиции и цены: дальнейшие мутации корзины
	// и каталога заказ не видят.
	lines := req.Cart.Snapshot()

	stepStart := time.Now()
	if err := o.reserveAll(lines); err != nil {
		return Result{}, err
	}
	o.recordStep("reserve", stepStart)

	if err := ctx.Err(); err != nil {
		o.releaseAll(lines)
		return Result{}, err
	}

	quote, err := o.calc.Quote(lines, req.Cart.DiscountCode)
	if err != nil {
		o.releaseAll(lines)
		return Result{}, err
	}

	now := time.Now().UTC()
	created, err := o.lifecycle.Create(domain.Order{
		ID:         uuid.New().String(),
		CustomerID: req.Cart.CustomerID,
		Currency:   o.cfg.Currency,
		Lines:      lines,
		Quote:      quote,
		Status:     domain.OrderStatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		o.releaseAll(lines)
		return Result{}, err
	}

	if _, err := o.lifecycle.Transition(created.ID, domain.OrderStatusPaymentPending, "checkout"); err != nil {
		o.releaseAll(lines)
		return Result{}, err
	}

	return o.finishPayment(created.ID, lines, quote.TotalMinor, strategy, req.Details, req.CarrierCode)
}

// RetryPayment повторяет оплату заказа в статусе PaymentFailed. Переход
// PaymentFailed → PaymentPending — единственные ворота к повторной
// авторизации: для уже оплаченного заказа он падает ErrInvalidTransition,
// что гарантирует ровно одну успешную оплату и ровно один commit резерва.
func (o *Orchestrator) RetryPayment(ctx context.Context, orderID string, method domain.PaymentMethod, details domain.PaymentDetails) (Result, error) {
	strategy, err := o.payments.Lookup(method)
	if err != nil {
		return Result{}, err
	}

	current, err := o.lifecycle.Get(orderID)
	if err != nil {
		return Result{}, err
	}

	updated, err := o.lifecycle.Transition(orderID, domain.OrderStatusPaymentPending, "payment retry")
	if err != nil {
		return Result{Order: current}, err
	}

	if o.cfg.ReleaseOnPaymentFailure {
		// Резерв был снят при прошлой неудаче — берём заново.
		if err := o.reserveAll(updated.Lines); err != nil {
			if _, terr := o.lifecycle.Transition(orderID, domain.OrderStatusPaymentFailed, "re-reserve failed"); terr != nil {
				o.logger.WithError(terr).WithField("order_id", orderID).Error("failed to revert retry status")
			}
			return Result{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		if o.cfg.ReleaseOnPaymentFailure {
			o.releaseAll(updated.Lines)
		}
		if _, terr := o.lifecycle.Transition(orderID, domain.OrderStatusPaymentFailed, "retry cancelled"); terr != nil {
			o.logger.WithError(terr).WithField("order_id", orderID).Error("failed to revert retry status")
		}
		return Result{}, err
	}

	return o.finishPayment(orderID, updated.Lines, updated.Quote.TotalMinor, strategy, details, "")
}

// finishPayment авторизует оплату и завершает заказ. Commit резерва
// выполняется только после того, как переход в Paid записан: проигравшая
// гонку попытка не спишет сток второй раз.
func (o *Orchestrator) finishPayment(
	orderID string,
	lines []domain.CartLine,
	amountMinor int64,
	strategy domain.PaymentStrategy,
	details domain.PaymentDetails,
	carrierCode string,
) (Result, error) {
	stepStart := time.Now()
	record, payErr := strategy.Authorize(amountMinor, details)
	o.recordStep("authorize", stepStart)
	o.recordPaymentAttempt(strategy.Method(), payErr)

	if payErr != nil {
		o.logger.WithError(payErr).WithFields(log.Fields{
			"order_id": orderID,
			"method":   strategy.Method(),
		}).Warn("payment authorization failed")

		failed := domain.PaymentRecord{
			ID:          uuid.New().String(),
			Method:      strategy.Method(),
			AmountMinor: amountMinor,
			Succeeded:   false,
			CreatedAt:   time.Now().UTC(),
		}
		updated, err := o.lifecycle.AppendPayment(orderID, failed, domain.OrderStatusPaymentFailed)
		if err != nil {
			o.logger.WithError(err).WithField("order_id", orderID).Error("failed to record declined payment")
			return Result{Order: updated}, payErr
		}

		if o.cfg.ReleaseOnPaymentFailure {
			o.releaseAll(lines)
		}
		return Result{Order: updated}, payErr
	}

	updated, err := o.lifecycle.AppendPayment(orderID, record, domain.OrderStatusPaid)
	if err != nil {
		return Result{Order: updated}, err
	}

	stepStart = time.Now()
	o.commitAll(lines)
	o.recordStep("commit", stepStart)

	invoice := domain.NewInvoice(uuid.New().String(), updated, time.Now().UTC())
	o.lifecycle.AnnounceInvoice(invoice)
	result := Result{Order: updated, Invoice: &invoice}

	o.logger.WithFields(log.Fields{
		"order_id":    orderID,
		"total_minor": amountMinor,
		"invoice_id":  invoice.ID,
	}).Info("checkout paid")

	if carrierCode == "" {
		return result, nil
	}

	shipped, err := o.registerShipment(orderID, carrierCode)
	if err != nil {
		// Оплата состоялась; отгрузку можно зарегистрировать позже
		// через RegisterShipment, заказ остаётся Paid.
		o.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"carrier":  carrierCode,
		}).Warn("shipment registration failed, order stays paid")
		return result, nil
	}
	result.Order = shipped
	return result, nil
}

// Cancel отменяет заказ до оплаты и возвращает резерв на склад.
// Отмена Paid/Shipped/Delivered отклоняется ErrInvalidTransition.
func (o *Orchestrator) Cancel(orderID, reason string) (domain.Order, error) {
	current, err := o.lifecycle.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	prior := current.Status

	updated, err := o.lifecycle.Transition(orderID, domain.OrderStatusCancelled, reason)
	if err != nil {
		return current, err
	}

	// Резерв держится во всех отменяемых статусах, кроме случая, когда
	// политика уже сняла его при неудачной оплате.
	if !(prior == domain.OrderStatusPaymentFailed && o.cfg.ReleaseOnPaymentFailure) {
		o.releaseAll(updated.Lines)
	}

	if o.metrics != nil {
		o.metrics.RecordOrderCancelled()
	}

	o.logger.WithFields(log.Fields{
		"order_id": orderID,
		"reason":   reason,
	}).Info("order cancelled")

	return updated, nil
}

// RegisterShipment регистрирует отгрузку оплаченного заказа у перевозчика.
// Используется, когда перевозчик был недоступен в момент оформления.
func (o *Orchestrator) RegisterShipment(orderID, carrierCode string) (domain.Order, error) {
	return o.registerShipment(orderID, carrierCode)
}

func (o *Orchestrator) registerShipment(orderID, carrierCode string) (domain.Order, error) {
	adapter, err := o.carriers.Lookup(carrierCode)
	if err != nil {
		return domain.Order{}, err
	}

	stepStart := time.Now()
	trackingRef, err := adapter.Register(orderID)
	o.recordStep("register", stepStart)
	if err != nil {
		return domain.Order{}, err
	}

	return o.lifecycle.AttachShipment(orderID, carrierCode, trackingRef)
}

// reserveAll резервирует все позиции или ни одной: при отказе уже взятые
// резервы откатываются.
func (o *Orchestrator) reserveAll(lines []domain.CartLine) error {
	for i, line := range lines {
		if err := o.ledger.Reserve(line.SKU, line.Qty); err != nil {
			o.releaseAll(lines[:i])
			if o.metrics != nil && errors.Is(err, domain.ErrInsufficientStock) {
				o.metrics.RecordReservationFailure()
			}
			o.logger.WithError(err).WithFields(log.Fields{
				"sku": line.SKU,
				"qty": line.Qty,
			}).Warn("reserve failed")
			return err
		}
	}
	return nil
}

func (o *Orchestrator) releaseAll(lines []domain.CartLine) {
	for _, line := range lines {
		if err := o.ledger.Release(line.SKU, line.Qty); err != nil {
			o.logger.WithError(err).WithField("sku", line.SKU).Warn("release failed")
		}
	}
}

func (o *Orchestrator) commitAll(lines []domain.CartLine) {
	for _, line := range lines {
		if err := o.ledger.Commit(line.SKU, line.Qty); err != nil {
			o.logger.WithError(err).WithField("sku", line.SKU).Error("commit failed")
		}
	}
}

func (o *Orchestrator) recordStep(step string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordStepDuration(step, time.Since(start))
	}
}

func (o *Orchestrator) recordPaymentAttempt(method domain.PaymentMethod, err error) {
	if o.metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case errors.Is(err, domain.ErrPaymentDeclined):
		outcome = "declined"
	case errors.Is(err, domain.ErrPaymentValidation):
		outcome = "validation_failed"
	case err != nil:
		outcome = "error"
	}
	o.metrics.RecordPaymentAttempt(string(method), outcome)
}
