package integration

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/carrier"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/inventory"
	"github.com/vladislavdragonenkov/checkout/internal/service/order"
	"github.com/vladislavdragonenkov/checkout/internal/service/payment"
	"github.com/vladislavdragonenkov/checkout/internal/service/pricing"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

// OrderLifecycleTestSuite прогоняет полный жизненный цикл заказа через
// собранный in-memory движок: оформление, оплату, отгрузку и доставку.
type OrderLifecycleTestSuite struct {
	suite.Suite
	ledger       *inventory.Ledger
	orders       domain.OrderRepository
	timeline     domain.TimelineRepository
	express      *carrier.ExpressLineAdapter
	lifecycle    *order.Manager
	orchestrator *checkout.Orchestrator
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	suite.ledger = inventory.NewLedger(logger)
	suite.orders = memory.NewOrderRepository()
	suite.timeline = memory.NewTimelineRepository()
	suite.express = carrier.NewExpressLineAdapter()

	carriers := carrier.NewRegistry(suite.express, carrier.NewPostalAdapter())
	payments := payment.NewRegistry(
		payment.NewCardStrategy(),
		payment.NewWalletStrategy(map[string]int64{"wallet-rich": 1000000}),
	)

	suite.lifecycle = order.NewManager(suite.orders, suite.timeline, carriers, logger)
	suite.orchestrator = checkout.NewOrchestrator(
		suite.ledger,
		pricing.NewCalculator(pricing.DefaultConfig()),
		payments,
		carriers,
		suite.lifecycle,
		checkout.DefaultConfig(),
		logger,
	)

	suite.ledger.SetStock("laptop-pro", 5)
	suite.ledger.SetStock("mouse-wireless", 10)
}

func (suite *OrderLifecycleTestSuite) goodCard() domain.PaymentDetails {
	return domain.PaymentDetails{CardNumber: "4242424242424242", CardExpiry: "12/30", CardCVV: "123"}
}

func (suite *OrderLifecycleTestSuite) declinedCard() domain.PaymentDetails {
	return domain.PaymentDetails{CardNumber: "4000000000000002", CardExpiry: "12/30", CardCVV: "123"}
}

func (suite *OrderLifecycleTestSuite) twoItemCart() domain.Cart {
	cart := domain.Cart{CustomerID: "customer-123"}
	cart.Add("laptop-pro", "Laptop Pro", 1, 199900)
	cart.Add("mouse-wireless", "Wireless Mouse", 2, 4999)
	return cart
}

func (suite *OrderLifecycleTestSuite) TestSuccessfulCheckoutToDelivered() {
	ctx := context.Background()

	// 1. Оформляем заказ картой с отгрузкой через ExpressLine
	result, err := suite.orchestrator.Checkout(ctx, checkout.Request{
		Cart:        suite.twoItemCart(),
		Method:      domain.PaymentMethodCard,
		Details:     suite.goodCard(),
		CarrierCode: "expressline",
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusShipped, result.Order.Status)

	// 2. Проверяем арифметику: $1999 + 2*$49.99, налог 10%, доставка $5
	require.Equal(suite.T(), int64(209898), result.Order.Quote.SubtotalMinor)
	require.Equal(suite.T(), int64(20989), result.Order.Quote.TaxMinor)
	require.Equal(suite.T(), int64(500), result.Order.Quote.ShippingMinor)
	require.Equal(suite.T(), int64(231287), result.Order.Quote.TotalMinor)

	// 3. Счёт выписан и совпадает с заказом
	require.NotNil(suite.T(), result.Invoice)
	require.Equal(suite.T(), result.Order.ID, result.Invoice.OrderID)
	require.Equal(suite.T(), result.Order.Quote.TotalMinor, result.Invoice.TotalMinor)
	require.Len(suite.T(), result.Invoice.Lines, 2)

	// 4. Сток списан, резерв пуст
	require.Equal(suite.T(), int32(4), suite.ledger.Available("laptop-pro"))
	require.Equal(suite.T(), int32(8), suite.ledger.Available("mouse-wireless"))
	require.Equal(suite.T(), int32(0), suite.ledger.Reserved("laptop-pro"))

	// 5. Двигаем посылку до доставки и опрашиваем перевозчика
	orderID := result.Order.ID
	trackingRef := result.Order.Shipment.TrackingRef
	for i := 0; i < 4; i++ {
		require.NoError(suite.T(), suite.express.Advance(trackingRef))
	}
	updated, err := suite.lifecycle.RefreshShipment(orderID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusDelivered, updated.Status)
	require.Equal(suite.T(), domain.ShipmentStatusDelivered, updated.Shipment.Status)

	// 6. Timeline фиксирует весь путь заказа
	events, err := suite.lifecycle.Timeline(orderID)
	require.NoError(suite.T(), err)

	types := make(map[string]int)
	for _, event := range events {
		types[event.Type]++
	}
	require.GreaterOrEqual(suite.T(), types["OrderStatusChanged"], 3) // pending, paid, delivered
	require.Equal(suite.T(), 1, types["OrderCreated"])
	require.Equal(suite.T(), 1, types["PaymentRecorded"])
	require.Equal(suite.T(), 1, types["ShipmentRegistered"])
	require.GreaterOrEqual(suite.T(), types["ShipmentStatusChanged"], 1)
}

func (suite *OrderLifecycleTestSuite) TestDeclineThenRetryLifecycle() {
	ctx := context.Background()

	// 1. Первая попытка отклоняется провайдером
	result, err := suite.orchestrator.Checkout(ctx, checkout.Request{
		Cart:        suite.twoItemCart(),
		Method:      domain.PaymentMethodCard,
		Details:     suite.declinedCard(),
		CarrierCode: "expressline",
	})
	require.ErrorIs(suite.T(), err, domain.ErrPaymentDeclined)
	require.Equal(suite.T(), domain.OrderStatusPaymentFailed, result.Order.Status)

	// Резерв удерживается до повтора
	require.Equal(suite.T(), int32(1), suite.ledger.Reserved("laptop-pro"))
	require.Equal(suite.T(), int32(2), suite.ledger.Reserved("mouse-wireless"))

	// 2. Повторная оплата другой картой проходит
	retried, err := suite.orchestrator.RetryPayment(ctx, result.Order.ID, domain.PaymentMethodCard, suite.goodCard())
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusPaid, retried.Order.Status)
	require.NotNil(suite.T(), retried.Invoice)

	// Обе попытки сохранены: неудачная и успешная
	require.Len(suite.T(), retried.Order.Payments, 2)
	require.False(suite.T(), retried.Order.Payments[0].Succeeded)
	require.True(suite.T(), retried.Order.Payments[1].Succeeded)

	// Резерв списан
	require.Equal(suite.T(), int32(0), suite.ledger.Reserved("laptop-pro"))
	require.Equal(suite.T(), int32(4), suite.ledger.Available("laptop-pro"))

	// 3. Отгрузка регистрируется отдельным шагом
	shipped, err := suite.orchestrator.RegisterShipment(retried.Order.ID, "expressline")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusShipped, shipped.Status)
	require.NotNil(suite.T(), shipped.Shipment)
	require.NotEmpty(suite.T(), shipped.Shipment.TrackingRef)
}

func (suite *OrderLifecycleTestSuite) TestCancellationReleasesReservation() {
	ctx := context.Background()

	result, err := suite.orchestrator.Checkout(ctx, checkout.Request{
		Cart:        suite.twoItemCart(),
		Method:      domain.PaymentMethodCard,
		Details:     suite.declinedCard(),
		CarrierCode: "expressline",
	})
	require.ErrorIs(suite.T(), err, domain.ErrPaymentDeclined)

	cancelled, err := suite.orchestrator.Cancel(result.Order.ID, "customer changed mind")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusCancelled, cancelled.Status)

	// Резерв возвращён в доступный сток
	require.Equal(suite.T(), int32(5), suite.ledger.Available("laptop-pro"))
	require.Equal(suite.T(), int32(10), suite.ledger.Available("mouse-wireless"))
	require.Equal(suite.T(), int32(0), suite.ledger.Reserved("laptop-pro"))

	// Причина отмены попадает в timeline
	events, err := suite.lifecycle.Timeline(result.Order.ID)
	require.NoError(suite.T(), err)

	hasCancel := false
	for _, event := range events {
		if event.Type == "OrderStatusChanged" && event.Reason == "customer changed mind" {
			hasCancel = true
		}
	}
	require.True(suite.T(), hasCancel, "timeline should contain the cancellation reason")
}

func (suite *OrderLifecycleTestSuite) TestPaidOrderCannotBeCancelled() {
	ctx := context.Background()

	result, err := suite.orchestrator.Checkout(ctx, checkout.Request{
		Cart:        suite.twoItemCart(),
		Method:      domain.PaymentMethodCard,
		Details:     suite.goodCard(),
		CarrierCode: "expressline",
	})
	require.NoError(suite.T(), err)

	_, err = suite.orchestrator.Cancel(result.Order.ID, "too late")
	require.ErrorIs(suite.T(), err, domain.ErrInvalidTransition)

	// Заказ и склад не изменились
	stored, err := suite.lifecycle.Get(result.Order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusShipped, stored.Status)
	require.Equal(suite.T(), int32(4), suite.ledger.Available("laptop-pro"))
}

func (suite *OrderLifecycleTestSuite) TestInsufficientStockLeavesNoTrace() {
	ctx := context.Background()

	cart := domain.Cart{CustomerID: "customer-456"}
	cart.Add("laptop-pro", "Laptop Pro", 100, 199900)

	_, err := suite.orchestrator.Checkout(ctx, checkout.Request{
		Cart:        cart,
		Method:      domain.PaymentMethodCard,
		Details:     suite.goodCard(),
		CarrierCode: "expressline",
	})
	require.ErrorIs(suite.T(), err, domain.ErrInsufficientStock)

	// Ни заказа, ни резервов
	orders, err := suite.orders.ListByCustomer("customer-456", 0)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), orders)
	require.Equal(suite.T(), int32(5), suite.ledger.Available("laptop-pro"))
}

func (suite *OrderLifecycleTestSuite) TestWalletCheckoutWithDiscount() {
	ctx := context.Background()

	cart := domain.Cart{CustomerID: "customer-789", DiscountCode: "WELCOME10"}
	cart.Add("mouse-wireless", "Wireless Mouse", 2, 4999)

	result, err := suite.orchestrator.Checkout(ctx, checkout.Request{
		Cart:        cart,
		Method:      domain.PaymentMethodWallet,
		Details:     domain.PaymentDetails{WalletID: "wallet-rich"},
		CarrierCode: "postal",
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusShipped, result.Order.Status)

	// 9998 − 10% = 8999 (целочисленно: скидка 999), налог 10% = 899, доставка 500
	require.Equal(suite.T(), int64(9998), result.Order.Quote.SubtotalMinor)
	require.Equal(suite.T(), int64(999), result.Order.Quote.DiscountMinor)
	require.Equal(suite.T(), int64(899), result.Order.Quote.TaxMinor)
	require.Equal(suite.T(), int64(10398), result.Order.Quote.TotalMinor)
}

func TestOrderLifecycle(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
