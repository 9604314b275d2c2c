package order_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/service/carrier"
	"github.com/vladislavdragonenkov/checkout/internal/service/order"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

// recordingPublisher запоминает опубликованные события.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []*kafka.OrderEvent
}

func (p *recordingPublisher) PublishEvent(topic, key string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	if oe, ok := event.(*kafka.OrderEvent); ok {
		p.events = append(p.events, oe)
	}
	return nil
}

func (p *recordingPublisher) eventTypes() []kafka.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]kafka.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

var _ domain.EventPublisher = (*recordingPublisher)(nil)

func testOrder(id string) domain.Order {
	return domain.Order{
		ID:         id,
		CustomerID: "cust-1",
		Currency:   "USD",
		Status:     domain.OrderStatusCreated,
		Lines: []domain.CartLine{
			{SKU: "sku-1", Name: "Widget", Qty: 2, UnitPriceMinor: 1000},
		},
		Quote: domain.Quote{SubtotalMinor: 2000, TaxMinor: 200, ShippingMinor: 500, TotalMinor: 2700},
	}
}

func newManager(t *testing.T, adapter domain.CarrierAdapter) (*order.Manager, domain.OrderRepository, *recordingPublisher) {
	t.Helper()
	repo := memory.NewOrderRepository()
	timeline := memory.NewTimelineRepository()
	publisher := &recordingPublisher{}
	registry := carrier.NewRegistry(adapter)
	m := order.NewManagerWithEvents(repo, timeline, registry, publisher, nil, nil)
	return m, repo, publisher
}

func TestManager_CreatePublishesEvent(t *testing.T) {
	m, _, publisher := newManager(t, carrier.NewMockAdapter("mock"))

	created, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCreated, created.Status)
	require.False(t, created.CreatedAt.IsZero())

	require.Equal(t, []kafka.EventType{kafka.EventTypeOrderCreated}, publisher.eventTypes())

	events, err := m.Timeline("order-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "OrderCreated", events[0].Type)
}

func TestManager_Transition(t *testing.T) {
	m, repo, _ := newManager(t, carrier.NewMockAdapter("mock"))
	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)

	updated, err := m.Transition("order-1", domain.OrderStatusPaymentPending, "")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaymentPending, updated.Status)

	// Недопустимый переход не меняет заказ.
	_, err = m.Transition("order-1", domain.OrderStatusShipped, "")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := repo.Get("order-1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaymentPending, stored.Status)
}

func TestManager_AppendPayment(t *testing.T) {
	m, repo, publisher := newManager(t, carrier.NewMockAdapter("mock"))
	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)
	_, err = m.Transition("order-1", domain.OrderStatusPaymentPending, "")
	require.NoError(t, err)

	record := domain.PaymentRecord{
		ID:          "pay-1",
		Method:      domain.PaymentMethodCard,
		AuthRef:     "CC-TEST",
		AmountMinor: 2700,
		Succeeded:   true,
		CreatedAt:   time.Now().UTC(),
	}
	updated, err := m.AppendPayment("order-1", record, domain.OrderStatusPaid)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, updated.Status)
	require.Len(t, updated.Payments, 1)
	require.Equal(t, "order-1", updated.Payments[0].OrderID)

	stored, err := repo.Get("order-1")
	require.NoError(t, err)
	require.Len(t, stored.Payments, 1)

	require.Contains(t, publisher.eventTypes(), kafka.EventTypeOrderPaid)
}

func TestManager_AppendPayment_InvalidTransitionKeepsRecordOut(t *testing.T) {
	m, repo, _ := newManager(t, carrier.NewMockAdapter("mock"))
	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)

	// Created → Paid запрещён: запись не должна сохраниться.
	record := domain.PaymentRecord{ID: "pay-1", Method: domain.PaymentMethodCard, AmountMinor: 2700, Succeeded: true}
	_, err = m.AppendPayment("order-1", record, domain.OrderStatusPaid)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := repo.Get("order-1")
	require.NoError(t, err)
	require.Empty(t, stored.Payments)
	require.Equal(t, domain.OrderStatusCreated, stored.Status)
}

func payOrder(t *testing.T, m *order.Manager, orderID string) {
	t.Helper()
	_, err := m.Transition(orderID, domain.OrderStatusPaymentPending, "")
	require.NoError(t, err)
	record := domain.PaymentRecord{ID: "pay-1", Method: domain.PaymentMethodCard, AmountMinor: 2700, Succeeded: true}
	_, err = m.AppendPayment(orderID, record, domain.OrderStatusPaid)
	require.NoError(t, err)
}

func TestManager_AttachShipment(t *testing.T) {
	m, _, publisher := newManager(t, carrier.NewMockAdapter("mock"))
	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)
	payOrder(t, m, "order-1")

	updated, err := m.AttachShipment("order-1", "mock", "MOCK-TRACK")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusShipped, updated.Status)
	require.NotNil(t, updated.Shipment)
	require.Equal(t, "MOCK-TRACK", updated.Shipment.TrackingRef)
	require.Equal(t, domain.ShipmentStatusPending, updated.Shipment.Status)

	require.Contains(t, publisher.eventTypes(), kafka.EventTypeOrderShipped)
}

func TestManager_RefreshShipment_Delivered(t *testing.T) {
	adapter := carrier.NewMockAdapter("mock")
	m, _, publisher := newManager(t, adapter)
	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)
	payOrder(t, m, "order-1")
	_, err = m.AttachShipment("order-1", "mock", "MOCK-TRACK")
	require.NoError(t, err)

	adapter.SetStatus(domain.ShipmentStatusInTransit)
	updated, err := m.RefreshShipment("order-1")
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentStatusInTransit, updated.Shipment.Status)
	require.Equal(t, domain.OrderStatusShipped, updated.Status)

	// Delivered у перевозчика закрывает заказ.
	adapter.SetStatus(domain.ShipmentStatusDelivered)
	updated, err = m.RefreshShipment("order-1")
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentStatusDelivered, updated.Shipment.Status)
	require.Equal(t, domain.OrderStatusDelivered, updated.Status)
	require.Contains(t, publisher.eventTypes(), kafka.EventTypeOrderDelivered)
}

func TestManager_RefreshShipment_ExceptionKeepsOrderStatus(t *testing.T) {
	adapter := carrier.NewMockAdapter("mock")
	m, _, _ := newManager(t, adapter)
	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)
	payOrder(t, m, "order-1")
	_, err = m.AttachShipment("order-1", "mock", "MOCK-TRACK")
	require.NoError(t, err)

	adapter.SetStatus(domain.ShipmentStatusException)
	updated, err := m.RefreshShipment("order-1")
	require.NoError(t, err)
	require.Equal(t, domain.ShipmentStatusException, updated.Shipment.Status)
	require.Equal(t, domain.OrderStatusShipped, updated.Status)
}

func TestManager_RefreshShipment_NoShipment(t *testing.T) {
	m, _, _ := newManager(t, carrier.NewMockAdapter("mock"))
	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)

	_, err = m.RefreshShipment("order-1")
	require.ErrorIs(t, err, domain.ErrUnknownTracking)
}

// conflictRepo подсовывает конфликт версий на первых n Save.
type conflictRepo struct {
	domain.OrderRepository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictRepo) Save(order domain.Order) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return domain.ErrVersionConflict
	}
	r.mu.Unlock()
	return r.OrderRepository.Save(order)
}

func TestManager_TransitionRetriesOnVersionConflict(t *testing.T) {
	base := memory.NewOrderRepository()
	repo := &conflictRepo{OrderRepository: base, conflicts: 2}
	registry := carrier.NewRegistry(carrier.NewMockAdapter("mock"))
	m := order.NewManagerWithEvents(repo, memory.NewTimelineRepository(), registry, nil, nil, nil)

	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)

	updated, err := m.Transition("order-1", domain.OrderStatusPaymentPending, "")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaymentPending, updated.Status)
}

func TestManager_TransitionGivesUpAfterRetries(t *testing.T) {
	base := memory.NewOrderRepository()
	repo := &conflictRepo{OrderRepository: base, conflicts: 10}
	registry := carrier.NewRegistry(carrier.NewMockAdapter("mock"))
	m := order.NewManagerWithEvents(repo, memory.NewTimelineRepository(), registry, nil, nil, nil)

	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)

	_, err = m.Transition("order-1", domain.OrderStatusPaymentPending, "")
	require.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestManager_AnnounceInvoice(t *testing.T) {
	m, _, publisher := newManager(t, carrier.NewMockAdapter("mock"))
	_, err := m.Create(testOrder("order-1"))
	require.NoError(t, err)

	invoice := domain.NewInvoice("inv-1", testOrder("order-1"), time.Now().UTC())
	m.AnnounceInvoice(invoice)

	types := publisher.eventTypes()
	require.Contains(t, types, kafka.EventTypeInvoiceIssued)

	last := publisher.events[len(publisher.events)-1]
	require.Equal(t, "order-1", last.OrderID)
	require.Equal(t, "inv-1", last.Metadata["invoice_id"])
}
