package order

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
)

// CarrierLookup выбирает адаптер перевозчика по коду.
type CarrierLookup interface {
	Lookup(code string) (domain.CarrierAdapter, error)
}

// Manager — сервис жизненного цикла заказа. Все смены статуса проходят через
// него: проверка перехода и запись в хранилище атомарны в пределах одного
// заказа (keyed mutex + optimistic locking с повтором при конфликте версий).
type Manager struct {
	orders    domain.OrderRepository
	timeline  domain.TimelineRepository
	carriers  CarrierLookup
	publisher domain.EventPublisher
	logger    *log.Entry
	metrics   *metrics.CheckoutMetrics

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewManager создаёт сервис жизненного цикла без публикации событий.
func NewManager(
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	carriers CarrierLookup,
	logger *log.Entry,
) *Manager {
	return NewManagerWithEvents(orders, timeline, carriers, nil, nil, logger)
}

// NewManagerWithEvents создаёт сервис с Kafka publisher и метриками.
// Оба опциональны: nil отключает соответствующую интеграцию.
func NewManagerWithEvents(
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	carriers CarrierLookup,
	publisher domain.EventPublisher,
	m *metrics.CheckoutMetrics,
	logger *log.Entry,
) *Manager {
	if logger == nil {
		logger = log.New().WithField("component", "order-lifecycle")
	}
	return &Manager{
		orders:    orders,
		timeline:  timeline,
		carriers:  carriers,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor возвращает мьютекс конкретного заказа. Блокировка на уровне заказа,
// а не всего сервиса: заказы разных клиентов не сериализуются между собой.
func (m *Manager) lockFor(orderID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	l, ok := m.locks[orderID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[orderID] = l
	}
	return l
}

const (
	maxSaveAttempts = 3
	saveRetryDelay  = 10 * time.Millisecond
)

// mutate загружает заказ, применяет apply и сохраняет с учётом optimistic
// locking. При конфликте версий перечитывает заказ и повторяет apply на свежей
// копии с exponential backoff.
func (m *Manager) mutate(orderID string, apply func(*domain.Order) error) (domain.Order, error) {
	lock := m.lockFor(orderID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		order, err := m.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}

		if err := apply(&order); err != nil {
			return order, err
		}

		if err := m.orders.Save(order); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxSaveAttempts-1 {
				m.logger.WithFields(log.Fields{
					"order_id": orderID,
					"attempt":  attempt + 1,
					"version":  order.Version,
				}).Warn("version conflict detected, retrying")
				time.Sleep(saveRetryDelay * time.Duration(1<<uint(attempt)))
				continue
			}
			m.logger.WithError(err).WithField("order_id", orderID).Error("failed to persist order")
			return domain.Order{}, err
		}

		order.Version++
		return order, nil
	}

	return domain.Order{}, domain.ErrVersionConflict
}

// Create сохраняет новый заказ и фиксирует его появление в timeline и Kafka.
func (m *Manager) Create(order domain.Order) (domain.Order, error) {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusCreated
	}

	if err := m.orders.Create(order); err != nil {
		return domain.Order{}, err
	}

	m.appendTimeline(order.ID, "OrderCreated", "")
	m.publishStatus(order)

	m.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"total_minor": order.Quote.TotalMinor,
	}).Info("order created")

	return order, nil
}

// Get возвращает заказ по идентификатору.
func (m *Manager) Get(orderID string) (domain.Order, error) {
	return m.orders.Get(orderID)
}

// ListByCustomer возвращает заказы клиента.
func (m *Manager) ListByCustomer(customerID string, limit int) ([]domain.Order, error) {
	return m.orders.ListByCustomer(customerID, limit)
}

// Timeline возвращает историю событий заказа.
func (m *Manager) Timeline(orderID string) ([]domain.TimelineEvent, error) {
	if m.timeline == nil {
		return nil, nil
	}
	return m.timeline.List(orderID)
}

// Transition переводит заказ в новый статус. Недопустимый переход возвращает
// ErrInvalidTransition, заказ при этом не меняется.
func (m *Manager) Transition(orderID string, to domain.OrderStatus, reason string) (domain.Order, error) {
	updated, err := m.mutate(orderID, func(o *domain.Order) error {
		return o.Transition(to)
	})
	if err != nil {
		return updated, err
	}

	m.appendTimeline(orderID, "OrderStatusChanged", reason)
	m.publishStatus(updated)

	m.logger.WithFields(log.Fields{
		"order_id": orderID,
		"status":   to,
	}).Info("order status changed")

	return updated, nil
}

// AppendPayment атомарно добавляет платёжную запись и меняет статус заказа.
// Запись и переход сохраняются одним Save: либо оба видны, либо ни одного.
func (m *Manager) AppendPayment(orderID string, record domain.PaymentRecord, to domain.OrderStatus) (domain.Order, error) {
	updated, err := m.mutate(orderID, func(o *domain.Order) error {
		if err := o.Transition(to); err != nil {
			return err
		}
		record.OrderID = o.ID
		o.Payments = append(o.Payments, record)
		return nil
	})
	if err != nil {
		return updated, err
	}

	reason := "payment " + string(record.Method)
	if !record.Succeeded {
		reason += " declined"
	}
	m.appendTimeline(orderID, "PaymentRecorded", reason)
	m.publishStatus(updated)

	return updated, nil
}

// AttachShipment сохраняет запись об отгрузке и переводит заказ в Shipped.
// Вызывается только после подтверждённой регистрации у перевозчика.
func (m *Manager) AttachShipment(orderID, carrierCode, trackingRef string) (domain.Order, error) {
	updated, err := m.mutate(orderID, func(o *domain.Order) error {
		if err := o.Transition(domain.OrderStatusShipped); err != nil {
			return err
		}
		o.Shipment = &domain.ShipmentRecord{
			Carrier:     carrierCode,
			TrackingRef: trackingRef,
			Status:      domain.ShipmentStatusPending,
			UpdatedAt:   time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return updated, err
	}

	m.appendTimeline(orderID, "ShipmentRegistered", carrierCode+" "+trackingRef)
	m.publishStatus(updated)

	m.logger.WithFields(log.Fields{
		"order_id":     orderID,
		"carrier":      carrierCode,
		"tracking_ref": trackingRef,
	}).Info("shipment registered")

	return updated, nil
}

// RefreshShipment опрашивает перевозчика и обновляет статус отгрузки.
// Delivered у перевозчика переводит заказ Shipped → Delivered; Exception
// отражается только в записи об отгрузке, статус заказа не трогает.
func (m *Manager) RefreshShipment(orderID string) (domain.Order, error) {
	order, err := m.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Shipment == nil {
		return order, domain.ErrUnknownTracking
	}

	adapter, err := m.carriers.Lookup(order.Shipment.Carrier)
	if err != nil {
		return order, err
	}

	status, err := adapter.Track(order.Shipment.TrackingRef)
	if m.metrics != nil {
		m.metrics.RecordShipmentPoll()
	}
	if err != nil {
		entry := m.logger.WithError(err).WithFields(log.Fields{
			"order_id":     orderID,
			"tracking_ref": order.Shipment.TrackingRef,
		})
		if domain.IsRetryable(err) {
			entry.Warn("carrier track failed, will retry on next poll")
		} else {
			entry.Error("carrier track failed")
		}
		return order, err
	}

	if status == order.Shipment.Status {
		return order, nil
	}

	updated, err := m.mutate(orderID, func(o *domain.Order) error {
		if o.Shipment == nil {
			return domain.ErrUnknownTracking
		}
		o.Shipment.Status = status
		o.Shipment.UpdatedAt = time.Now().UTC()
		if status == domain.ShipmentStatusDelivered && o.Status == domain.OrderStatusShipped {
			return o.Transition(domain.OrderStatusDelivered)
		}
		return nil
	})
	if err != nil {
		return updated, err
	}

	m.appendTimeline(orderID, "ShipmentStatusChanged", string(status))
	if updated.Status == domain.OrderStatusDelivered {
		m.publishStatus(updated)
	}

	return updated, nil
}

func (m *Manager) appendTimeline(orderID, eventType, reason string) {
	if m.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: time.Now().UTC(),
	}
	if err := m.timeline.Append(event); err != nil {
		m.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Warn("append timeline event failed")
	}
}

// AnnounceInvoice публикует событие выставленного счёта. Событие чисто
// информационное: ошибка публикации не влияет на заказ.
func (m *Manager) AnnounceInvoice(invoice domain.Invoice) {
	if m.publisher == nil {
		return
	}

	event := kafka.NewOrderEvent(kafka.EventTypeInvoiceIssued, invoice.OrderID, invoice.CustomerID, string(domain.OrderStatusPaid), map[string]interface{}{
		"invoice_id":  invoice.ID,
		"total_minor": invoice.TotalMinor,
	})
	if err := m.publisher.PublishEvent(kafka.TopicOrderEvents, invoice.OrderID, event); err != nil {
		m.logger.WithError(err).WithFields(log.Fields{
			"invoice_id": invoice.ID,
			"order_id":   invoice.OrderID,
		}).Warn("failed to publish invoice event to kafka")
	}
}

// statusEvents — статусы заказа, публикуемые наружу. PaymentPending — внутренний
// промежуточный статус, события для него нет.
var statusEvents = map[domain.OrderStatus]kafka.EventType{
	domain.OrderStatusCreated:       kafka.EventTypeOrderCreated,
	domain.OrderStatusPaid:          kafka.EventTypeOrderPaid,
	domain.OrderStatusPaymentFailed: kafka.EventTypeOrderPaymentFailed,
	domain.OrderStatusShipped:       kafka.EventTypeOrderShipped,
	domain.OrderStatusDelivered:     kafka.EventTypeOrderDelivered,
	domain.OrderStatusCancelled:     kafka.EventTypeOrderCancelled,
}

// publishStatus публикует событие смены статуса в Kafka (если producer настроен).
func (m *Manager) publishStatus(order domain.Order) {
	if m.publisher == nil {
		return
	}

	eventType, ok := statusEvents[order.Status]
	if !ok {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.CustomerID, string(order.Status), map[string]interface{}{
		"total_minor": order.Quote.TotalMinor,
		"currency":    order.Currency,
	})
	if err := m.publisher.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
		// Логируем ошибку, но не прерываем обработку: Kafka опциональный.
		m.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("failed to publish order event to kafka")
	}
}
