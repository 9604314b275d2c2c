package domain

import "time"

// ShipmentStatus — нормализованный, независимый от перевозчика статус отгрузки.
// Адаптеры перевозчиков переводят свой словарь статусов в это перечисление.
type ShipmentStatus string

const (
	ShipmentStatusPending        ShipmentStatus = "pending"
	ShipmentStatusInTransit      ShipmentStatus = "in_transit"
	ShipmentStatusOutForDelivery ShipmentStatus = "out_for_delivery"
	ShipmentStatusDelivered      ShipmentStatus = "delivered"
	// ShipmentStatusException — перевозчик сообщил о проблеме с доставкой.
	// Статус заказа при этом не меняется, проблема видна только в отгрузке.
	ShipmentStatusException ShipmentStatus = "exception"
)

// ShipmentRecord — запись об отгрузке заказа. В отличие от позиций и сумм
// заказа запись мутабельна: статус обновляется опросом адаптера перевозчика.
type ShipmentRecord struct {
	Carrier     string
	TrackingRef string
	Status      ShipmentStatus
	UpdatedAt   time.Time
}
