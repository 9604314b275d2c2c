package domain

import "time"

// TimelineEvent описывает событие в жизненном цикле заказа: смену статуса,
// попытку оплаты, обновление отгрузки.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}
