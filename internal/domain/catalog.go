package domain

import "time"

// Product — позиция каталога. Каталог для движка — внешний коллаборатор:
// движок читает цену и заявленный сток, но не управляет ими.
type Product struct {
	SKU         string
	Name        string
	Description string
	PriceMinor  int64
	Stock       int32
	CreatedAt   time.Time
}

// Customer — покупатель, от имени которого оформляется заказ.
type Customer struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
