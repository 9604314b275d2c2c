package domain

// InventoryLedger ведёт учёт доступного и зарезервированного стока по SKU.
// Все три операции атомарны в пределах одного SKU; слой сам ничего не
// повторяет — решения о повторе или откате принимает оркестратор.
type InventoryLedger interface {
	// Reserve переносит qty из доступного в зарезервированное.
	// Возвращает ErrInsufficientStock, если доступного меньше qty.
	Reserve(sku string, qty int32) error
	// Release возвращает qty из резерва в доступное.
	// Возвращает ErrInvalidRelease, если зарезервировано меньше qty.
	Release(sku string, qty int32) error
	// Commit окончательно списывает qty из резерва (продажа состоялась).
	Commit(sku string, qty int32) error
	// Available возвращает текущий доступный остаток по SKU.
	Available(sku string) int32
}

// PaymentStrategy — одна из взаимозаменяемых платёжных реализаций.
// Стратегия сама валидирует свои данные: ErrPaymentValidation при
// некорректных данных, ErrPaymentDeclined при отказе провайдера.
type PaymentStrategy interface {
	// Method возвращает ключ, по которому стратегию выбирают во время исполнения.
	Method() PaymentMethod
	// Authorize проводит авторизацию и возвращает платёжную запись.
	Authorize(amountMinor int64, details PaymentDetails) (PaymentRecord, error)
}

// CarrierAdapter нормализует словарь статусов конкретного перевозчика.
type CarrierAdapter interface {
	// Code возвращает код перевозчика для выбора адаптера.
	Code() string
	// Register регистрирует отгрузку и возвращает трек-номер.
	// ErrCarrierUnavailable — временная ошибка, допускает повтор с backoff.
	Register(orderID string) (string, error)
	// Track переводит статус перевозчика в нормализованный ShipmentStatus.
	// ErrUnknownTracking — постоянная ошибка.
	Track(trackingRef string) (ShipmentStatus, error)
}

// EventPublisher публикует события жизненного цикла заказа наружу.
type EventPublisher interface {
	// PublishEvent отправляет событие; реализация должна быть идемпотентной.
	PublishEvent(topic, key string, event interface{}) error
}
