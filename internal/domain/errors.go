package domain

import "errors"

var (
	// ErrEmptyCart возвращается при попытке оформить заказ из пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidInput — некорректные входные данные для расчёта цены.
	ErrInvalidInput = errors.New("invalid pricing input")
	// ErrInsufficientStock — на складе недостаточно товара для резервирования.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidRelease — попытка снять или закоммитить больше, чем зарезервировано.
	// Указывает на ошибку вызывающего кода, не подлежит повтору.
	ErrInvalidRelease = errors.New("release exceeds reserved quantity")
	// ErrPaymentDeclined — провайдер отклонил платёж; можно повторить с другими данными.
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrPaymentValidation — платёжные данные некорректны; повтор без исправления бессмыслен.
	ErrPaymentValidation = errors.New("payment details validation failed")
	// ErrUnknownPaymentMethod — запрошен незарегистрированный способ оплаты.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	// ErrCarrierUnavailable — перевозчик временно недоступен, можно повторить с backoff.
	ErrCarrierUnavailable = errors.New("carrier unavailable")
	// ErrUnknownTracking — перевозчик не знает такой трек-номер (постоянная ошибка).
	ErrUnknownTracking = errors.New("unknown tracking reference")
	// ErrUnknownCarrier — запрошен незарегистрированный перевозчик.
	ErrUnknownCarrier = errors.New("unknown carrier")
	// ErrInvalidTransition — недопустимый переход статуса заказа.
	// Считается ошибкой программирования и не подлежит повтору.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrCustomerNotFound возвращается, если клиент не найден.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении заказа.
	ErrVersionConflict = errors.New("order version conflict")
	// ErrStorageUnavailable — хранилище временно недоступно.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsRetryable сообщает, имеет ли смысл повторять операцию после данной ошибки.
// Повторяем только временные сбои внешних систем; бизнес-отказы и ошибки
// программирования всплывают к вызывающему коду как есть.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCarrierUnavailable) || errors.Is(err, ErrStorageUnavailable)
}
