package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	ListByCustomer(customerID string, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// ProductRepository описывает доступ к каталогу товаров.
type ProductRepository interface {
	// Get возвращает товар по SKU или ErrProductNotFound.
	Get(sku string) (Product, error)
	// List возвращает все товары каталога в стабильном порядке.
	List() ([]Product, error)
	// Save создаёт или обновляет товар.
	Save(product Product) error
}

// CustomerRepository описывает доступ к покупателям.
type CustomerRepository interface {
	// Get возвращает клиента по идентификатору или ErrCustomerNotFound.
	Get(id string) (Customer, error)
	// FindByEmail ищет клиента по e-mail или возвращает ErrCustomerNotFound.
	FindByEmail(email string) (Customer, error)
	// Save создаёт или обновляет клиента.
	Save(customer Customer) error
}
