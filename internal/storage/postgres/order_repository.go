package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
// Заказ раскладывается по таблицам orders / order_lines / payments / shipments;
// позиции неизменяемы и пишутся один раз при Create.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return beginTxErr(err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, currency, status,
			subtotal_minor, discount_minor, tax_minor, shipping_minor, total_minor,
			version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		order.ID, order.CustomerID, order.Currency, string(order.Status),
		order.Quote.SubtotalMinor, order.Quote.DiscountMinor, order.Quote.TaxMinor,
		order.Quote.ShippingMinor, order.Quote.TotalMinor,
		order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, line := range order.Lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, sku, name, qty, unit_price_minor)
			VALUES ($1,$2,$3,$4,$5,$6)
		`,
			order.ID, i, line.SKU, line.Name, line.Qty, line.UnitPriceMinor,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err = r.savePaymentsTx(ctx, tx, order); err != nil {
		return err
	}
	if err = r.saveShipmentTx(ctx, tx, order); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.loadOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := r.loadDetails(ctx, &order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *orderRepository) ListByCustomer(customerID string, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, customer_id, currency, status,
		       subtotal_minor, discount_minor, tax_minor, shipping_minor, total_minor,
		       version, created_at, updated_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", customerID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		if err := r.loadDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return beginTxErr(err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Позиции и суммы неизменяемы после создания: обновляем только
	// мутабельную часть заказа.
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`,
		string(order.Status),
		order.UpdatedAt,
		order.ID,
		order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExistsTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrVersionConflict
	}

	if err = r.savePaymentsTx(ctx, tx, order); err != nil {
		return err
	}
	if err = r.saveShipmentTx(ctx, tx, order); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save order: %w", err)
	}

	return nil
}

// savePaymentsTx дописывает новые платёжные записи. Записи неизменяемы,
// поэтому конфликт по ID молча пропускается.
func (r *orderRepository) savePaymentsTx(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	for _, p := range order.Payments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payments (id, order_id, method, auth_ref, amount_minor, succeeded, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO NOTHING
		`,
			p.ID, order.ID, string(p.Method), p.AuthRef, p.AmountMinor, p.Succeeded, p.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}
	return nil
}

// saveShipmentTx сохраняет запись об отгрузке. В отличие от платежей она
// мутабельна: статус обновляется при каждом опросе перевозчика.
func (r *orderRepository) saveShipmentTx(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	if order.Shipment == nil {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO shipments (order_id, carrier, tracking_ref, status, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (order_id) DO UPDATE
		SET carrier = EXCLUDED.carrier,
		    tracking_ref = EXCLUDED.tracking_ref,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
	`,
		order.ID, order.Shipment.Carrier, order.Shipment.TrackingRef,
		string(order.Shipment.Status), order.Shipment.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert shipment: %w", err)
	}
	return nil
}

func (r *orderRepository) loadOrder(ctx context.Context, id string) (domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, currency, status,
		       subtotal_minor, discount_minor, tax_minor, shipping_minor, total_minor,
		       version, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, err
	}
	return order, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	var status string
	if err := row.Scan(
		&order.ID, &order.CustomerID, &order.Currency, &status,
		&order.Quote.SubtotalMinor, &order.Quote.DiscountMinor, &order.Quote.TaxMinor,
		&order.Quote.ShippingMinor, &order.Quote.TotalMinor,
		&order.Version, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("scan order row: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	return order, nil
}

func (r *orderRepository) loadDetails(ctx context.Context, order *domain.Order) error {
	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Lines = lines

	payments, err := r.loadPayments(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Payments = payments

	shipment, err := r.loadShipment(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Shipment = shipment

	return nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID string) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sku, name, qty, unit_price_minor
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.SKU, &line.Name, &line.Qty, &line.UnitPriceMinor); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

func (r *orderRepository) loadPayments(ctx context.Context, orderID string) ([]domain.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, method, auth_ref, amount_minor, succeeded, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.PaymentRecord, 0)
	for rows.Next() {
		var p domain.PaymentRecord
		var method string
		if err := rows.Scan(&p.ID, &p.OrderID, &method, &p.AuthRef, &p.AmountMinor, &p.Succeeded, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Method = domain.PaymentMethod(method)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	if len(payments) == 0 {
		return nil, nil
	}
	return payments, nil
}

func (r *orderRepository) loadShipment(ctx context.Context, orderID string) (*domain.ShipmentRecord, error) {
	var shipment domain.ShipmentRecord
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT carrier, tracking_ref, status, updated_at
		FROM shipments
		WHERE order_id = $1
	`, orderID).Scan(&shipment.Carrier, &shipment.TrackingRef, &status, &shipment.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load shipment: %w", err)
	}
	shipment.Status = domain.ShipmentStatus(status)
	return &shipment, nil
}

func (r *orderRepository) orderExistsTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

// beginTxErr помечает невозможность начать транзакцию как временную
// недоступность хранилища: вызывающий код может повторить операцию.
func beginTxErr(err error) error {
	return fmt.Errorf("begin tx: %w: %v", domain.ErrStorageUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
