package repository

import (
	"context"
	"errors"
	"fmt"

	"clothing-store/internal/data/entity"
	"clothing-store/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OrderFilter narrows order listings. Nil fields are ignored.
type OrderFilter struct {
	UserID *uuid.UUID
	Status *entity.OrderStatus
}

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	FindAll(ctx context.Context, filter OrderFilter, limit, offset int) ([]*entity.Order, error)
	Count(ctx context.Context, filter OrderFilter) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateStatus moves the order from expected to next. It reports false when the
	// order is missing or no longer in the expected status.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next entity.OrderStatus) (bool, error)

	// Item mutations apply only while the order is pending and report false otherwise.
	AppendItem(ctx context.Context, orderID uuid.UUID, item entity.OrderItem) (bool, error)
	RemoveItems(ctx context.Context, orderID, productID uuid.UUID) (int64, error)
	UpdateItemQuantity(ctx context.Context, orderID, productID uuid.UUID, quantity int) (bool, error)
}

type orderRepository struct {
	db  database.Querier
	log *zap.Logger
	// inTx is set when db is a transaction whose rollback undoes partial writes.
	inTx bool
}

func NewOrderRepository(db database.Querier, log *zap.Logger) OrderRepository {
	return newOrderRepository(db, log, false)
}

func newOrderRepository(db database.Querier, log *zap.Logger, inTx bool) *orderRepository {
	return &orderRepository{
		db:   db,
		log:  log.With(zap.String("repository", "order")),
		inTx: inTx,
	}
}

func (or *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (id, user_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := or.db.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.Status,
		order.Total,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		err = translate(err)
		or.log.Error("Failed to create order", zap.Error(err), zap.String("user_id", order.UserID.String()))
		return fmt.Errorf("create order for user %s: %w", order.UserID, err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, name, price, quantity, size, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, item := range order.Items {
		_, err := or.db.Exec(ctx, itemQuery,
			order.ID,
			i,
			item.ProductID,
			item.Name,
			item.Price,
			item.Quantity,
			item.Variant.Size,
			item.Variant.Color,
		)
		if err != nil {
			err = translate(err)
			or.log.Error("Failed to create order item", zap.Error(err), zap.String("order_id", order.ID.String()))
			or.discard(ctx, order.ID)
			return fmt.Errorf("create item %d of order %s: %w", i, order.ID, err)
		}
	}

	return nil
}

// discard deletes an order header left behind by a failed item insert. Items
// already written go with it through the cascade.
func (or *orderRepository) discard(ctx context.Context, id uuid.UUID) {
	if or.inTx {
		return
	}
	if _, err := or.db.Exec(context.WithoutCancel(ctx), `DELETE FROM orders WHERE id = $1`, id); err != nil {
		or.log.Error("Failed to discard partial order", zap.Error(err), zap.String("order_id", id.String()))
	}
}

func (or *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	query := `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	order, err := scanOrder(or.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		or.log.Error("Failed to find order by ID", zap.Error(err), zap.String("order_id", id.String()))
		return nil, fmt.Errorf("find order by ID %s: %w", id.String(), err)
	}

	if err := or.loadItems(ctx, []*entity.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

const orderFilterClause = `
	WHERE ($1::uuid IS NULL OR user_id = $1::uuid)
	  AND ($2::text IS NULL OR status = $2::text)
`

func (or *orderRepository) FindAll(ctx context.Context, filter OrderFilter, limit, offset int) ([]*entity.Order, error) {
	query := `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM orders` + orderFilterClause + `
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := or.db.Query(ctx, query, filter.UserID, filter.Status, limit, offset)
	if err != nil {
		or.log.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("find orders limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	orders := make([]*entity.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	if err := or.loadItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (or *orderRepository) Count(ctx context.Context, filter OrderFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM orders` + orderFilterClause

	var count int64
	if err := or.db.QueryRow(ctx, query, filter.UserID, filter.Status).Scan(&count); err != nil {
		or.log.Error("Database error counting orders", zap.Error(err))
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.Total,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = make([]entity.OrderItem, 0)
	return &o, nil
}

func (or *orderRepository) loadItems(ctx context.Context, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*entity.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	query := `
		SELECT order_id, product_id, name, price, quantity, size, color
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`

	rows, err := or.db.Query(ctx, query, ids)
	if err != nil {
		or.log.Error("Failed to load order items", zap.Error(err))
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var item entity.OrderItem
		if err := rows.Scan(
			&orderID,
			&item.ProductID,
			&item.Name,
			&item.Price,
			&item.Quantity,
			&item.Variant.Size,
			&item.Variant.Color,
		); err != nil {
			return fmt.Errorf("scan order item row: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}
	return nil
}

func (or *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := or.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		or.log.Error("Failed to delete order", zap.Error(err), zap.String("order_id", id.String()))
		return fmt.Errorf("delete order %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete order %s: %w", id.String(), ErrNotFound)
	}

	or.log.Info("Order deleted", zap.String("order_id", id.String()))
	return nil
}

func (or *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next entity.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := or.db.Exec(ctx, query, id, expected, next)
	if err != nil {
		or.log.Error("Failed to update order status",
			zap.Error(err),
			zap.String("order_id", id.String()),
			zap.String("from", string(expected)),
			zap.String("to", string(next)),
		)
		return false, fmt.Errorf("update status of order %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (or *orderRepository) AppendItem(ctx context.Context, orderID uuid.UUID, item entity.OrderItem) (bool, error) {
	query := `
		INSERT INTO order_items (order_id, position, product_id, name, price, quantity, size, color)
		SELECT o.id,
		       COALESCE((SELECT MAX(position) + 1 FROM order_items WHERE order_id = o.id), 0),
		       $2, $3, $4, $5, $6, $7
		FROM orders o
		WHERE o.id = $1 AND o.status = 'pending'
	`

	result, err := or.db.Exec(ctx, query,
		orderID,
		item.ProductID,
		item.Name,
		item.Price,
		item.Quantity,
		item.Variant.Size,
		item.Variant.Color,
	)
	if err != nil {
		or.log.Error("Failed to append order item", zap.Error(err), zap.String("order_id", orderID.String()))
		return false, fmt.Errorf("append item to order %s: %w", orderID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (or *orderRepository) RemoveItems(ctx context.Context, orderID, productID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM order_items oi
		USING orders o
		WHERE oi.order_id = o.id AND o.id = $1 AND o.status = 'pending' AND oi.product_id = $2
	`

	result, err := or.db.Exec(ctx, query, orderID, productID)
	if err != nil {
		or.log.Error("Failed to remove order items", zap.Error(err), zap.String("order_id", orderID.String()))
		return 0, fmt.Errorf("remove product %s from order %s: %w", productID, orderID, err)
	}

	return result.RowsAffected(), nil
}

func (or *orderRepository) UpdateItemQuantity(ctx context.Context, orderID, productID uuid.UUID, quantity int) (bool, error) {
	// only the first matching line, by position
	query := `
		UPDATE order_items oi
		SET quantity = $3
		FROM orders o
		WHERE oi.order_id = o.id AND o.id = $1 AND o.status = 'pending'
		  AND oi.position = (
		        SELECT MIN(position) FROM order_items
		        WHERE order_id = $1 AND product_id = $2)
	`

	result, err := or.db.Exec(ctx, query, orderID, productID, quantity)
	if err != nil {
		or.log.Error("Failed to update order item quantity", zap.Error(err), zap.String("order_id", orderID.String()))
		return false, fmt.Errorf("update quantity of product %s in order %s: %w", productID, orderID, err)
	}

	return result.RowsAffected() == 1, nil
}
