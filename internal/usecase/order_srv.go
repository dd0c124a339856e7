package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clothing-store/internal/data/entity"
	"clothing-store/internal/data/repository"
	"clothing-store/internal/dto/request"
	"clothing-store/internal/dto/response"
	"clothing-store/pkg/broker"
	"clothing-store/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	instrumentationName = "clothing-store/internal/usecase"

	// maxStatusAttempts bounds the read/compare-and-swap loop on order status.
	maxStatusAttempts = 5
)

var tracer = otel.Tracer(instrumentationName)

type OrderService interface {
	CreateOrder(ctx context.Context, actor Actor, req *request.CreateOrderRequest) (*response.OrderResponse, error)
	GetOrders(ctx context.Context, actor Actor, req *request.OrderListRequest) (*response.PaginatedResponse[response.OrderResponse], error)
	GetOrderByID(ctx context.Context, actor Actor, orderID string) (*response.OrderResponse, error)
	UpdateOrderStatus(ctx context.Context, orderID string, req *request.UpdateOrderStatusRequest) (*response.OrderResponse, error)
	CancelOrder(ctx context.Context, actor Actor, orderID string) (*response.OrderResponse, error)
	DeleteOrder(ctx context.Context, orderID string) error

	AddItem(ctx context.Context, actor Actor, orderID string, req *request.OrderItemRequest) (*response.OrderResponse, error)
	RemoveItem(ctx context.Context, actor Actor, orderID, productID string) (*response.OrderResponse, error)
	UpdateItemQuantity(ctx context.Context, actor Actor, orderID, productID string, req *request.UpdateQuantityRequest) (*response.OrderResponse, error)
}

type orderService struct {
	repo    *repository.Repository
	events  broker.Publisher
	log     *zap.Logger
	now     func() time.Time
	metrics orderMetrics
}

type orderMetrics struct {
	created  metric.Int64Counter
	canceled metric.Int64Counter
	rejected metric.Int64Counter
}

func newOrderMetrics(log *zap.Logger) orderMetrics {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	var m orderMetrics
	var err error
	if m.created, err = meter.Int64Counter("orders.created", metric.WithDescription("Orders committed")); err != nil {
		log.Warn("Unable to register orders.created metric", zap.Error(err))
	}
	if m.canceled, err = meter.Int64Counter("orders.canceled", metric.WithDescription("Orders canceled with stock restored")); err != nil {
		log.Warn("Unable to register orders.canceled metric", zap.Error(err))
	}
	if m.rejected, err = meter.Int64Counter("orders.rejected", metric.WithDescription("Order creations rejected by stock checks")); err != nil {
		log.Warn("Unable to register orders.rejected metric", zap.Error(err))
	}
	return m
}

func addCount(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func NewOrderService(repo *repository.Repository, events broker.Publisher, log *zap.Logger) OrderService {
	if events == nil {
		events = broker.NopPublisher{}
	}
	log = log.With(zap.String("service", "order"))
	return &orderService{
		repo:    repo,
		events:  events,
		log:     log,
		now:     time.Now,
		metrics: newOrderMetrics(log),
	}
}

// orderEvent is the payload published for every order lifecycle change.
type orderEvent struct {
	OrderID        string          `json:"order_id"`
	UserID         string          `json:"user_id"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	Total          decimal.Decimal `json:"total"`
}

func (s *orderService) publish(ctx context.Context, routingKey string, order *entity.Order, previous entity.OrderStatus) {
	event := orderEvent{
		OrderID:        order.ID.String(),
		UserID:         order.UserID.String(),
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		Total:          order.Total,
	}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		s.logEventFailure(routingKey, order.ID, err)
	}
}

// The order is already committed when publishing fails, so the failure is only logged.
func (s *orderService) logEventFailure(routingKey string, orderID uuid.UUID, err error) {
	s.log.Warn("Failed to publish order event",
		zap.String("event", routingKey),
		zap.String("order_id", orderID.String()),
		zap.Error(err),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !IsClientError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *orderService) CreateOrder(ctx context.Context, actor Actor, req *request.CreateOrderRequest) (_ *response.OrderResponse, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(
			attribute.String("user.id", actor.UserID.String()),
			attribute.Int("order.items", len(req.Items)),
		))
	defer func() { endSpan(span, err) }()

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	items, err := toOrderItems(req.Items)
	if err != nil {
		return nil, err
	}

	var order *entity.Order
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		order = nil

		user, err := tx.User.FindByID(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("find user %s: %w", actor.UserID, err)
		}
		if user == nil {
			return notFound("user %s does not exist", actor.UserID)
		}

		if err := s.checkAvailability(ctx, tx, items); err != nil {
			return err
		}

		if err := s.reserveStock(ctx, tx, items); err != nil {
			return err
		}

		now := s.now()
		created := &entity.Order{
			Base:   entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			UserID: user.ID,
			Status: entity.OrderStatusPending,
			Total:  entity.ComputeTotal(items),
			Items:  items,
		}
		if err := tx.Order.Create(ctx, created); err != nil {
			// inside a transaction the rollback restores stock
			if s.repo.Tx == nil {
				s.releaseStock(ctx, tx, items)
			}
			return err
		}

		order = created
		return nil
	})
	if err != nil {
		if IsClientError(err) {
			addCount(ctx, s.metrics.rejected)
			s.log.Info("Order rejected", zap.String("user_id", actor.UserID.String()), zap.Error(err))
			return nil, err
		}
		s.log.Error("Failed to create order", zap.String("user_id", actor.UserID.String()), zap.Error(err))
		return nil, fmt.Errorf("create order: %w", err)
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	addCount(ctx, s.metrics.created)
	s.log.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.String("total", order.Total.String()),
	)

	s.publish(ctx, broker.OrderCreated, order, "")

	resp := response.OrderToResponse(order)
	return &resp, nil
}

func toOrderItems(reqs []request.OrderItemRequest) ([]entity.OrderItem, error) {
	items := make([]entity.OrderItem, len(reqs))
	for i, r := range reqs {
		productID, err := uuid.Parse(r.ProductID)
		if err != nil {
			return nil, invalid("invalid product ID %q", r.ProductID)
		}
		items[i] = entity.OrderItem{
			ProductID: productID,
			Name:      r.Name,
			Price:     *r.Price,
			Quantity:  r.Quantity,
			Variant:   entity.VariantKey{Size: r.Variant.Size, Color: r.Variant.Color},
		}
	}
	return items, nil
}

// checkAvailability rejects the order early when a product or variant is unknown
// or the current stock is short. The conditional decrement remains the real guard.
func (s *orderService) checkAvailability(ctx context.Context, tx *repository.Repository, items []entity.OrderItem) error {
	products := make(map[uuid.UUID]*entity.Product)
	requested := make(map[uuid.UUID]map[entity.VariantKey]int)

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			var err error
			product, err = tx.Product.FindByID(ctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("find product %s: %w", item.ProductID, err)
			}
			if product == nil {
				return notFound("product %s does not exist", item.ProductID)
			}
			products[item.ProductID] = product
			requested[item.ProductID] = make(map[entity.VariantKey]int)
		}

		variant := product.FindVariant(item.Variant)
		if variant == nil {
			return invalid("product %s has no variant %s/%s", item.ProductID, item.Variant.Size, item.Variant.Color)
		}

		requested[item.ProductID][item.Variant] += item.Quantity
		if requested[item.ProductID][item.Variant] > variant.Stock {
			return insufficientStock(item)
		}
	}
	return nil
}

func insufficientStock(item entity.OrderItem) error {
	return invalid("insufficient stock for product %s variant %s/%s", item.ProductID, item.Variant.Size, item.Variant.Color)
}

// reserveStock decrements every item's variant. On the first failure the decrements
// already applied are given back before returning.
func (s *orderService) reserveStock(ctx context.Context, tx *repository.Repository, items []entity.OrderItem) error {
	for i, item := range items {
		ok, err := tx.Product.DecrementVariantStock(ctx, item.ProductID, item.Variant, item.Quantity)
		if err != nil {
			// a failed statement aborts the transaction; its rollback restores stock
			if s.repo.Tx == nil {
				s.releaseStock(ctx, tx, items[:i])
			}
			return err
		}
		if !ok {
			s.releaseStock(ctx, tx, items[:i])
			return insufficientStock(item)
		}
	}
	return nil
}

func (s *orderService) releaseStock(ctx context.Context, tx *repository.Repository, items []entity.OrderItem) {
	ctx = context.WithoutCancel(ctx)
	for _, item := range items {
		if err := tx.Product.AdjustVariantStock(ctx, item.ProductID, item.Variant, item.Quantity); err != nil {
			s.log.Error("Failed to release reserved stock",
				zap.String("product_id", item.ProductID.String()),
				zap.String("size", item.Variant.Size),
				zap.String("color", item.Variant.Color),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

func (s *orderService) GetOrders(ctx context.Context, actor Actor, req *request.OrderListRequest) (*response.PaginatedResponse[response.OrderResponse], error) {
	var filter repository.OrderFilter

	if req.UserID != "" {
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, invalid("invalid user ID")
		}
		filter.UserID = &userID
	}
	if !actor.IsAdmin() {
		if filter.UserID != nil && *filter.UserID != actor.UserID {
			return nil, forbidden("not enough permissions")
		}
		filter.UserID = &actor.UserID
	}

	if req.Status != "" {
		status := entity.OrderStatus(req.Status)
		if !status.Valid() {
			return nil, invalid("invalid order status %q", req.Status)
		}
		filter.Status = &status
	}

	offset, limit := req.Offset(), req.Limit()

	orders, err := s.repo.Order.FindAll(ctx, filter, limit, offset)
	if err != nil {
		s.log.Error("Failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("list orders: %w", err)
	}

	total, err := s.repo.Order.Count(ctx, filter)
	if err != nil {
		s.log.Error("Failed to count orders", zap.Error(err))
		return nil, fmt.Errorf("count orders: %w", err)
	}

	data := make([]response.OrderResponse, len(orders))
	for i, o := range orders {
		data[i] = response.OrderToResponse(o)
	}

	return response.NewPaginatedResponse(data, offset, limit, total), nil
}

func parseOrderID(orderID string) (uuid.UUID, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return uuid.Nil, invalid("invalid order ID")
	}
	return id, nil
}

// loadOrder fetches an order the actor is allowed to see. A nil actor skips the check.
func (s *orderService) loadOrder(ctx context.Context, actor *Actor, id uuid.UUID) (*entity.Order, error) {
	order, err := s.repo.Order.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find order", zap.String("order_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}
	if order == nil {
		return nil, notFound("order %s not found", id)
	}
	if actor != nil && !actor.CanAccess(order.UserID) {
		return nil, forbidden("not enough permissions")
	}
	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, actor Actor, orderID string) (*response.OrderResponse, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, &actor, id)
	if err != nil {
		return nil, err
	}

	resp := response.OrderToResponse(order)
	return &resp, nil
}

func (s *orderService) CancelOrder(ctx context.Context, actor Actor, orderID string) (*response.OrderResponse, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.cancel(ctx, &actor, id)
	if err != nil {
		return nil, err
	}

	resp := response.OrderToResponse(order)
	return &resp, nil
}

// cancel claims the order with a status compare-and-swap, then gives every item's
// quantity back to its variant. Only the caller that wins the claim restores stock,
// so concurrent cancels restore it once.
func (s *orderService) cancel(ctx context.Context, actor *Actor, id uuid.UUID) (_ *entity.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CancelOrder",
		trace.WithAttributes(attribute.String("order.id", id.String())))
	defer func() { endSpan(span, err) }()

	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		order, err := s.loadOrder(ctx, actor, id)
		if err != nil {
			return nil, err
		}

		switch order.Status {
		case entity.OrderStatusCanceled:
			return order, nil
		case entity.OrderStatusDelivered:
			return nil, invalid("delivered orders cannot be canceled")
		}

		previous := order.Status
		claimed := false
		err = s.repo.RunInTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
			claimed = false
			ok, err := tx.Order.UpdateStatus(ctx, id, previous, entity.OrderStatusCanceled)
			if err != nil || !ok {
				return err
			}
			claimed = true
			return s.restoreStock(ctx, tx, order)
		})
		if err != nil {
			s.log.Error("Failed to cancel order", zap.String("order_id", id.String()), zap.Error(err))
			return nil, fmt.Errorf("cancel order %s: %w", id, err)
		}
		if !claimed {
			continue
		}

		order.Status = entity.OrderStatusCanceled
		order.UpdatedAt = s.now()

		addCount(ctx, s.metrics.canceled)
		s.log.Info("Order canceled",
			zap.String("order_id", id.String()),
			zap.String("previous_status", string(previous)),
		)
		s.publish(ctx, broker.OrderCanceled, order, previous)
		return order, nil
	}

	return nil, fmt.Errorf("cancel order %s: status kept changing", id)
}

// restoreStock adds the item quantities back. A variant that no longer exists is
// skipped; other failures are collected so every remaining item is still attempted.
func (s *orderService) restoreStock(ctx context.Context, tx *repository.Repository, order *entity.Order) error {
	var errs []error
	for _, item := range order.Items {
		err := tx.Product.AdjustVariantStock(ctx, item.ProductID, item.Variant, item.Quantity)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrNotFound):
			s.log.Warn("Variant gone, stock not restored",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.String("size", item.Variant.Size),
				zap.String("color", item.Variant.Color),
			)
		default:
			errs = append(errs, fmt.Errorf("restore %s %s/%s: %w", item.ProductID, item.Variant.Size, item.Variant.Color, err))
		}
	}
	return errors.Join(errs...)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID string, req *request.UpdateOrderStatusRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	next := entity.OrderStatus(req.Status)
	if next == entity.OrderStatusCanceled {
		order, err := s.cancel(ctx, nil, id)
		if err != nil {
			return nil, err
		}
		resp := response.OrderToResponse(order)
		return &resp, nil
	}

	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		order, err := s.loadOrder(ctx, nil, id)
		if err != nil {
			return nil, err
		}
		if err := checkTransition(order.Status, next); err != nil {
			return nil, err
		}

		ok, err := s.repo.Order.UpdateStatus(ctx, id, order.Status, next)
		if err != nil {
			s.log.Error("Failed to update order status", zap.String("order_id", id.String()), zap.Error(err))
			return nil, fmt.Errorf("update status of order %s: %w", id, err)
		}
		if !ok {
			continue
		}

		previous := order.Status
		order.Status = next
		order.UpdatedAt = s.now()

		s.log.Info("Order status changed",
			zap.String("order_id", id.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(next)),
		)
		s.publish(ctx, broker.OrderStatusChanged, order, previous)

		resp := response.OrderToResponse(order)
		return &resp, nil
	}

	return nil, fmt.Errorf("update status of order %s: status kept changing", id)
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	id, err := parseOrderID(orderID)
	if err != nil {
		return err
	}

	if err := s.repo.Order.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("order %s not found", id)
		}
		s.log.Error("Failed to delete order", zap.String("order_id", id.String()), zap.Error(err))
		return fmt.Errorf("delete order %s: %w", id, err)
	}

	s.log.Info("Order deleted", zap.String("order_id", id.String()))
	return nil
}

// loadPendingOrder returns an order the actor owns that can still be edited.
func (s *orderService) loadPendingOrder(ctx context.Context, actor Actor, orderID string) (*entity.Order, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, &actor, id)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderStatusPending {
		return nil, invalid("only pending orders can be modified")
	}
	return order, nil
}

// mutationRejected explains why a pending-only item mutation matched nothing:
// the order disappeared, left pending, or no longer holds the product.
func (s *orderService) mutationRejected(ctx context.Context, id, productID uuid.UUID) error {
	order, err := s.loadOrder(ctx, nil, id)
	if err != nil {
		return err
	}
	if order.Status != entity.OrderStatusPending {
		return invalid("only pending orders can be modified")
	}
	return notFound("product %s is not in order %s", productID, id)
}

func (s *orderService) reload(ctx context.Context, id uuid.UUID) (*response.OrderResponse, error) {
	order, err := s.loadOrder(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	resp := response.OrderToResponse(order)
	return &resp, nil
}

func hasProduct(order *entity.Order, productID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// AddItem appends a line to a pending order. Stock and total are left as they are.
func (s *orderService) AddItem(ctx context.Context, actor Actor, orderID string, req *request.OrderItemRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	order, err := s.loadPendingOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	items, err := toOrderItems([]request.OrderItemRequest{*req})
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.Order.AppendItem(ctx, order.ID, items[0])
	if err != nil {
		s.log.Error("Failed to add order item", zap.String("order_id", order.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("add item to order %s: %w", order.ID, err)
	}
	if !ok {
		return nil, s.mutationRejected(ctx, order.ID, items[0].ProductID)
	}

	return s.reload(ctx, order.ID)
}

// RemoveItem drops every line of the product from a pending order.
func (s *orderService) RemoveItem(ctx context.Context, actor Actor, orderID, productID string) (*response.OrderResponse, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, invalid("invalid product ID")
	}

	order, err := s.loadPendingOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if !hasProduct(order, pid) {
		return nil, notFound("product %s is not in order %s", pid, order.ID)
	}

	n, err := s.repo.Order.RemoveItems(ctx, order.ID, pid)
	if err != nil {
		s.log.Error("Failed to remove order item", zap.String("order_id", order.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("remove item from order %s: %w", order.ID, err)
	}
	if n == 0 {
		return nil, s.mutationRejected(ctx, order.ID, pid)
	}

	return s.reload(ctx, order.ID)
}

// UpdateItemQuantity sets the quantity of the first line holding the product.
func (s *orderService) UpdateItemQuantity(ctx context.Context, actor Actor, orderID, productID string, req *request.UpdateQuantityRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, invalid("invalid product ID")
	}

	order, err := s.loadPendingOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if !hasProduct(order, pid) {
		return nil, notFound("product %s is not in order %s", pid, order.ID)
	}

	ok, err := s.repo.Order.UpdateItemQuantity(ctx, order.ID, pid, req.Quantity)
	if err != nil {
		s.log.Error("Failed to update item quantity", zap.String("order_id", order.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("update item quantity in order %s: %w", order.ID, err)
	}
	if !ok {
		return nil, s.mutationRejected(ctx, order.ID, pid)
	}

	return s.reload(ctx, order.ID)
}
