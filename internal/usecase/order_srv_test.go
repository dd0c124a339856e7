package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clothing-store/internal/data/entity"
	"clothing-store/internal/dto/request"
	"clothing-store/pkg/broker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	blackM = entity.VariantKey{Size: "M", Color: "Black"}
	whiteL = entity.VariantKey{Size: "L", Color: "White"}
)

type orderFixture struct {
	store    *memStore
	events   *recordingPublisher
	svc      OrderService
	customer Actor
	other    Actor
	admin    Actor
	product  uuid.UUID
}

func seedUser(s *memStore, email string, role entity.UserRole) Actor {
	id := uuid.New()
	s.users[id] = entity.User{
		Base:  entity.Base{ID: id, CreatedAt: time.Now()},
		Name:  email,
		Email: email,
		Role:  role,
	}
	return Actor{UserID: id, Role: role}
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	return newOrderFixtureMode(t, false)
}

// storeModes runs fn against a repository without transactions, where the
// service compensates by hand, and against one whose RunInTx rolls back.
func storeModes(t *testing.T, fn func(t *testing.T, f *orderFixture)) {
	for _, mode := range []struct {
		name          string
		transactional bool
	}{
		{"compensating", false},
		{"transactional", true},
	} {
		t.Run(mode.name, func(t *testing.T) {
			fn(t, newOrderFixtureMode(t, mode.transactional))
		})
	}
}

func newOrderFixtureMode(t *testing.T, transactional bool) *orderFixture {
	t.Helper()

	store := newMemStore()
	f := &orderFixture{
		store:    store,
		events:   &recordingPublisher{},
		customer: seedUser(store, "alice@example.com", entity.RoleCustomer),
		other:    seedUser(store, "bob@example.com", entity.RoleCustomer),
		admin:    seedUser(store, "admin@example.com", entity.RoleAdmin),
		product:  uuid.New(),
	}

	categoryID := uuid.New()
	store.categories[categoryID] = entity.Category{Base: entity.Base{ID: categoryID}, Name: "Shirts"}
	store.products[f.product] = entity.Product{
		Base:       entity.Base{ID: f.product},
		Name:       "Basic tee",
		Price:      decimal.NewFromInt(20),
		CategoryID: categoryID,
		Variants: []entity.Variant{
			{VariantKey: blackM, Stock: 10},
			{VariantKey: whiteL, Stock: 4},
		},
	}

	repo := store.repository()
	if transactional {
		repo = store.transactional()
	}
	f.svc = NewOrderService(repo, f.events, zap.NewNop())
	return f
}

func (f *orderFixture) setStock(key entity.VariantKey, stock int) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	p := f.store.products[f.product]
	p.FindVariant(key).Stock = stock
}

func item(productID uuid.UUID, key entity.VariantKey, qty int, price string) request.OrderItemRequest {
	p := decimal.RequireFromString(price)
	return request.OrderItemRequest{
		ProductID: productID.String(),
		Name:      "Basic tee",
		Price:     &p,
		Quantity:  qty,
		Variant:   request.OrderItemVariant{Size: key.Size, Color: key.Color},
	}
}

func (f *orderFixture) order(t *testing.T, actor Actor, items ...request.OrderItemRequest) string {
	t.Helper()
	resp, err := f.svc.CreateOrder(context.Background(), actor, &request.CreateOrderRequest{Items: items})
	require.NoError(t, err)
	return resp.ID
}

func TestOrderService_CreateOrder_DecrementsStockAndSnapshotsTotal(t *testing.T) {
	f := newOrderFixture(t)

	resp, err := f.svc.CreateOrder(context.Background(), f.customer, &request.CreateOrderRequest{
		Items: []request.OrderItemRequest{
			item(f.product, blackM, 3, "19.99"),
			item(f.product, whiteL, 1, "25.50"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusPending, resp.Status)
	assert.Equal(t, f.customer.UserID.String(), resp.UserID)
	assert.True(t, decimal.RequireFromString("85.47").Equal(resp.Total), "total was %s", resp.Total)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Basic tee", resp.Items[0].Name)

	assert.Equal(t, 7, f.store.stock(f.product, blackM))
	assert.Equal(t, 3, f.store.stock(f.product, whiteL))
	assert.Equal(t, 1, f.events.count(broker.OrderCreated))
}

func TestOrderService_CreateOrder_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		actor   func(f *orderFixture) Actor
		items   func(f *orderFixture) []request.OrderItemRequest
		wantErr error
	}{
		{
			name:  "unknown user",
			actor: func(*orderFixture) Actor { return Actor{UserID: uuid.New(), Role: entity.RoleCustomer} },
			items: func(f *orderFixture) []request.OrderItemRequest {
				return []request.OrderItemRequest{item(f.product, blackM, 1, "20")}
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "unknown product",
			actor: func(f *orderFixture) Actor { return f.customer },
			items: func(*orderFixture) []request.OrderItemRequest {
				return []request.OrderItemRequest{item(uuid.New(), blackM, 1, "20")}
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "unknown variant",
			actor: func(f *orderFixture) Actor { return f.customer },
			items: func(f *orderFixture) []request.OrderItemRequest {
				return []request.OrderItemRequest{item(f.product, entity.VariantKey{Size: "XS", Color: "Black"}, 1, "20")}
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name:  "quantity above stock",
			actor: func(f *orderFixture) Actor { return f.customer },
			items: func(f *orderFixture) []request.OrderItemRequest {
				return []request.OrderItemRequest{item(f.product, blackM, 11, "20")}
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name:  "same variant twice above stock",
			actor: func(f *orderFixture) Actor { return f.customer },
			items: func(f *orderFixture) []request.OrderItemRequest {
				return []request.OrderItemRequest{item(f.product, blackM, 6, "20"), item(f.product, blackM, 6, "20")}
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "no items",
			actor:   func(f *orderFixture) Actor { return f.customer },
			items:   func(*orderFixture) []request.OrderItemRequest { return nil },
			wantErr: ErrInvalidArgument,
		},
		{
			name:  "price finer than a cent",
			actor: func(f *orderFixture) Actor { return f.customer },
			items: func(f *orderFixture) []request.OrderItemRequest {
				return []request.OrderItemRequest{item(f.product, blackM, 3, "0.005")}
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name:  "price beyond column range",
			actor: func(f *orderFixture) Actor { return f.customer },
			items: func(f *orderFixture) []request.OrderItemRequest {
				return []request.OrderItemRequest{item(f.product, blackM, 1, "10000000000")}
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name:  "zero quantity",
			actor: func(f *orderFixture) Actor { return f.customer },
			items: func(f *orderFixture) []request.OrderItemRequest {
				return []request.OrderItemRequest{item(f.product, blackM, 0, "20")}
			},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			storeModes(t, func(t *testing.T, f *orderFixture) {
				_, err := f.svc.CreateOrder(context.Background(), tc.actor(f), &request.CreateOrderRequest{Items: tc.items(f)})
				assert.ErrorIs(t, err, tc.wantErr)

				assert.Equal(t, 10, f.store.stock(f.product, blackM))
				assert.Equal(t, 4, f.store.stock(f.product, whiteL))
				assert.Zero(t, f.store.orderCount())
				assert.Zero(t, f.events.count(broker.OrderCreated))
			})
		})
	}
}

func TestOrderService_CreateOrder_CompensatesEarlierDecrements(t *testing.T) {
	storeModes(t, func(t *testing.T, f *orderFixture) {
		// another buyer takes most of the L stock between the check and the decrement
		f.store.beforeDecrement = func(_ uuid.UUID, key entity.VariantKey) {
			if key == whiteL {
				f.setStock(whiteL, 1)
			}
		}

		_, err := f.svc.CreateOrder(context.Background(), f.customer, &request.CreateOrderRequest{
			Items: []request.OrderItemRequest{
				item(f.product, blackM, 3, "20"),
				item(f.product, whiteL, 2, "20"),
			},
		})
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Contains(t, err.Error(), "insufficient stock")

		assert.Equal(t, 10, f.store.stock(f.product, blackM))
		assert.Equal(t, 1, f.store.stock(f.product, whiteL))
		assert.Zero(t, f.store.orderCount())
	})
}

func TestOrderService_CreateOrder_ReleasesStockWhenOrderInsertFails(t *testing.T) {
	storeModes(t, func(t *testing.T, f *orderFixture) {
		f.store.createOrderErr = errStoreDown

		_, err := f.svc.CreateOrder(context.Background(), f.customer, &request.CreateOrderRequest{
			Items: []request.OrderItemRequest{item(f.product, blackM, 3, "20")},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errStoreDown)
		assert.False(t, IsClientError(err))

		assert.Equal(t, 10, f.store.stock(f.product, blackM))
	})
}

func TestOrderService_CreateOrder_ConcurrentBuyersOfLastUnits(t *testing.T) {
	storeModes(t, func(t *testing.T, f *orderFixture) {
		f.setStock(blackM, 5)

		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make([]error, 2)

		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[i] = f.svc.CreateOrder(context.Background(), f.customer, &request.CreateOrderRequest{
					Items: []request.OrderItemRequest{item(f.product, blackM, 5, "20")},
				})
			}()
		}
		close(start)
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidArgument)
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 0, f.store.stock(f.product, blackM))
		assert.Equal(t, 1, f.store.orderCount())
	})
}

func TestOrderService_CreateOrder_EventFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.events.err = errors.New("broker down")

	_, err := f.svc.CreateOrder(context.Background(), f.customer, &request.CreateOrderRequest{
		Items: []request.OrderItemRequest{item(f.product, blackM, 1, "20")},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, f.store.stock(f.product, blackM))
}

func TestOrderService_CancelOrder_RestoresStockOnce(t *testing.T) {
	storeModes(t, func(t *testing.T, f *orderFixture) {
		ctx := context.Background()

		orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))
		require.Equal(t, 7, f.store.stock(f.product, blackM))

		resp, err := f.svc.CancelOrder(ctx, f.customer, orderID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusCanceled, resp.Status)
		assert.Equal(t, 10, f.store.stock(f.product, blackM))

		resp, err = f.svc.CancelOrder(ctx, f.customer, orderID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusCanceled, resp.Status)
		assert.Equal(t, 10, f.store.stock(f.product, blackM))

		assert.Equal(t, 1, f.events.count(broker.OrderCanceled))
	})
}

func TestOrderService_CancelOrder_ConcurrentCancels(t *testing.T) {
	storeModes(t, func(t *testing.T, f *orderFixture) {
		orderID := f.order(t, f.customer, item(f.product, blackM, 4, "20"), item(f.product, whiteL, 2, "20"))

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := f.svc.CancelOrder(context.Background(), f.admin, orderID)
				assert.NoError(t, err)
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, 10, f.store.stock(f.product, blackM))
		assert.Equal(t, 4, f.store.stock(f.product, whiteL))
		assert.Equal(t, 1, f.events.count(broker.OrderCanceled))
	})
}

func TestOrderService_CancelOrder_RollsBackWhenRestoreFails(t *testing.T) {
	f := newOrderFixtureMode(t, true)
	ctx := context.Background()
	orderID := f.order(t, f.customer, item(f.product, blackM, 4, "20"), item(f.product, whiteL, 2, "20"))

	f.store.adjustErr = map[entity.VariantKey]error{whiteL: errStoreDown}

	_, err := f.svc.CancelOrder(ctx, f.customer, orderID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.False(t, IsClientError(err))

	// neither the status change nor the black M restore survived
	resp, err := f.svc.GetOrderByID(ctx, f.customer, orderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, resp.Status)
	assert.Equal(t, 6, f.store.stock(f.product, blackM))
	assert.Equal(t, 2, f.store.stock(f.product, whiteL))
	assert.Zero(t, f.events.count(broker.OrderCanceled))

	f.store.mu.Lock()
	f.store.adjustErr = nil
	f.store.mu.Unlock()

	resp, err = f.svc.CancelOrder(ctx, f.customer, orderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCanceled, resp.Status)
	assert.Equal(t, 10, f.store.stock(f.product, blackM))
	assert.Equal(t, 4, f.store.stock(f.product, whiteL))
}

func TestOrderService_CancelOrder_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.CancelOrder(ctx, f.admin, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.CancelOrder(ctx, f.admin, "nope")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("other customer", func(t *testing.T) {
		f := newOrderFixture(t)
		orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))

		_, err := f.svc.CancelOrder(ctx, f.other, orderID)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, 7, f.store.stock(f.product, blackM))
	})

	t.Run("delivered order", func(t *testing.T) {
		f := newOrderFixture(t)
		orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))
		for _, status := range []string{"shipped", "delivered"} {
			_, err := f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: status})
			require.NoError(t, err)
		}

		_, err := f.svc.CancelOrder(ctx, f.customer, orderID)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, 7, f.store.stock(f.product, blackM))
	})

	t.Run("variant removed after ordering", func(t *testing.T) {
		f := newOrderFixture(t)
		orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"), item(f.product, whiteL, 1, "20"))

		require.NoError(t, memProductRepo{s: f.store}.RemoveVariant(ctx, f.product, whiteL))

		resp, err := f.svc.CancelOrder(ctx, f.customer, orderID)
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusCanceled, resp.Status)
		assert.Equal(t, 10, f.store.stock(f.product, blackM))
	})
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("forward transitions", func(t *testing.T) {
		f := newOrderFixture(t)
		orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))

		resp, err := f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "shipped"})
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusShipped, resp.Status)

		resp, err = f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "delivered"})
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusDelivered, resp.Status)

		assert.Equal(t, 2, f.events.count(broker.OrderStatusChanged))
		assert.Equal(t, 7, f.store.stock(f.product, blackM))
	})

	t.Run("backward and same status rejected", func(t *testing.T) {
		f := newOrderFixture(t)
		orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))

		_, err := f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "pending"})
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "delivered"})
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "shipped"})
		require.NoError(t, err)

		_, err = f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "pending"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("cancel through status restores stock", func(t *testing.T) {
		f := newOrderFixture(t)
		orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))

		_, err := f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "shipped"})
		require.NoError(t, err)

		resp, err := f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "canceled"})
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusCanceled, resp.Status)
		assert.Equal(t, 10, f.store.stock(f.product, blackM))

		// repeating the cancel changes nothing
		_, err = f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "canceled"})
		require.NoError(t, err)
		assert.Equal(t, 10, f.store.stock(f.product, blackM))

		_, err = f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "pending"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newOrderFixture(t)
		orderID := f.order(t, f.customer, item(f.product, blackM, 1, "20"))

		_, err := f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "lost"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("missing order", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.UpdateOrderStatus(ctx, uuid.NewString(), &request.UpdateOrderStatusRequest{Status: "shipped"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOrderService_StockRoundTrip(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))
	assert.Equal(t, 7, f.store.stock(f.product, blackM))

	_, err := f.svc.CancelOrder(ctx, f.customer, orderID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.store.stock(f.product, blackM))
}

func TestOrderService_GetOrders_ScopesCustomers(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	mine := f.order(t, f.customer, item(f.product, blackM, 1, "20"))
	f.order(t, f.other, item(f.product, blackM, 1, "20"))

	page, err := f.svc.GetOrders(ctx, f.customer, &request.OrderListRequest{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, mine, page.Data[0].ID)
	assert.EqualValues(t, 1, page.Pagination.Total)
	assert.Equal(t, 10, page.Pagination.Limit)

	page, err = f.svc.GetOrders(ctx, f.admin, &request.OrderListRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Pagination.Total)

	page, err = f.svc.GetOrders(ctx, f.admin, &request.OrderListRequest{UserID: f.other.UserID.String()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Pagination.Total)

	_, err = f.svc.CancelOrder(ctx, f.customer, mine)
	require.NoError(t, err)
	page, err = f.svc.GetOrders(ctx, f.admin, &request.OrderListRequest{Status: "canceled"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, mine, page.Data[0].ID)

	_, err = f.svc.GetOrders(ctx, f.customer, &request.OrderListRequest{UserID: f.other.UserID.String()})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetOrders(ctx, f.admin, &request.OrderListRequest{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOrderService_GetOrderByID_Ownership(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	orderID := f.order(t, f.customer, item(f.product, blackM, 1, "20"))

	_, err := f.svc.GetOrderByID(ctx, f.customer, orderID)
	assert.NoError(t, err)

	_, err = f.svc.GetOrderByID(ctx, f.admin, orderID)
	assert.NoError(t, err)

	_, err = f.svc.GetOrderByID(ctx, f.other, orderID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetOrderByID(ctx, f.admin, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_ItemMutations(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))

	added := item(f.product, whiteL, 1, "25")
	resp, err := f.svc.AddItem(ctx, f.customer, orderID, &added)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	// list mutations touch neither the total nor the stock
	assert.True(t, decimal.NewFromInt(60).Equal(resp.Total))
	assert.Equal(t, 4, f.store.stock(f.product, whiteL))

	resp, err = f.svc.UpdateItemQuantity(ctx, f.customer, orderID, f.product.String(), &request.UpdateQuantityRequest{Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Items[0].Quantity)
	assert.Equal(t, 1, resp.Items[1].Quantity)

	_, err = f.svc.UpdateItemQuantity(ctx, f.customer, orderID, f.product.String(), &request.UpdateQuantityRequest{Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	resp, err = f.svc.RemoveItem(ctx, f.customer, orderID, f.product.String())
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	_, err = f.svc.RemoveItem(ctx, f.customer, orderID, f.product.String())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.UpdateItemQuantity(ctx, f.customer, orderID, uuid.NewString(), &request.UpdateQuantityRequest{Quantity: 2})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.AddItem(ctx, f.other, orderID, &added)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestOrderService_ItemMutations_RequirePending(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))

	_, err := f.svc.UpdateOrderStatus(ctx, orderID, &request.UpdateOrderStatusRequest{Status: "shipped"})
	require.NoError(t, err)

	added := item(f.product, whiteL, 1, "25")
	_, err = f.svc.AddItem(ctx, f.customer, orderID, &added)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.RemoveItem(ctx, f.customer, orderID, f.product.String())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.UpdateItemQuantity(ctx, f.customer, orderID, f.product.String(), &request.UpdateQuantityRequest{Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	orderID := f.order(t, f.customer, item(f.product, blackM, 3, "20"))

	require.NoError(t, f.svc.DeleteOrder(ctx, orderID))
	assert.Zero(t, f.store.orderCount())
	// deleting does not give stock back
	assert.Equal(t, 7, f.store.stock(f.product, blackM))

	assert.ErrorIs(t, f.svc.DeleteOrder(ctx, orderID), ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteOrder(ctx, "bad"), ErrInvalidArgument)
}
