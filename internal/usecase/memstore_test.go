package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"clothing-store/internal/data/entity"
	"clothing-store/internal/data/repository"

	"github.com/google/uuid"
)

// memStore is an in-memory store with the same conditional update semantics as
// the SQL repositories: decrements check stock, status updates compare-and-swap,
// item mutations require a pending order.
type memStore struct {
	mu sync.Mutex
	// txMu serializes transactions the way row locks would.
	txMu       sync.Mutex
	users      map[uuid.UUID]entity.User
	categories map[uuid.UUID]entity.Category
	products   map[uuid.UUID]entity.Product
	orders     map[uuid.UUID]entity.Order

	// beforeDecrement runs outside the lock just before a decrement is applied.
	beforeDecrement func(productID uuid.UUID, key entity.VariantKey)
	createOrderErr  error
	adjustErr       map[entity.VariantKey]error
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[uuid.UUID]entity.User),
		categories: make(map[uuid.UUID]entity.Category),
		products:   make(map[uuid.UUID]entity.Product),
		orders:     make(map[uuid.UUID]entity.Order),
	}
}

func (s *memStore) repository() *repository.Repository {
	return s.bound(nil)
}

// transactional returns a repository whose RunInTx discards every stock and
// order write of a failed callback.
func (s *memStore) transactional() *repository.Repository {
	repo := s.bound(nil)
	repo.Tx = memTransactor{s}
	return repo
}

func (s *memStore) bound(tx *memTx) *repository.Repository {
	return &repository.Repository{
		User:     memUserRepo{s},
		Category: memCategoryRepo{s},
		Product:  memProductRepo{s: s, tx: tx},
		Order:    memOrderRepo{s: s, tx: tx},
	}
}

// memTx collects the inverse of every write made through it. Entries are added
// and replayed with mu held.
type memTx struct {
	undo []func()
}

func (tx *memTx) record(fn func()) {
	if tx != nil {
		tx.undo = append(tx.undo, fn)
	}
}

type memTransactor struct{ s *memStore }

func (t memTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo *repository.Repository) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	tx := &memTx{}
	if err := fn(ctx, t.s.bound(tx)); err != nil {
		t.s.mu.Lock()
		defer t.s.mu.Unlock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// variant must be called with mu held.
func (s *memStore) variant(productID uuid.UUID, key entity.VariantKey) *entity.Variant {
	p, ok := s.products[productID]
	if !ok {
		return nil
	}
	return p.FindVariant(key)
}

func (s *memStore) stock(productID uuid.UUID, key entity.VariantKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	if v := p.FindVariant(key); v != nil {
		return v.Stock
	}
	return -1
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func cloneProduct(p entity.Product) *entity.Product {
	p.Variants = append([]entity.Variant(nil), p.Variants...)
	return &p
}

func cloneOrder(o entity.Order) *entity.Order {
	o.Items = append([]entity.OrderItem(nil), o.Items...)
	return &o
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type memUserRepo struct{ s *memStore }

func (r memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r memUserRepo) sorted(keep func(entity.User) bool) []*entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if keep(u) {
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (r memUserRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.User, error) {
	return page(r.sorted(func(entity.User) bool { return true }), limit, offset), nil
}

func (r memUserRepo) CountAll(context.Context) (int64, error) {
	return int64(len(r.sorted(func(entity.User) bool { return true }))), nil
}

func (r memUserRepo) FindByRole(_ context.Context, role entity.UserRole, limit, offset int) ([]*entity.User, error) {
	return page(r.sorted(func(u entity.User) bool { return u.Role == role }), limit, offset), nil
}

func (r memUserRepo) CountByRole(_ context.Context, role entity.UserRole) (int64, error) {
	return int64(len(r.sorted(func(u entity.User) bool { return u.Role == role }))), nil
}

func (r memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role entity.UserRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	r.s.users[id] = u
	return nil
}

func (r memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

type memCategoryRepo struct{ s *memStore }

func (r memCategoryRepo) Create(_ context.Context, category *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Name == category.Name {
			return repository.ErrDuplicate
		}
	}
	r.s.categories[category.ID] = *category
	return nil
}

func (r memCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r memCategoryRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.Category, error) {
	r.s.mu.Lock()
	var out []*entity.Category
	for _, c := range r.s.categories {
		out = append(out, &c)
	}
	r.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func (r memCategoryRepo) CountAll(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.categories)), nil
}

func (r memCategoryRepo) Update(_ context.Context, category *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[category.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, c := range r.s.categories {
		if id != category.ID && c.Name == category.Name {
			return repository.ErrDuplicate
		}
	}
	r.s.categories[category.ID] = *category
	return nil
}

func (r memCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.s.categories, id)
	return nil
}

type memProductRepo struct {
	s  *memStore
	tx *memTx
}

func (r memProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[product.CategoryID]; !ok {
		return repository.ErrReferenced
	}
	r.s.products[product.ID] = *cloneProduct(*product)
	return nil
}

func (r memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func matchesFilter(p entity.Product, f repository.ProductFilter) bool {
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Size == nil && f.Color == nil {
		return true
	}
	return len(matchingVariants(p.Variants, f.Size, f.Color)) > 0
}

func (r memProductRepo) filtered(f repository.ProductFilter) []*entity.Product {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.s.products {
		if matchesFilter(p, f) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r memProductRepo) FindAll(_ context.Context, f repository.ProductFilter, limit, offset int) ([]*entity.Product, error) {
	return page(r.filtered(f), limit, offset), nil
}

func (r memProductRepo) Count(_ context.Context, f repository.ProductFilter) (int64, error) {
	return int64(len(r.filtered(f))), nil
}

func (r memProductRepo) Update(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.products[product.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := *product
	updated.Variants = stored.Variants
	r.s.products[product.ID] = updated
	return nil
}

func (r memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r memProductRepo) AddVariant(_ context.Context, productID uuid.UUID, variant entity.Variant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return repository.ErrNotFound
	}
	if p.FindVariant(variant.VariantKey) != nil {
		return repository.ErrDuplicate
	}
	p.Variants = append(p.Variants, variant)
	r.s.products[productID] = p
	return nil
}

func (r memProductRepo) RemoveVariant(_ context.Context, productID uuid.UUID, key entity.VariantKey) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, v := range p.Variants {
		if v.VariantKey == key {
			p.Variants = append(p.Variants[:i:i], p.Variants[i+1:]...)
			r.s.products[productID] = p
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r memProductRepo) UpdateVariantKey(_ context.Context, productID uuid.UUID, from, to entity.VariantKey) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return repository.ErrNotFound
	}
	p = *cloneProduct(p)
	v := p.FindVariant(from)
	if v == nil {
		return repository.ErrNotFound
	}
	if p.FindVariant(to) != nil {
		return repository.ErrDuplicate
	}
	v.VariantKey = to
	r.s.products[productID] = p
	return nil
}

func (r memProductRepo) DecrementVariantStock(_ context.Context, productID uuid.UUID, key entity.VariantKey, qty int) (bool, error) {
	if hook := r.s.beforeDecrement; hook != nil {
		hook(productID, key)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v := r.s.variant(productID, key)
	if v == nil || v.Stock < qty {
		return false, nil
	}
	v.Stock -= qty
	r.tx.record(func() {
		if v := r.s.variant(productID, key); v != nil {
			v.Stock += qty
		}
	})
	return true, nil
}

func (r memProductRepo) AdjustVariantStock(_ context.Context, productID uuid.UUID, key entity.VariantKey, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.adjustErr[key]; err != nil {
		return err
	}
	v := r.s.variant(productID, key)
	if v == nil {
		return repository.ErrNotFound
	}
	if v.Stock+delta < 0 {
		return repository.ErrNegativeStock
	}
	v.Stock += delta
	r.tx.record(func() {
		if v := r.s.variant(productID, key); v != nil {
			v.Stock -= delta
		}
	})
	return nil
}

type memOrderRepo struct {
	s  *memStore
	tx *memTx
}

func (r memOrderRepo) Create(_ context.Context, order *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createOrderErr != nil {
		return r.s.createOrderErr
	}
	r.s.orders[order.ID] = *cloneOrder(*order)
	r.tx.record(func() { delete(r.s.orders, order.ID) })
	return nil
}

func (r memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r memOrderRepo) filtered(f repository.OrderFilter) []*entity.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.s.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r memOrderRepo) FindAll(_ context.Context, f repository.OrderFilter, limit, offset int) ([]*entity.Order, error) {
	return page(r.filtered(f), limit, offset), nil
}

func (r memOrderRepo) Count(_ context.Context, f repository.OrderFilter) (int64, error) {
	return int64(len(r.filtered(f))), nil
}

func (r memOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.orders, id)
	return nil
}

func (r memOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, expected, next entity.OrderStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.Status != expected {
		return false, nil
	}
	o.Status = next
	r.s.orders[id] = o
	r.tx.record(func() {
		if o, ok := r.s.orders[id]; ok {
			o.Status = expected
			r.s.orders[id] = o
		}
	})
	return true, nil
}

func (r memOrderRepo) pending(id uuid.UUID) (entity.Order, bool) {
	o, ok := r.s.orders[id]
	return o, ok && o.Status == entity.OrderStatusPending
}

func (r memOrderRepo) AppendItem(_ context.Context, orderID uuid.UUID, item entity.OrderItem) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.pending(orderID)
	if !ok {
		return false, nil
	}
	o.Items = append(append([]entity.OrderItem(nil), o.Items...), item)
	r.s.orders[orderID] = o
	return true, nil
}

func (r memOrderRepo) RemoveItems(_ context.Context, orderID, productID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.pending(orderID)
	if !ok {
		return 0, nil
	}
	var kept []entity.OrderItem
	for _, item := range o.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	removed := int64(len(o.Items) - len(kept))
	o.Items = kept
	r.s.orders[orderID] = o
	return removed, nil
}

func (r memOrderRepo) UpdateItemQuantity(_ context.Context, orderID, productID uuid.UUID, quantity int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.pending(orderID)
	if !ok {
		return false, nil
	}
	o = *cloneOrder(o)
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			o.Items[i].Quantity = quantity
			r.s.orders[orderID] = o
			return true, nil
		}
	}
	return false, nil
}

// recordingPublisher keeps the routing keys of published events.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == routingKey {
			n++
		}
	}
	return n
}

var errStoreDown = errors.New("store unavailable")
