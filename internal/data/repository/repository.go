package repository

import (
	"context"
	"errors"

	"clothing-store/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate key")
	ErrNegativeStock = errors.New("stock cannot be negative")
	ErrReferenced    = errors.New("record is still referenced")
)

type Repository struct {
	User     UserRepository
	Category CategoryRepository
	Product  ProductRepository
	Order    OrderRepository
	Stats    StatsRepository

	// Tx is nil when transactions are disabled; RunInTx then runs on the pool.
	Tx Transactor
}

// Transactor runs fn against a Repository bound to a single transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) error
}

type Option func(*options)

type options struct {
	txEnabled bool
	txOpts    []database.TxOption
}

// WithTransactions toggles transactional grouping of multi-statement operations.
func WithTransactions(enabled bool, opts ...database.TxOption) Option {
	return func(o *options) {
		o.txEnabled = enabled
		o.txOpts = append(o.txOpts, opts...)
	}
}

func NewRepository(db database.PgxIface, log *zap.Logger, opts ...Option) *Repository {
	cfg := options{txEnabled: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo := newRepository(db, log, false)
	if cfg.txEnabled {
		repo.Tx = &pgxTransactor{db: db, log: log, opts: cfg.txOpts}
	}
	return repo
}

func newRepository(q database.Querier, log *zap.Logger, inTx bool) *Repository {
	return &Repository{
		User:     NewUserRepository(q, log),
		Category: NewCategoryRepository(q, log),
		Product:  newProductRepository(q, log, inTx),
		Order:    newOrderRepository(q, log, inTx),
		Stats:    NewStatsRepository(q, log),
	}
}

// RunInTx runs fn inside a transaction when one is configured, otherwise directly
// against r. Nested calls on a tx-bound Repository reuse the open transaction.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) error {
	if r.Tx == nil {
		return fn(ctx, r)
	}
	return r.Tx.WithinTransaction(ctx, fn)
}

type pgxTransactor struct {
	db   database.PgxIface
	log  *zap.Logger
	opts []database.TxOption
}

func (t *pgxTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) error {
	return database.RunInTx(ctx, t.db, func(ctx context.Context, q database.Querier) error {
		return fn(ctx, newRepository(q, t.log, true))
	}, t.opts...)
}

const stockConstraint = "product_variants_stock_non_negative"

// translate tags driver errors with the package sentinels, keeping the original
// *pgconn.PgError reachable for errors.As.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case database.CodeUniqueViolation:
		return errors.Join(ErrDuplicate, err)
	case database.CodeCheckViolation:
		if pgErr.ConstraintName == stockConstraint {
			return errors.Join(ErrNegativeStock, err)
		}
	case database.CodeForeignKeyViolation:
		return errors.Join(ErrReferenced, err)
	}
	return err
}
