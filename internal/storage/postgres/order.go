package postgres

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zexario/zexario-backend/internal/domain/order"
)

const createOrderSQL = `INSERT INTO orders (id, document, created_at) VALUES ($1, $2, $3)`

var _ order.Repository = (*OrderRepository)(nil)

// orderDocument is the JSONB shape of an order; keys match the MongoDB
// backend.
type orderDocument struct {
	Name          *string   `json:"name,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Address       *string   `json:"address,omitempty"`
	City          *string   `json:"city,omitempty"`
	PaymentMethod *string   `json:"paymentMethod,omitempty"`
	Cart          []any     `json:"cart"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OrderRepository implements order.Repository backed by PostgreSQL.
//
// The schema is applied on the first successful write rather than at
// startup, so a database that comes up after the service still works.
type OrderRepository struct {
	pool *pgxpool.Pool

	mu       sync.Mutex
	migrated bool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) ensureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.migrated {
		return nil
	}
	if err := RunMigrations(ctx, r.pool); err != nil {
		return err
	}
	r.migrated = true
	return nil
}

// Create inserts o as one row and sets o.ID to a new UUID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}

	document, err := json.Marshal(orderDocument{
		Name:          o.Name,
		Email:         o.Email,
		Phone:         o.Phone,
		Address:       o.Address,
		City:          o.City,
		PaymentMethod: o.PaymentMethod,
		Cart:          o.Cart,
		CreatedAt:     o.CreatedAt,
	})
	if err != nil {
		return errors.Wrap(err, "marshal order")
	}

	id := uuid.New()
	if _, err := r.pool.Exec(ctx, createOrderSQL, id, document, o.CreatedAt); err != nil {
		return errors.Wrapf(err, "insert order %s", id)
	}

	o.ID = id.String()
	return nil
}
