package order

import (
	"context"
	"time"
)

// Order is a single checkout submission. Contact fields are stored as given;
// only the cart is validated. A nil contact field was not submitted and is
// left out of the stored document; an empty string is kept.
type Order struct {
	// ID is assigned by the repository on Create.
	ID            string
	Name          *string
	Email         *string
	Phone         *string
	Address       *string
	City          *string
	PaymentMethod *string
	// Cart holds opaque item values exactly as submitted: objects decode to
	// map[string]any, arrays to []any, plus string, int64, float64, bool and nil.
	Cart      []any
	CreatedAt time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores o as a new document and sets o.ID.
	Create(ctx context.Context, o *Order) error
}
