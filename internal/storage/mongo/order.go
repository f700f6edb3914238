package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zexario/zexario-backend/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// orderDocument is the stored shape of an order. Contact fields that were
// not submitted are omitted; submitted empty strings are stored.
type orderDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          *string            `bson:"name,omitempty"`
	Email         *string            `bson:"email,omitempty"`
	Phone         *string            `bson:"phone,omitempty"`
	Address       *string            `bson:"address,omitempty"`
	City          *string            `bson:"city,omitempty"`
	PaymentMethod *string            `bson:"paymentMethod,omitempty"`
	Cart          []any              `bson:"cart"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

// OrderRepository implements order.Repository on a MongoDB collection.
type OrderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository returns an OrderRepository writing to coll.
func NewOrderRepository(coll *mongo.Collection) *OrderRepository {
	return &OrderRepository{coll: coll}
}

// Create inserts o as a single document and sets o.ID to the hex ObjectID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	doc := orderDocument{
		ID:            primitive.NewObjectID(),
		Name:          o.Name,
		Email:         o.Email,
		Phone:         o.Phone,
		Address:       o.Address,
		City:          o.City,
		PaymentMethod: o.PaymentMethod,
		Cart:          o.Cart,
		CreatedAt:     o.CreatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert order")
	}

	o.ID = doc.ID.Hex()
	return nil
}
