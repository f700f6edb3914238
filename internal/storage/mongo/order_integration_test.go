//go:build integration

package mongo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zexario/zexario-backend/internal/domain/order"
)

func startMongo(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate mongo: %v", err)
		}
	})

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	c, err := Connect(ctx, uri, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	require.NoError(t, c.Ping(ctx))
	return c
}

func TestOrderRepository_Create(t *testing.T) {
	c := startMongo(t)
	ctx := context.Background()
	repo := c.Orders()

	createdAt := time.Date(2026, 10, 16, 9, 30, 15, 123456789, time.UTC)
	o := &order.Order{
		Name:          ptr("A"),
		Email:         ptr("a@b.com"),
		Phone:         ptr("123"),
		Address:       ptr("X"),
		City:          ptr("Y"),
		PaymentMethod: ptr("cod"),
		Cart:          []any{map[string]any{"sku": "1", "qty": int64(1)}, "gift-card"},
		CreatedAt:     createdAt,
	}
	require.NoError(t, repo.Create(ctx, o))
	require.NotEmpty(t, o.ID)

	oid, err := primitive.ObjectIDFromHex(o.ID)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc))

	assert.Equal(t, "A", doc["name"])
	assert.Equal(t, "a@b.com", doc["email"])
	assert.Equal(t, "123", doc["phone"])
	assert.Equal(t, "X", doc["address"])
	assert.Equal(t, "Y", doc["city"])
	assert.Equal(t, "cod", doc["paymentMethod"])
	assert.Len(t, doc, 9, "document holds exactly the order fields plus _id")

	cart, ok := doc["cart"].(bson.A)
	require.True(t, ok)
	require.Len(t, cart, 2)
	raw, err := bson.Marshal(cart[0])
	require.NoError(t, err)
	var item struct {
		SKU string `bson:"sku"`
		Qty int64  `bson:"qty"`
	}
	require.NoError(t, bson.Unmarshal(raw, &item))
	assert.Equal(t, "1", item.SKU)
	assert.Equal(t, int64(1), item.Qty)
	assert.Equal(t, "gift-card", cart[1])

	stored, ok := doc["createdAt"].(primitive.DateTime)
	require.True(t, ok)
	assert.True(t, stored.Time().Equal(createdAt.Truncate(time.Millisecond)))

	n, err := repo.coll.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOrderRepository_OmitsAbsentContactFields(t *testing.T) {
	c := startMongo(t)
	ctx := context.Background()
	repo := c.Orders()

	o := &order.Order{City: ptr(""), Cart: []any{"sku-1"}, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, o))

	oid, err := primitive.ObjectIDFromHex(o.ID)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc))
	assert.NotContains(t, doc, "name")
	assert.NotContains(t, doc, "paymentMethod")
	assert.Equal(t, "", doc["city"], "submitted empty string is stored")
	assert.Contains(t, doc, "cart")
	assert.Contains(t, doc, "createdAt")
}

func TestOrderRepository_ConcurrentCreates(t *testing.T) {
	c := startMongo(t)
	ctx := context.Background()
	repo := c.Orders()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, &order.Order{Cart: []any{int64(i)}, CreatedAt: time.Now()})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := repo.coll.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, n, count)
}

func ptr(s string) *string {
	return &s
}
