// Package mongo stores orders in a MongoDB collection.
package mongo

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultDatabase is used when the connection string names no database.
	DefaultDatabase = "test"
	// OrdersCollection holds one document per order.
	OrdersCollection = "orders"
)

// Client wraps a driver client bound to one database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect creates a client for uri. The driver connects lazily, so an
// unreachable server is not an error here; it surfaces on Ping or on the
// first write.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("zexario-api")
	if timeout > 0 {
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}

	return &Client{
		client: client,
		db:     client.Database(databaseFromURI(uri)),
	}, nil
}

// Ping checks that a primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrap(err, "ping")
	}
	return nil
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "disconnect")
	}
	return nil
}

// Orders returns the order repository backed by this client.
func (c *Client) Orders() *OrderRepository {
	return NewOrderRepository(c.db.Collection(OrdersCollection))
}

// databaseFromURI extracts the database path segment of a MongoDB
// connection string, e.g. "shop" from "mongodb://h1,h2/shop?replicaSet=rs".
func databaseFromURI(uri string) string {
	_, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return DefaultDatabase
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	_, path, ok := strings.Cut(rest, "/")
	if !ok || path == "" {
		return DefaultDatabase
	}
	return path
}
