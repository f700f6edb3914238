// Package storage opens the order store named by a connection string.
package storage

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/zexario/zexario-backend/internal/domain/order"
	"github.com/zexario/zexario-backend/internal/storage/mongo"
	"github.com/zexario/zexario-backend/internal/storage/postgres"
)

// Backend kinds reported by Store.Kind.
const (
	KindMongo       = "mongodb"
	KindPostgres    = "postgres"
	KindUnavailable = "unavailable"
)

// ErrNoURI is returned by Open when no connection string is configured.
var ErrNoURI = errors.New("storage URI is not set")

// Store is an opened order store.
type Store struct {
	Orders order.Repository
	Kind   string

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks that the backing server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open selects a backend from the URI scheme. Neither driver dials here,
// so a reachable server is not required for Open to succeed.
func Open(ctx context.Context, uri string, connectTimeout time.Duration) (*Store, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, ErrNoURI
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrap(err, "parse storage URI")
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		c, err := mongo.Connect(ctx, uri, connectTimeout)
		if err != nil {
			return nil, errors.Wrap(err, "mongodb")
		}
		return &Store{
			Orders: c.Orders(),
			Kind:   KindMongo,
			ping:   c.Ping,
			close:  c.Close,
		}, nil
	case "postgres", "postgresql":
		pool, err := postgres.NewPool(ctx, uri, connectTimeout)
		if err != nil {
			return nil, errors.Wrap(err, "postgres")
		}
		return &Store{
			Orders: postgres.NewOrderRepository(pool),
			Kind:   KindPostgres,
			ping:   pool.Ping,
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil
	default:
		return nil, errors.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}

// Unavailable returns a Store whose every operation fails with cause.
// It keeps the server up when the configured store cannot be opened.
func Unavailable(cause error) *Store {
	err := errors.Wrap(cause, "storage unavailable")
	return &Store{
		Orders: unavailableRepo{err: err},
		Kind:   KindUnavailable,
		ping: func(context.Context) error {
			return err
		},
	}
}

type unavailableRepo struct {
	err error
}

func (r unavailableRepo) Create(context.Context, *order.Order) error {
	return r.err
}
