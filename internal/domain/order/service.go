package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ErrEmptyCart is returned when an order is submitted without cart items.
var ErrEmptyCart = errors.New("cart is empty")

const instrumentationName = "github.com/zexario/zexario-backend/internal/domain/order"

// PlaceOrderRequest holds the input for placing an order.
// Contact fields are nil when absent from the submission.
type PlaceOrderRequest struct {
	Name          *string
	Email         *string
	Phone         *string
	Address       *string
	City          *string
	PaymentMethod *string
	Cart          []any
}

// ServiceConfig holds non-dependency configuration for the Service.
type ServiceConfig struct {
	// WriteTimeout bounds a single repository write. Zero means the request
	// context alone decides.
	WriteTimeout time.Duration

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider

	// Now overrides the clock used for CreatedAt. Defaults to time.Now.
	Now func() time.Time
}

// Service encapsulates order placement.
type Service struct {
	orders       Repository
	writeTimeout time.Duration
	now          func() time.Time
	tracer       trace.Tracer

	placed   metric.Int64Counter
	rejected metric.Int64Counter
	failed   metric.Int64Counter
}

// NewService creates an order Service persisting through orders.
func NewService(orders Repository, cfg ServiceConfig) (*Service, error) {
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Service{
		orders:       orders,
		writeTimeout: cfg.WriteTimeout,
		now:          cfg.Now,
		tracer:       cfg.TracerProvider.Tracer(instrumentationName),
	}

	meter := cfg.MeterProvider.Meter(instrumentationName)
	var err error
	if s.placed, err = meter.Int64Counter("zexario.orders.placed",
		metric.WithDescription("Orders persisted successfully"),
	); err != nil {
		return nil, errors.Wrap(err, "placed counter")
	}
	if s.rejected, err = meter.Int64Counter("zexario.orders.rejected",
		metric.WithDescription("Orders rejected before persistence"),
	); err != nil {
		return nil, errors.Wrap(err, "rejected counter")
	}
	if s.failed, err = meter.Int64Counter("zexario.orders.failed",
		metric.WithDescription("Orders that failed to persist"),
	); err != nil {
		return nil, errors.Wrap(err, "failed counter")
	}

	return s, nil
}

// Place validates the cart, stamps the order with the current time and
// persists it with a single repository write. Failed writes are not retried.
func (s *Service) Place(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Place")
	defer span.End()

	if len(req.Cart) == 0 {
		s.rejected.Add(ctx, 1)
		span.SetStatus(codes.Error, ErrEmptyCart.Error())
		return nil, ErrEmptyCart
	}
	span.SetAttributes(attribute.Int("order.cart_items", len(req.Cart)))

	o := &Order{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		PaymentMethod: req.PaymentMethod,
		Cart:          req.Cart,
		CreatedAt:     s.now(),
	}

	writeCtx := ctx
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}

	if err := s.orders.Create(writeCtx, o); err != nil {
		s.failed.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order")
		return nil, errors.Wrap(err, "create order")
	}

	s.placed.Add(ctx, 1)
	span.SetAttributes(attribute.String("order.id", o.ID))
	return o, nil
}
