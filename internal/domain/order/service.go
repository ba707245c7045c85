package order

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aexfood/orders/internal/domain/apperr"
	"github.com/aexfood/orders/internal/domain/client"
	"github.com/aexfood/orders/internal/domain/pricing"
	"github.com/aexfood/orders/internal/domain/product"
)

// lookupConcurrency bounds parallel product lookups per order.
const lookupConcurrency = 8

const instrumentationName = "github.com/aexfood/orders/internal/domain/order"

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	now            func() time.Time
}

// Option configures a Service.
type Option func(*options)

// WithTracerProvider sets the tracer provider used for composer spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider used for order metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithClock overrides the clock used for order timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Service composes, reads and deletes orders.
type Service struct {
	clients  client.Repository
	products product.Repository
	gateway  Gateway
	orders   Repository

	now    func() time.Time
	tracer trace.Tracer

	created  metric.Int64Counter
	rejected metric.Int64Counter
	duration metric.Float64Histogram
}

// NewService creates an order Service.
func NewService(
	clients client.Repository,
	products product.Repository,
	gateway Gateway,
	orders Repository,
	opts ...Option,
) (*Service, error) {
	o := options{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	created, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Orders committed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.created counter")
	}
	rejected, err := meter.Int64Counter("orders.rejected",
		metric.WithDescription("Order creations that failed, by error kind"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.rejected counter")
	}
	duration, err := meter.Float64Histogram("orders.create.duration",
		metric.WithDescription("Order creation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.create.duration histogram")
	}

	return &Service{
		clients:  clients,
		products: products,
		gateway:  gateway,
		orders:   orders,
		now:      o.now,
		tracer:   o.tracerProvider.Tracer(instrumentationName),
		created:  created,
		rejected: rejected,
		duration: duration,
	}, nil
}

// CreateOrder resolves the client and every selected product, prices the
// items at their current catalog price minus the requested discount and
// persists the order with its items in one unit of work. Nothing is written
// unless every reference resolves; a failure at any write step or an expired
// deadline rolls the whole order back.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (_ *Composed, rerr error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder",
		trace.WithAttributes(
			attribute.Int64("order.client_id", req.ClientID),
			attribute.Int("order.items", len(req.Items)),
		),
	)
	defer func() {
		s.duration.Record(ctx, time.Since(start).Seconds())
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, "create order failed")
			s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", errorKind(rerr))))
		}
		span.End()
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.clients.GetByID(ctx, req.ClientID); err != nil {
		return nil, errors.Wrap(err, "resolve client")
	}

	products, err := s.resolveProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ClientID:  req.ClientID,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
		Items:     make([]Item, len(req.Items)),
	}
	lines := make([]pricing.Line, len(req.Items))
	for i, sel := range req.Items {
		unit, err := pricing.DiscountedUnitPrice(products[sel.ProductID].Price, sel.DiscountPercentage)
		if err != nil {
			return nil, apperr.InvalidArgument(fmt.Sprintf("items[%d].discountPercentage", i), err.Error())
		}
		o.Items[i] = Item{
			ProductID: sel.ProductID,
			Quantity:  sel.Quantity,
			UnitPrice: unit,
		}
		lines[i] = pricing.Line{UnitPrice: unit, Quantity: sel.Quantity}
	}
	o.Total = pricing.OrderTotal(lines)
	if !pricing.WithinLimit(o.Total) {
		return nil, apperr.InvalidArgument("items", "order total must be at most "+pricing.MaxAmount.StringFixed(pricing.Scale))
	}

	if err := s.persist(ctx, o); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", o.ID))
	s.created.Add(ctx, 1)
	zctx.From(ctx).Info("Order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("client_id", o.ClientID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("items", len(o.Items)),
	)

	return &Composed{
		OrderID:   o.ID,
		ClientID:  o.ClientID,
		Status:    o.Status,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		Items:     slices.Clone(req.Items),
	}, nil
}

// Get returns the order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// Delete removes the order and its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete order")
	}
	return nil
}

// ListByClient returns the orders of an existing client, newest first.
func (s *Service) ListByClient(ctx context.Context, clientID int64) (*client.Client, []Summary, error) {
	c, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get client")
	}
	list, err := s.orders.ListByClient(ctx, clientID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "list orders")
	}
	if list == nil {
		list = []Summary{}
	}
	return c, list, nil
}

// validateRequest checks the request shape before any lookup. All
// violations are reported together.
func validateRequest(req CreateRequest) error {
	var inv apperr.InvalidArgumentError
	if len(req.Items) == 0 {
		inv.Add("items", "must not be empty")
	}
	for i, sel := range req.Items {
		switch {
		case sel.Quantity <= 0:
			inv.Add(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
		case sel.Quantity > pricing.MaxQuantity:
			inv.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("must be at most %d", pricing.MaxQuantity))
		}
		if sel.DiscountPercentage < pricing.MinDiscount || sel.DiscountPercentage > pricing.MaxDiscount {
			inv.Add(fmt.Sprintf("items[%d].discountPercentage", i), "must be between 0 and 100")
		}
	}
	return inv.OrNil()
}

// resolveProducts looks up every distinct product in parallel. The first
// failure cancels the remaining lookups.
func (s *Service) resolveProducts(ctx context.Context, items []Selection) (map[int64]*product.Product, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, sel := range items {
		if _, ok := seen[sel.ProductID]; ok {
			continue
		}
		seen[sel.ProductID] = struct{}{}
		ids = append(ids, sel.ProductID)
	}

	found := make([]*product.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.products.GetByID(gctx, id)
			if err != nil {
				return errors.Wrapf(err, "resolve product %d", id)
			}
			found[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[int64]*product.Product, len(ids))
	for i, id := range ids {
		byID[id] = found[i]
	}
	return byID, nil
}

func (s *Service) persist(ctx context.Context, o *Order) (rerr error) {
	uow, err := s.gateway.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin unit of work")
	}
	defer func() {
		if rerr == nil {
			return
		}
		// The caller's context may already be done; rollback must still run.
		if err := uow.Rollback(context.WithoutCancel(ctx)); err != nil {
			zctx.From(ctx).Warn("Rollback failed", zap.Error(err))
		}
	}()

	id, err := uow.SaveOrder(ctx, o)
	if err != nil {
		return errors.Wrap(err, "save order")
	}
	o.ID = id
	for i := range o.Items {
		o.Items[i].OrderID = id
	}

	if err := uow.SaveItems(ctx, id, o.Items); err != nil {
		return errors.Wrap(err, "save items")
	}
	if err := uow.SaveEvent(ctx, createdEvent(o)); err != nil {
		return errors.Wrap(err, "save event")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "before commit")
	}
	if err := uow.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

func errorKind(err error) string {
	switch {
	case apperr.IsNotFound(err, ""):
		return "not_found"
	case apperr.IsInvalidArgument(err):
		return "invalid_argument"
	case apperr.IsIntegrity(err):
		return "integrity"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "storage"
	}
}
