// Package handler implements the /v1 HTTP API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/aexfood/orders/internal/domain/client"
	"github.com/aexfood/orders/internal/domain/order"
	"github.com/aexfood/orders/internal/domain/product"
)

// OrderService is the order API backend.
type OrderService interface {
	CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Composed, error)
	Get(ctx context.Context, id int64) (*order.Order, error)
	Delete(ctx context.Context, id int64) error
	ListByClient(ctx context.Context, clientID int64) (*client.Client, []order.Summary, error)
}

// ClientService is the client API backend.
type ClientService interface {
	Get(ctx context.Context, id int64) (*client.Client, error)
	GetByPhone(ctx context.Context, phone string) (*client.Client, error)
	Create(ctx context.Context, name, phone string) (*client.Client, error)
	Patch(ctx context.Context, id int64, p client.Patch) (*client.Client, error)
	Delete(ctx context.Context, id int64) error
}

// ProductService is the product API backend.
type ProductService interface {
	List(ctx context.Context) ([]product.Product, error)
	Get(ctx context.Context, id int64) (*product.Product, error)
	Create(ctx context.Context, req product.CreateRequest) (*product.Product, error)
	Delete(ctx context.Context, id int64) error
}

var (
	_ OrderService   = (*order.Service)(nil)
	_ ClientService  = (*client.Service)(nil)
	_ ProductService = (*product.Service)(nil)
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// OrderTimeout bounds a single order creation, including the commit.
	// Zero means the request context alone applies.
	OrderTimeout time.Duration
}

// Handler serves the /v1 API.
type Handler struct {
	orders   OrderService
	clients  ClientService
	products ProductService

	orderTimeout time.Duration
	now          func() time.Time
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	orders OrderService,
	clients ClientService,
	products ProductService,
) *Handler {
	return &Handler{
		orders:       orders,
		clients:      clients,
		products:     products,
		orderTimeout: cfg.OrderTimeout,
		now:          time.Now,
	}
}

// Route names, used as span and log labels.
const (
	RouteCreateOrder   = "createOrder"
	RouteGetOrder      = "getOrder"
	RouteDeleteOrder   = "deleteOrder"
	RouteFindClient    = "findClient"
	RouteGetClient     = "getClient"
	RouteClientOrders  = "getClientOrders"
	RouteCreateClient  = "createClient"
	RoutePatchClient   = "patchClient"
	RouteDeleteClient  = "deleteClient"
	RouteListProducts  = "listProducts"
	RouteGetProduct    = "getProduct"
	RouteCreateProduct = "createProduct"
	RouteDeleteProduct = "deleteProduct"
)

// Register mounts the API routes on r.
func (h *Handler) Register(r *mux.Router) {
	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/order/create_order", h.createOrder).Methods(http.MethodPost).Name(RouteCreateOrder)
	v1.HandleFunc("/order/{id}", h.getOrder).Methods(http.MethodGet).Name(RouteGetOrder)
	v1.HandleFunc("/order/{id}", h.deleteOrder).Methods(http.MethodDelete).Name(RouteDeleteOrder)

	v1.HandleFunc("/client", h.findClient).Methods(http.MethodGet).Name(RouteFindClient)
	v1.HandleFunc("/client", h.createClient).Methods(http.MethodPost).Name(RouteCreateClient)
	v1.HandleFunc("/client/{id}", h.getClient).Methods(http.MethodGet).Name(RouteGetClient)
	v1.HandleFunc("/client/{id}", h.patchClient).Methods(http.MethodPatch).Name(RoutePatchClient)
	v1.HandleFunc("/client/{id}", h.deleteClient).Methods(http.MethodDelete).Name(RouteDeleteClient)
	v1.HandleFunc("/client/{id}/orders", h.clientOrders).Methods(http.MethodGet).Name(RouteClientOrders)

	v1.HandleFunc("/product", h.listProducts).Methods(http.MethodGet).Name(RouteListProducts)
	v1.HandleFunc("/product", h.createProduct).Methods(http.MethodPost).Name(RouteCreateProduct)
	v1.HandleFunc("/product/{id}", h.getProduct).Methods(http.MethodGet).Name(RouteGetProduct)
	v1.HandleFunc("/product/{id}", h.deleteProduct).Methods(http.MethodDelete).Name(RouteDeleteProduct)

	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)
}

// RouteName returns the name of the matched route, or "" outside the router.
func RouteName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		return route.GetName()
	}
	return ""
}

// pathID parses the {id} path variable. Invalid ids are reported as a field
// violation.
func pathID(r *http.Request) (int64, error) {
	var fe fields
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		fe.add("id", errPositiveInteger)
	}
	return id, fe.err()
}

func (h *Handler) timestamp() string {
	return h.now().UTC().Format(timestampLayout)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		Method:    r.Method,
		Status:    http.StatusNotFound,
		ThrownBy:  "Router",
		Message:   "no route for " + r.URL.Path,
		Path:      r.URL.Path,
		Timestamp: h.timestamp(),
	}.encode)
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{
		Method:    r.Method,
		Status:    http.StatusMethodNotAllowed,
		ThrownBy:  "Router",
		Message:   r.Method + " not allowed on " + r.URL.Path,
		Path:      r.URL.Path,
		Timestamp: h.timestamp(),
	}.encode)
}
