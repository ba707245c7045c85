//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/aexfood/orders/internal/app"
)

var (
	baseURL    string
	httpClient *http.Client

	// Seeded fixtures.
	burgerID int64 // 20.00, LANCHE
	colaID   int64 // 6.00, BEBIDA
	clientID int64
)

// Response types are declared here so the suite only sees the wire format.

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type productResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    *string `json:"category"`
}

type clientResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type errorResponse struct {
	HTTPMethod    string `json:"httpMethod"`
	Status        int    `json:"status"`
	Error         string `json:"error"`
	Path          string `json:"path"`
	ThrownByClass string `json:"thrownByClass"`
	Message       string `json:"message"`
	Timestamp     string `json:"timestamp"`
}

type selection struct {
	ProductID          int64 `json:"productId"`
	Quantity           int   `json:"quantity"`
	DiscountPercentage int   `json:"discountPercentage"`
}

type createOrderRequest struct {
	ClientID         int64       `json:"clientId"`
	SelectedProducts []selection `json:"selectedProducts"`
}

type createOrderResponse struct {
	ClientID         int64       `json:"clientId"`
	OrderID          int64       `json:"orderId"`
	Status           string      `json:"status"`
	Total            float64     `json:"total"`
	CreatedAt        time.Time   `json:"createdAt"`
	SelectedProducts []selection `json:"selectedProducts"`
}

type orderResponse struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"clientId"`
	Status    string    `json:"status"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
	Items     []struct {
		ID        int64   `json:"id"`
		ProductID int64   `json:"productId"`
		Quantity  int     `json:"quantity"`
		UnitPrice float64 `json:"unitPrice"`
		Subtotal  float64 `json:"subtotal"`
	} `json:"items"`
}

type clientOrdersResponse struct {
	Client struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"client"`
	Orders []struct {
		ID        int64   `json:"id"`
		ClientID  int64   `json:"clientId"`
		Status    string  `json:"status"`
		Total     float64 `json:"total"`
		ItemCount int     `json:"itemCount"`
	} `json:"orders"`
}

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "aex",
				"POSTGRES_PASSWORD": "aex",
				"POSTGRES_DB":       "aex",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = pg.Terminate(context.Background()) }()

	host, err := pg.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	addr, err := freeAddr()
	if err != nil {
		log.Fatalf("free port: %v", err)
	}

	cfg := &app.Config{
		Addr:         addr,
		DatabaseURL:  fmt.Sprintf("postgres://aex:aex@%s:%s/aex?sslmode=disable", host, port.Port()),
		OrderTimeout: 10 * time.Second,
		RateLimit:    app.RateLimitConfig{Max: 10000, Window: time.Minute},
		CORS:         app.CORSConfig{Origins: []string{"*"}},
		Graceful:     app.GracefulConfig{ShutdownTimeout: 10 * time.Second},
	}

	appCtx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(appCtx, zap.NewNop(), noopTelemetry{}, cfg) }()

	baseURL = "http://" + addr
	httpClient = &http.Client{Timeout: 10 * time.Second}

	if err := waitReady(ctx, done); err != nil {
		stop()
		log.Fatalf("wait for api: %v", err)
	}
	log.Printf("API available at %s", baseURL)

	if err := seed(); err != nil {
		stop()
		log.Fatalf("seed: %v", err)
	}

	result := m.Run()

	stop()
	if err := <-done; err != nil {
		log.Printf("api: %v", err)
	}
	return result
}

func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}

// waitReady polls /readyz until the server reports ready or Run exits.
func waitReady(ctx context.Context, done <-chan error) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var lastErr string
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for readiness (last: %s): %w", lastErr, ctx.Err())
		case err := <-done:
			return fmt.Errorf("api exited early: %v", err)
		case <-ticker.C:
			resp, err := httpClient.Get(baseURL + "/readyz")
			if err != nil {
				lastErr = err.Error()
				continue
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			lastErr = fmt.Sprintf("status %d", resp.StatusCode)
		}
	}
}

// seed creates the fixtures through the public API.
func seed() error {
	create := func(path string, body, out any) error {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		resp, err := httpClient.Post(baseURL+path, "application/json", bytes.NewReader(data))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("POST %s: status %d", path, resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	var p productResponse
	if err := create("/v1/product", map[string]any{
		"name": "X-Burger", "description": "Bun, beef patty and cheese", "price": "20.00", "category": "LANCHE",
	}, &p); err != nil {
		return err
	}
	burgerID = p.ID

	if err := create("/v1/product", map[string]any{
		"name": "Cola", "description": "350 ml can", "price": 6, "category": "BEBIDA",
	}, &p); err != nil {
		return err
	}
	colaID = p.ID

	var c clientResponse
	if err := create("/v1/client", map[string]any{"name": "Ana Souza", "phone": "11987654321"}, &c); err != nil {
		return err
	}
	clientID = c.ID
	return nil
}

// HTTP helpers.

func do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, rd)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	return resp
}

func doGet(t *testing.T, path string) *http.Response {
	t.Helper()
	return do(t, http.MethodGet, path, nil)
}

func doPost(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	return do(t, http.MethodPost, path, body)
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d", want, resp.StatusCode)
	}
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	return v
}
