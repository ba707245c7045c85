//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func placeOrder(t *testing.T, req createOrderRequest) createOrderResponse {
	t.Helper()

	resp := doPost(t, "/v1/order/create_order", req)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	return decodeJSON[createOrderResponse](t, resp)
}

func TestCreateOrder_Discounts(t *testing.T) {
	order := placeOrder(t, createOrderRequest{
		ClientID: clientID,
		SelectedProducts: []selection{
			{ProductID: burgerID, Quantity: 2, DiscountPercentage: 10}, // 2x 18.00
			{ProductID: colaID, Quantity: 1},                           // 1x 6.00
		},
	})

	if order.Total != 42 {
		t.Errorf("total: got %v, want 42", order.Total)
	}
	if order.Status != "PENDENTE" {
		t.Errorf("status: got %q, want PENDENTE", order.Status)
	}
	if order.ClientID != clientID {
		t.Errorf("clientId: got %d, want %d", order.ClientID, clientID)
	}
	if order.OrderID <= 0 {
		t.Errorf("orderId: got %d", order.OrderID)
	}
	if len(order.SelectedProducts) != 2 {
		t.Fatalf("expected 2 selections echoed, got %d", len(order.SelectedProducts))
	}
	if order.SelectedProducts[0].DiscountPercentage != 10 {
		t.Errorf("discount echoed: got %d", order.SelectedProducts[0].DiscountPercentage)
	}
	if order.CreatedAt.IsZero() {
		t.Error("createdAt is empty")
	}
}

func TestCreateOrder_FullDiscount(t *testing.T) {
	order := placeOrder(t, createOrderRequest{
		ClientID:         clientID,
		SelectedProducts: []selection{{ProductID: colaID, Quantity: 3, DiscountPercentage: 100}},
	})

	if order.Total != 0 {
		t.Errorf("total: got %v, want 0", order.Total)
	}
}

func TestGetOrder(t *testing.T) {
	created := placeOrder(t, createOrderRequest{
		ClientID:         clientID,
		SelectedProducts: []selection{{ProductID: burgerID, Quantity: 3, DiscountPercentage: 15}}, // 3x 17.00
	})

	resp := doGet(t, fmt.Sprintf("/v1/order/%d", created.OrderID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	order := decodeJSON[orderResponse](t, resp)
	if order.Total != 51 {
		t.Errorf("total: got %v, want 51", order.Total)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.UnitPrice != 17 {
		t.Errorf("unitPrice: got %v, want 17", item.UnitPrice)
	}
	if item.Subtotal != 51 {
		t.Errorf("subtotal: got %v, want 51", item.Subtotal)
	}
	if item.ProductID != burgerID || item.Quantity != 3 {
		t.Errorf("item: got %+v", item)
	}
}

func TestDeleteOrder(t *testing.T) {
	created := placeOrder(t, createOrderRequest{
		ClientID:         clientID,
		SelectedProducts: []selection{{ProductID: colaID, Quantity: 1}},
	})
	path := fmt.Sprintf("/v1/order/%d", created.OrderID)

	del := do(t, http.MethodDelete, path, nil)
	defer del.Body.Close()
	expectStatus(t, del, http.StatusNoContent)

	get := doGet(t, path)
	defer get.Body.Close()
	expectStatus(t, get, http.StatusNotFound)

	body := decodeJSON[errorResponse](t, get)
	if body.ThrownByClass != "Order" {
		t.Errorf("thrownByClass: got %q, want Order", body.ThrownByClass)
	}
}

func TestClientOrders(t *testing.T) {
	placeOrder(t, createOrderRequest{
		ClientID:         clientID,
		SelectedProducts: []selection{{ProductID: colaID, Quantity: 2}},
	})

	resp := doGet(t, fmt.Sprintf("/v1/client/%d/orders", clientID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[clientOrdersResponse](t, resp)
	if body.Client.Phone != "11987654321" {
		t.Errorf("client phone: got %q", body.Client.Phone)
	}
	if len(body.Orders) == 0 {
		t.Fatal("expected orders for client")
	}
	for _, o := range body.Orders {
		if o.ClientID != clientID {
			t.Errorf("order %d belongs to %d", o.ID, o.ClientID)
		}
		if o.ItemCount == 0 {
			t.Errorf("order %d has no items", o.ID)
		}
	}
}

func TestDeleteProduct_ReferencedByOrder(t *testing.T) {
	placeOrder(t, createOrderRequest{
		ClientID:         clientID,
		SelectedProducts: []selection{{ProductID: burgerID, Quantity: 1}},
	})

	resp := do(t, http.MethodDelete, fmt.Sprintf("/v1/product/%d", burgerID), nil)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusBadRequest)

	body := decodeJSON[errorResponse](t, resp)
	if body.ThrownByClass != "DataIntegrityViolation" {
		t.Errorf("thrownByClass: got %q, want DataIntegrityViolation", body.ThrownByClass)
	}
}

func TestCreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        createOrderRequest
		wantStatus int
		wantField  string
		wantThrown string
	}{
		{
			name:       "empty selection",
			req:        createOrderRequest{ClientID: clientID, SelectedProducts: []selection{}},
			wantStatus: http.StatusBadRequest,
			wantField:  "selectedProducts",
		},
		{
			name:       "zero quantity",
			req:        createOrderRequest{ClientID: clientID, SelectedProducts: []selection{{ProductID: colaID}}},
			wantStatus: http.StatusBadRequest,
			wantField:  "selectedProducts[0].quantity",
		},
		{
			name: "discount above 100",
			req: createOrderRequest{ClientID: clientID, SelectedProducts: []selection{
				{ProductID: colaID, Quantity: 1, DiscountPercentage: 101},
			}},
			wantStatus: http.StatusBadRequest,
			wantField:  "selectedProducts[0].discountPercentage",
		},
		{
			name: "quantity beyond int32",
			req: createOrderRequest{ClientID: clientID, SelectedProducts: []selection{
				{ProductID: burgerID, Quantity: 3_000_000_000},
			}},
			wantStatus: http.StatusBadRequest,
			wantField:  "selectedProducts[0].quantity",
		},
		{
			name: "total beyond numeric(12,2)",
			req: createOrderRequest{ClientID: clientID, SelectedProducts: []selection{
				{ProductID: burgerID, Quantity: 600_000_000}, // 600000000x 20.00
			}},
			wantStatus: http.StatusBadRequest,
			wantField:  "selectedProducts",
		},
		{
			name:       "unknown client",
			req:        createOrderRequest{ClientID: 999999, SelectedProducts: []selection{{ProductID: colaID, Quantity: 1}}},
			wantStatus: http.StatusNotFound,
			wantThrown: "Client",
		},
		{
			name:       "unknown product",
			req:        createOrderRequest{ClientID: clientID, SelectedProducts: []selection{{ProductID: 999999, Quantity: 1}}},
			wantStatus: http.StatusNotFound,
			wantThrown: "Product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doPost(t, "/v1/order/create_order", tt.req)
			defer resp.Body.Close()
			expectStatus(t, resp, tt.wantStatus)

			if tt.wantField != "" {
				body := decodeJSON[map[string]string](t, resp)
				if _, ok := body[tt.wantField]; !ok {
					t.Errorf("expected %s violation, got %v", tt.wantField, body)
				}
				return
			}
			body := decodeJSON[errorResponse](t, resp)
			if body.ThrownByClass != tt.wantThrown {
				t.Errorf("thrownByClass: got %q, want %q", body.ThrownByClass, tt.wantThrown)
			}
		})
	}
}
