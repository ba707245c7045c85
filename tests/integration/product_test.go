//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/v1/product")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) < 2 {
		t.Fatalf("expected at least 2 products, got %d", len(products))
	}

	found := false
	for _, p := range products {
		if p.ID == burgerID {
			found = true
			if p.Price != 20 {
				t.Errorf("price: got %v, want 20", p.Price)
			}
			if p.Category == nil || *p.Category != "LANCHE" {
				t.Errorf("category: got %v, want LANCHE", p.Category)
			}
		}
	}
	if !found {
		t.Errorf("product %d not listed", burgerID)
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, fmt.Sprintf("/v1/product/%d", colaID))
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)

	p := decodeJSON[productResponse](t, resp)
	if p.Name != "Cola" {
		t.Errorf("name: got %q, want Cola", p.Name)
	}
	if p.Price != 6 {
		t.Errorf("price: got %v, want 6", p.Price)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/v1/product/999999")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusNotFound)

	body := decodeJSON[errorResponse](t, resp)
	if body.ThrownByClass != "Product" {
		t.Errorf("thrownByClass: got %q, want Product", body.ThrownByClass)
	}
	if body.HTTPMethod != http.MethodGet {
		t.Errorf("httpMethod: got %q", body.HTTPMethod)
	}
}

func TestGetProduct_InvalidID(t *testing.T) {
	resp := doGet(t, "/v1/product/abc")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusBadRequest)

	body := decodeJSON[map[string]string](t, resp)
	if _, ok := body["id"]; !ok {
		t.Errorf("expected id violation, got %v", body)
	}
}

func TestCreateProduct_Uncategorized(t *testing.T) {
	resp := doPost(t, "/v1/product", map[string]any{
		"name": "Napkin", "description": "", "price": "0.00",
	})
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusCreated)

	p := decodeJSON[productResponse](t, resp)
	if p.Category != nil {
		t.Errorf("category: got %q, want null", *p.Category)
	}
	if loc := resp.Header.Get("Location"); loc != fmt.Sprintf("/v1/product/%d", p.ID) {
		t.Errorf("Location: got %q", loc)
	}

	del := do(t, http.MethodDelete, fmt.Sprintf("/v1/product/%d", p.ID), nil)
	defer del.Body.Close()
	expectStatus(t, del, http.StatusNoContent)

	get := doGet(t, fmt.Sprintf("/v1/product/%d", p.ID))
	defer get.Body.Close()
	expectStatus(t, get, http.StatusNotFound)
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	resp := doPost(t, "/v1/product", map[string]any{
		"name": "Soup", "description": "Hot", "price": 10, "category": "SOPA",
	})
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusNotFound)

	body := decodeJSON[errorResponse](t, resp)
	if body.ThrownByClass != "Category" {
		t.Errorf("thrownByClass: got %q, want Category", body.ThrownByClass)
	}
}

func TestCreateProduct_Invalid(t *testing.T) {
	resp := doPost(t, "/v1/product", map[string]any{"name": "", "price": -1})
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusBadRequest)
}

func TestCreateProduct_PriceBeyondColumn(t *testing.T) {
	resp := doPost(t, "/v1/product", map[string]any{
		"name": "Yacht", "description": "", "price": "10000000000.00", "category": "LANCHE",
	})
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusBadRequest)

	body := decodeJSON[map[string]string](t, resp)
	if body["price"] != "must be at most 9999999999.99" {
		t.Errorf("price: got %q", body["price"])
	}
}
