package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/aexfood/orders/internal/domain/product"
)

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeDecimal(e, p.Price)
	e.FieldStart("category")
	if p.Category != nil {
		e.Str(string(p.Category.Name))
	} else {
		e.Null()
	}
	e.ObjEnd()
}

func decodeProduct(data []byte) (product.CreateRequest, error) {
	var (
		req      product.CreateRequest
		fe       fields
		priceSet bool
	)
	err := decodeObject(data, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			req.Name, _, err = readString(d, key, &fe)
		case "description":
			req.Description, _, err = readString(d, key, &fe)
		case "price":
			req.Price, priceSet, err = readDecimal(d, key, &fe)
		case "category":
			req.Category, _, err = readString(d, key, &fe)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return req, err
	}
	if !priceSet && !fe.has("price") {
		fe.add("price", errRequired)
	}
	return req, fe.err()
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.products.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range ps {
			encodeProduct(e, &ps[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := decodeProduct(data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.products.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/product/"+strconv.FormatInt(p.ID, 10))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
