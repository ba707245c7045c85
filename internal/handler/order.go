package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"

	"github.com/aexfood/orders/internal/domain/order"
	"github.com/aexfood/orders/internal/domain/pricing"
)

var positiveID = validate.Int{MinSet: true, Min: 1}

// decodeCreateOrder parses
//
//	{"clientId": 1, "selectedProducts": [{"productId": 7, "quantity": 3, "discountPercentage": 10}]}
//
// Type and presence errors are collected per field; value ranges of items
// are checked by the order service. An absent or null discountPercentage
// is 0.
func decodeCreateOrder(data []byte) (order.CreateRequest, error) {
	var (
		req       order.CreateRequest
		fe        fields
		clientSet bool
	)
	err := decodeObject(data, func(d *jx.Decoder, key string) error {
		switch key {
		case "clientId":
			v, ok, err := readInt(d, "clientId", &fe)
			req.ClientID, clientSet = v, ok
			return err
		case "selectedProducts":
			if d.Next() != jx.Array {
				fe.add("selectedProducts", errNotArray)
				return d.Skip()
			}
			i := 0
			return d.Arr(func(d *jx.Decoder) error {
				sel, err := decodeSelection(d, fmt.Sprintf("selectedProducts[%d]", i), &fe)
				req.Items = append(req.Items, sel)
				i++
				return err
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return req, err
	}

	if !clientSet {
		fe.add("clientId", errRequired)
	} else if err := positiveID.Validate(req.ClientID); err != nil {
		fe.add("clientId", err)
	}
	return req, fe.err()
}

func decodeSelection(d *jx.Decoder, prefix string, fe *fields) (order.Selection, error) {
	var (
		sel        order.Selection
		productSet bool
		qtySet     bool
	)
	if d.Next() != jx.Object {
		fe.add(prefix, errNotObject)
		return sel, d.Skip()
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		name := prefix + "." + key
		switch key {
		case "productId":
			v, ok, err := readInt(d, name, fe)
			sel.ProductID, productSet = v, ok
			return err
		case "quantity":
			v, ok, err := readInt(d, name, fe)
			if ok && v > pricing.MaxQuantity {
				fe.add(name, errQuantityTooLarge)
				return err
			}
			sel.Quantity, qtySet = int(v), ok
			return err
		case "discountPercentage":
			v, _, err := readInt(d, name, fe)
			sel.DiscountPercentage = int(v)
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return sel, err
	}

	if !productSet {
		fe.add(prefix+".productId", errRequired)
	} else if err := positiveID.Validate(sel.ProductID); err != nil {
		fe.add(prefix+".productId", err)
	}
	if !qtySet && !fe.has(prefix+".quantity") {
		fe.add(prefix+".quantity", errRequired)
	}
	return sel, nil
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := decodeCreateOrder(data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if h.orderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.orderTimeout)
		defer cancel()
	}

	res, err := h.orders.CreateOrder(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("clientId")
		e.Int64(res.ClientID)
		e.FieldStart("orderId")
		e.Int64(res.OrderID)
		e.FieldStart("status")
		e.Str(res.Status)
		e.FieldStart("total")
		encodeDecimal(e, res.Total)
		e.FieldStart("createdAt")
		encodeTime(e, res.CreatedAt)
		e.FieldStart("selectedProducts")
		e.ArrStart()
		for _, sel := range res.Items {
			e.ObjStart()
			e.FieldStart("productId")
			e.Int64(sel.ProductID)
			e.FieldStart("quantity")
			e.Int(sel.Quantity)
			e.FieldStart("discountPercentage")
			e.Int(sel.DiscountPercentage)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(o.ID)
		e.FieldStart("clientId")
		e.Int64(o.ClientID)
		e.FieldStart("status")
		e.Str(o.Status)
		e.FieldStart("total")
		encodeDecimal(e, o.Total)
		e.FieldStart("createdAt")
		encodeTime(e, o.CreatedAt)
		e.FieldStart("items")
		e.ArrStart()
		for _, it := range o.Items {
			e.ObjStart()
			e.FieldStart("id")
			e.Int64(it.ID)
			e.FieldStart("productId")
			e.Int64(it.ProductID)
			e.FieldStart("quantity")
			e.Int(it.Quantity)
			e.FieldStart("unitPrice")
			encodeDecimal(e, it.UnitPrice)
			e.FieldStart("subtotal")
			encodeDecimal(e, pricing.LineSubtotal(it.UnitPrice, it.Quantity))
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.orders.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func encodeSummary(e *jx.Encoder, clientID int64, s order.Summary) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(s.ID)
	e.FieldStart("clientId")
	e.Int64(clientID)
	e.FieldStart("createdAt")
	encodeTime(e, s.CreatedAt)
	e.FieldStart("status")
	e.Str(s.Status)
	e.FieldStart("total")
	encodeDecimal(e, s.Total)
	e.FieldStart("itemCount")
	e.Int(s.ItemCount)
	e.ObjEnd()
}
