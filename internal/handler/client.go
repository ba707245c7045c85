package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/jx"

	"github.com/aexfood/orders/internal/domain/client"
)

func encodeClient(e *jx.Encoder, c *client.Client) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("phone")
	e.Str(c.Phone)
	e.ObjEnd()
}

// decodeClient reads {"name": ..., "phone": ...}; absent fields stay nil.
func decodeClient(data []byte) (client.Patch, error) {
	var (
		p  client.Patch
		fe fields
	)
	err := decodeObject(data, func(d *jx.Decoder, key string) error {
		switch key {
		case "name", "phone":
			v, ok, err := readString(d, key, &fe)
			if err != nil || !ok {
				return err
			}
			if key == "name" {
				p.Name = &v
			} else {
				p.Phone = &v
			}
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return p, err
	}
	return p, fe.err()
}

func (h *Handler) findClient(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("telephone"))
	if phone == "" {
		var fe fields
		fe.add("telephone", errRequired)
		h.writeError(w, r, fe.err())
		return
	}
	c, err := h.clients.GetByPhone(r.Context(), phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeClient(e, c) })
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.clients.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeClient(e, c) })
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := decodeClient(data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var name, phone string
	if p.Name != nil {
		name = *p.Name
	}
	if p.Phone != nil {
		phone = *p.Phone
	}
	c, err := h.clients.Create(r.Context(), name, phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/client/"+strconv.FormatInt(c.ID, 10))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeClient(e, c) })
}

func (h *Handler) patchClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := decodeClient(data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.clients.Patch(r.Context(), id, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeClient(e, c) })
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.clients.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clientOrders returns the client with the headers of its orders.
func (h *Handler) clientOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, list, err := h.orders.ListByClient(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("client")
		e.ObjStart()
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("phone")
		e.Str(c.Phone)
		e.ObjEnd()
		e.FieldStart("orders")
		e.ArrStart()
		for _, s := range list {
			encodeSummary(e, c.ID, s)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}
