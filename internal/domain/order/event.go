package order

import (
	"strconv"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/aexfood/orders/internal/domain/outbox"
)

// Event identifiers.
const (
	AggregateType    = "order"
	EventTypeCreated = "order.created"
)

// createdEvent builds the order.created outbox event for a persisted order.
func createdEvent(o *Order) outbox.Event {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("orderId")
	e.Int64(o.ID)
	e.FieldStart("clientId")
	e.Int64(o.ClientID)
	e.FieldStart("status")
	e.Str(o.Status)
	e.FieldStart("total")
	e.Str(o.Total.StringFixed(2))
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int64(it.ProductID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("unitPrice")
		e.Str(it.UnitPrice.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	return outbox.Event{
		ID:            uuid.New(),
		AggregateType: AggregateType,
		AggregateID:   strconv.FormatInt(o.ID, 10),
		EventType:     EventTypeCreated,
		Payload:       append([]byte(nil), e.Bytes()...),
		Status:        outbox.StatusPending,
		CreatedAt:     o.CreatedAt,
	}
}
