package handler

import (
	"net/http"
	"regexp"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/ogen-go/ogen/validate"
	"go.uber.org/zap"

	"github.com/aexfood/orders/internal/domain/apperr"
)

const (
	// thrownByIntegrity identifies integrity failures in error bodies.
	thrownByIntegrity = "DataIntegrityViolation"
	timestampLayout   = "2006-01-02T15:04:05.000Z07:00"
)

// errorBody is the structured error response.
type errorBody struct {
	Method    string
	Status    int
	ThrownBy  string
	Message   string
	Path      string
	Timestamp string
}

func (b errorBody) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("httpMethod")
	e.Str(b.Method)
	e.FieldStart("status")
	e.Int(b.Status)
	e.FieldStart("error")
	e.Str(http.StatusText(b.Status))
	e.FieldStart("path")
	e.Str(b.Path)
	e.FieldStart("thrownByClass")
	e.Str(b.ThrownBy)
	e.FieldStart("message")
	e.Str(b.Message)
	e.FieldStart("timestamp")
	e.Str(b.Timestamp)
	e.ObjEnd()
}

// writeError maps err to a response:
//
//	NotFound                    404 structured body
//	InvalidArgument, bad input  400 field map
//	integrity storage failure   400 structured body
//	anything else               500 structured body, logged
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if fe, ok := fieldMap(err); ok {
		writeJSON(w, http.StatusBadRequest, func(e *jx.Encoder) {
			e.ObjStart()
			for _, f := range fe {
				e.FieldStart(f.Field)
				e.Str(f.Reason)
			}
			e.ObjEnd()
		})
		return
	}

	body := errorBody{
		Method:    r.Method,
		Path:      r.URL.Path,
		Timestamp: h.timestamp(),
	}

	var (
		nf *apperr.NotFoundError
		se *apperr.StorageError
	)
	switch {
	case errors.As(err, &nf):
		body.Status = http.StatusNotFound
		body.ThrownBy = nf.Kind
		body.Message = nf.Error()
	case errors.As(err, &se) && se.Integrity:
		body.Status = http.StatusBadRequest
		body.ThrownBy = thrownByIntegrity
		body.Message = se.Error()
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		body.Status = http.StatusInternalServerError
		body.ThrownBy = "Internal"
		body.Message = "internal error"
	}

	writeJSON(w, body.Status, body.encode)
}

// fieldMap flattens input errors into field violations.
func fieldMap(err error) ([]apperr.FieldError, bool) {
	var (
		inv *apperr.InvalidArgumentError
		ve  *validate.Error
		me  *malformedError
	)
	switch {
	case errors.As(err, &me):
		return []apperr.FieldError{{Field: "body", Reason: me.Error()}}, true
	case errors.As(err, &ve):
		out := make([]apperr.FieldError, len(ve.Fields))
		for i, f := range ve.Fields {
			out[i] = apperr.FieldError{Field: f.Name, Reason: f.Error.Error()}
		}
		return out, true
	case errors.As(err, &inv):
		out := make([]apperr.FieldError, len(inv.Fields))
		for i, f := range inv.Fields {
			out[i] = apperr.FieldError{Field: wireField(f.Field), Reason: f.Reason}
		}
		return out, true
	}
	return nil, false
}

var itemsField = regexp.MustCompile(`^items(\[|$)`)

// wireField renames order item fields to their request names.
func wireField(name string) string {
	return itemsField.ReplaceAllString(name, "selectedProducts$1")
}
