package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"
	"github.com/shopspring/decimal"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var (
	errRequired         = errors.New("is required")
	errNotInteger       = errors.New("must be an integer")
	errNotString        = errors.New("must be a string")
	errNotNumber        = errors.New("must be a decimal number")
	errNotArray         = errors.New("must be an array")
	errNotObject        = errors.New("must be an object")
	errPositiveInteger  = errors.New("must be a positive integer")
	errQuantityTooLarge = errors.New("must be at most 2147483647")
)

// malformedError reports a body that is not valid JSON.
type malformedError struct {
	err error
}

func (e *malformedError) Error() string { return "malformed JSON: " + e.err.Error() }
func (e *malformedError) Unwrap() error { return e.err }

// fields collects field violations found while decoding a request.
type fields []validate.FieldError

func (f *fields) add(name string, err error) {
	*f = append(*f, validate.FieldError{Name: name, Error: err})
}

func (f fields) has(name string) bool {
	for _, e := range f {
		if e.Name == name {
			return true
		}
	}
	return false
}

func (f fields) err() error {
	if len(f) == 0 {
		return nil
	}
	return &validate.Error{Fields: f}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &malformedError{err: err}
	}
	if len(data) == 0 {
		return nil, &malformedError{err: errors.New("empty body")}
	}
	return data, nil
}

// decodeObject walks a JSON object; syntax errors are reported as malformed.
func decodeObject(data []byte, f func(d *jx.Decoder, key string) error) error {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return &malformedError{err: errors.New("expected object")}
	}
	if err := d.Obj(f); err != nil {
		return &malformedError{err: err}
	}
	return nil
}

// readInt reads an integer value. Null yields set == false; a value of another
// type is recorded in fe and skipped.
func readInt(d *jx.Decoder, name string, fe *fields) (v int64, set bool, err error) {
	switch d.Next() {
	case jx.Null:
		return 0, false, d.Null()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return 0, false, err
		}
		v, err := n.Int64()
		if err != nil {
			fe.add(name, errNotInteger)
			return 0, false, nil
		}
		return v, true, nil
	default:
		fe.add(name, errNotInteger)
		return 0, false, d.Skip()
	}
}

// readString reads a string value with the same conventions as readInt.
func readString(d *jx.Decoder, name string, fe *fields) (v string, set bool, err error) {
	switch d.Next() {
	case jx.Null:
		return "", false, d.Null()
	case jx.String:
		s, err := d.Str()
		return s, err == nil, err
	default:
		fe.add(name, errNotString)
		return "", false, d.Skip()
	}
}

// readDecimal reads a decimal given either as a JSON number or a string.
func readDecimal(d *jx.Decoder, name string, fe *fields) (v decimal.Decimal, set bool, err error) {
	var raw string
	switch d.Next() {
	case jx.Null:
		return decimal.Zero, false, d.Null()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, false, err
		}
		raw = n.String()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, false, err
		}
		raw = s
	default:
		fe.add(name, errNotNumber)
		return decimal.Zero, false, d.Skip()
	}
	v, perr := decimal.NewFromString(raw)
	if perr != nil {
		fe.add(name, errNotNumber)
		return decimal.Zero, false, nil
	}
	return v, true, nil
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.StringFixed(2)))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}
