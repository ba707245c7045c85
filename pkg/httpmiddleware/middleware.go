// Package httpmiddleware provides net/http middleware for the API server.
package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/gorilla/mux"
)

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware is the outermost one.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RouteFinder returns the name of the route serving r, or "" when no route
// matches.
type RouteFinder func(r *http.Request) string

// MakeRouteFinder returns a RouteFinder that resolves routes against router
// without serving the request.
func MakeRouteFinder(router *mux.Router) RouteFinder {
	return func(r *http.Request) string {
		var m mux.RouteMatch
		if !router.Match(r, &m) || m.Route == nil {
			return ""
		}
		return m.Route.GetName()
	}
}

// writeError writes the error body used by the API for requests rejected
// before they reach it.
func writeError(w http.ResponseWriter, r *http.Request, status int, source, message string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("httpMethod")
	e.Str(r.Method)
	e.FieldStart("status")
	e.Int(status)
	e.FieldStart("error")
	e.Str(http.StatusText(status))
	e.FieldStart("path")
	e.Str(r.URL.Path)
	e.FieldStart("thrownByClass")
	e.Str(source)
	e.FieldStart("message")
	e.Str(message)
	e.FieldStart("timestamp")
	e.Str(time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
