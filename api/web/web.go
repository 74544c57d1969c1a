package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

type Middleware func(Handler) Handler

// WrapMiddleware applies mw so that mw[0] runs first. Nil entries are skipped.
func WrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}
	return handler
}

// Respond writes data as JSON. A 204 never carries a body.
func Respond(ctx context.Context, w http.ResponseWriter, data interface{}, statusCode int) error {
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cannot marshal response data: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("cannot write response data to response writer: %w", err)
	}
	return nil
}

// Decode reads exactly one JSON value into val. Unknown fields, empty bodies
// and trailing data are rejected.
func Decode(w http.ResponseWriter, r *http.Request, val interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(val); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}

	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func Param(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}

func Query(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}
