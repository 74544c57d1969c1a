// Package weberr decorates errors with what the HTTP layer needs: the
// response to send back and extra fields to log.
package weberr

import "errors"

type Opt func(error) error

func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

type responseError struct {
	error
	body   interface{}
	status int
}

func (e *responseError) Unwrap() error { return e.error }

func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// Response returns the outermost response attached to err.
func Response(err error) (body interface{}, status int, ok bool) {
	var re *responseError
	if errors.As(err, &re) {
		return re.body, re.status, true
	}
	return nil, 0, false
}

type fieldsError struct {
	error
	fields map[string]interface{}
}

func (e *fieldsError) Unwrap() error { return e.error }

func WithFields(fields map[string]interface{}) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}

func WithField(key string, value interface{}) Opt {
	return WithFields(map[string]interface{}{key: value})
}

// Fields merges the fields attached anywhere in the chain of err. On
// conflicts the outermost value wins.
func Fields(err error) (map[string]interface{}, bool) {
	var out map[string]interface{}
	for e := err; e != nil; e = errors.Unwrap(e) {
		fe, ok := e.(*fieldsError)
		if !ok {
			continue
		}

		if out == nil {
			out = make(map[string]interface{}, len(fe.fields))
		}
		for k, v := range fe.fields {
			if _, set := out[k]; !set {
				out[k] = v
			}
		}
	}
	return out, out != nil
}
