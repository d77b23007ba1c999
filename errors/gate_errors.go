// api/errors/gate_errors.go
package errors

import "errors"

var (
	ErrTokenMissing = errors.New("turnstile token missing")
	ErrTokenInvalid = errors.New("turnstile token invalid")
)
