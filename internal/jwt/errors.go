package jwt

import (
	"errors"
	"fmt"
)

// Error es el error tipado que devuelve el issuer.
// Dos errores son equivalentes (errors.Is) si comparten Code.
type Error struct {
	Code    string
	Message string
	Err     error // causa original, útil para logs
}

// Error implementa la interfaz error
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *Error) Unwrap() error { return e.Err }

// Is compara por código, así errors.Is(err, ErrKeyFormat) funciona
// aunque el error tenga otro mensaje o causa.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage devuelve una COPIA con otro mensaje (no muta los sentinels).
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// WithCause devuelve una COPIA envolviendo err.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

var (
	// ErrInvalidArgument: validez fuera de (0, MaxValidity], default ausente
	// o identidad vacía.
	ErrInvalidArgument = &Error{Code: "invalid_argument", Message: "invalid argument"}

	// ErrKeyFormat: el material de clave no es base64, no es PKCS#8
	// o no es una clave EC P-256.
	ErrKeyFormat = &Error{Code: "key_format", Message: "invalid private key"}

	// ErrSign: falló la primitiva de firma.
	ErrSign = &Error{Code: "sign_failed", Message: "could not sign token"}

	// ErrInvalidToken: el token no parsea o no verifica.
	ErrInvalidToken = &Error{Code: "invalid_token", Message: "invalid token"}
)

// Code extrae el código de un error del paquete ("" si no es *Error).
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
