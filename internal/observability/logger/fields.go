package logger

import (
	"time"

	"go.uber.org/zap"
)

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// TeamID es el issuer ("iss") de la cuenta.
func TeamID(v string) zap.Field { return zap.String("team_id", v) }

// KeyID es el "kid" con el que se firma.
func KeyID(v string) zap.Field { return zap.String("key_id", v) }

// Validity es la ventana de validez pedida.
func Validity(v time.Duration) zap.Field { return zap.Duration("validity", v) }

// ExpiresAt es el "exp" del token emitido.
func ExpiresAt(v time.Time) zap.Field { return zap.Time("expires_at", v) }

// Path crea un campo para rutas de archivos (config, claves).
func Path(v string) zap.Field { return zap.String("path", v) }

// ErrCode es el código de un error tipado.
func ErrCode(v string) zap.Field { return zap.String("error_code", v) }

// String crea un campo string genérico.
func String(key, v string) zap.Field { return zap.String(key, v) }
