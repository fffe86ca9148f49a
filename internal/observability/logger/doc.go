// Package logger provides a singleton Zap logger with context-based scoping.
//
// Init se llama una vez desde main; el resto del código usa L(), Named()
// o From(ctx). Sin Init, L() arranca con un logger dev/info.
//
//	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	logger.Named("issuer").Debug("token issued", logger.KeyID(kid))
//
// Nunca loguear material de clave ni el token firmado.
package logger
