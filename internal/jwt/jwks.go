package jwt

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
)

// JWK es la pública EC P-256 en formato RFC 7517.
type JWK struct {
	Kty string `json:"kty"` // "EC"
	Crv string `json:"crv"` // "P-256"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "ES256"
	Use string `json:"use"` // "sig"
	X   string `json:"x"`   // base64url(X), 32 bytes
	Y   string `json:"y"`   // base64url(Y), 32 bytes
}

// JWKS es un set de claves públicas.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicJWK arma el JWK de pub con el kid dado.
func PublicJWK(kid string, pub *ecdsa.PublicKey) JWK {
	// coordenadas con padding fijo a 32 bytes (RFC 7518 §6.2.1.2)
	x := make([]byte, 32)
	y := make([]byte, 32)
	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)
	return JWK{
		Kty: "EC",
		Crv: "P-256",
		Kid: kid,
		Alg: Alg,
		Use: "sig",
		X:   base64.RawURLEncoding.EncodeToString(x),
		Y:   base64.RawURLEncoding.EncodeToString(y),
	}
}

// JWKSJSON devuelve el JWKS (sólo la pública) de la cuenta del issuer.
func (i *Issuer) JWKSJSON() ([]byte, error) {
	return json.Marshal(JWKS{Keys: []JWK{PublicJWK(i.account.KeyID, i.account.PublicKey())}})
}
