package jwt

import (
	"crypto/ecdsa"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ParseES256 valida firma (ES256) con pub, exige header kid, chequea iss
// (si expectedIss != "") y exp/nbf con una pequeña tolerancia.
// Devuelve las claims como map[string]any.
func ParseES256(token string, pub *ecdsa.PublicKey, expectedIss string) (map[string]any, error) {
	if pub == nil {
		return nil, ErrKeyFormat.WithMessage("public key is required")
	}
	keyfunc := func(t *jwtv5.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid == "" {
			return nil, errors.New("kid_missing")
		}
		return pub, nil
	}

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{Alg}),
		jwtv5.WithLeeway(30 * time.Second),
		jwtv5.WithIssuedAt(),
		jwtv5.WithExpirationRequired(),
	}
	if expectedIss != "" {
		opts = append(opts, jwtv5.WithIssuer(expectedIss))
	}

	tok, err := jwtv5.Parse(token, keyfunc, opts...)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken.WithCause(err)
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken.WithMessage("claims_type")
	}

	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, nil
}

// Decoded es un token decodificado SIN verificar la firma.
type Decoded struct {
	Header map[string]any `json:"header"`
	Claims map[string]any `json:"claims"`
}

// Inspect decodifica header y claims sin verificar nada; sirve para
// depurar lo que se le va a mandar a la plataforma.
func Inspect(token string) (*Decoded, error) {
	claims := jwtv5.MapClaims{}
	tok, _, err := jwtv5.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}
	out := &Decoded{Header: tok.Header, Claims: make(map[string]any, len(claims))}
	for k, v := range claims {
		out.Claims[k] = v
	}
	return out, nil
}
