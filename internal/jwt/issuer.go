package jwt

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/devtoken/internal/metrics"
	"github.com/dropDatabas3/devtoken/internal/observability/logger"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// MaxValiditySeconds es el techo que acepta la plataforma (~6 meses).
	MaxValiditySeconds = 15777000

	// MaxValidity es MaxValiditySeconds como time.Duration.
	MaxValidity = MaxValiditySeconds * time.Second

	// Alg es el único algoritmo que firma el issuer.
	Alg = "ES256"
)

// Account es la identidad con la que se firma. Es un valor inmutable:
// el issuer guarda su propia copia y nunca la modifica.
type Account struct {
	TeamID string // "iss"
	KeyID  string // header "kid"
	key    *ecdsa.PrivateKey
}

// PublicKey devuelve la pública de la clave de firma (para verificar o exportar JWK).
func (a Account) PublicKey() *ecdsa.PublicKey {
	if a.key == nil {
		return nil
	}
	return &a.key.PublicKey
}

// Assertion es el resultado de una emisión.
type Assertion struct {
	Token     string
	KeyID     string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer firma developer tokens ES256 para una cuenta.
// Es seguro para uso concurrente.
type Issuer struct {
	account Account
	now     func() time.Time
	log     *zap.Logger

	mu       sync.RWMutex
	validity time.Duration // default; 0 = sin default
}

// Option configura un Issuer en NewIssuer.
type Option func(*Issuer) error

// WithDefaultValidity fija la ventana por defecto que usa Issue().
func WithDefaultValidity(d time.Duration) Option {
	return func(i *Issuer) error {
		if err := ValidateValidity(d); err != nil {
			return err
		}
		i.validity = d
		return nil
	}
}

// WithLogger reemplaza el logger (default: logger.Named("issuer")).
func WithLogger(l *zap.Logger) Option {
	return func(i *Issuer) error {
		if l != nil {
			i.log = l
		}
		return nil
	}
}

// WithClock reemplaza el reloj; pensado para tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) error {
		if now != nil {
			i.now = now
		}
		return nil
	}
}

// NewIssuer parsea la clave (PEM o base64 pelado, PKCS#8 EC P-256) y arma
// el issuer. Falla con ErrKeyFormat si la clave es inválida y con
// ErrInvalidArgument si falta la identidad o el default está fuera de rango.
func NewIssuer(privateKey, teamID, keyID string, opts ...Option) (*Issuer, error) {
	teamID = strings.TrimSpace(teamID)
	keyID = strings.TrimSpace(keyID)
	if teamID == "" {
		return nil, ErrInvalidArgument.WithMessage("team id is required")
	}
	if keyID == "" {
		return nil, ErrInvalidArgument.WithMessage("key id is required")
	}

	key, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	i := &Issuer{
		account: Account{TeamID: teamID, KeyID: keyID, key: key},
		now:     time.Now,
		log:     logger.Named("issuer"),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// Account devuelve una copia de la identidad del issuer.
func (i *Issuer) Account() Account { return i.account }

// DefaultValidity devuelve la ventana por defecto (0 si no hay).
func (i *Issuer) DefaultValidity() time.Duration {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.validity
}

// SetDefaultValidity valida y reemplaza la ventana por defecto.
// Si d es inválida el default anterior queda intacto.
func (i *Issuer) SetDefaultValidity(d time.Duration) error {
	if err := ValidateValidity(d); err != nil {
		return err
	}
	i.mu.Lock()
	i.validity = d
	i.mu.Unlock()
	return nil
}

// Issue firma un token con la ventana por defecto.
func (i *Issuer) Issue() (string, error) {
	d := i.DefaultValidity()
	if d == 0 {
		err := ErrInvalidArgument.WithMessage("no default validity configured")
		i.fail("issue", err)
		return "", err
	}
	return i.IssueFor(d)
}

// IssueSeconds firma un token válido por seconds segundos (0 < seconds <= MaxValiditySeconds).
func (i *Issuer) IssueSeconds(seconds int64) (string, error) {
	d, err := ValiditySeconds(seconds)
	if err != nil {
		i.fail("issue_seconds", err)
		return "", err
	}
	return i.IssueFor(d)
}

// IssueFor firma un token válido por d (se trunca a segundos enteros).
func (i *Issuer) IssueFor(d time.Duration) (string, error) {
	a, err := i.Mint(d)
	if err != nil {
		return "", err
	}
	return a.Token, nil
}

// Mint es el camino único de emisión: valida d, toma el reloj, arma las
// claims iss/iat/nbf/exp y firma con ES256. Cada llamada firma de nuevo.
func (i *Issuer) Mint(d time.Duration) (Assertion, error) {
	if err := ValidateValidity(d); err != nil {
		i.fail("mint", err)
		return Assertion{}, err
	}
	secs := int64(d / time.Second)

	now := i.now().UTC()
	iat := now.Unix()
	exp := iat + secs

	claims := jwtv5.MapClaims{
		"iss": i.account.TeamID,
		"iat": iat,
		"nbf": iat,
		"exp": exp,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodES256, claims)
	tk.Header["kid"] = i.account.KeyID

	start := time.Now()
	signed, err := tk.SignedString(i.account.key)
	if err != nil {
		serr := ErrSign.WithCause(err)
		i.fail("mint", serr)
		return Assertion{}, serr
	}
	metrics.ObserveIssued(time.Since(start))

	out := Assertion{
		Token:     signed,
		KeyID:     i.account.KeyID,
		Issuer:    i.account.TeamID,
		IssuedAt:  time.Unix(iat, 0).UTC(),
		ExpiresAt: time.Unix(exp, 0).UTC(),
	}
	i.log.Debug("token issued",
		logger.TeamID(out.Issuer),
		logger.KeyID(out.KeyID),
		logger.Validity(d),
		logger.ExpiresAt(out.ExpiresAt),
	)
	return out, nil
}

func (i *Issuer) fail(op string, err error) {
	code := Code(err)
	metrics.ObserveFailure(code)
	i.log.Warn("token issue failed",
		logger.Op(op),
		logger.KeyID(i.account.KeyID),
		logger.ErrCode(code),
		logger.Err(err),
	)
}

// ValidateValidity aplica la regla 0 < d <= MaxValidity, con d medido en
// segundos enteros (una ventana menor a 1s es inválida).
func ValidateValidity(d time.Duration) error {
	if d > MaxValidity {
		return validityError(int64(d / time.Second))
	}
	if d/time.Second <= 0 {
		return ErrInvalidArgument.WithMessage(fmt.Sprintf("validity must be at least 1s, got %s", d))
	}
	return nil
}

// ValiditySeconds valida una ventana en segundos y la convierte a time.Duration
// sin overflow.
func ValiditySeconds(seconds int64) (time.Duration, error) {
	if seconds <= 0 || seconds > MaxValiditySeconds {
		return 0, validityError(seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

func validityError(seconds int64) *Error {
	if seconds <= 0 {
		return ErrInvalidArgument.WithMessage(fmt.Sprintf("validity must be positive, got %ds", seconds))
	}
	return ErrInvalidArgument.WithMessage(
		fmt.Sprintf("validity must be at most %d seconds (6 months), got %ds", MaxValiditySeconds, seconds))
}
