package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/devtoken/internal/jwt"
)

type Config struct {
	// dev | prod
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"` // debug | info | warn | error
		Env   string `yaml:"env"`   // dev (consola) | prod (JSON); vacío => app.env
	} `yaml:"log"`

	// Identidad con la que se firman los tokens.
	Account struct {
		TeamID         string `yaml:"team_id"`
		KeyID          string `yaml:"key_id"`
		PrivateKey     string `yaml:"private_key"`      // PEM o base64 inline
		PrivateKeyFile string `yaml:"private_key_file"` // ruta al .p8 (relativa al YAML)
	} `yaml:"account"`

	Token struct {
		Validity string `yaml:"validity"` // duración Go, ej "1h" o "15777000s"
	} `yaml:"token"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// DefaultValidity es la ventana por defecto: el máximo que acepta la plataforma.
const DefaultValidity = "15777000s"

// Load lee path (si no está vacío), aplica defaults, pisa con env y valida.
// Con path == "" la config sale sólo de variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		// Normalizar ruta de la clave (si relativa) respecto al directorio del YAML
		if p := strings.TrimSpace(c.Account.PrivateKeyFile); p != "" && !filepath.IsAbs(p) {
			c.Account.PrivateKeyFile = filepath.Clean(filepath.Join(filepath.Dir(path), p))
		}
	}

	c.applyEnvOverrides()

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Env == "" {
		c.Log.Env = c.App.Env
	}
	if c.Token.Validity == "" {
		c.Token.Validity = DefaultValidity
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate chequea identidad, fuente de clave y ventana de validez.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Account.TeamID) == "" {
		errs = append(errs, errors.New("account.team_id (TEAM_ID) is required"))
	}
	if strings.TrimSpace(c.Account.KeyID) == "" {
		errs = append(errs, errors.New("account.key_id (KEY_ID) is required"))
	}
	hasInline := strings.TrimSpace(c.Account.PrivateKey) != ""
	hasFile := strings.TrimSpace(c.Account.PrivateKeyFile) != ""
	switch {
	case !hasInline && !hasFile:
		errs = append(errs, errors.New("account.private_key or account.private_key_file is required"))
	case hasInline && hasFile:
		errs = append(errs, errors.New("account.private_key and account.private_key_file are mutually exclusive"))
	}
	if _, err := c.Validity(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validity parsea token.validity y aplica la regla (0, 15777000s].
func (c *Config) Validity() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(c.Token.Validity))
	if err != nil {
		return 0, fmt.Errorf("token.validity: %w", err)
	}
	if err := jwt.ValidateValidity(d); err != nil {
		return 0, fmt.Errorf("token.validity: %w", err)
	}
	return d, nil
}

// PrivateKeyMaterial devuelve la clave inline o el contenido del archivo.
func (c *Config) PrivateKeyMaterial() (string, error) {
	if s := strings.TrimSpace(c.Account.PrivateKey); s != "" {
		return s, nil
	}
	b, err := os.ReadFile(c.Account.PrivateKeyFile)
	if err != nil {
		return "", fmt.Errorf("read private key: %w", err)
	}
	return string(b), nil
}

// IsProd indica si app.env es prod.
func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("LOG_ENV"); ok {
		c.Log.Env = strings.ToLower(v)
	}

	if v, ok := getEnvStr("TEAM_ID"); ok {
		c.Account.TeamID = v
	}
	if v, ok := getEnvStr("KEY_ID"); ok {
		c.Account.KeyID = v
	}
	// una fuente de clave por env reemplaza a la del YAML; si vienen las dos, gana el archivo
	if v, ok := getEnvStr("PRIVATE_KEY"); ok {
		c.Account.PrivateKey = v
		c.Account.PrivateKeyFile = ""
	}
	if v, ok := getEnvStr("PRIVATE_KEY_FILE"); ok {
		c.Account.PrivateKeyFile = v
		c.Account.PrivateKey = ""
	}

	if v, ok := getEnvStr("TOKEN_VALIDITY"); ok {
		c.Token.Validity = v
	}
	// Alias en segundos (como lo documenta la plataforma)
	if v, ok := getEnvInt("TOKEN_VALIDITY_SECONDS"); ok {
		c.Token.Validity = strconv.FormatInt(v, 10) + "s"
	}

	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
}
