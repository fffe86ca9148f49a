package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/devtoken/internal/config"
	"github.com/dropDatabas3/devtoken/internal/jwt"
	"github.com/dropDatabas3/devtoken/internal/observability/logger"
)

// version se pisa en build: -ldflags "-X main.version=..."
var version = "dev"

type app struct {
	ConfigPath string
	EnvFile    string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func newRootCmd() *cobra.Command {
	a := &app{
		ConfigPath: envOr("DEVTOKEN_CONFIG", ""),
		EnvFile:    ".env",
	}

	root := &cobra.Command{
		Use:           "devtoken",
		Short:         "Emite developer tokens ES256 (iss/iat/nbf/exp) para la API de la plataforma",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.EnvFile != "" {
				// .env es opcional; las variables ya exportadas ganan
				_ = godotenv.Load(a.EnvFile)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.ConfigPath, "config", a.ConfigPath, "ruta a devtoken.yaml (env DEVTOKEN_CONFIG); vacío => sólo env")
	root.PersistentFlags().StringVar(&a.EnvFile, "env-file", a.EnvFile, "ruta a .env (opcional)")

	root.AddCommand(
		newIssueCmd(a),
		newKeygenCmd(a),
		newInspectCmd(a),
		newVerifyCmd(a),
		newJWKSCmd(a),
	)
	return root
}

// loadConfig carga la config e inicializa el logger con ella.
func (a *app) loadConfig() (*config.Config, error) {
	path := a.ConfigPath
	if path == "" && fileExists("devtoken.yaml") {
		path = "devtoken.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		a.initLoggerFromEnv()
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.Init(logger.Config{
		Env:         cfg.Log.Env,
		Level:       cfg.Log.Level,
		ServiceName: "devtoken",
		Version:     version,
	})
	if path != "" {
		logger.Named("config").Debug("config loaded", logger.Path(path))
	}
	return cfg, nil
}

// initLoggerFromEnv es para los comandos que no necesitan cuenta (keygen, inspect).
func (a *app) initLoggerFromEnv() {
	logger.Init(logger.Config{
		Env:         envOr("LOG_ENV", envOr("APP_ENV", "dev")),
		Level:       envOr("LOG_LEVEL", "info"),
		ServiceName: "devtoken",
		Version:     version,
	})
}

// newIssuer arma el issuer a partir de la cuenta configurada.
func (a *app) newIssuer(cfg *config.Config) (*jwt.Issuer, error) {
	material, err := cfg.PrivateKeyMaterial()
	if err != nil {
		return nil, err
	}
	validity, err := cfg.Validity()
	if err != nil {
		return nil, err
	}
	return jwt.NewIssuer(material, cfg.Account.TeamID, cfg.Account.KeyID,
		jwt.WithDefaultValidity(validity),
		jwt.WithLogger(logger.Named("issuer")),
	)
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
