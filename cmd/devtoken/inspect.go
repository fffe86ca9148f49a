package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/devtoken/internal/jwt"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [token|-]",
		Short: "Decodifica header y claims SIN verificar la firma",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.initLoggerFromEnv()
			tok, err := readToken(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			d, err := jwt.Inspect(tok)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), d); err != nil {
				return err
			}
			if exp, ok := d.Claims["exp"].(float64); ok {
				left := time.Until(time.Unix(int64(exp), 0)).Truncate(time.Second)
				fmt.Fprintf(cmd.ErrOrStderr(), "expires %s (in %s)\n",
					time.Unix(int64(exp), 0).UTC().Format(time.RFC3339), left)
			}
			return nil
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	var (
		pubFile string
		iss     string
	)
	cmd := &cobra.Command{
		Use:   "verify [token|-]",
		Short: "Verifica firma ES256, iss y ventana de validez",
		Long:  "Sin --pub usa la pública derivada de la clave configurada (y su team id como iss).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := readToken(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			var claims map[string]any
			if pubFile != "" {
				a.initLoggerFromEnv()
				b, err := os.ReadFile(pubFile)
				if err != nil {
					return err
				}
				pub, err := jwt.ParsePublicKeyPEM(b)
				if err != nil {
					return err
				}
				claims, err = jwt.ParseES256(tok, pub, iss)
				if err != nil {
					return err
				}
			} else {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				issuer, err := a.newIssuer(cfg)
				if err != nil {
					return err
				}
				if iss == "" {
					iss = issuer.Account().TeamID
				}
				claims, err = jwt.ParseES256(tok, issuer.Account().PublicKey(), iss)
				if err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), claims)
		},
	}
	cmd.Flags().StringVar(&pubFile, "pub", "", "PEM de la pública (SPKI)")
	cmd.Flags().StringVar(&iss, "iss", "", "issuer esperado (opcional con --pub)")
	return cmd
}

func newJWKSCmd(a *app) *cobra.Command {
	var (
		pubFile string
		kid     string
	)
	cmd := &cobra.Command{
		Use:   "jwks",
		Short: "Imprime el JWKS de la clave (sólo la pública)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pubFile != "" {
				a.initLoggerFromEnv()
				if kid == "" {
					return errors.New("--kid es requerido con --pub")
				}
				b, err := os.ReadFile(pubFile)
				if err != nil {
					return err
				}
				pub, err := jwt.ParsePublicKeyPEM(b)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), jwt.JWKS{Keys: []jwt.JWK{jwt.PublicJWK(kid, pub)}})
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			issuer, err := a.newIssuer(cfg)
			if err != nil {
				return err
			}
			raw, err := issuer.JWKSJSON()
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&pubFile, "pub", "", "PEM de la pública (SPKI); sin esto usa la cuenta configurada")
	cmd.Flags().StringVar(&kid, "kid", "", "key id para el JWK (requerido con --pub)")
	return cmd
}

// readToken toma el token del argumento o, con "-" o sin args, de stdin.
func readToken(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	tok := strings.TrimSpace(line)
	if tok == "" {
		return "", errors.New("token vacío")
	}
	return tok, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
