package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/devtoken/internal/jwt"
	"github.com/dropDatabas3/devtoken/internal/observability/logger"
	"github.com/dropDatabas3/devtoken/internal/util/atomicwrite"
)

func newKeygenCmd(a *app) *cobra.Command {
	var (
		outDir string
		kid    string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera una clave P-256 (PKCS#8 .p8 + pública SPKI) para desarrollo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.initLoggerFromEnv()
			if kid == "" {
				kid = newKeyID()
			}

			kp, err := jwt.GenerateES256Key()
			if err != nil {
				return err
			}

			privPath := filepath.Join(outDir, "AuthKey_"+kid+".p8")
			pubPath := filepath.Join(outDir, "AuthKey_"+kid+".pub")
			opts := atomicwrite.Options{NoClobber: !force, DirPerm: 0o700}
			if err := atomicwrite.WriteFile(privPath, kp.PrivatePEM, 0o600, opts); err != nil {
				return err
			}
			if err := atomicwrite.WriteFile(pubPath, kp.PublicPEM, 0o644, opts); err != nil {
				return err
			}
			logger.Named("keygen").Info("key pair written",
				logger.KeyID(kid), logger.Path(privPath))

			fmt.Fprintf(cmd.OutOrStdout(), "kid=%s\nprivate=%s\npublic=%s\n", kid, privPath, pubPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "directorio de salida")
	cmd.Flags().StringVar(&kid, "kid", "", "key id (default: 10 caracteres aleatorios)")
	cmd.Flags().BoolVar(&force, "force", false, "sobrescribir archivos existentes")
	return cmd
}

// newKeyID imita el formato de la plataforma: 10 caracteres alfanuméricos en mayúscula.
func newKeyID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
}
