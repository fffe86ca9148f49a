package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/devtoken/internal/jwt"
	"github.com/dropDatabas3/devtoken/internal/metrics"
	"github.com/dropDatabas3/devtoken/internal/observability/logger"
	"github.com/dropDatabas3/devtoken/internal/util"
)

type issueOutput struct {
	Token     string `json:"token"`
	KeyID     string `json:"kid"`
	Issuer    string `json:"iss"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	ExpiresIn int64  `json:"expires_in"`
}

func newIssueCmd(a *app) *cobra.Command {
	var (
		ttl         time.Duration
		seconds     int64
		asJSON      bool
		dumpMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Firma un token nuevo con la cuenta configurada",
		Long: "Firma un token ES256 con header {alg,kid} y claims {iss,iat,nbf,exp}.\n" +
			"Sin --ttl/--seconds usa token.validity (default 15777000s, ~6 meses).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("ttl") && cmd.Flags().Changed("seconds") {
				return errors.New("--ttl y --seconds son excluyentes")
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			var reg *prometheus.Registry
			if dumpMetrics || cfg.Metrics.Enabled {
				reg = prometheus.NewRegistry()
				if err := metrics.RegisterIssuer(reg); err != nil {
					return err
				}
			}

			iss, err := a.newIssuer(cfg)
			if err != nil {
				return err
			}

			d := iss.DefaultValidity()
			switch {
			case cmd.Flags().Changed("seconds"):
				if d, err = jwt.ValiditySeconds(seconds); err != nil {
					return err
				}
			case cmd.Flags().Changed("ttl"):
				d = ttl
			}

			out, err := iss.Mint(d)
			if err != nil {
				return err
			}
			logger.Named("issue").Info("token issued",
				logger.KeyID(out.KeyID),
				logger.ExpiresAt(out.ExpiresAt),
				logger.String("token", util.MaskSecret(out.Token)),
			)

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				err = enc.Encode(issueOutput{
					Token:     out.Token,
					KeyID:     out.KeyID,
					Issuer:    out.Issuer,
					IssuedAt:  out.IssuedAt.Unix(),
					ExpiresAt: out.ExpiresAt.Unix(),
					ExpiresIn: int64(out.ExpiresAt.Sub(out.IssuedAt) / time.Second),
				})
			} else {
				_, err = fmt.Fprintln(w, out.Token)
			}
			if err != nil {
				return err
			}

			if reg != nil {
				return writeMetrics(cmd, reg)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "validez como duración (ej 1h, 720h)")
	cmd.Flags().Int64Var(&seconds, "seconds", 0, "validez en segundos (1..15777000)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida JSON con token y timestamps")
	cmd.Flags().BoolVar(&dumpMetrics, "metrics", false, "imprime las métricas (formato Prometheus) en stderr")
	return cmd
}

// writeMetrics vuelca el registry en formato texto por stderr; stdout es del token.
func writeMetrics(cmd *cobra.Command, reg *prometheus.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
			return err
		}
	}
	return nil
}
