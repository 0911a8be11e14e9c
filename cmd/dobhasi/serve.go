package main

import (
	"time"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/ZaguanLabs/dobhasi/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr       string
		minSpacing time.Duration
		maxTexts   int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the hosted translate function over HTTP",
		Long: `Serve POST /translate in front of the configured backend. Clients point
the function provider at it. The server does not cache; each client keeps
its own cache and rate limit. GET /healthz and GET /metrics are public.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			backend := a.provider
			if minSpacing > 0 {
				backend = dobhasi.NewRateLimitedProvider(backend, dobhasi.RateLimitConfig{MinInterval: minSpacing})
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			srv := server.New(backend,
				server.WithLogger(a.logger.Named("server")),
				server.WithAPIKey(a.cfg.Server.APIKey),
				server.WithMaxTexts(maxTexts),
				server.WithShutdownTimeout(a.cfg.Server.ShutdownTimeout),
			)

			a.logger.Info("starting translate function",
				zap.String("addr", addr),
				zap.String("provider", a.cfg.Provider.Name),
				zap.Bool("auth", a.cfg.Server.APIKey != ""),
			)
			return srv.Run(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr, :8080)")
	cmd.Flags().DurationVar(&minSpacing, "min-interval", 0, "Minimum spacing between backend calls across all clients (0 disables)")
	cmd.Flags().IntVar(&maxTexts, "max-texts", server.DefaultMaxTexts, "Maximum number of texts per request")

	return cmd
}
