package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	awsclient "tasnim.dev/vpc-topology/internal/aws"
	"tasnim.dev/vpc-topology/internal/config"
	"tasnim.dev/vpc-topology/internal/httpapi"
	"tasnim.dev/vpc-topology/internal/logging"
	"tasnim.dev/vpc-topology/internal/metrics"
	"tasnim.dev/vpc-topology/internal/rulecache"
)

func NewServeCmd() *cobra.Command {
	var (
		addr    string
		profile string
		region  string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the topology engine over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			log := logging.New(cfg.LogLevel, os.Stdout)
			m := metrics.New()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Security group rules need an AWS session; without one the
			// endpoint answers 503 and everything else still works.
			var rules *rulecache.Cache
			if !offline {
				profile, region = cfg.Merge(profile, region)
				client, err := awsclient.NewServiceClient(ctx, profile, region, log)
				if err != nil {
					log.Warn().Err(err).Msg("no AWS session, security group rules disabled")
				} else {
					rules = rulecache.New(client.VPC, m)
					log.Info().Str("region", client.Region).Str("account", client.Account).Msg("AWS session ready")
				}
			}

			srv := &http.Server{
				Addr:              cfg.Addr(addr),
				Handler:           httpapi.NewHandler(log, m, rules, cfg.LayoutConfig()).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "AWS profile to use for security group rules")
	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region to use for security group rules")
	cmd.Flags().BoolVar(&offline, "offline", false, "do not open an AWS session")

	return cmd
}
