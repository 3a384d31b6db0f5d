package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tasnim.dev/vpc-topology/internal/config"
	"tasnim.dev/vpc-topology/internal/logging"
)

func NewDiscoverCmd() *cobra.Command {
	var (
		src sourceFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Fetch a VPC from AWS and write the discovery response as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			log := logging.NewConsole(cfg.LogLevel, cmd.ErrOrStderr())

			ctx := cmd.Context()
			client, vpcID, err := src.session(ctx, cfg, log)
			if err != nil {
				return err
			}
			resp, err := client.VPC.Discover(ctx, vpcID)
			if err != nil {
				return err
			}
			log.Info().Str("vpc", vpcID).Str("region", client.Region).Str("account", client.Account).Msg("discovered")

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeOutput(w, "json", resp)
		},
	}

	src.registerAWS(cmd)
	cmd.Flags().StringVar(&out, "out", "", "output path (stdout when empty)")

	return cmd
}
