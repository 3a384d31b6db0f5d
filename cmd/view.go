package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tasnim.dev/vpc-topology/internal/config"
	"tasnim.dev/vpc-topology/internal/logging"
	"tasnim.dev/vpc-topology/internal/rulecache"
	"tasnim.dev/vpc-topology/internal/topology"
	"tasnim.dev/vpc-topology/internal/tui"
)

func NewViewCmd() *cobra.Command {
	var (
		src         sourceFlags
		autoRefresh bool
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse a VPC topology in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			// The viewer owns the terminal, so logs go to a file.
			log, closeLog := viewerLogger(cfg.LogLevel)
			defer closeLog()

			opts := tui.Options{
				Layout:          cfg.LayoutConfig(),
				RefreshInterval: cfg.RefreshInterval(),
				AutoRefresh:     autoRefresh,
				Log:             log,
			}

			var load tui.Loader
			if src.file != "" {
				opts.Source = src.describe("", "")
				load = func(context.Context) (*topology.Snapshot, error) {
					resp, err := readResponse(src.file)
					if err != nil {
						return nil, err
					}
					return buildSnapshot(resp, cfg, src.noInfer, log, nil)
				}
			} else {
				ctx := cmd.Context()
				client, vpcID, err := src.session(ctx, cfg, log)
				if err != nil {
					return err
				}
				opts.Source = src.describe(vpcID, client.Region)
				opts.Rules = rulecache.New(client.VPC, nil)
				load = func(ctx context.Context) (*topology.Snapshot, error) {
					resp, err := client.VPC.Discover(ctx, vpcID)
					if err != nil {
						return nil, err
					}
					return buildSnapshot(resp, cfg, src.noInfer, log, nil)
				}
			}

			p := tea.NewProgram(tui.NewModel(load, opts))
			if _, err := p.Run(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().BoolVarP(&autoRefresh, "auto-refresh", "a", false, "start with auto-refresh enabled")

	return cmd
}

func viewerLogger(level string) (zerolog.Logger, func()) {
	dir, err := config.Dir()
	if err != nil {
		return logging.New(level, io.Discard), func() {}
	}
	f, err := logging.OpenFile(dir, "viewer.log")
	if err != nil {
		return logging.New(level, io.Discard), func() {}
	}
	return logging.New(level, f), func() { f.Close() }
}
