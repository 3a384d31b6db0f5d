package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tasnim.dev/vpc-topology/internal/config"
	"tasnim.dev/vpc-topology/internal/logging"
	"tasnim.dev/vpc-topology/internal/store"
	"tasnim.dev/vpc-topology/internal/topology"
)

func NewExportCmd() *cobra.Command {
	var (
		src    sourceFlags
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build the topology and write it as JSON, YAML or SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "sqlite" && out == "" {
				return fmt.Errorf("--format sqlite needs --out")
			}
			if format != "json" && format != "yaml" && format != "sqlite" {
				return fmt.Errorf("unknown format %q (json, yaml or sqlite)", format)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			log := logging.NewConsole(cfg.LogLevel, cmd.ErrOrStderr())

			var resp *topology.Response
			if src.file != "" {
				resp, err = readResponse(src.file)
			} else {
				ctx := cmd.Context()
				client, vpcID, serr := src.session(ctx, cfg, log)
				if serr != nil {
					return serr
				}
				resp, err = client.VPC.Discover(ctx, vpcID)
			}
			if err != nil {
				return err
			}

			snap, err := buildSnapshot(resp, cfg, src.noInfer, log, nil)
			if err != nil {
				return err
			}

			if format == "sqlite" {
				db, err := store.Open(out)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.SaveSnapshot(cmd.Context(), snap); err != nil {
					return err
				}
				log.Info().Str("path", out).Str("vpc", snap.Network.VPC.ID).Msg("snapshot written")
				return nil
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeOutput(w, format, snap.Output())
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "o", "json", "output format: json, yaml or sqlite")
	cmd.Flags().StringVar(&out, "out", "", "output path (stdout when empty; required for sqlite)")

	return cmd
}

func writeOutput(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
