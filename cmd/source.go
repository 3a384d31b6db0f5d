package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	awsclient "tasnim.dev/vpc-topology/internal/aws"
	"tasnim.dev/vpc-topology/internal/config"
	"tasnim.dev/vpc-topology/internal/metrics"
	"tasnim.dev/vpc-topology/internal/topology"
)

// sourceFlags selects where discovery data comes from: a JSON file, or a live
// AWS session scoped to one VPC.
type sourceFlags struct {
	file    string
	vpc     string
	profile string
	region  string
	noInfer bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read a discovery response from a JSON file (- for stdin)")
	f.registerAWS(cmd)
	cmd.Flags().BoolVar(&f.noInfer, "no-infer", false, "do not infer subnet types from default routes")
}

func (f *sourceFlags) registerAWS(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.vpc, "vpc", "", "VPC id to discover")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "AWS profile to use")
	cmd.Flags().StringVarP(&f.region, "region", "r", "", "AWS region to use")
}

// describe names the source for headers and log lines.
func (f *sourceFlags) describe(vpcID, region string) string {
	if f.file != "" {
		return "file " + f.file
	}
	return fmt.Sprintf("%s (%s)", vpcID, region)
}

// session opens an AWS session and resolves the VPC to discover. When no VPC
// is given and the region holds exactly one, that one is used.
func (f *sourceFlags) session(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*awsclient.ServiceClient, string, error) {
	profile, region := cfg.Merge(f.profile, f.region)
	client, err := awsclient.NewServiceClient(ctx, profile, region, log)
	if err != nil {
		return nil, "", fmt.Errorf("initializing AWS client: %w", err)
	}

	vpcID := cfg.VPC(f.vpc)
	if vpcID != "" {
		return client, vpcID, nil
	}
	vpcs, err := client.VPC.ListVPCs(ctx)
	if err != nil {
		return nil, "", err
	}
	switch len(vpcs) {
	case 0:
		return nil, "", fmt.Errorf("no VPCs in %s", client.Region)
	case 1:
		return client, vpcs[0].VPCID, nil
	}
	ids := make([]string, 0, len(vpcs))
	for _, v := range vpcs {
		ids = append(ids, v.VPCID)
	}
	return nil, "", fmt.Errorf("%d VPCs in %s, pass --vpc (one of %s)", len(vpcs), client.Region, strings.Join(ids, ", "))
}

func readResponse(path string) (*topology.Response, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var resp topology.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &resp, nil
}

// buildSnapshot runs the engine over resp and records the build.
func buildSnapshot(resp *topology.Response, cfg *config.Config, noInfer bool, log zerolog.Logger, m *metrics.Metrics) (*topology.Snapshot, error) {
	opts := []topology.Option{
		topology.WithLayoutConfig(cfg.LayoutConfig()),
		topology.WithLogger(log),
	}
	if noInfer {
		opts = append(opts, topology.WithoutTypeInference())
	}

	start := time.Now()
	snap, err := topology.Build(resp, opts...)
	if err != nil {
		m.ObserveSnapshotBuild(topology.Stats{}, err, time.Since(start))
		return nil, err
	}
	m.ObserveSnapshotBuild(snap.Stats(), nil, time.Since(start))
	return snap, nil
}
