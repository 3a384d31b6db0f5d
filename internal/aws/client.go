package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/rs/zerolog"

	awsvpc "tasnim.dev/vpc-topology/internal/aws/vpc"
)

// ServiceClient bundles the clients the topology tools talk to.
type ServiceClient struct {
	VPC     *awsvpc.Client
	Region  string
	Account string
}

func NewServiceClient(ctx context.Context, profile, region string, log zerolog.Logger) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, err
	}

	sc := &ServiceClient{
		VPC:    awsvpc.NewClient(ec2.NewFromConfig(cfg), awsvpc.WithLogger(log)),
		Region: cfg.Region,
	}
	if id, err := CallerIdentity(ctx, cfg); err != nil {
		log.Debug().Err(err).Msg("caller identity unavailable")
	} else {
		sc.Account = id.Account
	}
	return sc, nil
}
