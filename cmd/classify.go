package cmd

import (
	"github.com/spf13/cobra"

	"tasnim.dev/vpc-topology/internal/topology"
)

func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Run a single classifier and print the result as JSON",
	}
	cmd.AddCommand(newClassifyRouteCmd(), newClassifyENICmd())
	return cmd
}

func newClassifyRouteCmd() *cobra.Command {
	vals := map[string]*string{}

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Classify a route from its raw target fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := topology.RawRoute{
				TargetType:               topology.FlexString(*vals["target-type"]),
				TargetID:                 topology.FlexString(*vals["target-id"]),
				GatewayID:                topology.FlexString(*vals["gateway-id"]),
				NATGatewayID:             topology.FlexString(*vals["nat-gateway-id"]),
				TransitGatewayID:         topology.FlexString(*vals["transit-gateway-id"]),
				VPCPeeringConnectionID:   topology.FlexString(*vals["peering-id"]),
				NetworkInterfaceID:       topology.FlexString(*vals["eni-id"]),
				InstanceID:               topology.FlexString(*vals["instance-id"]),
				Destination:              topology.FlexString(*vals["destination"]),
				DestinationIPv6CIDRBlock: topology.FlexString(*vals["destination-ipv6"]),
				DestinationPrefixListID:  topology.FlexString(*vals["prefix-list"]),
				State:                    topology.FlexString(*vals["state"]),
			}
			return writeOutput(cmd.OutOrStdout(), "json", topology.ClassifyRoute(raw))
		},
	}

	for _, f := range []struct{ name, usage string }{
		{"target-type", "explicit target type (skips inference)"},
		{"target-id", "explicit target id"},
		{"gateway-id", "gateway id (igw-, vgw-, vpce- or local)"},
		{"nat-gateway-id", "NAT gateway id"},
		{"transit-gateway-id", "transit gateway id"},
		{"peering-id", "VPC peering connection id"},
		{"eni-id", "network interface id"},
		{"instance-id", "instance id"},
		{"destination", "destination CIDR"},
		{"destination-ipv6", "destination IPv6 CIDR"},
		{"prefix-list", "destination prefix list id"},
		{"state", "route state"},
	} {
		vals[f.name] = cmd.Flags().String(f.name, "", f.usage)
	}

	return cmd
}

func newClassifyENICmd() *cobra.Command {
	var attachmentType, description string

	cmd := &cobra.Command{
		Use:   "eni",
		Short: "Classify the resource behind a network interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOutput(cmd.OutOrStdout(), "json", map[string]any{
				"resource": topology.ClassifyENI(attachmentType, description),
			})
		},
	}

	cmd.Flags().StringVarP(&attachmentType, "attachment-type", "t", "", "attachment type, e.g. load-balancer or lambda")
	cmd.Flags().StringVarP(&description, "description", "d", "", "interface description")

	return cmd
}
