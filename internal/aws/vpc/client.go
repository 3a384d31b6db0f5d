package vpc

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog"
)

type VPCAPI interface {
	DescribeVpcs(ctx context.Context, params *awsec2.DescribeVpcsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeVpcsOutput, error)
	DescribeSubnets(ctx context.Context, params *awsec2.DescribeSubnetsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeSubnetsOutput, error)
	DescribeSecurityGroups(ctx context.Context, params *awsec2.DescribeSecurityGroupsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeSecurityGroupsOutput, error)
	DescribeSecurityGroupRules(ctx context.Context, params *awsec2.DescribeSecurityGroupRulesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeSecurityGroupRulesOutput, error)
	DescribeInternetGateways(ctx context.Context, params *awsec2.DescribeInternetGatewaysInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeInternetGatewaysOutput, error)
	DescribeRouteTables(ctx context.Context, params *awsec2.DescribeRouteTablesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeRouteTablesOutput, error)
	DescribeNatGateways(ctx context.Context, params *awsec2.DescribeNatGatewaysInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeNatGatewaysOutput, error)
	DescribeVpcEndpoints(ctx context.Context, params *awsec2.DescribeVpcEndpointsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeVpcEndpointsOutput, error)
	DescribeVpcPeeringConnections(ctx context.Context, params *awsec2.DescribeVpcPeeringConnectionsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeVpcPeeringConnectionsOutput, error)
	DescribeVpnGateways(ctx context.Context, params *awsec2.DescribeVpnGatewaysInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeVpnGatewaysOutput, error)
	DescribeVpnConnections(ctx context.Context, params *awsec2.DescribeVpnConnectionsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeVpnConnectionsOutput, error)
	DescribeTransitGatewayAttachments(ctx context.Context, params *awsec2.DescribeTransitGatewayAttachmentsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeTransitGatewayAttachmentsOutput, error)
	DescribeNetworkInterfaces(ctx context.Context, params *awsec2.DescribeNetworkInterfacesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeNetworkInterfacesOutput, error)
}

type Client struct {
	api VPCAPI
	log zerolog.Logger
}

type Option func(*Client)

// WithLogger sets the logger used when optional sections are skipped.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(api VPCAPI, opts ...Option) *Client {
	c := &Client{api: api, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func nameFromTags(tags []types.Tag) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == "Name" {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}

func tagMap(tags []types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return m
}

func vpcFilter(name, vpcID string) []types.Filter {
	return []types.Filter{{Name: aws.String(name), Values: []string{vpcID}}}
}

func (c *Client) ListVPCs(ctx context.Context) ([]VPCInfo, error) {
	return c.describeVPCs(ctx, nil)
}

// GetVPC returns a single VPC by id.
func (c *Client) GetVPC(ctx context.Context, vpcID string) (VPCInfo, error) {
	vpcs, err := c.describeVPCs(ctx, []string{vpcID})
	if err != nil {
		return VPCInfo{}, err
	}
	if len(vpcs) == 0 {
		return VPCInfo{}, fmt.Errorf("vpc %s not found", vpcID)
	}
	return vpcs[0], nil
}

func (c *Client) describeVPCs(ctx context.Context, ids []string) ([]VPCInfo, error) {
	var vpcs []VPCInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeVpcs(ctx, &awsec2.DescribeVpcsInput{
			VpcIds:    ids,
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeVpcs: %w", err)
		}

		for _, v := range out.Vpcs {
			vpcs = append(vpcs, VPCInfo{
				VPCID:     aws.ToString(v.VpcId),
				Name:      nameFromTags(v.Tags),
				CIDR:      aws.ToString(v.CidrBlock),
				IsDefault: aws.ToBool(v.IsDefault),
				State:     string(v.State),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return vpcs, nil
}

func (c *Client) ListSubnets(ctx context.Context, vpcID string) ([]SubnetInfo, error) {
	var subnets []SubnetInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeSubnets(ctx, &awsec2.DescribeSubnetsInput{
			Filters:   vpcFilter("vpc-id", vpcID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeSubnets: %w", err)
		}

		for _, s := range out.Subnets {
			name := nameFromTags(s.Tags)
			subnets = append(subnets, SubnetInfo{
				SubnetID:     aws.ToString(s.SubnetId),
				Name:         name,
				CIDR:         aws.ToString(s.CidrBlock),
				AZ:           aws.ToString(s.AvailabilityZone),
				AvailableIPs: int(aws.ToInt32(s.AvailableIpAddressCount)),
				Tier:         subnetTier(name, s.Tags),
				Tags:         tagMap(s.Tags),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return subnets, nil
}

// subnetTier reads the tier from a Type or Tier tag, then from the subnet
// name. It returns "" when neither gives a hint.
func subnetTier(name string, tags []types.Tag) string {
	for _, tag := range tags {
		switch aws.ToString(tag.Key) {
		case "Type", "type", "Tier", "tier":
			if v := aws.ToString(tag.Value); v != "" {
				return strings.ToLower(v)
			}
		}
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "public"):
		return "public"
	case strings.Contains(lower, "private"):
		return "private"
	case strings.Contains(lower, "database"), hasToken(lower, "db"):
		return "database"
	}
	return ""
}

// hasToken reports whether tok is a whole word of name, splitting on
// separators commonly used in resource names.
func hasToken(name, tok string) bool {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		switch r {
		case '-', '_', ' ', '.', '/':
			return true
		}
		return false
	})
	return slices.Contains(fields, tok)
}

// ListSecurityGroups returns a summary of every security group in the VPC,
// counting permissions rather than expanding them.
func (c *Client) ListSecurityGroups(ctx context.Context, vpcID string) ([]SecurityGroupInfo, error) {
	var sgs []SecurityGroupInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeSecurityGroups(ctx, &awsec2.DescribeSecurityGroupsInput{
			Filters:   vpcFilter("vpc-id", vpcID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeSecurityGroups: %w", err)
		}

		for _, sg := range out.SecurityGroups {
			sgs = append(sgs, SecurityGroupInfo{
				GroupID:       aws.ToString(sg.GroupId),
				Name:          aws.ToString(sg.GroupName),
				Description:   aws.ToString(sg.Description),
				InboundRules:  len(sg.IpPermissions),
				OutboundRules: len(sg.IpPermissionsEgress),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return sgs, nil
}

func (c *Client) ListSecurityGroupRules(ctx context.Context, groupID string) ([]SecurityGroupRule, error) {
	var rules []SecurityGroupRule
	var nextToken *string

	for {
		out, err := c.api.DescribeSecurityGroupRules(ctx, &awsec2.DescribeSecurityGroupRulesInput{
			Filters:   vpcFilter("group-id", groupID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeSecurityGroupRules: %w", err)
		}

		for _, r := range out.SecurityGroupRules {
			direction := "inbound"
			if aws.ToBool(r.IsEgress) {
				direction = "outbound"
			}
			source := aws.ToString(r.CidrIpv4)
			if source == "" {
				source = aws.ToString(r.CidrIpv6)
			}
			if source == "" && r.ReferencedGroupInfo != nil {
				source = aws.ToString(r.ReferencedGroupInfo.GroupId)
			}
			if source == "" {
				source = aws.ToString(r.PrefixListId)
			}
			rules = append(rules, SecurityGroupRule{
				RuleID:      aws.ToString(r.SecurityGroupRuleId),
				Direction:   direction,
				Protocol:    NormalizeProtocol(aws.ToString(r.IpProtocol)),
				PortRange:   PortRange(aws.ToInt32(r.FromPort), aws.ToInt32(r.ToPort)),
				Source:      source,
				Description: aws.ToString(r.Description),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return rules, nil
}

func (c *Client) ListInternetGateways(ctx context.Context, vpcID string) ([]InternetGatewayInfo, error) {
	var igws []InternetGatewayInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeInternetGateways(ctx, &awsec2.DescribeInternetGatewaysInput{
			Filters:   vpcFilter("attachment.vpc-id", vpcID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeInternetGateways: %w", err)
		}

		for _, igw := range out.InternetGateways {
			state := "detached"
			for _, att := range igw.Attachments {
				if aws.ToString(att.VpcId) == vpcID {
					state = string(att.State)
					break
				}
			}
			igws = append(igws, InternetGatewayInfo{
				GatewayID: aws.ToString(igw.InternetGatewayId),
				Name:      nameFromTags(igw.Tags),
				State:     state,
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return igws, nil
}

func (c *Client) ListRouteTables(ctx context.Context, vpcID string) ([]RouteTableInfo, error) {
	var rts []RouteTableInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeRouteTables(ctx, &awsec2.DescribeRouteTablesInput{
			Filters:   vpcFilter("vpc-id", vpcID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeRouteTables: %w", err)
		}

		for _, rt := range out.RouteTables {
			info := RouteTableInfo{
				RouteTableID: aws.ToString(rt.RouteTableId),
				Name:         nameFromTags(rt.Tags),
			}
			for _, r := range rt.Routes {
				info.Routes = append(info.Routes, routeEntry(r))
			}
			for _, a := range rt.Associations {
				if aws.ToBool(a.Main) {
					info.IsMain = true
				}
				// the main association carries no subnet
				if a.SubnetId == nil {
					continue
				}
				info.Associations = append(info.Associations, RouteTableAssociation{
					SubnetID: aws.ToString(a.SubnetId),
					IsMain:   aws.ToBool(a.Main),
				})
			}
			rts = append(rts, info)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return rts, nil
}

func routeEntry(r types.Route) RouteEntry {
	e := RouteEntry{
		Status: string(r.State),
		Origin: string(r.Origin),
	}
	switch {
	case r.DestinationCidrBlock != nil:
		e.Destination = aws.ToString(r.DestinationCidrBlock)
	case r.DestinationIpv6CidrBlock != nil:
		e.Destination = aws.ToString(r.DestinationIpv6CidrBlock)
	default:
		e.Destination = aws.ToString(r.DestinationPrefixListId)
	}

	targets := []struct {
		field string
		id    *string
	}{
		{TargetFieldGateway, r.GatewayId},
		{TargetFieldNATGateway, r.NatGatewayId},
		{TargetFieldTransitGateway, r.TransitGatewayId},
		{TargetFieldVPCPeering, r.VpcPeeringConnectionId},
		{TargetFieldNetworkInterface, r.NetworkInterfaceId},
		{TargetFieldInstance, r.InstanceId},
		{TargetFieldOther, r.EgressOnlyInternetGatewayId},
		{TargetFieldOther, r.LocalGatewayId},
		{TargetFieldOther, r.CarrierGatewayId},
		{TargetFieldOther, r.CoreNetworkArn},
	}
	for _, t := range targets {
		if id := aws.ToString(t.id); id != "" {
			e.Target = id
			e.TargetField = t.field
			break
		}
	}
	return e
}

func (c *Client) ListNATGateways(ctx context.Context, vpcID string) ([]NATGatewayInfo, error) {
	var nats []NATGatewayInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeNatGateways(ctx, &awsec2.DescribeNatGatewaysInput{
			Filter:    vpcFilter("vpc-id", vpcID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeNatGateways: %w", err)
		}

		for _, n := range out.NatGateways {
			info := NATGatewayInfo{
				GatewayID: aws.ToString(n.NatGatewayId),
				Name:      nameFromTags(n.Tags),
				State:     string(n.State),
				Type:      string(n.ConnectivityType),
				SubnetID:  aws.ToString(n.SubnetId),
			}
			if len(n.NatGatewayAddresses) > 0 {
				info.ElasticIP = aws.ToString(n.NatGatewayAddresses[0].PublicIp)
				info.PrivateIP = aws.ToString(n.NatGatewayAddresses[0].PrivateIp)
			}
			nats = append(nats, info)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return nats, nil
}

func (c *Client) ListVPCEndpoints(ctx context.Context, vpcID string) ([]VPCEndpointInfo, error) {
	var eps []VPCEndpointInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeVpcEndpoints(ctx, &awsec2.DescribeVpcEndpointsInput{
			Filters:   vpcFilter("vpc-id", vpcID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeVpcEndpoints: %w", err)
		}

		for _, ep := range out.VpcEndpoints {
			eps = append(eps, VPCEndpointInfo{
				EndpointID:    aws.ToString(ep.VpcEndpointId),
				Name:          nameFromTags(ep.Tags),
				ServiceName:   aws.ToString(ep.ServiceName),
				Type:          string(ep.VpcEndpointType),
				State:         string(ep.State),
				SubnetIDs:     ep.SubnetIds,
				RouteTableIDs: ep.RouteTableIds,
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return eps, nil
}

// ListVPCPeering returns peerings where the VPC is either requester or
// accepter.
func (c *Client) ListVPCPeering(ctx context.Context, vpcID string) ([]VPCPeeringInfo, error) {
	var peerings []VPCPeeringInfo
	seen := map[string]bool{}

	for _, side := range []string{"requester-vpc-info.vpc-id", "accepter-vpc-info.vpc-id"} {
		var nextToken *string
		for {
			out, err := c.api.DescribeVpcPeeringConnections(ctx, &awsec2.DescribeVpcPeeringConnectionsInput{
				Filters:   vpcFilter(side, vpcID),
				NextToken: nextToken,
			})
			if err != nil {
				return nil, fmt.Errorf("DescribeVpcPeeringConnections: %w", err)
			}

			for _, p := range out.VpcPeeringConnections {
				id := aws.ToString(p.VpcPeeringConnectionId)
				if seen[id] {
					continue
				}
				seen[id] = true
				info := VPCPeeringInfo{
					PeeringID: id,
					Name:      nameFromTags(p.Tags),
				}
				if p.Status != nil {
					info.Status = string(p.Status.Code)
				}
				if p.RequesterVpcInfo != nil {
					info.RequesterVPC = aws.ToString(p.RequesterVpcInfo.VpcId)
					info.RequesterCIDR = aws.ToString(p.RequesterVpcInfo.CidrBlock)
				}
				if p.AccepterVpcInfo != nil {
					info.AccepterVPC = aws.ToString(p.AccepterVpcInfo.VpcId)
					info.AccepterCIDR = aws.ToString(p.AccepterVpcInfo.CidrBlock)
				}
				peerings = append(peerings, info)
			}

			if out.NextToken == nil {
				break
			}
			nextToken = out.NextToken
		}
	}
	return peerings, nil
}

// ListVPNConnections returns the VPN connections terminating on virtual
// private gateways attached to the VPC.
func (c *Client) ListVPNConnections(ctx context.Context, vpcID string) ([]VPNConnectionInfo, error) {
	gws, err := c.api.DescribeVpnGateways(ctx, &awsec2.DescribeVpnGatewaysInput{
		Filters: vpcFilter("attachment.vpc-id", vpcID),
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeVpnGateways: %w", err)
	}
	var gwIDs []string
	for _, gw := range gws.VpnGateways {
		gwIDs = append(gwIDs, aws.ToString(gw.VpnGatewayId))
	}
	if len(gwIDs) == 0 {
		return nil, nil
	}

	out, err := c.api.DescribeVpnConnections(ctx, &awsec2.DescribeVpnConnectionsInput{
		Filters: []types.Filter{{Name: aws.String("vpn-gateway-id"), Values: gwIDs}},
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeVpnConnections: %w", err)
	}
	var conns []VPNConnectionInfo
	for _, v := range out.VpnConnections {
		conns = append(conns, VPNConnectionInfo{
			ConnectionID: aws.ToString(v.VpnConnectionId),
			Name:         nameFromTags(v.Tags),
			State:        string(v.State),
			GatewayID:    aws.ToString(v.VpnGatewayId),
		})
	}
	return conns, nil
}

func (c *Client) ListTransitGatewayAttachments(ctx context.Context, vpcID string) ([]TransitGatewayAttachmentInfo, error) {
	var atts []TransitGatewayAttachmentInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeTransitGatewayAttachments(ctx, &awsec2.DescribeTransitGatewayAttachmentsInput{
			Filters: []types.Filter{
				{Name: aws.String("resource-type"), Values: []string{"vpc"}},
				{Name: aws.String("resource-id"), Values: []string{vpcID}},
			},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeTransitGatewayAttachments: %w", err)
		}

		for _, a := range out.TransitGatewayAttachments {
			atts = append(atts, TransitGatewayAttachmentInfo{
				AttachmentID:     aws.ToString(a.TransitGatewayAttachmentId),
				Name:             nameFromTags(a.Tags),
				State:            string(a.State),
				TransitGatewayID: aws.ToString(a.TransitGatewayId),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return atts, nil
}

func (c *Client) ListNetworkInterfaces(ctx context.Context, vpcID string) ([]NetworkInterfaceInfo, error) {
	var enis []NetworkInterfaceInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeNetworkInterfaces(ctx, &awsec2.DescribeNetworkInterfacesInput{
			Filters:   vpcFilter("vpc-id", vpcID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeNetworkInterfaces: %w", err)
		}

		for _, ni := range out.NetworkInterfaces {
			info := NetworkInterfaceInfo{
				InterfaceID:    aws.ToString(ni.NetworkInterfaceId),
				Description:    aws.ToString(ni.Description),
				InterfaceType:  string(ni.InterfaceType),
				AttachmentType: attachmentType(ni),
				PrivateIP:      aws.ToString(ni.PrivateIpAddress),
				AZ:             aws.ToString(ni.AvailabilityZone),
				SubnetID:       aws.ToString(ni.SubnetId),
			}
			if ni.Association != nil {
				info.PublicIP = aws.ToString(ni.Association.PublicIp)
			}
			for _, g := range ni.Groups {
				info.SecurityGroups = append(info.SecurityGroups, aws.ToString(g.GroupId))
			}
			enis = append(enis, info)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return enis, nil
}

// attachmentType names the kind of resource an interface serves, using the
// interface type first, then the requester, then the description.
func attachmentType(ni types.NetworkInterface) string {
	desc := aws.ToString(ni.Description)
	switch string(ni.InterfaceType) {
	case "nat_gateway", "natGateway":
		return "nat-gateway"
	case "lambda":
		return "lambda"
	case "load_balancer", "network_load_balancer", "gateway_load_balancer":
		return "load-balancer"
	case "vpc_endpoint", "gateway_load_balancer_endpoint":
		return "vpc-endpoint"
	case "transit_gateway":
		return "transit-gateway"
	}

	switch aws.ToString(ni.RequesterId) {
	case "amazon-rds":
		return "rds"
	case "amazon-elasticache":
		return "elasticache"
	}

	switch {
	case strings.HasPrefix(desc, "ELB "):
		return "load-balancer"
	case strings.HasPrefix(desc, "arn:aws:ecs:"):
		return "ecs-task"
	case strings.HasPrefix(desc, "RDSNetworkInterface"):
		return "rds"
	case strings.HasPrefix(desc, "ElastiCache "):
		return "elasticache"
	case strings.HasPrefix(desc, "AWS Lambda VPC ENI"):
		return "lambda"
	case strings.HasPrefix(desc, "Interface for NAT Gateway"):
		return "nat-gateway"
	case strings.Contains(desc, "CloudFront"):
		return "cloudfront"
	}

	if ni.Attachment != nil && ni.Attachment.InstanceId != nil {
		return "ec2-instance"
	}
	return string(ni.InterfaceType)
}
