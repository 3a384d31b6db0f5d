package topology

import (
	"regexp"
	"strings"
)

// ENIResource is the resource an interface belongs to, as read from its
// attachment type and description.
type ENIResource struct {
	ResourceType string `json:"resourceType" yaml:"resourceType"`
	ResourceName string `json:"resourceName" yaml:"resourceName"`
	ResourceID   string `json:"resourceId,omitempty" yaml:"resourceId,omitempty"`
}

type eniExtractor func(description string) *ENIResource

var (
	elbPattern         = regexp.MustCompile(`ELB\s+(app|net)/([^/]+)/`)
	elasticachePattern = regexp.MustCompile(`ElastiCache\s+(.+)`)
	natPattern         = regexp.MustCompile(`NAT Gateway\s+(nat-\w+)`)
	lambdaPattern      = regexp.MustCompile(`:function:([^:]+)`)
)

const ecsAttachmentMarker = ":attachment/"

// eniExtractors is keyed by attachment type. Each extractor returns nil when
// its pattern does not match.
var eniExtractors = map[string]eniExtractor{
	"load-balancer": extractLoadBalancer,
	"ecs-task":      extractECSTask,
	"rds": func(string) *ENIResource {
		return &ENIResource{ResourceType: "RDS", ResourceName: "Database Instance"}
	},
	"elasticache": func(desc string) *ENIResource {
		m := elasticachePattern.FindStringSubmatch(desc)
		if m == nil {
			return nil
		}
		return &ENIResource{ResourceType: "ElastiCache", ResourceName: m[1]}
	},
	"nat-gateway": func(desc string) *ENIResource {
		m := natPattern.FindStringSubmatch(desc)
		if m == nil {
			return nil
		}
		return &ENIResource{ResourceType: "NAT Gateway", ResourceName: m[1], ResourceID: m[1]}
	},
	"cloudfront": func(string) *ENIResource {
		return &ENIResource{ResourceType: "CloudFront", ResourceName: "VPC Origin"}
	},
	"lambda": func(desc string) *ENIResource {
		m := lambdaPattern.FindStringSubmatch(desc)
		if m == nil {
			return nil
		}
		return &ENIResource{ResourceType: "Lambda", ResourceName: m[1]}
	},
}

// ClassifyENI returns the resource behind an interface, or nil when the
// attachment type is unknown or its description does not match.
func ClassifyENI(attachmentType, description string) *ENIResource {
	extract, ok := eniExtractors[attachmentType]
	if !ok {
		return nil
	}
	return extract(description)
}

func extractLoadBalancer(desc string) *ENIResource {
	m := elbPattern.FindStringSubmatch(desc)
	if m == nil {
		return nil
	}
	res := &ENIResource{ResourceType: "NLB", ResourceName: m[2]}
	if m[1] == "app" {
		res.ResourceType = "ALB"
	}
	if parts := strings.Split(desc, "/"); len(parts) >= 3 {
		res.ResourceID = parts[2]
	}
	return res
}

func extractECSTask(desc string) *ENIResource {
	idx := strings.Index(desc, ecsAttachmentMarker)
	if idx < 0 {
		return nil
	}
	id := []rune(desc[idx+len(ecsAttachmentMarker):])
	if len(id) > 8 {
		id = id[:8]
	}
	return &ENIResource{ResourceType: "ECS Task", ResourceName: "Fargate Task", ResourceID: string(id)}
}
