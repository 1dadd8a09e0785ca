package openstack

import (
	"context"
	"fmt"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/groups"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/rules"

	"github.com/gammadia/furnace/provider/internal"
	"github.com/gammadia/furnace/resource"
)

type securityGroupPlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*securityGroupPlugin)(nil)
var _ resource.Validator = (*securityGroupPlugin)(nil)

func (p *securityGroupPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	group, err := groups.Create(p.client, groups.CreateOpts{
		Name:        req.PhysicalName(),
		Description: req.Properties.OptString("description"),
	}).Extract()
	if err != nil {
		return "", err
	}

	for i, raw := range ruleList(req.Properties) {
		opts, err := ruleOpts(group.ID, raw)
		if err != nil {
			return group.ID, fmt.Errorf("rule %d: %w", i, err)
		}
		if _, err := rules.Create(p.client, opts).Extract(); err != nil {
			return group.ID, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return group.ID, nil
}

func (p *securityGroupPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := groups.Get(p.client, req.PhysicalID).Extract()
	return err == nil, err
}

func (p *securityGroupPlugin) Delete(ctx context.Context, req resource.Request) error {
	// Ports may still hold a reference for a moment after their own delete.
	err := internal.Retry(ctx, 3, func() error {
		return groups.Delete(p.client, req.PhysicalID).ExtractErr()
	})
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *securityGroupPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := groups.Get(p.client, req.PhysicalID).Extract()
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}

func (p *securityGroupPlugin) ValidateProperties(props resource.Properties) error {
	for i, raw := range ruleList(props) {
		if _, err := ruleOpts("", raw); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

func ruleList(props resource.Properties) []map[string]any {
	raw, ok := props["rules"].([]any)
	if !ok {
		return nil
	}
	var result []map[string]any
	for _, item := range raw {
		if rule, ok := item.(map[string]any); ok {
			result = append(result, rule)
		}
	}
	return result
}

func ruleOpts(groupID string, raw map[string]any) (rules.CreateOpts, error) {
	rule := resource.Properties(raw)

	direction := rule.OptString("direction")
	if direction == "" {
		direction = "ingress"
	}
	switch direction {
	case "ingress", "egress":
	default:
		return rules.CreateOpts{}, fmt.Errorf("invalid direction '%s'", direction)
	}

	remote := rule.OptString("remote_prefix")
	if remote == "" {
		remote = "0.0.0.0/0"
	}

	opts := rules.CreateOpts{
		SecGroupID:     groupID,
		Direction:      rules.RuleDirection(direction),
		EtherType:      rules.EtherType4,
		Protocol:       rules.RuleProtocol(rule.OptString("protocol")),
		RemoteIPPrefix: remote,
	}
	if rule.Has("port") {
		port := rule.OptInt("port", 0)
		opts.PortRangeMin = port
		opts.PortRangeMax = port
	} else {
		opts.PortRangeMin = rule.OptInt("port_min", 0)
		opts.PortRangeMax = rule.OptInt("port_max", 0)
	}
	if opts.PortRangeMin > opts.PortRangeMax {
		return rules.CreateOpts{}, fmt.Errorf("port range %d-%d is inverted", opts.PortRangeMin, opts.PortRangeMax)
	}
	return opts, nil
}
