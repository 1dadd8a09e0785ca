package openstack

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/keypairs"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/samber/lo"
	"golang.org/x/crypto/ssh"

	"github.com/gammadia/furnace/resource"
)

type serverPlugin struct {
	client *gophercloud.ServiceClient
}

var _ resource.Plugin = (*serverPlugin)(nil)
var _ resource.Updater = (*serverPlugin)(nil)
var _ resource.AttributeResolver = (*serverPlugin)(nil)

func (p *serverPlugin) Create(ctx context.Context, req resource.Request) (string, error) {
	image, err := req.Properties.String("image")
	if err != nil {
		return "", err
	}
	flavor, err := req.Properties.String("flavor")
	if err != nil {
		return "", err
	}
	networks, err := req.Properties.StringList("networks")
	if err != nil {
		return "", err
	}

	var securityGroups []string
	if req.Properties.Has("security_groups") {
		if securityGroups, err = req.Properties.StringList("security_groups"); err != nil {
			return "", err
		}
	}

	var builder servers.CreateOptsBuilder = servers.CreateOpts{
		Name:      req.PhysicalName(),
		ImageRef:  image,
		FlavorRef: flavor,
		Networks: lo.Map(networks, func(id string, _ int) servers.Network {
			return servers.Network{UUID: id}
		}),
		SecurityGroups: securityGroups,
		UserData:       []byte(req.Properties.OptString("user_data")),
		Metadata:       req.Properties.StringMap("metadata"),
	}
	if keyName := req.Properties.OptString("key_name"); keyName != "" {
		builder = keypairs.CreateOptsExt{CreateOptsBuilder: builder, KeyName: keyName}
	}

	server, err := servers.Create(p.client, builder).Extract()
	if err != nil {
		return "", err
	}
	return server.ID, nil
}

func (p *serverPlugin) CheckCreateComplete(ctx context.Context, req resource.Request) (bool, error) {
	server, err := servers.Get(p.client, req.PhysicalID).Extract()
	if err != nil {
		return false, err
	}

	done, err := settled(server.Status,
		[]string{"ACTIVE"},
		[]string{"BUILD", "REBUILD"},
		[]string{"ERROR"})
	if err != nil && server.Fault.Message != "" {
		err = fmt.Errorf("%w: %s", err, server.Fault.Message)
	}
	if !done || err != nil {
		return done, err
	}

	// An ACTIVE server may still be booting; optionally wait until its
	// SSH daemon answers.
	if user := req.Properties.OptString("ssh_user"); user != "" {
		address, err := p.firstIPv4(req.PhysicalID)
		if err != nil || address == "" {
			return false, err
		}
		return sshReachable(address, user), nil
	}
	return true, nil
}

func (p *serverPlugin) Update(ctx context.Context, req resource.Request, diff resource.Diff) error {
	for _, key := range diff.Changed {
		if key != "metadata" {
			return resource.ErrNeedsReplace
		}
	}
	metadata := servers.MetadataOpts(req.Properties.StringMap("metadata"))
	_, err := servers.ResetMetadata(p.client, req.PhysicalID, metadata).Extract()
	return err
}

func (p *serverPlugin) CheckUpdateComplete(ctx context.Context, req resource.Request) (bool, error) {
	return true, nil
}

func (p *serverPlugin) Delete(ctx context.Context, req resource.Request) error {
	err := servers.Delete(p.client, req.PhysicalID).ExtractErr()
	if isNotFound(err) {
		return nil
	}
	return err
}

func (p *serverPlugin) CheckDeleteComplete(ctx context.Context, req resource.Request) (bool, error) {
	_, err := servers.Get(p.client, req.PhysicalID).Extract()
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}

func (p *serverPlugin) ResolveAttribute(ctx context.Context, req resource.Request, name string) (any, error) {
	switch name {
	case "first_address":
		address, err := p.firstIPv4(req.PhysicalID)
		if err != nil {
			return nil, err
		}
		if address == "" {
			return nil, fmt.Errorf("server has no IPv4 address yet")
		}
		return address, nil
	case "status", "name":
		server, err := servers.Get(p.client, req.PhysicalID).Extract()
		if err != nil {
			return nil, err
		}
		if name == "status" {
			return server.Status, nil
		}
		return server.Name, nil
	default:
		return nil, fmt.Errorf("unknown attribute '%s'", name)
	}
}

func (p *serverPlugin) firstIPv4(serverID string) (string, error) {
	pages, err := servers.ListAddresses(p.client, serverID).AllPages()
	if err != nil {
		return "", err
	}
	allAddresses, err := servers.ExtractAddresses(pages)
	if err != nil {
		return "", err
	}
	for _, addresses := range allAddresses {
		for _, address := range addresses {
			if address.Version == 4 {
				return address.Address, nil
			}
		}
	}
	return "", nil
}

// sshReachable reports whether an SSH daemon answers on the address. A
// rejected authentication still proves the handshake completed, which is
// all we need.
func sshReachable(address, user string) bool {
	conn, err := ssh.Dial("tcp", net.JoinHostPort(address, "22"), &ssh.ClientConfig{
		User:            user,
		Timeout:         5 * time.Second,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if err == nil {
		_ = conn.Close()
		return true
	}
	return strings.Contains(err.Error(), "unable to authenticate")
}
