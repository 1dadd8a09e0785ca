package openstack

import (
	"errors"
	"fmt"

	"github.com/gophercloud/gophercloud"

	"github.com/gammadia/furnace/resource"
)

func isNotFound(err error) bool {
	var notFound gophercloud.ErrDefault404
	if errors.As(err, &notFound) {
		return true
	}
	var resNotFound gophercloud.ErrResourceNotFound
	return errors.As(err, &resNotFound)
}

// settled maps a remote status string onto the completion contract: ready,
// still converging, failed, or something the plugin does not know about.
func settled(status string, ready, transient, failed []string) (bool, error) {
	for _, s := range ready {
		if status == s {
			return true, nil
		}
	}
	for _, s := range transient {
		if status == s {
			return false, nil
		}
	}
	for _, s := range failed {
		if status == s {
			return false, fmt.Errorf("remote status is %s: %w", status, resource.ErrInError)
		}
	}
	return false, fmt.Errorf("remote status is %s: %w", status, resource.ErrUnknownStatus)
}
