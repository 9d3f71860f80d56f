package provisioning

import (
	"context"

	"lambdacloud/pkg/lambdacloud"
)

// InstanceSpec represents the specification for launching instances
type InstanceSpec struct {
	Name            string
	Region          lambdacloud.RegionCode
	InstanceType    string
	ImageID         string // mutually exclusive with ImageFamily
	ImageFamily     string
	SSHKeyNames     []string
	FileSystemNames []string

	// UserData is sent verbatim when set. Otherwise, when Username and
	// AuthorizedKeys are set, a cloud-config document is generated from them.
	UserData       string
	Username       string
	AuthorizedKeys []string
}

// Provisioner defines the interface for launching and terminating instances
type Provisioner interface {
	// Create launches instances and returns their identifiers.
	// It does not wait for them to become active.
	Create(ctx context.Context, spec InstanceSpec) ([]string, error)
	// Delete terminates instances and returns their updated records
	Delete(ctx context.Context, instanceIDs ...string) ([]lambdacloud.Instance, error)
}
