package provisioning

import (
	"context"
	"fmt"
	"strings"

	"lambdacloud/internal/logging"
	"lambdacloud/pkg/lambdacloud"

	"go.uber.org/zap"
)

// InstanceAPI is the part of the Lambda Cloud client the provisioner needs
type InstanceAPI interface {
	LaunchInstance(ctx context.Context, req lambdacloud.InstanceLaunchRequest) (*lambdacloud.InstanceLaunchResponse, error)
	TerminateInstances(ctx context.Context, ids []string) ([]lambdacloud.Instance, error)
}

// LambdaProvisioner implements the Provisioner interface for Lambda Cloud
type LambdaProvisioner struct {
	api InstanceAPI
}

var _ Provisioner = (*LambdaProvisioner)(nil)

// NewLambdaProvisioner creates a new instance of LambdaProvisioner
func NewLambdaProvisioner(api InstanceAPI) *LambdaProvisioner {
	return &LambdaProvisioner{api: api}
}

// Create launches the instances described by spec
func (p *LambdaProvisioner) Create(ctx context.Context, spec InstanceSpec) ([]string, error) {
	req, err := BuildLaunchRequest(spec)
	if err != nil {
		return nil, err
	}

	logging.Logger().Info("Launching instance",
		zap.String("name", req.Name),
		zap.String("region", string(req.RegionName)),
		zap.String("instance_type", req.InstanceTypeName),
		zap.Strings("ssh_keys", req.SSHKeyNames))

	resp, err := p.api.LaunchInstance(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to launch instance: %w", err)
	}

	logging.Logger().Info("Instance launch accepted",
		zap.Strings("instance_ids", logging.TruncateSlice(resp.InstanceIDs, 10)))
	return resp.InstanceIDs, nil
}

// Delete terminates instances by ID
func (p *LambdaProvisioner) Delete(ctx context.Context, instanceIDs ...string) ([]lambdacloud.Instance, error) {
	if len(instanceIDs) == 0 {
		return nil, fmt.Errorf("at least one instance ID is required")
	}

	terminated, err := p.api.TerminateInstances(ctx, instanceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to terminate instances: %w", err)
	}
	return terminated, nil
}

// BuildLaunchRequest converts a spec into a launch request
func BuildLaunchRequest(spec InstanceSpec) (lambdacloud.InstanceLaunchRequest, error) {
	var req lambdacloud.InstanceLaunchRequest

	if spec.Region == "" {
		return req, fmt.Errorf("region is required")
	}
	if !lambdacloud.KnownRegion(spec.Region) {
		logging.Logger().Warn("Region is not in the known region list, sending anyway",
			zap.String("region", string(spec.Region)))
	}
	if strings.TrimSpace(spec.InstanceType) == "" {
		return req, fmt.Errorf("instance type is required")
	}
	if len(spec.SSHKeyNames) == 0 {
		return req, fmt.Errorf("at least one SSH key name is required")
	}
	if spec.ImageID != "" && spec.ImageFamily != "" {
		return req, fmt.Errorf("image ID and image family are mutually exclusive")
	}

	req = lambdacloud.InstanceLaunchRequest{
		RegionName:       spec.Region,
		InstanceTypeName: spec.InstanceType,
		SSHKeyNames:      spec.SSHKeyNames,
		FileSystemNames:  spec.FileSystemNames,
		Name:             spec.Name,
		UserData:         spec.UserData,
	}

	switch {
	case spec.ImageID != "":
		req.Image = lambdacloud.ImageByID{ID: spec.ImageID}
	case spec.ImageFamily != "":
		req.Image = lambdacloud.ImageByFamily{Family: spec.ImageFamily}
	}

	if req.UserData == "" && len(spec.AuthorizedKeys) > 0 {
		userData, err := GenerateCloudConfig(spec.Username, spec.AuthorizedKeys...)
		if err != nil {
			return lambdacloud.InstanceLaunchRequest{}, fmt.Errorf("failed to generate cloud-config: %w", err)
		}
		req.UserData = userData
	}

	return req, nil
}
