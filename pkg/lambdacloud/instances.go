package lambdacloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
)

// InstanceStatus is the lifecycle state of an instance
type InstanceStatus string

const (
	InstanceStatusBooting     InstanceStatus = "booting"
	InstanceStatusActive      InstanceStatus = "active"
	InstanceStatusUnhealthy   InstanceStatus = "unhealthy"
	InstanceStatusTerminating InstanceStatus = "terminating"
	InstanceStatusTerminated  InstanceStatus = "terminated"
)

// InstanceActionUnavailableCode explains why an action cannot be performed.
// Codes not listed here are passed through unchanged.
type InstanceActionUnavailableCode string

const (
	ActionUnavailableVMHasNotLaunched InstanceActionUnavailableCode = "vm-has-not-launched"
	ActionUnavailableVMIsTooOld       InstanceActionUnavailableCode = "vm-is-too-old"
	ActionUnavailableVMIsTerminating  InstanceActionUnavailableCode = "vm-is-terminating"
)

// InstanceTypeSpecs are the hardware specifications of an instance type
type InstanceTypeSpecs struct {
	VCPUs      int `json:"vcpus"`
	MemoryGiB  int `json:"memory_gib"`
	StorageGiB int `json:"storage_gib"`
	GPUs       int `json:"gpus"`
}

// InstanceType is a named hardware and pricing tier
type InstanceType struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	GPUDescription    string            `json:"gpu_description"`
	PriceCentsPerHour int               `json:"price_cents_per_hour"`
	Specs             InstanceTypeSpecs `json:"specs"`
}

// InstanceActionAvailabilityDetails tells whether a single action is currently permitted
type InstanceActionAvailabilityDetails struct {
	Available         bool                          `json:"available"`
	ReasonCode        InstanceActionUnavailableCode `json:"reason_code,omitempty"`
	ReasonDescription string                        `json:"reason_description,omitempty"`
}

// InstanceActionAvailability lists which lifecycle actions an instance currently allows
type InstanceActionAvailability struct {
	Migrate    InstanceActionAvailabilityDetails `json:"migrate"`
	Rebuild    InstanceActionAvailabilityDetails `json:"rebuild"`
	Restart    InstanceActionAvailabilityDetails `json:"restart"`
	ColdReboot InstanceActionAvailabilityDetails `json:"cold_reboot"`
	Terminate  InstanceActionAvailabilityDetails `json:"terminate"`
}

// Instance is a virtual machine
type Instance struct {
	ID              string                     `json:"id"`
	Name            string                     `json:"name,omitempty"`
	IP              string                     `json:"ip"`
	PrivateIP       string                     `json:"private_ip"`
	Status          InstanceStatus             `json:"status"`
	SSHKeyNames     []string                   `json:"ssh_key_names"`
	FileSystemNames []string                   `json:"file_system_names"`
	Region          Region                     `json:"region"`
	InstanceType    InstanceType               `json:"instance_type"`
	Hostname        string                     `json:"hostname,omitempty"`
	JupyterToken    string                     `json:"jupyter_token,omitempty"`
	JupyterURL      string                     `json:"jupyter_url,omitempty"`
	IsReserved      *bool                      `json:"is_reserved,omitempty"`
	Actions         InstanceActionAvailability `json:"actions"`
}

// InstanceTypesItem pairs an instance type with the regions that currently have capacity for it
type InstanceTypesItem struct {
	InstanceType                 InstanceType `json:"instance_type"`
	RegionsWithCapacityAvailable []Region     `json:"regions_with_capacity_available"`
}

// InstanceTypes maps instance type names to their availability
type InstanceTypes map[string]InstanceTypesItem

// Names returns the instance type names in lexical order
func (t InstanceTypes) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ImageSpecification selects the image an instance boots from.
// It is implemented by ImageByID and ImageByFamily only.
type ImageSpecification interface {
	json.Marshaler
	isImageSpecification()
}

// ImageByID selects an image by its identifier
type ImageByID struct {
	ID string
}

// ImageByFamily selects the latest image of a family
type ImageByFamily struct {
	Family string
}

func (ImageByID) isImageSpecification()     {}
func (ImageByFamily) isImageSpecification() {}

// MarshalJSON renders {"id": "..."}
func (s ImageByID) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID string `json:"id"`
	}{s.ID})
}

// MarshalJSON renders {"family": "..."}
func (s ImageByFamily) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Family string `json:"family"`
	}{s.Family})
}

// InstanceLaunchRequest is the body of a launch operation
type InstanceLaunchRequest struct {
	RegionName       RegionCode         `json:"region_name"`
	InstanceTypeName string             `json:"instance_type_name"`
	SSHKeyNames      []string           `json:"ssh_key_names"`
	FileSystemNames  []string           `json:"file_system_names,omitempty"`
	Name             string             `json:"name,omitempty"`
	Image            ImageSpecification `json:"image,omitempty"`
	UserData         string             `json:"user_data,omitempty"`
}

// InstanceLaunchResponse carries the identifiers of the launched instances.
// Fetch them with GetInstance for their full state.
type InstanceLaunchResponse struct {
	InstanceIDs []string `json:"instance_ids"`
}

// InstanceModificationRequest updates mutable instance fields.
// Only fields that are set are sent.
type InstanceModificationRequest struct {
	Name *string `json:"name,omitempty"`
}

type instanceIDsRequest struct {
	InstanceIDs []string `json:"instance_ids"`
}

type instanceRestartResponse struct {
	RestartedInstances []Instance `json:"restarted_instances"`
}

type instanceTerminateResponse struct {
	TerminatedInstances []Instance `json:"terminated_instances"`
}

// ListInstances lists running instances
func (c *Client) ListInstances(ctx context.Context) ([]Instance, error) {
	return do[[]Instance](ctx, c, http.MethodGet, "/api/v1/instances", nil)
}

// GetInstance retrieves the details of one instance
func (c *Client) GetInstance(ctx context.Context, id string) (*Instance, error) {
	inst, err := do[Instance](ctx, c, http.MethodGet, "/api/v1/instances/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// UpdateInstance modifies an instance and returns its new state
func (c *Client) UpdateInstance(ctx context.Context, id string, req InstanceModificationRequest) (*Instance, error) {
	inst, err := do[Instance](ctx, c, http.MethodPost, "/api/v1/instances/"+url.PathEscape(id), req)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// ListInstanceTypes lists instance types and the regions with capacity for each
func (c *Client) ListInstanceTypes(ctx context.Context) (InstanceTypes, error) {
	return do[InstanceTypes](ctx, c, http.MethodGet, "/api/v1/instance-types", nil)
}

// LaunchInstance launches instances and returns their identifiers
func (c *Client) LaunchInstance(ctx context.Context, req InstanceLaunchRequest) (*InstanceLaunchResponse, error) {
	resp, err := do[InstanceLaunchResponse](ctx, c, http.MethodPost, "/api/v1/instance-operations/launch", req)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RestartInstances restarts the given instances and returns their updated records
func (c *Client) RestartInstances(ctx context.Context, ids []string) ([]Instance, error) {
	resp, err := do[instanceRestartResponse](ctx, c, http.MethodPost, "/api/v1/instance-operations/restart", instanceIDsRequest{InstanceIDs: ids})
	if err != nil {
		return nil, err
	}
	return resp.RestartedInstances, nil
}

// TerminateInstances terminates the given instances and returns their updated records
func (c *Client) TerminateInstances(ctx context.Context, ids []string) ([]Instance, error) {
	resp, err := do[instanceTerminateResponse](ctx, c, http.MethodPost, "/api/v1/instance-operations/terminate", instanceIDsRequest{InstanceIDs: ids})
	if err != nil {
		return nil, err
	}
	return resp.TerminatedInstances, nil
}
