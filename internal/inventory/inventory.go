package inventory

import (
	"context"
	"fmt"
	"time"

	"lambdacloud/internal/logging"
	"lambdacloud/pkg/lambdacloud"

	"github.com/alitto/pond/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ReadAPI is the read-only part of the Lambda Cloud client
type ReadAPI interface {
	ListInstances(ctx context.Context) ([]lambdacloud.Instance, error)
	ListInstanceTypes(ctx context.Context) (lambdacloud.InstanceTypes, error)
	ListSSHKeys(ctx context.Context) ([]lambdacloud.SSHKey, error)
	ListFilesystems(ctx context.Context) ([]lambdacloud.Filesystem, error)
	ListImages(ctx context.Context) ([]lambdacloud.Image, error)
	ListFirewallRules(ctx context.Context) ([]lambdacloud.FirewallRule, error)
}

// Snapshot is a point-in-time view of an account. It is rendered and discarded, never cached.
type Snapshot struct {
	TakenAt       time.Time                  `json:"taken_at" yaml:"taken_at"`
	Instances     []lambdacloud.Instance     `json:"instances" yaml:"instances"`
	InstanceTypes lambdacloud.InstanceTypes  `json:"instance_types" yaml:"instance_types"`
	SSHKeys       []lambdacloud.SSHKey       `json:"ssh_keys" yaml:"ssh_keys"`
	Filesystems   []lambdacloud.Filesystem   `json:"filesystems" yaml:"filesystems"`
	Images        []lambdacloud.Image        `json:"images" yaml:"images"`
	FirewallRules []lambdacloud.FirewallRule `json:"firewall_rules" yaml:"firewall_rules"`
}

// Summary condenses a snapshot for text output
type Summary struct {
	InstancesByStatus map[lambdacloud.InstanceStatus]int
	AvailableTypes    []string
	SSHKeys           int
	Filesystems       int
	FilesystemsInUse  int
	Images            int
	FirewallRules     int
}

// Collect issues one list call per resource through a pool of at most workers
// goroutines. Each call is independent; the first error cancels the rest.
func Collect(ctx context.Context, api ReadAPI, workers int) (*Snapshot, error) {
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := pond.NewPool(workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	snap := &Snapshot{TakenAt: time.Now().UTC()}
	group := pool.NewGroup()

	group.SubmitErr(func() (err error) {
		snap.Instances, err = api.ListInstances(ctx)
		return wrap("instances", err)
	})
	group.SubmitErr(func() (err error) {
		snap.InstanceTypes, err = api.ListInstanceTypes(ctx)
		return wrap("instance types", err)
	})
	group.SubmitErr(func() (err error) {
		snap.SSHKeys, err = api.ListSSHKeys(ctx)
		return wrap("ssh keys", err)
	})
	group.SubmitErr(func() (err error) {
		snap.Filesystems, err = api.ListFilesystems(ctx)
		return wrap("filesystems", err)
	})
	group.SubmitErr(func() (err error) {
		snap.Images, err = api.ListImages(ctx)
		return wrap("images", err)
	})
	group.SubmitErr(func() (err error) {
		snap.FirewallRules, err = api.ListFirewallRules(ctx)
		return wrap("firewall rules", err)
	})

	if err := group.Wait(); err != nil {
		cancel()
		return nil, err
	}

	logging.Logger().Debug("Inventory collected",
		zap.Int("instances", len(snap.Instances)),
		zap.Int("instance_types", len(snap.InstanceTypes)),
		zap.Int("ssh_keys", len(snap.SSHKeys)),
		zap.Int("filesystems", len(snap.Filesystems)),
		zap.Int("images", len(snap.Images)),
		zap.Int("firewall_rules", len(snap.FirewallRules)))

	return snap, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", what, err)
	}
	return nil
}

// Summarize counts the snapshot's resources
func (s *Snapshot) Summarize() Summary {
	byStatus := lo.CountValuesBy(s.Instances, func(i lambdacloud.Instance) lambdacloud.InstanceStatus {
		return i.Status
	})
	inUse := lo.CountBy(s.Filesystems, func(f lambdacloud.Filesystem) bool {
		return f.IsInUse
	})
	available := lo.Filter(s.InstanceTypes.Names(), func(name string, _ int) bool {
		return len(s.InstanceTypes[name].RegionsWithCapacityAvailable) > 0
	})

	return Summary{
		InstancesByStatus: byStatus,
		AvailableTypes:    available,
		SSHKeys:           len(s.SSHKeys),
		Filesystems:       len(s.Filesystems),
		FilesystemsInUse:  inUse,
		Images:            len(s.Images),
		FirewallRules:     len(s.FirewallRules),
	}
}
