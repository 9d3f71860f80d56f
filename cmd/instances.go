package cmd

import (
	"fmt"
	"os"
	"strings"

	"lambdacloud/internal/logging"
	"lambdacloud/internal/output"
	"lambdacloud/internal/provisioning"
	"lambdacloud/pkg/lambdacloud"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	launchName           string
	launchRegion         string
	launchType           string
	launchSSHKeys        []string
	launchFilesystems    []string
	launchImageID        string
	launchImageFamily    string
	launchUserDataFile   string
	launchUsername       string
	launchAuthorizedKeys []string

	updateName string
)

var instancesCmd = &cobra.Command{
	Use:     "instances",
	Aliases: []string{"instance", "i"},
	Short:   "Manage instances",
}

var instancesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List running instances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		instances, err := client.ListInstances(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list instances: %w", err)
		}
		return printInstances(instances)
	},
}

var instancesGetCmd = &cobra.Command{
	Use:   "get <instance-id>",
	Short: "Show a single instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instance, err := client.GetInstance(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get instance %s: %w", args[0], err)
		}
		if !formatter.IsText() {
			return formatter.Output(instance)
		}
		return formatter.Table([]string{"FIELD", "VALUE"}, instanceDetails(instance))
	},
}

var instancesUpdateCmd = &cobra.Command{
	Use:   "update <instance-id>",
	Short: "Update mutable instance attributes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req lambdacloud.InstanceModificationRequest
		if cmd.Flags().Changed("name") {
			req.Name = &updateName
		}
		if req.Name == nil {
			return fmt.Errorf("nothing to update, pass --name")
		}

		instance, err := client.UpdateInstance(cmd.Context(), args[0], req)
		if err != nil {
			return fmt.Errorf("failed to update instance %s: %w", args[0], err)
		}
		return printInstances([]lambdacloud.Instance{*instance})
	},
}

var instancesLaunchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch a new instance",
	Long: `Launch a new instance. Region, instance type and image family fall back to
the defaults section of the configuration file.

When --authorized-key is given without --user-data-file, a cloud-config
that installs the keys for --username is generated and passed as user data.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := launchSpec()
		if err != nil {
			return err
		}

		ids, err := newProvisioner().Create(cmd.Context(), spec)
		if err != nil {
			return err
		}
		if !formatter.IsText() {
			return formatter.Output(lambdacloud.InstanceLaunchResponse{InstanceIDs: ids})
		}
		return formatter.Table([]string{"INSTANCE ID"}, lo.Map(ids, func(id string, _ int) []string {
			return []string{id}
		}))
	},
}

var instancesRestartCmd = &cobra.Command{
	Use:   "restart <instance-id>...",
	Short: "Restart instances",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instances, err := client.RestartInstances(cmd.Context(), lo.Uniq(args))
		if err != nil {
			return fmt.Errorf("failed to restart instances: %w", err)
		}
		return printInstances(instances)
	},
}

var instancesTerminateCmd = &cobra.Command{
	Use:   "terminate <instance-id>...",
	Short: "Terminate instances",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instances, err := newProvisioner().Delete(cmd.Context(), lo.Uniq(args)...)
		if err != nil {
			return err
		}
		return printInstances(instances)
	},
}

func newProvisioner() provisioning.Provisioner {
	return provisioning.NewLambdaProvisioner(client)
}

func launchSpec() (provisioning.InstanceSpec, error) {
	spec := provisioning.InstanceSpec{
		Name:            launchName,
		Region:          lambdacloud.RegionCode(lo.Ternary(launchRegion != "", launchRegion, cfg.Defaults.Region)),
		InstanceType:    lo.Ternary(launchType != "", launchType, cfg.Defaults.InstanceType),
		ImageID:         launchImageID,
		ImageFamily:     launchImageFamily,
		SSHKeyNames:     launchSSHKeys,
		FileSystemNames: launchFilesystems,
		Username:        lo.Ternary(launchUsername != "", launchUsername, cfg.Defaults.Username),
	}
	if spec.Name == "" {
		spec.Name = "lambdacloud-" + uuid.NewString()[:8]
	}
	if spec.ImageID == "" && spec.ImageFamily == "" {
		spec.ImageFamily = cfg.Defaults.ImageFamily
	}

	if launchUserDataFile != "" {
		data, err := os.ReadFile(launchUserDataFile)
		if err != nil {
			return spec, fmt.Errorf("failed to read user data: %w", err)
		}
		spec.UserData = string(data)
	}

	for _, path := range launchAuthorizedKeys {
		data, err := os.ReadFile(path)
		if err != nil {
			return spec, fmt.Errorf("failed to read authorized key %s: %w", path, err)
		}
		spec.AuthorizedKeys = append(spec.AuthorizedKeys, strings.TrimSpace(string(data)))
	}

	logging.Logger().Debug("Launch spec prepared",
		zap.String("name", spec.Name),
		zap.String("region", string(spec.Region)),
		zap.String("instance_type", spec.InstanceType),
		zap.Int("authorized_keys", len(spec.AuthorizedKeys)),
		zap.String("user_data", logging.Truncate(spec.UserData)))
	return spec, nil
}

func printInstances(instances []lambdacloud.Instance) error {
	if !formatter.IsText() {
		return formatter.Output(instances)
	}
	rows := lo.Map(instances, func(inst lambdacloud.Instance, _ int) []string {
		return []string{
			inst.ID,
			lo.Ternary(inst.Name != "", inst.Name, "-"),
			string(inst.Status),
			inst.InstanceType.Name,
			string(inst.Region.Name),
			lo.Ternary(inst.IP != "", inst.IP, "-"),
		}
	})
	return formatter.Table([]string{"ID", "NAME", "STATUS", "TYPE", "REGION", "IP"}, rows)
}

func instanceDetails(inst *lambdacloud.Instance) [][]string {
	rows := [][]string{
		{"id", inst.ID},
		{"name", inst.Name},
		{"status", string(inst.Status)},
		{"type", inst.InstanceType.Name},
		{"gpu", inst.InstanceType.GPUDescription},
		{"price", output.Dollars(inst.InstanceType.PriceCentsPerHour) + "/h"},
		{"region", string(inst.Region.Name)},
		{"ip", inst.IP},
		{"private_ip", inst.PrivateIP},
		{"hostname", inst.Hostname},
		{"ssh_keys", output.List(inst.SSHKeyNames)},
		{"filesystems", output.List(inst.FileSystemNames)},
	}
	if inst.JupyterURL != "" {
		rows = append(rows, []string{"jupyter_url", inst.JupyterURL})
	}
	if inst.IsReserved != nil {
		rows = append(rows, []string{"reserved", fmt.Sprint(*inst.IsReserved)})
	}
	for _, action := range []struct {
		name    string
		details lambdacloud.InstanceActionAvailabilityDetails
	}{
		{"restart", inst.Actions.Restart},
		{"terminate", inst.Actions.Terminate},
		{"cold_reboot", inst.Actions.ColdReboot},
	} {
		value := "available"
		if !action.details.Available {
			value = "unavailable: " + lo.Ternary(action.details.ReasonDescription != "",
				action.details.ReasonDescription, string(action.details.ReasonCode))
		}
		rows = append(rows, []string{"action." + action.name, value})
	}
	return rows
}

func init() {
	rootCmd.AddCommand(instancesCmd)
	instancesCmd.AddCommand(instancesListCmd, instancesGetCmd, instancesUpdateCmd,
		instancesLaunchCmd, instancesRestartCmd, instancesTerminateCmd)

	instancesUpdateCmd.Flags().StringVar(&updateName, "name", "", "New instance name")

	f := instancesLaunchCmd.Flags()
	f.StringVar(&launchName, "name", "", "Instance name (default: generated)")
	f.StringVar(&launchRegion, "region", "", "Region code, e.g. us-west-1")
	f.StringVar(&launchType, "type", "", "Instance type name, e.g. gpu_1x_a10")
	f.StringSliceVar(&launchSSHKeys, "ssh-key", nil, "SSH key name to install (repeatable)")
	f.StringSliceVar(&launchFilesystems, "filesystem", nil, "Filesystem name to attach (repeatable)")
	f.StringVar(&launchImageID, "image-id", "", "Boot image ID")
	f.StringVar(&launchImageFamily, "image-family", "", "Boot image family")
	f.StringVar(&launchUserDataFile, "user-data-file", "", "Path to a cloud-init user data file")
	f.StringVar(&launchUsername, "username", "", "User that receives the authorized keys")
	f.StringSliceVar(&launchAuthorizedKeys, "authorized-key", nil, "Path to a public key file to authorize (repeatable)")
	instancesLaunchCmd.MarkFlagsMutuallyExclusive("image-id", "image-family")
	instancesLaunchCmd.MarkFlagsMutuallyExclusive("user-data-file", "authorized-key")
}
