package cmd

import (
	"fmt"

	"lambdacloud/internal/logging"
	"lambdacloud/internal/output"
	"lambdacloud/pkg/lambdacloud"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	filesystemName   string
	filesystemRegion string
)

var filesystemsCmd = &cobra.Command{
	Use:     "filesystems",
	Aliases: []string{"filesystem", "fs"},
	Short:   "Manage persistent filesystems",
}

var filesystemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List filesystems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filesystems, err := client.ListFilesystems(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list filesystems: %w", err)
		}
		return printFilesystems(filesystems)
	},
}

var filesystemsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a filesystem",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := lambdacloud.FilesystemCreateRequest{
			Name:   lo.Ternary(filesystemName != "", filesystemName, "fs-"+uuid.NewString()[:8]),
			Region: lambdacloud.RegionCode(lo.Ternary(filesystemRegion != "", filesystemRegion, cfg.Defaults.Region)),
		}
		if req.Region == "" {
			return fmt.Errorf("region is required (pass --region or set defaults.region)")
		}

		fs, err := client.CreateFilesystem(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to create filesystem %s: %w", req.Name, err)
		}
		logging.Logger().Info("Filesystem created",
			zap.String("id", fs.ID),
			zap.String("name", fs.Name),
			zap.String("mount_point", fs.MountPoint))
		return printFilesystems([]lambdacloud.Filesystem{*fs})
	},
}

var filesystemsDeleteCmd = &cobra.Command{
	Use:   "delete <filesystem-id>",
	Short: "Delete a filesystem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.DeleteFilesystem(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to delete filesystem %s: %w", args[0], err)
		}
		if !formatter.IsText() {
			return formatter.Output(resp)
		}
		return formatter.Table([]string{"DELETED ID"}, lo.Map(resp.DeletedIDs, func(id string, _ int) []string {
			return []string{id}
		}))
	},
}

func printFilesystems(filesystems []lambdacloud.Filesystem) error {
	if !formatter.IsText() {
		return formatter.Output(filesystems)
	}
	rows := lo.Map(filesystems, func(fs lambdacloud.Filesystem, _ int) []string {
		return []string{
			fs.ID,
			fs.Name,
			string(fs.Region.Name),
			fs.MountPoint,
			output.Bytes(fs.BytesUsed),
			lo.Ternary(fs.IsInUse, "yes", "no"),
		}
	})
	return formatter.Table([]string{"ID", "NAME", "REGION", "MOUNT POINT", "USED", "IN USE"}, rows)
}

func init() {
	rootCmd.AddCommand(filesystemsCmd)
	filesystemsCmd.AddCommand(filesystemsListCmd, filesystemsCreateCmd, filesystemsDeleteCmd)

	filesystemsCreateCmd.Flags().StringVar(&filesystemName, "name", "", "Filesystem name (default: generated)")
	filesystemsCreateCmd.Flags().StringVar(&filesystemRegion, "region", "", "Region code")
}
