package cmd

import (
	"fmt"

	"lambdacloud/pkg/lambdacloud"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	imagesFamily string
	imagesArch   string
)

var imagesCmd = &cobra.Command{
	Use:     "images",
	Aliases: []string{"image"},
	Short:   "Inspect machine images",
}

var imagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		images, err := client.ListImages(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}

		images = lo.Filter(images, func(img lambdacloud.Image, _ int) bool {
			return (imagesFamily == "" || img.Family == imagesFamily) &&
				(imagesArch == "" || string(img.Architecture) == imagesArch)
		})
		if !formatter.IsText() {
			return formatter.Output(images)
		}

		rows := lo.Map(images, func(img lambdacloud.Image, _ int) []string {
			return []string{img.ID, img.Family, img.Version, string(img.Architecture), string(img.Region.Name), img.Name}
		})
		return formatter.Table([]string{"ID", "FAMILY", "VERSION", "ARCH", "REGION", "NAME"}, rows)
	},
}

func init() {
	rootCmd.AddCommand(imagesCmd)
	imagesCmd.AddCommand(imagesListCmd)

	imagesListCmd.Flags().StringVar(&imagesFamily, "family", "", "Only show images of this family")
	imagesListCmd.Flags().StringVar(&imagesArch, "arch", "", "Only show images for this architecture (x86_64|arm64)")
}
