package cmd

import (
	"fmt"
	"strconv"

	"lambdacloud/internal/output"
	"lambdacloud/pkg/lambdacloud"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	typesAvailableOnly bool
	typesRegion        string
)

var instanceTypesCmd = &cobra.Command{
	Use:     "instance-types",
	Aliases: []string{"types"},
	Short:   "Inspect instance types",
}

var instanceTypesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instance types and the regions with capacity for them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := client.ListInstanceTypes(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list instance types: %w", err)
		}

		types = filterInstanceTypes(types, typesAvailableOnly, lambdacloud.RegionCode(typesRegion))
		if !formatter.IsText() {
			return formatter.Output(types)
		}

		rows := make([][]string, 0, len(types))
		for _, name := range types.Names() {
			item := types[name]
			specs := item.InstanceType.Specs
			regions := lo.Map(item.RegionsWithCapacityAvailable, func(r lambdacloud.Region, _ int) string {
				return string(r.Name)
			})
			rows = append(rows, []string{
				name,
				lo.Ternary(item.InstanceType.GPUDescription != "", item.InstanceType.GPUDescription, "-"),
				strconv.Itoa(specs.VCPUs),
				output.GiB(specs.MemoryGiB),
				output.GiB(specs.StorageGiB),
				output.Dollars(item.InstanceType.PriceCentsPerHour),
				output.List(regions),
			})
		}
		return formatter.Table([]string{"NAME", "GPU", "VCPUS", "MEMORY", "STORAGE", "PRICE/H", "REGIONS"}, rows)
	},
}

// filterInstanceTypes keeps types with capacity, optionally in a given region
func filterInstanceTypes(types lambdacloud.InstanceTypes, availableOnly bool, region lambdacloud.RegionCode) lambdacloud.InstanceTypes {
	if !availableOnly && region == "" {
		return types
	}
	return lo.PickBy(types, func(_ string, item lambdacloud.InstanceTypesItem) bool {
		if region != "" {
			return lo.ContainsBy(item.RegionsWithCapacityAvailable, func(r lambdacloud.Region) bool {
				return r.Name == region
			})
		}
		return len(item.RegionsWithCapacityAvailable) > 0
	})
}

func init() {
	rootCmd.AddCommand(instanceTypesCmd)
	instanceTypesCmd.AddCommand(instanceTypesListCmd)

	instanceTypesListCmd.Flags().BoolVar(&typesAvailableOnly, "available", false, "Only show types with capacity")
	instanceTypesListCmd.Flags().StringVar(&typesRegion, "region", "", "Only show types with capacity in this region")
}
