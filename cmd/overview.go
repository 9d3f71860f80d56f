package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"lambdacloud/internal/inventory"
	"lambdacloud/internal/logging"
	"lambdacloud/pkg/lambdacloud"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var overviewWorkers int

// overviewCmd fetches every resource list concurrently and prints a summary
var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarize all account resources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := inventory.Collect(cmd.Context(), client, overviewWorkers)
		if err != nil {
			return err
		}
		if !formatter.IsText() {
			return formatter.Output(snapshot)
		}

		summary := snapshot.Summarize()
		statuses := lo.Keys(summary.InstancesByStatus)
		sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

		rows := lo.Map(statuses, func(s lambdacloud.InstanceStatus, _ int) []string {
			return []string{"instances." + string(s), strconv.Itoa(summary.InstancesByStatus[s])}
		})
		rows = append(rows,
			[]string{"instance_types.available", fmt.Sprintf("%d (%s)", len(summary.AvailableTypes), summarizeNames(summary.AvailableTypes, 5))},
			[]string{"ssh_keys", strconv.Itoa(summary.SSHKeys)},
			[]string{"filesystems", fmt.Sprintf("%d (%d in use)", summary.Filesystems, summary.FilesystemsInUse)},
			[]string{"images", strconv.Itoa(summary.Images)},
			[]string{"firewall_rules", strconv.Itoa(summary.FirewallRules)},
		)
		return formatter.Table([]string{"RESOURCE", "COUNT"}, rows)
	},
}

func summarizeNames(names []string, limit int) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(logging.TruncateSlice(names, limit), ", ")
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	overviewCmd.Flags().IntVar(&overviewWorkers, "workers", 3, "Maximum concurrent API requests")
}
