package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"lambdacloud/internal/logging"
	"lambdacloud/pkg/lambdacloud"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var firewallCmd = &cobra.Command{
	Use:   "firewall",
	Short: "Manage inbound firewall rules",
}

var firewallListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inbound firewall rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := client.ListFirewallRules(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list firewall rules: %w", err)
		}
		return printFirewallRules(rules)
	},
}

var firewallSetCmd = &cobra.Command{
	Use:   "set <rules-file>",
	Short: "Replace all inbound firewall rules with the rules in a YAML or JSON file",
	Long: `Replace all inbound firewall rules. The file holds a list of rules:

  - protocol: tcp
    port_range: [22, 22]
    source_network: 0.0.0.0/0
    description: SSH

Rules are validated before anything is sent. Use "firewall clear" to remove all rules.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := loadFirewallRules(args[0])
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			return fmt.Errorf("%s contains no rules, use \"firewall clear\" to remove all rules", args[0])
		}
		return replaceFirewallRules(cmd, rules)
	},
}

var firewallClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all inbound firewall rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return replaceFirewallRules(cmd, nil)
	},
}

func replaceFirewallRules(cmd *cobra.Command, rules []lambdacloud.FirewallRule) error {
	applied, err := client.SetFirewallRules(cmd.Context(), rules)
	if err != nil {
		return fmt.Errorf("failed to set firewall rules: %w", err)
	}
	logging.Logger().Info("Firewall rules replaced", zap.Int("rules", len(applied)))
	return printFirewallRules(applied)
}

// loadFirewallRules reads and validates a rule list. YAML is a superset of
// JSON, so both formats are accepted; field names follow the API.
func loadFirewallRules(path string) ([]lambdacloud.FirewallRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if doc == nil {
		return nil, nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	var rules []lambdacloud.FirewallRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("rules file must contain a list of rules: %w", err)
	}

	var errs []error
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i+1, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rules, nil
}

func printFirewallRules(rules []lambdacloud.FirewallRule) error {
	if !formatter.IsText() {
		return formatter.Output(rules)
	}
	rows := lo.Map(rules, func(r lambdacloud.FirewallRule, _ int) []string {
		ports := "-"
		if r.PortRange != nil {
			ports = fmt.Sprintf("%d-%d", r.PortRange[0], r.PortRange[1])
		}
		return []string{string(r.Protocol), ports, r.SourceNetwork, r.Description}
	})
	return formatter.Table([]string{"PROTOCOL", "PORTS", "SOURCE", "DESCRIPTION"}, rows)
}

func init() {
	rootCmd.AddCommand(firewallCmd)
	firewallCmd.AddCommand(firewallListCmd, firewallSetCmd, firewallClearCmd)
}
