package lambdacloud

import (
	"context"
	"fmt"
	"net"
	"net/http"
)

// FirewallProtocol is the network protocol a firewall rule matches
type FirewallProtocol string

const (
	ProtocolTCP  FirewallProtocol = "tcp"
	ProtocolUDP  FirewallProtocol = "udp"
	ProtocolICMP FirewallProtocol = "icmp"
	ProtocolAll  FirewallProtocol = "all"
)

// PortRange is an inclusive [low, high] port pair
type PortRange [2]int

// FirewallRule is an inbound firewall rule
type FirewallRule struct {
	Protocol      FirewallProtocol `json:"protocol"`
	PortRange     *PortRange       `json:"port_range,omitempty"`
	SourceNetwork string           `json:"source_network"`
	Description   string           `json:"description"`
}

// Validate checks the rule against the constraints the API enforces.
// The client itself never validates; rules are sent as given.
func (r FirewallRule) Validate() error {
	switch r.Protocol {
	case ProtocolTCP, ProtocolUDP, ProtocolAll:
		if r.PortRange == nil {
			return fmt.Errorf("port range is required for protocol %q", r.Protocol)
		}
		lo, hi := r.PortRange[0], r.PortRange[1]
		if lo < 1 || hi > 65535 || lo > hi {
			return fmt.Errorf("invalid port range %d-%d", lo, hi)
		}
	case ProtocolICMP:
		if r.PortRange != nil {
			return fmt.Errorf("port range is not allowed for protocol %q", r.Protocol)
		}
	default:
		return fmt.Errorf("unsupported protocol: %q", r.Protocol)
	}

	if _, _, err := net.ParseCIDR(r.SourceNetwork); err != nil {
		return fmt.Errorf("invalid source network %q: %w", r.SourceNetwork, err)
	}
	return nil
}

type firewallRulesPutRequest struct {
	Data []FirewallRule `json:"data"`
}

// ListFirewallRules lists the inbound firewall rules
func (c *Client) ListFirewallRules(ctx context.Context) ([]FirewallRule, error) {
	return do[[]FirewallRule](ctx, c, http.MethodGet, "/api/v1/firewall-rules", nil)
}

// SetFirewallRules replaces the entire inbound rule set with rules
func (c *Client) SetFirewallRules(ctx context.Context, rules []FirewallRule) ([]FirewallRule, error) {
	if rules == nil {
		rules = []FirewallRule{}
	}
	return do[[]FirewallRule](ctx, c, http.MethodPut, "/api/v1/firewall-rules", firewallRulesPutRequest{Data: rules})
}
