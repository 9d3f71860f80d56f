package output

import (
	"bytes"
	"strings"
	"testing"

	"lambdacloud/pkg/lambdacloud"

	"github.com/spf13/cobra"
)

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	f := New(FormatJSON)
	f.SetWriter(&buf)

	if err := f.Output(lambdacloud.SSHKey{ID: "k1", Name: "laptop", PublicKey: "ssh-ed25519 AAAA"}); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"public_key": "ssh-ed25519 AAAA"`) {
		t.Errorf("unexpected JSON output: %s", buf.String())
	}
}

func TestOutputYAMLUsesWireNames(t *testing.T) {
	var buf bytes.Buffer
	f := New(FormatYAML)
	f.SetWriter(&buf)

	rule := lambdacloud.FirewallRule{
		Protocol:      lambdacloud.ProtocolTCP,
		PortRange:     &lambdacloud.PortRange{22, 22},
		SourceNetwork: "0.0.0.0/0",
	}
	if err := f.Output([]lambdacloud.FirewallRule{rule}); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "source_network: 0.0.0.0/0") || !strings.Contains(out, "protocol: tcp") {
		t.Errorf("unexpected YAML output:\n%s", out)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	f := New(FormatText)
	f.SetWriter(&buf)

	err := f.Table([]string{"ID", "NAME"}, [][]string{{"i-1", "trainer"}, {"i-22", "eval"}})
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[2], "i-22  eval") {
		t.Errorf("columns not aligned: %q", lines[2])
	}
}

func TestHelpers(t *testing.T) {
	if got := Bytes(nil); got != "-" {
		t.Errorf("Bytes(nil) = %q", got)
	}
	n := int64(2048)
	if got := Bytes(&n); !strings.HasSuffix(got, "KB") {
		t.Errorf("Bytes(2048) = %q", got)
	}
	if got := Dollars(129); got != "$1.29" {
		t.Errorf("Dollars(129) = %q", got)
	}
	if got := List(nil); got != "-" {
		t.Errorf("List(nil) = %q", got)
	}
	if got := List([]string{"a", "b"}); got != "a,b" {
		t.Errorf("List() = %q", got)
	}
}

func TestGetFormatFromCmd(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	AddFormatFlag(cmd)

	if err := cmd.ParseFlags([]string{"-o", "yaml"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	format, err := GetFormatFromCmd(cmd)
	if err != nil || format != FormatYAML {
		t.Errorf("GetFormatFromCmd() = %v, %v", format, err)
	}

	if err := cmd.ParseFlags([]string{"-o", "xml"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if _, err := GetFormatFromCmd(cmd); err == nil {
		t.Error("expected error for xml format")
	}
}
