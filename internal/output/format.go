package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Format represents the output format type
type Format string

const (
	// FormatText is the default human-readable table format
	FormatText Format = "text"
	// FormatJSON is the JSON output format
	FormatJSON Format = "json"
	// FormatYAML is the YAML output format
	FormatYAML Format = "yaml"
)

// Formatter handles different output formats
type Formatter struct {
	format Format
	writer io.Writer
}

// New creates a new Formatter with the specified format
func New(format Format) *Formatter {
	return &Formatter{
		format: format,
		writer: os.Stdout,
	}
}

// SetWriter sets a custom writer for output (useful for testing)
func (f *Formatter) SetWriter(w io.Writer) {
	f.writer = w
}

// Writer returns the destination of the output
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// IsText returns true if the format is text
func (f *Formatter) IsText() bool {
	return f.format == FormatText
}

// Output writes data as JSON or YAML. Text output is rendered by the caller through Table.
func (f *Formatter) Output(data interface{}) error {
	switch f.format {
	case FormatJSON:
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(f.writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(toGeneric(data)); err != nil {
			return err
		}
		return encoder.Close()
	case FormatText:
		_, err := fmt.Fprintf(f.writer, "%v\n", data)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", f.format)
	}
}

// toGeneric round-trips data through JSON so YAML output uses the same snake_case field names
func toGeneric(data interface{}) interface{} {
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return data
	}
	return generic
}

// Table writes rows as aligned columns under the given headers
func (f *Formatter) Table(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Bytes renders a byte count in human-readable units, or "-" when unknown
func Bytes(n *int64) string {
	if n == nil {
		return "-"
	}
	return datasize.ByteSize(*n).HumanReadable()
}

// GiB renders a size given in GiB
func GiB(n int) string {
	return (datasize.ByteSize(n) * datasize.GB).HumanReadable()
}

// Dollars renders a price given in cents
func Dollars(cents int) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// List joins values for a table cell, or "-" when empty
func List(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ",")
}

// AddFormatFlag adds a --output flag to a cobra command
func AddFormatFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("output", "o", "text", "Output format (text|json|yaml)")
}

// GetFormatFromCmd extracts the output format from a cobra command's flags
func GetFormatFromCmd(cmd *cobra.Command) (Format, error) {
	formatStr, err := cmd.Flags().GetString("output")
	if err != nil {
		return FormatText, err
	}

	format := Format(formatStr)
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return format, nil
	default:
		return FormatText, fmt.Errorf("invalid output format: %s (must be 'text', 'json' or 'yaml')", formatStr)
	}
}
