package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"giftpoints/custodian/pkg/backup"
	"giftpoints/custodian/pkg/retention"

	"github.com/dustin/go-humanize"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is aligned text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
)

// ParseFormat returns the format named s.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// TextRenderer is implemented by results with a text rendering.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter renders TextRenderer values and prints anything else with %v.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	if r, ok := data.(TextRenderer); ok {
		return r.RenderText(w)
	}
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{Indent: true}
	}
	return &TextFormatter{}
}

// BackupList renders manifests as a table.
type BackupList []backup.Info

// RenderText implements TextRenderer.
func (l BackupList) RenderText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No backups found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, info := range l {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, humanize.Bytes(uint64(info.Size)), humanize.Time(info.ModTime))
	}
	return tw.Flush()
}

// BackupResult renders a completed backup.
type BackupResult backup.Result

// RenderText implements TextRenderer.
func (r *BackupResult) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Backup:\t%s\n", r.Name)
	fmt.Fprintf(tw, "Type:\t%s\n", r.Type)
	fmt.Fprintf(tw, "Collections:\t%d\n", r.Collections)
	fmt.Fprintf(tw, "Documents:\t%s\n", humanize.Comma(int64(r.Documents)))
	fmt.Fprintf(tw, "Size:\t%s\n", humanize.Bytes(uint64(r.SizeBytes)))
	if len(r.Failed) > 0 {
		fmt.Fprintf(tw, "Not captured:\t%s\n", strings.Join(r.Failed, ", "))
	}
	fmt.Fprintf(tw, "Rotated:\t%d\n", len(r.Rotated))
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration.Round(time.Millisecond))
	return tw.Flush()
}

// RestoreResult renders a completed restore.
type RestoreResult backup.RestoreResult

// RenderText implements TextRenderer.
func (r *RestoreResult) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Restored:\t%s\n", r.Name)
	fmt.Fprintf(tw, "By:\t%s\n", r.Actor)
	fmt.Fprintf(tw, "Collections:\t%d\n", r.Collections)
	fmt.Fprintf(tw, "Documents:\t%s\n", humanize.Comma(int64(r.Documents)))
	if len(r.Skipped) > 0 {
		fmt.Fprintf(tw, "Skipped:\t%s\n", strings.Join(r.Skipped, ", "))
	}
	fmt.Fprintf(tw, "Duration:\t%s\n", r.Duration.Round(time.Millisecond))
	return tw.Flush()
}

// RetentionReport renders a retention run per class.
type RetentionReport retention.Report

// RenderText implements TextRenderer.
func (r *RetentionReport) RenderText(w io.Writer) error {
	classes := make([]string, 0, len(r.Candidates))
	for class := range r.Candidates {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tEXPIRED\tDELETED")
	total := 0
	for _, class := range classes {
		total += r.Candidates[class]
		fmt.Fprintf(tw, "%s\t%d\t%d\n", class, r.Candidates[class], r.Deleted[class])
	}
	fmt.Fprintf(tw, "total\t%d\t\n", total)
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, err := range r.Errors {
		if _, werr := fmt.Fprintf(w, "error: %v\n", err); werr != nil {
			return werr
		}
	}
	return nil
}
