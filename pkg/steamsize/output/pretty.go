package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
)

// PrettyFormatter renders one styled status line per manifest between a
// header and a summary footer.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatLines(r))
	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	var roots []string
	for _, root := range r.Roots {
		roots = append(roots, root.Path)
	}
	if len(roots) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s",
			LabelStyle.Render("Libraries:"), ValueStyle.Render(strings.Join(roots, ", "))))
	}

	info := fmt.Sprintf("%s %s", LabelStyle.Render("Manifests:"), ValueStyle.Render(fmt.Sprintf("%d", len(r.Manifests))))
	if r.Duration > 0 {
		info += fmt.Sprintf("  %s %s", LabelStyle.Render("Took:"), ValueStyle.Render(formatDuration(r.Duration)))
	}
	if r.DryRun {
		info += "  " + WarningStyle.Render("dry run: nothing written")
	}
	lines = append(lines, info)

	if r.HistoryID != "" {
		lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("History:"), MutedStyle.Render(r.HistoryID)))
	}
	if r.Interrupted {
		lines = append(lines, WarningStyle.Bold(true).Render("Run interrupted"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatLines(r *Result) string {
	if len(r.Manifests) == 0 {
		return MutedStyle.Render("  No manifests found") + "\n"
	}

	var sb strings.Builder
	for _, m := range r.Manifests {
		line := StatusLine(m)
		symbol := m.Status.Symbol()
		rest := strings.TrimPrefix(line, symbol)
		sb.WriteString("  ")
		sb.WriteString(StatusStyle(m.Status).Render(symbol))
		sb.WriteString(rest)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string
	for _, s := range []types.Status{
		types.StatusUpdated, types.StatusDryRun, types.StatusUnchanged,
		types.StatusSkipped, types.StatusFailed, types.StatusRestored,
	} {
		n := r.Count(s)
		if n == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s",
			LabelStyle.Render(string(s)+":"), StatusStyle(s).Render(fmt.Sprintf("%d", n))))
	}

	if total := r.TotalSize(); total > 0 {
		parts = append(parts, fmt.Sprintf("%s %s",
			LabelStyle.Render("Measured:"), SizeStyle.Render(humanize.IBytes(uint64(total)))))
	}
	if len(parts) == 0 {
		parts = append(parts, MutedStyle.Render("nothing to do"))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d interface{ Seconds() float64 }) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
