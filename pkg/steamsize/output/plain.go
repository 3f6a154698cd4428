package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter formats output as an aligned table without colors,
// suitable for scripting and piping.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := fmt.Fprintln(tw, "STATUS\tOLD\tNEW\tMANIFEST\tDETAIL"); err != nil {
		return err
	}
	for _, m := range r.Manifests {
		old, size := "-", "-"
		if m.Sized() {
			old = m.OldSize
			if old == "" {
				old = "(none)"
			}
			size = fmt.Sprintf("%d", m.NewSize)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Status, old, size, m.Path, m.Reason); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
