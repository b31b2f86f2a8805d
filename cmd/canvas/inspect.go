package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/model"
)

func inspectCmd() *cobra.Command {
	var against string
	cmd := &cobra.Command{
		Use:   "inspect REPORT.json",
		Short: "Print the layout, bindings and filters of a report",
		Example: `  canvas inspect sales.json
  canvas inspect sales.json --diff sales.saved.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if against != "" {
				saved, err := readDocument(against)
				if err != nil {
					return err
				}
				tracker := engine.NewTracker(saved)
				fmt.Fprintf(out, "state: %s\n", tracker.State(doc))
				if d := engine.Diff(saved, doc); d != "" {
					fmt.Fprintln(out, d)
				}
				return nil
			}

			printDocument(out, doc)
			return nil
		},
	}
	cmd.Flags().StringVar(&against, "diff", "", "Compare with a saved copy of the report")
	return cmd
}

func printDocument(w io.Writer, doc model.Document) {
	d := doc.Layout
	fmt.Fprintf(w, "%s\n", d.Title)
	if d.Description != "" {
		fmt.Fprintf(w, "  %s\n", d.Description)
	}
	printFilters(w, "page filters", doc.PageFilters, "")

	for ri, r := range d.Rows {
		fmt.Fprintf(w, "row %d  %s  height %d (%dpx)  %d/%d populated\n",
			ri, r.Template, r.HeightLevel, r.PixelHeight(), r.Populated(), r.Template.Capacity())
		for ci, c := range r.Columns {
			if c.Visual == nil {
				fmt.Fprintf(w, "  [%d] empty\n", ci)
				continue
			}
			v := c.Visual
			fmt.Fprintf(w, "  [%d] %s hasData=%t\n", ci, v.Kind, v.HasData)
			for _, sb := range v.Bindings() {
				agg := ""
				if sb.Binding.Aggregation != model.AggNone {
					agg = " (" + sb.Binding.Aggregation.Label() + ")"
				}
				fmt.Fprintf(w, "      %s[%d] %s as %q%s\n",
					sb.Slot.Name, sb.Index, sb.Binding.Ref(), sb.Binding.Label(), agg)
			}
			printFilters(w, "filters", v.Filters, "      ")
		}
	}
}

func printFilters(w io.Writer, title string, fs model.FilterSet, indent string) {
	if len(fs) == 0 {
		return
	}
	fmt.Fprintf(w, "%s%s:\n", indent, title)
	for _, f := range fs {
		tags := []string{f.Config.Type.String()}
		if f.Implicit {
			tags = append(tags, "implicit")
		}
		if !engine.Restricts(f.Config) {
			tags = append(tags, "inactive")
		}
		fmt.Fprintf(w, "%s  %s %s [%s]\n", indent, f.Label(), f.Ref(), strings.Join(tags, ", "))
	}
}
