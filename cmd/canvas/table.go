package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/helpers"
	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/report"
	"github.com/spektr-org/canvas/schema"
)

func readDocument(path string) (model.Document, error) {
	var doc model.Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("failed to read report: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse report JSON: %w", err)
	}
	return doc, nil
}

func tableCmd() *cobra.Command {
	var (
		data   []string
		row    int
		column int
		sorts  []string
		format string
		export string
	)
	cmd := &cobra.Command{
		Use:   "table REPORT.json",
		Short: "Fetch one visual and print its expanded table",
		Example: `  canvas table sales.json --data orders.csv --row 0 --column 1
  canvas table sales.json --data orders.csv --sort sum_amount:desc --export out.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			svc, cat, err := loadLocal(data)
			if err != nil {
				return err
			}

			eng := engine.New(engine.WithLogger(log), engine.WithCatalog(cat), engine.WithRowLimit(cfg.Query.RowLimit))
			ed := report.New(doc,
				report.WithLogger(log),
				report.WithEngine(eng),
				report.WithQueryService(svc),
				report.WithConcurrency(cfg.Query.Concurrency))
			if _, err := ed.Refresh(context.Background()); err != nil {
				return err
			}

			pos := model.Position{Row: row, Column: column}
			res, ok := ed.Result(pos)
			if !ok {
				return fmt.Errorf("no bound visual at row %d column %d", row, column)
			}
			if res.Err != nil {
				return res.Err
			}

			view := res.Result.View()
			pipe, err := parseSorts(view, sorts)
			if err != nil {
				return err
			}
			table := engine.BuildTable(doc.Layout.Title, res.Descriptor, pipe.Apply(view))

			if export != "" {
				f, err := os.Create(export)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := helpers.ExportXLSX(f, table); err != nil {
					return err
				}
				log.Info("table exported", "file", export, "rows", len(table.Rows))
				return nil
			}

			switch format {
			case "csv":
				return writeTableCSV(cmd.OutOrStdout(), table)
			default:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(table)
			}
		},
	}
	cmd.Flags().StringArrayVar(&data, "data", nil, "CSV or XLSX file served as a table (repeatable)")
	cmd.Flags().IntVar(&row, "row", 0, "Row index of the visual")
	cmd.Flags().IntVar(&column, "column", 0, "Column index of the visual")
	cmd.Flags().StringArrayVar(&sorts, "sort", nil, "Sort level as key[:asc|desc] (repeatable)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, csv")
	cmd.Flags().StringVar(&export, "export", "", "Write the table to an XLSX file instead")
	return cmd
}

// parseSorts builds the sort levels; each column's comparator is inferred
// from its values.
func parseSorts(view engine.RecordView, specs []string) (engine.Pipeline, error) {
	var p engine.Pipeline
	for _, spec := range specs {
		key, dir, _ := strings.Cut(spec, ":")
		level := engine.SortLevel{
			Column:    key,
			Direction: model.Ascending,
			Type:      schema.InferSortType(engine.Column(view, key)),
		}
		if dir != "" {
			d, err := model.ParseDirection(dir)
			if err != nil {
				return p, err
			}
			level.Direction = d
		}
		p.Sorts = append(p.Sorts, level)
	}
	return p, nil
}

func writeTableCSV(w io.Writer, t *engine.TableData) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	if t.Summary != nil && len(t.Columns) > 0 {
		out := make([]string, len(t.Columns))
		out[0] = t.Summary.Label
		for i, c := range t.Columns {
			if v, ok := t.Summary.Values[c.Key]; ok {
				out[i] = v
			}
		}
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
