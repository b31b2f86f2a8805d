package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/helpers"
	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/query"
	"github.com/spektr-org/canvas/schema"
)

// loadDataset reads a CSV or XLSX file. The table is named after the file
// unless name is set.
func loadDataset(path, name string) (*helpers.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if name == "" {
		name = schema.Key(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return helpers.ParseXLSX(bytes.NewReader(data), name, "")
	default:
		return helpers.ParseCSV(data, name)
	}
}

// loadLocal registers every file as a table of a local query service.
func loadLocal(paths []string) (*query.Local, *schema.Catalog, error) {
	svc := query.NewLocal(query.WithLogger(log))
	cat := &schema.Catalog{}
	for _, p := range paths {
		ds, err := loadDataset(p, "")
		if err != nil {
			return nil, nil, err
		}
		svc.Register(ds.Table.Name, ds.View())
		cat.Add(ds.Table)
		log.Info("table loaded", "table", ds.Table.Name, "rows", len(ds.Records), "columns", len(ds.Keys))
	}
	return svc, cat, nil
}

// parseFilters turns "column=a,b" flags into basic filters on table.
func parseFilters(table string, specs []string) (model.FilterSet, error) {
	var fs model.FilterSet
	for _, spec := range specs {
		col, values, ok := strings.Cut(spec, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid filter %q (want column=v1,v2)", spec)
		}
		ref := model.ColumnRef{Table: table, Column: col}
		fs = append(fs, engine.NewFilter(ref, col, model.Basic(strings.Split(values, ",")...)))
	}
	return fs, nil
}

func optionsCmd() *cobra.Command {
	var filters []string
	cmd := &cobra.Command{
		Use:   "options FILE COLUMN",
		Short: "List the selectable values of a column under the other filters",
		Example: `  canvas options orders.csv customer --filter region=North
  canvas options orders.csv region --filter region=North --filter status=open`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(args[0], "")
			if err != nil {
				return err
			}
			fs, err := parseFilters(ds.Table.Name, filters)
			if err != nil {
				return err
			}
			target := model.ColumnRef{Table: ds.Table.Name, Column: args[1]}
			for _, v := range newEngine().OptionsFor(ds.View(), fs, target) {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as column=v1,v2 (repeatable)")
	return cmd
}
