package main

import (
	"context"
	"fmt"

	"return-insight/pkg/calculator"
	"return-insight/pkg/charts"
	"return-insight/pkg/dataset"
	"return-insight/pkg/session"

	"github.com/spf13/cobra"
)

func dashboardCmd() *cobra.Command {
	var (
		categories []string
		sortDir    string
		width      int
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the return rate and the most returned products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := calculator.ParseDirection(sortDir)
			if err != nil {
				return err
			}
			loader := func(ctx context.Context) (*dataset.Frame, error) {
				return loadSales(ctx, appCfg, progressWriter(appCfg))
			}
			store := session.NewStore(loader, appCfg.SessionTTL, appLogger, nil)
			d, err := store.Start(cmd.Context())
			if err != nil {
				return err
			}
			defer store.End(d.ID)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, successStyle.Render(d.Source()+" loaded successfully!"))

			if cmd.Flags().Changed("category") {
				d.ApplyFilter(categories)
			}
			res := d.SetDirection(dir)
			if d.Filterable() {
				fmt.Fprintf(out, "Categories: %v (available: %v)\n", d.Selected(), d.Categories())
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("1. Overall Return Rate"))
			fmt.Fprintln(out, charts.RenderText(res.Pie, width))
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("2. Most Returned Products"))
			fmt.Fprintln(out, charts.RenderText(res.Bar, width))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&categories, "category", nil, "keep only these categories (default: all)")
	cmd.Flags().StringVar(&sortDir, "sort", string(calculator.Descending), "bar chart order (asc, desc)")
	cmd.Flags().IntVar(&width, "width", 40, "bar width in characters")
	return cmd
}
