package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/service"
)

func newStockCmd(a *app) *cobra.Command {
	stock := &cobra.Command{
		Use:   "stock",
		Short: "Inspect stock levels",
	}

	below := -1
	report := &cobra.Command{
		Use:   "report",
		Short: "Print the catalog as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := openStores(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer st.close(ctx)

			items, err := service.NewItemService(st.items, a.log).ListAll(ctx)
			if err != nil {
				return err
			}
			renderStockReport(cmd.OutOrStdout(), items, below)
			return nil
		},
	}
	report.Flags().IntVar(&below, "below", -1, "only show items with quantity at or below this value")

	stock.AddCommand(report)
	return stock
}

// renderStockReport writes items as a table. A negative below shows every item.
func renderStockReport(w io.Writer, items []*domain.Item, below int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"ID", "Name", "Category", "Price", "Quantity"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Price", Align: text.AlignRight},
		{Name: "Quantity", Align: text.AlignRight},
	})

	units := 0
	shown := 0
	for _, it := range items {
		if below >= 0 && it.Quantity > below {
			continue
		}
		t.AppendRow(table.Row{it.ID, it.Name, it.Category, fmt.Sprintf("%.2f", it.Price), it.Quantity})
		units += it.Quantity
		shown++
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d items", shown), "", "", units})
	t.Render()
}
