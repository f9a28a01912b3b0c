package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/couchcryptid/covid-stats-service/internal/domain"
	"github.com/couchcryptid/covid-stats-service/internal/view"
)

var (
	tableSort     string
	tableOrder    string
	tablePage     int
	tablePageSize int
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the merged statistics as a table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := view.ParseQuery(tableSort, tableOrder, fmt.Sprint(tablePage), fmt.Sprint(tablePageSize))
		if err != nil {
			return err
		}

		snap, err := fetchSnapshot(cmd.Context())
		if err != nil {
			return err
		}

		formatTable(os.Stdout, snap, view.Table(snap, q))
		return nil
	},
}

func init() {
	tableCmd.Flags().StringVar(&tableSort, "sort", string(view.ColumnActive), "sort column: country, confirmed, death, recovered, active, percentage")
	tableCmd.Flags().StringVar(&tableOrder, "order", string(view.Descending), "sort order: asc or desc")
	tableCmd.Flags().IntVar(&tablePage, "page", 1, "page number, starting at 1")
	tableCmd.Flags().IntVar(&tablePageSize, "page-size", view.DefaultPageSize, "rows per page")
	rootCmd.AddCommand(tableCmd)
}

// formatTable writes one page of rows followed by the global totals.
func formatTable(out io.Writer, snap *domain.Snapshot, page view.TablePage) {
	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)

	_, _ = fmt.Fprintln(w, "COUNTRY\tCONFIRMED\tDEATH\tRECOVERED\tACTIVE\tACTIVE %\t")
	for _, r := range page.Rows {
		_, _ = p.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.2f\t\n",
			r.Country, r.Confirmed, r.Death, r.Recovered, r.Active, r.Percentage)
	}
	_, _ = p.Fprintf(w, "TOTAL\t%d\t%d\t%d\t%d\t\t\n",
		snap.Totals.Confirmed, snap.Totals.Death, snap.Totals.Recovered, snap.Totals.Active)
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "cycle %d, page %d, %d of %d countries\n",
		snap.Cycle, page.Page, len(page.Rows), page.Total)
}
