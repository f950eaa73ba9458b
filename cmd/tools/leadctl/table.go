package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"lead-crm/internal/view"
)

var tableHeader = "NAME\tCONTACT\tSTATUS\tQUALIFICATION\tINTEREST\tSOURCE\tASSIGNED TO\tUPDATED"

func renderTable(out io.Writer, rows []view.LeadView, total int) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, tableHeader)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s %s\n",
			r.Name, r.Contact, r.Status, r.Qualification, r.Interest, r.Source, r.AssignedTo,
			r.UpdatedDate, r.UpdatedTime)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d of %d leads\n", len(rows), total)
	return err
}
