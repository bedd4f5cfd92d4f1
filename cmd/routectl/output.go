package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"stoprouter/internal/model"
)

func printView(w io.Writer, v model.RouteView) error {
	m := v.Metrics
	fmt.Fprintf(w, "session %s: %d stops, %d completed, %d remaining, ~%.1f km to go\n",
		v.SessionID, m.Total, m.Completed, m.Remaining, m.RemainingKm)
	if len(v.Stops) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTATUS\tLABEL\tADDRESS\tDISTRICT\tUID")
	for _, s := range v.Stops {
		marker := ""
		if s.IsNext {
			marker = " <- next"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s%s\n", s.OrderIndex, s.Status, s.Label, s.Address, s.District, shortUID(s.UID), marker)
	}
	return tw.Flush()
}

func shortUID(uid string) string {
	if len(uid) > 8 {
		return uid[:8]
	}
	return uid
}
