package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/fatih/color"
)

var (
	unreadMark = color.New(color.FgYellow)
	readMark   = color.New(color.FgHiBlack)
	faint      = color.New(color.FgHiBlack)
)

func printSuccess(w io.Writer, msg string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, msg+"\n", args...)
}

// printRows writes one line per notification. Unread rows carry a marker.
// Both markers are wrapped in escapes of the same length so the columns
// stay aligned with colour on.
func printRows(w io.Writer, rows []models.Notification) error {
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	if len(rows) == 0 {
		faint.Fprintln(w, "No notifications")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, n := range rows {
		mark := unreadMark.Sprint("*")
		if n.IsRead {
			mark = readMark.Sprint(" ")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", mark, n.ID, n.CreatedAt.Local().Format("Jan 02 15:04"), n.Message)
	}
	return tw.Flush()
}
