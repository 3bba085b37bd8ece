package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ward/internal/blocklist"
)

// renderBlocklist draws one section per non-empty list, numbering entries
// within their list, with a total in the footer.
func renderBlocklist(order []blocklist.List, view map[blocklist.List][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"List", "#", "Entry"})

	total := 0
	for _, list := range order {
		entries := view[list]
		if len(entries) == 0 {
			continue
		}
		if total > 0 {
			tw.AppendSeparator()
		}
		for i, entry := range entries {
			tw.AppendRow(table.Row{string(list), strconv.Itoa(i + 1), entry})
		}
		total += len(entries)
	}
	label := "entries"
	if total == 1 {
		label = "entry"
	}
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d %s", total, label)})
	tw.Style().Format.Footer = text.FormatDefault
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})
	return tw.Render()
}
