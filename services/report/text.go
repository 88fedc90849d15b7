package report

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderText is the plain-text alternative of the HTML report
func renderText(v view) string {
	var b strings.Builder
	b.WriteString(v.Heading)
	b.WriteString("\n")
	b.WriteString(v.Date)
	b.WriteString("\n")

	for _, g := range v.New {
		writeGroup(&b, g)
	}
	if len(v.Summary) > 0 {
		b.WriteString("\nStill listed\n")
		for _, g := range v.Summary {
			writeGroup(&b, g)
		}
	}
	return b.String()
}

func writeGroup(b *strings.Builder, g group) {
	t := table.NewWriter()
	t.SetTitle(g.Name)
	t.AppendHeader(table.Row{"Site", "Title", "Venue", "Date", "Price", "Status", "URL"})
	for _, r := range g.Rows {
		t.AppendRow(table.Row{r.Site, r.Title, r.Venue, r.Date, r.Price, r.Status, r.URL})
	}
	t.SetStyle(table.StyleLight)

	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
}
