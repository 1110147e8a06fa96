package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/anatolykoptev/go-imagecull"
)

func renderReport(report *imagecull.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("imagecull " + report.Root)
	tw.AppendHeader(table.Row{"Stage", "Scanned", "Kept", "Quarantined", "Failed", "Time"})

	title := cases.Title(language.English)
	for _, st := range report.Stages {
		tw.AppendRow(table.Row{
			title.String(st.Name),
			strconv.Itoa(st.Scanned),
			strconv.Itoa(st.Passed),
			strconv.Itoa(st.Quarantined),
			strconv.Itoa(st.Failed),
			st.Duration.Round(time.Millisecond).String(),
		})
	}
	tw.AppendFooter(table.Row{"Total", "", "", strconv.Itoa(report.Quarantined()), "", ""})

	configs := make([]table.ColumnConfig, 0, 5)
	for i := 2; i <= 6; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)

	var b strings.Builder
	b.WriteString(tw.Render())
	if n := len(report.Events); n > 0 {
		fmt.Fprintf(&b, "\n%d file(s) moved to quarantine (run %s)", n, report.RunID)
	}
	return b.String()
}
