package main

import (
	"fmt"
	"io"
	"strconv"

	"loan-risk-workers/internal/models"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var bandColors = map[models.Status]*color.Color{
	models.StatusPass: color.New(color.FgGreen),
	models.StatusWarn: color.New(color.FgYellow),
	models.StatusFail: color.New(color.FgRed),
}

func band(s models.Status) string {
	if c, ok := bandColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func renderSummary(w io.Writer, report *models.PortfolioReport) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(w, "\nBatch %s", report.BatchID)
	if report.BatchName != "" {
		heading.Fprintf(w, " (%s)", report.BatchName)
	}
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Status", "Seen", "Scored", "Failed", "Average", "PASS", "WARN", "FAIL", "Seconds"})
	table.Append([]string{
		string(report.Status),
		strconv.Itoa(report.RecordsSeen),
		strconv.Itoa(report.TotalRecords),
		strconv.Itoa(report.FailedRecords),
		fmt.Sprintf("%.2f", report.AverageScore),
		strconv.Itoa(report.Distribution.Pass),
		strconv.Itoa(report.Distribution.Warn),
		strconv.Itoa(report.Distribution.Fail),
		fmt.Sprintf("%.2f", report.ProcessingTimeSeconds),
	})
	table.Render()
}

func renderCandidates(w io.Writer, candidates []models.AggregateResult) {
	if len(candidates) == 0 {
		return
	}
	color.New(color.FgYellow).Fprintf(w, "\nTop %d candidates\n", len(candidates))

	header := []string{"#", "Applicant", "Average", "Band"}
	for _, f := range models.AllFactors {
		header = append(header, string(f))
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	for i, c := range candidates {
		row := []string{
			strconv.Itoa(i + 1),
			c.Applicant,
			fmt.Sprintf("%.2f", c.AverageScore),
			band(c.Band()),
		}
		for _, f := range models.AllFactors {
			row = append(row, strconv.Itoa(c.Factors[f].Score))
		}
		table.Append(row)
	}
	table.Render()
}

func renderFailures(w io.Writer, failures []models.RecordFailure) {
	if len(failures) == 0 {
		return
	}
	color.New(color.FgRed).Fprintf(w, "\nSkipped %d records\n", len(failures))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Index", "Applicant", "Code", "Message"})
	table.SetColWidth(60)
	for _, f := range failures {
		table.Append([]string{strconv.Itoa(f.Index), f.Applicant, f.Code, f.Message})
	}
	table.Render()
}
