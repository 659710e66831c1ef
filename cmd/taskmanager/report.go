package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Swind/go-task-manager/core"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// colorScheme holds sprintf style helpers; all are plain when disabled.
type colorScheme struct {
	Header  func(format string, a ...interface{}) string
	Success func(format string, a ...interface{}) string
	Error   func(format string, a ...interface{}) string
	Warning func(format string, a ...interface{}) string
}

func newColorScheme(disabled bool) colorScheme {
	if disabled {
		plain := color.New()
		plain.DisableColor()
		return colorScheme{
			Header:  plain.Sprintf,
			Success: plain.Sprintf,
			Error:   plain.Sprintf,
			Warning: plain.Sprintf,
		}
	}
	return colorScheme{
		Header:  color.New(color.FgWhite, color.Bold).Sprintf,
		Success: color.New(color.FgGreen).Sprintf,
		Error:   color.New(color.FgRed, color.Bold).Sprintf,
		Warning: color.New(color.FgYellow).Sprintf,
	}
}

// writeReport renders the final statistics, the drain outcome and the most
// recent task records.
func writeReport(w io.Writer, stats core.StatisticsSnapshot, outcome core.DrainOutcome, recent []core.TaskExecutionRecord, noColor bool) error {
	colors := newColorScheme(noColor)

	fmt.Fprintln(w, colors.Header("Manager %s (%s)", stats.Name, stats.State))

	table := createTable(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.AppendBulk([][]string{
		{"submitted", strconv.FormatInt(stats.SubmittedCount, 10)},
		{"completed", strconv.FormatInt(stats.CompletedCount, 10)},
		{"failed", strconv.FormatInt(stats.FailedCount, 10)},
		{"abandoned", strconv.FormatInt(stats.AbandonedCount, 10)},
		{"rejected", strconv.FormatInt(stats.RejectedCount, 10)},
		{"terminated", strconv.FormatInt(stats.Terminated(), 10)},
		{"active", strconv.FormatInt(stats.ActiveCount, 10)},
		{"queued", strconv.Itoa(stats.QueueSize)},
		{"pool size", fmt.Sprintf("%d/%d", stats.PoolSize, stats.MaxPoolSize)},
		{"uptime", stats.Uptime.Round(time.Millisecond).String()},
	})
	table.Render()

	if len(recent) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, colors.Header("Recent tasks"))
		tasks := createTable(w)
		tasks.SetHeader([]string{"Name", "Outcome", "Duration"})
		for _, r := range recent {
			tasks.Append([]string{r.Name, outcomeText(colors, r.Outcome), r.Duration.Round(time.Microsecond).String()})
		}
		tasks.Render()
	}

	fmt.Fprintln(w)
	switch outcome {
	case core.DrainedCompletely:
		fmt.Fprintf(w, "Outcome: %s\n", colors.Success("%s", outcome))
	default:
		fmt.Fprintf(w, "Outcome: %s\n", colors.Error("%s", outcome))
	}
	return nil
}

func outcomeText(colors colorScheme, outcome core.TaskOutcome) string {
	switch outcome {
	case core.TaskOutcomeCompleted:
		return colors.Success("%s", outcome)
	case core.TaskOutcomeFailed:
		return colors.Error("%s", outcome)
	default:
		return colors.Warning("%s", outcome)
	}
}

func createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}
