package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/naka-gawa/github-report/internal/domain"
)

var (
	colorCyan    = lipgloss.Color("36")
	colorGreen   = lipgloss.Color("35")
	colorYellow  = lipgloss.Color("220")
	colorMagenta = lipgloss.Color("170")
	colorGray    = lipgloss.Color("245")
	colorDim     = lipgloss.Color("240")
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorGray).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleOK     = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	styleInfo   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

var tableHeaders = []string{
	"Repository", "Owner", "Stars", "Forks", "Commits",
	"Last commit", "Language", "Open issues", "Pull requests",
}

// Table collects reports for the end-of-run console table.
type Table struct {
	title string
	rows  [][]string
}

// NewTable returns an empty table with the given title.
func NewTable(title string) *Table {
	return &Table{title: title}
}

// Add appends a row for r.
func (t *Table) Add(r *domain.Report) {
	t.rows = append(t.rows, []string{
		r.Name,
		r.Owner,
		strconv.Itoa(r.Stars),
		strconv.Itoa(r.Forks),
		strconv.Itoa(r.CommitCount),
		r.LastCommitDate,
		r.Language,
		strconv.Itoa(r.OpenIssues),
		strconv.Itoa(r.PullRequests),
	})
}

// Len returns the number of rows added so far.
func (t *Table) Len() int { return len(t.rows) }

// Render draws the table below its title.
func (t *Table) Render() string {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(tableHeaders...).
		Rows(t.rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			switch col {
			case 0:
				return styleCell.Foreground(colorCyan)
			case 1:
				return styleCell.Foreground(colorMagenta)
			case 2:
				return styleCell.Foreground(colorGreen).Align(lipgloss.Right)
			default:
				return styleCell.Foreground(colorYellow).Align(lipgloss.Right)
			}
		})
	return styleTitle.Render(t.title) + "\n" + tbl.Render()
}

// Summary renders the closing lines printed after the table.
func Summary(stats domain.RunStats, outputPath string) string {
	var b strings.Builder
	b.WriteString(styleOK.Render(fmt.Sprintf("Total repositories processed: %d", stats.Rows)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Written: %d, invalid: %d, failed: %d\n", stats.Written, stats.Invalid, stats.Failed)
	if stats.Written > 0 {
		fmt.Fprintf(&b, "Stars: total %d, mean %.1f, median %.1f. Mean commits: %.1f\n",
			stats.TotalStars, stats.MeanStars, stats.MedianStars, stats.MeanCommits)
		if stats.TopLanguage != "" {
			fmt.Fprintf(&b, "Most common language: %s\n", stats.TopLanguage)
		}
	}
	b.WriteString(styleInfo.Render(fmt.Sprintf("Reports saved to %s.", outputPath)))
	return b.String()
}
