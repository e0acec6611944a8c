// Package view renders expenses and the dashboard for the terminal.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

const (
	idWidth       = 13
	dayWidth      = 10
	categoryWidth = 14
	amountWidth   = 14

	// DefaultBarWidth is the length of the longest daily bar.
	DefaultBarWidth = 30
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6750A4"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	totalStyle = lipgloss.NewStyle().Bold(true)
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B58392"))
)

// ExpenseTable renders expenses in the given order followed by their total.
func ExpenseTable(expenses []core.Expense, loc *time.Location) string {
	if len(expenses) == 0 {
		return mutedStyle.Render("No expenses.")
	}
	lines := make([]string, 0, len(expenses)+4)
	header := fmt.Sprintf("%-*s  %-*s  %-*s  %*s  %s",
		idWidth, "ID", dayWidth, "Date", categoryWidth, "Category", amountWidth, "Amount", "Note")
	lines = append(lines, titleStyle.Render(header))
	for _, e := range expenses {
		lines = append(lines, fmt.Sprintf("%-*s  %-*s  %-*s  %*s  %s",
			idWidth, clip(e.ID, idWidth),
			dayWidth, core.FormatDay(e.Day(loc)),
			categoryWidth, clip(e.Category, categoryWidth),
			amountWidth, core.FormatVND(e.Amount),
			e.Note))
	}
	lines = append(lines, mutedStyle.Render(strings.Repeat("─", idWidth+dayWidth+categoryWidth+amountWidth+6)))
	total := fmt.Sprintf("%-*s  %*s  (%d)",
		idWidth+dayWidth+categoryWidth+4, "Total", amountWidth, core.FormatVND(core.GrandTotal(expenses)), len(expenses))
	lines = append(lines, totalStyle.Render(total))
	return strings.Join(lines, "\n")
}

// Categories lists category ids and names.
func Categories(categories []core.Category) string {
	if len(categories) == 0 {
		return mutedStyle.Render("No categories.")
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("%-36s  %s", "ID", "Name"))}
	for _, c := range categories {
		lines = append(lines, fmt.Sprintf("%-36s  %s", c.ID, c.Name))
	}
	return strings.Join(lines, "\n")
}

// Dashboard renders the total, one bar per day and the category shares.
// Categories past the palette are listed without a colour swatch.
func Dashboard(o core.Overview, barWidth int) string {
	if barWidth <= 0 {
		barWidth = DefaultBarWidth
	}
	var b strings.Builder
	b.WriteString(totalStyle.Render("Total: " + core.FormatVND(o.Total)))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Daily"))
	b.WriteString("\n")
	if len(o.Daily) == 0 {
		b.WriteString(mutedStyle.Render("No expenses."))
		b.WriteString("\n")
	}
	peak := core.Zero
	for _, d := range o.Daily {
		if d.Amount.GreaterThan(peak.Decimal) {
			peak = d.Amount
		}
	}
	for i, d := range o.Daily {
		label := d.Day
		if i < len(o.Labels) {
			label = o.Labels[i]
		}
		if label == "" {
			label = "undated"
		}
		bar := barStyle.Render(strings.Repeat("█", barLength(d.Amount, peak, barWidth)))
		fmt.Fprintf(&b, "%-8s %*s %s\n", label, amountWidth, core.FormatVND(d.Amount), bar)
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("By category"))
	b.WriteString("\n")
	for i, c := range o.ByCategory {
		swatch := " "
		if i < len(o.Colors) {
			swatch = lipgloss.NewStyle().Foreground(lipgloss.Color(o.Colors[i])).Render("■")
		}
		fmt.Fprintf(&b, "%s %-*s %*s %6s\n", swatch, categoryWidth, clip(c.Name, categoryWidth),
			amountWidth, core.FormatVND(c.Amount), share(c.Amount, o.Total))
	}
	return strings.TrimRight(b.String(), "\n")
}

// barLength scales amount against peak; any positive amount gets at least
// one cell.
func barLength(amount, peak core.Money, width int) int {
	if !peak.IsPositive() || !amount.IsPositive() {
		return 0
	}
	n := int(amount.Mul(decimal.NewFromInt(int64(width))).Div(peak.Decimal).Round(0).IntPart())
	return max(1, min(n, width))
}

func share(part, total core.Money) string {
	if !total.IsPositive() {
		return "-"
	}
	pct := part.Mul(decimal.NewFromInt(100)).Div(total.Decimal)
	return pct.StringFixed(1) + "%"
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
