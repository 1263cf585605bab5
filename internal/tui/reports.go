package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/analytics"
	"github.com/sadopc/tomato/internal/store"
)

type reportsModel struct {
	store  *store.Store
	width  int
	height int

	summary analytics.Summary
	offset  int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	summary analytics.Summary
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := r.dateRange()
		summary, _ := analytics.Range(r.store, &from, &to)
		return reportsDataMsg{summary: summary}
	}
}

func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, 1-7*r.offset)
	return end.AddDate(0, 0, -7), end
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summary = msg.summary
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	r.chart = barchart.New(chartWidth, 10)

	from, to := r.dateRange()
	byDay := make(map[string]int64, len(r.summary.ByDay))
	for _, b := range r.summary.ByDay {
		byDay[b.Date] = b.TotalMs
	}

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		hours := float64(byDay[d.Format("2006-01-02")]) / 3600000.0
		style := accentStyle
		if hours == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{
				{Name: "focus", Value: hours, Style: style},
			},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Reports"), "  ", dateLabel)

	stats := r.renderStats()
	chartView := r.chart.View()
	breakdown := r.renderBreakdowns(w)
	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", stats, "", chartView, "", breakdown, "", nav,
		),
	)
}

func (r reportsModel) renderStats() string {
	s := r.summary
	cells := []string{
		fmt.Sprintf("%s %s", mutedStyle.Render("Focused:"), highlightStyle.Render(formatMs(s.TotalFocusMs))),
		fmt.Sprintf("%s %s", mutedStyle.Render("Sessions:"), highlightStyle.Render(fmt.Sprintf("%d", s.SessionCount))),
		fmt.Sprintf("%s %s", mutedStyle.Render("Completed:"), highlightStyle.Render(fmt.Sprintf("%d (%.0f%%)", s.CompletedCount, s.CompletionRate))),
		fmt.Sprintf("%s %s", mutedStyle.Render("Avg length:"), highlightStyle.Render(formatMs(s.AvgSessionMs))),
	}
	return "  " + strings.Join(cells, "   ")
}

func (r reportsModel) renderBreakdowns(w int) string {
	if len(r.summary.Projects) == 0 {
		return mutedStyle.Render("  No sessions in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %10s %9s", "Project", "Time", "Sessions")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 46))))
	for _, pb := range r.summary.Projects {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(pb.Color)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-22s %10s %9d", dot, pb.Name, formatMs(pb.TotalMs), pb.Sessions))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %10s %9s", "Category", "Time", "Sessions")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 46))))
	for _, cb := range r.summary.Categories {
		rows = append(rows, fmt.Sprintf("  %-24s %10s %9d", cb.Name, formatMs(cb.TotalMs), cb.Sessions))
	}

	return strings.Join(rows, "\n")
}
