// Package statsui provides the Bubble Tea trip browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/logbook/internal/model"
	"github.com/verte-zerg/logbook/internal/stats"
)

const (
	tabTrips = iota
	tabPeriods
	tabSummary
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3AA6A6"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A9B4BE")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#3C4650"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4FC1C1"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3C4650"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source is the store access the browser needs.
type Source interface {
	stats.TripSource
	ListYears(ctx context.Context, vehicleID string) ([]int, error)
}

// Model implements the Bubble Tea trip browser.
type Model struct {
	src Source
	cfg model.GridConfig

	years   []int
	grid    stats.Grid
	summary stats.Summary
	errMsg  string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	tripTable table.Model

	width  int
	height int
}

// NewModel constructs a browser for one vehicle, starting at cfg.Year.
// A zero year opens the most recent year with trips.
func NewModel(src Source, cfg model.GridConfig) *Model {
	m := &Model{
		src:  src,
		cfg:  cfg,
		tabs: []string{"Trips", "Periods", "Summary"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.tripTable = table.New(table.WithColumns(tripColumns()), table.WithHeight(1), table.WithFocused(true))
	m.tripTable.SetStyles(tripTableStyles())
	m.loadYears()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "[":
			m.moveYear(-1)
			return m, nil
		case "]":
			m.moveYear(1)
			return m, nil
		case "s":
			m.cfg.Strict = !m.cfg.Strict
			m.refresh()
			return m, nil
		case "c":
			m.cfg.Carryover = !m.cfg.Carryover
			m.refresh()
			return m, nil
		case "g", "home":
			if m.activeTab == tabTrips {
				m.tripTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabTrips {
				m.tripTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabTrips {
				var cmd tea.Cmd
				m.tripTable, cmd = m.tripTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Year returns the year currently shown.
func (m *Model) Year() int {
	return m.cfg.Year
}

func (m *Model) loadYears() {
	years, err := m.src.ListYears(context.Background(), m.cfg.VehicleID)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.years = years
	if m.cfg.Year == 0 && len(years) > 0 {
		m.cfg.Year = years[0]
	}
}

// moveYear steps through years with trips; delta -1 goes back in time.
// Years are listed newest first.
func (m *Model) moveYear(delta int) {
	if len(m.years) == 0 {
		return
	}
	idx := -1
	for i, y := range m.years {
		if y == m.cfg.Year {
			idx = i
			break
		}
	}
	next := idx - delta
	if idx < 0 {
		next = 0
	}
	if next < 0 || next >= len(m.years) {
		return
	}
	m.cfg.Year = m.years[next]
	m.refresh()
}

func (m *Model) refresh() {
	grid, err := stats.BuildGrid(context.Background(), m.src, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load trips.")
		}
		m.tripTable.SetRows(nil)
		return
	}
	m.errMsg = ""
	m.grid = grid
	m.summary = stats.Summarize(grid)
	m.tripTable.SetRows(tripRows(grid))
	m.tripTable.GotoTop()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabPeriods].SetContent(renderText(func(buf *bytes.Buffer) error {
		return stats.RenderPeriods(buf, m.grid)
	}))
	m.viewports[tabSummary].SetContent(renderSummaryCards(m.grid, m.summary, width))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.tripTable.SetWidth(m.width)
	m.tripTable.SetHeight(maxInt(1, vpHeight-1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabTrips {
		m.tripTable.Focus()
	} else {
		m.tripTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	v := m.grid.Vehicle
	line := fmt.Sprintf("%s (%s)  year=%d  carryover=%t  strict=%t", v.Name, v.LicensePlate, m.cfg.Year, m.cfg.Carryover, m.cfg.Strict)
	return tabs + "\n" + padLines(headerStyle.Render(truncateLine(line, m.width)), m.width)
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Year: [/]  Carryover: c  Strict: s  Scroll: up/down  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.activeTab == tabTrips {
		if len(m.grid.Rows) == 0 {
			return fitLines("No trips found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.tripTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func tripColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "From", Width: 16},
		{Title: "To", Width: 16},
		{Title: "Km", Width: 6},
		{Title: "Fuel", Width: 6},
		{Title: "l/100km", Width: 8},
		{Title: "Used", Width: 6},
		{Title: "Left", Width: 6},
		{Title: "", Width: 3},
	}
}

func tripRows(g stats.Grid) []table.Row {
	rows := make([]table.Row, 0, len(g.Rows))
	for _, r := range g.Rows {
		fuelAdded := ""
		if r.Trip.FuelAdded != nil {
			fuelAdded = strconv.FormatFloat(*r.Trip.FuelAdded, 'f', 2, 64)
		}
		rate := strconv.FormatFloat(r.Fuel.Rate, 'f', 2, 64)
		if r.Fuel.Estimated {
			rate += "~"
		}
		flag := ""
		if r.ConsumptionWarning {
			flag += "!"
		}
		if r.DateWarning {
			flag += "D"
		}
		rows = append(rows, table.Row{
			r.Trip.Date,
			r.Trip.Origin,
			r.Trip.Destination,
			strconv.FormatFloat(r.Trip.Distance, 'f', 0, 64),
			fuelAdded,
			rate,
			strconv.FormatFloat(r.Fuel.Consumed, 'f', 2, 64),
			strconv.FormatFloat(r.Fuel.Remaining, 'f', 2, 64),
			flag,
		})
	}
	return rows
}

func tripTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#3C4650")).
		Foreground(lipgloss.Color("#C3CCD4")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func renderSummaryCards(g stats.Grid, s stats.Summary, width int) string {
	if s.Trips == 0 {
		return "No trips found."
	}
	margin := "-"
	if s.Margin != nil {
		margin = fmt.Sprintf("%+.1f%%", *s.Margin)
	}
	cards := []string{
		metricCard("Distance", fmt.Sprintf("%.0f km", s.TotalDistance)),
		metricCard("Fuel", fmt.Sprintf("%.2f l", s.TotalFuel)),
		metricCard("Fuel cost", s.TotalFuelCost.StringFixed(2)+" EUR"),
		metricCard("Avg l/100km", fmt.Sprintf("%.2f", s.AverageRate)),
		metricCard("Remaining", fmt.Sprintf("%.2f l", s.FuelRemaining)),
		metricCard("Worst margin", margin),
	}
	var body string
	if width < 80 {
		body = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		body = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	var notes []string
	if s.OverLimit {
		notes = append(notes, warnStyle.Render(fmt.Sprintf("Over legal limit: add %.1f km of trips.", s.BufferKm)))
	}
	if len(g.Diagnostics) > 0 {
		notes = append(notes, warnStyle.Render(fmt.Sprintf("%d tank clamps in this year.", len(g.Diagnostics))))
	}
	levels := stats.Sparkline(stats.Resample(g.Levels(), maxInt(10, width-8)))
	notes = append(notes, headerStyle.Render("Level ")+levels)
	return body + "\n\n" + strings.Join(notes, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderText(render func(buf *bytes.Buffer) error) string {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
