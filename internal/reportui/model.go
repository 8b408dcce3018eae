// Package reportui provides the Bubble Tea report viewer.
package reportui

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dysgair/capteval/internal/errstats"
	"github.com/dysgair/capteval/internal/model"
	"github.com/dysgair/capteval/internal/report"
)

const (
	tabOverview = iota
	tabReport
	tabUnits
	tabConfusions
)

const (
	plotHeight = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Settings selects the samples shown and how curves are smoothed.
type Settings struct {
	Filter      model.SampleFilter
	CurveWindow int
}

// Loader builds a report for the given settings.
type Loader func(Settings) (report.Report, error)

// Model implements the Bubble Tea report UI.
type Model struct {
	load     Loader
	settings Settings

	report report.Report
	errMsg string

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	unitTable  tableView
	confTable  tableView
	system     model.System
	width      int
	height     int
	filterMode bool

	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type tableView struct {
	table  table.Model
	layout tableLayout
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
	colCount int
}

// NewModel constructs a report UI model and loads the first report.
func NewModel(load Loader, settings Settings) *Model {
	if settings.CurveWindow < 1 {
		settings.CurveWindow = report.DefaultCurveWindow
	}
	m := &Model{
		load:     load,
		settings: settings,
		tabs:     []string{"Overview", "Report", "Units", "Confusions"},
		system:   model.SystemA,
	}
	m.initInputs()
	m.unitTable.table = newTable(unitColumns(), nil)
	m.confTable.table = newTable(confusionColumns(), nil)
	m.initViewports()
	m.refreshReport()
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
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.settings.CurveWindow = nextCurveWindow(m.settings.CurveWindow)
			m.refreshReport()
			m.updateLayout()
			return m, nil
		case "-":
			m.settings.CurveWindow = prevCurveWindow(m.settings.CurveWindow)
			m.refreshReport()
			m.updateLayout()
			return m, nil
		case "s":
			m.system = m.system.Other()
			m.applyTables(true)
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if tv := m.activeTable(); tv != nil {
				tv.table.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if tv := m.activeTable(); tv != nil {
				tv.table.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if tv := m.activeTable(); tv != nil {
				var cmd tea.Cmd
				tv.table, cmd = tv.table.Update(msg)
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

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Batch: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromSettings()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromSettings() {
	f := m.settings.Filter
	m.filterInputs[0].SetValue(strings.TrimSpace(f.Batch))
	if f.Since != nil {
		m.filterInputs[1].SetValue(f.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if f.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(f.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
	m.filterInputs[3].SetValue(strconv.Itoa(m.settings.CurveWindow))
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
	m.unitTable.setSize(m.width, vpHeight)
	m.confTable.setSize(m.width, vpHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	m.unitTable.table.Blur()
	m.confTable.table.Blur()
	if tv := m.activeTable(); tv != nil {
		tv.table.Focus()
	}
}

func (m *Model) activeTable() *tableView {
	switch m.activeTab {
	case tabUnits:
		return &m.unitTable
	case tabConfusions:
		return &m.confTable
	}
	return nil
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
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	f := m.settings.Filter
	batch := f.Batch
	if batch == "" {
		batch = "all"
	}
	since := "any"
	if f.Since != nil {
		since = f.Since.Format("2006-01-02")
	}
	last := "all"
	if f.Last > 0 {
		last = strconv.Itoa(f.Last)
	}
	summary := fmt.Sprintf("Settings: batch=%s  since=%s  last=%s  window=%d  system=%s",
		batch, since, last, m.settings.CurveWindow, m.names().Of(m.system))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q"
	if m.activeTable() != nil {
		help = "Nav: left/right  Scroll: up/down/pgup/pgdn  System: s  Settings: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: ctrl+c")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if tv := m.activeTable(); tv != nil {
		if m.report.SampleSize == 0 {
			return fitLines("No samples found.", m.width, height)
		}
		if len(tv.table.Rows()) == 0 {
			return fitLines("Nothing to show for "+m.names().Of(m.system)+".", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(tv.table.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) names() model.Names {
	if m.report.Names.A == "" || m.report.Names.B == "" {
		return model.DefaultNames
	}
	return m.report.Names
}

func (m *Model) refreshReport() {
	r, err := m.load(m.settings)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load report.")
		}
		return
	}
	m.errMsg = ""
	m.report = r
	m.applyTables(true)
	m.renderTabContents()
}

func (m *Model) applyTables(force bool) {
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	res := m.characterResult()
	m.unitTable.apply(unitColumns(), unitRows(res), width, bodyHeight, force)
	m.confTable.apply(confusionColumns(), confusionRows(res), width, bodyHeight, force)
}

func (m *Model) characterResult() errstats.Result {
	if m.report.Characters == nil {
		return errstats.Result{}
	}
	if m.system == model.SystemB {
		return m.report.Characters.B
	}
	return m.report.Characters.A
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load report.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabReport].SetContent(renderFullReport(m.report, width))
}

func renderOverview(r report.Report, width int) string {
	if r.SampleSize == 0 || r.Summary == nil {
		return "No samples found."
	}
	names := r.Names
	if names.A == "" || names.B == "" {
		names = model.DefaultNames
	}
	s := r.Summary
	cards := []string{
		metricCard("Recordings", fmt.Sprintf("%d", s.TotalRecordings)),
		metricCard("Words", fmt.Sprintf("%d", s.TotalWords)),
		metricCard("Winner", s.OverallWinner),
		metricCard(names.A+" CER", fmt.Sprintf("%.2f / %.2f", s.Raw.MeanA, s.Normalized.MeanA)),
		metricCard(names.B+" CER", fmt.Sprintf("%.2f / %.2f", s.Raw.MeanB, s.Normalized.MeanB)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	finding := lipgloss.NewStyle().Width(width).Render(s.KeyFinding)
	out := summary + "\n" + headerStyle.Render("CER shown as raw / normalized") + "\n\n" + finding
	if r.Curve != nil {
		out += "\n\n" + renderCurve(*r.Curve, names, width)
	}
	return strings.TrimRight(out, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurve(c report.Curve, names model.Names, width int) string {
	var buf bytes.Buffer
	title := fmt.Sprintf("CER learning curve (moving average, window %d)", c.Window)
	series := []report.Series{{Name: names.A, Values: c.A}, {Name: names.B, Values: c.B}}
	if err := report.PlotSeries(&buf, title, series, report.PlotWidthFor(width), plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curve: %v", err)
	}
	if buf.Len() == 0 {
		return "No CER values to plot."
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderFullReport(r report.Report, width int) string {
	var buf bytes.Buffer
	if err := report.RenderText(&buf, r, report.TextOptions{Width: width, Color: true}); err != nil {
		return fmt.Sprintf("Failed to render report: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func unitColumns() []table.Column {
	return []table.Column{
		{Title: "Unit", Width: 6},
		{Title: "Error rate", Width: 10},
		{Title: "Errors", Width: 7},
		{Title: "Total", Width: 7},
	}
}

func unitRows(res errstats.Result) []table.Row {
	units := make([]string, 0, len(res.PerUnit))
	for unit := range res.PerUnit {
		units = append(units, unit)
	}
	sort.Slice(units, func(i, j int) bool {
		a, b := res.PerUnit[units[i]], res.PerUnit[units[j]]
		if a.Total == b.Total {
			return units[i] < units[j]
		}
		return a.Total > b.Total
	})
	rows := make([]table.Row, 0, len(units))
	for _, unit := range units {
		st := res.PerUnit[unit]
		rows = append(rows, table.Row{
			unitLabel(unit),
			fmt.Sprintf("%.2f%%", st.ErrorRate),
			fmt.Sprintf("%d", st.Errors),
			fmt.Sprintf("%d", st.Total),
		})
	}
	return rows
}

func confusionColumns() []table.Column {
	return []table.Column{
		{Title: "Expected", Width: 9},
		{Title: "Actual", Width: 9},
		{Title: "Count", Width: 7},
	}
}

func confusionRows(res errstats.Result) []table.Row {
	rows := make([]table.Row, 0, len(res.Confusion))
	for _, e := range res.Confusion {
		rows = append(rows, table.Row{unitLabel(e.Expected), unitLabel(e.Actual), fmt.Sprintf("%d", e.Count)})
	}
	return rows
}

func unitLabel(unit string) string {
	switch unit {
	case "":
		return "∅"
	case " ":
		return "<space>"
	}
	return unit
}

func newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func (tv *tableView) apply(cols []table.Column, rows []table.Row, width, height int, force bool) {
	viewportHeight := max(1, height-1)
	if !force &&
		tv.layout.width == width &&
		tv.layout.height == viewportHeight &&
		tv.layout.rowCount == len(rows) &&
		tv.layout.colCount == len(cols) {
		return
	}
	tv.table.SetRows(nil)
	tv.table.SetColumns(cols)
	tv.table.SetRows(rows)
	tv.table.GotoTop()
	tv.layout.rowCount = len(rows)
	tv.layout.colCount = len(cols)
	tv.layout.width = 0
	tv.setSize(width, height)
}

func (tv *tableView) setSize(width, height int) {
	viewportHeight := max(1, height-1)
	if tv.layout.width == width && tv.layout.height == viewportHeight {
		return
	}
	tv.layout.width = width
	tv.layout.height = viewportHeight
	tv.table.SetWidth(width)
	tv.table.SetHeight(viewportHeight)
	viewportHeight = tv.adjustHeight(height)
	if tv.layout.height != viewportHeight {
		tv.layout.height = viewportHeight
		tv.table.SetHeight(viewportHeight)
	}
}

// adjustHeight corrects the table height so its rendered view, header
// border included, fills bodyHeight lines.
func (tv *tableView) adjustHeight(bodyHeight int) int {
	target := max(1, bodyHeight)
	height := tv.table.Height()
	for i := 0; i < 2; i++ {
		viewHeight := lipgloss.Height(tv.table.View())
		if viewHeight == target {
			return height
		}
		height = max(height+target-viewHeight, 1)
		tv.table.SetHeight(height)
	}
	return height
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
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

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromSettings()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		settings, err := parseSettings(m.filterInputs)
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.settings = settings
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func parseSettings(inputs []textinput.Model) (Settings, error) {
	var s Settings
	s.Filter.Batch = strings.TrimSpace(inputs[0].Value())

	if sinceInput := strings.TrimSpace(inputs[1].Value()); sinceInput != "" {
		parsed, err := time.ParseInLocation("2006-01-02", sinceInput, time.Local)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		s.Filter.Since = &parsed
	}

	if lastInput := strings.TrimSpace(inputs[2].Value()); lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return Settings{}, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		s.Filter.Last = parsed
	}

	s.CurveWindow = report.DefaultCurveWindow
	if windowInput := strings.TrimSpace(inputs[3].Value()); windowInput != "" {
		parsed, err := strconv.Atoi(windowInput)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid curve window (use integer)")
		}
		if parsed < 1 {
			return Settings{}, fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		s.CurveWindow = parsed
	}
	return s, nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
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
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
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
