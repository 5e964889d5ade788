package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pqleval/pkg/catalog"
	"pqleval/pkg/datum"
	"pqleval/pkg/eval"
	"pqleval/pkg/execution"
	"pqleval/pkg/plan"
	"pqleval/pkg/plan/planyaml"
	"pqleval/pkg/ui/base"
)

// Model is the interactive plan runner: a YAML plan editor above the outcome
// of the last run.
type Model struct {
	engine  *eval.Engine
	catalog catalog.Catalog
	mode    execution.Mode

	planEditor  textarea.Model
	resultView  viewport.Model
	resultTable table.Model
	spinner     spinner.Model
	help        help.Model
	highlighter *PlanHighlighter

	width     int
	height    int
	executing bool
	showHelp  bool
	last      resultMsg
	history   []string

	keys keyMap
}

// NewModel creates a runner executing against cat, with doc preloaded in
// the editor.
func NewModel(engine *eval.Engine, cat catalog.Catalog, mode execution.Mode, doc string) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter a YAML plan here..."
	ta.CharLimit = 20000
	ta.ShowLineNumbers = true
	ta.SetHeight(12)
	ta.SetValue(doc)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(bgLight)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(textMuted)
	ta.FocusedStyle.Text = lipgloss.NewStyle().Foreground(textPrimary)
	ta.FocusedStyle.LineNumber = lipgloss.NewStyle().Foreground(textMuted)

	vp := viewport.New(80, 10)
	vp.Style = resultStyle

	t := table.New(
		table.WithColumns([]table.Column{{Title: "Result", Width: 80}}),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	s.Selected = s.Selected.
		Foreground(bgDark).
		Background(secondaryColor).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		engine:      engine,
		catalog:     cat,
		mode:        mode,
		planEditor:  ta,
		resultView:  vp,
		resultTable: t,
		spinner:     sp,
		help:        help.New(),
		highlighter: NewPlanHighlighter(),
		keys:        keys,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		if m.executing {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Execute):
			if doc := m.planEditor.Value(); strings.TrimSpace(doc) != "" {
				m.executing = true
				return m, m.runPlan(doc)
			}
			return m, nil

		case key.Matches(msg, m.keys.Explain):
			return m, m.explainPlan(m.planEditor.Value())

		case key.Matches(msg, m.keys.ToggleMode):
			if m.mode == execution.Strict {
				m.mode = execution.Permissive
			} else {
				m.mode = execution.Strict
			}
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.planEditor.SetValue("")
			m.last = resultMsg{}
			return m, nil

		case key.Matches(msg, m.keys.ShowStats):
			return m, m.showStatistics()

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		}

	case resultMsg:
		m.executing = false
		m.last = msg
		if msg.err == nil && msg.statement != "" {
			m.history = append(m.history, msg.statement)
		}
		m.updateResultDisplay()

	case spinner.TickMsg:
		if m.executing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	if !m.executing {
		var cmd tea.Cmd
		m.planEditor, cmd = m.planEditor.Update(msg)
		cmds = append(cmds, cmd)

		m.resultView, cmd = m.resultView.Update(msg)
		cmds = append(cmds, cmd)

		m.resultTable, cmd = m.resultTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	sections := []string{m.renderHeader(), m.renderPlanEditor()}

	switch {
	case m.executing:
		sections = append(sections, m.renderExecuting())
	case m.last.err != nil:
		sections = append(sections, m.renderError())
	case m.last.columns != nil:
		sections = append(sections, m.renderResultTable())
	case m.last.text != "":
		sections = append(sections, m.renderText())
	}

	sections = append(sections, m.renderStatusBar())
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return appStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderHelp() string {
	helpText := m.help.FullHelpView([][]key.Binding{
		{
			m.keys.Execute,
			m.keys.Explain,
			m.keys.ToggleMode,
			m.keys.Clear,
			m.keys.ShowStats,
			m.keys.Help,
			m.keys.Quit,
		},
	})

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(bgMedium).
		Render(helpText)
}

func (m Model) renderHeader() string {
	stats := m.engine.Stats()

	title := titleStyle.Render("pqleval")
	badge := ModeBadge(m.mode == execution.Strict)
	counters := lipgloss.NewStyle().
		Foreground(textSecondary).
		Render(fmt.Sprintf("Runs: %d | Failed: %d", stats.Executed, stats.Failed))

	header := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", badge, "  ", counters)

	separator := strings.Repeat("─", base.Clamp(m.width-4, 0, m.width))
	return header + "\n" + lipgloss.NewStyle().Foreground(bgLight).Render(separator)
}

func (m Model) renderPlanEditor() string {
	label := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Plan")

	return fmt.Sprintf("%s\n%s", label, editorStyle.Render(m.planEditor.View()))
}

func (m Model) renderExecuting() string {
	content := lipgloss.JoinHorizontal(lipgloss.Left, m.spinner.View(), " Running plan...")

	return lipgloss.NewStyle().
		Foreground(primaryColor).
		Padding(1, 0).
		Render(content)
}

func (m Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		errorStyle.Render(" ERROR "),
		lipgloss.NewStyle().Foreground(errorColor).Render(m.last.err.Error()))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errorColor).
		Padding(0, 1).
		Render(content)
}

func (m Model) renderResultTable() string {
	columns := make([]table.Column, len(m.last.columns))
	for i, col := range m.last.columns {
		columns[i] = table.Column{Title: col, Width: m.calculateColumnWidth(col, i)}
	}

	rows := make([]table.Row, len(m.last.rows))
	for i, row := range m.last.rows {
		cells := make(table.Row, len(row))
		for j, cell := range row {
			cells[j] = base.TruncateString(cell, columns[j].Width)
		}
		rows[i] = cells
	}

	m.resultTable.SetColumns(columns)
	m.resultTable.SetRows(rows)

	header := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Render(fmt.Sprintf("✓ %s (%d rows in %v)", m.last.title, len(rows), m.last.duration))

	return fmt.Sprintf("%s\n%s", header, m.resultTable.View())
}

func (m Model) renderText() string {
	label := successStyle.Render(" " + m.last.title + " ")
	return fmt.Sprintf("%s\n%s", label, m.resultView.View())
}

func (m Model) renderStatusBar() string {
	status := fmt.Sprintf("● %d globals", m.globalCount())

	timer := ""
	if m.last.duration > 0 {
		timer = fmt.Sprintf(" | Last run: %v", m.last.duration)
	}

	content := lipgloss.NewStyle().
		Foreground(accentColor).
		Render(status) +
		lipgloss.NewStyle().
			Foreground(textMuted).
			Render(timer+" | Press Ctrl+H for help")

	return statusBarStyle.
		Width(base.Clamp(m.width-4, 0, m.width)).
		Render(content)
}

func (m Model) globalCount() int {
	if mem, ok := m.catalog.(*catalog.Memory); ok {
		return len(mem.Names())
	}
	return 0
}

func (m Model) calculateColumnWidth(columnName string, index int) int {
	width := len(columnName) + 2
	for _, row := range m.last.rows {
		if index < len(row) && len(row[index])+2 > width {
			width = len(row[index]) + 2
		}
	}
	return base.Clamp(width, 10, 30)
}

func (m *Model) updateLayout() {
	editorHeight := 12
	resultHeight := base.Clamp(m.height-editorHeight-10, 3, m.height)

	m.planEditor.SetWidth(m.width - 6)
	m.resultView.Width = m.width - 6
	m.resultView.Height = resultHeight
	m.resultTable.SetHeight(resultHeight)
}

func (m *Model) updateResultDisplay() {
	if m.last.columns != nil {
		m.resultTable.Focus()
		return
	}
	m.resultTable.Blur()
	m.resultView.SetContent(m.last.text)
	m.resultView.GotoTop()
}

// resultMsg carries the outcome of a run, an explain or a stats request.
// A tabular result sets columns and rows; anything else is rendered as text.
type resultMsg struct {
	title     string
	statement string
	value     datum.Datum
	columns   []string
	rows      [][]string
	text      string
	err       error
	duration  time.Duration
}

// runPlan decodes doc, prepares it and executes it once under the current mode.
func (m Model) runPlan(doc string) tea.Cmd {
	engine, cat, mode := m.engine, m.catalog, m.mode
	return func() tea.Msg {
		start := time.Now()
		root, err := planyaml.Decode(strings.NewReader(doc))
		if err != nil {
			return resultMsg{err: err, duration: time.Since(start)}
		}
		stmt, err := engine.Prepare(root)
		if err != nil {
			return resultMsg{err: err, duration: time.Since(start)}
		}

		value, err := engine.Execute(context.Background(), stmt, cat, mode)
		out := resultMsg{
			title:     "Result",
			statement: stmt.ID(),
			value:     value,
			err:       err,
			duration:  time.Since(start),
		}
		if err != nil {
			return out
		}
		if columns, rows, ok := tabulate(value); ok && len(rows) > 0 {
			out.columns, out.rows = columns, rows
		} else {
			out.text = value.Pretty()
		}
		return out
	}
}

// explainPlan renders the operator tree of doc above its normalized,
// highlighted YAML form.
func (m Model) explainPlan(doc string) tea.Cmd {
	highlighter := m.highlighter
	return func() tea.Msg {
		root, err := planyaml.Decode(strings.NewReader(doc))
		if err != nil {
			return resultMsg{err: err}
		}
		if err := plan.Validate(root); err != nil {
			return resultMsg{err: err}
		}
		normalized, err := planyaml.Marshal(root)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{title: "Plan", text: plan.Explain(root) + "\n" + highlighter.Highlight(string(normalized))}
	}
}

// showStatistics renders the engine counters.
func (m Model) showStatistics() tea.Cmd {
	stats := m.engine.Stats()
	return func() tea.Msg {
		columns := []string{"Metric", "Value"}
		rows := [][]string{
			{"Mode", m.mode.String()},
			{"Prepared", fmt.Sprintf("%d", stats.Prepared)},
			{"Executed", fmt.Sprintf("%d", stats.Executed)},
			{"Failed", fmt.Sprintf("%d", stats.Failed)},
			{"Globals", fmt.Sprintf("%d", m.globalCount())},
		}
		if n := len(m.history); n > 0 {
			rows = append(rows, []string{"Last statement", m.history[n-1]})
		}
		return resultMsg{title: "Statistics", columns: columns, rows: rows}
	}
}
