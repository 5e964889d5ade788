package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// ops are the node names a plan document may use.
	ops = []string{
		"lit", "var", "global", "field", "index", "unary", "binary", "is", "in",
		"case", "coalesce", "nullif", "struct", "list", "bag", "tupleunion", "cast",
		"call", "collagg", "select", "pivot", "subquery", "scan", "unpivot", "join",
		"filter", "sort", "limit", "offset", "distinct", "exclude", "aggregate", "setop",
	}

	operators = []string{
		"=", "<>", "!=", "<", ">", "<=", ">=", "+", "-", "*", "/", "%", "||",
		"AND", "OR", "NOT",
	}
)

// PlanHighlighter colors YAML plan documents: mapping keys, node names,
// operators, strings, numbers and comments.
type PlanHighlighter struct {
	ops       map[string]bool
	operators map[string]bool

	keyStyle      lipgloss.Style
	opStyle       lipgloss.Style
	stringStyle   lipgloss.Style
	numberStyle   lipgloss.Style
	operatorStyle lipgloss.Style
	commentStyle  lipgloss.Style
}

// NewPlanHighlighter returns a highlighter using the viewer theme.
func NewPlanHighlighter() *PlanHighlighter {
	h := &PlanHighlighter{
		ops:       make(map[string]bool),
		operators: make(map[string]bool),
	}
	for _, op := range ops {
		h.ops[op] = true
	}
	for _, op := range operators {
		h.operators[op] = true
		h.operators[strings.ToLower(op)] = true
	}

	h.keyStyle = lipgloss.NewStyle().Foreground(theme.Key).Bold(true)
	h.opStyle = lipgloss.NewStyle().Foreground(theme.Op).Bold(true)
	h.stringStyle = lipgloss.NewStyle().Foreground(theme.String)
	h.numberStyle = lipgloss.NewStyle().Foreground(theme.Number)
	h.operatorStyle = lipgloss.NewStyle().Foreground(theme.Operator)
	h.commentStyle = lipgloss.NewStyle().Foreground(theme.Comment).Italic(true)

	return h
}

// Highlight renders doc line by line. Indentation and flow punctuation are
// kept as written.
func (h *PlanHighlighter) Highlight(doc string) string {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = h.line(line)
	}
	return strings.Join(lines, "\n")
}

func (h *PlanHighlighter) line(line string) string {
	body := strings.TrimLeft(line, " -")
	indent := line[:len(line)-len(body)]

	if strings.HasPrefix(body, "#") {
		return indent + h.commentStyle.Render(body)
	}

	key, value, found := strings.Cut(body, ":")
	if !found || strings.ContainsAny(key, "{[\"' ") {
		return indent + h.scalar("", body)
	}
	out := indent + h.keyStyle.Render(key) + ":"
	if value == "" {
		return out
	}
	return out + " " + h.scalar(key, strings.TrimSpace(value))
}

func (h *PlanHighlighter) scalar(key, v string) string {
	unquoted := strings.Trim(v, `"'`)
	switch {
	case strings.HasPrefix(v, "#"):
		return h.commentStyle.Render(v)
	case key == "op" && h.ops[v]:
		return h.opStyle.Render(v)
	case key == "operator" && h.operators[unquoted]:
		return h.operatorStyle.Render(v)
	case len(v) >= 2 && (v[0] == '\'' || v[0] == '"') && v[len(v)-1] == v[0]:
		return h.stringStyle.Render(v)
	case isNumeric(v):
		return h.numberStyle.Render(v)
	}
	return v
}

// isNumeric reports whether s is an unsigned or negative decimal literal.
func isNumeric(s string) bool {
	digits := 0
	for i, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' || (c == '-' && i == 0):
		default:
			return false
		}
	}
	return digits > 0
}
