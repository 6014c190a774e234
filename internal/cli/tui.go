package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorValue)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

// maxSampleWidth truncates the sample value shown next to each column.
const maxSampleWidth = 32

// =============================================================================
// ColumnListModel - Interactive BOM column selection
// =============================================================================

// ColumnListModel is the bubbletea model for picking the BOM column that
// holds part numbers. Each entry shows the header and the value from the
// first data row.
type ColumnListModel struct {
	Columns  []string
	Samples  []string
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewColumnListModel creates a column list with the cursor on the entry
// matching preferred, if any.
func NewColumnListModel(columns, samples []string, preferred string) ColumnListModel {
	m := ColumnListModel{
		Columns: columns,
		Samples: samples,
		Height:  15,
	}
	for i, col := range columns {
		if strings.EqualFold(strings.TrimSpace(col), strings.TrimSpace(preferred)) {
			m.Cursor = i
			break
		}
	}
	if m.Cursor >= m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m
}

func (m ColumnListModel) Init() tea.Cmd {
	return nil
}

func (m ColumnListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Columns)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Columns) == 0 {
				return m, tea.Quit
			}
			m.Selected = m.Columns[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ColumnListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Part Number Column"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Columns))
	for i := m.Offset; i < end; i++ {
		name := strings.TrimSpace(strings.TrimPrefix(m.Columns[i], utf8BOM))
		if name == "" {
			name = fmt.Sprintf("(column %d)", i+1)
		}
		sample := ""
		if i < len(m.Samples) {
			sample = truncate(strings.TrimSpace(m.Samples[i]), maxSampleWidth)
		}

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + name))
		} else {
			b.WriteString(listNormalStyle.Render("  " + name))
		}
		if sample != "" {
			b.WriteString("  ")
			b.WriteString(listDimStyle.Render(sample))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Columns))))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// pickBOMColumn shows the header of the BOM at path and returns the chosen
// column. An aborted selection returns errNoSelection.
func (c *CLI) pickBOMColumn(path, preferred string) (string, error) {
	header, sample, err := readBOMHeaderFile(path)
	if err != nil {
		return "", err
	}

	p := tea.NewProgram(NewColumnListModel(header, sample, preferred), tea.WithInput(c.in))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	fm, ok := finalModel.(ColumnListModel)
	if !ok || fm.Selected == "" {
		return "", errNoSelection
	}
	return strings.TrimSpace(strings.TrimPrefix(fm.Selected, utf8BOM)), nil
}
