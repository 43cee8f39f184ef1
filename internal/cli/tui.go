package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tidemarkhq/tidemark-go/pkg/api"
	"github.com/tidemarkhq/tidemark-go/pkg/document"
	"github.com/tidemarkhq/tidemark-go/pkg/render"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseResults opens the interactive document browser over one result
// page.
func browseResults(resp *api.Response) error {
	if len(resp.Results) == 0 {
		printInfo("No documents to browse")
		return nil
	}
	_, err := tea.NewProgram(newDocListModel(resp)).Run()
	return err
}

// DocListModel is the bubbletea model for browsing search results: a
// document list on top, the selected document's text rendering below.
type DocListModel struct {
	resp    *api.Response
	cursor  int
	offset  int
	height  int
	preview bool
}

func newDocListModel(resp *api.Response) DocListModel {
	return DocListModel{resp: resp, height: 15}
}

func (m DocListModel) Init() tea.Cmd {
	return nil
}

func (m DocListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.preview {
				m.preview = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if !m.preview && m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if !m.preview && m.cursor < len(m.resp.Results)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			m.preview = !m.preview
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m DocListModel) View() string {
	if m.preview {
		return m.previewView()
	}
	return m.listView()
}

func (m DocListModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Documents"))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("page %d/%d", m.resp.Page, m.resp.TotalPages)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ preview  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.resp.Results) {
		end = len(m.resp.Results)
	}
	for i := m.offset; i < end; i++ {
		doc := m.resp.Results[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-18s %-12s %s", cursor, doc.ID, doc.Type, docTitle(doc))
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.resp.Results))))
	return b.String()
}

func (m DocListModel) previewView() string {
	doc := m.resp.Results[m.cursor]

	var b strings.Builder
	b.WriteString(StyleTitle.Render(doc.ID))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(doc.Type + " · " + doc.Slug()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("⏎/esc back  q quit"))
	b.WriteString("\n\n")
	b.WriteString(render.AsText(doc))
	return b.String()
}

// docTitle picks a display title: the first heading of any rich-text
// fragment, else the document's slug.
func docTitle(doc *document.Document) string {
	for _, name := range doc.FragmentNames() {
		if st, ok := doc.GetStructuredText(name); ok {
			if title, ok := st.FirstTitle(); ok {
				return title
			}
		}
	}
	return doc.Slug()
}
