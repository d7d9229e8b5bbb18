package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gxianyd/mlir-modifier/pkg/ir"
	"github.com/gxianyd/mlir-modifier/pkg/view"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listMarkedStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	listGroupStyle    = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// BrowseModel - Interactive view graph navigation
// =============================================================================

// BrowseModel is the bubbletea model for interactive snapshot browsing.
// It owns the navigation state and rebuilds the view graph after every
// transition, mirroring what the HTTP server does per request.
type BrowseModel struct {
	Index  *ir.Index
	State  *view.State
	Graph  view.Graph
	Cursor int
	Height int
	Offset int

	// Marked holds operation ids selected for the next group.
	Marked map[string]bool

	status string
}

// NewBrowseModel creates a browse model rooted at the module scope.
func NewBrowseModel(idx *ir.Index, st *view.State) BrowseModel {
	m := BrowseModel{
		Index:  idx,
		State:  st,
		Height: 15,
		Marked: make(map[string]bool),
	}
	m.rebuild()
	return m
}

// rebuild recomputes the view graph and clamps the cursor.
func (m *BrowseModel) rebuild() {
	m.Graph = view.Build(m.Index, m.State)
	if m.Cursor >= len(m.Graph.Nodes) {
		m.Cursor = len(m.Graph.Nodes) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Offset > m.Cursor {
		m.Offset = m.Cursor
	}
}

// selected returns the node under the cursor, or nil for an empty view.
func (m *BrowseModel) selected() *view.Node {
	if m.Cursor < 0 || m.Cursor >= len(m.Graph.Nodes) {
		return nil
	}
	return &m.Graph.Nodes[m.Cursor]
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Graph.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.drillIn()
		case "esc", "backspace":
			m.drillOut()
		case "x":
			m.hideSelected()
		case "u":
			m.showAll()
		case " ":
			m.toggleMark()
		case "g":
			m.groupMarked()
		case "m":
			m.toggleGroupMode()
		case "G":
			m.ungroupSelected()
		case "+", "=":
			m.State.ExpandDepth++
			m.status = fmt.Sprintf("expand depth %d", m.State.ExpandDepth)
			m.rebuild()
		case "-":
			if m.State.ExpandDepth > 0 {
				m.State.ExpandDepth--
			}
			m.status = fmt.Sprintf("expand depth %d", m.State.ExpandDepth)
			m.rebuild()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// drillIn descends into the selected node: region-owning operations extend
// the view path, collapsed group nodes open a drill scope.
func (m *BrowseModel) drillIn() {
	node := m.selected()
	if node == nil {
		return
	}
	switch node.Kind {
	case view.KindGroup:
		if err := m.State.EnterDrillGroup(node.Group); err != nil {
			m.status = err.Error()
			return
		}
		m.status = "drilled into " + node.Label
	case view.KindOperation:
		if err := m.State.DrillIn(m.Index, node.Op); err != nil {
			m.status = err.Error()
			return
		}
		m.status = "drilled into " + node.Label
	default:
		return
	}
	m.Cursor, m.Offset = 0, 0
	m.rebuild()
}

// drillOut leaves the active drill scope first, then climbs the view path.
func (m *BrowseModel) drillOut() {
	if m.State.DrillGroup != 0 {
		m.State.ExitDrillGroup()
		m.status = "left group scope"
	} else if len(m.State.Path) > 1 {
		m.State.DrillOut()
		m.status = "drilled out"
	} else {
		return
	}
	m.Cursor, m.Offset = 0, 0
	m.rebuild()
}

func (m *BrowseModel) hideSelected() {
	node := m.selected()
	if node == nil || node.Kind != view.KindOperation {
		return
	}
	m.State.HideName(node.Label)
	m.status = "hid " + node.Label
	m.rebuild()
}

func (m *BrowseModel) showAll() {
	if len(m.State.Hidden) == 0 {
		return
	}
	for name := range m.State.Hidden {
		m.State.ShowName(name)
	}
	m.status = "cleared hidden names"
	m.rebuild()
}

func (m *BrowseModel) toggleMark() {
	node := m.selected()
	if node == nil || node.Kind != view.KindOperation {
		return
	}
	if m.Marked[node.Op] {
		delete(m.Marked, node.Op)
	} else {
		m.Marked[node.Op] = true
	}
}

func (m *BrowseModel) groupMarked() {
	if len(m.Marked) == 0 {
		m.status = "mark members with space first"
		return
	}
	members := make([]string, 0, len(m.Marked))
	for id := range m.Marked {
		members = append(members, id)
	}
	g, err := m.State.CreateGroup(m.Index, fmt.Sprintf("group %d", m.State.NextGroupID), members)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.Marked = make(map[string]bool)
	m.status = "created " + g.Name
	m.rebuild()
}

func (m *BrowseModel) toggleGroupMode() {
	node := m.selected()
	if node == nil {
		return
	}
	var id int
	var next view.GroupMode
	switch {
	case node.Kind == view.KindGroup:
		id, next = node.Group, view.GroupExpanded
	case node.ExpandedGroup != 0:
		id, next = node.ExpandedGroup, view.GroupCollapsed
	default:
		return
	}
	if err := m.State.SetGroupMode(id, next); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "group mode " + next.String()
	m.rebuild()
}

func (m *BrowseModel) ungroupSelected() {
	node := m.selected()
	if node == nil {
		return
	}
	id := node.Group
	if id == 0 {
		id = node.ExpandedGroup
	}
	if id == 0 {
		return
	}
	if err := m.State.Ungroup(id); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "ungrouped"
	m.rebuild()
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Browse " + m.breadcrumb()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ drill in  esc drill out  x hide  u unhide  ␣ mark  g group  m mode  G ungroup  +/- depth  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Graph.Nodes) {
		end = len(m.Graph.Nodes)
	}

	for i := m.Offset; i < end; i++ {
		node := m.Graph.Nodes[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := " "
		if node.Kind == view.KindOperation && m.Marked[node.Op] {
			mark = listMarkedStyle.Render("●")
		}

		line := fmt.Sprintf("%s%s %-28s %s", cursor, mark, node.Label, listDimStyle.Render(nodeDetail(node)))

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case node.Kind == view.KindGroup:
			b.WriteString(listGroupStyle.Render(line))
		case node.Kind == view.KindInput:
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %d edges", m.Cursor+1, len(m.Graph.Nodes), len(m.Graph.Edges))))
	if m.status != "" {
		b.WriteString("  " + StyleDim.Render(m.status))
	}
	b.WriteString("\n")

	return b.String()
}

// breadcrumb renders the view path, with the drill scope appended.
func (m BrowseModel) breadcrumb() string {
	parts := make([]string, 0, len(m.State.Path)+1)
	for _, opID := range m.State.Path {
		label := opID
		if op, ok := m.Index.Op(opID); ok {
			label = op.Name
		} else if opID == m.Index.ModuleID() {
			label = "module"
		}
		parts = append(parts, label)
	}
	if g := m.State.ActiveDrillGroup(); g != nil {
		parts = append(parts, g.Name)
	}
	return strings.Join(parts, " / ")
}

// nodeDetail summarizes a node's ports and drill affordances for the list.
func nodeDetail(node view.Node) string {
	var parts []string
	if len(node.Inputs) > 0 || len(node.Outputs) > 0 {
		parts = append(parts, fmt.Sprintf("%d in, %d out", len(node.Inputs), len(node.Outputs)))
	}
	if node.CollapsedByDepth {
		parts = append(parts, fmt.Sprintf("%d region(s)", node.RegionCount))
	}
	if node.Kind == view.KindGroup {
		parts = append(parts, "group")
	}
	if node.Kind == view.KindInput {
		parts = append(parts, node.Value)
	}
	return strings.Join(parts, " · ")
}
