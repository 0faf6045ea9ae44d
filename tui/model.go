// Package tui is the terminal board: a sidebar of categories with counts and
// the list of the active category. Tasks are dragged with the keyboard through
// the same drag session the list and sidebar drop targets use.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/alexalex89/task-management/dnd"
	"github.com/alexalex89/task-management/domain"
)

// Board is what the terminal board reads and mutates.
type Board interface {
	dnd.Board
	dnd.Counter
	ToggleComplete(ctx context.Context, id string) (*domain.Task, error)
	Delete(ctx context.Context, id string) (*domain.Task, error)
}

type focus int

const (
	focusList focus = iota
	focusSidebar
)

// Model is the bubbletea model of the board.
type Model struct {
	ctx     context.Context
	board   Board
	sidebar *dnd.Sidebar
	session *dnd.Session

	focus      focus
	cursor     int
	sideCursor int
	hover      *dnd.Target

	status string
	err    error
	width  int
	height int
}

// New builds a model on board. ctx is used for every store call.
func New(ctx context.Context, board Board, logger *log.Logger) Model {
	sb := dnd.NewSidebar(board)
	return Model{
		ctx:     ctx,
		board:   board,
		sidebar: sb,
		session: dnd.NewSession(board, sb, logger),
	}
}

// Run starts the board full screen and blocks until it quits.
func Run(ctx context.Context, board Board, logger *log.Logger) error {
	p := tea.NewProgram(New(ctx, board, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Active is the category whose list is shown.
func (m Model) Active() domain.Category { return m.sidebar.Active }

// Dragging reports whether a task is picked up.
func (m Model) Dragging() bool { return m.session.State() != dnd.Idle }

func (m Model) Status() string { return m.status }

func (m Model) Err() error { return m.err }

func (m Model) tasks() []domain.Task {
	return m.board.ByCategory(m.sidebar.Active)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		m.session.DragEnd()
		return m, tea.Quit
	case "esc":
		if m.Dragging() {
			m.session.DragEnd()
			m.hover = nil
			m.status = "drag cancelled"
			return m, nil
		}
		return m, tea.Quit
	case "tab":
		if m.focus == focusList {
			m.focus = focusSidebar
			m.sideCursor = categoryIndex(m.sidebar.Active)
		} else {
			m.focus = focusList
			m.clampCursor()
		}
		m.retarget()
		return m, nil
	case "up", "k":
		m.step(-1)
		return m, nil
	case "down", "j":
		m.step(1)
		return m, nil
	case "left", "h":
		m.showCategory(-1)
		return m, nil
	case "right", "l":
		m.showCategory(1)
		return m, nil
	case " ", "space":
		return m.pickUp(), nil
	case "enter":
		if m.Dragging() {
			return m.drop(), nil
		}
		if m.focus == focusSidebar {
			m.sidebar.Select(domain.Categories[m.sideCursor])
			m.focus = focusList
			m.cursor = 0
		}
		return m, nil
	case "x":
		if !m.Dragging() {
			m.toggleSelected()
		}
		return m, nil
	case "d":
		if !m.Dragging() {
			m.deleteSelected()
		}
		return m, nil
	case "1", "2", "3", "4", "5":
		i := int(key[0] - '1')
		if m.Dragging() {
			m.focus = focusSidebar
			m.sideCursor = i
			m.retarget()
			return m, nil
		}
		m.sidebar.Select(domain.Categories[i])
		m.cursor = 0
		return m, nil
	}
	return m, nil
}

func (m *Model) step(delta int) {
	if m.focus == focusSidebar {
		m.sideCursor = clamp(m.sideCursor+delta, len(domain.Categories))
	} else {
		m.cursor = clamp(m.cursor+delta, len(m.tasks()))
	}
	m.retarget()
}

// showCategory switches the list to a neighbouring category. A running drag
// stays picked up so it can be dropped into the other list.
func (m *Model) showCategory(delta int) {
	n := len(domain.Categories)
	i := (categoryIndex(m.sidebar.Active) + delta + n) % n
	m.sidebar.Select(domain.Categories[i])
	m.focus = focusList
	m.cursor = 0
	m.retarget()
}

func (m *Model) clampCursor() {
	m.cursor = clamp(m.cursor, len(m.tasks()))
}

// target is what the cursor points at in the focused panel.
func (m Model) target() (dnd.Target, bool) {
	if m.focus == focusSidebar {
		return dnd.Button(domain.Categories[m.sideCursor]), true
	}
	tasks := m.tasks()
	if len(tasks) == 0 {
		return dnd.Target{}, false
	}
	return dnd.Item(tasks[m.cursor].ID, m.sidebar.Active), true
}

// retarget moves the hover from the previous target to the one under the
// cursor while a drag is running.
func (m *Model) retarget() {
	if !m.Dragging() {
		return
	}
	if m.hover != nil {
		m.session.DragLeave(*m.hover)
		m.hover = nil
	}
	t, ok := m.target()
	if !ok {
		return
	}
	m.session.DragEnter(t)
	m.session.DragOver(t)
	m.hover = &t
}

func (m Model) pickUp() Model {
	if m.Dragging() || m.focus != focusList {
		return m
	}
	tasks := m.tasks()
	if len(tasks) == 0 {
		return m
	}
	t := tasks[m.cursor]
	if _, err := m.session.DragStart(t.ID, m.sidebar.Active); err != nil {
		m.err = err
		return m
	}
	m.err = nil
	m.status = fmt.Sprintf("dragging %q", t.Title)
	m.retarget()
	return m
}

func (m Model) drop() Model {
	id, _, _ := m.session.Source()
	t, ok := m.target()
	m.hover = nil
	if !ok {
		// An empty list has no items to land on; file the task into it.
		t = dnd.Button(m.sidebar.Active)
	}

	var (
		intent dnd.Intent
		err    error
	)
	if t.Kind == dnd.TargetCategory {
		intent, err = m.session.DropOnCategory(m.ctx, nil, t.Category)
	} else {
		intent, err = m.session.DropOnItem(m.ctx, nil, t.Category, t.TaskID)
	}
	m.err = err
	switch {
	case err != nil:
		m.status = ""
	case intent.Kind == dnd.Malformed:
		m.status = "drop ignored"
	case intent.TaskID == t.TaskID:
		m.status = ""
	case t.Kind == dnd.TargetCategory:
		m.status = "moved to " + t.Category.Label()
	case intent.Kind == dnd.Reorder:
		m.status = "reordered"
	default:
		m.status = "moved to " + t.Category.Label()
	}

	m.focus = focusList
	m.cursor = indexOf(m.tasks(), id)
	m.clampCursor()
	return m
}

func (m *Model) toggleSelected() {
	tasks := m.tasks()
	if m.focus != focusList || len(tasks) == 0 {
		return
	}
	t, err := m.board.ToggleComplete(m.ctx, tasks[m.cursor].ID)
	m.err = err
	if t != nil {
		if t.Completed {
			m.status = fmt.Sprintf("completed %q", t.Title)
		} else {
			m.status = fmt.Sprintf("reopened %q", t.Title)
		}
	}
}

func (m *Model) deleteSelected() {
	tasks := m.tasks()
	if m.focus != focusList || len(tasks) == 0 {
		return
	}
	t, err := m.board.Delete(m.ctx, tasks[m.cursor].ID)
	m.err = err
	if t != nil {
		m.status = fmt.Sprintf("deleted %q", t.Title)
	}
	m.clampCursor()
}

func (m Model) View() string {
	title := titleStyle.Render("GTD")

	sidebar := m.renderSidebar()
	list := m.renderList()
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, list)

	var footer string
	switch {
	case m.err != nil:
		footer = errorStyle.Render("error: " + m.err.Error())
	case m.status != "":
		footer = statusStyle.Render(m.status)
	}

	help := "j/k: move  h/l: list  tab: sidebar  space: pick up  enter: drop/open  esc: cancel  x: done  d: delete  q: quit"
	return lipgloss.JoinVertical(lipgloss.Left, title, body, footer, helpStyle.Render(help))
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	for i, e := range m.sidebar.Entries(m.board) {
		line := fmt.Sprintf("%-10s %s", e.Label, badgeStyle.Render(fmt.Sprintf("%d", e.Count)))
		switch {
		case m.session.IsDragOver(dnd.Button(e.Category)):
			line = dragOverStyle.Render(line)
		case e.Active:
			line = activeStyle.Render(line)
		}
		if m.focus == focusSidebar && i == m.sideCursor {
			line = cursorStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if i < len(domain.Categories)-1 {
			b.WriteString("\n")
		}
	}
	style := panelStyle
	if m.focus == focusSidebar {
		style = activePanelStyle
	}
	return style.Render(b.String())
}

func (m Model) renderList() string {
	active := m.sidebar.Active
	tasks := m.tasks()

	var b strings.Builder
	b.WriteString(activeStyle.Render(active.Label()))
	if len(tasks) == 0 {
		b.WriteString("\n" + helpStyle.Render("No tasks"))
	}
	for i, t := range tasks {
		b.WriteString("\n")
		b.WriteString(m.renderTask(i, t))
	}

	style := panelStyle
	if m.focus == focusList {
		style = activePanelStyle
	}
	if m.width > 0 {
		style = style.Width(max(m.width-24, 20))
	}
	return style.Render(b.String())
}

func (m Model) renderTask(i int, t domain.Task) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	title := t.Title
	if t.Completed {
		title = completedStyle.Render(title)
	}
	line := check + " " + title
	if p := renderPriority(t.Priority); p != "" {
		line += " " + p
	}
	if t.DueDate != nil {
		line += " " + badgeStyle.Render("due "+t.DueDate.String())
	}

	switch {
	case m.session.IsDragging(t.ID):
		line = draggingStyle.Render(line)
	case m.session.IsDragOver(dnd.Item(t.ID, m.sidebar.Active)):
		line = dragOverStyle.Render(line)
	}
	if m.focus == focusList && i == m.cursor {
		return cursorStyle.Render("> ") + line
	}
	return "  " + line
}

func renderPriority(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return priorityHigh.Render("!!!")
	case domain.PriorityMedium:
		return priorityMedium.Render("!!")
	case domain.PriorityLow:
		return priorityLow.Render("!")
	}
	return ""
}

func categoryIndex(c domain.Category) int {
	for i, cat := range domain.Categories {
		if cat == c {
			return i
		}
	}
	return 0
}

func indexOf(tasks []domain.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return 0
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
