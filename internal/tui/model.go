// Package tui implements the interactive transaction table over a session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/radup/fintable/internal/model"
	"github.com/radup/fintable/internal/service"
	"github.com/radup/fintable/internal/session"
)

// mode is the current input mode of the table view.
type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeCategorize
	modeConfirmDelete
)

// sortCycle is the order the sort key rotates through.
var sortCycle = []model.SortField{
	model.SortByDate,
	model.SortByDescription,
	model.SortByVendor,
	model.SortByAmount,
	model.SortByCategory,
	model.SortByStatus,
}

// Config holds construction options for the table view.
type Config struct {
	Session   *session.Session
	Suggester service.Suggester
	Width     int
	Height    int
}

// Model holds the table view state.
type Model struct {
	sess        *session.Session
	suggester   service.Suggester
	suggestions map[string]service.Suggestion
	snap        session.Snapshot
	table       table.Model
	input       textinput.Model
	help        help.Model
	keymap      KeyMap
	mode        mode
	width       int
	height      int
	quitting    bool
}

// New creates the table view over a session.
func New(cfg Config) Model {
	columns := []table.Column{
		{Title: " ", Width: 3},
		{Title: "Date", Width: 10},
		{Title: "Description", Width: 32},
		{Title: "Vendor", Width: 18},
		{Title: "Amount", Width: 10},
		{Title: "Category", Width: 22},
		{Title: "✓", Width: 2},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(primaryColor)
	styles.Selected = styles.Selected.Foreground(lipglossWhite).Background(primaryColor)
	t.SetStyles(styles)

	input := textinput.New()
	input.Prompt = promptStyle.Render("> ")
	input.CharLimit = 64

	return Model{
		sess:        cfg.Session,
		suggester:   cfg.Suggester,
		suggestions: make(map[string]service.Suggestion),
		table:       t,
		input:       input,
		help:        help.New(),
		keymap:      DefaultKeyMap(),
		width:       cfg.Width,
		height:      cfg.Height,
	}
}

// Init triggers the initial fetch.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(maxInt(msg.Height-7, 5))
		return m, nil

	case snapshotMsg:
		m.snap = msg.snap
		m.table.SetRows(m.buildRows())
		return m, nil

	case bulkDoneMsg:
		m.snap = msg.snap
		m.table.SetRows(m.buildRows())
		return m, nil

	case suggestionMsg:
		if msg.err == nil && msg.suggestion != nil {
			m.suggestions[msg.id] = *msg.suggestion
			m.table.SetRows(m.buildRows())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeFilter, modeCategorize:
			return m.updateInput(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keymap.ToggleSelect):
		if txn, ok := m.cursorTransaction(); ok {
			m.sess.ToggleSelection(txn.ID)
		}
		return m.resnap()

	case key.Matches(msg, m.keymap.SelectAll):
		m.sess.SelectAll()
		return m.resnap()

	case key.Matches(msg, m.keymap.DeselectAll):
		m.sess.DeselectAll()
		return m.resnap()

	case key.Matches(msg, m.keymap.SelectVendor):
		if txn, ok := m.cursorTransaction(); ok {
			m.sess.SelectByAttribute("vendor", txn.Vendor)
		}
		return m.resnap()

	case key.Matches(msg, m.keymap.Categorize):
		if len(m.snap.SelectedIDs) == 0 {
			return m, nil
		}
		m.mode = modeCategorize
		m.input.Placeholder = "category/subcategory"
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keymap.Delete):
		if len(m.snap.SelectedIDs) == 0 {
			return m, nil
		}
		m.mode = modeConfirmDelete
		return m, nil

	case key.Matches(msg, m.keymap.Undo):
		return m, m.bulkCmd(m.sess.Undo)

	case key.Matches(msg, m.keymap.Redo):
		return m, m.bulkCmd(m.sess.Redo)

	case key.Matches(msg, m.keymap.Suggest):
		if txn, ok := m.cursorTransaction(); ok && m.suggester != nil {
			return m, m.suggestCmd(txn)
		}
		return m, nil

	case key.Matches(msg, m.keymap.Filter):
		m.mode = modeFilter
		m.input.Placeholder = "vendor (empty clears)"
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keymap.CycleSort):
		field, direction := m.nextSort()
		sess := m.sess
		return m, m.sessionCmd(func(ctx context.Context) error {
			return sess.SetSort(ctx, field, direction)
		})

	case key.Matches(msg, m.keymap.PrevPage):
		if m.snap.Query.PageIndex > 1 {
			sess := m.sess
			page := m.snap.Query.PageIndex - 1
			return m, m.sessionCmd(func(ctx context.Context) error {
				return sess.SetPage(ctx, page)
			})
		}
		return m, nil

	case key.Matches(msg, m.keymap.NextPage):
		if m.snap.Query.PageIndex < m.totalPages() {
			sess := m.sess
			page := m.snap.Query.PageIndex + 1
			return m, m.sessionCmd(func(ctx context.Context) error {
				return sess.SetPage(ctx, page)
			})
		}
		return m, nil

	case key.Matches(msg, m.keymap.Refresh):
		return m, m.refreshCmd()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		wasFilter := m.mode == modeFilter
		m.mode = modeBrowse
		m.input.Blur()

		sess := m.sess
		if wasFilter {
			return m, m.sessionCmd(func(ctx context.Context) error {
				return sess.SetFilter(ctx, map[string]string{"vendor": value})
			})
		}
		category, subcategory := splitCategory(value)
		return m, m.bulkCmd(func(ctx context.Context) (*model.BulkResult, error) {
			return sess.CategorizeSelected(ctx, category, subcategory)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeBrowse
		return m, m.bulkCmd(m.sess.DeleteSelected)
	default:
		m.mode = modeBrowse
		return m, nil
	}
}

// View renders the table, status line, and help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("fintable"))
	b.WriteString("\n")
	b.WriteString(tableBorderStyle.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	switch m.mode {
	case modeFilter, modeCategorize:
		b.WriteString(m.input.View())
	case modeConfirmDelete:
		b.WriteString(errorStyle.Render(fmt.Sprintf("delete %d selected records? (y/n)", len(m.snap.SelectedIDs))))
	default:
		if m.snap.FetchErr != nil {
			b.WriteString(errorStyle.Render("fetch failed: " + m.snap.FetchErr.Error()))
		} else if m.snap.LastMessage != "" {
			b.WriteString(messageStyle.Render(m.snap.LastMessage))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))
	return b.String()
}

func (m Model) statusLine() string {
	q := m.snap.Query
	parts := []string{
		fmt.Sprintf("page %d/%d", q.PageIndex, m.totalPages()),
		fmt.Sprintf("%d records", m.snap.TotalCount),
		fmt.Sprintf("%d selected", len(m.snap.SelectedIDs)),
		fmt.Sprintf("sort %s %s", q.SortField, q.SortDirection),
	}
	if m.snap.CanUndo {
		parts = append(parts, "undo available")
	}
	if m.snap.CanRedo {
		parts = append(parts, "redo available")
	}
	return statusStyle.Render(strings.Join(parts, " · "))
}

func (m Model) buildRows() []table.Row {
	rows := make([]table.Row, 0, len(m.snap.Records))
	selected := make(map[string]bool, len(m.snap.SelectedIDs))
	for _, id := range m.snap.SelectedIDs {
		selected[id] = true
	}

	for _, t := range m.snap.Records {
		mark := " "
		if selected[t.ID] {
			mark = "✓"
		}
		status := "·"
		if t.IsCategorized {
			status = "✓"
		}
		category := t.Category
		if t.Subcategory != "" {
			category += "/" + t.Subcategory
		}
		if category == "" {
			if s, ok := m.suggestions[t.ID]; ok {
				category = fmt.Sprintf("%s? (%.0f%%)", s.Category, s.Confidence*100)
			}
		}
		rows = append(rows, table.Row{
			mark,
			t.Date.Format("2006-01-02"),
			truncate(t.Description, 32),
			truncate(t.Vendor, 18),
			fmt.Sprintf("%.2f", t.Amount),
			truncate(category, 22),
			status,
		})
	}
	return rows
}

func (m Model) cursorTransaction() (model.Transaction, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.snap.Records) {
		return model.Transaction{}, false
	}
	return m.snap.Records[idx], true
}

func (m Model) totalPages() int {
	size := m.snap.Query.PageSize
	if size <= 0 {
		size = model.DefaultPageSize
	}
	pages := (m.snap.TotalCount + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return pages
}

func (m Model) nextSort() (model.SortField, model.SortDirection) {
	current := m.snap.Query.SortField
	for i, field := range sortCycle {
		if field == current {
			return sortCycle[(i+1)%len(sortCycle)], m.snap.Query.SortDirection
		}
	}
	return model.SortByDate, model.SortDesc
}

// resnap refreshes the local snapshot after a synchronous selection change.
func (m Model) resnap() (tea.Model, tea.Cmd) {
	m.snap = m.sess.Snapshot()
	m.table.SetRows(m.buildRows())
	return m, nil
}

func (m Model) refreshCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		err := sess.Refresh(context.Background())
		return snapshotMsg{snap: sess.Snapshot(), err: err}
	}
}

func (m Model) sessionCmd(op func(context.Context) error) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		err := op(context.Background())
		return snapshotMsg{snap: sess.Snapshot(), err: err}
	}
}

func (m Model) bulkCmd(op func(context.Context) (*model.BulkResult, error)) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		result, err := op(context.Background())
		return bulkDoneMsg{result: result, err: err, snap: sess.Snapshot()}
	}
}

func (m Model) suggestCmd(txn model.Transaction) tea.Cmd {
	suggester := m.suggester
	return func() tea.Msg {
		suggestion, err := suggester.Suggest(context.Background(), txn)
		return suggestionMsg{id: txn.ID, suggestion: suggestion, err: err}
	}
}

// Run starts the interactive table.
func Run(cfg Config) error {
	program := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func splitCategory(value string) (string, string) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(value), ""
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return s[:width-1] + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
