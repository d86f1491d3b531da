// Package tui is a terminal front end for a loaded CSV session. It drives
// the same core.Service as the web editor.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	maxColumnWidth = 30
	defaultHeight  = 15
)

// Options configures a TUI run.
type Options struct {
	Service   *core.Service
	SessionID string

	// Save writes the document somewhere and reports where.
	Save func(ctx context.Context) (string, error)

	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer
}

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeAdd
)

// savedMsg reports the result of a save.
type savedMsg struct {
	location string
	err      error
}

// Model is the bubbletea model of the editor.
type Model struct {
	ctx       context.Context
	svc       *core.Service
	sessionID string
	save      func(ctx context.Context) (string, error)

	doc    *core.Document
	table  table.Model
	inputs []textinput.Model
	focus  int
	mode   mode

	status      string
	err         error
	dirty       bool
	confirmQuit bool

	styles styles
}

// New builds a model for an existing session.
func New(ctx context.Context, opts Options) (*Model, error) {
	if opts.Service == nil {
		return nil, errors.New("tui: no service")
	}
	m := &Model{
		ctx:       ctx,
		svc:       opts.Service,
		sessionID: opts.SessionID,
		save:      opts.Save,
		styles:    defaultStyles(),
		table:     table.New(table.WithFocused(true), table.WithHeight(defaultHeight)),
	}
	if err := m.refresh(); err != nil {
		return nil, err
	}
	m.syncTable()
	return m, nil
}

// Run opens the editor and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	_, err = tea.NewProgram(m, progOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Leave room for title, status and help lines.
		m.table.SetHeight(max(msg.Height-8, 3))
		m.table.SetWidth(msg.Width)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.dirty = false
		m.setStatus("saved to " + msg.location)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode == modeBrowse {
			return m.updateBrowse(msg)
		}
		return m.updateForm(msg)
	}

	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "q" {
		m.confirmQuit = false
	}

	switch key {
	case "q":
		if m.dirty && !m.confirmQuit {
			m.confirmQuit = true
			m.setStatus("unsaved changes: press s to save or q again to quit")
			return m, nil
		}
		return m, tea.Quit

	case "e":
		rec, ok := m.selected()
		if !ok {
			m.setStatus("no row selected")
			return m, nil
		}
		if _, err := m.svc.BeginEdit(m.ctx, m.sessionID, rec.ID); err != nil {
			m.setError(err)
			return m, nil
		}
		m.mode = modeEdit
		return m, m.openForm(&rec)

	case "d":
		rec, ok := m.selected()
		if !ok {
			m.setStatus("no row selected")
			return m, nil
		}
		if _, err := m.svc.DeleteRow(m.ctx, m.sessionID, rec.ID); err != nil {
			m.setError(err)
			return m, nil
		}
		m.dirty = true
		m.reload(fmt.Sprintf("row %d deleted", m.table.Cursor()+1))
		return m, nil

	case "a":
		m.mode = modeAdd
		return m, m.openForm(nil)

	case "s":
		if m.save == nil {
			m.setStatus("saving is not configured")
			return m, nil
		}
		m.setStatus("saving...")
		return m, m.saveCmd()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == modeEdit {
			if _, err := m.svc.CancelEdit(m.ctx, m.sessionID); err != nil {
				m.setError(err)
			}
		}
		m.closeForm()
		m.setStatus("cancelled")
		return m, nil

	case "enter":
		m.submit()
		return m, nil

	case "tab", "down":
		return m, m.focusInput(m.focus + 1)

	case "shift+tab", "up":
		return m, m.focusInput(m.focus - 1)
	}

	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// submit commits the form. Edits merge only the changed inputs; adds skip
// empty inputs so those columns stay undefined.
func (m *Model) submit() {
	switch m.mode {
	case modeEdit:
		draft := core.Draft{}
		if id, ok := m.doc.Editing(); ok {
			if rec, found := m.doc.Row(id); found {
				draft = m.draft(&rec)
			}
		}
		if _, err := m.svc.CommitEdit(m.ctx, m.sessionID, draft); err != nil {
			m.closeForm()
			m.setError(err)
			return
		}
		m.dirty = m.dirty || len(draft) > 0
		m.closeForm()
		m.reload("row saved")

	case modeAdd:
		if _, err := m.svc.AddRow(m.ctx, m.sessionID, m.draft(nil)); err != nil {
			m.closeForm()
			m.setError(err)
			return
		}
		m.dirty = true
		m.closeForm()
		m.reload("row added")
		m.table.GotoBottom()
	}
}

func (m *Model) draft(current *core.Record) core.Draft {
	d := make(core.Draft)
	for i, h := range m.doc.Headers {
		if i >= len(m.inputs) {
			break
		}
		v := m.inputs[i].Value()
		if current != nil {
			if old, defined := current.Value(h); (defined && old == v) || (!defined && v == "") {
				continue
			}
		} else if v == "" {
			continue
		}
		d[h] = v
	}
	return d
}

func (m *Model) openForm(current *core.Record) tea.Cmd {
	m.inputs = make([]textinput.Model, len(m.doc.Headers))
	for i, h := range m.doc.Headers {
		ti := textinput.New()
		ti.Placeholder = h
		ti.Prompt = ""
		ti.CharLimit = 0
		ti.Width = maxColumnWidth
		if current != nil {
			ti.SetValue(current.Get(h))
		}
		m.inputs[i] = ti
	}
	m.focus = 0
	return m.focusInput(0)
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.inputs = nil
	m.focus = 0
	if err := m.refresh(); err != nil {
		m.setError(err)
	}
	m.syncTable()
}

func (m *Model) focusInput(i int) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	i = (i + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m *Model) saveCmd() tea.Cmd {
	ctx, save := m.ctx, m.save
	return func() tea.Msg {
		loc, err := save(ctx)
		return savedMsg{location: loc, err: err}
	}
}

// refresh reads the session's current document.
func (m *Model) refresh() error {
	sess, err := m.svc.Session(m.ctx, m.sessionID)
	if err != nil {
		return err
	}
	m.doc = sess.Document
	return nil
}

func (m *Model) reload(status string) {
	if err := m.refresh(); err != nil {
		m.setError(err)
		return
	}
	cursor := m.table.Cursor()
	m.syncTable()
	if n := len(m.doc.Rows); cursor >= n && n > 0 {
		m.table.SetCursor(n - 1)
	}
	m.setStatus(status)
}

func (m *Model) selected() (core.Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.doc.Rows) {
		return core.Record{}, false
	}
	return m.doc.Rows[i], true
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.err = nil
}

func (m *Model) setError(err error) {
	m.err = err
	m.status = ""
}

// syncTable rebuilds column widths and rows from the current document.
// Columns go first: the table renders each row cell against its column.
func (m *Model) syncTable() {
	m.table.SetColumns(m.columns())
	m.table.SetRows(m.rows())
}

func (m *Model) columns() []table.Column {
	cols := make([]table.Column, 0, len(m.doc.Headers)+1)
	cols = append(cols, table.Column{Title: "#", Width: max(len(strconv.Itoa(len(m.doc.Rows))), 2)})
	for _, h := range m.doc.Headers {
		w := lipgloss.Width(h)
		for _, row := range m.doc.Rows {
			w = max(w, lipgloss.Width(row.Get(h)))
		}
		cols = append(cols, table.Column{Title: h, Width: min(max(w, 3), maxColumnWidth)})
	}
	return cols
}

func (m *Model) rows() []table.Row {
	rows := make([]table.Row, len(m.doc.Rows))
	for i, rec := range m.doc.Rows {
		row := make(table.Row, 0, len(m.doc.Headers)+1)
		row = append(row, strconv.Itoa(i+1))
		for _, h := range m.doc.Headers {
			row = append(row, rec.Get(h))
		}
		rows[i] = row
	}
	return rows
}

func (m *Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("%s: %d rows", m.doc.Name, len(m.doc.Rows))
	if m.dirty {
		title += " (modified)"
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")

	var help string
	switch m.mode {
	case modeBrowse:
		b.WriteString(m.styles.Frame.Render(m.table.View()))
		help = "e edit • d delete • a add • s save • q quit"
	default:
		heading := "Add row"
		if m.mode == modeEdit {
			heading = fmt.Sprintf("Edit row %d", m.table.Cursor()+1)
		}
		b.WriteString(m.styles.Label.Render(heading))
		b.WriteString("\n\n")
		b.WriteString(m.formView())
		help = "enter confirm • esc cancel • tab next field"
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		msg := core.MapError(m.err)
		b.WriteString(m.styles.Error.Render(fmt.Sprintf("%s (%s)", msg.Message, msg.Code)))
	case m.status != "":
		b.WriteString(m.styles.Status.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(help))
	return b.String()
}

func (m *Model) formView() string {
	width := 0
	for _, h := range m.doc.Headers {
		width = max(width, lipgloss.Width(h))
	}
	label := m.styles.Label.Width(width + 2)

	lines := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		lines[i] = lipgloss.JoinHorizontal(lipgloss.Top, label.Render(m.doc.Headers[i]), in.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
