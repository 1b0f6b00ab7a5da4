// Package tui is a terminal browser over the library view-model: authors,
// their books and the chapters of a book, with live updates and removal.
package tui

import (
	"context"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/services"
)

const appTitle = "BookLibrary"

type pane int

const (
	paneAuthors pane = iota
	paneBooks
	paneChapters
)

// changedMsg is sent whenever the library received a new snapshot.
type changedMsg struct{}

type removedKind int

const (
	removedAuthor removedKind = iota
	removedBook
	removedChapter
)

type removedMsg struct {
	kind removedKind
	id   string
	err  error
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	lib     *library.Library
	changes <-chan struct{}

	nav     library.NavState
	view    library.View
	pane    pane
	list    list.Model
	confirm *confirmDialog
	alert   string

	width  int
	height int
}

// NewModel builds the browser. changes receives a value after every library
// change; it may be nil when the caller refreshes by other means.
func NewModel(ctx context.Context, lib *library.Library, changes <-chan struct{}) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	m := Model{
		ctx:     ctx,
		lib:     lib,
		changes: changes,
		nav:     library.NewNavState(),
		list:    l,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// refresh derives the view for the current nav and loads the active pane into the list.
func (m *Model) refresh() {
	m.view = m.lib.View(&m.nav)

	if m.pane == paneChapters && m.view.SelectedBook == nil {
		m.pane = paneBooks
	}
	if m.pane == paneBooks && m.view.SelectedAuthor == nil {
		m.pane = paneAuthors
	}

	var items []list.Item
	switch m.pane {
	case paneAuthors:
		items = authorItems(m.view)
		m.list.Title = "Authors"
	case paneBooks:
		items = bookItems(m.view)
		m.list.Title = m.view.SelectedAuthor.Name
	case paneChapters:
		items = chapterItems(m.view)
		m.list.Title = m.view.SelectedBook.Title
	}
	m.list.SetItems(items)
	m.selectCurrent(items)
}

// selectCurrent keeps the cursor on the selected author or book.
func (m *Model) selectCurrent(items []list.Item) {
	for i, item := range items {
		switch it := item.(type) {
		case authorItem:
			if it.author.ID == m.nav.AuthorID {
				m.list.Select(i)
				return
			}
		case bookItem:
			if it.book.ID == m.nav.BookID {
				m.list.Select(i)
				return
			}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-2, msg.Height-6)
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case removedMsg:
		return m.handleRemoved(msg), nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m, m.updateConfirm(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			m.open()
			return m, nil
		case "esc", "backspace":
			m.back()
			return m, nil
		case "d", "delete":
			m.askRemove()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// open descends into the highlighted author or book.
func (m *Model) open() {
	switch item := m.list.SelectedItem().(type) {
	case authorItem:
		m.nav.HandleAuthorSelect(item.author.ID)
		m.pane = paneBooks
	case bookItem:
		m.nav.HandleBookSelect(item.book.ID)
		m.pane = paneChapters
	default:
		return
	}
	m.alert = ""
	m.refresh()
	m.list.Select(0)
}

func (m *Model) back() {
	switch m.pane {
	case paneChapters:
		m.nav.HandleBackToBooks()
		m.pane = paneBooks
	case paneBooks:
		m.pane = paneAuthors
	default:
		return
	}
	m.refresh()
}

func (m *Model) askRemove() {
	ctx, lib := m.ctx, m.lib
	switch item := m.list.SelectedItem().(type) {
	case authorItem:
		id := item.author.ID
		m.confirm = newConfirmDialog("Remove author and all their books?", func() tea.Msg {
			var nav library.NavState
			_, err := lib.RemoveAuthor(ctx, &nav, id)
			return removedMsg{kind: removedAuthor, id: id, err: err}
		})
	case bookItem:
		id := item.book.ID
		m.confirm = newConfirmDialog("Remove this book and all its chapters?", func() tea.Msg {
			var nav library.NavState
			_, err := lib.RemoveBook(ctx, &nav, id)
			return removedMsg{kind: removedBook, id: id, err: err}
		})
	case chapterItem:
		id := item.chapter.ID
		m.confirm = newConfirmDialog("Remove this chapter?", func() tea.Msg {
			return removedMsg{kind: removedChapter, id: id, err: lib.RemoveChapter(ctx, id)}
		})
	}
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "n":
		m.confirm = nil
		return nil
	case "y":
		m.confirm.yes = true
	}
	cmd, done := m.confirm.Update(msg)
	if done {
		m.confirm = nil
	}
	return cmd
}

func (m Model) handleRemoved(msg removedMsg) Model {
	if msg.err != nil {
		log.Printf("Internal error (remove): %v", msg.err)
		switch msg.kind {
		case removedAuthor:
			m.alert = "Error removing author. Please try again."
		case removedBook:
			m.alert = "Error removing book. Please try again."
		default:
			m.alert = "Error removing chapter. Please try again."
		}
		return m
	}

	m.alert = ""
	switch msg.kind {
	case removedAuthor:
		m.nav.AfterAuthorRemoved(msg.id)
	case removedBook:
		m.nav.AfterBookRemoved(msg.id)
	}
	m.refresh()
	return m
}

func (m Model) breadcrumbs() string {
	crumbs := []string{"Authors"}
	if m.pane >= paneBooks && m.view.SelectedAuthor != nil {
		crumbs = append(crumbs, m.view.SelectedAuthor.Name)
	}
	if m.pane == paneChapters && m.view.SelectedBook != nil {
		crumbs = append(crumbs, m.view.SelectedBook.Title)
	}
	return crumbStyle.Render(strings.Join(crumbs, " › "))
}

func (m Model) emptyMessage() string {
	switch m.pane {
	case paneBooks:
		return "No books yet"
	case paneChapters:
		return "No chapters yet"
	default:
		return "No authors yet"
	}
}

func (m Model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render(appTitle), "  ", m.breadcrumbs())

	var body string
	switch {
	case m.confirm != nil:
		body = m.confirm.View()
	case m.view.Loading:
		body = mutedStyle.Render("Loading...")
	case len(m.list.Items()) == 0:
		body = mutedStyle.Render(m.emptyMessage())
	default:
		body = m.list.View()
	}

	parts := []string{header}
	if m.alert != "" {
		parts = append(parts, errorStyle.Render(m.alert))
	}
	parts = append(parts, body, helpStyle.Render(
		formatKey("↑/↓", "navigate")+" • "+
			formatKey("enter", "open")+" • "+
			formatKey("esc", "back")+" • "+
			formatKey("d", "remove")+" • "+
			formatKey("/", "filter")+" • "+
			formatKey("q", "quit"),
	))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Run opens the browser over catalog until the user quits or ctx is done.
func Run(ctx context.Context, catalog *services.Catalog, autoSelect bool) error {
	changes := make(chan struct{}, 1)
	lib := library.New(catalog,
		library.WithAutoSelect(autoSelect),
		library.WithOnChange(func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		}),
	)
	if err := lib.Start(ctx); err != nil {
		return err
	}
	defer lib.Close()

	p := tea.NewProgram(NewModel(ctx, lib, changes), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
