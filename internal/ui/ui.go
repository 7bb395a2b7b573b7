package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"cratedex/internal/collection"
	"cratedex/internal/models"
)

// ViewState represents the current view in the browser.
type ViewState int

const (
	FolderView ViewState = iota
	TrackView
)

// Model represents the browser state: a stack of folder views over the
// sidebar projection, and a track list when a playlist is open.
type Model struct {
	engine *collection.Engine
	view   ViewState
	width  int
	height int

	stack    []*models.SidebarNode
	nodeList list.Model

	trackList list.Model
	err       error

	help help.Model
	keys keyMap
}

// NewModel creates a browser over a loaded engine. The sidebar must
// already be obtainable; load errors surface in the view.
func NewModel(engine *collection.Engine) Model {
	m := Model{
		engine: engine,
		view:   FolderView,
		help:   help.New(),
		keys:   newKeyMap(),
	}

	delegate := list.NewDefaultDelegate()
	m.nodeList = list.New(nil, delegate, 0, 0)
	m.nodeList.SetShowHelp(false)
	m.trackList = list.New(nil, delegate, 0, 0)
	m.trackList.SetShowHelp(false)

	if sidebar, err := engine.GetSidebar(); err != nil {
		m.err = err
	} else {
		m.stack = []*models.SidebarNode{sidebar}
		m.setFolder(sidebar)
	}
	return m
}

func (m *Model) setFolder(folder *models.SidebarNode) {
	items := make([]list.Item, 0, len(folder.Children))
	for _, child := range folder.Children {
		items = append(items, nodeItem{node: child})
	}
	m.nodeList.SetItems(items)
	m.nodeList.Title = folder.Name
	m.nodeList.ResetSelected()
}

func (m *Model) openPlaylist(node *models.SidebarNode) {
	tracks, err := m.engine.GetPlaylistTracks(node.Path)
	if err != nil {
		m.err = err
		return
	}
	items := make([]list.Item, 0, len(tracks))
	for _, track := range tracks {
		items = append(items, trackItem{track: track})
	}
	m.trackList.SetItems(items)
	m.trackList.Title = node.Name
	m.trackList.ResetSelected()
	m.view = TrackView
}

// Init implements [tea.Model].
func (m Model) Init() tea.Cmd { return nil }

// Update implements [tea.Model].
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.nodeList.SetSize(msg.Width, msg.Height-4)
		m.trackList.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.enter):
			if m.view != FolderView {
				break
			}
			item, ok := m.nodeList.SelectedItem().(nodeItem)
			if !ok {
				break
			}
			if item.node.Type == models.NodeFolder {
				m.stack = append(m.stack, item.node)
				m.setFolder(item.node)
			} else {
				m.openPlaylist(item.node)
			}
			return m, nil

		case key.Matches(msg, m.keys.back):
			if m.view == TrackView {
				m.view = FolderView
				return m, nil
			}
			if len(m.stack) > 1 {
				m.stack = m.stack[:len(m.stack)-1]
				m.setFolder(m.stack[len(m.stack)-1])
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.view == TrackView {
		m.trackList, cmd = m.trackList.Update(msg)
	} else {
		m.nodeList, cmd = m.nodeList.Update(msg)
	}
	return m, cmd
}

// View implements [tea.Model].
func (m Model) View() string {
	if m.err != nil {
		return styles.err.Render("error: "+m.err.Error()) + "\n" +
			styles.help.Render("press q to quit")
	}

	var body string
	if m.view == TrackView {
		body = m.trackList.View()
	} else {
		body = m.nodeList.View()
	}
	return body + "\n" + m.help.View(m.keys)
}
