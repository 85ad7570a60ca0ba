package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/binschema"
)

var (
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type pane int

const (
	paneSchema pane = iota
	paneMessages
)

type interactiveModel struct {
	err        error
	schemaFile string
	dataFile   string
	meta       bool

	schemaView string
	msgView    string
	hash       string

	pane     pane
	viewport viewport.Model
	ready    bool
	loaded   bool
}

type loadedMsg struct {
	err        error
	schemaView string
	msgView    string
	hash       string
}

func newInteractiveModel(schemaFile, dataFile string, meta bool) *interactiveModel {
	return &interactiveModel{
		schemaFile: schemaFile,
		dataFile:   dataFile,
		meta:       meta,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	s, err := loadSchema(m.schemaFile, m.meta)
	if err != nil {
		return loadedMsg{err: err}
	}
	hash, err := binschema.SchemaHash(s)
	if err != nil {
		return loadedMsg{err: err}
	}

	msg := loadedMsg{
		schemaView: s.Pretty(),
		hash:       hex.EncodeToString(hash[:]),
	}

	if m.dataFile != "" {
		data, err := os.ReadFile(m.dataFile)
		if err != nil {
			return loadedMsg{err: err}
		}
		var out bytes.Buffer
		r := bytes.NewReader(data)
		for n := 0; r.Len() > 0; n++ {
			v, err := binschema.DecodeValue(r, s)
			if err != nil {
				return loadedMsg{err: fmt.Errorf("decode message %d: %w", n, err)}
			}
			fmt.Fprintf(&out, "message %d:\n%s\n", n, renderValue(v))
		}
		msg.msgView = out.String()
	} else {
		msg.msgView = "no data file given"
	}
	return msg
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.schemaView = msg.schemaView
		m.msgView = msg.msgView
		m.hash = msg.hash
		m.loaded = true
		m.syncContent()
		return m, nil

	case tea.WindowSizeMsg:
		headerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight
		}
		m.syncContent()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			if m.pane == paneSchema {
				m.pane = paneMessages
			} else {
				m.pane = paneSchema
			}
			m.syncContent()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *interactiveModel) syncContent() {
	if !m.ready || !m.loaded {
		return
	}
	if m.pane == paneSchema {
		m.viewport.SetContent(m.schemaView + "\nhash: " + m.hash)
	} else {
		m.viewport.SetContent(m.msgView)
	}
	m.viewport.GotoTop()
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if !m.ready || !m.loaded {
		return "loading...\n"
	}

	schemaTab := tabStyle.Render("schema")
	msgTab := tabStyle.Render("messages")
	if m.pane == paneSchema {
		schemaTab = activeTabStyle.Render("schema")
	} else {
		msgTab = activeTabStyle.Render("messages")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top, schemaTab, msgTab)
	help := helpStyle.Render("tab: switch pane • ↑/↓: scroll • q: quit")
	return header + "\n" + m.viewport.View() + "\n" + help
}

func runInteractive(schemaFile, dataFile string, meta bool) error {
	m := newInteractiveModel(schemaFile, dataFile, meta)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(*interactiveModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
