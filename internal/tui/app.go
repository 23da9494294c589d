package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/regionbar/internal/ipc"
)

// RefreshInterval is how often the region view polls the daemon.
const RefreshInterval = time.Second

// Client is the subset of the daemon IPC client the view needs.
type Client interface {
	ListRegions() (*ipc.RegionsData, error)
	FitRegion(region string) (int, error)
	Group() (int, error)
}

type regionsMsg struct {
	regions []ipc.RegionData
	err     error
}

type tickMsg time.Time

type actionMsg struct {
	text string
	err  error
}

// model is the root bubbletea model for the TUI.
type model struct {
	client   Client
	interval time.Duration

	regions   []ipc.RegionData
	selected  int
	connected bool
	message   string
	lastErr   error

	keys keyMap
	help help.Model

	// Terminal dimensions
	width  int
	height int
}

func newModel(client Client, interval time.Duration) model {
	if interval <= 0 {
		interval = RefreshInterval
	}
	return model{
		client:   client,
		interval: interval,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m model) fetch() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		data, err := client.ListRegions()
		if err != nil {
			return regionsMsg{err: err}
		}
		return regionsMsg{regions: data.Regions}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) selectedRegion() (ipc.RegionData, bool) {
	if m.selected < 0 || m.selected >= len(m.regions) {
		return ipc.RegionData{}, false
	}
	return m.regions[m.selected], true
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case regionsMsg:
		if msg.err != nil {
			m.connected = false
			m.lastErr = msg.err
			m.regions = nil
			m.selected = 0
			return m, nil
		}
		m.connected = true
		m.lastErr = nil
		m.regions = msg.regions
		if m.selected >= len(m.regions) {
			m.selected = len(m.regions) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.message = ""
			return m, nil
		}
		m.lastErr = nil
		m.message = msg.text
		return m, m.fetch()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Left):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.selected < len(m.regions)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch()

	case key.Matches(msg, m.keys.Fit):
		r, ok := m.selectedRegion()
		if !ok {
			return m, nil
		}
		client := m.client
		return m, func() tea.Msg {
			n, err := client.FitRegion(r.Name)
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{text: fmt.Sprintf("fitted %d window(s) in %s", n, r.Name)}
		}

	case key.Matches(msg, m.keys.Group):
		client := m.client
		return m, func() tea.Msg {
			n, err := client.Group()
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{text: fmt.Sprintf("grouped %d window(s)", n)}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m model) View() string {
	windows := 0
	for _, r := range m.regions {
		windows += len(r.Windows)
	}
	statusBar := renderStatusBar(m.connected, len(m.regions), windows, m.message, m.width)
	helpBar := m.help.View(m.keys)

	var body string
	switch {
	case !m.connected:
		body = emptyStyle.Render("waiting for regionbar daemon…")
	case len(m.regions) == 0:
		body = emptyStyle.Render("no regions configured")
	default:
		colWidth := minColumnWidth
		if m.width > 0 {
			if w := m.width/len(m.regions) - 2; w > colWidth {
				colWidth = w
			}
		}
		cols := make([]string, len(m.regions))
		for i, r := range m.regions {
			cols[i] = renderRegion(r, i == m.selected, colWidth)
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	}

	parts := []string{statusBar, body}
	if m.lastErr != nil {
		parts = append(parts, errorStyle.Render("error: "+m.lastErr.Error()))
	}
	parts = append(parts, helpBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
