package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"recommender/internal/domain"
)

// EnginePort is the TUI-facing subset of the engine.
type EnginePort interface {
	Search(text string) []string
	Recommend(title string, k int) ([]domain.Recommendation, error)
}

// Teaser shortens an overview for display.
type Teaser interface {
	Teaser(overview string, maxRunes int) string
}

// Limits bounds the suggestion list and the neighbour count.
type Limits struct {
	DefaultK        int
	MinK            int
	MaxK            int
	SuggestionLimit int
	MinSearchChars  int
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	engine      EnginePort
	teaser      Teaser
	limits      Limits
	input       textinput.Model
	viewport    viewport.Model
	bar         progress.Model
	suggestions []string
	cursor      int
	selected    string
	k           int
	results     []domain.Recommendation
	status      string
	ready       bool
}

// New creates a new TUI model instance. teaser may be nil.
func New(engine EnginePort, teaser Teaser, limits Limits) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a movie title..."
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 30
	return Model{
		engine:   engine,
		teaser:   teaser,
		limits:   limits,
		input:    ti,
		viewport: vp,
		bar:      bar,
		k:        limits.DefaultK,
		status:   fmt.Sprintf("Loaded. Type at least %d characters to search.", limits.MinSearchChars),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 + m.limits.SuggestionLimit + 1 // header, status, input, suggestions, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResults())
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyDown:
			if len(m.suggestions) > 0 {
				m.cursor = (m.cursor + 1) % len(m.suggestions)
			}
			return m, nil
		case tea.KeyUp:
			if len(m.suggestions) > 0 {
				m.cursor = (m.cursor - 1 + len(m.suggestions)) % len(m.suggestions)
			}
			return m, nil
		case tea.KeyTab:
			m.setK(m.k + 1)
			return m, nil
		case tea.KeyShiftTab:
			m.setK(m.k - 1)
			return m, nil
		case tea.KeyPgDown, tea.KeyPgUp:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			if len(m.suggestions) > 0 {
				m.selected = m.suggestions[m.cursor]
			}
			m.recommend()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshSuggestions()
	return m, cmd
}

func (m *Model) setK(k int) {
	if k < m.limits.MinK {
		k = m.limits.MinK
	}
	if k > m.limits.MaxK {
		k = m.limits.MaxK
	}
	m.k = k
	m.status = fmt.Sprintf("Number of recommendations: %d", m.k)
}

func (m *Model) refreshSuggestions() {
	q := strings.TrimSpace(m.input.Value())
	m.cursor = 0
	if len([]rune(q)) < m.limits.MinSearchChars || q == "" {
		m.suggestions = nil
		return
	}
	found := m.engine.Search(q)
	if len(found) == 0 {
		m.suggestions = nil
		m.status = "No movies found. Try a different search term."
		return
	}
	if len(found) > m.limits.SuggestionLimit {
		found = found[:m.limits.SuggestionLimit]
	}
	m.suggestions = found
	m.status = fmt.Sprintf("%d suggestion(s). Enter selects.", len(found))
}

func (m *Model) recommend() {
	if m.selected == "" {
		m.status = "Please select a movie first!"
		return
	}
	recs, err := m.engine.Recommend(m.selected, m.k)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m.status = fmt.Sprintf("%q is not in the catalog. Pick a suggestion.", m.selected)
		m.results = nil
	case err != nil:
		m.status = "Error: " + err.Error()
		m.results = nil
	case len(recs) == 0:
		m.status = "No recommendations found. Please try another movie."
		m.results = nil
	default:
		m.status = fmt.Sprintf("Movies similar to %q", m.selected)
		m.results = recs
	}
	m.viewport.SetContent(m.renderResults())
	m.viewport.GotoTop()
}

// View renders the TUI layout and current results.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Movie Recommendation System")
	sub := dimStyle.Render(fmt.Sprintf("k=%d (tab/shift+tab)  ↑/↓ choose  enter recommend  esc quit", m.k))
	if m.selected != "" {
		sub += "  " + selectedStyle.Render("Selected: "+m.selected)
	}
	input := queryBoxStyle.Render(m.input.View())
	var sug strings.Builder
	for i, s := range m.suggestions {
		if i == m.cursor {
			sug.WriteString(highlightStyle.Render("› " + s))
		} else {
			sug.WriteString("  " + s)
		}
		sug.WriteString("\n")
	}
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + sub + "\n" + input + "\n" + sug.String() + results + "\n" + status
}

func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return "No recommendations yet."
	}
	var b strings.Builder
	for i, r := range m.results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(highlightStyle.Render(fmt.Sprintf("%d. %s", i+1, r.Title)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(r.Genres, ", "))
		fmt.Fprintf(&b, "Rating: %g/10   Votes: %d\n", r.VoteAverage, r.VoteCount)
		fmt.Fprintf(&b, "Similarity: %.1f%% %s\n", r.Score*100, m.bar.ViewAs(r.Score))
		if m.teaser != nil && r.Overview != "" {
			b.WriteString(dimStyle.Render(m.teaser.Teaser(r.Overview, max(40, m.viewport.Width-4))))
			b.WriteString("\n")
		}
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
