package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

// CompareFunc scores two texts with the named method.
type CompareFunc func(ctx context.Context, text1, text2, method string) (ResultView, error)

// TUIConfig configures the interactive client.
type TUIConfig struct {
	Compare     CompareFunc
	Methods     []string // selectable methods, first is the default
	HistorySize int
	NoColor     bool
	Title       string
}

// errMissingText is shown when either text area is blank.
var errMissingText = errors.New("please provide two texts")

// RunTUI runs the interactive comparison client until the user quits or
// ctx is cancelled.
func RunTUI(ctx context.Context, cfg TUIConfig) error {
	if cfg.Compare == nil {
		return errors.New("compare function is required")
	}
	m := newCompareModel(ctx, cfg)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Message types for bubbletea
type compareDoneMsg struct {
	view ResultView
	err  error
}

// compareModel is the bubbletea model for the comparison client.
type compareModel struct {
	ctx      context.Context
	compare  CompareFunc
	inputs   [2]textarea.Model
	focus    int
	methods  []string
	method   int
	spinner  spinner.Model
	running  bool
	last     *ResultView
	err      error
	history  *History
	styles   Styles
	title    string
	width    int
	height   int
	quitting bool
}

func newCompareModel(ctx context.Context, cfg TUIConfig) *compareModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	methods := cfg.Methods
	if len(methods) == 0 {
		methods = []string{"lexical", "semantic"}
	}
	title := cfg.Title
	if title == "" {
		title = "Text Similarity"
	}

	m := &compareModel{
		ctx:     ctx,
		compare: cfg.Compare,
		methods: methods,
		spinner: s,
		history: NewHistory(cfg.HistorySize),
		styles:  GetStyles(cfg.NoColor || DetectNoColor()),
		title:   title,
		width:   80,
		height:  24,
	}
	for i := range m.inputs {
		ta := textarea.New()
		ta.Placeholder = fmt.Sprintf("Text %d", i+1)
		ta.ShowLineNumbers = false
		ta.CharLimit = 0
		ta.SetHeight(5)
		ta.SetWidth(m.width - 6)
		m.inputs[i] = ta
	}
	m.inputs[0].Focus()
	return m
}

// Init implements tea.Model.
func (m *compareModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m *compareModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab", "shift+tab":
			m.inputs[m.focus].Blur()
			m.focus = (m.focus + 1) % len(m.inputs)
			return m, m.inputs[m.focus].Focus()
		case "ctrl+t":
			m.method = (m.method + 1) % len(m.methods)
			return m, nil
		case "ctrl+s":
			return m, m.submit()
		case "ctrl+l":
			for i := range m.inputs {
				m.inputs[i].Reset()
			}
			m.last, m.err = nil, nil
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.inputs {
			m.inputs[i].SetWidth(max(msg.Width-6, 20))
		}
		return m, nil

	case compareDoneMsg:
		m.running = false
		if msg.err != nil {
			m.err = msg.err
			m.last = nil
			return m, nil
		}
		m.err = nil
		m.last = &msg.view
		m.history.Add(msg.view)
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// submit validates the inputs and starts a comparison.
func (m *compareModel) submit() tea.Cmd {
	if m.running {
		return nil
	}
	text1, text2 := m.inputs[0].Value(), m.inputs[1].Value()
	if strings.TrimSpace(text1) == "" || strings.TrimSpace(text2) == "" {
		m.err = errMissingText
		return nil
	}

	m.running = true
	m.err = nil
	method := m.methods[m.method]
	ctx, compare := m.ctx, m.compare
	run := func() tea.Msg {
		start := time.Now()
		v, err := compare(ctx, text1, text2, method)
		if err == nil {
			v.Text1, v.Text2 = text1, text2
			if v.Duration == 0 {
				v.Duration = time.Since(start)
			}
		}
		return compareDoneMsg{view: v, err: err}
	}
	return tea.Batch(run, m.spinner.Tick)
}

// View implements tea.Model.
func (m *compareModel) View() string {
	if m.quitting {
		return ""
	}

	width := max(m.width-4, 40)
	sections := []string{m.styles.Header.Render(m.title)}

	for i := range m.inputs {
		box := m.styles.Panel
		if i == m.focus {
			box = m.styles.Focus
		}
		sections = append(sections, box.Width(width).Render(m.inputs[i].View()))
	}

	sections = append(sections, m.renderMethods())

	switch {
	case m.running:
		sections = append(sections, m.spinner.View()+" Calculating similarity...")
	case m.err != nil:
		sections = append(sections, m.renderError())
	case m.last != nil:
		sections = append(sections, RenderResult(m.styles, *m.last, width))
	}

	if m.history.Len() > 0 {
		sections = append(sections, m.renderHistory(width))
	}

	sections = append(sections, m.styles.Dim.Render(
		"tab switch text • ctrl+t method • ctrl+s compare • ctrl+l clear • esc quit"))

	return strings.Join(sections, "\n")
}

// renderMethods renders the method selector.
func (m *compareModel) renderMethods() string {
	parts := make([]string, 0, len(m.methods))
	for i, name := range m.methods {
		if i == m.method {
			parts = append(parts, m.styles.Active.Render("● "+name))
		} else {
			parts = append(parts, m.styles.Dim.Render("○ "+name))
		}
	}
	return m.styles.Label.Render("Method: ") + strings.Join(parts, "  ")
}

// renderError renders the last failure with its hint.
func (m *compareModel) renderError() string {
	if errors.Is(m.err, errMissingText) {
		return m.styles.Error.Render("Please provide two texts.")
	}
	return m.styles.Error.Render(strings.TrimRight(simerrors.FormatForCLI(m.err), "\n"))
}

// renderHistory renders past comparisons, newest first.
func (m *compareModel) renderHistory(width int) string {
	lines := []string{m.styles.Header.Render("Previous Similarity Checks")}
	for i, e := range m.history.Entries() {
		lines = append(lines,
			m.styles.Active.Render(fmt.Sprintf("Check #%d", i+1)),
			fmt.Sprintf("  %s %s", m.styles.Label.Render("Method:"), strings.ToUpper(e.Method)),
			fmt.Sprintf("  %s %s", m.styles.Label.Render("Score:"), m.styles.Score(e.Score).Render(fmt.Sprintf("%.4f", e.Score))),
			fmt.Sprintf("  %s %s", m.styles.Label.Render("Text 1:"), m.styles.Dim.Render(e.Text1)),
			fmt.Sprintf("  %s %s", m.styles.Label.Render("Text 2:"), m.styles.Dim.Render(e.Text2)),
		)
	}
	return m.styles.Panel.Width(width).Render(strings.Join(lines, "\n"))
}
