package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/docsync/internal/reconcile"
)

// stopTimeout bounds how long Report waits for the live view to exit.
const stopTimeout = 2 * time.Second

// TUIRenderer shows a live spinner and stage bar while a pass runs, then
// prints the styled summary.
type TUIRenderer struct {
	*StyledRenderer

	tmu     sync.Mutex
	program *tea.Program
	done    chan struct{}
	noColor bool
}

// NewTUIRenderer creates a live renderer. It fails when the output is not
// a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	return &TUIRenderer{
		StyledRenderer: NewStyledRenderer(cfg),
		noColor:        cfg.NoColor || DetectNoColor(),
	}, nil
}

// StateChanged implements reconcile.Observer.
func (r *TUIRenderer) StateChanged(passID string, state reconcile.State) {
	r.send(stateMsg{passID: passID, state: state})
}

// ItemFailed implements reconcile.Observer.
func (r *TUIRenderer) ItemFailed(_ string, f reconcile.Failure) {
	r.send(failureMsg(f))
}

// Report stops the live view and prints the summary.
func (r *TUIRenderer) Report(rep *reconcile.Report) {
	r.stop()
	r.StyledRenderer.Report(rep)
}

// ChangeSet stops the live view and prints the diff.
func (r *TUIRenderer) ChangeSet(cs *reconcile.ChangeSet) {
	r.stop()
	r.StyledRenderer.ChangeSet(cs)
}

func (r *TUIRenderer) send(msg tea.Msg) {
	r.tmu.Lock()
	if r.program == nil {
		model := newPassModel(r.dir)
		if r.noColor {
			model.styles = NoColorStyles()
		}
		// Input and signals stay with the command so Ctrl+C cancels the pass.
		r.program = tea.NewProgram(model,
			tea.WithOutput(r.out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		)
		r.done = make(chan struct{})
		go func(p *tea.Program, done chan struct{}) {
			defer close(done)
			_, _ = p.Run()
		}(r.program, r.done)
	}
	p := r.program
	r.tmu.Unlock()

	p.Send(msg)
}

func (r *TUIRenderer) stop() {
	r.tmu.Lock()
	p, done := r.program, r.done
	r.program, r.done = nil, nil
	r.tmu.Unlock()

	if p == nil {
		return
	}
	p.Send(passEndMsg{})
	select {
	case <-done:
	case <-time.After(stopTimeout):
		p.Kill()
	}
}

type stateMsg struct {
	passID string
	state  reconcile.State
}

type failureMsg reconcile.Failure

type passEndMsg struct{}

// passModel is the bubbletea model for a running pass.
type passModel struct {
	spinner  spinner.Model
	bar      progress.Model
	styles   Styles
	dir      string
	passID   string
	state    reconcile.State
	failed   int
	lastFail string
	ended    bool
}

func newPassModel(dir string) *passModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	return &passModel{
		spinner: s,
		bar: progress.New(
			progress.WithSolidFill(ColorAccent),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		styles: DefaultStyles(),
		dir:    dir,
	}
}

// Init implements tea.Model.
func (m *passModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *passModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(msg.Width-30, 20)

	case stateMsg:
		m.passID = msg.passID
		m.state = msg.state

	case failureMsg:
		m.failed++
		m.lastFail = fmt.Sprintf("%s %s", msg.Op, msg.Identity)

	case passEndMsg:
		m.ended = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model. The final frame is empty so that the summary
// printed afterwards replaces it.
func (m *passModel) View() string {
	if m.ended {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteByte(' ')
	b.WriteString(m.renderStages())
	if m.passID != "" {
		b.WriteString("  " + m.styles.Dim.Render(shortID(m.passID)))
	}
	if m.dir != "" {
		b.WriteString("  " + m.styles.Dim.Render(m.dir))
	}
	b.WriteString("\n  ")
	b.WriteString(m.bar.ViewAs(stageFraction(m.state)))
	if m.failed > 0 {
		b.WriteString("\n  ")
		b.WriteString(m.styles.Warning.Render(fmt.Sprintf("%d failed", m.failed)))
		b.WriteString(m.styles.Dim.Render(" (last: " + m.lastFail + ")"))
	}
	b.WriteByte('\n')
	return b.String()
}

var passStages = []reconcile.State{
	reconcile.StateScanning,
	reconcile.StateDiffing,
	reconcile.StateApplying,
	reconcile.StateCommitting,
}

// renderStages shows the pass phases with the current one highlighted.
func (m *passModel) renderStages() string {
	parts := make([]string, 0, len(passStages))
	for _, s := range passStages {
		label := StateIcon(s)
		switch {
		case s == m.state:
			label = m.styles.Header.Render(label)
		case s < m.state:
			label = m.styles.Success.Render(label)
		default:
			label = m.styles.Dim.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, m.styles.Dim.Render(" > "))
}

// stageFraction maps a state onto the stage bar.
func stageFraction(s reconcile.State) float64 {
	switch s {
	case reconcile.StateScanning:
		return 0.1
	case reconcile.StateDiffing:
		return 0.3
	case reconcile.StateApplying:
		return 0.6
	case reconcile.StateCommitting:
		return 0.9
	case reconcile.StateDone, reconcile.StateFailed:
		return 1
	default:
		return 0
	}
}
