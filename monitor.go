package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tapkey/keyboard"
	"tapkey/log"
	"tapkey/tap"
)

var liveFlag bool

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Show key pressure and gestures live",
		Long: "Show key pressure, pending taps and dispatches in the terminal.\n" +
			"Actions are only reported unless --live is given.",
		Args: cobra.NoArgs,
		RunE: runMonitor,
	}
	cmd.Flags().BoolVar(&liveFlag, "live", false, "perform the bound actions")
	return cmd
}

// Monitor message types
type snapshotMsg []tap.KeySnapshot
type dispatchMsg struct {
	Key      keyboard.KeyCode
	Dispatch tap.Dispatch
	At       time.Time
}
type tapMsg struct {
	Key keyboard.KeyCode
	Tap tap.Tap
}

type monitorModel struct {
	det     *tap.Detector
	backend string
	live    bool

	keys       []tap.KeySnapshot
	lastTap    map[keyboard.KeyCode]tap.Tap
	last       map[keyboard.KeyCode]dispatchMsg
	dispatches int
	width      int
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	barFullStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	barOffStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	fireStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	dryStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

const barWidth = 30

func newMonitorModel(det *tap.Detector, backend string, live bool) monitorModel {
	return monitorModel{
		det:     det,
		backend: backend,
		live:    live,
		lastTap: make(map[keyboard.KeyCode]tap.Tap),
		last:    make(map[keyboard.KeyCode]dispatchMsg),
	}
}

func pollSnapshot(det *tap.Detector) tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return snapshotMsg(det.Snapshot())
	})
}

func (m monitorModel) Init() tea.Cmd {
	return pollSnapshot(m.det)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case snapshotMsg:
		m.keys = msg
		return m, pollSnapshot(m.det)

	case tapMsg:
		m.lastTap[msg.Key] = msg.Tap

	case dispatchMsg:
		m.dispatches++
		m.last[msg.Key] = msg
	}
	return m, nil
}

func pressureBar(p float32, threshold float32) string {
	p = min(max(p, 0), 1)
	n := int(p*barWidth + 0.5)
	style := barOffStyle
	if p > threshold {
		style = barFullStyle
	}
	return style.Render(strings.Repeat("█", n)) + barOffStyle.Render(strings.Repeat("░", barWidth-n))
}

func keyPhase(s tap.KeySnapshot) string {
	switch {
	case s.State.Pressed(s.Threshold):
		return "pressed"
	case len(s.State.Events) > 0:
		return "accumulating"
	default:
		return "idle"
	}
}

func (m monitorModel) View() string {
	var b strings.Builder

	mode := dryStyle.Render("dry run")
	if m.live {
		mode = fireStyle.Render("live")
	}
	fmt.Fprintf(&b, "%s  %s  %s\n\n",
		titleStyle.Render("tapkey monitor"), dimStyle.Render("backend "+m.backend), mode)

	if len(m.keys) == 0 {
		b.WriteString(dimStyle.Render("waiting for detector...") + "\n")
	}
	for _, k := range m.keys {
		fmt.Fprintf(&b, "%s  %s %.2f  %s\n",
			titleStyle.Render(fmt.Sprintf("%-10s", k.Key)),
			pressureBar(k.State.LastPressure, k.Threshold),
			k.State.LastPressure,
			dimStyle.Render(keyPhase(k)))

		pending := tap.Categories(k.State.Events)
		line := "  taps: " + dimStyle.Render("-")
		if len(pending) > 0 {
			line = "  taps: " + pending.String()
			if k.Pending != "" {
				line += dimStyle.Render("  (matches " + k.Pending + ")")
			}
		}
		b.WriteString(line + "\n")

		if t, ok := m.lastTap[k.Key]; ok {
			fmt.Fprintf(&b, "  last tap: %s %dms\n", t.Category, t.Duration.Milliseconds())
		}
		if d, ok := m.last[k.Key]; ok {
			fmt.Fprintf(&b, "  fired: %s  %s\n",
				fireStyle.Render(d.Dispatch.Name),
				dimStyle.Render(fmt.Sprintf("%s, %s, %s", d.Dispatch.Sequence, d.Dispatch.Trigger, d.At.Format("15:04:05"))))
		}
		if k.ReadFailures > 0 {
			fmt.Fprintf(&b, "  %s\n", dryStyle.Render(fmt.Sprintf("read failures: %d", k.ReadFailures)))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\n", dimStyle.Render(fmt.Sprintf("%d dispatches  •  q to quit", m.dispatches)))
	return b.String()
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	defer log.Close()
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("monitor needs a terminal; use the script command for piped input")
	}

	s, _, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	actionBackend := "dry-run"
	if liveFlag {
		actionBackend = s.ActionBackend
	}
	disp, err := openDispatcher(actionBackend)
	if err != nil {
		return err
	}

	src, err := keyboard.Open(s.Backend)
	if err != nil {
		return err
	}

	var prog *tea.Program
	obs := tap.Observers{
		&sessionObserver{},
		tap.ObserverFuncs{
			OnTap: func(key keyboard.KeyCode, t tap.Tap, _ int) {
				if prog != nil {
					prog.Send(tapMsg{Key: key, Tap: t})
				}
			},
			OnDispatch: func(key keyboard.KeyCode, d tap.Dispatch) {
				if prog != nil {
					prog.Send(dispatchMsg{Key: key, Dispatch: d, At: time.Now()})
				}
			},
		},
	}
	det, err := tap.New(src, tap.WithObserver(obs))
	if err != nil {
		return err
	}
	defer det.Close()

	kc, err := buildKeyConfig(s, disp)
	if err != nil {
		return err
	}
	det.AddKeyConfig(kc)

	prog = tea.NewProgram(newMonitorModel(det, keyboard.Name(src), liveFlag), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	det.Start(cmd.Context())
	_, err = prog.Run()
	return err
}
