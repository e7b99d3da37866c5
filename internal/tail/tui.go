package tail

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/steveyegge/jjq/internal/lock"
	"github.com/steveyegge/jjq/internal/style"
)

// followTUI streams new log lines into the scrollback with a spinner
// while the check command is still producing output.
func followTUI(path string, locks *lock.Manager, offset int64) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = style.Dim

	m := followModel{
		path:   path,
		locks:  locks,
		offset: offset,
		sp:     sp,
	}
	_, err := tea.NewProgram(m).Run()
	return err
}

type followModel struct {
	path   string
	locks  *lock.Manager
	offset int64
	sp     spinner.Model
	notice string
	done   bool
}

type pollMsg struct{}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m followModel) Init() tea.Cmd {
	return tea.Batch(m.sp.Tick, poll())
}

func (m followModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd

	case pollMsg:
		lines, newOffset, sawSentinel, err := readNew(m.path, m.offset)
		if err != nil {
			m.notice = "log file disappeared"
			m.done = true
			return m, tea.Quit
		}

		var cmds []tea.Cmd
		for _, line := range lines {
			cmds = append(cmds, tea.Println(line))
		}

		if sawSentinel {
			m.done = true
			cmds = append(cmds, tea.Quit)
			return m, tea.Sequence(cmds...)
		}
		if newOffset == m.offset {
			if held, err := m.locks.IsHeld(lock.Run); err == nil && !held {
				m.notice = "run process is no longer active"
				m.done = true
				cmds = append(cmds, tea.Quit)
				return m, tea.Sequence(cmds...)
			}
		}
		m.offset = newOffset
		cmds = append(cmds, poll())
		return m, tea.Sequence(cmds...)
	}
	return m, nil
}

func (m followModel) View() string {
	if m.done {
		if m.notice != "" {
			return fmt.Sprintf("jjq: %s\n", m.notice)
		}
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.sp.View(), style.Dim.Render("following run output (q to quit)"))
}
