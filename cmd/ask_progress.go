package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bnema/finagents/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	askProgressLabel     = "Asking the supervisor"
	askProgressMaxRunes  = 48
	askProgressTruncated = "…"
)

var askProgressElapsedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

type askDoneMsg struct {
	response domain.Response
	err      error
}

// askProgressModel shows the pending question and how long the supervisor
// has been working on it.
type askProgressModel struct {
	spinner  spinner.Model
	elapsed  stopwatch.Model
	question string
	ask      tea.Cmd
	response domain.Response
	err      error
	done     bool
}

func newAskProgressModel(question string, ask tea.Cmd) askProgressModel {
	return askProgressModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		elapsed:  stopwatch.NewWithInterval(time.Second),
		question: question,
		ask:      ask,
	}
}

func (m askProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.elapsed.Init(), m.ask)
}

func (m askProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case askDoneMsg:
		m.done = true
		m.response = msg.response
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		var cmd tea.Cmd
		m.elapsed, cmd = m.elapsed.Update(msg)
		return m, cmd
	}
}

func (m askProgressModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s: %s %s",
		m.spinner.View(),
		askProgressLabel,
		truncateQuestion(m.question, askProgressMaxRunes),
		askProgressElapsedStyle.Render(m.elapsed.View()),
	)
}

func truncateQuestion(question string, max int) string {
	question = strings.Join(strings.Fields(question), " ")
	runes := []rune(question)
	if len(runes) <= max {
		return question
	}
	return strings.TrimSpace(string(runes[:max-1])) + askProgressTruncated
}

// askWithProgress runs ask for one question while drawing progress on output.
func askWithProgress(
	ctx context.Context,
	output io.Writer,
	question string,
	ask func(context.Context, string) (domain.Response, error),
) (domain.Response, error) {
	askCmd := func() tea.Msg {
		response, err := ask(ctx, question)
		return askDoneMsg{response: response, err: err}
	}

	p := tea.NewProgram(
		newAskProgressModel(question, askCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return domain.Response{}, err
	}

	result, ok := finalModel.(askProgressModel)
	if !ok {
		return domain.Response{}, fmt.Errorf("unexpected final progress model type %T", finalModel)
	}

	return result.response, result.err
}
