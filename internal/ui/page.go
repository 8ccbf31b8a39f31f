package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"inflow/internal/logger"
	"inflow/internal/models"
	"inflow/internal/port"
)

const pageConnectTimeout = 5 * time.Second

// connectPage registers the reader with the relay so hotkey and toolbar
// commands can reach it.
func (m *Model) connectPage() tea.Cmd {
	dialer := m.opts.Dialer
	if dialer == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pageConnectTimeout)
		defer cancel()
		p, err := dialer.Connect(ctx, models.ChannelPage)
		if err != nil {
			return pageClosedMsg{err: err}
		}
		return pageConnectedMsg{port: p}
	}
}

func waitForPage(p port.Port) tea.Cmd {
	return func() tea.Msg {
		env, err := p.Receive()
		if err != nil {
			return pageClosedMsg{err: err}
		}
		return pageMsg{env: env}
	}
}

func (m *Model) handlePage(env models.Envelope) tea.Cmd {
	switch env.Action {
	case models.ActionInvokePanel:
		if m.Panel.IsOpen() {
			return nil
		}
		return m.openPanel("")
	case models.ActionToggleOptions:
		return m.toggleOptions()
	}
	logger.Debugf("page: ignoring action %q", env.Action)
	return nil
}
