package panel

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"inflow/internal/logger"
	"inflow/internal/models"
	"inflow/internal/port"
)

// ScrollMsg reports the page scroll position. Height is the page viewport height.
type ScrollMsg struct {
	Y      int
	Height int
}

type positionMsg struct {
	position models.PanelPosition
}

type settingsMsg struct {
	id       int
	settings models.Settings
	err      error
}

type streamStartedMsg struct {
	id   int
	port port.Port
}

type streamFailedMsg struct {
	id  int
	err error
}

type envelopeMsg struct {
	id  int
	env models.Envelope
}

type portClosedMsg struct {
	id  int
	err error
}

type typeTickMsg struct {
	id int
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if m.state == Closed {
		if started, ok := msg.(streamStartedMsg); ok {
			_ = started.port.Close()
		}
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			m.Close()
			return nil
		case tea.KeyEnter:
			return m.Submit(m.input.Value())
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && !m.bounds.Contains(msg.X, msg.Y) {
			m.Close()
			return nil
		}
		if m.state == Expanded {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return cmd
		}
		return nil

	case ScrollMsg:
		m.trackScroll(msg)
		return nil

	case positionMsg:
		m.position = msg.position
		return nil

	case settingsMsg:
		return m.handleSettings(msg)

	case streamStartedMsg:
		s := m.current(msg.id)
		if s == nil {
			_ = msg.port.Close()
			return nil
		}
		s.Port = msg.port
		return waitForEnvelope(msg.port, msg.id)

	case streamFailedMsg:
		if s := m.current(msg.id); s != nil {
			m.fail(s, msg.err.Error())
		}
		return nil

	case envelopeMsg:
		s := m.current(msg.id)
		if s == nil || s.Finished {
			return nil
		}
		return m.handleEnvelope(s, msg.env)

	case portClosedMsg:
		if s := m.current(msg.id); s != nil && !s.Finished {
			m.fail(s, msg.err.Error())
		}
		return nil

	case typeTickMsg:
		s := m.current(msg.id)
		if s == nil {
			return nil
		}
		return m.typeStep(s)

	case spinner.TickMsg:
		if m.loadingVisible() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.refresh()
			return cmd
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// current returns the stream with the given id if it is still the live one.
func (m *Model) current(id int) *StreamState {
	if m.session == nil || m.session.Stream == nil || m.session.Stream.ID != id {
		return nil
	}
	return m.session.Stream
}

// Submit sends text as the next question. Blank text is ignored.
func (m *Model) Submit(raw string) tea.Cmd {
	text := strings.TrimSpace(raw)
	if text == "" || m.session == nil {
		return nil
	}
	sess := m.session

	if m.state == Collapsed {
		m.state = Expanded
		snap := m.cfg.Snapshot()
		sess.Context = &snap
	}
	if sess.Pending != nil {
		sess.Context = sess.Pending
		sess.Pending = nil
	}

	// abandon whatever was in flight
	if sess.Stream != nil {
		closeStream(sess.Stream)
		m.removeLoading(sess.Stream)
		sess.Stream = nil
	}

	sess.Entries = append(sess.Entries, Entry{Kind: EntryUser, Text: text})
	m.input.Reset()

	m.streamID++
	sess.Stream = &StreamState{
		ID:      m.streamID,
		Prompt:  BuildPrompt(sess.Context, text),
		bubble:  -1,
		loading: -1,
	}
	m.refreshToBottom()
	return m.loadSettings(m.streamID)
}

// userMessage is the bot entry text shown for a settings error.
func userMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrMissingAPIKey):
		return "Please set your API key in the settings."
	case errors.Is(err, models.ErrMissingBaseURL):
		return "Custom base URL is not set."
	}
	return err.Error()
}

func (m *Model) loadPosition() tea.Cmd {
	store := m.cfg.Store
	return func() tea.Msg {
		s, err := store.LoadSettings(context.Background())
		if err != nil {
			logger.Warnf("load panel position: %v", err)
			return positionMsg{position: models.PositionBottomRight}
		}
		return positionMsg{position: s.PanelPosition}
	}
}

func (m *Model) loadSettings(id int) tea.Cmd {
	store := m.cfg.Store
	return func() tea.Msg {
		s, err := store.LoadSettings(context.Background())
		return settingsMsg{id: id, settings: s, err: err}
	}
}

func (m *Model) handleSettings(msg settingsMsg) tea.Cmd {
	s := m.current(msg.id)
	if s == nil {
		return nil
	}
	if msg.err != nil {
		m.fail(s, msg.err.Error())
		return nil
	}

	settings := msg.settings
	if settings.APIKey() == "" {
		m.fail(s, userMessage(models.ErrMissingAPIKey))
		return nil
	}
	apiURL, err := settings.Endpoint()
	if err != nil {
		m.fail(s, userMessage(err))
		return nil
	}
	messages, err := BuildMessages(m.session.Transcript, s.Prompt)
	if err != nil {
		m.fail(s, err.Error())
		return nil
	}

	payload := &models.StreamPayload{
		APIURL:   apiURL,
		Model:    settings.Model(),
		Messages: messages,
		APIKey:   settings.APIKey(),
		Provider: string(settings.Provider),
	}

	m.session.Entries = append(m.session.Entries, Entry{Kind: EntryLoading})
	s.loading = len(m.session.Entries) - 1
	m.refreshToBottom()

	return tea.Batch(m.openStream(msg.id, payload), m.spinner.Tick)
}

func (m *Model) openStream(id int, payload *models.StreamPayload) tea.Cmd {
	dialer := m.cfg.Dialer
	return func() tea.Msg {
		p, err := dialer.Connect(context.Background(), models.ChannelStreamCompletion)
		if err != nil {
			return streamFailedMsg{id: id, err: err}
		}
		if err := p.Post(models.Envelope{Action: models.ActionStreamCompletion, Payload: payload}); err != nil {
			_ = p.Close()
			return streamFailedMsg{id: id, err: err}
		}
		return streamStartedMsg{id: id, port: p}
	}
}

// waitForEnvelope reads the next message of one stream.
func waitForEnvelope(p port.Port, id int) tea.Cmd {
	return func() tea.Msg {
		env, err := p.Receive()
		if err != nil {
			return portClosedMsg{id: id, err: err}
		}
		return envelopeMsg{id: id, env: env}
	}
}

func (m *Model) handleEnvelope(s *StreamState, env models.Envelope) tea.Cmd {
	switch {
	case env.Error != "":
		m.fail(s, env.Error)
		return nil

	case env.Done:
		m.finish(s)
		return nil
	}

	next := waitForEnvelope(s.Port, s.ID)
	text := ParseChunk(env.Chunk)
	if text == "" {
		return next
	}

	if s.bubble < 0 {
		m.removeLoading(s)
		m.session.Entries = append(m.session.Entries, Entry{Kind: EntryBot})
		s.bubble = len(m.session.Entries) - 1
	}
	runes := []rune(text)
	s.Queue = append(s.Queue, runes...)
	s.Received = append(s.Received, runes...)

	if s.Typing {
		return next
	}
	s.Typing = true
	return tea.Batch(next, m.typeTick(s.ID))
}

func (m *Model) typeTick(id int) tea.Cmd {
	return tea.Tick(m.cfg.Typing.Interval, func(time.Time) tea.Msg {
		return typeTickMsg{id: id}
	})
}

// typeStep reveals the next few queued characters.
func (m *Model) typeStep(s *StreamState) tea.Cmd {
	if len(s.Queue) == 0 {
		s.Typing = false
		m.renderBubble(s)
		return nil
	}

	t := m.cfg.Typing
	n := t.MinChars + m.cfg.Rand(t.MaxChars-t.MinChars+1)
	if n > len(s.Queue) {
		n = len(s.Queue)
	}
	s.Rendered += string(s.Queue[:n])
	s.Queue = s.Queue[n:]
	m.renderBubble(s)

	if len(s.Queue) == 0 {
		s.Typing = false
		return nil
	}
	return m.typeTick(s.ID)
}

func (m *Model) renderBubble(s *StreamState) {
	if s.bubble < 0 || s.bubble >= len(m.session.Entries) {
		return
	}
	stick := m.nearBottom()
	m.session.Entries[s.bubble].Text = s.Rendered
	m.refresh()
	if stick {
		m.viewport.GotoBottom()
	}
}

// finish records the completed pair. Typing carries on until the queue drains.
func (m *Model) finish(s *StreamState) {
	s.Finished = true
	closeStream(s)
	m.removeLoading(s)
	m.session.Transcript = append(m.session.Transcript,
		models.Message{Role: models.RoleUser, Content: s.Prompt},
		models.Message{Role: models.RoleAssistant, Content: string(s.Received)},
	)
	m.refresh()
}

// fail shows text as a bot entry and ends the stream without touching the transcript.
func (m *Model) fail(s *StreamState, text string) {
	s.Finished = true
	closeStream(s)
	m.removeLoading(s)
	m.session.Entries = append(m.session.Entries, Entry{Kind: EntryError, Text: text})
	if m.session.Stream == s {
		m.session.Stream = nil
	}
	m.refreshToBottom()
}

func (m *Model) removeLoading(s *StreamState) {
	if s.loading < 0 {
		return
	}
	entries := m.session.Entries
	if s.loading < len(entries) && entries[s.loading].Kind == EntryLoading {
		m.session.Entries = append(entries[:s.loading], entries[s.loading+1:]...)
		if s.bubble > s.loading {
			s.bubble--
		}
	}
	s.loading = -1
}

func (m *Model) loadingVisible() bool {
	return m.session != nil && m.session.Stream != nil && m.session.Stream.loading >= 0
}

// trackScroll takes a fresh snapshot when the page moved by more than half
// a screen since the last recorded position. A collapsed panel only records it.
func (m *Model) trackScroll(msg ScrollMsg) {
	sess := m.session
	if sess == nil {
		return
	}
	if m.state == Collapsed {
		sess.lastScrollY = msg.Y
		return
	}
	delta := msg.Y - sess.lastScrollY
	if delta < 0 {
		delta = -delta
	}
	if 2*delta <= msg.Height {
		return
	}

	snap := m.cfg.Snapshot()
	if replacesPending(sess.Pending, snap) {
		sess.Pending = &snap
	}
	sess.lastScrollY = msg.Y
}

func replacesPending(pending *models.Snapshot, next models.Snapshot) bool {
	if pending == nil {
		return true
	}
	if pending.ViewportText == next.ViewportText {
		return false
	}
	diff := len(pending.ViewportText) - len(next.ViewportText)
	if diff < 0 {
		diff = -diff
	}
	return diff > 100
}
