package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inflow/internal/db"
	"inflow/internal/models"
	"inflow/internal/port"
)

func newTestServer(t *testing.T, settings models.Settings) *Server {
	t.Helper()
	s := New(Options{
		Store: db.NewMemoryStore(settings),
		Commands: []models.Command{
			{Name: models.CommandInvoke, Shortcut: "ctrl+k", Description: "Open the chat panel"},
		},
	})
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func drain(t *testing.T, p port.Port) []models.Envelope {
	t.Helper()
	var out []models.Envelope
	for {
		env, err := p.Receive()
		if err != nil {
			require.ErrorIs(t, err, port.ErrDisconnected)
			return out
		}
		out = append(out, env)
	}
}

func waitForPages(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Count() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestStreamChannelEndsWithSingleTerminal(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"Hi"}}]}`+"\n\n")
	}))
	defer upstream.Close()

	s := newTestServer(t, models.DefaultSettings())
	p, err := s.Dialer().Connect(context.Background(), models.ChannelStreamCompletion)
	require.NoError(t, err)
	payload := payloadFor(upstream.URL)
	require.NoError(t, p.Post(models.Envelope{Action: models.ActionStreamCompletion, Payload: &payload}))

	envs := drain(t, p)
	require.NotEmpty(t, envs)
	terminals := 0
	for _, e := range envs {
		if e.Terminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
	assert.True(t, envs[len(envs)-1].Done)
}

func TestStreamChannelRejectsOtherActions(t *testing.T) {
	s := newTestServer(t, models.DefaultSettings())
	p, err := s.Dialer().Connect(context.Background(), models.ChannelStreamCompletion)
	require.NoError(t, err)
	require.NoError(t, p.Post(models.Envelope{Action: "generate"}))

	envs := drain(t, p)
	require.Len(t, envs, 1)
	assert.Contains(t, envs[0].Error, "unsupported action")
}

func TestClosingConsumerCancelsUpstream(t *testing.T) {
	hit := make(chan struct{})
	cancelled := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		close(hit)
		<-r.Context().Done()
		close(cancelled)
	}))
	defer upstream.Close()

	s := newTestServer(t, models.DefaultSettings())
	p, err := s.Dialer().Connect(context.Background(), models.ChannelStreamCompletion)
	require.NoError(t, err)
	payload := payloadFor(upstream.URL)
	require.NoError(t, p.Post(models.Envelope{Action: models.ActionStreamCompletion, Payload: &payload}))

	<-hit
	require.NoError(t, p.Close())

	select {
	case <-cancelled:
	case <-time.After(3 * time.Second):
		t.Fatal("upstream request was not cancelled")
	}
}

func TestRuntimeChannel(t *testing.T) {
	opened := 0
	s := New(Options{
		Store:         db.NewMemoryStore(models.DefaultSettings()),
		Commands:      []models.Command{{Name: models.CommandInvoke, Shortcut: "ctrl+k"}},
		OpenShortcuts: func() error { opened++; return nil },
	})
	defer s.Shutdown()

	p, err := s.Dialer().Connect(context.Background(), models.ChannelRuntime)
	require.NoError(t, err)
	require.NoError(t, p.Post(models.Envelope{Action: models.ActionGetCommands}))
	envs := drain(t, p)
	require.Len(t, envs, 1)
	require.Len(t, envs[0].Commands, 1)
	assert.Equal(t, "ctrl+k", envs[0].Commands[0].Shortcut)

	p, err = s.Dialer().Connect(context.Background(), models.ChannelRuntime)
	require.NoError(t, err)
	require.NoError(t, p.Post(models.Envelope{Action: models.ActionOpenShortcuts}))
	envs = drain(t, p)
	require.Len(t, envs, 1)
	assert.True(t, envs[0].Done)
	assert.Equal(t, 1, opened)
}

func TestRuntimeShortcutFailure(t *testing.T) {
	s := New(Options{
		Store:         db.NewMemoryStore(models.DefaultSettings()),
		OpenShortcuts: func() error { return errors.New("no browser") },
	})
	defer s.Shutdown()

	p, err := s.Dialer().Connect(context.Background(), models.ChannelRuntime)
	require.NoError(t, err)
	require.NoError(t, p.Post(models.Envelope{Action: models.ActionOpenShortcuts}))
	envs := drain(t, p)
	require.Len(t, envs, 1)
	assert.Equal(t, "no browser", envs[0].Error)
}

func decodeStatus(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestInvokeCommandPushesToActivePage(t *testing.T) {
	s := newTestServer(t, models.DefaultSettings())

	older, err := s.Dialer().Connect(context.Background(), models.ChannelPage)
	require.NoError(t, err)
	waitForPages(t, s.Hub(), 1)
	newer, err := s.Dialer().Connect(context.Background(), models.ChannelPage)
	require.NoError(t, err)
	waitForPages(t, s.Hub(), 2)

	resp, err := s.App().Test(httptest.NewRequest("POST", "/v2/commands/"+models.CommandInvoke, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "delivered", decodeStatus(t, resp)["status"])

	env, err := newer.Receive()
	require.NoError(t, err)
	assert.Equal(t, models.ActionInvokePanel, env.Action)

	// the newest page is gone, the older one becomes active
	require.NoError(t, newer.Close())
	waitForPages(t, s.Hub(), 1)
	resp, err = s.App().Test(httptest.NewRequest("POST", "/v2/action", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	env, err = older.Receive()
	require.NoError(t, err)
	assert.Equal(t, models.ActionToggleOptions, env.Action)
}

func TestInvokeCommandHonorsInvocationMethod(t *testing.T) {
	settings := models.DefaultSettings()
	settings.InvocationMethod = models.InvokeTyping
	s := newTestServer(t, settings)

	page, err := s.Dialer().Connect(context.Background(), models.ChannelPage)
	require.NoError(t, err)
	waitForPages(t, s.Hub(), 1)

	resp, err := s.App().Test(httptest.NewRequest("POST", "/v2/commands/"+models.CommandInvoke, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ignored", decodeStatus(t, resp)["status"])

	// the toolbar action is not gated
	resp, err = s.App().Test(httptest.NewRequest("POST", "/v2/action", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	env, err := page.Receive()
	require.NoError(t, err)
	assert.Equal(t, models.ActionToggleOptions, env.Action)
}

func TestCommandErrors(t *testing.T) {
	s := newTestServer(t, models.DefaultSettings())

	resp, err := s.App().Test(httptest.NewRequest("POST", "/v2/commands/"+models.CommandInvoke, nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, ErrNoActivePage.Error(), decodeStatus(t, resp)["error"])

	resp, err = s.App().Test(httptest.NewRequest("POST", "/v2/commands/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = s.App().Test(httptest.NewRequest("GET", "/v2/channel/page", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestWebsocketChannel(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	s := newTestServer(t, models.DefaultSettings())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.App().Listener(ln) }()

	dialer := port.NewWebsocketDialer("http://" + ln.Addr().String())
	var p port.Port
	require.Eventually(t, func() bool {
		p, err = dialer.Connect(context.Background(), models.ChannelStreamCompletion)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	payload := payloadFor(upstream.URL)
	require.NoError(t, p.Post(models.Envelope{Action: models.ActionStreamCompletion, Payload: &payload}))

	envs := drain(t, p)
	require.NotEmpty(t, envs)
	assert.Equal(t, "data: [DONE]\n\n", envs[0].Chunk)
	assert.True(t, envs[len(envs)-1].Done)
}
